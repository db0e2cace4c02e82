package stats

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/qlstats/internal/monitor"
)

const testEndpoint = "tcp://127.0.0.1:27960"

// fakeConn is an in-memory Connection.
type fakeConn struct {
	msgs   chan string
	events chan monitor.Event

	mu           sync.Mutex
	configureErr error
	connectErrs  []error // consumed in order; nil once exhausted
	connects     []string
	password     string
	identity     string
	disconnects  int
	closes       int
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		msgs:   make(chan string, 16),
		events: make(chan monitor.Event, 16),
	}
}

func (f *fakeConn) Configure(password, identity string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.password, f.identity = password, identity
	return f.configureErr
}

func (f *fakeConn) Connect(endpoint string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects = append(f.connects, endpoint)
	if len(f.connectErrs) == 0 {
		return nil
	}
	err := f.connectErrs[0]
	f.connectErrs = f.connectErrs[1:]
	return err
}

func (f *fakeConn) Disconnect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
	return errors.New("no endpoint")
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return nil
}

func (f *fakeConn) Messages() <-chan string       { return f.msgs }
func (f *fakeConn) Events() <-chan monitor.Event { return f.events }

func (f *fakeConn) counts() (connects, disconnects, closes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.connects), f.disconnects, f.closes
}

// recordingObserver records everything it is shown.
type recordingObserver struct {
	mu       sync.Mutex
	messages []string
	events   []monitor.Kind
}

func (r *recordingObserver) OnMessage(raw string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, raw)
}

func (r *recordingObserver) OnLifecycle(ev monitor.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev.Kind)
}

type harness struct {
	conn    *fakeConn
	display *Display
	cancel  context.CancelFunc
	done    chan error
}

func startSupervisor(t *testing.T, conn *fakeConn, pretty bool, observers ...Observer) *harness {
	t.Helper()

	display := NewDisplay(16)
	sup, err := NewSupervisor(Deps{
		Endpoint:      testEndpoint,
		Password:      "secret",
		Identity:      "id-1",
		Pretty:        pretty,
		NewConnection: func() (Connection, error) { return conn, nil },
		Display:       display,
		Observers:     observers,
	})
	if err != nil {
		t.Fatalf("NewSupervisor() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &harness{conn: conn, display: display, cancel: cancel, done: make(chan error, 1)}
	go func() { h.done <- sup.Run(ctx) }()
	t.Cleanup(cancel)
	return h
}

func (h *harness) next(t *testing.T) string {
	t.Helper()
	select {
	case line, ok := <-h.display.Lines():
		if !ok {
			t.Fatal("display closed, want another line")
		}
		return line
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for display line")
	}
	return ""
}

func (h *harness) expect(t *testing.T, want ...string) {
	t.Helper()
	for _, w := range want {
		if got := h.next(t); got != w {
			t.Fatalf("display line = %q, want %q", got, w)
		}
	}
}

func (h *harness) wait(t *testing.T) error {
	t.Helper()
	select {
	case err := <-h.done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	return nil
}

// drained asserts the display was closed with no further lines.
func (h *harness) drained(t *testing.T) {
	t.Helper()
	for line := range h.display.Lines() {
		t.Errorf("unexpected display line %q", line)
	}
}

func TestSupervisor_EndToEnd(t *testing.T) {
	conn := newFakeConn()
	h := startSupervisor(t, conn, true)

	h.expect(t, "ZMQ connecting to tcp://127.0.0.1:27960...")

	conn.msgs <- `{"a":1}`
	h.expect(t, "{\n  \"a\": 1\n}")

	conn.events <- monitor.Event{Kind: monitor.KindHandshakeSucceeded}
	h.expect(t, "ZMQ connected to tcp://127.0.0.1:27960.")

	h.cancel()
	if err := h.wait(t); err != nil {
		t.Errorf("Run() error = %v, want nil on cancel", err)
	}
	h.drained(t)

	connects, disconnects, closes := conn.counts()
	if connects != 1 || disconnects != 1 || closes != 1 {
		t.Errorf("connects/disconnects/closes = %d/%d/%d, want 1/1/1", connects, disconnects, closes)
	}
	if conn.password != "secret" || conn.identity != "id-1" {
		t.Errorf("Configure(%q, %q), want (secret, id-1)", conn.password, conn.identity)
	}
}

func TestSupervisor_ReconnectNoticeOncePerOutage(t *testing.T) {
	conn := newFakeConn()
	h := startSupervisor(t, conn, false)
	h.expect(t, "ZMQ connecting to tcp://127.0.0.1:27960...")

	for _, k := range []monitor.Kind{monitor.KindClosed, monitor.KindClosed, monitor.KindClosed} {
		conn.events <- monitor.Event{Kind: k}
	}
	conn.events <- monitor.Event{Kind: monitor.KindHandshakeSucceeded}
	conn.events <- monitor.Event{Kind: monitor.KindDisconnected}

	h.expect(t,
		"Reconnecting ZMQ...",
		"ZMQ connected to tcp://127.0.0.1:27960.",
		"Reconnecting ZMQ...",
	)

	h.cancel()
	h.wait(t)

	// Initial connect plus one per drop.
	if connects, _, _ := conn.counts(); connects != 5 {
		t.Errorf("connects = %d, want 5", connects)
	}
}

func TestSupervisor_FatalEventStops(t *testing.T) {
	conn := newFakeConn()
	h := startSupervisor(t, conn, false)
	h.expect(t, "ZMQ connecting to tcp://127.0.0.1:27960...")

	conn.events <- monitor.Event{Kind: monitor.KindHandshakeFailedAuth, Value: 400}
	h.expect(t, "ZMQ socket error: HandshakeFailedAuth(400)")

	err := h.wait(t)
	if !errors.Is(err, monitor.ErrTransportAuth) {
		t.Errorf("Run() error = %v, want ErrTransportAuth", err)
	}
	h.drained(t)

	// Events queued after the fatal one must not trigger a reconnect.
	conn.events <- monitor.Event{Kind: monitor.KindClosed}
	if connects, disconnects, closes := conn.counts(); connects != 1 || disconnects != 1 || closes != 1 {
		t.Errorf("connects/disconnects/closes = %d/%d/%d, want 1/1/1", connects, disconnects, closes)
	}
}

func TestSupervisor_ReconnectFailureKeepsRunning(t *testing.T) {
	conn := newFakeConn()
	conn.connectErrs = []error{nil, errors.New("zmq: connect failed")}
	h := startSupervisor(t, conn, false)
	h.expect(t, "ZMQ connecting to tcp://127.0.0.1:27960...")

	conn.events <- monitor.Event{Kind: monitor.KindDisconnected}
	h.expect(t, "Reconnecting ZMQ...", "error reconnecting: zmq: connect failed.")

	conn.msgs <- `{"TYPE":"ROUND_OVER"}`
	h.expect(t, `{"TYPE":"ROUND_OVER"}`)

	h.cancel()
	if err := h.wait(t); err != nil {
		t.Errorf("Run() error = %v, want nil", err)
	}
}

func TestSupervisor_MessagesBeforeEvents(t *testing.T) {
	conn := newFakeConn()
	conn.msgs <- "m1"
	conn.msgs <- "m2"
	conn.msgs <- "m3"
	conn.events <- monitor.Event{Kind: monitor.KindClosed}

	h := startSupervisor(t, conn, false)
	h.expect(t,
		"ZMQ connecting to tcp://127.0.0.1:27960...",
		"m1", "m2", "m3",
		"Reconnecting ZMQ...",
	)
	h.cancel()
	h.wait(t)
}

func TestSupervisor_MonitorFeedLost(t *testing.T) {
	conn := newFakeConn()
	h := startSupervisor(t, conn, false)
	h.expect(t, "ZMQ connecting to tcp://127.0.0.1:27960...")

	close(conn.events)
	h.expect(t, "ZMQ socket error: MonitorStopped")

	if err := h.wait(t); !errors.Is(err, monitor.ErrMonitorStopped) {
		t.Errorf("Run() error = %v, want ErrMonitorStopped", err)
	}
}

func TestSupervisor_DisplayDetached(t *testing.T) {
	conn := newFakeConn()
	h := startSupervisor(t, conn, false)
	h.expect(t, "ZMQ connecting to tcp://127.0.0.1:27960...")

	h.display.Detach()
	conn.msgs <- "late"

	if err := h.wait(t); !errors.Is(err, ErrDisplayClosed) {
		t.Errorf("Run() error = %v, want ErrDisplayClosed", err)
	}
	if _, disconnects, closes := conn.counts(); disconnects != 1 || closes != 1 {
		t.Errorf("disconnects/closes = %d/%d, want 1/1", disconnects, closes)
	}
}

func TestSupervisor_Observers(t *testing.T) {
	conn := newFakeConn()
	obs := &recordingObserver{}
	h := startSupervisor(t, conn, true, obs)
	h.expect(t, "ZMQ connecting to tcp://127.0.0.1:27960...")

	conn.msgs <- `{"TYPE":"PLAYER_DEATH"}`
	h.next(t)
	conn.events <- monitor.Event{Kind: monitor.KindConnected}
	conn.events <- monitor.Event{Kind: monitor.KindHandshakeSucceeded}
	h.next(t)

	h.cancel()
	h.wait(t)

	obs.mu.Lock()
	defer obs.mu.Unlock()
	if len(obs.messages) != 1 || obs.messages[0] != `{"TYPE":"PLAYER_DEATH"}` {
		t.Errorf("observer messages = %v, want raw message", obs.messages)
	}
	if len(obs.events) != 2 || obs.events[0] != monitor.KindConnected {
		t.Errorf("observer events = %v", obs.events)
	}
}

func TestSupervisor_StartupFailures(t *testing.T) {
	factoryErr := errors.New("no libzmq")

	t.Run("factory", func(t *testing.T) {
		display := NewDisplay(4)
		sup, _ := NewSupervisor(Deps{
			Endpoint:      testEndpoint,
			NewConnection: func() (Connection, error) { return nil, factoryErr },
			Display:       display,
		})
		if err := sup.Run(context.Background()); !errors.Is(err, factoryErr) {
			t.Errorf("Run() error = %v, want factory error", err)
		}
		if got := <-display.Lines(); got != "ZMQ connecting to tcp://127.0.0.1:27960..." {
			t.Errorf("first line = %q", got)
		}
		if _, ok := <-display.Lines(); ok {
			t.Error("display not closed")
		}
	})

	t.Run("configure", func(t *testing.T) {
		conn := newFakeConn()
		conn.configureErr = errors.New("bad option")
		sup, _ := NewSupervisor(Deps{
			Endpoint:      testEndpoint,
			NewConnection: func() (Connection, error) { return conn, nil },
			Display:       NewDisplay(4),
		})
		if err := sup.Run(context.Background()); !errors.Is(err, conn.configureErr) {
			t.Errorf("Run() error = %v, want configure error", err)
		}
		if connects, disconnects, closes := conn.counts(); connects != 0 || disconnects != 0 || closes != 1 {
			t.Errorf("connects/disconnects/closes = %d/%d/%d, want 0/0/1", connects, disconnects, closes)
		}
	})

	t.Run("connect", func(t *testing.T) {
		conn := newFakeConn()
		connectErr := errors.New("invalid endpoint")
		conn.connectErrs = []error{connectErr}
		sup, _ := NewSupervisor(Deps{
			Endpoint:      testEndpoint,
			NewConnection: func() (Connection, error) { return conn, nil },
			Display:       NewDisplay(4),
		})
		if err := sup.Run(context.Background()); !errors.Is(err, connectErr) {
			t.Errorf("Run() error = %v, want connect error", err)
		}
	})
}

func TestNewSupervisor_MissingDeps(t *testing.T) {
	if _, err := NewSupervisor(Deps{Display: NewDisplay(1)}); !errors.Is(err, ErrMissingDependency) {
		t.Errorf("NewSupervisor(no factory) error = %v, want ErrMissingDependency", err)
	}
	factory := func() (Connection, error) { return newFakeConn(), nil }
	if _, err := NewSupervisor(Deps{NewConnection: factory}); !errors.Is(err, ErrMissingDependency) {
		t.Errorf("NewSupervisor(no display) error = %v, want ErrMissingDependency", err)
	}
}

func TestDisplay_SendAfterDetach(t *testing.T) {
	d := NewDisplay(1)
	d.Detach()
	d.Detach()

	if err := d.Send(context.Background(), "x"); !errors.Is(err, ErrDisplayClosed) {
		t.Errorf("Send() error = %v, want ErrDisplayClosed", err)
	}
}

func TestDisplay_SendHonoursContext(t *testing.T) {
	d := NewDisplay(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := d.Send(ctx, "x"); !errors.Is(err, context.Canceled) {
		t.Errorf("Send() error = %v, want context.Canceled", err)
	}
}
