package relay

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/nerrad567/qlstats/internal/infrastructure/mqtt"
	"github.com/nerrad567/qlstats/internal/monitor"
)

type published struct {
	topic    string
	payload  string
	qos      byte
	retained bool
}

type fakePublisher struct {
	mu        sync.Mutex
	connected bool
	err       error
	got       []published
	notify    chan struct{}
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{connected: true, notify: make(chan struct{}, 64)}
}

func (f *fakePublisher) Publish(topic string, payload []byte, qos byte, retained bool) error {
	f.mu.Lock()
	f.got = append(f.got, published{topic, string(payload), qos, retained})
	err := f.err
	f.mu.Unlock()
	f.notify <- struct{}{}
	return err
}

func (f *fakePublisher) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakePublisher) wait(t *testing.T, n int) []published {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-f.notify:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for publish %d of %d", i+1, n)
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]published(nil), f.got...)
}

func startRelay(t *testing.T, pub *fakePublisher) *MQTT {
	t.Helper()
	r := NewMQTT(pub, mqtt.NewTopics("qlstats"), 1, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return r
}

func TestMQTT_OnMessage(t *testing.T) {
	pub := newFakePublisher()
	r := startRelay(t, pub)

	r.OnMessage(`{"TYPE":"PLAYER_KILL","DATA":{}}`)
	r.OnMessage(`garbage`)

	got := pub.wait(t, 2)
	if got[0].topic != "qlstats/event/PLAYER_KILL" || got[0].payload != `{"TYPE":"PLAYER_KILL","DATA":{}}` {
		t.Errorf("first publish = %+v", got[0])
	}
	if got[0].qos != 1 || got[0].retained {
		t.Errorf("event publish qos/retained = %d/%v, want 1/false", got[0].qos, got[0].retained)
	}
	if got[1].topic != "qlstats/event/UNKNOWN" {
		t.Errorf("second topic = %q", got[1].topic)
	}
}

func TestMQTT_OnLifecycle(t *testing.T) {
	pub := newFakePublisher()
	r := startRelay(t, pub)

	r.OnLifecycle(monitor.Event{Kind: monitor.KindConnectRetried, Value: 100})
	r.OnLifecycle(monitor.Event{Kind: monitor.KindHandshakeSucceeded, Addr: "tcp://10.0.0.2:27960"})

	got := pub.wait(t, 1)
	if len(got) != 1 {
		t.Fatalf("publishes = %d, want 1 (retries carry no session state)", len(got))
	}
	if got[0].topic != "qlstats/zmq/status" || !got[0].retained {
		t.Errorf("status publish = %+v", got[0])
	}

	var status ZMQStatus
	if err := jsoniter.UnmarshalFromString(got[0].payload, &status); err != nil {
		t.Fatalf("status payload %q: %v", got[0].payload, err)
	}
	if !status.Connected || status.Event != "HandshakeSucceeded" || status.Addr != "tcp://10.0.0.2:27960" {
		t.Errorf("status = %+v", status)
	}
}

func TestMQTT_DropsWhileBrokerDown(t *testing.T) {
	pub := newFakePublisher()
	pub.connected = false
	r := NewMQTT(pub, mqtt.NewTopics("qlstats"), 0, nil)

	r.OnMessage(`{"TYPE":"ROUND_OVER"}`)
	r.OnMessage(`{"TYPE":"ROUND_OVER"}`)

	if got := r.Dropped(); got != 2 {
		t.Errorf("Dropped() = %d, want 2", got)
	}
}

func TestMQTT_DropsWhenQueueFull(t *testing.T) {
	pub := newFakePublisher()
	r := NewMQTT(pub, mqtt.NewTopics("qlstats"), 0, nil) // Run not started

	for i := 0; i < defaultQueueSize+3; i++ {
		r.OnMessage(`{"TYPE":"PLAYER_DEATH"}`)
	}

	if got := r.Dropped(); got != 3 {
		t.Errorf("Dropped() = %d, want 3", got)
	}
}

func TestMQTT_PublishErrorCounted(t *testing.T) {
	pub := newFakePublisher()
	pub.err = errors.New("timeout")
	r := startRelay(t, pub)

	r.OnMessage(`{"TYPE":"PLAYER_KILL"}`)
	pub.wait(t, 1)

	deadline := time.Now().Add(2 * time.Second)
	for r.Dropped() != 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := r.Dropped(); got != 1 {
		t.Errorf("Dropped() = %d, want 1", got)
	}
}

type fakeWriter struct {
	events    []string
	lifecycle []string
}

func (f *fakeWriter) WriteEvent(eventType string) { f.events = append(f.events, eventType) }
func (f *fakeWriter) WriteLifecycle(kind string, value int) {
	f.lifecycle = append(f.lifecycle, kind)
}

func TestInflux(t *testing.T) {
	w := &fakeWriter{}
	r := NewInflux(w)

	r.OnMessage(`{"TYPE":"MATCH_STARTED"}`)
	r.OnMessage(`nope`)
	r.OnLifecycle(monitor.Event{Kind: monitor.KindDisconnected})

	if strings.Join(w.events, ",") != "MATCH_STARTED,UNKNOWN" {
		t.Errorf("events = %v", w.events)
	}
	if len(w.lifecycle) != 1 || w.lifecycle[0] != "Disconnected" {
		t.Errorf("lifecycle = %v", w.lifecycle)
	}
}
