package zmq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"syscall"

	"github.com/google/uuid"
	"github.com/pebbe/zmq4"

	"github.com/nerrad567/qlstats/internal/monitor"
)

// Logger is the logging interface used by the subscriber.
// It is satisfied by *logging.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// errSocketGone is returned by a pump step once its socket has been closed.
var errSocketGone = errors.New("zmq: socket gone")

// Subscriber is a SUB socket plus a monitor PAIR socket sharing one context.
//
// Each socket has its own RWMutex. The receive pumps hold the read lock for
// one bounded poll-and-receive step, so Configure, Connect, Disconnect and
// Close (which take the write lock) wait at most one poll interval.
//
// Thread Safety: all methods are safe for concurrent use.
type Subscriber struct {
	zctx *zmq4.Context

	subMu     sync.RWMutex
	sub       *zmq4.Socket
	subPoller *zmq4.Poller
	identity  string

	monMu     sync.RWMutex
	mon       *zmq4.Socket
	monPoller *zmq4.Poller

	messages chan string
	events   chan monitor.Event

	opts      Options
	logger    Logger
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// New creates the context, the SUB socket and its monitor, and starts the
// receive pumps. No connection is attempted until Connect.
func New(opts Options) (*Subscriber, error) {
	opts = opts.withDefaults()

	zctx, err := zmq4.NewContext()
	if err != nil {
		return nil, fmt.Errorf("%w: creating context: %w", ErrTransportInit, err)
	}

	s := &Subscriber{
		zctx:     zctx,
		messages: make(chan string, opts.Buffer),
		events:   make(chan monitor.Event, opts.Buffer),
		opts:     opts,
		logger:   opts.Logger,
	}
	if s.logger == nil {
		s.logger = noopLogger{}
	}

	if err := s.init(); err != nil {
		s.release()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(2)
	go s.pumpMessages(ctx)
	go s.pumpEvents(ctx)

	return s, nil
}

func (s *Subscriber) init() error {
	if err := s.zctx.SetIoThreads(ioThreads); err != nil {
		return fmt.Errorf("%w: io threads: %w", ErrTransportInit, err)
	}
	if err := s.zctx.SetMaxSockets(maxSockets); err != nil {
		return fmt.Errorf("%w: max sockets: %w", ErrTransportInit, err)
	}
	s.zctx.SetBlocky(false) //nolint:errcheck // only fails on a terminated context

	sub, err := s.zctx.NewSocket(zmq4.SUB)
	if err != nil {
		return fmt.Errorf("%w: creating SUB socket: %w", ErrTransportInit, err)
	}
	s.sub = sub

	addr := monitorAddrPrefix + uuid.NewString()
	if err := sub.Monitor(addr, monitoredEvents); err != nil {
		return fmt.Errorf("%w: starting monitor: %w", ErrTransportInit, err)
	}

	mon, err := s.zctx.NewSocket(zmq4.PAIR)
	if err != nil {
		return fmt.Errorf("%w: creating monitor socket: %w", ErrTransportInit, err)
	}
	s.mon = mon
	if err := mon.Connect(addr); err != nil {
		return fmt.Errorf("%w: connecting monitor socket: %w", ErrTransportInit, err)
	}

	s.subPoller = zmq4.NewPoller()
	s.subPoller.Add(sub, zmq4.POLLIN)
	s.monPoller = zmq4.NewPoller()
	s.monPoller.Add(mon, zmq4.POLLIN)
	return nil
}

// Configure applies the fixed socket options plus the PLAIN credentials.
// An empty password is sent as an empty PLAIN password. An empty identity
// is replaced with GenerateIdentity().
func (s *Subscriber) Configure(password, identity string) error {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	if s.sub == nil {
		return ErrClosed
	}
	if identity == "" {
		identity = GenerateIdentity()
	}

	steps := []struct {
		name string
		fn   func() error
	}{
		{"plain username", func() error { return s.sub.SetPlainUsername(plainUsername) }},
		{"plain password", func() error { return s.sub.SetPlainPassword(password) }},
		{"identity", func() error { return s.sub.SetIdentity(identity) }},
		{"receive timeout", func() error { return s.sub.SetRcvtimeo(unlimited) }},
		{"send timeout", func() error { return s.sub.SetSndtimeo(unlimited) }},
		{"receive hwm", func() error { return s.sub.SetRcvhwm(unlimited) }},
		{"send hwm", func() error { return s.sub.SetSndhwm(unlimited) }},
		{"heartbeat interval", func() error { return s.sub.SetHeartbeatIvl(heartbeatInterval) }},
		{"heartbeat timeout", func() error { return s.sub.SetHeartbeatTimeout(heartbeatTimeout) }},
		{"zap domain", func() error { return s.sub.SetZapDomain(zapDomain) }},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrConfig, step.name, err)
		}
	}

	s.identity = identity
	return nil
}

// Identity returns the identity applied by the last successful Configure.
func (s *Subscriber) Identity() string {
	s.subMu.RLock()
	defer s.subMu.RUnlock()
	return s.identity
}

// Connect starts connecting to endpoint and subscribes to every message.
// The handshake completes asynchronously and is reported on Events.
func (s *Subscriber) Connect(endpoint string) error {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	if s.sub == nil {
		return ErrClosed
	}
	if err := s.sub.Connect(endpoint); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrConnect, endpoint, err)
	}
	if err := s.sub.SetSubscribe(""); err != nil {
		return fmt.Errorf("%w: subscribing: %w", ErrConnect, err)
	}
	return nil
}

// Disconnect detaches from the most recently connected endpoint.
func (s *Subscriber) Disconnect() error {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	if s.sub == nil {
		return ErrClosed
	}
	endpoint, err := s.sub.GetLastEndpoint()
	if err != nil {
		return fmt.Errorf("%w: reading last endpoint: %w", ErrDisconnect, err)
	}
	if endpoint == "" {
		return fmt.Errorf("%w: no active endpoint", ErrDisconnect)
	}
	if err := s.sub.Disconnect(endpoint); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDisconnect, endpoint, err)
	}
	return nil
}

// Messages delivers each received frame, decoded as text. The channel is
// closed by Close.
func (s *Subscriber) Messages() <-chan string {
	return s.messages
}

// Events delivers monitor events. The channel is closed by Close.
func (s *Subscriber) Events() <-chan monitor.Event {
	return s.events
}

// Close stops the pumps, closes both sockets with zero linger and
// terminates the context. Calling Close more than once is safe.
func (s *Subscriber) Close() error {
	s.closeOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		s.wg.Wait()
		s.closeErr = s.release()
	})
	return s.closeErr
}

// release closes whatever init managed to create.
func (s *Subscriber) release() error {
	var errs []error

	s.monMu.Lock()
	if s.mon != nil {
		s.mon.SetLinger(0) //nolint:errcheck // best effort before close
		if err := s.mon.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing monitor socket: %w", err))
		}
		s.mon = nil
	}
	s.monMu.Unlock()

	s.subMu.Lock()
	if s.sub != nil {
		s.sub.SetLinger(0) //nolint:errcheck // best effort before close
		if err := s.sub.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing SUB socket: %w", err))
		}
		s.sub = nil
	}
	s.subMu.Unlock()

	if err := s.zctx.Term(); err != nil {
		errs = append(errs, fmt.Errorf("terminating context: %w", err))
	}
	return errors.Join(errs...)
}

func (s *Subscriber) pumpMessages(ctx context.Context) {
	defer s.wg.Done()
	defer close(s.messages)

	for ctx.Err() == nil {
		msg, ok, err := s.receiveMessage()
		if err != nil {
			if isTerminal(err) {
				return
			}
			s.logger.Warn("zmq receive failed", "error", err)
			continue
		}
		if !ok {
			continue
		}
		select {
		case s.messages <- msg:
		case <-ctx.Done():
			return
		}
	}
}

func (s *Subscriber) receiveMessage() (string, bool, error) {
	s.subMu.RLock()
	defer s.subMu.RUnlock()

	if s.sub == nil {
		return "", false, errSocketGone
	}
	polled, err := s.subPoller.Poll(s.opts.PollInterval)
	if err != nil || len(polled) == 0 {
		return "", false, err
	}
	msg, err := s.sub.Recv(zmq4.DONTWAIT)
	if err != nil {
		if zmq4.AsErrno(err) == zmq4.Errno(syscall.EAGAIN) {
			return "", false, nil
		}
		return "", false, err
	}
	return msg, true, nil
}

func (s *Subscriber) pumpEvents(ctx context.Context) {
	defer s.wg.Done()
	defer close(s.events)

	for ctx.Err() == nil {
		ev, ok, err := s.receiveEvent()
		if err != nil {
			if isTerminal(err) {
				return
			}
			s.logger.Warn("zmq monitor receive failed", "error", err)
			continue
		}
		if !ok {
			continue
		}
		s.logger.Debug("zmq monitor event", "event", ev.String(), "addr", ev.Addr)
		select {
		case s.events <- ev:
		case <-ctx.Done():
			return
		}
	}
}

func (s *Subscriber) receiveEvent() (monitor.Event, bool, error) {
	s.monMu.RLock()
	defer s.monMu.RUnlock()

	if s.mon == nil {
		return monitor.Event{}, false, errSocketGone
	}
	polled, err := s.monPoller.Poll(s.opts.PollInterval)
	if err != nil || len(polled) == 0 {
		return monitor.Event{}, false, err
	}
	kind, addr, value, err := s.mon.RecvEvent(zmq4.DONTWAIT)
	if err != nil {
		if zmq4.AsErrno(err) == zmq4.Errno(syscall.EAGAIN) {
			return monitor.Event{}, false, nil
		}
		return monitor.Event{}, false, err
	}
	return eventFromZMQ(kind, addr, value), true, nil
}

// isTerminal reports whether a pump should stop rather than retry.
func isTerminal(err error) bool {
	if errors.Is(err, errSocketGone) {
		return true
	}
	switch zmq4.AsErrno(err) {
	case zmq4.ETERM, zmq4.Errno(syscall.ENOTSOCK):
		return true
	}
	return false
}
