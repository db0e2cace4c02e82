package stats

import (
	"context"
	"errors"
	"fmt"

	"github.com/nerrad567/qlstats/internal/infrastructure/logging"
	"github.com/nerrad567/qlstats/internal/monitor"
)

// Connection is the monitored subscriber the supervisor drives.
// It is satisfied by *zmq.Subscriber.
type Connection interface {
	Configure(password, identity string) error
	Connect(endpoint string) error
	Disconnect() error
	Close() error
	Messages() <-chan string
	Events() <-chan monitor.Event
}

// Deps holds the dependencies and settings for a Supervisor.
type Deps struct {
	Endpoint string
	Password string
	Identity string
	Pretty   bool

	// NewConnection builds the transport. It is called once, after the
	// "connecting" notice has been emitted.
	NewConnection func() (Connection, error)

	Display   *Display
	Observers []Observer
	Logger    *logging.Logger
}

// Supervisor owns one monitored connection for the life of the process.
// It forwards formatted messages to the display and reacts to lifecycle
// events by announcing, reconnecting, or stopping.
type Supervisor struct {
	endpoint      string
	password      string
	identity      string
	pretty        bool
	newConnection func() (Connection, error)
	display       *Display
	observers     []Observer
	logger        *logging.Logger
}

// loopState is owned by the single supervision goroutine.
type loopState struct {
	// firstTime is true while the connection is settled, so the next
	// disconnect is the first of an outage and gets announced.
	firstTime bool
	msgs      <-chan string
	events    <-chan monitor.Event
}

// NewSupervisor validates deps and returns a Supervisor.
func NewSupervisor(deps Deps) (*Supervisor, error) {
	if deps.NewConnection == nil {
		return nil, fmt.Errorf("%w: connection factory", ErrMissingDependency)
	}
	if deps.Display == nil {
		return nil, fmt.Errorf("%w: display", ErrMissingDependency)
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Supervisor{
		endpoint:      deps.Endpoint,
		password:      deps.Password,
		identity:      deps.Identity,
		pretty:        deps.Pretty,
		newConnection: deps.NewConnection,
		display:       deps.Display,
		observers:     deps.Observers,
		logger:        logger.With("component", "supervisor"),
	}, nil
}

// Run connects and supervises until ctx is cancelled, the display goes
// away, or an unrecoverable transport event arrives.
//
// Startup failures and fatal events are returned; ErrDisplayClosed is
// returned when the sink detached. Cancellation of ctx returns nil.
// The display is always closed before Run returns.
func (s *Supervisor) Run(ctx context.Context) error {
	defer s.display.Close()

	if err := s.emit(ctx, fmt.Sprintf("ZMQ connecting to %s...", s.endpoint)); err != nil {
		return stopCause(err)
	}

	conn, err := s.newConnection()
	if err != nil {
		return err
	}

	connected := false
	defer func() { s.shutdown(conn, connected) }()

	if err := conn.Configure(s.password, s.identity); err != nil {
		return err
	}
	if err := conn.Connect(s.endpoint); err != nil {
		return err
	}
	connected = true
	s.logger.Info("zmq subscriber started", "endpoint", s.endpoint)

	return s.loop(ctx, conn)
}

func (s *Supervisor) loop(ctx context.Context, conn Connection) error {
	st := &loopState{
		firstTime: true,
		msgs:      conn.Messages(),
		events:    conn.Events(),
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		// A ready message always wins over a lifecycle event.
		select {
		case raw, ok := <-st.msgs:
			if err := s.handleMessage(ctx, st, raw, ok); err != nil {
				return stopCause(err)
			}
			continue
		default:
		}

		select {
		case raw, ok := <-st.msgs:
			if err := s.handleMessage(ctx, st, raw, ok); err != nil {
				return stopCause(err)
			}
		case ev, ok := <-st.events:
			if !ok {
				// Losing the monitor feed means losing sight of the connection.
				st.events = nil
				ev = monitor.Event{Kind: monitor.KindMonitorStopped}
			}
			if err := s.handleEvent(ctx, conn, st, ev); err != nil {
				return stopCause(err)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

func (s *Supervisor) handleMessage(ctx context.Context, st *loopState, raw string, ok bool) error {
	if !ok {
		st.msgs = nil
		return nil
	}
	for _, o := range s.observers {
		o.OnMessage(raw)
	}
	return s.emit(ctx, Format(raw, s.pretty))
}

func (s *Supervisor) handleEvent(ctx context.Context, conn Connection, st *loopState, ev monitor.Event) error {
	d := monitor.Decide(ev, st.firstTime, s.endpoint)
	st.firstTime = d.FirstTime

	for _, o := range s.observers {
		o.OnLifecycle(ev)
	}
	s.logger.Debug("zmq lifecycle event", "event", ev.String(), "addr", ev.Addr, "action", d.Action.String())

	if d.Notice != "" {
		if err := s.emit(ctx, d.Notice); err != nil {
			return err
		}
	}

	switch d.Action {
	case monitor.ActionReconnect:
		if err := conn.Connect(s.endpoint); err != nil {
			s.logger.Warn("zmq reconnect failed", "endpoint", s.endpoint, "error", err)
			return s.emit(ctx, monitor.ReconnectFailedNotice(err))
		}
	case monitor.ActionFatal:
		s.logger.Error("zmq connection lost", "event", ev.String(), "error", d.Err)
		return d.Err
	}
	return nil
}

func (s *Supervisor) emit(ctx context.Context, line string) error {
	return s.display.Send(ctx, line)
}

// shutdown tears the connection down. Errors are logged, never returned.
func (s *Supervisor) shutdown(conn Connection, connected bool) {
	if connected {
		if err := conn.Disconnect(); err != nil {
			s.logger.Warn("zmq disconnect failed", "error", err)
		}
	}
	if err := conn.Close(); err != nil {
		s.logger.Warn("zmq close failed", "error", err)
	}
	s.logger.Info("zmq subscriber stopped", "endpoint", s.endpoint)
}

// stopCause maps a loop-ending error to Run's result.
func stopCause(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
