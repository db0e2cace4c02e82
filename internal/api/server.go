package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/nerrad567/qlstats/internal/infrastructure/config"
	"github.com/nerrad567/qlstats/internal/infrastructure/logging"
	"github.com/nerrad567/qlstats/internal/monitor"
	"github.com/nerrad567/qlstats/internal/stats"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// WebSocket channels broadcast by the server.
const (
	ChannelStatsEvent = "stats.event"
	ChannelLifecycle  = "connection.lifecycle"
)

// Connectivity reports whether an optional relay is connected.
// It is satisfied by *mqtt.Client and *influxdb.Client.
type Connectivity interface {
	IsConnected() bool
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Logger   *logging.Logger
	Tally    *stats.Tally
	Endpoint string
	Version  string

	// Optional relays reported in /stats. Leave nil when disabled.
	MQTT     Connectivity
	InfluxDB Connectivity
}

// Server is the HTTP status server.
//
// It serves health and counters over REST and pushes every stats message
// and lifecycle event to subscribed WebSocket clients. It implements
// stats.Observer.
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
type Server struct {
	cfg       config.APIConfig
	logger    *logging.Logger
	tally     *stats.Tally
	endpoint  string
	version   string
	mqtt      Connectivity
	influx    Connectivity
	hub       *Hub
	startTime time.Time

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	cancel   context.CancelFunc // cancels the hub on Close()
}

var _ stats.Observer = (*Server)(nil)

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Tally == nil {
		return nil, fmt.Errorf("tally is required")
	}

	logger := deps.Logger.With("component", "api")
	return &Server{
		cfg:       deps.Config,
		logger:    logger,
		tally:     deps.Tally,
		endpoint:  deps.Endpoint,
		version:   deps.Version,
		mqtt:      deps.MQTT,
		influx:    deps.InfluxDB,
		hub:       NewHub(deps.WS, logger),
		startTime: time.Now(),
	}, nil
}

// Start binds the listener and serves HTTP in a background goroutine.
//
// Returns:
//   - error: If the address cannot be bound (port in use, etc.)
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return fmt.Errorf("api server already started")
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	var hubCtx context.Context
	hubCtx, s.cancel = context.WithCancel(ctx)
	go s.hub.Run(hubCtx)

	s.listener = ln
	s.server = &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       s.cfg.ReadTimeout(),
		ReadHeaderTimeout: s.cfg.ReadTimeout(),
		WriteTimeout:      s.cfg.WriteTimeout(),
		IdleTimeout:       s.cfg.IdleTimeout(),
	}

	s.logger.Info("API server starting", "address", ln.Addr().String())
	go func(srv *http.Server) {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}(s.server)

	return nil
}

// Addr returns the bound listen address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}

// OnMessage broadcasts the message on ChannelStatsEvent. Valid JSON is sent
// as an embedded object, anything else as a string.
func (s *Server) OnMessage(raw string) {
	if s.hub.ClientCount() == 0 {
		return
	}
	var payload any = raw
	if json.Valid([]byte(raw)) {
		payload = jsoniter.RawMessage(raw)
	}
	s.hub.Broadcast(ChannelStatsEvent, map[string]any{
		"type": stats.EventType(raw),
		"data": payload,
	})
}

// OnLifecycle broadcasts the event on ChannelLifecycle.
func (s *Server) OnLifecycle(ev monitor.Event) {
	if s.hub.ClientCount() == 0 {
		return
	}
	connected, ok := ev.Session()
	if !ok {
		connected = s.tally.Connected()
	}
	s.hub.Broadcast(ChannelLifecycle, map[string]any{
		"event":     ev.String(),
		"kind":      ev.Kind.String(),
		"addr":      ev.Addr,
		"value":     ev.Value,
		"connected": connected,
	})
}
