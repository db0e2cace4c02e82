package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/nerrad567/qlstats/internal/infrastructure/config"
)

const logFileMode = 0o600

// Logger is the slog logger handed to every component. Every record carries
// service=qlstats and the build version.
//
// Loggers derived with With share the parent's output.
type Logger struct {
	*slog.Logger

	// closer is the log file opened by New, if any.
	closer io.Closer
}

// New opens the configured output and builds a text or JSON logger on it.
// Unknown formats fall back to text, unknown levels to info, and unknown
// outputs to stderr. It fails only when the log file cannot be opened.
func New(cfg config.LoggingConfig, version string) (*Logger, error) {
	w, closer, err := openOutput(cfg)
	if err != nil {
		return nil, err
	}
	l := newWithWriter(w, cfg, version)
	l.closer = closer
	return l, nil
}

func newWithWriter(w io.Writer, cfg config.LoggingConfig, version string) *Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var h slog.Handler = slog.NewTextHandler(w, opts)
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(w, opts)
	}

	h = h.WithAttrs([]slog.Attr{
		slog.String("service", "qlstats"),
		slog.String("version", version),
	})
	return &Logger{Logger: slog.New(h)}
}

func openOutput(cfg config.LoggingConfig) (io.Writer, io.Closer, error) {
	switch strings.ToLower(cfg.Output) {
	case "stdout":
		return os.Stdout, nil, nil
	case "discard":
		return io.Discard, nil, nil
	case "file":
		f, err := os.OpenFile(cfg.File.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFileMode)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		return f, f, nil
	default:
		return os.Stderr, nil, nil
	}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a child logger carrying args on every record, e.g.
// logger.With("component", "zmq").
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Close closes the log file opened by New. It is a no-op for other outputs
// and for derived loggers.
func (l *Logger) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	err := l.closer.Close()
	l.closer = nil
	return err
}

// Default is a text logger on stderr at info level, for use before the
// configuration is loaded.
func Default() *Logger {
	return newWithWriter(os.Stderr, config.LoggingConfig{Level: "info", Format: "text"}, "dev")
}

// Discard drops every record.
func Discard() *Logger {
	return newWithWriter(io.Discard, config.LoggingConfig{Level: "error"}, "test")
}
