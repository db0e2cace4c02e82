package relay

import (
	"github.com/nerrad567/qlstats/internal/monitor"
	"github.com/nerrad567/qlstats/internal/stats"
)

// MetricWriter is the subset of *influxdb.Client used by the relay.
// Writes must be non-blocking.
type MetricWriter interface {
	WriteEvent(eventType string)
	WriteLifecycle(kind string, value int)
}

// Influx records a counter point for every stats message and lifecycle
// event. Payloads are not stored.
type Influx struct {
	w MetricWriter
}

// NewInflux creates a relay writing through w.
func NewInflux(w MetricWriter) *Influx {
	return &Influx{w: w}
}

var _ stats.Observer = (*Influx)(nil)

// OnMessage counts the message under its Quake Live TYPE.
func (r *Influx) OnMessage(raw string) {
	r.w.WriteEvent(stats.EventType(raw))
}

// OnLifecycle counts the event under its kind.
func (r *Influx) OnLifecycle(ev monitor.Event) {
	r.w.WriteLifecycle(ev.Kind.String(), ev.Value)
}
