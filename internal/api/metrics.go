package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/nerrad567/qlstats/internal/stats"
)

// StatsResponse is the body of GET /api/v1/stats.
type StatsResponse struct {
	Timestamp     string         `json:"timestamp"`
	Version       string         `json:"version"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	ZMQ           ZMQMetrics     `json:"zmq"`
	Stats         stats.Snapshot `json:"stats"`
	Runtime       RuntimeMetrics `json:"runtime"`
	WebSocket     WSMetrics      `json:"websocket"`
	Relays        RelayMetrics   `json:"relays"`
}

// ZMQMetrics describes the stats subscription.
type ZMQMetrics struct {
	Endpoint  string `json:"endpoint"`
	Connected bool   `json:"connected"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// WSMetrics contains WebSocket hub statistics.
type WSMetrics struct {
	ConnectedClients int `json:"connected_clients"`
}

// RelayMetrics reports optional relay connectivity. Nil means disabled.
type RelayMetrics struct {
	MQTT     *bool `json:"mqtt,omitempty"`
	InfluxDB *bool `json:"influxdb,omitempty"`
}

// handleStats returns counters, runtime and relay state.
func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	snapshot := s.tally.Snapshot()
	resp := StatsResponse{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		ZMQ: ZMQMetrics{
			Endpoint:  s.endpoint,
			Connected: snapshot.Connected,
		},
		Stats: snapshot,
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		WebSocket: WSMetrics{
			ConnectedClients: s.hub.ClientCount(),
		},
	}

	if s.mqtt != nil {
		connected := s.mqtt.IsConnected()
		resp.Relays.MQTT = &connected
	}
	if s.influx != nil {
		connected := s.influx.IsConnected()
		resp.Relays.InfluxDB = &connected
	}

	writeJSON(w, http.StatusOK, resp)
}
