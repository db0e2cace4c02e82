package influxdb

import (
	"testing"

	"github.com/nerrad567/qlstats/internal/infrastructure/config"
)

func TestClientOptions(t *testing.T) {
	tests := []struct {
		name      string
		batch     int
		flush     int
		wantBatch uint
		wantFlush uint
	}{
		{"configured", 500, 2, 500, 2000},
		{"zero falls back", 0, 0, 100, 10000},
		{"negative falls back", -5, -1, 100, 10000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := clientOptions(config.InfluxDBConfig{BatchSize: tt.batch, FlushInterval: tt.flush})
			if got := opts.BatchSize(); got != tt.wantBatch {
				t.Errorf("BatchSize() = %d, want %d", got, tt.wantBatch)
			}
			if got := opts.FlushInterval(); got != tt.wantFlush {
				t.Errorf("FlushInterval() = %d ms, want %d", got, tt.wantFlush)
			}
		})
	}
}

func TestClientOptions_DefaultTags(t *testing.T) {
	opts := clientOptions(config.InfluxDBConfig{
		Tags: map[string]string{"endpoint": "tcp://10.0.0.5:27960", "server": "ca-1"},
	})

	tags := opts.WriteOptions().DefaultTags()
	if tags["endpoint"] != "tcp://10.0.0.5:27960" || tags["server"] != "ca-1" {
		t.Errorf("DefaultTags() = %v", tags)
	}
}
