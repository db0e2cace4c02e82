package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurements written by the stats relay. Both are counters; payloads are
// never stored.
const (
	// MeasurementEvent has one point per stats message, tag "type".
	MeasurementEvent = "ql_event"

	// MeasurementLifecycle has one point per lifecycle event, tag "kind"
	// and field "value" for the event's numeric detail.
	MeasurementLifecycle = "zmq_lifecycle"
)

// WriteEvent counts one stats message of the given Quake Live TYPE.
func (c *Client) WriteEvent(eventType string) {
	c.WritePoint(MeasurementEvent,
		map[string]string{"type": eventType},
		map[string]interface{}{"count": 1},
	)
}

// WriteLifecycle counts one lifecycle event, e.g. kind "HandshakeFailedAuth"
// with the libzmq error code as value.
func (c *Client) WriteLifecycle(kind string, value int) {
	c.WritePoint(MeasurementLifecycle,
		map[string]string{"kind": kind},
		map[string]interface{}{"count": 1, "value": value},
	)
}

// WritePoint queues a point stamped with the current time.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	c.WritePointWithTime(measurement, tags, fields, time.Now())
}

// WritePointWithTime queues a point. The configured default tags are added
// by the write API; a tag given here with the same key wins.
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, ts time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, ts))
}
