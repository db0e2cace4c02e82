// Package influxdb counts stats traffic in an InfluxDB v2 bucket.
//
// Two measurements are written:
//   - ql_event: one point per stats message, tagged with its Quake Live TYPE
//   - zmq_lifecycle: one point per connection lifecycle event, tagged with its kind
//
// Tags from influxdb.tags are attached to every point; qlstats adds the stats
// endpoint as "endpoint" unless configured otherwise.
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteEvent("PLAYER_KILL")
//
// Writes never block. They are batched by the client library, and batch
// failures reach the SetOnError callback. A nil or closed client drops
// writes silently.
package influxdb
