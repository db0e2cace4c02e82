// Package stats supervises the Quake Live stats subscription.
//
// A Supervisor owns one monitored connection. It formats every inbound
// message for the Display and interprets lifecycle events with
// monitor.Decide: announcing the first disconnect of an outage,
// reconnecting on every drop, and stopping on authentication or protocol
// failures.
//
//	sub ──Messages()──▶ Format ──▶ Display ──▶ sink (plain / TUI)
//	    ──Events()────▶ Decide ──▶ notice / Connect / stop
//
// Observers (Tally, MQTT and InfluxDB relays, the status API) see every
// raw message and lifecycle event as well.
package stats
