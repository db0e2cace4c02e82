// Package relay fans stats out to external systems.
//
// Each relay is a stats.Observer:
//   - MQTT republishes raw messages per Quake Live TYPE and a retained
//     connection status, through a bounded queue drained by Run
//   - Influx writes counter points for messages and lifecycle events
//
// Relays never block the supervision loop. Anything that cannot be
// delivered promptly is dropped.
package relay
