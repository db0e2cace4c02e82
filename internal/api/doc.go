// Package api implements the read-only HTTP status API and WebSocket feed.
//
// This package provides:
//   - GET /api/v1/health: liveness plus stats connection state
//   - GET /api/v1/stats: message counters, relay state, Go runtime figures
//   - GET /api/v1/ws: live feed with subscribe/unsubscribe/ping messages
//   - Middleware stack (request ID, logging, recovery, CORS)
//
// # Architecture
//
// The Server is registered as a stats.Observer. Every raw stats message is
// broadcast on the "stats.event" channel and every lifecycle event on
// "connection.lifecycle". Broadcasts never block: slow clients miss events.
//
// # Lifecycle
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// # Security
//
// There is no authentication. Bind to localhost (the default) or restrict
// origins via api.cors.allowed_origins when exposing the feed.
package api
