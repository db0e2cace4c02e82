package influxdb

import "errors"

// Errors returned by Connect and HealthCheck. Write failures are delivered
// asynchronously to the SetOnError callback instead.
var (
	// ErrDisabled is returned by Connect when influxdb.enabled is false.
	ErrDisabled = errors.New("influxdb: disabled in configuration")

	// ErrConnectionFailed wraps the reason the server was unreachable at
	// startup.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrNotConnected is returned for a nil or closed client.
	ErrNotConnected = errors.New("influxdb: not connected")

	// ErrUnhealthy means the server answered the ping but reported itself
	// unhealthy.
	ErrUnhealthy = errors.New("influxdb: server not healthy")
)
