package monitor

import "errors"

// Unrecoverable lifecycle conditions. A Decision carrying one of these stops
// the supervision loop; reconnecting cannot fix them.
var (
	// ErrTransportAuth means the server rejected the PLAIN credentials.
	ErrTransportAuth = errors.New("monitor: handshake failed: authentication rejected")

	// ErrTransportProtocol means the handshake failed on a protocol error
	// (mechanism mismatch, malformed greeting) or without detail.
	ErrTransportProtocol = errors.New("monitor: handshake failed: protocol error")

	// ErrMonitorStopped means the monitor feed itself has ended.
	ErrMonitorStopped = errors.New("monitor: lifecycle monitor stopped")
)
