package zmq

import "errors"

// Domain-specific errors for subscriber operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrTransportInit is returned when the context, sockets, or monitor
	// cannot be created.
	ErrTransportInit = errors.New("zmq: transport initialisation failed")

	// ErrConfig is returned when a socket option is rejected.
	ErrConfig = errors.New("zmq: socket configuration failed")

	// ErrConnect is returned when connecting or subscribing fails,
	// typically because the endpoint is malformed.
	ErrConnect = errors.New("zmq: connect failed")

	// ErrDisconnect is returned when there is no active endpoint or the
	// disconnect itself fails.
	ErrDisconnect = errors.New("zmq: disconnect failed")

	// ErrClosed is returned when operating on a subscriber after Close.
	ErrClosed = errors.New("zmq: subscriber closed")
)
