package zmq

import (
	"time"

	"github.com/pebbe/zmq4"
)

// Context and socket constants.
const (
	// maxSockets bounds the context's handle budget. Only two are used.
	maxSockets = 10

	// ioThreads is the number of libzmq background I/O threads.
	ioThreads = 1

	// plainUsername is the fixed PLAIN username the stats publisher expects.
	plainUsername = "stats"

	// zapDomain is the ZAP authentication domain for the handshake.
	zapDomain = "stats"

	// heartbeatInterval and heartbeatTimeout tolerate slow or idle links
	// without flapping the connection.
	heartbeatInterval = 600_000 * time.Millisecond
	heartbeatTimeout  = 600_000 * time.Millisecond

	// unlimited disables timeouts and high-water marks.
	unlimited = 0

	// defaultPollInterval bounds how long a pump holds a socket's read lock.
	defaultPollInterval = 100 * time.Millisecond

	// defaultBuffer is the capacity of the message and event channels.
	defaultBuffer = 256

	// monitorAddrPrefix is the inproc address prefix for the socket monitor.
	monitorAddrPrefix = "inproc://qlstats.monitor."
)

// monitoredEvents restricts the monitor feed to the events the supervisor
// acts on.
const monitoredEvents = zmq4.EVENT_HANDSHAKE_SUCCEEDED |
	zmq4.EVENT_HANDSHAKE_FAILED_AUTH |
	zmq4.EVENT_HANDSHAKE_FAILED_PROTOCOL |
	zmq4.EVENT_HANDSHAKE_FAILED_NO_DETAIL |
	zmq4.EVENT_MONITOR_STOPPED |
	zmq4.EVENT_DISCONNECTED |
	zmq4.EVENT_CLOSED

// Options tunes the Go side of the subscriber. The zero value is usable.
type Options struct {
	// PollInterval bounds each poll step of the receive pumps.
	PollInterval time.Duration

	// Buffer is the capacity of the Messages and Events channels.
	Buffer int

	// Logger receives pump errors. Optional.
	Logger Logger
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = defaultPollInterval
	}
	if o.Buffer <= 0 {
		o.Buffer = defaultBuffer
	}
	return o
}
