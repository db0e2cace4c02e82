package monitor

import "fmt"

// Kind identifies a socket lifecycle event reported by the transport monitor.
type Kind int

// Lifecycle event kinds. The zero value is KindOther so an unmapped transport
// event never masquerades as a known one.
const (
	KindOther Kind = iota
	KindHandshakeSucceeded
	KindHandshakeFailedAuth
	KindHandshakeFailedProtocol
	KindHandshakeFailedNoDetail
	KindMonitorStopped
	KindDisconnected
	KindClosed
	KindConnected
	KindConnectDelayed
	KindConnectRetried
)

var kindNames = map[Kind]string{
	KindOther:                   "Other",
	KindHandshakeSucceeded:      "HandshakeSucceeded",
	KindHandshakeFailedAuth:     "HandshakeFailedAuth",
	KindHandshakeFailedProtocol: "HandshakeFailedProtocol",
	KindHandshakeFailedNoDetail: "HandshakeFailedNoDetail",
	KindMonitorStopped:          "MonitorStopped",
	KindDisconnected:            "Disconnected",
	KindClosed:                  "Closed",
	KindConnected:               "Connected",
	KindConnectDelayed:          "ConnectDelayed",
	KindConnectRetried:          "ConnectRetried",
}

// String returns the event kind name.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// carriesValue reports whether the event's numeric value is meaningful:
// an error code for handshake failures, the retry interval for ConnectRetried.
func (k Kind) carriesValue() bool {
	switch k {
	case KindHandshakeFailedAuth, KindHandshakeFailedProtocol,
		KindHandshakeFailedNoDetail, KindConnectRetried:
		return true
	}
	return false
}

// Event is one lifecycle notification from the monitor feed.
type Event struct {
	Kind Kind

	// Name is the transport's own name for the event. Only set for KindOther.
	Name string

	// Addr is the endpoint the event refers to, when the transport reports one.
	Addr string

	// Value is the event's numeric payload (error code, interval, fd).
	Value int
}

// String renders the event for display notices, e.g. "HandshakeFailedAuth(400)".
func (e Event) String() string {
	name := e.Kind.String()
	if e.Kind == KindOther && e.Name != "" {
		name = e.Name
	}
	if e.Kind.carriesValue() || e.Kind == KindOther {
		return fmt.Sprintf("%s(%d)", name, e.Value)
	}
	return name
}

// Session reports what the event says about the authenticated session:
// up is the new state and ok is false when the event does not change it.
func (e Event) Session() (up, ok bool) {
	switch e.Kind {
	case KindHandshakeSucceeded:
		return true, true
	case KindDisconnected, KindClosed, KindMonitorStopped,
		KindHandshakeFailedAuth, KindHandshakeFailedProtocol, KindHandshakeFailedNoDetail:
		return false, true
	}
	return false, false
}
