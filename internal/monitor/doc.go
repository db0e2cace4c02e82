// Package monitor models socket lifecycle events and decides how the
// supervision loop reacts to them.
//
// The transport layer maps its native monitor events onto Kind; Decide maps
// (event, state) onto an Action:
//
//	HandshakeSucceeded                       -> NoteSuccess (re-arms the outage notice)
//	HandshakeFailed{Auth,Protocol,NoDetail}  -> Fatal
//	MonitorStopped                           -> Fatal
//	Disconnected, Closed                     -> Reconnect (notice once per outage)
//	Connected, ConnectDelayed, ConnectRetried -> Ignore
//	anything else                            -> Unknown (notice only)
//
// The package has no dependencies on the transport so the decision table can
// be tested without libzmq.
package monitor
