package monitor

import "fmt"

// Action is what the supervision loop should do in response to an event.
type Action int

const (
	// ActionIgnore: transient state on the way to a connection, nothing to do.
	ActionIgnore Action = iota

	// ActionNoteSuccess: the handshake completed; the outage (if any) is over.
	ActionNoteSuccess

	// ActionReconnect: the connection dropped; issue a fresh connect.
	ActionReconnect

	// ActionFatal: the condition cannot be fixed by reconnecting; stop.
	ActionFatal

	// ActionUnknown: an event kind with no specific handling; report it only.
	ActionUnknown
)

var actionNames = map[Action]string{
	ActionIgnore:      "ignore",
	ActionNoteSuccess: "note_success",
	ActionReconnect:   "reconnect",
	ActionFatal:       "fatal",
	ActionUnknown:     "unknown",
}

// String returns the action name.
func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// Reconnecting is the notice emitted once per outage.
const Reconnecting = "Reconnecting ZMQ..."

// Decision is the outcome of Decide.
type Decision struct {
	Action Action

	// Notice is the display line to emit, or "" for none.
	Notice string

	// FirstTime is the updated "first disconnect since last success" flag.
	FirstTime bool

	// Err is set for ActionFatal and names the unrecoverable condition.
	Err error
}

// Decide interprets a lifecycle event against the current connection state.
//
// firstTime is true while the connection is settled (no disconnect seen since
// the last successful handshake). Decide is pure: the caller applies the
// reconnect and stop side effects and keeps the returned FirstTime.
//
// Parameters:
//   - ev: The lifecycle event received from the monitor feed
//   - firstTime: Current "first disconnect since last success" flag
//   - endpoint: The endpoint being supervised, for notices
//
// Returns:
//   - Decision: Action to take, notice to display, and the updated flag
func Decide(ev Event, firstTime bool, endpoint string) Decision {
	switch ev.Kind {
	case KindHandshakeSucceeded:
		return Decision{
			Action:    ActionNoteSuccess,
			Notice:    fmt.Sprintf("ZMQ connected to %s.", endpoint),
			FirstTime: true,
		}

	case KindHandshakeFailedAuth, KindHandshakeFailedProtocol,
		KindHandshakeFailedNoDetail, KindMonitorStopped:
		return Decision{
			Action:    ActionFatal,
			Notice:    socketErrorNotice(ev),
			FirstTime: firstTime,
			Err:       fatalCause(ev),
		}

	case KindDisconnected, KindClosed:
		d := Decision{Action: ActionReconnect}
		if firstTime {
			d.Notice = Reconnecting
		}
		// Once an outage has been announced, stay quiet until the next success.
		d.FirstTime = false
		return d

	case KindConnected, KindConnectDelayed, KindConnectRetried:
		return Decision{Action: ActionIgnore, FirstTime: firstTime}

	default:
		return Decision{
			Action:    ActionUnknown,
			Notice:    socketErrorNotice(ev),
			FirstTime: firstTime,
		}
	}
}

// ReconnectFailedNotice renders the notice for a failed reconnect attempt.
func ReconnectFailedNotice(err error) string {
	return fmt.Sprintf("error reconnecting: %v.", err)
}

func socketErrorNotice(ev Event) string {
	return fmt.Sprintf("ZMQ socket error: %s", ev)
}

func fatalCause(ev Event) error {
	switch ev.Kind {
	case KindHandshakeFailedAuth:
		return fmt.Errorf("%w: %s", ErrTransportAuth, ev)
	case KindMonitorStopped:
		return ErrMonitorStopped
	default:
		return fmt.Errorf("%w: %s", ErrTransportProtocol, ev)
	}
}
