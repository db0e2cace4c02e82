package monitor

import (
	"errors"
	"strings"
	"testing"
)

const testEndpoint = "tcp://host:1234"

func TestDecide(t *testing.T) {
	tests := []struct {
		name          string
		event         Event
		firstTime     bool
		wantAction    Action
		wantNotice    string
		wantFirstTime bool
		wantErr       error
	}{
		{
			name:          "handshake succeeded re-arms notice",
			event:         Event{Kind: KindHandshakeSucceeded},
			firstTime:     false,
			wantAction:    ActionNoteSuccess,
			wantNotice:    "ZMQ connected to tcp://host:1234.",
			wantFirstTime: true,
		},
		{
			name:          "auth failure is fatal",
			event:         Event{Kind: KindHandshakeFailedAuth, Value: 400},
			firstTime:     true,
			wantAction:    ActionFatal,
			wantNotice:    "ZMQ socket error: HandshakeFailedAuth(400)",
			wantFirstTime: true,
			wantErr:       ErrTransportAuth,
		},
		{
			name:          "protocol failure is fatal",
			event:         Event{Kind: KindHandshakeFailedProtocol, Value: 0x11000001},
			firstTime:     true,
			wantAction:    ActionFatal,
			wantNotice:    "ZMQ socket error: HandshakeFailedProtocol(285212673)",
			wantFirstTime: true,
			wantErr:       ErrTransportProtocol,
		},
		{
			name:          "no-detail failure is fatal",
			event:         Event{Kind: KindHandshakeFailedNoDetail, Value: 14},
			firstTime:     false,
			wantAction:    ActionFatal,
			wantNotice:    "ZMQ socket error: HandshakeFailedNoDetail(14)",
			wantFirstTime: false,
			wantErr:       ErrTransportProtocol,
		},
		{
			name:          "monitor stopped is fatal",
			event:         Event{Kind: KindMonitorStopped},
			firstTime:     true,
			wantAction:    ActionFatal,
			wantNotice:    "ZMQ socket error: MonitorStopped",
			wantFirstTime: true,
			wantErr:       ErrMonitorStopped,
		},
		{
			name:          "first disconnect announces reconnect",
			event:         Event{Kind: KindDisconnected},
			firstTime:     true,
			wantAction:    ActionReconnect,
			wantNotice:    Reconnecting,
			wantFirstTime: false,
		},
		{
			name:          "repeat close stays quiet",
			event:         Event{Kind: KindClosed},
			firstTime:     false,
			wantAction:    ActionReconnect,
			wantNotice:    "",
			wantFirstTime: false,
		},
		{
			name:          "connected ignored",
			event:         Event{Kind: KindConnected},
			firstTime:     true,
			wantAction:    ActionIgnore,
			wantFirstTime: true,
		},
		{
			name:          "connect delayed ignored",
			event:         Event{Kind: KindConnectDelayed},
			firstTime:     false,
			wantAction:    ActionIgnore,
			wantFirstTime: false,
		},
		{
			name:          "connect retried ignored",
			event:         Event{Kind: KindConnectRetried, Value: 100},
			firstTime:     true,
			wantAction:    ActionIgnore,
			wantFirstTime: true,
		},
		{
			name:          "unknown event reported without state change",
			event:         Event{Kind: KindOther, Name: "EVENT_CLOSE_FAILED", Value: 9},
			firstTime:     false,
			wantAction:    ActionUnknown,
			wantNotice:    "ZMQ socket error: EVENT_CLOSE_FAILED(9)",
			wantFirstTime: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.event, tt.firstTime, testEndpoint)

			if d.Action != tt.wantAction {
				t.Errorf("Action = %v, want %v", d.Action, tt.wantAction)
			}
			if d.Notice != tt.wantNotice {
				t.Errorf("Notice = %q, want %q", d.Notice, tt.wantNotice)
			}
			if d.FirstTime != tt.wantFirstTime {
				t.Errorf("FirstTime = %v, want %v", d.FirstTime, tt.wantFirstTime)
			}
			if tt.wantErr == nil && d.Err != nil {
				t.Errorf("Err = %v, want nil", d.Err)
			}
			if tt.wantErr != nil && !errors.Is(d.Err, tt.wantErr) {
				t.Errorf("Err = %v, want %v", d.Err, tt.wantErr)
			}
		})
	}
}

// One "Reconnecting" notice per outage episode, one "connected" per success.
func TestDecide_ReconnectSuppressionAcrossOutages(t *testing.T) {
	events := []Kind{KindClosed, KindClosed, KindClosed, KindHandshakeSucceeded, KindClosed}

	firstTime := true
	var reconnectNotices, connectedNotices, reconnects int
	for _, k := range events {
		d := Decide(Event{Kind: k}, firstTime, testEndpoint)
		firstTime = d.FirstTime

		if d.Action == ActionReconnect {
			reconnects++
		}
		switch {
		case d.Notice == Reconnecting:
			reconnectNotices++
		case strings.HasPrefix(d.Notice, "ZMQ connected to"):
			connectedNotices++
		}
	}

	if reconnectNotices != 2 {
		t.Errorf("reconnect notices = %d, want 2", reconnectNotices)
	}
	if connectedNotices != 1 {
		t.Errorf("connected notices = %d, want 1", connectedNotices)
	}
	if reconnects != 4 {
		t.Errorf("reconnect actions = %d, want 4 (every close reconnects)", reconnects)
	}
}

func TestReconnectFailedNotice(t *testing.T) {
	got := ReconnectFailedNotice(errors.New("zmq: connect failed: Invalid argument"))
	want := "error reconnecting: zmq: connect failed: Invalid argument."
	if got != want {
		t.Errorf("ReconnectFailedNotice() = %q, want %q", got, want)
	}
}

func TestEventString(t *testing.T) {
	tests := []struct {
		event Event
		want  string
	}{
		{Event{Kind: KindDisconnected, Value: 12}, "Disconnected"},
		{Event{Kind: KindHandshakeSucceeded}, "HandshakeSucceeded"},
		{Event{Kind: KindConnectRetried, Value: 200}, "ConnectRetried(200)"},
		{Event{Kind: KindOther, Value: 3}, "Other(3)"},
		{Event{Kind: Kind(99)}, "Kind(99)"},
	}

	for _, tt := range tests {
		if got := tt.event.String(); got != tt.want {
			t.Errorf("Event%+v.String() = %q, want %q", tt.event, got, tt.want)
		}
	}
}

func TestActionString(t *testing.T) {
	if ActionReconnect.String() != "reconnect" {
		t.Errorf("ActionReconnect.String() = %q", ActionReconnect.String())
	}
	if Action(42).String() != "Action(42)" {
		t.Errorf("Action(42).String() = %q", Action(42).String())
	}
}

func TestEventSession(t *testing.T) {
	tests := []struct {
		kind   Kind
		wantUp bool
		wantOK bool
	}{
		{KindHandshakeSucceeded, true, true},
		{KindClosed, false, true},
		{KindHandshakeFailedAuth, false, true},
		{KindConnected, false, false},
		{KindConnectRetried, false, false},
		{KindOther, false, false},
	}

	for _, tt := range tests {
		up, ok := Event{Kind: tt.kind}.Session()
		if up != tt.wantUp || ok != tt.wantOK {
			t.Errorf("%v.Session() = (%v, %v), want (%v, %v)", tt.kind, up, ok, tt.wantUp, tt.wantOK)
		}
	}
}
