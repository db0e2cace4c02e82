package zmq

import (
	"fmt"

	"github.com/pebbe/zmq4"

	"github.com/nerrad567/qlstats/internal/monitor"
)

// eventFromZMQ maps a libzmq monitor event onto the lifecycle model.
func eventFromZMQ(ev zmq4.Event, addr string, value int) monitor.Event {
	out := monitor.Event{
		Kind:  kindFromZMQ(ev),
		Addr:  addr,
		Value: value,
	}
	if out.Kind == monitor.KindOther {
		out.Name = fmt.Sprintf("%v", ev)
	}
	return out
}

func kindFromZMQ(ev zmq4.Event) monitor.Kind {
	switch ev {
	case zmq4.EVENT_HANDSHAKE_SUCCEEDED:
		return monitor.KindHandshakeSucceeded
	case zmq4.EVENT_HANDSHAKE_FAILED_AUTH:
		return monitor.KindHandshakeFailedAuth
	case zmq4.EVENT_HANDSHAKE_FAILED_PROTOCOL:
		return monitor.KindHandshakeFailedProtocol
	case zmq4.EVENT_HANDSHAKE_FAILED_NO_DETAIL:
		return monitor.KindHandshakeFailedNoDetail
	case zmq4.EVENT_MONITOR_STOPPED:
		return monitor.KindMonitorStopped
	case zmq4.EVENT_DISCONNECTED:
		return monitor.KindDisconnected
	case zmq4.EVENT_CLOSED:
		return monitor.KindClosed
	case zmq4.EVENT_CONNECTED:
		return monitor.KindConnected
	case zmq4.EVENT_CONNECT_DELAYED:
		return monitor.KindConnectDelayed
	case zmq4.EVENT_CONNECT_RETRIED:
		return monitor.KindConnectRetried
	default:
		return monitor.KindOther
	}
}
