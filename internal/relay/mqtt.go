package relay

import (
	"context"
	"sync/atomic"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/nerrad567/qlstats/internal/infrastructure/logging"
	"github.com/nerrad567/qlstats/internal/infrastructure/mqtt"
	"github.com/nerrad567/qlstats/internal/monitor"
	"github.com/nerrad567/qlstats/internal/stats"
)

// defaultQueueSize bounds publications waiting for the broker.
const defaultQueueSize = 256

// Publisher is the subset of *mqtt.Client used by the relay.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	IsConnected() bool
}

// ZMQStatus is the retained payload published on every session change.
type ZMQStatus struct {
	Connected bool      `json:"connected"`
	Event     string    `json:"event"`
	Addr      string    `json:"addr,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type publication struct {
	topic    string
	payload  []byte
	retained bool
}

// MQTT republishes stats messages and connection state to a broker.
//
// OnMessage and OnLifecycle only enqueue; Run performs the publishes, so
// a slow broker never stalls the supervisor. When the queue is full or the
// broker is down, publications are dropped and counted.
type MQTT struct {
	pub     Publisher
	topics  mqtt.Topics
	qos     byte
	queue   chan publication
	logger  *logging.Logger
	dropped atomic.Uint64
	now     func() time.Time
}

// NewMQTT creates a relay publishing under topics with the given QoS.
func NewMQTT(pub Publisher, topics mqtt.Topics, qos byte, logger *logging.Logger) *MQTT {
	if logger == nil {
		logger = logging.Discard()
	}
	return &MQTT{
		pub:    pub,
		topics: topics,
		qos:    qos,
		queue:  make(chan publication, defaultQueueSize),
		logger: logger.With("component", "mqtt-relay"),
		now:    time.Now,
	}
}

var _ stats.Observer = (*MQTT)(nil)

// OnMessage queues the raw message for <prefix>/event/<TYPE>.
func (r *MQTT) OnMessage(raw string) {
	r.enqueue(publication{
		topic:   r.topics.Event(stats.EventType(raw)),
		payload: []byte(raw),
	})
}

// OnLifecycle queues a retained status update when the session state changes.
func (r *MQTT) OnLifecycle(ev monitor.Event) {
	up, ok := ev.Session()
	if !ok {
		return
	}

	payload, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(ZMQStatus{
		Connected: up,
		Event:     ev.String(),
		Addr:      ev.Addr,
		Timestamp: r.now().UTC(),
	})
	if err != nil {
		r.logger.Warn("encoding zmq status", "error", err)
		return
	}

	r.enqueue(publication{
		topic:    r.topics.ZMQStatus(),
		payload:  payload,
		retained: true,
	})
}

// Dropped returns how many publications were discarded.
func (r *MQTT) Dropped() uint64 {
	return r.dropped.Load()
}

func (r *MQTT) enqueue(p publication) {
	if !r.pub.IsConnected() {
		r.dropped.Add(1)
		return
	}
	select {
	case r.queue <- p:
	default:
		r.dropped.Add(1)
	}
}

// Run publishes queued messages until ctx is cancelled.
func (r *MQTT) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case p := <-r.queue:
			if err := r.pub.Publish(p.topic, p.payload, r.qos, p.retained); err != nil {
				r.dropped.Add(1)
				r.logger.Debug("mqtt relay publish failed", "topic", p.topic, "error", err)
			}
		}
	}
}
