package stats

import (
	"sync"
	"time"

	"github.com/nerrad567/qlstats/internal/monitor"
)

// Tally counts messages and lifecycle events. It implements Observer and is
// safe for concurrent use.
type Tally struct {
	mu            sync.RWMutex
	messages      uint64
	byType        map[string]uint64
	lifecycle     map[string]uint64
	connected     bool
	lastMessageAt time.Time
	lastEventAt   time.Time
	now           func() time.Time
}

// Snapshot is a point-in-time copy of a Tally.
type Snapshot struct {
	Messages      uint64            `json:"messages"`
	ByType        map[string]uint64 `json:"by_type"`
	Lifecycle     map[string]uint64 `json:"lifecycle"`
	Connected     bool              `json:"connected"`
	LastMessageAt *time.Time        `json:"last_message_at,omitempty"`
	LastEventAt   *time.Time        `json:"last_event_at,omitempty"`
}

// NewTally creates an empty tally.
func NewTally() *Tally {
	return &Tally{
		byType:    make(map[string]uint64),
		lifecycle: make(map[string]uint64),
		now:       time.Now,
	}
}

// OnMessage counts a message under its Quake Live event type.
func (t *Tally) OnMessage(raw string) {
	typ := EventType(raw)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages++
	t.byType[typ]++
	t.lastMessageAt = t.now()
}

// OnLifecycle counts the event and tracks whether the handshake is up.
func (t *Tally) OnLifecycle(ev monitor.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lifecycle[ev.Kind.String()]++
	t.lastEventAt = t.now()

	if up, ok := ev.Session(); ok {
		t.connected = up
	}
}

// Connected reports whether the last handshake succeeded and no disconnect
// has been seen since.
func (t *Tally) Connected() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.connected
}

// Snapshot returns a copy of the current counters.
func (t *Tally) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := Snapshot{
		Messages:  t.messages,
		ByType:    make(map[string]uint64, len(t.byType)),
		Lifecycle: make(map[string]uint64, len(t.lifecycle)),
		Connected: t.connected,
	}
	for k, v := range t.byType {
		s.ByType[k] = v
	}
	for k, v := range t.lifecycle {
		s.Lifecycle[k] = v
	}
	if !t.lastMessageAt.IsZero() {
		at := t.lastMessageAt
		s.LastMessageAt = &at
	}
	if !t.lastEventAt.IsZero() {
		at := t.lastEventAt
		s.LastEventAt = &at
	}
	return s
}
