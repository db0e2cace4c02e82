package stats

import "github.com/nerrad567/qlstats/internal/monitor"

// Observer receives every stats message and lifecycle event seen by the
// supervisor. Calls are made synchronously from the supervision loop, so
// implementations must return quickly and never block.
type Observer interface {
	OnMessage(raw string)
	OnLifecycle(ev monitor.Event)
}
