package stats

import "errors"

// Domain-specific errors for the stats package.
var (
	// ErrDisplayClosed is returned by Display.Send once the sink has
	// detached. The supervisor stops when it sees it.
	ErrDisplayClosed = errors.New("stats: display closed")

	// ErrMissingDependency is returned by NewSupervisor when a required
	// dependency is nil.
	ErrMissingDependency = errors.New("stats: missing dependency")
)
