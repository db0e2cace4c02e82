package stats

import (
	"context"
	"sync"
)

// Display is the ordered line queue between the supervisor and a sink.
//
// The supervisor is the only sender and closes the queue when it stops.
// A sink that stops reading early calls Detach so pending and future sends
// fail with ErrDisplayClosed instead of blocking.
type Display struct {
	lines      chan string
	gone       chan struct{}
	detachOnce sync.Once
	closeOnce  sync.Once
}

// NewDisplay creates a display queue holding up to buffer pending lines.
func NewDisplay(buffer int) *Display {
	if buffer < 0 {
		buffer = 0
	}
	return &Display{
		lines: make(chan string, buffer),
		gone:  make(chan struct{}),
	}
}

// Send queues a line, blocking while the buffer is full.
// It returns ErrDisplayClosed if the sink has detached, or ctx.Err() if
// the context ends first.
func (d *Display) Send(ctx context.Context, line string) error {
	select {
	case <-d.gone:
		return ErrDisplayClosed
	default:
	}

	select {
	case d.lines <- line:
		return nil
	case <-d.gone:
		return ErrDisplayClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Lines returns the receive side for the sink. It is closed by Close.
func (d *Display) Lines() <-chan string {
	return d.lines
}

// Detach marks the sink as gone. Safe to call more than once.
func (d *Display) Detach() {
	d.detachOnce.Do(func() { close(d.gone) })
}

// Close ends the stream. Only the sender may call it.
func (d *Display) Close() {
	d.closeOnce.Do(func() { close(d.lines) })
}
