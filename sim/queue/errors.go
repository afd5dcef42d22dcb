package queue

import (
	"errors"
	"fmt"
)

// ErrPastTick matches any *PastTickError.
var ErrPastTick = errors.New("queue: tick already consumed")

// PastTickError reports a push or pop that would move against the
// scheduler's monotonic tick order. It always signals a caller bug.
type PastTickError struct {
	Op      string // "push", "pop" or "advance"
	Tick    int64  // tick requested by the caller
	Current int64  // earliest tick still accepted
	// Skipped is set when a pop would pass over pending entries. Pending is
	// the earliest such tick.
	Skipped bool
	Pending int64
}

func (e *PastTickError) Error() string {
	if e.Skipped {
		return fmt.Sprintf("queue: %s tick %d would skip pending entries at tick %d", e.Op, e.Tick, e.Pending)
	}
	return fmt.Sprintf("queue: %s tick %d is before current tick %d", e.Op, e.Tick, e.Current)
}

// Is reports whether target is ErrPastTick.
func (e *PastTickError) Is(target error) bool { return target == ErrPastTick }
