// Package queue implements tick-keyed deferred action scheduling.
//
// Simulation steps push "do X at tick T" payloads and pop every payload due at
// the current tick. Ticks are consumed in strictly increasing order: once a
// tick has been popped it can neither be pushed to nor popped again, and a pop
// never silently passes over a tick that still holds entries.
//
// TickQueue is the default, a ring of per-tick buckets with O(1) amortized
// push and drain. HeapQueue offers the same contract over a binary heap for
// sparse tick keys.
package queue

// Scheduler is the contract shared by TickQueue and HeapQueue.
type Scheduler[T any] interface {
	// Push schedules p for tick. tick must be >= Current().
	Push(tick int64, p T) error
	// PopDue removes and returns every payload scheduled for exactly tick.
	// Afterwards Current() is tick+1.
	PopDue(tick int64) ([]T, error)
	// AdvanceTo drains every tick in [Current(), tick], calling visit for each
	// non-empty tick (visit may be nil), and returns the number drained.
	AdvanceTo(tick int64, visit func(tick int64, due []T)) (int, error)
	// NextTick returns the earliest tick holding a payload.
	NextTick() (int64, bool)
	// Current returns the earliest tick that may still be pushed or popped.
	Current() int64
	// Len returns the number of pending payloads.
	Len() int
}
