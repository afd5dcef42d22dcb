package queue

import (
	"container/heap"
	"math/bits"

	"github.com/sirupsen/logrus"
)

// DefaultMaxWindow bounds the ring length. Pushes further ahead than the
// window wait in an overflow heap until the window reaches them.
const DefaultMaxWindow = 1 << 20

// Option configures a TickQueue.
type Option func(*config)

type config struct {
	start     int64
	maxWindow int
}

// WithStartTick sets the first tick the queue accepts (default 0).
func WithStartTick(t int64) Option {
	return func(c *config) { c.start = t }
}

// WithMaxWindow caps the ring length. It is rounded up to a power of two.
func WithMaxWindow(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxWindow = n
		}
	}
}

// TickQueue is a ring of per-tick buckets. Slot tick&mask holds the payloads
// for tick while tick lies in the window [current, current+len(buckets)).
// The window doubles when a push lands beyond it, up to the max window.
type TickQueue[T any] struct {
	buckets   [][]T
	mask      int64
	current   int64
	pending   int // payloads held in the ring
	maxWindow int
	far       entryHeap[T]
	seq       uint64
}

// NewTickQueue creates a queue whose ring initially covers hint ticks. The
// hint only sizes the first allocation; any future tick can be pushed.
func NewTickQueue[T any](hint int, opts ...Option) *TickQueue[T] {
	cfg := config{maxWindow: DefaultMaxWindow}
	for _, opt := range opts {
		opt(&cfg)
	}
	maxWindow := nextPow2(cfg.maxWindow)
	window := min(nextPow2(max(hint, 1)), maxWindow)
	return &TickQueue[T]{
		buckets:   make([][]T, window),
		mask:      int64(window - 1),
		current:   cfg.start,
		maxWindow: maxWindow,
	}
}

// Current returns the earliest tick that may still be pushed or popped.
func (q *TickQueue[T]) Current() int64 { return q.current }

// Len returns the number of pending payloads.
func (q *TickQueue[T]) Len() int { return q.pending + q.far.Len() }

// Window returns the ring length in ticks.
func (q *TickQueue[T]) Window() int { return len(q.buckets) }

// Push schedules p for tick in O(1) amortized time.
func (q *TickQueue[T]) Push(tick int64, p T) error {
	if tick < q.current {
		return &PastTickError{Op: "push", Tick: tick, Current: q.current}
	}
	off := tick - q.current
	if off >= int64(len(q.buckets)) {
		if off >= int64(q.maxWindow) {
			heap.Push(&q.far, entry[T]{tick: tick, seq: q.seq, payload: p})
			q.seq++
			return nil
		}
		q.resize(nextPow2(int(off) + 1))
	}
	i := tick & q.mask
	q.buckets[i] = append(q.buckets[i], p)
	q.pending++
	return nil
}

// resize relocates every live bucket into a ring of length n.
func (q *TickQueue[T]) resize(n int) {
	old, oldMask := q.buckets, q.mask
	q.buckets = make([][]T, n)
	q.mask = int64(n - 1)
	for t := q.current; t < q.current+int64(len(old)); t++ {
		q.buckets[t&q.mask] = old[t&oldMask]
	}
	logrus.Debugf("queue: window %d -> %d ticks at tick %d", len(old), n, q.current)
	q.migrate()
}

// migrate moves overflow entries that now fall inside the window into the ring.
func (q *TickQueue[T]) migrate() {
	end := q.current + int64(len(q.buckets))
	for {
		e, ok := q.far.peek()
		if !ok || e.tick >= end {
			return
		}
		heap.Pop(&q.far)
		i := e.tick & q.mask
		q.buckets[i] = append(q.buckets[i], e.payload)
		q.pending++
	}
}

// NextTick returns the earliest pending tick.
func (q *TickQueue[T]) NextTick() (int64, bool) {
	if q.pending > 0 {
		for off := int64(0); off < int64(len(q.buckets)); off++ {
			t := q.current + off
			if len(q.buckets[t&q.mask]) > 0 {
				return t, true
			}
		}
	}
	e, ok := q.far.peek()
	return e.tick, ok
}

// pendingBefore returns the earliest pending tick below tick, if any.
func (q *TickQueue[T]) pendingBefore(tick int64) (int64, bool) {
	if q.pending > 0 {
		end := min(tick, q.current+int64(len(q.buckets)))
		for t := q.current; t < end; t++ {
			if len(q.buckets[t&q.mask]) > 0 {
				return t, true
			}
		}
	}
	if e, ok := q.far.peek(); ok && e.tick < tick {
		return e.tick, true
	}
	return 0, false
}

// seek validates a pop of tick and moves the window so that tick is its
// first slot. Every slot passed over is known to be empty.
func (q *TickQueue[T]) seek(op string, tick int64) error {
	if tick < q.current {
		return &PastTickError{Op: op, Tick: tick, Current: q.current}
	}
	if next, ok := q.pendingBefore(tick); ok {
		return &PastTickError{Op: op, Tick: tick, Current: q.current, Skipped: true, Pending: next}
	}
	q.current = tick
	q.migrate()
	return nil
}

// PopDue removes and returns every payload due at tick. The returned slice is
// owned by the caller. Payloads of the same tick come out in push order,
// though callers must not rely on it.
func (q *TickQueue[T]) PopDue(tick int64) ([]T, error) {
	if err := q.seek("pop", tick); err != nil {
		return nil, err
	}
	i := tick & q.mask
	due := q.buckets[i]
	q.buckets[i] = nil
	q.pending -= len(due)
	q.current = tick + 1
	q.migrate()
	return due, nil
}

// Drain is PopDue without handing over the bucket: fn sees each payload and
// the bucket's storage is kept for later pushes.
func (q *TickQueue[T]) Drain(tick int64, fn func(T)) (int, error) {
	if err := q.seek("pop", tick); err != nil {
		return 0, err
	}
	i := tick & q.mask
	due := q.buckets[i]
	q.buckets[i] = nil
	q.pending -= len(due)
	q.current = tick + 1
	q.migrate()
	// fn may push, which can resize the ring or refill the slot for
	// tick+Window(); the bucket is detached until the loop is done.
	for _, p := range due {
		fn(p)
	}
	clear(due)
	if j := tick & q.mask; len(q.buckets[j]) == 0 {
		q.buckets[j] = due[:0]
	}
	return len(due), nil
}

// AdvanceTo drains every tick in [Current(), tick], calling visit for each
// non-empty tick in order. visit may be nil to discard.
func (q *TickQueue[T]) AdvanceTo(tick int64, visit func(tick int64, due []T)) (int, error) {
	if tick < q.current {
		return 0, &PastTickError{Op: "advance", Tick: tick, Current: q.current}
	}
	drained := 0
	for {
		next, ok := q.NextTick()
		if !ok || next > tick {
			break
		}
		due, err := q.PopDue(next)
		if err != nil {
			return drained, err
		}
		drained += len(due)
		if visit != nil {
			visit(next, due)
		}
	}
	q.current = tick + 1
	q.migrate()
	return drained, nil
}

func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}
