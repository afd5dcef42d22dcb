package queue

import "container/heap"

type entry[T any] struct {
	tick    int64
	seq     uint64
	payload T
}

// entryHeap implements heap.Interface with deterministic ordering.
// Ordering: tick → insertion sequence.
type entryHeap[T any] []entry[T]

func (h entryHeap[T]) Len() int { return len(h) }

func (h entryHeap[T]) Less(i, j int) bool {
	if h[i].tick != h[j].tick {
		return h[i].tick < h[j].tick
	}
	return h[i].seq < h[j].seq
}

func (h entryHeap[T]) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap[T]) Push(x any) { *h = append(*h, x.(entry[T])) }

func (h *entryHeap[T]) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = entry[T]{}
	*h = old[:n-1]
	return item
}

func (h entryHeap[T]) peek() (entry[T], bool) {
	if len(h) == 0 {
		return entry[T]{}, false
	}
	return h[0], true
}

// HeapQueue is a binary-heap Scheduler for sparse or widely spread tick keys.
// Push and pop are O(log n); payloads of equal tick come out in push order.
type HeapQueue[T any] struct {
	items   entryHeap[T]
	current int64
	seq     uint64
}

// NewHeapQueue creates an empty heap scheduler starting at tick start.
func NewHeapQueue[T any](start int64) *HeapQueue[T] {
	q := &HeapQueue[T]{current: start}
	heap.Init(&q.items)
	return q
}

// Current returns the earliest tick that may still be pushed or popped.
func (q *HeapQueue[T]) Current() int64 { return q.current }

// Len returns the number of pending payloads.
func (q *HeapQueue[T]) Len() int { return q.items.Len() }

// NextTick returns the earliest pending tick.
func (q *HeapQueue[T]) NextTick() (int64, bool) {
	e, ok := q.items.peek()
	return e.tick, ok
}

// Push schedules p for tick.
func (q *HeapQueue[T]) Push(tick int64, p T) error {
	if tick < q.current {
		return &PastTickError{Op: "push", Tick: tick, Current: q.current}
	}
	heap.Push(&q.items, entry[T]{tick: tick, seq: q.seq, payload: p})
	q.seq++
	return nil
}

// PopDue removes and returns every payload due at tick.
func (q *HeapQueue[T]) PopDue(tick int64) ([]T, error) {
	if tick < q.current {
		return nil, &PastTickError{Op: "pop", Tick: tick, Current: q.current}
	}
	if next, ok := q.NextTick(); ok && next < tick {
		return nil, &PastTickError{Op: "pop", Tick: tick, Current: q.current, Skipped: true, Pending: next}
	}
	var out []T
	for {
		e, ok := q.items.peek()
		if !ok || e.tick != tick {
			break
		}
		heap.Pop(&q.items)
		out = append(out, e.payload)
	}
	q.current = tick + 1
	return out, nil
}

// AdvanceTo drains every tick in [Current(), tick].
func (q *HeapQueue[T]) AdvanceTo(tick int64, visit func(tick int64, due []T)) (int, error) {
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
	return drained, nil
}
