package queue

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Scheduler[int] = (*TickQueue[int])(nil)
	_ Scheduler[int] = (*HeapQueue[int])(nil)
)

type factory struct {
	name string
	make func() Scheduler[int]
}

func schedulers() []factory {
	return []factory{
		{"ring", func() Scheduler[int] { return NewTickQueue[int](8) }},
		{"ring-tiny-window", func() Scheduler[int] { return NewTickQueue[int](1, WithMaxWindow(4)) }},
		{"heap", func() Scheduler[int] { return NewHeapQueue[int](0) }},
	}
}

func TestPopDue_ReturnsExactlyThePushedMultiset(t *testing.T) {
	for _, f := range schedulers() {
		t.Run(f.name, func(t *testing.T) {
			// GIVEN many payloads pushed for colliding future ticks in random order
			q := f.make()
			rng := rand.New(rand.NewPCG(1, 2))
			want := map[int64][]int{}
			for i := 0; i < 5000; i++ {
				tick := int64(rng.IntN(200))
				require.NoError(t, q.Push(tick, i))
				want[tick] = append(want[tick], i)
			}
			require.Equal(t, 5000, q.Len())

			// WHEN every tick is popped in order
			for tick := int64(0); tick < 200; tick++ {
				got, err := q.PopDue(tick)
				require.NoError(t, err)

				// THEN each pop returns exactly the payloads pushed for that tick
				slices.Sort(got)
				exp := want[tick]
				slices.Sort(exp)
				assert.Equal(t, len(exp), len(got), "tick %d", tick)
				if len(exp) > 0 {
					assert.Equal(t, exp, got, "tick %d", tick)
				}
			}
			assert.Equal(t, 0, q.Len())
		})
	}
}

func TestPush_AfterPop_SameTickFails(t *testing.T) {
	for _, f := range schedulers() {
		t.Run(f.name, func(t *testing.T) {
			q := f.make()
			require.NoError(t, q.Push(3, 1))
			_, err := q.AdvanceTo(2, nil)
			require.NoError(t, err)
			_, err = q.PopDue(3)
			require.NoError(t, err)

			err = q.Push(3, 2)
			var pastErr *PastTickError
			require.ErrorAs(t, err, &pastErr)
			assert.ErrorIs(t, err, ErrPastTick)
			assert.Equal(t, "push", pastErr.Op)
			assert.Equal(t, int64(4), pastErr.Current)

			require.NoError(t, q.Push(4, 2))
		})
	}
}

func TestPopDue_MonotonicDiscipline(t *testing.T) {
	for _, f := range schedulers() {
		t.Run(f.name, func(t *testing.T) {
			q := f.make()
			_, err := q.PopDue(5)
			require.NoError(t, err)

			_, err = q.PopDue(4)
			assert.ErrorIs(t, err, ErrPastTick)

			_, err = q.PopDue(5)
			assert.ErrorIs(t, err, ErrPastTick, "re-observing a consumed tick")

			_, err = q.PopDue(6)
			assert.NoError(t, err)
		})
	}
}

func TestPopDue_RefusesToSkipPendingTicks(t *testing.T) {
	for _, f := range schedulers() {
		t.Run(f.name, func(t *testing.T) {
			// GIVEN an entry pending at tick 2
			q := f.make()
			require.NoError(t, q.Push(2, 7))

			// WHEN tick 3 is popped directly
			_, err := q.PopDue(3)

			// THEN the pop fails and the entry is still there
			var pastErr *PastTickError
			require.ErrorAs(t, err, &pastErr)
			assert.True(t, pastErr.Skipped)
			assert.Equal(t, int64(2), pastErr.Pending)
			assert.Equal(t, 1, q.Len())

			got, err := q.PopDue(2)
			require.NoError(t, err)
			assert.Equal(t, []int{7}, got)
		})
	}
}

func TestPopDue_SkipsEmptyTicks(t *testing.T) {
	for _, f := range schedulers() {
		t.Run(f.name, func(t *testing.T) {
			q := f.make()
			require.NoError(t, q.Push(50, 1))
			got, err := q.PopDue(50)
			require.NoError(t, err)
			assert.Equal(t, []int{1}, got)
			assert.Equal(t, int64(51), q.Current())
		})
	}
}

func TestAdvanceTo_ObservesEveryTickInRange(t *testing.T) {
	for _, f := range schedulers() {
		t.Run(f.name, func(t *testing.T) {
			// GIVEN payloads at ticks 0..9 and the first tick already popped
			q := f.make()
			for tick := int64(0); tick < 10; tick++ {
				require.NoError(t, q.Push(tick, int(tick)*10))
				require.NoError(t, q.Push(tick, int(tick)*10+1))
			}
			_, err := q.PopDue(0)
			require.NoError(t, err)

			// WHEN advancing to tick 6
			var seen []int64
			n, err := q.AdvanceTo(6, func(tick int64, due []int) {
				seen = append(seen, tick)
				assert.Len(t, due, 2)
			})

			// THEN ticks 1..6 were observed once each and are gone
			require.NoError(t, err)
			assert.Equal(t, 12, n)
			assert.Equal(t, []int64{1, 2, 3, 4, 5, 6}, seen)
			assert.Equal(t, int64(7), q.Current())
			_, err = q.PopDue(6)
			assert.ErrorIs(t, err, ErrPastTick)

			got, err := q.PopDue(7)
			require.NoError(t, err)
			assert.ElementsMatch(t, []int{70, 71}, got)
		})
	}
}

func TestAdvanceTo_Past(t *testing.T) {
	for _, f := range schedulers() {
		t.Run(f.name, func(t *testing.T) {
			q := f.make()
			_, err := q.AdvanceTo(10, nil)
			require.NoError(t, err)
			_, err = q.AdvanceTo(9, nil)
			assert.ErrorIs(t, err, ErrPastTick)
		})
	}
}

func TestNextTick(t *testing.T) {
	for _, f := range schedulers() {
		t.Run(f.name, func(t *testing.T) {
			q := f.make()
			_, ok := q.NextTick()
			assert.False(t, ok)
			require.NoError(t, q.Push(40, 1))
			require.NoError(t, q.Push(12, 2))
			next, ok := q.NextTick()
			assert.True(t, ok)
			assert.Equal(t, int64(12), next)
		})
	}
}

func TestTickQueue_WindowDoublesAndRelocates(t *testing.T) {
	// GIVEN a 4-tick window with entries around the wrap point
	q := NewTickQueue[string](4)
	require.Equal(t, 4, q.Window())
	_, err := q.AdvanceTo(2, nil)
	require.NoError(t, err)
	require.NoError(t, q.Push(3, "a"))
	require.NoError(t, q.Push(6, "b")) // slot 2, wrapped

	// WHEN a push lands far beyond the window
	require.NoError(t, q.Push(40, "c"))

	// THEN the window grew to a power of two and nothing moved tick
	assert.Equal(t, 64, q.Window())
	for _, tc := range []struct {
		tick int64
		want string
	}{{3, "a"}, {6, "b"}, {40, "c"}} {
		tick, want := tc.tick, tc.want
		if tick > q.Current() {
			_, err := q.AdvanceTo(tick-1, nil)
			require.NoError(t, err)
		}
		got, err := q.PopDue(tick)
		require.NoError(t, err)
		assert.Equal(t, []string{want}, got)
	}
	assert.Equal(t, 0, q.Len())
}

func TestTickQueue_OverflowBeyondMaxWindow(t *testing.T) {
	// GIVEN a queue capped at an 8-tick ring
	q := NewTickQueue[int](2, WithMaxWindow(8))

	// WHEN entries are pushed far past the cap
	require.NoError(t, q.Push(1_000_000, 1))
	require.NoError(t, q.Push(1_000_000, 2))
	require.NoError(t, q.Push(5, 3))

	// THEN the ring never exceeds its cap and entries surface on time
	assert.LessOrEqual(t, q.Window(), 8)
	assert.Equal(t, 3, q.Len())
	next, ok := q.NextTick()
	require.True(t, ok)
	assert.Equal(t, int64(5), next)

	var seen []int64
	n, err := q.AdvanceTo(999_999, func(tick int64, _ []int) { seen = append(seen, tick) })
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []int64{5}, seen)

	got, err := q.PopDue(1_000_000)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, got)
	assert.LessOrEqual(t, q.Window(), 8)
}

func TestTickQueue_Drain_ReusesStorage(t *testing.T) {
	q := NewTickQueue[int](4)
	for i := 0; i < 3; i++ {
		require.NoError(t, q.Push(0, i))
	}
	var got []int
	n, err := q.Drain(0, func(p int) { got = append(got, p) })
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []int{0, 1, 2}, got)
	assert.Equal(t, 0, q.Len())

	_, err = q.Drain(0, func(int) {})
	assert.ErrorIs(t, err, ErrPastTick)
}

func TestTickQueue_Drain_PushBeyondWindowDuringDrain(t *testing.T) {
	// GIVEN a 4-tick ring positioned at tick 5 with entries at 5 and 6
	q := NewTickQueue[int](4)
	_, err := q.AdvanceTo(4, nil)
	require.NoError(t, err)
	require.NoError(t, q.Push(5, 1))
	require.NoError(t, q.Push(6, 2))

	// WHEN draining tick 5 pushes an entry that forces the ring to grow
	n, err := q.Drain(5, func(int) {
		require.NoError(t, q.Push(17, 100))
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 2, q.Len())

	// THEN later ticks see exactly what was pushed and nothing else
	got := map[int64][]int{}
	drained, err := q.AdvanceTo(40, func(tick int64, due []int) {
		got[tick] = slices.Clone(due)
	})
	require.NoError(t, err)
	assert.Equal(t, 2, drained)
	assert.Equal(t, map[int64][]int{6: {2}, 17: {100}}, got)
	assert.Equal(t, 0, q.Len())
}

func TestTickQueue_Drain_SameTickPushFails(t *testing.T) {
	// GIVEN one entry at tick 0
	q := NewTickQueue[int](4)
	require.NoError(t, q.Push(0, 1))

	// WHEN the drain callback pushes back onto the tick being drained
	var pushErr error
	n, err := q.Drain(0, func(int) { pushErr = q.Push(0, 2) })

	// THEN the push is refused and nothing stays pending
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.ErrorIs(t, pushErr, ErrPastTick)
	assert.Equal(t, 0, q.Len())
	drained, err := q.AdvanceTo(20, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, drained)
}

func TestTickQueue_Drain_NextLapPushKeepsEntry(t *testing.T) {
	// GIVEN a 4-tick ring with an entry at tick 0
	q := NewTickQueue[int](4, WithMaxWindow(4))
	require.NoError(t, q.Push(0, 1))

	// WHEN the callback pushes into the slot tick 0 shares with tick 4
	_, err := q.Drain(0, func(int) { require.NoError(t, q.Push(4, 7)) })
	require.NoError(t, err)

	// THEN the entry survives the storage hand-back
	got, err := q.PopDue(4)
	require.NoError(t, err)
	assert.Equal(t, []int{7}, got)
}

func TestTickQueue_StartTick(t *testing.T) {
	q := NewTickQueue[int](4, WithStartTick(100))
	assert.Equal(t, int64(100), q.Current())
	assert.ErrorIs(t, q.Push(99, 1), ErrPastTick)
	require.NoError(t, q.Push(100, 1))
	got, err := q.PopDue(100)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, got)
}

func TestTickQueue_RandomizedAgainstHeap(t *testing.T) {
	// Interleaved push/pop workload, ring and heap must agree tick by tick.
	ring := NewTickQueue[int](2, WithMaxWindow(16))
	ref := NewHeapQueue[int](0)
	rng := rand.New(rand.NewPCG(99, 3))
	id := 0
	for tick := int64(0); tick < 500; tick++ {
		for k := rng.IntN(20); k > 0; k-- {
			due := tick + int64(rng.IntN(64))
			require.NoError(t, ring.Push(due, id))
			require.NoError(t, ref.Push(due, id))
			id++
		}
		a, err := ring.PopDue(tick)
		require.NoError(t, err)
		b, err := ref.PopDue(tick)
		require.NoError(t, err)
		slices.Sort(a)
		slices.Sort(b)
		require.Equal(t, len(b), len(a), "tick %d", tick)
		if len(b) > 0 {
			require.Equal(t, b, a, "tick %d", tick)
		}
		require.Equal(t, ref.Len(), ring.Len())
	}
}

func TestNextPow2(t *testing.T) {
	for n, want := range map[int]int{0: 1, 1: 1, 2: 2, 3: 4, 4: 4, 5: 8, 1000: 1024} {
		assert.Equal(t, want, nextPow2(n), "n=%d", n)
	}
}
