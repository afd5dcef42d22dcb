// Package frame implements the columnar entity store that holds per-agent or
// per-node simulation state.
//
// A Frame owns one fixed-length buffer per column. All buffers share the
// frame's capacity, so any row index in [0, Capacity()) is valid in every
// column at once. Rows [0, Count()) are the active population; rows beyond
// are allocated but inactive. Capacity only changes through an explicit Grow,
// which lets a simulation pre-allocate for its population ceiling and activate
// rows (births, arrivals) without reallocating on every tick.
//
// A Frame does no locking. Concurrent readers are fine; writers must follow a
// single-writer-per-row-per-step discipline enforced by the caller.
package frame

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/laser-sim/laser/sim/accel"
)

// Frame is a growable columnar store with an active-row prefix.
type Frame struct {
	capacity int
	count    int
	columns  map[string]*Column
	order    []string
	backend  accel.Backend
	memLimit int64 // max total bytes across columns, 0 = unlimited
}

// Option configures a Frame.
type Option func(*Frame)

// WithBackend sets the kernel backend used by the vectorized helpers.
func WithBackend(b accel.Backend) Option {
	return func(f *Frame) {
		if b != nil {
			f.backend = b
		}
	}
}

// WithMemoryLimit caps the total bytes held by all columns. Allocations that
// would exceed it fail with *AllocationError.
func WithMemoryLimit(bytes int64) Option {
	return func(f *Frame) { f.memLimit = bytes }
}

// New creates a frame with the given capacity, no columns and no active rows.
func New(capacity int, opts ...Option) (*Frame, error) {
	if capacity < 0 {
		return nil, fmt.Errorf("%w: capacity %d", ErrInvalidCapacity, capacity)
	}
	f := &Frame{
		capacity: capacity,
		columns:  make(map[string]*Column),
		backend:  accel.Serial{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Capacity returns the number of allocated rows.
func (f *Frame) Capacity() int { return f.capacity }

// Count returns the number of active rows.
func (f *Frame) Count() int { return f.count }

// Backend returns the kernel backend.
func (f *Frame) Backend() accel.Backend { return f.backend }

// Columns returns column names in the order they were added.
func (f *Frame) Columns() []string {
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// Has reports whether a column exists.
func (f *Frame) Has(name string) bool {
	_, ok := f.columns[name]
	return ok
}

// Column returns the named column.
func (f *Frame) Column(name string) (*Column, bool) {
	c, ok := f.columns[name]
	return c, ok
}

func (f *Frame) lookup(name string) (*Column, error) {
	c, ok := f.columns[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoColumn, name)
	}
	return c, nil
}

// Bytes returns the total size of all column buffers.
func (f *Frame) Bytes() int64 {
	var total int64
	for _, c := range f.columns {
		total += c.Bytes()
	}
	return total
}

func (f *Frame) checkLimit(column string, elements, extra int64) error {
	if f.memLimit <= 0 {
		return nil
	}
	if f.Bytes()+extra > f.memLimit {
		return &AllocationError{Column: column, Elements: elements, Bytes: extra,
			Reason: fmt.Sprintf("memory limit %d bytes", f.memLimit)}
	}
	return nil
}

// Grow extends every column by additional rows and returns the new capacity.
// Existing rows keep their contents, new rows take each column's default and
// the active count is unchanged. Either every column grows or none does.
func (f *Frame) Grow(additional int) (int, error) {
	if additional <= 0 {
		return f.capacity, fmt.Errorf("%w: grow by %d", ErrInvalidCapacity, additional)
	}
	newCap, ok := addInt(f.capacity, additional)
	if !ok {
		return f.capacity, &AllocationError{Elements: -1, Bytes: -1, Reason: "capacity overflows int"}
	}

	var extra int64
	for _, name := range f.order {
		c := f.columns[name]
		n, ok := mulInt(newCap, c.width)
		if !ok {
			return f.capacity, &AllocationError{Column: name, Elements: -1, Bytes: -1, Reason: "element count overflows int"}
		}
		extra += int64(n-c.buf.len()) * c.Kind().Size()
	}
	if err := f.checkLimit("", int64(additional), extra); err != nil {
		return f.capacity, err
	}

	// Allocate everything before touching the frame.
	grown := make([]buffer, len(f.order))
	for i, name := range f.order {
		c := f.columns[name]
		b, err := c.buf.resized(newCap * c.width)
		if err != nil {
			return f.capacity, &AllocationError{Column: name, Elements: int64(newCap * c.width),
				Bytes: int64(newCap*c.width) * c.Kind().Size(), Reason: err.Error()}
		}
		grown[i] = b
	}
	for i, name := range f.order {
		f.columns[name].buf = grown[i]
	}
	logrus.Debugf("frame: grew capacity %d -> %d across %d columns", f.capacity, newCap, len(f.order))
	f.capacity = newCap
	return newCap, nil
}

// Activate marks n more rows active and returns the newly active range
// [start, end). The new rows hold whatever values were already in the
// buffers; callers initialize them.
func (f *Frame) Activate(n int) (start, end int, err error) {
	if n < 0 {
		return f.count, f.count, fmt.Errorf("%w: activate %d rows", ErrInvalidCapacity, n)
	}
	if n > f.capacity-f.count {
		return f.count, f.count, &CapacityExceededError{Count: f.count, Requested: n, Capacity: f.capacity}
	}
	start = f.count
	f.count += n
	return start, f.count, nil
}

// SetCount overrides the active row count.
func (f *Frame) SetCount(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: count %d", ErrInvalidCapacity, n)
	}
	if n > f.capacity {
		return &CapacityExceededError{Count: f.count, Requested: n - f.count, Capacity: f.capacity}
	}
	f.count = n
	return nil
}

// Squash compacts the active rows whose keep flag is set to the front of
// every column, preserving their order, and sets the count to the number of
// rows kept. Rows past the new count hold stale data.
func (f *Frame) Squash(keep []bool) error {
	if len(keep) != f.count {
		return fmt.Errorf("%w: squash mask has %d entries for %d active rows", ErrInvalidCapacity, len(keep), f.count)
	}
	kept := f.count
	for _, name := range f.order {
		c := f.columns[name]
		kept = c.buf.compact(keep, f.count, c.width)
	}
	if len(f.order) == 0 {
		kept = 0
		for _, k := range keep {
			if k {
				kept++
			}
		}
	}
	f.count = kept
	return nil
}

// Describe returns a human readable summary of the frame layout.
func (f *Frame) Describe() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Frame: capacity=%d count=%d columns=%d bytes=%d\n", f.capacity, f.count, len(f.order), f.Bytes())
	for _, name := range f.order {
		c := f.columns[name]
		if c.IsVector() {
			fmt.Fprintf(&sb, "  %-20s %s[%d]\n", name, c.Kind(), c.width)
		} else {
			fmt.Fprintf(&sb, "  %-20s %s\n", name, c.Kind())
		}
	}
	return sb.String()
}

func addInt(a, b int) (int, bool) {
	c := a + b
	if c < a {
		return 0, false
	}
	return c, true
}
