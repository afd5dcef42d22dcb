// Package accel provides block-partitioned numeric kernels over flat column
// buffers.
//
// Every kernel splits its input into fixed BlockSize blocks, computes one
// partial result per block and folds the partials in block order. Because the
// block layout does not depend on the backend, the serial fallback and the
// parallel backend produce bit-identical results, including for floating
// point reductions.
package accel

import (
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// BlockSize is the number of elements handled by one kernel invocation.
const BlockSize = 4096

var (
	// ErrLengthMismatch is returned when elementwise operands differ in length.
	ErrLengthMismatch = errors.New("accel: operand length mismatch")
	// ErrUnknownOp is returned for an unrecognized operation tag.
	ErrUnknownOp = errors.New("accel: unknown operation")
	// ErrUnknownBackend is returned by ByName for an unrecognized backend name.
	ErrUnknownBackend = errors.New("accel: unknown backend")
	// ErrOutOfRange is returned by Bincount for values outside [0, nbins).
	ErrOutOfRange = errors.New("accel: value out of range")
)

// Backend schedules kernel blocks.
// Blocks calls fn once for every block of [0, n). fn must only touch its own
// range [lo, hi) and the partial slot identified by block.
type Backend interface {
	Name() string
	Blocks(n int, fn func(block, lo, hi int)) error
}

// NumBlocks returns the number of blocks covering n elements.
func NumBlocks(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + BlockSize - 1) / BlockSize
}

func blockRange(block, n int) (int, int) {
	lo := block * BlockSize
	return lo, min(lo+BlockSize, n)
}

// Serial runs blocks in order on the calling goroutine. It is the pure
// fallback every other backend must match.
type Serial struct{}

// Name returns "serial".
func (Serial) Name() string { return "serial" }

// Blocks runs fn over every block sequentially.
func (Serial) Blocks(n int, fn func(block, lo, hi int)) error {
	for b := 0; b < NumBlocks(n); b++ {
		lo, hi := blockRange(b, n)
		fn(b, lo, hi)
	}
	return nil
}

// Parallel fans blocks out over a bounded pool of goroutines.
type Parallel struct {
	Workers int // max concurrent blocks (>= 1)
}

// NewParallel creates a Parallel backend. workers <= 0 selects GOMAXPROCS.
func NewParallel(workers int) *Parallel {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Parallel{Workers: workers}
}

// Name returns "parallel".
func (p *Parallel) Name() string { return "parallel" }

// Blocks runs fn over every block using up to p.Workers goroutines.
// Inputs smaller than two blocks run inline.
func (p *Parallel) Blocks(n int, fn func(block, lo, hi int)) error {
	nb := NumBlocks(n)
	if nb <= 1 || p.Workers <= 1 {
		return Serial{}.Blocks(n, fn)
	}
	var g errgroup.Group
	g.SetLimit(p.Workers)
	for b := 0; b < nb; b++ {
		g.Go(func() error {
			lo, hi := blockRange(b, n)
			fn(b, lo, hi)
			return nil
		})
	}
	return g.Wait()
}

// ByName returns the backend registered under name ("serial" or "parallel").
// workers only applies to the parallel backend.
func ByName(name string, workers int) (Backend, error) {
	switch name {
	case "", "serial":
		return Serial{}, nil
	case "parallel":
		return NewParallel(workers), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
}
