package accel

import "fmt"

// Integer is the set of integer element types kernels accept.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Float is the set of floating point element types kernels accept.
type Float interface {
	~float32 | ~float64
}

// Number is any integer or floating point element type.
type Number interface {
	Integer | Float
}

// ElemOp tags an elementwise operation for Apply.
type ElemOp string

const (
	OpAdd ElemOp = "add"
	OpSub ElemOp = "sub"
	OpMul ElemOp = "mul"
	OpMin ElemOp = "min"
	OpMax ElemOp = "max"
)

// ReduceOp tags a reduction for Reduce.
type ReduceOp string

const (
	OpSum     ReduceOp = "sum"
	OpMinimum ReduceOp = "minimum"
	OpMaximum ReduceOp = "maximum"
)

// SumInt sums integer elements into an int64 accumulator.
func SumInt[T Integer](b Backend, x []T) (int64, error) {
	partials := make([]int64, NumBlocks(len(x)))
	err := b.Blocks(len(x), func(blk, lo, hi int) {
		var s int64
		for _, v := range x[lo:hi] {
			s += int64(v)
		}
		partials[blk] = s
	})
	if err != nil {
		return 0, err
	}
	var total int64
	for _, s := range partials {
		total += s
	}
	return total, nil
}

// SumFloat sums floating point elements into a float64 accumulator.
// float32 elements are promoted before they are added.
func SumFloat[T Float](b Backend, x []T) (float64, error) {
	partials := make([]float64, NumBlocks(len(x)))
	err := b.Blocks(len(x), func(blk, lo, hi int) {
		var s float64
		for _, v := range x[lo:hi] {
			s += float64(v)
		}
		partials[blk] = s
	})
	if err != nil {
		return 0, err
	}
	var total float64
	for _, s := range partials {
		total += s
	}
	return total, nil
}

// Min returns the smallest element. ok is false for an empty input.
func Min[T Number](b Backend, x []T) (v T, ok bool, err error) {
	return extreme(b, x, func(a, c T) bool { return a < c })
}

// Max returns the largest element. ok is false for an empty input.
func Max[T Number](b Backend, x []T) (v T, ok bool, err error) {
	return extreme(b, x, func(a, c T) bool { return a > c })
}

func extreme[T Number](b Backend, x []T, better func(a, c T) bool) (T, bool, error) {
	var zero T
	if len(x) == 0 {
		return zero, false, nil
	}
	partials := make([]T, NumBlocks(len(x)))
	err := b.Blocks(len(x), func(blk, lo, hi int) {
		best := x[lo]
		for _, v := range x[lo+1 : hi] {
			if better(v, best) {
				best = v
			}
		}
		partials[blk] = best
	})
	if err != nil {
		return zero, false, err
	}
	best := partials[0]
	for _, v := range partials[1:] {
		if better(v, best) {
			best = v
		}
	}
	return best, true, nil
}

// Count returns the number of elements equal to v.
func Count[T comparable](b Backend, x []T, v T) (int, error) {
	partials := make([]int, NumBlocks(len(x)))
	err := b.Blocks(len(x), func(blk, lo, hi int) {
		n := 0
		for _, e := range x[lo:hi] {
			if e == v {
				n++
			}
		}
		partials[blk] = n
	})
	if err != nil {
		return 0, err
	}
	total := 0
	for _, n := range partials {
		total += n
	}
	return total, nil
}

// CountTrue returns the number of true elements.
func CountTrue(b Backend, x []bool) (int, error) {
	return Count(b, x, true)
}

// Bincount returns a histogram of x over [0, nbins).
func Bincount[T Integer](b Backend, x []T, nbins int) ([]int64, error) {
	if nbins < 0 {
		return nil, fmt.Errorf("%w: nbins %d", ErrOutOfRange, nbins)
	}
	nb := NumBlocks(len(x))
	hists := make([][]int64, nb)
	bad := make([]bool, nb)
	err := b.Blocks(len(x), func(blk, lo, hi int) {
		h := make([]int64, nbins)
		for _, v := range x[lo:hi] {
			i := int64(v)
			if i < 0 || i >= int64(nbins) {
				bad[blk] = true
				continue
			}
			h[i]++
		}
		hists[blk] = h
	})
	if err != nil {
		return nil, err
	}
	out := make([]int64, nbins)
	for blk, h := range hists {
		if bad[blk] {
			return nil, fmt.Errorf("%w: bincount over %d bins", ErrOutOfRange, nbins)
		}
		for i, c := range h {
			out[i] += c
		}
	}
	return out, nil
}

// Fill sets every element of dst to v.
func Fill[T any](b Backend, dst []T, v T) error {
	return b.Blocks(len(dst), func(_, lo, hi int) {
		s := dst[lo:hi]
		for i := range s {
			s[i] = v
		}
	})
}

// Apply computes dst[i] = x[i] op y[i]. dst may alias x or y.
func Apply[T Number](b Backend, op ElemOp, dst, x, y []T) error {
	if len(x) != len(y) || len(dst) != len(x) {
		return fmt.Errorf("%w: dst=%d x=%d y=%d", ErrLengthMismatch, len(dst), len(x), len(y))
	}
	var f func(a, c T) T
	switch op {
	case OpAdd:
		f = func(a, c T) T { return a + c }
	case OpSub:
		f = func(a, c T) T { return a - c }
	case OpMul:
		f = func(a, c T) T { return a * c }
	case OpMin:
		f = func(a, c T) T { return min(a, c) }
	case OpMax:
		f = func(a, c T) T { return max(a, c) }
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOp, op)
	}
	return b.Blocks(len(dst), func(_, lo, hi int) {
		for i := lo; i < hi; i++ {
			dst[i] = f(x[i], y[i])
		}
	})
}

// Reduce applies a tagged reduction and reports the result as float64.
// Integer sums are accumulated exactly in int64 before conversion; float sums
// follow SumFloat.
func Reduce[T Number](b Backend, op ReduceOp, x []T) (float64, error) {
	switch op {
	case OpSum:
		if isFloat[T]() {
			partials := make([]float64, NumBlocks(len(x)))
			err := b.Blocks(len(x), func(blk, lo, hi int) {
				var s float64
				for _, v := range x[lo:hi] {
					s += float64(v)
				}
				partials[blk] = s
			})
			var total float64
			for _, s := range partials {
				total += s
			}
			return total, err
		}
		partials := make([]int64, NumBlocks(len(x)))
		err := b.Blocks(len(x), func(blk, lo, hi int) {
			var s int64
			for _, v := range x[lo:hi] {
				s += int64(v)
			}
			partials[blk] = s
		})
		var total int64
		for _, s := range partials {
			total += s
		}
		return float64(total), err
	case OpMinimum:
		v, _, err := Min(b, x)
		return float64(v), err
	case OpMaximum:
		v, _, err := Max(b, x)
		return float64(v), err
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownOp, op)
	}
}

func isFloat[T Number]() bool {
	var one T = 1
	return one/2 != 0
}
