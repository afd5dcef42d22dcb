package frame

import (
	"fmt"

	"github.com/laser-sim/laser/sim/accel"
)

// active returns the active prefix of a column's backing slice.
func active[T Element](f *Frame, name string) ([]T, error) {
	c, err := f.lookup(name)
	if err != nil {
		return nil, err
	}
	s, err := sliceOf[T](c)
	if err != nil {
		return nil, err
	}
	return s[:f.count*c.width], nil
}

// SumInt sums the active rows of an integer or bool column (bools count as 1).
func (f *Frame) SumInt(name string) (int64, error) {
	c, err := f.lookup(name)
	if err != nil {
		return 0, err
	}
	n := f.count * c.width
	switch d := c.Data().(type) {
	case []int8:
		return accel.SumInt(f.backend, d[:n])
	case []int16:
		return accel.SumInt(f.backend, d[:n])
	case []int32:
		return accel.SumInt(f.backend, d[:n])
	case []int64:
		return accel.SumInt(f.backend, d[:n])
	case []uint8:
		return accel.SumInt(f.backend, d[:n])
	case []uint16:
		return accel.SumInt(f.backend, d[:n])
	case []uint32:
		return accel.SumInt(f.backend, d[:n])
	case []uint64:
		return accel.SumInt(f.backend, d[:n])
	case []bool:
		t, err := accel.CountTrue(f.backend, d[:n])
		return int64(t), err
	}
	return 0, fmt.Errorf("%w: SumInt on %s column %q", ErrTypeMismatch, c.Kind(), name)
}

// SumFloat sums the active rows of a float column in float64.
func (f *Frame) SumFloat(name string) (float64, error) {
	c, err := f.lookup(name)
	if err != nil {
		return 0, err
	}
	n := f.count * c.width
	switch d := c.Data().(type) {
	case []float32:
		return accel.SumFloat(f.backend, d[:n])
	case []float64:
		return accel.SumFloat(f.backend, d[:n])
	}
	return 0, fmt.Errorf("%w: SumFloat on %s column %q", ErrTypeMismatch, c.Kind(), name)
}

// CountEqual counts active elements equal to v.
func CountEqual[T Element](f *Frame, name string, v T) (int, error) {
	s, err := active[T](f, name)
	if err != nil {
		return 0, err
	}
	return accel.Count(f.backend, s, v)
}

// Bincount histograms the active rows of an integer column over [0, nbins).
func Bincount[T Integral](f *Frame, name string, nbins int) ([]int64, error) {
	s, err := active[T](f, name)
	if err != nil {
		return nil, err
	}
	return accel.Bincount(f.backend, s, nbins)
}

// MinMax returns the extremes of the active rows. ok is false when no row is active.
func MinMax[T Numeric](f *Frame, name string) (lo, hi T, ok bool, err error) {
	s, err := active[T](f, name)
	if err != nil {
		return lo, hi, false, err
	}
	if lo, ok, err = accel.Min(f.backend, s); err != nil || !ok {
		return lo, hi, ok, err
	}
	hi, _, err = accel.Max(f.backend, s)
	return lo, hi, true, err
}

// Fill writes v into rows [lo, hi) of a column. Any range inside the
// capacity is allowed, active or not.
func Fill[T Element](f *Frame, name string, v T, lo, hi int) error {
	c, err := f.lookup(name)
	if err != nil {
		return err
	}
	s, err := sliceOf[T](c)
	if err != nil {
		return err
	}
	if lo < 0 || hi > f.capacity || lo > hi {
		return fmt.Errorf("%w: fill rows [%d, %d) of %d", ErrInvalidCapacity, lo, hi, f.capacity)
	}
	return accel.Fill(f.backend, s[lo*c.width:hi*c.width], v)
}
