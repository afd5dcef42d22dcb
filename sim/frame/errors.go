package frame

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateColumn is returned when a column name is already in use.
	ErrDuplicateColumn = errors.New("frame: duplicate column")
	// ErrNoColumn is returned when a named column does not exist.
	ErrNoColumn = errors.New("frame: no such column")
	// ErrTypeMismatch is returned when a column is accessed with the wrong element type or shape.
	ErrTypeMismatch = errors.New("frame: column type mismatch")
	// ErrInvalidCapacity is returned for negative capacities, non-positive growth
	// and counts outside [0, capacity].
	ErrInvalidCapacity = errors.New("frame: invalid capacity")
	// ErrAllocation matches any *AllocationError.
	ErrAllocation = errors.New("frame: allocation failed")
	// ErrCapacityExceeded matches any *CapacityExceededError.
	ErrCapacityExceeded = errors.New("frame: capacity exceeded")
)

// AllocationError reports a buffer that could not be allocated.
// The frame is left exactly as it was before the failing call.
type AllocationError struct {
	Column   string // column being allocated, empty when growing all columns
	Elements int64  // requested element count
	Bytes    int64  // requested bytes, -1 on overflow
	Reason   string
}

func (e *AllocationError) Error() string {
	target := "frame"
	if e.Column != "" {
		target = fmt.Sprintf("column %q", e.Column)
	}
	return fmt.Sprintf("frame: allocating %d elements (%d bytes) for %s: %s", e.Elements, e.Bytes, target, e.Reason)
}

// Is reports whether target is ErrAllocation.
func (e *AllocationError) Is(target error) bool { return target == ErrAllocation }

// CapacityExceededError reports an activation past the allocated capacity.
type CapacityExceededError struct {
	Count     int // active rows before the call
	Requested int // rows requested by the call
	Capacity  int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("frame: activating %d rows with %d of %d active exceeds capacity", e.Requested, e.Count, e.Capacity)
}

// Is reports whether target is ErrCapacityExceeded.
func (e *CapacityExceededError) Is(target error) bool { return target == ErrCapacityExceeded }
