// Package testutil provides shared assertion helpers for the simulation
// test packages.
package testutil

import (
	"math"
	"testing"
)

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// AssertInt64SliceSum checks that the elements of got sum to want.
func AssertInt64SliceSum(t *testing.T, name string, want int64, got []int64) {
	t.Helper()
	var sum int64
	for _, v := range got {
		sum += v
	}
	if sum != want {
		t.Errorf("%s: sum got %d, want %d", name, sum, want)
	}
}
