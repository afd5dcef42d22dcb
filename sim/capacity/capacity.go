// Package capacity estimates per-node population ceilings used to size an
// entity store before a run.
package capacity

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ErrInput is returned for malformed or out of range inputs.
var ErrInput = errors.New("capacity: invalid input")

// DaysPerYear converts annual crude birth rates into daily rates.
const DaysPerYear = 365.0

// CalcCapacity extrapolates each node's population over the birth rate
// trajectory and returns a capacity estimate per node.
//
// birthrates is indexed [tick][node] and holds crude birth rates in births per
// 1,000 people per year. Each tick compounds a daily growth rate
// (1+cbr/1000)^(1/365) - 1. The expected growth is scaled by safetyFactor and
// rounded up, so the result strictly exceeds the population for any positive
// birth rate and increases with both the birth rate and the safety factor.
func CalcCapacity(birthrates [][]float64, population []int64, safetyFactor float64) ([]int64, error) {
	if len(birthrates) == 0 {
		return nil, fmt.Errorf("%w: birthrates has no ticks", ErrInput)
	}
	if !(safetyFactor > 0) || math.IsInf(safetyFactor, 0) {
		return nil, fmt.Errorf("%w: safety factor %v must be positive", ErrInput, safetyFactor)
	}
	nodes := len(population)
	for t, row := range birthrates {
		if len(row) != nodes {
			return nil, fmt.Errorf("%w: birthrates tick %d has %d nodes, population has %d", ErrInput, t, len(row), nodes)
		}
		for n, cbr := range row {
			if cbr < 0 || math.IsNaN(cbr) || math.IsInf(cbr, 0) {
				return nil, fmt.Errorf("%w: birth rate %v at tick %d node %d", ErrInput, cbr, t, n)
			}
		}
	}

	logGrowth := make([]float64, len(birthrates))
	out := make([]int64, nodes)
	for n, pop := range population {
		if pop < 0 {
			return nil, fmt.Errorf("%w: negative population %d at node %d", ErrInput, pop, n)
		}
		// log((1+cbr/1000)^(1/365)) per tick, summed over the trajectory
		for t, row := range birthrates {
			logGrowth[t] = math.Log1p(row[n]/1000) / DaysPerYear
		}
		excess := math.Expm1(floats.Sum(logGrowth))
		estimate := math.Ceil(float64(pop) * (1 + excess*safetyFactor))
		c := int64(estimate)
		if excess > 0 && pop > 0 && c <= pop {
			c = pop + 1
		}
		out[n] = c
	}
	return out, nil
}

// Broadcast repeats one per-node birth rate row over ticks, the common case of
// constant rates.
func Broadcast(rates []float64, ticks int) [][]float64 {
	out := make([][]float64, ticks)
	for t := range out {
		out[t] = rates
	}
	return out
}

// Total sums per-node capacities.
func Total(capacities []int64) int64 {
	var total int64
	for _, c := range capacities {
		total += c
	}
	return total
}
