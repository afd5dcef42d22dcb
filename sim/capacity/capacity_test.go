package capacity

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laser-sim/laser/sim/internal/testutil"
)

const fiveYears = 5 * 365

func TestCalcCapacity_ExceedsPopulation(t *testing.T) {
	// GIVEN 100 nodes with random populations and birth rates
	rng := rand.New(rand.NewPCG(3, 4))
	pops := make([]int64, 100)
	cbr := make([]float64, 100)
	for i := range pops {
		pops[i] = int64(10_000 + rng.IntN(990_000))
		cbr[i] = 5 + 30*rng.Float64()
	}

	// WHEN capacity is estimated over five years
	got, err := CalcCapacity(Broadcast(cbr, fiveYears), pops, 1.0)

	// THEN every node and the total exceed the population
	require.NoError(t, err)
	var popTotal int64
	for i := range pops {
		assert.Greater(t, got[i], pops[i])
		popTotal += pops[i]
	}
	assert.Greater(t, Total(got), popTotal)
}

func TestCalcCapacity_MonotonicInBirthRateAndSafety(t *testing.T) {
	pops := []int64{10_000, 25_000, 50_000, 100_000, 250_000, 500_000, 1_000_000}
	var previous []int64
	for _, cbr := range []float64{5, 10, 20, 25, 30, 40, 50} {
		rates := make([]float64, len(pops))
		for i := range rates {
			rates[i] = cbr
		}
		br := Broadcast(rates, fiveYears)

		estimate, err := CalcCapacity(br, pops, 1.0)
		require.NoError(t, err)
		safer, err := CalcCapacity(br, pops, 2.0)
		require.NoError(t, err)

		for i := range pops {
			assert.Greater(t, estimate[i], pops[i], "cbr %v node %d", cbr, i)
			assert.Greater(t, safer[i], estimate[i], "cbr %v node %d", cbr, i)
			if previous != nil {
				assert.Greater(t, estimate[i], previous[i], "cbr %v node %d", cbr, i)
			}
		}
		previous = estimate
	}
}

func TestCalcCapacity_MatchesClosedForm(t *testing.T) {
	// Constant CBR of 20 for one year grows by exactly 2%.
	got, err := CalcCapacity(Broadcast([]float64{20}, 365), []int64{100_000}, 1.0)
	require.NoError(t, err)
	testutil.AssertFloat64Equal(t, "one year at cbr 20", 102_000, float64(got[0]), 1e-4)
}

func TestCalcCapacity_TinyGrowthStillExceeds(t *testing.T) {
	got, err := CalcCapacity([][]float64{{1e-9}}, []int64{10}, 1.0)
	require.NoError(t, err)
	assert.Equal(t, int64(11), got[0])

	got, err = CalcCapacity([][]float64{{0}}, []int64{10}, 1.0)
	require.NoError(t, err)
	assert.Equal(t, int64(10), got[0], "zero birth rate does not grow")
}

func TestCalcCapacity_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		br     [][]float64
		pop    []int64
		safety float64
	}{
		{"no ticks", nil, []int64{1}, 1},
		{"ragged", [][]float64{{1, 2}}, []int64{1}, 1},
		{"negative rate", [][]float64{{-1}}, []int64{1}, 1},
		{"nan rate", [][]float64{{math.NaN()}}, []int64{1}, 1},
		{"negative population", [][]float64{{1}}, []int64{-1}, 1},
		{"zero safety", [][]float64{{1}}, []int64{1}, 0},
		{"nan safety", [][]float64{{1}}, []int64{1}, math.NaN()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CalcCapacity(tt.br, tt.pop, tt.safety)
			assert.ErrorIs(t, err, ErrInput)
		})
	}
}
