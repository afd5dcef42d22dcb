package accel

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends() []Backend {
	return []Backend{Serial{}, NewParallel(4), NewParallel(1)}
}

func TestSumFloat_ParallelMatchesSerialBitForBit(t *testing.T) {
	// GIVEN a float buffer spanning many blocks with values of mixed magnitude
	rng := rand.New(rand.NewPCG(7, 11))
	x := make([]float64, 10*BlockSize+123)
	for i := range x {
		x[i] = rng.NormFloat64() * math.Pow(10, float64(rng.IntN(12)-6))
	}

	// WHEN it is summed by every backend
	want, err := SumFloat(Serial{}, x)
	require.NoError(t, err)

	// THEN every backend returns exactly the serial result
	for _, b := range backends() {
		got, err := SumFloat(b, x)
		require.NoError(t, err)
		assert.Equal(t, math.Float64bits(want), math.Float64bits(got), "backend %s", b.Name())
	}
}

func TestSumFloat_Float32PromotedPerElement(t *testing.T) {
	x := []float32{0.1, 0.2, 0.3}
	got, err := SumFloat(Serial{}, x)
	require.NoError(t, err)
	want := float64(float32(0.1)) + float64(float32(0.2)) + float64(float32(0.3))
	assert.Equal(t, want, got)
}

func TestSumInt_WidensToInt64(t *testing.T) {
	x := make([]int32, 3*BlockSize)
	for i := range x {
		x[i] = math.MaxInt32
	}
	for _, b := range backends() {
		got, err := SumInt(b, x)
		require.NoError(t, err)
		assert.Equal(t, int64(math.MaxInt32)*int64(len(x)), got)
	}
}

func TestMinMax(t *testing.T) {
	tests := []struct {
		name     string
		x        []int16
		min, max int16
		ok       bool
	}{
		{"empty", nil, 0, 0, false},
		{"single", []int16{5}, 5, 5, true},
		{"mixed", []int16{3, -7, 12, 0}, -7, 12, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, ok, err := Min(Serial{}, tt.x)
			require.NoError(t, err)
			assert.Equal(t, tt.ok, ok)
			hi, _, err := Max(Serial{}, tt.x)
			require.NoError(t, err)
			if tt.ok {
				assert.Equal(t, tt.min, lo)
				assert.Equal(t, tt.max, hi)
			}
		})
	}
}

func TestMax_AcrossBlocks(t *testing.T) {
	x := make([]uint8, 5*BlockSize)
	x[4*BlockSize+17] = 200
	for _, b := range backends() {
		got, ok, err := Max(b, x)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, uint8(200), got)
	}
}

func TestCount(t *testing.T) {
	x := make([]uint8, 2*BlockSize+1)
	for i := range x {
		x[i] = uint8(i % 4)
	}
	for _, b := range backends() {
		got, err := Count(b, x, 3)
		require.NoError(t, err)
		assert.Equal(t, (2*BlockSize)/4, got)
	}
	flags := []bool{true, false, true, true}
	n, err := CountTrue(Serial{}, flags)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestBincount(t *testing.T) {
	x := make([]int32, 3*BlockSize)
	for i := range x {
		x[i] = int32(i % 5)
	}
	for _, b := range backends() {
		got, err := Bincount(b, x, 5)
		require.NoError(t, err)
		assert.Equal(t, []int64{2458, 2458, 2458, 2457, 2457}, got)
	}
}

func TestBincount_OutOfRange(t *testing.T) {
	_, err := Bincount(Serial{}, []int32{0, 1, 7}, 3)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = Bincount(Serial{}, []int32{-1}, 3)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestApply(t *testing.T) {
	x := []float64{1, 2, 3}
	y := []float64{4, 1, 3}
	tests := []struct {
		op   ElemOp
		want []float64
	}{
		{OpAdd, []float64{5, 3, 6}},
		{OpSub, []float64{-3, 1, 0}},
		{OpMul, []float64{4, 2, 9}},
		{OpMin, []float64{1, 1, 3}},
		{OpMax, []float64{4, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			dst := make([]float64, 3)
			require.NoError(t, Apply(Serial{}, tt.op, dst, x, y))
			assert.Equal(t, tt.want, dst)
		})
	}
}

func TestApply_Errors(t *testing.T) {
	err := Apply(Serial{}, OpAdd, make([]int32, 2), []int32{1, 2}, []int32{1})
	assert.ErrorIs(t, err, ErrLengthMismatch)

	err = Apply(Serial{}, ElemOp("pow"), make([]int32, 1), []int32{1}, []int32{1})
	assert.ErrorIs(t, err, ErrUnknownOp)
}

func TestApply_InPlace(t *testing.T) {
	x := make([]int64, 2*BlockSize)
	ones := make([]int64, len(x))
	require.NoError(t, Fill(NewParallel(3), ones, 1))
	require.NoError(t, Apply(NewParallel(3), OpAdd, x, x, ones))
	total, err := SumInt(Serial{}, x)
	require.NoError(t, err)
	assert.Equal(t, int64(len(x)), total)
}

func TestReduce(t *testing.T) {
	ints := []int32{4, -2, 9}
	sum, err := Reduce(Serial{}, OpSum, ints)
	require.NoError(t, err)
	assert.Equal(t, 11.0, sum)

	floats := []float32{0.5, 0.25}
	sum, err = Reduce(Serial{}, OpSum, floats)
	require.NoError(t, err)
	assert.Equal(t, 0.75, sum)

	lo, err := Reduce(Serial{}, OpMinimum, ints)
	require.NoError(t, err)
	assert.Equal(t, -2.0, lo)

	hi, err := Reduce(Serial{}, OpMaximum, ints)
	require.NoError(t, err)
	assert.Equal(t, 9.0, hi)

	_, err = Reduce(Serial{}, ReduceOp("median"), ints)
	assert.ErrorIs(t, err, ErrUnknownOp)
}

func TestByName(t *testing.T) {
	b, err := ByName("", 0)
	require.NoError(t, err)
	assert.Equal(t, "serial", b.Name())

	b, err = ByName("parallel", 3)
	require.NoError(t, err)
	assert.Equal(t, "parallel", b.Name())
	assert.Equal(t, 3, b.(*Parallel).Workers)

	_, err = ByName("gpu", 0)
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestNumBlocks(t *testing.T) {
	assert.Equal(t, 0, NumBlocks(0))
	assert.Equal(t, 1, NumBlocks(1))
	assert.Equal(t, 1, NumBlocks(BlockSize))
	assert.Equal(t, 2, NumBlocks(BlockSize+1))
}
