package scenario

import "math"

// Number is the element type of an initial state array. Integer types are
// read as absolute counts, floating point types as fractions of population.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~float32 | ~float64
}

// fractionTolerance absorbs the rounding of decimal fractions such as
// 0.1+0.2+0.7 when checking that a row sums to at most one.
const fractionTolerance = 1e-12

// InitializePopulation overwrites the state columns of t from initial, which
// holds one row per node (or a single row applied to every node) and one
// column per state.
//
// Integer rows are counts and must sum exactly to the node's population.
// Floating point rows are fractions in [0, 1] summing to at most 1: every
// state except the first gets round(fraction*population), rounding half to
// even, and the first state takes the remainder so rows sum to population.
// Nothing is written unless every row is valid. states defaults to t.States.
func InitializePopulation[T Number](t *Table, initial [][]T, states []string) error {
	if len(states) == 0 {
		states = t.States
	}
	if err := checkStates(states); err != nil {
		return err
	}
	n, s := t.Len(), len(states)
	if len(initial) != 1 && len(initial) != n {
		return invalid("initial", "Initial state array shape (%d, %d) must be (1, %d) or (%d, %d)", len(initial), rowWidth(initial), s, n, s)
	}
	for _, row := range initial {
		if len(row) != s {
			return invalid("initial", "Initial state array shape (%d, %d) must be (1, %d) or (%d, %d)", len(initial), len(row), s, n, s)
		}
	}

	out := make([][]int64, s)
	for j := range out {
		out[j] = make([]int64, n)
	}
	fractional := isFloat[T]()
	for i := 0; i < n; i++ {
		row := initial[0]
		if len(initial) > 1 {
			row = initial[i]
		}
		pop := t.Population[i]
		if fractional {
			if err := fromFractions(row, pop, out, i); err != nil {
				return err
			}
			continue
		}
		var sum int64
		for j, v := range row {
			c := int64(v)
			if v < 0 {
				return invalid("initial", "Initial state counts must be non-negative")
			}
			out[j][i] = c
			sum += c
		}
		if sum != pop {
			return invalid("initial", "Sum of initial states does not equal population at some nodes")
		}
	}

	for j, name := range states {
		if err := t.SetState(name, out[j]); err != nil {
			return err
		}
	}
	return nil
}

func fromFractions[T Number](row []T, pop int64, out [][]int64, i int) error {
	var total float64
	for _, v := range row {
		total += float64(v)
	}
	if total > 1.0+fractionTolerance {
		return invalid("initial", "Initial state proportions sum to more than 1.0 at some nodes")
	}
	rest := pop
	for j := 1; j < len(row); j++ {
		f := float64(row[j])
		if f < 0 || f > 1 {
			return invalid("initial", "Initial state proportions must be in [0, 1]")
		}
		c := int64(math.RoundToEven(f * float64(pop)))
		out[j][i] = c
		rest -= c
	}
	if f := float64(row[0]); f < 0 || f > 1 {
		return invalid("initial", "Initial state proportions must be in [0, 1]")
	}
	if rest < 0 {
		return invalid("initial", "Rounded initial states exceed population at some nodes")
	}
	out[0][i] = rest
	return nil
}

func rowWidth[T any](rows [][]T) int {
	if len(rows) == 0 {
		return 0
	}
	return len(rows[0])
}

func isFloat[T Number]() bool {
	var one T = 1
	return one/2 != 0
}
