// Package scenario builds synthetic spatial populations: a rectangular grid of
// nodes with a population and one count column per epidemiological state.
package scenario

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultStates are the state columns Grid creates when none are given.
var DefaultStates = []string{"S", "E", "I", "R"}

// ErrValidation matches any *ValidationError.
var ErrValidation = errors.New("scenario: validation failed")

// ValidationError names the offending parameter of a rejected call.
type ValidationError struct {
	Param string
	Msg   string
}

func (e *ValidationError) Error() string { return e.Msg }

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(param, format string, args ...any) error {
	return &ValidationError{Param: param, Msg: fmt.Sprintf(format, args...)}
}

// PopulationFn returns the population of the cell at (row, col).
type PopulationFn func(row, col int) int64

// GridConfig describes an M x N grid of square cells.
type GridConfig struct {
	M            int          // rows (>= 1)
	N            int          // columns (>= 1)
	NodeSizeDegs float64      // cell edge in degrees, (0, 1]
	PopulationFn PopulationFn // nil draws uniform populations in [1_000, 100_000)
	OriginX      float64      // longitude of the lower left corner, [-180, 180)
	OriginY      float64      // latitude of the lower left corner, [-90, 90)
	States       []string     // state columns, DefaultStates when empty
	Seed         uint64       // seed for the default population draw
	Src          rand.Source  // stream for the default population draw, overrides Seed
}

// DefaultGridConfig returns a 5x5 grid of 0.04 degree cells at the origin.
func DefaultGridConfig() GridConfig {
	return GridConfig{
		M:            5,
		N:            5,
		NodeSizeDegs: 0.04,
		States:       DefaultStates,
	}
}

// Grid builds a table with one row per cell. Node ids are assigned row-major,
// so cell (row, col) is node row*N+col, and row 0 is the southern edge. The
// first state column starts equal to the population, all others at zero.
func Grid(cfg GridConfig) (*Table, error) {
	if cfg.M < 1 {
		return nil, invalid("M", "M must be >= 1")
	}
	if cfg.N < 1 {
		return nil, invalid("N", "N must be >= 1")
	}
	if cfg.NodeSizeDegs <= 0 {
		return nil, invalid("node_size_degs", "node_size_degs must be > 0")
	}
	if cfg.NodeSizeDegs > 1.0 {
		return nil, invalid("node_size_degs", "node_size_degs must be <= 1.0")
	}
	if cfg.OriginX < -180 || cfg.OriginX >= 180 {
		return nil, invalid("origin_x", "origin_x must be -180 <= origin_x < 180")
	}
	if cfg.OriginY < -90 || cfg.OriginY >= 90 {
		return nil, invalid("origin_y", "origin_y must be -90 <= origin_y < 90")
	}
	states := cfg.States
	if len(states) == 0 {
		states = DefaultStates
	}
	if err := checkStates(states); err != nil {
		return nil, err
	}

	popFn := cfg.PopulationFn
	if popFn == nil {
		src := cfg.Src
		if src == nil {
			src = rand.NewPCG(cfg.Seed, 0x5eed)
		}
		u := distuv.Uniform{Min: 1_000, Max: 100_000, Src: src}
		popFn = func(int, int) int64 { return int64(u.Rand()) }
	}

	n := cfg.M * cfg.N
	t := &Table{
		NodeID:     make([]int32, n),
		Population: make([]int64, n),
		Geometry:   make([]Polygon, n),
		States:     append([]string(nil), states...),
		counts:     make(map[string][]int64, len(states)),
	}
	size := cfg.NodeSizeDegs
	for row := 0; row < cfg.M; row++ {
		for col := 0; col < cfg.N; col++ {
			pop := popFn(row, col)
			if pop < 0 {
				return nil, invalid("population_fn", "population_fn returned negative population %d for row %d, col %d", pop, row, col)
			}
			id := row*cfg.N + col
			x0 := cfg.OriginX + float64(col)*size
			y0 := cfg.OriginY + float64(row)*size
			x1, y1 := x0+size, y0+size
			t.NodeID[id] = int32(id)
			t.Population[id] = pop
			t.Geometry[id] = Polygon{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}, {x0, y0}}
		}
	}
	for i, s := range states {
		col := make([]int64, n)
		if i == 0 {
			copy(col, t.Population)
		}
		t.counts[s] = col
	}
	return t, nil
}

func checkStates(states []string) error {
	seen := make(map[string]bool, len(states))
	for _, s := range states {
		if s == "" {
			return invalid("states", "state names must be non-empty")
		}
		if seen[s] {
			return invalid("states", "duplicate state %q", s)
		}
		seen[s] = true
	}
	return nil
}
