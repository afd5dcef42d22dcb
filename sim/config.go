package sim

import (
	"errors"
	"fmt"
	"math"

	"github.com/laser-sim/laser/sim/accel"
	"github.com/laser-sim/laser/sim/params"
	"github.com/laser-sim/laser/sim/trace"
)

// ErrConfig is returned for invalid run configuration.
var ErrConfig = errors.New("sim: invalid configuration")

// Config groups the run parameters. Field tags are the parameter bag keys.
type Config struct {
	Ticks          int64   `yaml:"ticks"`           // days to simulate
	Seed           int64   `yaml:"seed"`            // master seed for PartitionedRNG
	Backend        string  `yaml:"backend"`         // "serial" (default) or "parallel"
	Workers        int     `yaml:"workers"`         // parallel worker limit (0 = GOMAXPROCS)
	CBR            float64 `yaml:"cbr"`             // crude birth rate, births per 1,000 per year
	SafetyFactor   float64 `yaml:"safety_factor"`   // capacity headroom multiplier on expected growth
	IncubationMean float64 `yaml:"incubation_mean"` // mean E->I period in ticks
	InfectiousMean float64 `yaml:"infectious_mean"` // mean I->R period in ticks
	DurationShape  float64 `yaml:"duration_shape"`  // gamma shape of both periods
	MemoryLimit    int64   `yaml:"memory_limit"`    // frame byte limit (0 = unlimited)
	SnapshotPath   string  `yaml:"snapshot"`        // write a snapshot here after the run (optional)
	RunID          string  `yaml:"run_id"`          // generated when empty
	Trace          string  `yaml:"trace"`           // "none" (default) or "transitions"
}

// DefaultConfig returns the configuration used when no parameters are given.
func DefaultConfig() Config {
	return Config{
		Ticks:          365,
		Seed:           20240101,
		Backend:        "serial",
		CBR:            30,
		SafetyFactor:   1,
		IncubationMean: 4,
		InfectiousMean: 5,
		DurationShape:  4,
	}
}

// ConfigFromBag overlays a parameter bag on DefaultConfig and validates the
// result. Keys the bag does not set keep their defaults.
func ConfigFromBag(b params.Bag) (Config, error) {
	cfg := DefaultConfig()
	if err := b.Decode(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Bag returns the configuration as a parameter bag.
func (c Config) Bag() params.Bag {
	return params.New(map[string]any{
		"ticks":           c.Ticks,
		"seed":            c.Seed,
		"backend":         c.Backend,
		"workers":         c.Workers,
		"cbr":             c.CBR,
		"safety_factor":   c.SafetyFactor,
		"incubation_mean": c.IncubationMean,
		"infectious_mean": c.InfectiousMean,
		"duration_shape":  c.DurationShape,
		"memory_limit":    c.MemoryLimit,
		"snapshot":        c.SnapshotPath,
		"run_id":          c.RunID,
		"trace":           c.Trace,
	})
}

// Validate checks ranges and the backend name.
func (c Config) Validate() error {
	switch {
	case c.Ticks < 0:
		return fmt.Errorf("%w: ticks %d must be >= 0", ErrConfig, c.Ticks)
	case c.Ticks > math.MaxInt32:
		// timers are int32 ticks
		return fmt.Errorf("%w: ticks %d must be <= %d", ErrConfig, c.Ticks, math.MaxInt32)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers %d must be >= 0", ErrConfig, c.Workers)
	case c.CBR < 0:
		return fmt.Errorf("%w: cbr %v must be >= 0", ErrConfig, c.CBR)
	case c.SafetyFactor <= 0:
		return fmt.Errorf("%w: safety_factor %v must be > 0", ErrConfig, c.SafetyFactor)
	case c.IncubationMean <= 0 || c.InfectiousMean <= 0:
		return fmt.Errorf("%w: incubation_mean and infectious_mean must be > 0", ErrConfig)
	case c.DurationShape <= 0:
		return fmt.Errorf("%w: duration_shape %v must be > 0", ErrConfig, c.DurationShape)
	case c.MemoryLimit < 0:
		return fmt.Errorf("%w: memory_limit %d must be >= 0", ErrConfig, c.MemoryLimit)
	}
	if !trace.IsValidTraceLevel(c.Trace) {
		return fmt.Errorf("%w: unknown trace level %q", ErrConfig, c.Trace)
	}
	if _, err := accel.ByName(c.Backend, c.Workers); err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return nil
}
