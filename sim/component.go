package sim

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/laser-sim/laser/sim/capacity"
	"github.com/laser-sim/laser/sim/frame"
	"github.com/laser-sim/laser/sim/trace"
)

// Component is a per-tick model update. Components run in order after the
// tick's due transitions have been applied.
type Component interface {
	Name() string
	Step(sim *Simulator, tick int64) error
}

// VitalDynamics adds susceptible newborns to each node at a constant crude
// birth rate.
type VitalDynamics struct {
	daily float64 // births per person per tick
	rng   *rand.Rand
}

// NewVitalDynamics converts an annual crude birth rate per 1,000 into a
// daily per-capita rate.
func NewVitalDynamics(cbr float64, rng *rand.Rand) *VitalDynamics {
	return &VitalDynamics{daily: cbr / 1000 / capacity.DaysPerYear, rng: rng}
}

// Name implements Component.
func (v *VitalDynamics) Name() string { return "vital_dynamics" }

// Step draws a Poisson number of births per node from its current size.
func (v *VitalDynamics) Step(sim *Simulator, tick int64) error {
	sizes, err := frame.Bincount[int32](sim.Pop.Frame, ColNodeID, sim.Pop.Nodes)
	if err != nil {
		return err
	}
	for node, size := range sizes {
		lambda := float64(size) * v.daily
		if lambda <= 0 {
			continue
		}
		births := int(distuv.Poisson{Lambda: lambda, Src: v.rng}.Rand())
		if births == 0 {
			continue
		}
		if _, _, err := sim.Pop.Add(int32(node), births, Susceptible); err != nil {
			return err
		}
		sim.Metrics.Births += int64(births)
		if sim.Trace != nil {
			sim.Trace.RecordBirths(trace.BirthRecord{Tick: tick, Node: int32(node), Count: births})
		}
	}
	return nil
}

// Census records compartment totals every tick.
type Census struct {
	Ticks  []int64
	Counts [][NumStates]int64
}

// Name implements Component.
func (c *Census) Name() string { return "census" }

// Step appends the tick's S/E/I/R totals.
func (c *Census) Step(sim *Simulator, tick int64) error {
	bins, err := frame.Bincount[uint8](sim.Pop.Frame, ColState, NumStates)
	if err != nil {
		return err
	}
	var row [NumStates]int64
	copy(row[:], bins)
	c.Ticks = append(c.Ticks, tick)
	c.Counts = append(c.Counts, row)
	return nil
}

// Last returns the most recent totals.
func (c *Census) Last() (tick int64, counts [NumStates]int64, ok bool) {
	if len(c.Ticks) == 0 {
		return 0, counts, false
	}
	i := len(c.Ticks) - 1
	return c.Ticks[i], c.Counts[i], true
}
