package sim

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/laser-sim/laser/sim/trace"
)

// Transition moves an agent to a new compartment when its tick comes due.
type Transition struct {
	Agent int32 // row in the population frame
	To    State
}

// Apply writes the agent's new state. Becoming infectious schedules the
// agent's recovery after a drawn infectious period.
func (tr Transition) Apply(sim *Simulator, tick int64) error {
	if tr.Agent < 0 || int(tr.Agent) >= sim.Pop.Count() {
		return fmt.Errorf("%w: transition for agent %d, %d active", ErrConfig, tr.Agent, sim.Pop.Count())
	}
	from := State(sim.Pop.States()[tr.Agent])
	logrus.Tracef("[tick %07d] agent %d %s -> %s", tick, tr.Agent, from, tr.To)
	if sim.Trace != nil {
		sim.Trace.RecordTransition(trace.TransitionRecord{
			Tick:  tick,
			Agent: tr.Agent,
			Node:  sim.Pop.NodeIDs()[tr.Agent],
			From:  from.String(),
			To:    tr.To.String(),
		})
	}
	sim.Pop.States()[tr.Agent] = uint8(tr.To)
	if tr.To == Infectious {
		return sim.scheduleAfter(tr.Agent, Recovered, sim.infectious, tick)
	}
	sim.Pop.Timers()[tr.Agent] = -1
	return nil
}

// durationDist is a gamma period with the given mean and shape.
func durationDist(mean, shape float64, src rand.Source) distuv.Gamma {
	return distuv.Gamma{Alpha: shape, Beta: shape / mean, Src: src}
}

// drawTicks rounds a drawn period to whole ticks, at least one.
func drawTicks(d distuv.Gamma) int64 {
	return max(1, int64(math.Round(d.Rand())))
}
