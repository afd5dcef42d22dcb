package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/laser-sim/laser/sim/capacity"
	"github.com/laser-sim/laser/sim/frame"
	"github.com/laser-sim/laser/sim/scenario"
)

// Agent column names.
const (
	ColNodeID = "nodeid"
	ColState  = "state"
	ColTimer  = "timer" // tick of the agent's next scheduled transition, -1 if none
)

// Population is the agent frame plus cached views of its columns.
// The views are rebound whenever the frame grows.
type Population struct {
	Frame      *frame.Frame
	Nodes      int
	Capacities []int64 // per-node estimates the frame was sized from

	nodeID []int32
	state  []uint8
	timer  []int32
}

// NewPopulation sizes a frame for t over cfg.Ticks of births and activates
// one agent per person, in node order, with the state counts of t.
func NewPopulation(t *scenario.Table, cfg Config, opts ...frame.Option) (*Population, error) {
	ticks := max(int(cfg.Ticks), 1)
	rates := make([]float64, t.Len())
	for i := range rates {
		rates[i] = cfg.CBR
	}
	caps, err := capacity.CalcCapacity(capacity.Broadcast(rates, ticks), t.Population, cfg.SafetyFactor)
	if err != nil {
		return nil, err
	}

	f, err := frame.New(int(capacity.Total(caps)), opts...)
	if err != nil {
		return nil, err
	}
	if err := frame.AddScalar[int32](f, ColNodeID, -1); err != nil {
		return nil, err
	}
	if err := frame.AddScalar[uint8](f, ColState, uint8(Susceptible)); err != nil {
		return nil, err
	}
	if err := frame.AddScalar[int32](f, ColTimer, -1); err != nil {
		return nil, err
	}

	p := &Population{Frame: f, Nodes: t.Len(), Capacities: caps}
	if err := p.bind(); err != nil {
		return nil, err
	}

	states := make([]State, len(t.States))
	for i, name := range t.States {
		if states[i], err = ParseState(name); err != nil {
			return nil, err
		}
	}
	for node := 0; node < t.Len(); node++ {
		var placed int64
		for i, name := range t.States {
			counts, _ := t.State(name)
			if _, _, err := p.Add(int32(node), int(counts[node]), states[i]); err != nil {
				return nil, err
			}
			placed += counts[node]
		}
		if placed != t.Population[node] {
			return nil, fmt.Errorf("%w: node %d state counts sum to %d, population is %d",
				ErrConfig, node, placed, t.Population[node])
		}
	}
	logrus.Infof("population: %d agents in %d nodes, capacity %d", f.Count(), p.Nodes, f.Capacity())
	return p, nil
}

func (p *Population) bind() (err error) {
	if p.nodeID, err = frame.Scalar[int32](p.Frame, ColNodeID); err != nil {
		return err
	}
	if p.state, err = frame.Scalar[uint8](p.Frame, ColState); err != nil {
		return err
	}
	p.timer, err = frame.Scalar[int32](p.Frame, ColTimer)
	return err
}

// Count returns the number of active agents.
func (p *Population) Count() int { return p.Frame.Count() }

// NodeIDs returns the live node id column. Invalidated by growth.
func (p *Population) NodeIDs() []int32 { return p.nodeID }

// States returns the live state column. Invalidated by growth.
func (p *Population) States() []uint8 { return p.state }

// Timers returns the live timer column. Invalidated by growth.
func (p *Population) Timers() []int32 { return p.timer }

// Grow extends the frame by at least additional rows and rebinds the views.
func (p *Population) Grow(additional int) error {
	before := p.Frame.Capacity()
	if _, err := p.Frame.Grow(max(additional, before/16)); err != nil {
		return err
	}
	logrus.Infof("population: capacity %d -> %d", before, p.Frame.Capacity())
	return p.bind()
}

// Add activates n agents in node with state s, growing the frame first if
// it is full, and returns the new rows [start, end).
func (p *Population) Add(node int32, n int, s State) (start, end int, err error) {
	if free := p.Frame.Capacity() - p.Frame.Count(); n > free {
		if err := p.Grow(n - free); err != nil {
			return p.Count(), p.Count(), err
		}
	}
	if start, end, err = p.Frame.Activate(n); err != nil {
		return start, end, err
	}
	for i := start; i < end; i++ {
		p.nodeID[i] = node
		p.state[i] = uint8(s)
		p.timer[i] = -1
	}
	return start, end, nil
}
