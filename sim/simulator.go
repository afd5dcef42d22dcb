package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/laser-sim/laser/sim/accel"
	"github.com/laser-sim/laser/sim/frame"
	"github.com/laser-sim/laser/sim/queue"
	"github.com/laser-sim/laser/sim/scenario"
	"github.com/laser-sim/laser/sim/snapshot"
	"github.com/laser-sim/laser/sim/trace"
)

// Simulator holds simulation time, the agent population and the tick loop.
type Simulator struct {
	Clock  int64
	Config Config
	RunID  string

	Pop *Population
	// Queue holds pending transitions keyed by the tick they fire on.
	Queue      *queue.TickQueue[Transition]
	Components []Component
	Metrics    *Metrics
	// Trace records transitions and births; nil when tracing is off.
	Trace *trace.SimulationTrace

	rng        *PartitionedRNG
	incubation distuv.Gamma
	infectious distuv.Gamma
}

// NewSimulator builds the population for table and schedules the pending
// transitions of every agent that starts exposed or infectious.
func NewSimulator(cfg Config, table *scenario.Table) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	backend, err := accel.ByName(cfg.Backend, cfg.Workers)
	if err != nil {
		return nil, err
	}
	opts := []frame.Option{frame.WithBackend(backend)}
	if cfg.MemoryLimit > 0 {
		opts = append(opts, frame.WithMemoryLimit(cfg.MemoryLimit))
	}
	pop, err := NewPopulation(table, cfg, opts...)
	if err != nil {
		return nil, err
	}

	runID := cfg.RunID
	if runID == "" {
		runID = snapshot.NewRunID()
	}
	rng := NewPartitionedRNG(NewSimulationKey(cfg.Seed))
	disease := rng.ForSubsystem(SubsystemDisease)
	census := &Census{}
	s := &Simulator{
		Config:     cfg,
		RunID:      runID,
		Pop:        pop,
		Queue:      queue.NewTickQueue[Transition](int(4 * max(cfg.IncubationMean, cfg.InfectiousMean))),
		Metrics:    &Metrics{Census: census},
		rng:        rng,
		incubation: durationDist(cfg.IncubationMean, cfg.DurationShape, disease),
		infectious: durationDist(cfg.InfectiousMean, cfg.DurationShape, disease),
	}
	if trace.Enabled(cfg.Trace) {
		s.Trace = trace.NewSimulationTrace(trace.TraceLevel(cfg.Trace))
	}
	if cfg.CBR > 0 {
		s.Components = append(s.Components, NewVitalDynamics(cfg.CBR, rng.ForSubsystem(SubsystemVital)))
	}
	s.Components = append(s.Components, census)

	if err := s.seedTransitions(); err != nil {
		return nil, err
	}
	return s, nil
}

func (sim *Simulator) seedTransitions() error {
	states := sim.Pop.States()
	for i := 0; i < sim.Pop.Count(); i++ {
		var err error
		switch State(states[i]) {
		case Exposed:
			err = sim.scheduleAfter(int32(i), Infectious, sim.incubation, sim.Clock)
		case Infectious:
			err = sim.scheduleAfter(int32(i), Recovered, sim.infectious, sim.Clock)
		}
		if err != nil {
			return err
		}
	}
	logrus.Infof("scheduled %d initial transitions", sim.Queue.Len())
	return nil
}

// scheduleAfter queues a transition of agent to `to` a drawn number of ticks
// after now and records that tick in the agent's timer. Timers past the int32
// range saturate; such transitions lie beyond any valid run.
func (sim *Simulator) scheduleAfter(agent int32, to State, d distuv.Gamma, now int64) error {
	at := now + drawTicks(d)
	sim.Pop.Timers()[agent] = int32(min(at, math.MaxInt32))
	return sim.Schedule(at, Transition{Agent: agent, To: to})
}

// Schedule queues a transition for tick, which must not be in the past.
func (sim *Simulator) Schedule(tick int64, tr Transition) error {
	return sim.Queue.Push(tick, tr)
}

// Step simulates one tick: due transitions are drained and applied, then
// every component runs, then the clock advances.
func (sim *Simulator) Step() error {
	tick := sim.Clock
	due, err := sim.Queue.PopDue(tick)
	if err != nil {
		return err
	}
	for _, tr := range due {
		if err := tr.Apply(sim, tick); err != nil {
			return err
		}
	}
	sim.Metrics.Transitions += int64(len(due))

	for _, c := range sim.Components {
		if err := c.Step(sim, tick); err != nil {
			return fmt.Errorf("%s at tick %d: %w", c.Name(), tick, err)
		}
	}
	sim.Metrics.PeakPending = max(sim.Metrics.PeakPending, sim.Queue.Len())
	logrus.Debugf("[tick %07d] %d transitions, %d agents, %d pending", tick, len(due), sim.Pop.Count(), sim.Queue.Len())
	sim.Clock++
	return nil
}

// Run steps until Config.Ticks ticks have been simulated or ctx is done,
// then writes the configured snapshot.
func (sim *Simulator) Run(ctx context.Context) error {
	logrus.Infof("run %s: %d nodes, %d agents, capacity %d, backend %s, %d ticks",
		sim.RunID, sim.Pop.Nodes, sim.Pop.Count(), sim.Pop.Frame.Capacity(), sim.Pop.Frame.Backend().Name(), sim.Config.Ticks)
	for sim.Clock < sim.Config.Ticks {
		if err := ctx.Err(); err != nil {
			sim.Metrics.EndTick = sim.Clock
			return err
		}
		if err := sim.Step(); err != nil {
			sim.Metrics.EndTick = sim.Clock
			return err
		}
	}
	sim.Metrics.EndTick = sim.Clock
	logrus.Infof("[tick %07d] Simulation ended", sim.Clock)

	if sim.Config.SnapshotPath != "" {
		h, err := snapshot.Save(sim.Config.SnapshotPath, sim.Pop.Frame, sim.RunID, sim.Clock)
		if err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
		logrus.Infof("snapshot %s: %d agents, %d columns", sim.Config.SnapshotPath, h.Count, len(h.Columns))
	}
	return nil
}
