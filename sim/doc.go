// Package sim drives a compartmental agent simulation over the LASER runtime
// core.
//
// # Reading Guide
//
// Start with these files to understand the driver:
//   - population.go: builds the agent frame from a scenario node table
//   - event.go: scheduled state transitions and how they apply
//   - simulator.go: the tick loop (drain, apply, components, advance)
//
// # Architecture
//
// The runtime core lives in sub-packages:
//   - sim/frame/: columnar entity store with atomic growth
//   - sim/queue/: tick-bucketed event scheduler (ring and heap backends)
//   - sim/accel/: block-partitioned kernels with serial and parallel backends
//   - sim/params/: parameter bags loaded from YAML or TOML
//   - sim/scenario/: grid scenarios and initial state assignment
//   - sim/capacity/: per-node capacity estimates from birth rates
//   - sim/snapshot/: compressed frame snapshots
//
// # Key Interfaces
//
//   - Component: per-tick update run after due transitions are applied
//   - queue.Scheduler: pending transitions keyed by tick
//   - accel.Backend: executes kernels over blocks of agents
package sim
