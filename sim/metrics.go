package sim

import (
	"fmt"
	"io"
)

// Metrics aggregates run statistics for final reporting.
type Metrics struct {
	Transitions int64 // transitions applied
	Births      int64 // agents added by vital dynamics
	PeakPending int   // most transitions pending at the end of a tick
	EndTick     int64 // first tick not simulated
	Census      *Census
}

// Print writes the run summary and final compartment totals.
func (m *Metrics) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Simulation Metrics ===")
	fmt.Fprintf(w, "Ticks Simulated      : %d\n", m.EndTick)
	fmt.Fprintf(w, "Transitions Applied  : %d\n", m.Transitions)
	fmt.Fprintf(w, "Births               : %d\n", m.Births)
	fmt.Fprintf(w, "Peak Pending         : %d\n", m.PeakPending)
	if m.Census == nil {
		return
	}
	if tick, counts, ok := m.Census.Last(); ok {
		var total int64
		for _, c := range counts {
			total += c
		}
		fmt.Fprintf(w, "Census at tick %-6d: total=%d", tick, total)
		for s, c := range counts {
			fmt.Fprintf(w, " %s=%d", State(s), c)
		}
		fmt.Fprintln(w)
	}
}

// WriteCSV writes the census series as tick,S,E,I,R rows.
func (m *Metrics) WriteCSV(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "tick,S,E,I,R"); err != nil {
		return err
	}
	if m.Census == nil {
		return nil
	}
	for i, tick := range m.Census.Ticks {
		c := m.Census.Counts[i]
		if _, err := fmt.Fprintf(w, "%d,%d,%d,%d,%d\n", tick, c[0], c[1], c[2], c[3]); err != nil {
			return err
		}
	}
	return nil
}
