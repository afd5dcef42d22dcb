package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalTransitions int
	TotalBirths      int
	FirstTick        int64
	LastTick         int64
	ByEdge           map[string]int // "E->I" style edge -> count
	NodeActivity     map[int32]int  // node -> transitions in that node
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		ByEdge:       make(map[string]int),
		NodeActivity: make(map[int32]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalTransitions = len(st.Transitions)
	for i, r := range st.Transitions {
		summary.ByEdge[r.From+"->"+r.To]++
		summary.NodeActivity[r.Node]++
		if i == 0 || r.Tick < summary.FirstTick {
			summary.FirstTick = r.Tick
		}
		if r.Tick > summary.LastTick {
			summary.LastTick = r.Tick
		}
	}
	for _, b := range st.Births {
		summary.TotalBirths += b.Count
	}

	return summary
}
