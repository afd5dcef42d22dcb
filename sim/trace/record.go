// Package trace records agent transitions and births for post-run analysis.
// This package has no dependencies on sim/ and stores pure data types.
package trace

// TransitionRecord captures one applied compartment transition.
type TransitionRecord struct {
	Tick  int64
	Agent int32
	Node  int32
	From  string
	To    string
}

// BirthRecord captures the newborns added to one node on one tick.
type BirthRecord struct {
	Tick  int64
	Node  int32
	Count int
}
