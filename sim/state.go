package sim

import "fmt"

// State is an agent's disease compartment, stored in the state column.
type State uint8

const (
	Susceptible State = iota
	Exposed
	Infectious
	Recovered

	// NumStates is the number of compartments.
	NumStates = 4
)

var stateNames = [NumStates]string{"S", "E", "I", "R"}

// String returns the short compartment name.
func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// ParseState maps a scenario state column name to its compartment.
func ParseState(name string) (State, error) {
	for i, n := range stateNames {
		if n == name {
			return State(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown state %q", ErrConfig, name)
}
