package runner

import "fmt"

// State is a step of one run
type State int

const (
	StateIdle State = iota
	StateCollecting
	StateBuilt
	StateSubmitting
	StateSummarized
	StateFailed
)

var stateNames = map[State]string{
	StateIdle:       "Idle",
	StateCollecting: "Collecting",
	StateBuilt:      "Built",
	StateSubmitting: "Submitting",
	StateSummarized: "Summarized",
	StateFailed:     "Failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// transitions lists the states reachable from each state
var transitions = map[State][]State{
	StateIdle:       {StateCollecting},
	StateCollecting: {StateBuilt, StateFailed},
	StateBuilt:      {StateSubmitting},
	StateSubmitting: {StateSummarized, StateFailed},
}

// CanTransition reports whether to is reachable from s in one step
func (s State) CanTransition(to State) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible
func (s State) Terminal() bool {
	return len(transitions[s]) == 0
}
