package declaration

import "strings"

// State is the lifecycle tag of a declaration.
type State string

const (
	StateDraft      State = "DRAFT"      // Being filled by the declarant
	StatePending    State = "PENDING"    // Validated and waiting in an office pool
	StateInspecting State = "INSPECTING" // Under review by exactly one inspector
	StateApproved   State = "APPROVED"   // Terminal, accepted
	StateRejected   State = "REJECTED"   // Terminal, refused
)

// States lists every lifecycle tag in graph order.
var States = []State{StateDraft, StatePending, StateInspecting, StateApproved, StateRejected}

// ParseState reads a stored state label. Labels are case-insensitive.
func ParseState(label string) (State, bool) {
	s := State(strings.ToUpper(strings.TrimSpace(label)))
	for _, known := range States {
		if s == known {
			return s, true
		}
	}
	return "", false
}

// IsTerminal reports whether no transition leaves the state.
func (s State) IsTerminal() bool {
	return s == StateApproved || s == StateRejected
}

func (s State) String() string {
	return string(s)
}
