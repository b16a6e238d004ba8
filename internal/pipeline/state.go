package pipeline

// State is a step of the run protocol.
type State uint8

const (
	StateIdle State = iota
	StateBackedUp
	StateRunning
	StateValidated
	StateCommitted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBackedUp:
		return "backed_up"
	case StateRunning:
		return "running"
	case StateValidated:
		return "validated"
	case StateCommitted:
		return "committed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool { return s == StateCommitted || s == StateFailed }

// Machine tracks one run. The zero value is idle.
type Machine struct {
	state State
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Transition moves to next. Stages never run before a backup exists and the
// file is never committed before validation passes; any other move is a
// TransitionError.
func (m *Machine) Transition(next State) error {
	if !allowed(m.state, next) {
		return &TransitionError{From: m.state, To: next}
	}
	m.state = next
	return nil
}

func allowed(from, to State) bool {
	if to == StateFailed {
		return !from.Terminal()
	}
	switch from {
	case StateIdle:
		return to == StateBackedUp
	case StateBackedUp:
		return to == StateRunning
	case StateRunning:
		return to == StateValidated
	case StateValidated:
		return to == StateCommitted
	default:
		return false
	}
}
