package session

// State represents the session control state.
type State int

const (
	StateIdle    State = iota // Not started, reset, or ran to completion
	StateRunning              // Heartbeat is advancing the clocks
	StatePaused               // Stopped with position kept
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// UpdateKind represents the kind of session update.
type UpdateKind int

const (
	UpdateTick       UpdateKind = iota // One heartbeat was applied
	UpdateTransition                   // A clock emitted a transition event
	UpdateCommand                      // Start, pause or reset was applied
	UpdateCompleted                    // Both clocks stopped on their own
)

// String returns the string representation of the update kind.
func (k UpdateKind) String() string {
	switch k {
	case UpdateTick:
		return "tick"
	case UpdateTransition:
		return "transition"
	case UpdateCommand:
		return "command"
	case UpdateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}
