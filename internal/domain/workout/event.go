package workout

// EventType represents a session event type.
type EventType int

const (
	EventNone              EventType = iota // Nothing happened
	EventPhaseEnded                         // A phase reached its configured duration
	EventCycleEnded                         // A low intensity phase ended and another cycle follows
	EventSessionCompleted                   // The last cycle's low intensity phase ended
	EventCountdownFinished                  // The total session countdown reached zero
	EventStarted                            // Start command applied
	EventPaused                             // Pause command applied
	EventReset                              // Reset command applied
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventNone:
		return "none"
	case EventPhaseEnded:
		return "phase_ended"
	case EventCycleEnded:
		return "cycle_ended"
	case EventSessionCompleted:
		return "session_completed"
	case EventCountdownFinished:
		return "countdown_finished"
	case EventStarted:
		return "started"
	case EventPaused:
		return "paused"
	case EventReset:
		return "reset"
	default:
		return "unknown"
	}
}

// IsCommand returns true for events caused by a user command.
func (e EventType) IsCommand() bool {
	return e == EventStarted || e == EventPaused || e == EventReset
}

// Event represents something that happened during a session.
type Event struct {
	Type       EventType
	Phase      Phase // Phase that ended (EventPhaseEnded only)
	CycleIndex int   // Completed cycles at the time of the event
}
