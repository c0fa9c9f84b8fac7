package notification

import "time"

// Type represents a notification type.
type Type int

const (
	TypeInitialState Type = iota // Sent once to a new subscriber
	TypeTick                     // Sent on every heartbeat
	TypeTransition               // Phase, cycle or session boundary
	TypeCommand                  // Start, pause or reset applied
	TypeCompleted                // Session ran to the end
)

// String returns the string representation of the notification type.
func (t Type) String() string {
	switch t {
	case TypeInitialState:
		return "initial_state"
	case TypeTick:
		return "tick"
	case TypeTransition:
		return "transition"
	case TypeCommand:
		return "command"
	case TypeCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Notification is the message delivered to subscribers.
type Notification struct {
	SequenceNo       uint64
	Type             Type
	Event            string // Event name for transition/command notifications
	SessionID        string
	State            string
	Phase            string
	PhaseLabel       string // "mm:ss" elapsed in phase
	CountdownLabel   string // "m : ss" remaining in session
	ElapsedInPhase   int
	CycleIndex       int
	CycleCount       int
	RemainingSeconds int
	At               time.Time
}
