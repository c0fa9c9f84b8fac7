// Package cue maps session events to named audio cues and plays them
// without blocking the caller.
package cue

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/hiitbox/internal/domain/workout"
)

// Errors
var (
	ErrDeviceBusy = errors.New("audio device busy")
	ErrCueDropped = errors.New("cue dropped")
)

// Cue is a named audio signal with a nominal playback duration.
type Cue struct {
	Name     string
	Duration time.Duration
	Alarm    bool // Alarms are cancelled by pause and reset
}

// Known cues.
var (
	Ping     = Cue{Name: "ping", Duration: 500 * time.Millisecond}
	HIAlarm  = Cue{Name: "HI_Alarm", Duration: 3 * time.Second, Alarm: true}
	LIAlarm  = Cue{Name: "LI_Alarm", Duration: 3 * time.Second, Alarm: true}
	EndAlarm = Cue{Name: "End_Alarm", Duration: 3 * time.Second, Alarm: true}
)

// All returns every known cue.
func All() []Cue {
	return []Cue{Ping, HIAlarm, LIAlarm, EndAlarm}
}

// ForEvent returns the cue played for the given event.
func ForEvent(e workout.Event) (Cue, bool) {
	switch e.Type {
	case workout.EventStarted, workout.EventPaused, workout.EventReset:
		return Ping, true
	case workout.EventPhaseEnded:
		if e.Phase == workout.PhaseHighIntensity {
			return HIAlarm, true
		}
		return Cue{}, false
	case workout.EventCycleEnded:
		return EndAlarm, true
	case workout.EventSessionCompleted:
		return LIAlarm, true
	default:
		return Cue{}, false
	}
}

// Handle identifies one playback started by a Player.
type Handle string

// Player is the audio collaborator. It owns sound lookup and device access.
type Player interface {
	// Play starts the named cue and returns a handle to stop it.
	Play(ctx context.Context, name string) (Handle, error)
	// Stop stops a playback. Stopping a finished playback is not an error.
	Stop(h Handle) error
}
