// Package interval implements the phase/cycle clock of a HIIT session.
//
// Clock is not goroutine-safe. It is owned by a session, which serializes
// every call under its own lock.
package interval

import (
	"fmt"

	"github.com/osa030/hiitbox/internal/domain/workout"
)

// State is a copy of the clock's observable fields.
type State struct {
	Phase          workout.Phase
	ElapsedInPhase int
	CycleIndex     int
	Running        bool
}

// Clock tracks elapsed seconds within the current phase and completed cycles.
type Clock struct {
	phase      workout.Phase
	elapsed    int
	cycleIndex int
	running    bool
	completed  bool
}

// New creates a stopped clock at the start of the first high intensity phase.
func New() *Clock {
	return &Clock{phase: workout.PhaseHighIntensity}
}

// Start marks the clock as running. Position is kept.
// A completed clock stays stopped until Reset.
func (c *Clock) Start() { c.running = !c.completed }

// Stop marks the clock as stopped. Position is kept.
func (c *Clock) Stop() { c.running = false }

// Reset stops the clock and rewinds it to the first high intensity phase.
func (c *Clock) Reset() {
	c.running = false
	c.completed = false
	c.phase = workout.PhaseHighIntensity
	c.elapsed = 0
	c.cycleIndex = 0
}

// Running returns true while the clock accepts ticks.
func (c *Clock) Running() bool { return c.running }

// Completed returns true once the last cycle has ended.
func (c *Clock) Completed() bool { return c.completed }

// State returns the current clock state.
func (c *Clock) State() State {
	return State{
		Phase:          c.phase,
		ElapsedInPhase: c.elapsed,
		CycleIndex:     c.cycleIndex,
		Running:        c.running,
	}
}

// Tick advances the clock by one second and returns the transition it caused.
// Durations are read from cfg on every call, so a configuration change
// applies from the next tick on.
func (c *Clock) Tick(cfg workout.Configuration) workout.Event {
	if !c.running {
		return workout.Event{Type: workout.EventNone}
	}

	c.elapsed++

	// >= instead of == keeps a phase finite when its duration is shortened mid-phase.
	if c.phase == workout.PhaseHighIntensity && c.elapsed >= cfg.HighIntensitySeconds {
		c.phase = workout.PhaseLowIntensity
		c.elapsed = 0
		return workout.Event{
			Type:       workout.EventPhaseEnded,
			Phase:      workout.PhaseHighIntensity,
			CycleIndex: c.cycleIndex,
		}
	}

	if c.phase == workout.PhaseLowIntensity && c.elapsed >= cfg.LowIntensitySeconds {
		c.cycleIndex++
		if c.cycleIndex >= cfg.CycleCount {
			c.running = false
			c.completed = true
			return workout.Event{Type: workout.EventSessionCompleted, CycleIndex: c.cycleIndex}
		}
		c.phase = workout.PhaseHighIntensity
		c.elapsed = 0
		return workout.Event{Type: workout.EventCycleEnded, CycleIndex: c.cycleIndex}
	}

	return workout.Event{Type: workout.EventNone, CycleIndex: c.cycleIndex}
}

// Label returns the elapsed time in the current phase as "mm:ss".
func (c *Clock) Label() string {
	return FormatElapsed(c.elapsed)
}

// FormatElapsed formats seconds as zero-padded "mm:ss".
func FormatElapsed(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
