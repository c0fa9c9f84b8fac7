// Package countdown implements the total remaining time of a HIIT session.
package countdown

import (
	"fmt"

	"github.com/osa030/hiitbox/internal/domain/workout"
)

// State is a copy of the countdown's observable fields.
type State struct {
	RemainingSeconds int
	Running          bool
}

// Countdown counts the whole session down to zero, one second per tick.
// Not goroutine-safe.
type Countdown struct {
	remaining int
	running   bool
}

// New creates a stopped countdown at zero.
func New() *Countdown {
	return &Countdown{}
}

// Init sets the remaining time from cfg and starts counting.
// Called once per fresh session start.
func (c *Countdown) Init(cfg workout.Configuration) {
	c.remaining = cfg.TotalSeconds()
	c.running = true
}

// Resume continues counting from the current remaining time.
func (c *Countdown) Resume() {
	if c.remaining > 0 {
		c.running = true
	}
}

// Stop stops counting and keeps the remaining time.
func (c *Countdown) Stop() { c.running = false }

// Clear stops counting and sets the remaining time to zero.
func (c *Countdown) Clear() {
	c.running = false
	c.remaining = 0
}

// Running returns true while the countdown accepts ticks.
func (c *Countdown) Running() bool { return c.running }

// State returns the current countdown state.
func (c *Countdown) State() State {
	return State{RemainingSeconds: c.remaining, Running: c.running}
}

// Tick removes one second. It returns EventCountdownFinished and stops
// once the remaining time is zero or less.
func (c *Countdown) Tick() workout.Event {
	if !c.running {
		return workout.Event{Type: workout.EventNone}
	}

	c.remaining--
	if c.remaining <= 0 {
		c.running = false
		return workout.Event{Type: workout.EventCountdownFinished}
	}
	return workout.Event{Type: workout.EventNone}
}

// Label returns the remaining time as "m : ss".
func (c *Countdown) Label() string {
	return FormatRemaining(c.remaining)
}

// FormatRemaining formats seconds as "m : ss". Negative values display as zero.
func FormatRemaining(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d : %02d", (seconds/60)%60, seconds%60)
}
