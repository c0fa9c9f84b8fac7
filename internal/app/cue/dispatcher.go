package cue

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/hiitbox/internal/domain/workout"
)

// DefaultPlayTimeout bounds how long a single Play call may take.
const DefaultPlayTimeout = 500 * time.Millisecond

// Config holds dispatcher configuration.
type Config struct {
	PlayTimeout time.Duration
}

// activeCue is a cue that is currently playing.
type activeCue struct {
	cue    Cue
	handle Handle
	timer  *time.Timer
}

// generations is bumped by cancellation so plays that were in flight
// at cancel time stop as soon as they start.
type generations struct {
	all    uint64
	alarms uint64
}

// Dispatcher plays cues asynchronously. Failures are logged and dropped.
type Dispatcher struct {
	mu     sync.Mutex
	player Player
	config Config

	active map[uint64]*activeCue
	nextID uint64
	gen    generations

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewDispatcher creates a dispatcher backed by the given player.
func NewDispatcher(player Player, config Config) *Dispatcher {
	if config.PlayTimeout <= 0 {
		config.PlayTimeout = DefaultPlayTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		player: player,
		config: config,
		active: make(map[uint64]*activeCue),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Notify plays the cue for the event. Pause cancels alarms and reset cancels
// every cue before the ping is played. Notify never blocks on the player.
func (d *Dispatcher) Notify(e workout.Event) {
	switch e.Type {
	case workout.EventPaused:
		d.CancelAlarms()
	case workout.EventReset:
		d.CancelAll()
	}

	c, ok := ForEvent(e)
	if !ok {
		return
	}
	d.Play(c)
}

// Play starts the cue in the background.
func (d *Dispatcher) Play(c Cue) {
	d.mu.Lock()
	if d.ctx.Err() != nil {
		d.mu.Unlock()
		return
	}
	gen := d.gen
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		d.play(c, gen)
	}()
}

func (d *Dispatcher) play(c Cue, gen generations) {
	ctx, cancel := context.WithTimeout(d.ctx, d.config.PlayTimeout)
	defer cancel()

	handle, err := d.player.Play(ctx, c.Name)
	if err != nil {
		err = errors.Mark(errors.Wrapf(err, "play %s", c.Name), ErrCueDropped)
		zlog.Warn().Err(err).Msgf("cue: dropped: name=%s", c.Name)
		return
	}

	d.mu.Lock()
	if d.cancelledLocked(c, gen) {
		d.mu.Unlock()
		zlog.Debug().Msgf("cue: cancelled while starting: name=%s", c.Name)
		d.stop(c, handle)
		return
	}

	d.nextID++
	id := d.nextID
	d.active[id] = &activeCue{
		cue:    c,
		handle: handle,
		timer: time.AfterFunc(c.Duration, func() {
			d.finish(id)
		}),
	}
	d.mu.Unlock()

	zlog.Debug().Msgf("cue: playing: name=%s handle=%s duration=%v", c.Name, handle, c.Duration)
}

func (d *Dispatcher) cancelledLocked(c Cue, gen generations) bool {
	if d.ctx.Err() != nil || gen.all != d.gen.all {
		return true
	}
	return c.Alarm && gen.alarms != d.gen.alarms
}

// finish stops a cue whose nominal duration has elapsed.
func (d *Dispatcher) finish(id uint64) {
	d.mu.Lock()
	ac, ok := d.active[id]
	delete(d.active, id)
	d.mu.Unlock()

	if ok {
		d.stop(ac.cue, ac.handle)
	}
}

// CancelAlarms stops every playing alarm cue.
func (d *Dispatcher) CancelAlarms() {
	d.cancelWhere(true)
}

// CancelAll stops every playing cue.
func (d *Dispatcher) CancelAll() {
	d.cancelWhere(false)
}

func (d *Dispatcher) cancelWhere(alarmsOnly bool) {
	d.mu.Lock()
	if alarmsOnly {
		d.gen.alarms++
	} else {
		d.gen.all++
	}

	var stopped []*activeCue
	for id, ac := range d.active {
		if alarmsOnly && !ac.cue.Alarm {
			continue
		}
		ac.timer.Stop()
		delete(d.active, id)
		stopped = append(stopped, ac)
	}
	d.mu.Unlock()

	for _, ac := range stopped {
		d.stop(ac.cue, ac.handle)
	}
}

func (d *Dispatcher) stop(c Cue, h Handle) {
	if err := d.player.Stop(h); err != nil {
		zlog.Warn().Err(err).Msgf("cue: failed to stop: name=%s handle=%s", c.Name, h)
	}
}

// ActiveCount returns the number of cues currently playing.
func (d *Dispatcher) ActiveCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.active)
}

// Close stops every cue and waits for in-flight plays to return.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.cancel()
	d.mu.Unlock()

	d.CancelAll()
	d.wg.Wait()
}

// Nop discards every event.
type Nop struct{}

// Notify does nothing.
func (Nop) Notify(workout.Event) {}
