// Package session provides the HIIT session: the interval clock and the
// session countdown advanced in lock-step by one heartbeat, plus the
// start/pause/reset commands.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/hiitbox/internal/app/countdown"
	"github.com/osa030/hiitbox/internal/app/interval"
	"github.com/osa030/hiitbox/internal/domain/workout"
)

// DefaultHeartbeatInterval is the cadence of one session second.
const DefaultHeartbeatInterval = time.Second

const updateBufferSize = 64

// CueDispatcher receives every session event that may have an audio cue.
// Implementations must not block.
type CueDispatcher interface {
	Notify(e workout.Event)
}

// Config holds session configuration.
type Config struct {
	Workout           workout.Configuration
	HeartbeatInterval time.Duration
}

// Status is a snapshot of the session.
type Status struct {
	SessionID      string
	State          State
	Configuration  workout.Configuration
	Interval       interval.State
	Countdown      countdown.State
	PhaseLabel     string // "mm:ss" elapsed in the current phase
	CountdownLabel string // "m : ss" remaining in the session
}

// Update is emitted on every heartbeat, transition and command.
type Update struct {
	Kind   UpdateKind
	Event  workout.Event
	Status Status
	At     time.Time
}

// Session owns the configuration and both clocks.
// All mutation happens under mu, from commands or from the heartbeat.
type Session struct {
	mu sync.Mutex

	id        string
	config    workout.Configuration
	clock     *interval.Clock
	countdown *countdown.Countdown
	state     State
	cues      CueDispatcher

	// Heartbeat
	interval        time.Duration
	heartbeatCancel context.CancelFunc
	heartbeatGen    uint64 // ticks from older generations are ignored

	updates chan Update
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates an idle session.
func New(cfg Config, cues CueDispatcher) (*Session, error) {
	if err := cfg.Workout.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid workout configuration")
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if cues == nil {
		return nil, errors.New("cue dispatcher is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		id:        uuid.New().String(),
		config:    cfg.Workout,
		clock:     interval.New(),
		countdown: countdown.New(),
		state:     StateIdle,
		cues:      cues,
		interval:  cfg.HeartbeatInterval,
		updates:   make(chan Update, updateBufferSize),
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// ID returns the session ID.
func (s *Session) ID() string {
	return s.id
}

// Updates returns the update channel. It is closed by Close.
func (s *Session) Updates() <-chan Update {
	return s.updates
}

// Start starts or continues the session. It returns false when the
// session is already running.
// From idle the clocks are rewound and the countdown is computed from the
// current configuration; from paused every field is kept.
func (s *Session) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.state == StateRunning {
		return false
	}

	fresh := s.state == StateIdle
	if fresh {
		s.clock.Reset()
		s.countdown.Init(s.config)
	} else {
		s.countdown.Resume()
	}
	s.clock.Start()
	s.state = StateRunning
	s.startHeartbeatLocked()

	zlog.Info().Msgf("session: started: session_id=%s fresh=%t hi=%d li=%d cycles=%d remaining=%d",
		s.id, fresh, s.config.HighIntensitySeconds, s.config.LowIntensitySeconds, s.config.CycleCount,
		s.countdown.State().RemainingSeconds)

	s.commandLocked(workout.EventStarted)
	return true
}

// Pause stops the heartbeat and keeps the position. It returns false
// unless the session is running.
func (s *Session) Pause() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.state != StateRunning {
		return false
	}

	s.stopHeartbeatLocked()
	s.clock.Stop()
	s.countdown.Stop()
	s.state = StatePaused

	zlog.Info().Msgf("session: paused: session_id=%s phase=%s elapsed=%d cycle=%d",
		s.id, s.clock.State().Phase, s.clock.State().ElapsedInPhase, s.clock.State().CycleIndex)

	s.commandLocked(workout.EventPaused)
	return true
}

// Reset stops the heartbeat, rewinds the clock and clears the countdown.
// It applies in every state.
func (s *Session) Reset() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	s.stopHeartbeatLocked()
	s.clock.Reset()
	s.countdown.Clear()
	s.state = StateIdle

	zlog.Info().Msgf("session: reset: session_id=%s", s.id)

	s.commandLocked(workout.EventReset)
	return true
}

// Advance applies one heartbeat. It does nothing unless the session is running.
func (s *Session) Advance() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRunning {
		return
	}
	s.advanceLocked()
}

func (s *Session) advanceLocked() {
	clockEvent := s.clock.Tick(s.config)
	countdownEvent := s.countdown.Tick()

	now := time.Now()
	status := s.statusLocked()

	if countdownEvent.Type == workout.EventCountdownFinished {
		// The countdown reaching zero ends the session even if the clock
		// was stretched by a configuration change. Interval and cycle
		// go back to zero.
		s.clock.Reset()
	}
	s.sendLocked(Update{Kind: UpdateTick, Status: status, At: now})

	for _, e := range []workout.Event{clockEvent, countdownEvent} {
		if e.Type == workout.EventNone {
			continue
		}
		zlog.Info().Msgf("session: %s: session_id=%s cycle=%d remaining=%d",
			e.Type, s.id, e.CycleIndex, status.Countdown.RemainingSeconds)
		s.cues.Notify(e)
		s.sendLocked(Update{Kind: UpdateTransition, Event: e, Status: status, At: now})
	}

	if !s.clock.Running() && !s.countdown.Running() {
		s.stopHeartbeatLocked()
		s.state = StateIdle
		zlog.Info().Msgf("session: completed: session_id=%s cycles=%d", s.id, s.clock.State().CycleIndex)
		s.sendLocked(Update{Kind: UpdateCompleted, Status: s.statusLocked(), At: now})
	}
}

// commandLocked dispatches the cue and update for an applied command.
func (s *Session) commandLocked(t workout.EventType) {
	e := workout.Event{Type: t, CycleIndex: s.clock.State().CycleIndex}
	s.cues.Notify(e)
	s.sendLocked(Update{Kind: UpdateCommand, Event: e, Status: s.statusLocked(), At: time.Now()})
}

// State returns the current control state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Status returns a snapshot of the session.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

func (s *Session) statusLocked() Status {
	return Status{
		SessionID:      s.id,
		State:          s.state,
		Configuration:  s.config,
		Interval:       s.clock.State(),
		Countdown:      s.countdown.State(),
		PhaseLabel:     s.clock.Label(),
		CountdownLabel: s.countdown.Label(),
	}
}

// Configuration returns the live configuration.
func (s *Session) Configuration() workout.Configuration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

// Configure replaces the whole configuration.
// The interval clock reads it from the next tick; the countdown only at the next fresh start.
func (s *Session) Configure(cfg workout.Configuration) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = cfg
	zlog.Info().Msgf("session: configured: hi=%d li=%d cycles=%d state=%s",
		cfg.HighIntensitySeconds, cfg.LowIntensitySeconds, cfg.CycleCount, s.state)
	return nil
}

// SetHighIntensitySeconds sets the high intensity duration.
func (s *Session) SetHighIntensitySeconds(v int) error {
	if err := workout.ValidateHighIntensitySeconds(v); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.HighIntensitySeconds = v
	return nil
}

// SetLowIntensitySeconds sets the low intensity duration.
func (s *Session) SetLowIntensitySeconds(v int) error {
	if err := workout.ValidateLowIntensitySeconds(v); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.LowIntensitySeconds = v
	return nil
}

// SetCycleCount sets the number of cycles.
func (s *Session) SetCycleCount(v int) error {
	if err := workout.ValidateCycleCount(v); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.CycleCount = v
	return nil
}

// Close stops the heartbeat and closes the update channel.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.stopHeartbeatLocked()
	s.cancel()
	s.closed = true
	close(s.updates)
}

// startHeartbeatLocked starts a new heartbeat generation.
// Must be called with lock held.
func (s *Session) startHeartbeatLocked() {
	s.stopHeartbeatLocked()

	ctx, cancel := context.WithCancel(s.ctx)
	s.heartbeatGen++
	s.heartbeatCancel = cancel
	go s.heartbeatLoop(ctx, s.heartbeatGen)
}

// stopHeartbeatLocked cancels the heartbeat. A tick already waiting for the
// lock sees a stale generation and is dropped.
// Must be called with lock held.
func (s *Session) stopHeartbeatLocked() {
	if s.heartbeatCancel != nil {
		s.heartbeatCancel()
		s.heartbeatCancel = nil
	}
	s.heartbeatGen++
}

func (s *Session) heartbeatLoop(ctx context.Context, gen uint64) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.onHeartbeat(gen)
		}
	}
}

func (s *Session) onHeartbeat(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.heartbeatGen || s.state != StateRunning {
		return
	}
	s.advanceLocked()
}

// sendLocked sends an update without blocking.
// Must be called with lock held.
func (s *Session) sendLocked(u Update) {
	if s.closed {
		return
	}
	select {
	case s.updates <- u:
	default:
		zlog.Debug().Msgf("session: update dropped (buffer full): kind=%s", u.Kind)
	}
}
