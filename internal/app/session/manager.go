package session

import (
	"sync"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/hiitbox/internal/app/notification"
	"github.com/osa030/hiitbox/internal/domain/workout"
)

// Manager connects a session to its subscribers.
type Manager struct {
	session      *Session
	notification *notification.Manager

	closeOnce sync.Once
	done      chan struct{}
}

// NewManager creates a session and starts forwarding its updates.
func NewManager(cfg Config, cues CueDispatcher) (*Manager, error) {
	s, err := New(cfg, cues)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		session:      s,
		notification: notification.NewManager(),
		done:         make(chan struct{}),
	}
	go m.updateLoop()

	zlog.Info().Msgf("session manager created: session_id=%s", s.ID())
	return m, nil
}

// Session returns the managed session.
func (m *Manager) Session() *Session {
	return m.session
}

// Start starts or continues the session.
func (m *Manager) Start() bool { return m.session.Start() }

// Pause pauses the session.
func (m *Manager) Pause() bool { return m.session.Pause() }

// Reset resets the session.
func (m *Manager) Reset() bool { return m.session.Reset() }

// Status returns the current session status.
func (m *Manager) Status() Status { return m.session.Status() }

// Configure replaces the workout configuration.
func (m *Manager) Configure(cfg workout.Configuration) error {
	return m.session.Configure(cfg)
}

// Subscribe registers a stream and sends it the current state.
func (m *Manager) Subscribe(stream notification.Stream) (string, error) {
	id := m.notification.Subscribe(stream)
	n := ToNotification(Update{Kind: UpdateTick, Status: m.session.Status()})
	n.Type = notification.TypeInitialState
	if err := m.notification.Send(id, n); err != nil {
		m.notification.Unsubscribe(id)
		return "", err
	}
	return id, nil
}

// Unsubscribe removes a subscription.
func (m *Manager) Unsubscribe(id string) {
	m.notification.Unsubscribe(id)
}

// SubscriberCount returns the number of subscribers.
func (m *Manager) SubscriberCount() int {
	return m.notification.SubscriberCount()
}

// Done returns a channel that is closed once the manager is closed.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Close stops the session and drops all subscribers.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		m.session.Close()
		<-m.done
		m.notification.Close()
	})
}

// updateLoop forwards session updates to subscribers until the session closes.
func (m *Manager) updateLoop() {
	defer close(m.done)
	for u := range m.session.Updates() {
		m.broadcast(u)
	}
}

func (m *Manager) broadcast(u Update) {
	defer func() {
		if r := recover(); r != nil {
			zlog.Error().Msgf("broadcast panicked: kind=%s: %v", u.Kind, r)
		}
	}()
	if u.Kind != UpdateTick {
		zlog.Debug().Msgf("broadcast %s: event=%s state=%s", u.Kind, u.Event.Type, u.Status.State)
	}
	m.notification.Broadcast(ToNotification(u))
}

// ToNotification converts a session update to a subscriber notification.
func ToNotification(u Update) notification.Notification {
	n := notification.Notification{
		SessionID:        u.Status.SessionID,
		State:            u.Status.State.String(),
		Phase:            u.Status.Interval.Phase.String(),
		PhaseLabel:       u.Status.PhaseLabel,
		CountdownLabel:   u.Status.CountdownLabel,
		ElapsedInPhase:   u.Status.Interval.ElapsedInPhase,
		CycleIndex:       u.Status.Interval.CycleIndex,
		CycleCount:       u.Status.Configuration.CycleCount,
		RemainingSeconds: u.Status.Countdown.RemainingSeconds,
		At:               u.At,
	}

	switch u.Kind {
	case UpdateTick:
		n.Type = notification.TypeTick
	case UpdateTransition:
		n.Type = notification.TypeTransition
		n.Event = u.Event.Type.String()
	case UpdateCommand:
		n.Type = notification.TypeCommand
		n.Event = u.Event.Type.String()
	case UpdateCompleted:
		n.Type = notification.TypeCompleted
	}
	return n
}
