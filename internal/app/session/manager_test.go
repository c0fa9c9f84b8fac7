package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/hiitbox/internal/app/notification"
	"github.com/osa030/hiitbox/internal/domain/workout"
)

type collectingStream struct {
	mu   sync.Mutex
	msgs []notification.Notification
}

func (c *collectingStream) Send(n *notification.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, *n)
	return nil
}

func (c *collectingStream) Types() []notification.Type {
	c.mu.Lock()
	defer c.mu.Unlock()
	types := make([]notification.Type, 0, len(c.msgs))
	for _, m := range c.msgs {
		types = append(types, m.Type)
	}
	return types
}

func (c *collectingStream) Last() notification.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.msgs[len(c.msgs)-1]
}

func TestManager_SubscribeAndBroadcast(t *testing.T) {
	m, err := NewManager(Config{
		Workout:           workout.Configuration{HighIntensitySeconds: 1, LowIntensitySeconds: 1, CycleCount: 1},
		HeartbeatInterval: time.Hour,
	}, &recordingCues{})
	require.NoError(t, err)
	defer m.Close()

	stream := &collectingStream{}
	id, err := m.Subscribe(stream)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, 1, m.SubscriberCount())
	assert.Equal(t, []notification.Type{notification.TypeInitialState}, stream.Types())

	require.True(t, m.Start())
	m.Session().Advance()
	m.Session().Advance()

	assert.Eventually(t, func() bool {
		types := stream.Types()
		return len(types) > 0 && types[len(types)-1] == notification.TypeCompleted
	}, time.Second, 5*time.Millisecond)

	last := stream.Last()
	assert.Equal(t, "idle", last.State)
	assert.Equal(t, "0 : 00", last.CountdownLabel)
	assert.Equal(t, 0, last.CycleIndex)
	assert.Equal(t, 0, last.ElapsedInPhase)
	assert.Equal(t, m.Status().SessionID, last.SessionID)

	m.Unsubscribe(id)
	assert.Equal(t, 0, m.SubscriberCount())
}

func TestManager_CommandsAndConfigure(t *testing.T) {
	m, err := NewManager(Config{
		Workout:           workout.Configuration{HighIntensitySeconds: 10, LowIntensitySeconds: 5, CycleCount: 2},
		HeartbeatInterval: time.Hour,
	}, &recordingCues{})
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, m.Configure(workout.Configuration{HighIntensitySeconds: 20, LowIntensitySeconds: 10, CycleCount: 3}))
	assert.Error(t, m.Configure(workout.Configuration{}))

	assert.True(t, m.Start())
	assert.False(t, m.Start())
	assert.Equal(t, 90, m.Status().Countdown.RemainingSeconds)
	assert.True(t, m.Pause())
	assert.True(t, m.Reset())
	assert.Equal(t, StateIdle, m.Status().State)
}

func TestManager_CloseClosesDone(t *testing.T) {
	m, err := NewManager(Config{
		Workout: workout.Configuration{HighIntensitySeconds: 1, LowIntensitySeconds: 1, CycleCount: 1},
	}, &recordingCues{})
	require.NoError(t, err)

	m.Close()
	m.Close()

	select {
	case <-m.Done():
	case <-time.After(time.Second):
		t.Fatal("done channel not closed")
	}
}

func TestToNotification(t *testing.T) {
	u := Update{
		Kind:  UpdateTransition,
		Event: workout.Event{Type: workout.EventCycleEnded, CycleIndex: 2},
		Status: Status{
			SessionID:      "s1",
			State:          StateRunning,
			Configuration:  workout.Configuration{HighIntensitySeconds: 20, LowIntensitySeconds: 10, CycleCount: 8},
			PhaseLabel:     "00:00",
			CountdownLabel: "3 : 00",
		},
	}
	u.Status.Interval.CycleIndex = 2
	u.Status.Countdown.RemainingSeconds = 180

	n := ToNotification(u)
	assert.Equal(t, notification.TypeTransition, n.Type)
	assert.Equal(t, "cycle_ended", n.Event)
	assert.Equal(t, "running", n.State)
	assert.Equal(t, "high_intensity", n.Phase)
	assert.Equal(t, 8, n.CycleCount)
	assert.Equal(t, 180, n.RemainingSeconds)

	assert.Equal(t, notification.TypeTick, ToNotification(Update{Kind: UpdateTick}).Type)
	assert.Empty(t, ToNotification(Update{Kind: UpdateTick}).Event)
}
