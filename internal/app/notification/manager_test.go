package notification

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingStream struct {
	mu       sync.Mutex
	received []Notification
	err      error
	delay    time.Duration
}

func (s *recordingStream) Send(n *Notification) error {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.received = append(s.received, *n)
	return nil
}

func (s *recordingStream) Received() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Notification(nil), s.received...)
}

func TestManager_BroadcastAssignsSequenceNumbers(t *testing.T) {
	m := NewManager()
	a := &recordingStream{}
	b := &recordingStream{}
	m.Subscribe(a)
	m.Subscribe(b)
	require.Equal(t, 2, m.SubscriberCount())

	m.Broadcast(Notification{Type: TypeTick, PhaseLabel: "00:01"})
	m.Broadcast(Notification{Type: TypeTransition, Event: "phase_ended"})

	for _, s := range []*recordingStream{a, b} {
		got := s.Received()
		require.Len(t, got, 2)
		assert.Equal(t, uint64(1), got[0].SequenceNo)
		assert.Equal(t, "00:01", got[0].PhaseLabel)
		assert.Equal(t, uint64(2), got[1].SequenceNo)
		assert.Equal(t, "phase_ended", got[1].Event)
	}
}

func TestManager_FailingStreamIsUnsubscribed(t *testing.T) {
	m := NewManager()
	ok := &recordingStream{}
	bad := &recordingStream{err: errors.New("closed")}
	m.Subscribe(ok)
	m.Subscribe(bad)

	m.Broadcast(Notification{Type: TypeTick})

	assert.Equal(t, 1, m.SubscriberCount())
	assert.Len(t, ok.Received(), 1)
}

func TestManager_SlowStreamTimesOut(t *testing.T) {
	m := NewManager()
	m.sendTimeout = 20 * time.Millisecond
	slow := &recordingStream{delay: 200 * time.Millisecond}
	m.Subscribe(slow)

	start := time.Now()
	m.Broadcast(Notification{Type: TypeTick})

	assert.Less(t, time.Since(start), 150*time.Millisecond)
	assert.Equal(t, 1, m.SubscriberCount())
}

func TestManager_SendAndUnsubscribe(t *testing.T) {
	m := NewManager()
	s := &recordingStream{}
	id := m.Subscribe(s)

	require.NoError(t, m.Send(id, Notification{Type: TypeInitialState}))
	require.NoError(t, m.Send("unknown", Notification{Type: TypeInitialState}))
	assert.Len(t, s.Received(), 1)
	assert.Equal(t, TypeInitialState, s.Received()[0].Type)

	m.Unsubscribe(id)
	assert.Equal(t, 0, m.SubscriberCount())

	m.Subscribe(s)
	m.Close()
	assert.Equal(t, 0, m.SubscriberCount())
}

func TestType_String(t *testing.T) {
	assert.Equal(t, "initial_state", TypeInitialState.String())
	assert.Equal(t, "completed", TypeCompleted.String())
	assert.Equal(t, "unknown", Type(42).String())
}
