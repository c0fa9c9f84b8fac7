package cue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/hiitbox/internal/domain/workout"
)

// fakePlayer records plays and stops.
type fakePlayer struct {
	mu      sync.Mutex
	plays   []string
	stopped []Handle
	live    map[Handle]string
	next    int
	err     error
	block   chan struct{}
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{live: make(map[Handle]string)}
}

func (p *fakePlayer) Play(ctx context.Context, name string) (Handle, error) {
	if p.block != nil {
		<-p.block
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.next++
	h := Handle(fmt.Sprintf("h%d", p.next))
	p.plays = append(p.plays, name)
	p.live[h] = name
	return h, nil
}

func (p *fakePlayer) Stop(h Handle) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped = append(p.stopped, h)
	delete(p.live, h)
	return nil
}

func (p *fakePlayer) Plays() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.plays...)
}

func (p *fakePlayer) Live() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.live))
	for _, n := range p.live {
		names = append(names, n)
	}
	return names
}

func TestForEvent(t *testing.T) {
	tests := []struct {
		name  string
		event workout.Event
		want  Cue
		ok    bool
	}{
		{name: "start", event: workout.Event{Type: workout.EventStarted}, want: Ping, ok: true},
		{name: "pause", event: workout.Event{Type: workout.EventPaused}, want: Ping, ok: true},
		{name: "reset", event: workout.Event{Type: workout.EventReset}, want: Ping, ok: true},
		{name: "high phase ended", event: workout.Event{Type: workout.EventPhaseEnded, Phase: workout.PhaseHighIntensity}, want: HIAlarm, ok: true},
		{name: "low phase ended", event: workout.Event{Type: workout.EventPhaseEnded, Phase: workout.PhaseLowIntensity}},
		{name: "cycle ended", event: workout.Event{Type: workout.EventCycleEnded}, want: EndAlarm, ok: true},
		{name: "session completed", event: workout.Event{Type: workout.EventSessionCompleted}, want: LIAlarm, ok: true},
		{name: "countdown finished", event: workout.Event{Type: workout.EventCountdownFinished}},
		{name: "none", event: workout.Event{Type: workout.EventNone}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ForEvent(tt.event)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCueDurations(t *testing.T) {
	assert.Equal(t, 500*time.Millisecond, Ping.Duration)
	for _, c := range []Cue{HIAlarm, LIAlarm, EndAlarm} {
		assert.Equal(t, 3*time.Second, c.Duration, c.Name)
		assert.True(t, c.Alarm, c.Name)
	}
	assert.Len(t, All(), 4)
}

func TestDispatcher_PlaysAndStopsAfterDuration(t *testing.T) {
	player := newFakePlayer()
	d := NewDispatcher(player, Config{})
	defer d.Close()

	d.Play(Cue{Name: "ping", Duration: 10 * time.Millisecond})

	assert.Eventually(t, func() bool { return len(player.Plays()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return len(player.Live()) == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, d.ActiveCount())
}

func TestDispatcher_NotifyDoesNotBlock(t *testing.T) {
	player := newFakePlayer()
	player.block = make(chan struct{})
	d := NewDispatcher(player, Config{})

	done := make(chan struct{})
	go func() {
		d.Notify(workout.Event{Type: workout.EventCycleEnded})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on the player")
	}

	close(player.block)
	d.Close()
	assert.Equal(t, []string{"End_Alarm"}, player.Plays())
	assert.Empty(t, player.Live())
}

func TestDispatcher_FailureIsDropped(t *testing.T) {
	player := newFakePlayer()
	player.err = ErrDeviceBusy
	d := NewDispatcher(player, Config{})

	require.NotPanics(t, func() {
		d.Notify(workout.Event{Type: workout.EventStarted})
	})
	d.Close()

	assert.Empty(t, player.Plays())
	assert.Equal(t, 0, d.ActiveCount())
}

func TestDispatcher_PauseCancelsAlarmsOnly(t *testing.T) {
	player := newFakePlayer()
	d := NewDispatcher(player, Config{})
	defer d.Close()

	d.Notify(workout.Event{Type: workout.EventPhaseEnded, Phase: workout.PhaseHighIntensity})
	d.Play(Cue{Name: "ping", Duration: time.Minute})
	require.Eventually(t, func() bool { return d.ActiveCount() == 2 }, time.Second, 5*time.Millisecond)

	d.Notify(workout.Event{Type: workout.EventPaused})

	require.Eventually(t, func() bool { return len(player.Plays()) == 3 }, time.Second, 5*time.Millisecond)
	assert.NotContains(t, player.Live(), "HI_Alarm")
	assert.Contains(t, player.Live(), "ping")
}

func TestDispatcher_ResetCancelsEverything(t *testing.T) {
	player := newFakePlayer()
	d := NewDispatcher(player, Config{})
	defer d.Close()

	d.Notify(workout.Event{Type: workout.EventCycleEnded})
	d.Play(Cue{Name: "ping", Duration: time.Minute})
	require.Eventually(t, func() bool { return d.ActiveCount() == 2 }, time.Second, 5*time.Millisecond)

	d.Notify(workout.Event{Type: workout.EventReset})

	require.Eventually(t, func() bool { return len(player.Plays()) == 3 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool {
		live := player.Live()
		return len(live) == 1 && live[0] == "ping"
	}, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return d.ActiveCount() == 1 }, time.Second, 5*time.Millisecond)
}

func TestDispatcher_CancelStopsInFlightPlay(t *testing.T) {
	player := newFakePlayer()
	player.block = make(chan struct{})
	d := NewDispatcher(player, Config{})
	defer d.Close()

	d.Play(LIAlarm)
	d.CancelAlarms()
	close(player.block)

	require.Eventually(t, func() bool { return len(player.Plays()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return len(player.Live()) == 0 }, time.Second, 5*time.Millisecond)
}

func TestDispatcher_PlayAfterCloseIsIgnored(t *testing.T) {
	player := newFakePlayer()
	d := NewDispatcher(player, Config{})
	d.Close()

	d.Play(Ping)
	assert.Empty(t, player.Plays())
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop{}.Notify(workout.Event{Type: workout.EventStarted})
	})
}
