package notifier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NoahOriano/SeniorDesignTeam8/internal/domain"
)

type statusRecorder struct {
	mu     sync.Mutex
	events []domain.StatusEvent
}

func (r *statusRecorder) Put(ev domain.Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev.Status)
	return true
}

func (r *statusRecorder) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Message)
	}
	return out
}

func testAlert(ch string) domain.AlertEvent {
	return domain.AlertEvent{
		ID:        "a-" + ch,
		ChannelID: ch,
		Value:     31,
		Kind:      domain.AboveMax,
		Threshold: 30,
		Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestDispatcherDeliversAndReports(t *testing.T) {
	delivered := make(chan domain.AlertEvent, 4)
	cb, err := NewCallback("test", func(_ context.Context, ev domain.AlertEvent) error {
		if ev.ChannelID == "S2" {
			return errors.New("mailbox full")
		}
		delivered <- ev
		return nil
	})
	require.NoError(t, err)

	status := &statusRecorder{}
	d, err := NewDispatcher(DispatcherConfig{Notifier: cb, Status: status})
	require.NoError(t, err)
	require.NoError(t, d.Start(context.Background()))

	assert.True(t, d.Publish(testAlert("S1")))
	assert.True(t, d.Publish(testAlert("S2")))

	select {
	case ev := <-delivered:
		assert.Equal(t, "S1", ev.ChannelID)
	case <-time.After(2 * time.Second):
		t.Fatal("alert not delivered")
	}
	require.NoError(t, d.Stop(context.Background()))

	msgs := status.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "Alert for S1 sent via test.", msgs[0])
	assert.Contains(t, msgs[1], "Failed to send alert for S2")
	assert.Contains(t, msgs[1], "mailbox full")
}

func TestDispatcherDropsWhenBacklogFull(t *testing.T) {
	release := make(chan struct{})
	cb, err := NewCallback("slow", func(ctx context.Context, _ domain.AlertEvent) error {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	})
	require.NoError(t, err)

	d, err := NewDispatcher(DispatcherConfig{Notifier: cb, Backlog: 1})
	require.NoError(t, err)

	// not started: nothing drains the backlog
	assert.True(t, d.Publish(testAlert("S1")))
	assert.False(t, d.Publish(testAlert("S2")))

	require.NoError(t, d.Start(context.Background()))
	close(release)
	require.NoError(t, d.Stop(context.Background()))
}

func TestDispatcherStopFlushesBacklog(t *testing.T) {
	var mu sync.Mutex
	var got []string
	cb, err := NewCallback("", func(_ context.Context, ev domain.AlertEvent) error {
		mu.Lock()
		got = append(got, ev.ChannelID)
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "callback", cb.Name())

	d, err := NewDispatcher(DispatcherConfig{Notifier: cb, Backlog: 8})
	require.NoError(t, err)
	for _, ch := range []string{"S1", "S2", "S3"} {
		require.True(t, d.Publish(testAlert(ch)))
	}
	require.NoError(t, d.Start(context.Background()))
	require.NoError(t, d.Stop(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"S1", "S2", "S3"}, got)
}

func TestNewDispatcherRequiresNotifier(t *testing.T) {
	_, err := NewDispatcher(DispatcherConfig{})
	assert.Error(t, err)
}

func TestMultiJoinsErrors(t *testing.T) {
	ok, _ := NewCallback("ok", func(context.Context, domain.AlertEvent) error { return nil })
	bad, _ := NewCallback("bad", func(context.Context, domain.AlertEvent) error { return errors.New("down") })
	m := NewMulti(ok, nil, bad)

	assert.Equal(t, 2, m.Len())
	assert.Equal(t, "ok+bad", m.Name())

	err := m.Notify(context.Background(), testAlert("S1"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotifier)
	var ne *domain.NotifierError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, "bad", ne.Notifier)
}
