package transport

import (
	"sync"
	"testing"
	"time"

	"github.com/NoahOriano/SeniorDesignTeam8/internal/domain"
)

// recordingSink keeps every event in arrival order.
type recordingSink struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *recordingSink) Put(ev domain.Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return true
}

func (r *recordingSink) snapshot() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *recordingSink) samples() []domain.Sample {
	var out []domain.Sample
	for _, ev := range r.snapshot() {
		if ev.Kind == domain.EventSample {
			out = append(out, ev.Sample)
		}
	}
	return out
}

func (r *recordingSink) statuses(kind domain.StatusKind) []domain.StatusEvent {
	var out []domain.StatusEvent
	for _, ev := range r.snapshot() {
		if ev.Kind == domain.EventStatus && ev.Status.Kind == kind {
			out = append(out, ev.Status)
		}
	}
	return out
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

type observerFunc func(domain.Sample)

func (f observerFunc) OnSample(s domain.Sample) { f(s) }
