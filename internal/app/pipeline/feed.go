package pipeline

import (
	"sync"
	"sync/atomic"

	"github.com/NoahOriano/SeniorDesignTeam8/internal/domain"
)

// Feed fans consumer events out to live subscribers. A subscriber that
// falls behind loses events rather than slowing the consumer.
type Feed struct {
	mu      sync.RWMutex
	subs    map[uint64]chan domain.Event
	next    uint64
	dropped atomic.Uint64
}

func NewFeed() *Feed {
	return &Feed{subs: make(map[uint64]chan domain.Event)}
}

// Subscribe returns a channel of events and a cancel func that closes it.
func (f *Feed) Subscribe(buffer int) (<-chan domain.Event, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan domain.Event, buffer)
	f.mu.Lock()
	id := f.next
	f.next++
	f.subs[id] = ch
	f.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
			close(ch)
		})
	}
}

func (f *Feed) Publish(ev domain.Event) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, ch := range f.subs {
		select {
		case ch <- ev:
		default:
			f.dropped.Add(1)
		}
	}
}

func (f *Feed) Subscribers() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}

// Dropped counts events not delivered to slow subscribers.
func (f *Feed) Dropped() uint64 { return f.dropped.Load() }
