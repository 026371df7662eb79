package queue

import (
	"sync"

	"github.com/NoahOriano/SeniorDesignTeam8/internal/domain"
	"github.com/NoahOriano/SeniorDesignTeam8/internal/ports"
)

const (
	DefaultSampleCapacity = 16384
	DefaultStatusCapacity = 256
)

// DispatchQueue is a bounded in-memory FIFO shared by samples and status
// events. Each kind has its own capacity; a full kind drops the newest item.
type DispatchQueue struct {
	mu      sync.Mutex
	data    []domain.Event
	head    int
	counts  map[domain.EventKind]int
	caps    map[domain.EventKind]int
	dropped map[domain.EventKind]uint64
}

func NewDispatchQueue(sampleCap, statusCap int) *DispatchQueue {
	if sampleCap <= 0 {
		sampleCap = DefaultSampleCapacity
	}
	if statusCap <= 0 {
		statusCap = DefaultStatusCapacity
	}
	return &DispatchQueue{
		data:   make([]domain.Event, 0, 64),
		counts: map[domain.EventKind]int{},
		caps: map[domain.EventKind]int{
			domain.EventSample: sampleCap,
			domain.EventStatus: statusCap,
		},
		dropped: map[domain.EventKind]uint64{},
	}
}

// Put enqueues ev without blocking. It returns false when ev was dropped.
func (q *DispatchQueue) Put(ev domain.Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	limit, ok := q.caps[ev.Kind]
	if !ok || q.counts[ev.Kind] >= limit {
		q.dropped[ev.Kind]++
		return false
	}
	q.data = append(q.data, ev)
	q.counts[ev.Kind]++
	return true
}

// GetNowait pops the oldest event, or returns false when the queue is empty.
func (q *DispatchQueue) GetNowait() (domain.Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.head >= len(q.data) {
		return domain.Event{}, false
	}
	ev := q.data[q.head]
	q.data[q.head] = domain.Event{}
	q.head++
	q.counts[ev.Kind]--
	q.compact()
	return ev, true
}

// DequeueBatch pops up to max events in FIFO order. max <= 0 drains everything.
func (q *DispatchQueue) DequeueBatch(max int) []domain.Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.data) - q.head
	if n == 0 {
		return nil
	}
	if max <= 0 || max > n {
		max = n
	}
	out := make([]domain.Event, max)
	copy(out, q.data[q.head:q.head+max])
	for i := q.head; i < q.head+max; i++ {
		q.counts[q.data[i].Kind]--
		q.data[i] = domain.Event{}
	}
	q.head += max
	q.compact()
	return out
}

func (q *DispatchQueue) compact() {
	if q.head == len(q.data) {
		q.data = q.data[:0]
		q.head = 0
		return
	}
	if q.head > 1024 && q.head*2 > len(q.data) {
		n := copy(q.data, q.data[q.head:])
		q.data = q.data[:n]
		q.head = 0
	}
}

func (q *DispatchQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.data) - q.head
}

// LenOf returns the number of queued events of kind.
func (q *DispatchQueue) LenOf(kind domain.EventKind) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.counts[kind]
}

// Dropped returns how many events of kind were rejected since creation.
func (q *DispatchQueue) Dropped(kind domain.EventKind) uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped[kind]
}

var _ ports.DispatchQueue = (*DispatchQueue)(nil)
