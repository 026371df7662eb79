// Package buffer keeps the recent window of readings per channel.
package buffer

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"
)

const (
	DefaultHistorySeconds   = 300
	DefaultSamplesPerSecond = 4

	// DefaultMaxAhead is how far past the receiver clock a reading may be
	// stamped before it is restamped to receipt time.
	DefaultMaxAhead = time.Minute
)

// Capacity returns the per-channel entry count for a history span.
func Capacity(historySeconds, samplesPerSecond int) int {
	if historySeconds <= 0 {
		historySeconds = DefaultHistorySeconds
	}
	if samplesPerSecond <= 0 {
		samplesPerSecond = DefaultSamplesPerSecond
	}
	return historySeconds * samplesPerSecond
}

// Stats summarises the non-gap values currently buffered for a channel.
type Stats struct {
	Count int     `json:"count"`
	Gaps  int     `json:"gaps"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Avg   float64 `json:"avg"`
}

// Set holds one ring per channel, created on first use. Timestamps within a
// channel never decrease. One goroutine writes; any number may read.
type Set struct {
	mu        sync.RWMutex
	capacity  int
	rings     map[string]*ring
	latest    map[string]Point
	evicted   uint64
	restamped uint64

	now      func() time.Time
	maxAhead time.Duration
}

type Option func(*Set)

// WithClock enables the future-timestamp check: readings stamped more than
// maxAhead past now() are stored at now().
func WithClock(now func() time.Time, maxAhead time.Duration) Option {
	return func(s *Set) {
		if maxAhead <= 0 {
			maxAhead = DefaultMaxAhead
		}
		s.now = now
		s.maxAhead = maxAhead
	}
}

func NewSet(capacity int, opts ...Option) *Set {
	if capacity <= 0 {
		capacity = Capacity(0, 0)
	}
	s := &Set{
		capacity: capacity,
		rings:    make(map[string]*ring),
		latest:   make(map[string]Point),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Set) Capacity() int { return s.capacity }

// Append records a reading and returns the timestamp it was stored at.
// A reading stamped too far in the future is stored at the receiver clock,
// and one older than the channel's newest entry is stored at that entry's
// time, so a bad device clock never costs readings. Only NaN is refused.
func (s *Set) Append(channel string, t time.Time, v float64) (time.Time, error) {
	if math.IsNaN(v) {
		return t, fmt.Errorf("append %s: NaN is reserved for gap markers", channel)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rings[channel]
	if !ok {
		r = newRing(s.capacity)
		s.rings[channel] = r
	}
	at := t
	if s.now != nil {
		if now := s.now(); at.After(now.Add(s.maxAhead)) {
			at = now
		}
	}
	if last, ok := r.newest(); ok && at.Before(last.Time) {
		at = last.Time
	}
	if !at.Equal(t) {
		s.restamped++
	}
	if r.push(Point{Time: at, Value: v}) {
		s.evicted++
	}
	s.latest[channel] = Point{Time: at, Value: v}
	return at, nil
}

// MarkGap appends a gap marker at t to every known channel. A channel whose
// newest entry is later than t gets the marker at that entry's time.
func (s *Set) MarkGap(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rings {
		at := t
		if last, ok := r.newest(); ok && last.Time.After(at) {
			at = last.Time
		}
		if r.push(Point{Time: at, Value: math.NaN()}) {
			s.evicted++
		}
	}
}

// Window returns, per channel, the entries no older than now-d, oldest first.
func (s *Set) Window(now time.Time, d time.Duration) map[string][]Point {
	cutoff := now.Add(-d)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]Point, len(s.rings))
	for ch, r := range s.rings {
		out[ch] = r.since(cutoff)
	}
	return out
}

// Channels returns the known channel ids, sorted.
func (s *Set) Channels() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.rings))
	for ch := range s.rings {
		out = append(out, ch)
	}
	sort.Strings(out)
	return out
}

// Latest returns the most recent reading per channel. Gap markers are not readings.
func (s *Set) Latest() map[string]Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Point, len(s.latest))
	for ch, p := range s.latest {
		out[ch] = p
	}
	return out
}

// Len returns the number of entries buffered for channel, gaps included.
func (s *Set) Len(channel string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.rings[channel]; ok {
		return r.size
	}
	return 0
}

// Evicted counts entries overwritten by drop-oldest since creation.
func (s *Set) Evicted() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.evicted
}

// Restamped counts readings stored at a time other than their own.
func (s *Set) Restamped() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.restamped
}

// Stats summarises a channel's buffered values. ok is false for unknown channels.
func (s *Set) Stats(channel string) (st Stats, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rings[channel]
	if !ok {
		return Stats{}, false
	}
	sum := 0.0
	for i := 0; i < r.size; i++ {
		p := r.at(i)
		if p.IsGap() {
			st.Gaps++
			continue
		}
		if st.Count == 0 || p.Value < st.Min {
			st.Min = p.Value
		}
		if st.Count == 0 || p.Value > st.Max {
			st.Max = p.Value
		}
		sum += p.Value
		st.Count++
	}
	if st.Count > 0 {
		st.Avg = sum / float64(st.Count)
	}
	return st, true
}
