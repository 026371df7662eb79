package buffer

import (
	"math"
	"time"
)

// Point is one buffered entry. A NaN value marks a connectivity gap.
type Point struct {
	Time  time.Time `json:"t"`
	Value float64   `json:"v"`
}

// IsGap reports whether p is a disconnect marker.
func (p Point) IsGap() bool { return math.IsNaN(p.Value) }

// ring is a fixed-capacity drop-oldest buffer for one channel. Not safe for
// concurrent use; Set guards it.
type ring struct {
	items []Point
	head  int // next write position
	size  int
}

func newRing(capacity int) *ring {
	if capacity <= 0 {
		capacity = 1
	}
	return &ring{items: make([]Point, capacity)}
}

func (r *ring) push(p Point) (evicted bool) {
	evicted = r.size == len(r.items)
	r.items[r.head] = p
	r.head = (r.head + 1) % len(r.items)
	if !evicted {
		r.size++
	}
	return evicted
}

func (r *ring) at(i int) Point {
	start := (r.head - r.size + len(r.items)) % len(r.items)
	return r.items[(start+i)%len(r.items)]
}

func (r *ring) newest() (Point, bool) {
	if r.size == 0 {
		return Point{}, false
	}
	return r.at(r.size - 1), true
}

// since copies the entries at or after cutoff, oldest first.
func (r *ring) since(cutoff time.Time) []Point {
	// entries are time-ordered, so scan back from the newest
	first := r.size
	for first > 0 && !r.at(first-1).Time.Before(cutoff) {
		first--
	}
	out := make([]Point, 0, r.size-first)
	for i := first; i < r.size; i++ {
		out = append(out, r.at(i))
	}
	return out
}
