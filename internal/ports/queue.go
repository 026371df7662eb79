package ports

import "github.com/NoahOriano/SeniorDesignTeam8/internal/domain"

// EventSink is the producer side of the dispatch queue. Put never blocks;
// it returns false when the item was dropped.
type EventSink interface {
	Put(ev domain.Event) bool
}

// EventSource is the consumer side. GetNowait returns immediately.
type EventSource interface {
	GetNowait() (domain.Event, bool)
	Len() int
}

// DispatchQueue is both ends of the handoff between transports and the consumer.
type DispatchQueue interface {
	EventSink
	EventSource
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(domain.Event) bool

func (f EventSinkFunc) Put(ev domain.Event) bool { return f(ev) }
