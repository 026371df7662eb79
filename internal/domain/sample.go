package domain

import "time"

// DefaultChannel is used when a framed record carries no sensor field.
const DefaultChannel = "S1"

// Sample is the canonical unit of temperature telemetry: one reading of one channel.
type Sample struct {
	Timestamp time.Time `json:"ts"`
	ChannelID string    `json:"channel_id"`
	Value     float64   `json:"value"`
}

// EventKind tags the payload carried by an Event.
type EventKind uint8

const (
	EventSample EventKind = iota + 1
	EventStatus
)

func (k EventKind) String() string {
	switch k {
	case EventSample:
		return "sample"
	case EventStatus:
		return "status"
	default:
		return "unknown"
	}
}

// Event is the tagged union handed from a transport to the consumer.
// Exactly one of Sample or Status is meaningful, selected by Kind.
type Event struct {
	Kind   EventKind
	Sample Sample
	Status StatusEvent
}

// SampleEvent wraps s for the dispatch queue.
func SampleEvent(s Sample) Event {
	return Event{Kind: EventSample, Sample: s}
}

// StatusOf wraps st for the dispatch queue.
func StatusOf(st StatusEvent) Event {
	return Event{Kind: EventStatus, Status: st}
}
