package domain

import (
	"fmt"
	"time"
)

// AlertKind names the bound a reading crossed.
type AlertKind string

const (
	AboveMax AlertKind = "above_max"
	BelowMin AlertKind = "below_min"
)

// Describe renders the kind the way alert messages phrase it.
func (k AlertKind) Describe() string {
	switch k {
	case AboveMax:
		return "above max threshold"
	case BelowMin:
		return "below min threshold"
	default:
		return string(k)
	}
}

// Threshold bounds a monitored scope. A nil bound is disabled.
type Threshold struct {
	Max *float64 `yaml:"max" json:"max,omitempty"`
	Min *float64 `yaml:"min" json:"min,omitempty"`
}

// Enabled reports whether at least one bound is set.
func (t Threshold) Enabled() bool {
	return t.Max != nil || t.Min != nil
}

// Breaches returns the kinds v violates, AboveMax first. Both bounds are
// checked independently, so an inverted pair can yield two kinds.
func (t Threshold) Breaches(v float64) []AlertKind {
	var kinds []AlertKind
	if t.Max != nil && v > *t.Max {
		kinds = append(kinds, AboveMax)
	}
	if t.Min != nil && v < *t.Min {
		kinds = append(kinds, BelowMin)
	}
	return kinds
}

// Bound returns the configured limit for kind.
func (t Threshold) Bound(kind AlertKind) float64 {
	switch kind {
	case AboveMax:
		if t.Max != nil {
			return *t.Max
		}
	case BelowMin:
		if t.Min != nil {
			return *t.Min
		}
	}
	return 0
}

// Float returns a pointer to v, for building thresholds in code.
func Float(v float64) *float64 { return &v }

// AlertEvent is what the alert engine hands to the notifier boundary.
type AlertEvent struct {
	ID        string    `json:"id" msgpack:"id"`
	ChannelID string    `json:"channel_id" msgpack:"channel_id"`
	Value     float64   `json:"value" msgpack:"value"`
	Kind      AlertKind `json:"kind" msgpack:"kind"`
	Threshold float64   `json:"threshold" msgpack:"threshold"`
	Timestamp time.Time `json:"timestamp" msgpack:"timestamp"`
}

// Subject is the short notification title, e.g. "Temperature Alert: S1 max".
func (a AlertEvent) Subject() string {
	bound := "max"
	if a.Kind == BelowMin {
		bound = "min"
	}
	return fmt.Sprintf("Temperature Alert: %s %s", a.ChannelID, bound)
}

// Body is the notification text.
func (a AlertEvent) Body() string {
	return fmt.Sprintf("ALERT: Sensor %s is %s at %.2f°C.", a.ChannelID, a.Kind.Describe(), a.Value)
}
