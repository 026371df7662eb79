package domain

import (
	"fmt"
	"time"
)

// ConnectionState is owned by a single transport instance.
type ConnectionState int32

const (
	Disconnected ConnectionState = iota
	Connecting
	Connected
)

func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// StatusKind classifies a StatusEvent.
type StatusKind uint8

const (
	StatusConnected StatusKind = iota + 1
	StatusDisconnected
	StatusInfo
	StatusTransportError
)

func (k StatusKind) String() string {
	switch k {
	case StatusConnected:
		return "connected"
	case StatusDisconnected:
		return "disconnected"
	case StatusInfo:
		return "info"
	case StatusTransportError:
		return "transport_error"
	default:
		return "unknown"
	}
}

func (k StatusKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// StatusEvent reports connectivity changes and human-readable notes.
// At is set for every event; for StatusDisconnected it is the gap timestamp.
type StatusEvent struct {
	Kind    StatusKind `json:"kind"`
	At      time.Time  `json:"at"`
	Message string     `json:"message,omitempty"`
}

func ConnectedStatus(at time.Time, msg string) StatusEvent {
	return StatusEvent{Kind: StatusConnected, At: at, Message: msg}
}

func DisconnectedStatus(at time.Time) StatusEvent {
	return StatusEvent{
		Kind:    StatusDisconnected,
		At:      at,
		Message: fmt.Sprintf("Disconnected at %s. Reconnecting...", at.Format("15:04:05")),
	}
}

func InfoStatus(at time.Time, format string, args ...any) StatusEvent {
	return StatusEvent{Kind: StatusInfo, At: at, Message: fmt.Sprintf(format, args...)}
}

func TransportErrorStatus(at time.Time, err error) StatusEvent {
	return StatusEvent{Kind: StatusTransportError, At: at, Message: err.Error()}
}
