package tempmon

import (
	"github.com/NoahOriano/SeniorDesignTeam8/internal/app/pipeline"
	"github.com/NoahOriano/SeniorDesignTeam8/internal/buffer"
	"github.com/NoahOriano/SeniorDesignTeam8/internal/domain"
	"github.com/NoahOriano/SeniorDesignTeam8/internal/ports"
)

// Sample is one reading of one channel as it flows through the runtime.
type Sample = domain.Sample

// Event is the tagged sample/status union carried by the dispatch queue and
// the live feed.
type Event = domain.Event

type (
	StatusEvent     = domain.StatusEvent
	AlertEvent      = domain.AlertEvent
	Threshold       = domain.Threshold
	Command         = domain.Command
	ConnectionState = domain.ConnectionState
	StatusSnapshot  = pipeline.StatusSnapshot
)

// Point is one buffered reading; gaps carry NaN.
type Point = buffer.Point

// Record is what archive sinks receive.
type Record = ports.Record

// Transport pulls readings from a device into the runtime.
type Transport = ports.Transport

// EventSink is what a Transport pushes into.
type EventSink = ports.EventSink

// Sink consumes batches of records and persists them to any downstream system.
type Sink = ports.Sink

// Notifier delivers alerts to people or systems.
type Notifier = ports.Notifier

// Observability emits metrics/logs about throughput, drops and alerts.
type Observability = ports.Observability

// Field is a structured log/metric field used by Observability implementations.
type Field = ports.Field

const (
	Disconnected = domain.Disconnected
	Connecting   = domain.Connecting
	Connected    = domain.Connected
)
