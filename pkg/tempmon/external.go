package tempmon

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/NoahOriano/SeniorDesignTeam8/internal/domain"
)

var (
	// ErrQueueFull indicates the dispatch queue dropped the event.
	ErrQueueFull = errors.New("tempmon: queue full")
	// ErrSourceStopped is returned by Publish before Start or after Stop.
	ErrSourceStopped = errors.New("tempmon: external source not started")
	// ErrInvalidSample rejects samples with no channel or a non-finite value.
	ErrInvalidSample = errors.New("tempmon: invalid sample")
)

// ExternalSource is a Transport fed by the caller instead of a device, for
// embedding the runtime behind another protocol or in tests. Pass it to
// WithTransport and call Publish from any goroutine.
type ExternalSource struct {
	name  string
	now   func() time.Time
	state atomic.Int32

	mu   sync.RWMutex
	sink EventSink
}

func NewExternalSource(name string) *ExternalSource {
	if name == "" {
		name = "external"
	}
	return &ExternalSource{name: name, now: time.Now}
}

func (e *ExternalSource) Name() string { return e.name }

func (e *ExternalSource) Start(sink EventSink) error {
	if sink == nil {
		return fmt.Errorf("external source %q: sink is required", e.name)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sink != nil {
		return fmt.Errorf("external source %q already started", e.name)
	}
	e.sink = sink
	e.state.Store(int32(domain.Connected))
	return nil
}

// Stop detaches the sink. Publish fails afterwards.
func (e *ExternalSource) Stop() error {
	e.mu.Lock()
	e.sink = nil
	e.mu.Unlock()
	e.state.Store(int32(domain.Disconnected))
	return nil
}

func (e *ExternalSource) State() ConnectionState {
	return ConnectionState(e.state.Load())
}

// Publish enqueues one sample. A zero Timestamp is stamped with the current time.
func (e *ExternalSource) Publish(s Sample) error {
	if s.ChannelID == "" || math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
		return ErrInvalidSample
	}
	if s.Timestamp.IsZero() {
		s.Timestamp = e.now()
	}
	return e.put(domain.SampleEvent(s))
}

// MarkDisconnected reports a connectivity loss at at, which the consumer
// turns into a gap on every channel.
func (e *ExternalSource) MarkDisconnected(at time.Time) error {
	e.state.Store(int32(domain.Disconnected))
	return e.put(domain.StatusOf(domain.DisconnectedStatus(at)))
}

// MarkConnected reports that readings are flowing again.
func (e *ExternalSource) MarkConnected(msg string) error {
	e.state.Store(int32(domain.Connected))
	return e.put(domain.StatusOf(domain.ConnectedStatus(e.now(), msg)))
}

func (e *ExternalSource) put(ev Event) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.sink == nil {
		return ErrSourceStopped
	}
	if !e.sink.Put(ev) {
		return ErrQueueFull
	}
	return nil
}
