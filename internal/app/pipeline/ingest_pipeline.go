package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/NoahOriano/SeniorDesignTeam8/internal/adapters/observability"
	"github.com/NoahOriano/SeniorDesignTeam8/internal/buffer"
	"github.com/NoahOriano/SeniorDesignTeam8/internal/domain"
	"github.com/NoahOriano/SeniorDesignTeam8/internal/ports"
)

const (
	DefaultDrainInterval = 250 * time.Millisecond
	DefaultArchiveBatch  = 500
	statusHistory        = 100
)

type ConsumerConfig struct {
	Queue     ports.EventSource
	Buffers   *buffer.Set
	Sink      ports.Sink
	BatchSize int
	Interval  time.Duration
	Feed      *Feed

	Obs    ports.Observability
	Logger *slog.Logger
}

// StatusSnapshot is the consumer's view of connectivity.
type StatusSnapshot struct {
	State  domain.ConnectionState `json:"-"`
	Label  string                 `json:"state"`
	Last   *domain.StatusEvent    `json:"last,omitempty"`
	Recent []domain.StatusEvent   `json:"recent"`
}

// Consumer drains the dispatch queue on a fixed cadence into the channel
// buffers, the archive sink and the live feed. It is the buffers' only writer.
type Consumer struct {
	cfg ConsumerConfig
	log *slog.Logger
	obs ports.Observability

	pending []ports.Record

	mu     sync.RWMutex
	state  domain.ConnectionState
	recent []domain.StatusEvent
}

func NewConsumer(cfg ConsumerConfig) (*Consumer, error) {
	if cfg.Queue == nil || cfg.Buffers == nil {
		return nil, errors.New("consumer: queue and buffers are required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultDrainInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultArchiveBatch
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Obs == nil {
		cfg.Obs = observability.NewLogObs(cfg.Logger)
	}
	return &Consumer{
		cfg: cfg,
		log: cfg.Logger.With("component", "consumer"),
		obs: cfg.Obs,
	}, nil
}

// Run drains on every tick until ctx is done, then drains once more.
func (c *Consumer) Run(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			c.Drain()
			c.flush()
			return
		case <-ticker.C:
			c.Drain()
		}
	}
}

// Drain processes everything queued right now without blocking and
// returns the number of events handled.
func (c *Consumer) Drain() int {
	n := 0
	for {
		ev, ok := c.cfg.Queue.GetNowait()
		if !ok {
			break
		}
		n++
		switch ev.Kind {
		case domain.EventSample:
			c.handleSample(ev.Sample)
		case domain.EventStatus:
			c.handleStatus(ev.Status)
		}
		if c.cfg.Feed != nil {
			c.cfg.Feed.Publish(ev)
		}
		if len(c.pending) >= c.cfg.BatchSize {
			c.flush()
		}
	}
	c.flush()
	c.obs.SetGauge(observability.QueueLength, float64(c.cfg.Queue.Len()))
	return n
}

func (c *Consumer) handleSample(s domain.Sample) {
	stored, err := c.cfg.Buffers.Append(s.ChannelID, s.Timestamp, s.Value)
	if err != nil {
		c.obs.IncCounter(observability.SamplesRejected, 1)
		c.log.Warn("sample rejected", "channel", s.ChannelID, "error", err)
		return
	}
	if !stored.Equal(s.Timestamp) {
		c.obs.IncCounter(observability.SamplesRestamped, 1)
		c.log.Warn("sample restamped", "channel", s.ChannelID, "device_ts", s.Timestamp, "stored_ts", stored)
	}
	c.obs.IncCounter(observability.SamplesBuffered, 1)
	if c.cfg.Sink != nil {
		c.pending = append(c.pending, ports.Record{ChannelID: s.ChannelID, Timestamp: stored, Value: s.Value})
	}
}

func (c *Consumer) handleStatus(st domain.StatusEvent) {
	switch st.Kind {
	case domain.StatusConnected:
		c.setState(domain.Connected)
	case domain.StatusDisconnected:
		c.setState(domain.Disconnected)
		c.cfg.Buffers.MarkGap(st.At)
		if c.cfg.Sink != nil {
			for _, ch := range c.cfg.Buffers.Channels() {
				c.pending = append(c.pending, ports.Record{ChannelID: ch, Timestamp: st.At, Gap: true})
			}
		}
		c.log.Warn("device disconnected", "at", st.At)
	case domain.StatusTransportError:
		c.log.Debug("transport error", "message", st.Message)
	default:
		c.log.Info(st.Message)
	}

	c.mu.Lock()
	c.recent = append(c.recent, st)
	if len(c.recent) > statusHistory {
		c.recent = append(c.recent[:0], c.recent[len(c.recent)-statusHistory:]...)
	}
	c.mu.Unlock()
}

func (c *Consumer) setState(s domain.ConnectionState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// flush writes pending records. A failed batch is dropped, not retried.
func (c *Consumer) flush() {
	if c.cfg.Sink == nil || len(c.pending) == 0 {
		return
	}
	start := time.Now()
	if err := c.cfg.Sink.WriteBatch(c.pending); err != nil {
		c.obs.LogError("archive_write_failed", err, ports.F("sink", c.cfg.Sink.Name()), ports.F("records", len(c.pending)))
	} else {
		c.obs.ObserveLatency(observability.ArchiveLatency, time.Since(start).Seconds())
		c.obs.IncCounter(observability.ArchiveWritten, float64(len(c.pending)))
	}
	c.pending = c.pending[:0]
}

// Status returns the last known connectivity and recent status messages, newest last.
func (c *Consumer) Status() StatusSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap := StatusSnapshot{
		State:  c.state,
		Label:  c.state.String(),
		Recent: make([]domain.StatusEvent, len(c.recent)),
	}
	copy(snap.Recent, c.recent)
	if n := len(c.recent); n > 0 {
		last := c.recent[n-1]
		snap.Last = &last
	}
	return snap
}
