// Package notifier delivers alert events. Delivery never runs on the
// ingestion path: the Dispatcher owns a goroutine and a bounded backlog.
package notifier

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/NoahOriano/SeniorDesignTeam8/internal/adapters/observability"
	"github.com/NoahOriano/SeniorDesignTeam8/internal/domain"
	"github.com/NoahOriano/SeniorDesignTeam8/internal/ports"
)

const (
	DefaultBacklog     = 32
	DefaultSendTimeout = 30 * time.Second
)

type DispatcherConfig struct {
	Notifier    ports.Notifier
	Backlog     int
	SendTimeout time.Duration

	Status ports.EventSink
	Obs    ports.Observability
	Logger *slog.Logger
	Now    func() time.Time
}

// Dispatcher hands alerts to a Notifier one at a time. Publish drops the
// alert when the backlog is full.
type Dispatcher struct {
	cfg   DispatcherConfig
	queue chan domain.AlertEvent
	log   *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

func NewDispatcher(cfg DispatcherConfig) (*Dispatcher, error) {
	if cfg.Notifier == nil {
		return nil, errors.New("notifier dispatcher: notifier is required")
	}
	if cfg.Backlog <= 0 {
		cfg.Backlog = DefaultBacklog
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = DefaultSendTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Obs == nil {
		cfg.Obs = observability.NewLogObs(cfg.Logger)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Dispatcher{
		cfg:   cfg,
		queue: make(chan domain.AlertEvent, cfg.Backlog),
		log:   cfg.Logger.With("component", "notifier", "notifier", cfg.Notifier.Name()),
	}, nil
}

// Publish implements ports.AlertPublisher.
func (d *Dispatcher) Publish(ev domain.AlertEvent) bool {
	select {
	case d.queue <- ev:
		return true
	default:
		d.cfg.Obs.IncCounter(observability.NotifyFailures, 1)
		d.log.Warn("alert backlog full, dropping", "alert_id", ev.ID, "channel", ev.ChannelID)
		return false
	}
}

func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return errors.New("notifier dispatcher already started")
	}
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.done = make(chan struct{})
	d.started = true
	go d.loop(ctx, d.done)
	return nil
}

// Stop delivers whatever is already queued, bounded by ctx, then returns.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.started {
		d.mu.Unlock()
		return nil
	}
	cancel, done := d.cancel, d.done
	d.started = false
	d.mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	d.flush(ctx)
	return nil
}

func (d *Dispatcher) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-d.queue:
			d.deliver(ctx, ev)
		}
	}
}

func (d *Dispatcher) flush(ctx context.Context) {
	for {
		select {
		case ev := <-d.queue:
			d.deliver(ctx, ev)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, ev domain.AlertEvent) {
	sendCtx, cancel := context.WithTimeout(ctx, d.cfg.SendTimeout)
	defer cancel()

	name := d.cfg.Notifier.Name()
	if err := d.cfg.Notifier.Notify(sendCtx, ev); err != nil {
		d.cfg.Obs.IncCounter(observability.NotifyFailures, 1)
		d.log.Error("alert delivery failed", "alert_id", ev.ID, "error", err)
		d.status(domain.InfoStatus(d.cfg.Now(), "Failed to send alert for %s: %v", ev.ChannelID, err))
		return
	}
	d.log.Info("alert delivered", "alert_id", ev.ID, "channel", ev.ChannelID)
	d.status(domain.InfoStatus(d.cfg.Now(), "Alert for %s sent via %s.", ev.ChannelID, name))
}

func (d *Dispatcher) status(st domain.StatusEvent) {
	if d.cfg.Status != nil {
		d.cfg.Status.Put(domain.StatusOf(st))
	}
}

var _ ports.AlertPublisher = (*Dispatcher)(nil)
