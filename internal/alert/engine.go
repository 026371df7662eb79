// Package alert evaluates readings against thresholds and gates
// notifications behind a single cooldown shared by every channel.
package alert

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/NoahOriano/SeniorDesignTeam8/internal/adapters/observability"
	"github.com/NoahOriano/SeniorDesignTeam8/internal/domain"
	"github.com/NoahOriano/SeniorDesignTeam8/internal/ports"
)

const DefaultCooldown = 60 * time.Second

type Config struct {
	Global     domain.Threshold
	PerChannel map[string]domain.Threshold
	Cooldown   time.Duration

	Publisher ports.AlertPublisher
	Status    ports.EventSink
	Obs       ports.Observability
	Logger    *slog.Logger
	Now       func() time.Time
}

// Decision is the outcome of evaluating one reading.
type Decision struct {
	Alert      *domain.AlertEvent
	Suppressed []domain.AlertKind
}

// Engine is safe for concurrent use by several transports.
type Engine struct {
	mu          sync.Mutex
	global      domain.Threshold
	perChannel  map[string]domain.Threshold
	cooldown    time.Duration
	lastAlertAt time.Time

	publisher ports.AlertPublisher
	status    ports.EventSink
	obs       ports.Observability
	log       *slog.Logger
	now       func() time.Time
}

func NewEngine(cfg Config) *Engine {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default().With("component", "alert")
	}
	e := &Engine{
		cooldown:  cfg.Cooldown,
		publisher: cfg.Publisher,
		status:    cfg.Status,
		obs:       cfg.Obs,
		log:       cfg.Logger,
		now:       cfg.Now,
	}
	e.SetThresholds(cfg.Global, cfg.PerChannel)
	return e
}

// SetThresholds replaces the bounds. Cooldown state is kept.
func (e *Engine) SetThresholds(global domain.Threshold, perChannel map[string]domain.Threshold) {
	pc := make(map[string]domain.Threshold, len(perChannel))
	for ch, th := range perChannel {
		pc[ch] = th
	}
	e.mu.Lock()
	e.global = global
	e.perChannel = pc
	e.mu.Unlock()
}

// Thresholds returns the bounds applied to channel.
func (e *Engine) Thresholds(channel string) domain.Threshold {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.thresholdLocked(channel)
}

func (e *Engine) thresholdLocked(channel string) domain.Threshold {
	th, ok := e.perChannel[channel]
	if !ok {
		return e.global
	}
	// a per-channel entry overrides only the bounds it sets
	if th.Max == nil {
		th.Max = e.global.Max
	}
	if th.Min == nil {
		th.Min = e.global.Min
	}
	return th
}

// OnSample implements ports.SampleObserver.
func (e *Engine) OnSample(s domain.Sample) {
	e.Evaluate(s.ChannelID, s.Value)
}

// Evaluate checks value against the channel bounds. The cooldown gate is
// consulted once per reading: an open gate yields one alert for the first
// breach (above-max before below-min) and suppresses the rest.
func (e *Engine) Evaluate(channel string, value float64) Decision {
	e.mu.Lock()
	th := e.thresholdLocked(channel)
	kinds := th.Breaches(value)
	if len(kinds) == 0 {
		e.mu.Unlock()
		return Decision{}
	}
	now := e.now()
	var d Decision
	if e.lastAlertAt.IsZero() || now.Sub(e.lastAlertAt) >= e.cooldown {
		e.lastAlertAt = now
		ev := domain.AlertEvent{
			ID:        uuid.NewString(),
			ChannelID: channel,
			Value:     value,
			Kind:      kinds[0],
			Threshold: th.Bound(kinds[0]),
			Timestamp: now,
		}
		d.Alert = &ev
		d.Suppressed = kinds[1:]
	} else {
		d.Suppressed = kinds
	}
	e.mu.Unlock()

	e.report(now, channel, value, d)
	return d
}

func (e *Engine) report(now time.Time, channel string, value float64, d Decision) {
	if d.Alert != nil {
		msg := fmt.Sprintf("Alert: %s %s at %.2f°C. Notification queued.", channel, d.Alert.Kind.Describe(), value)
		if e.publisher != nil && !e.publisher.Publish(*d.Alert) {
			msg = fmt.Sprintf("Alert: %s %s at %.2f°C. Notification dropped (delivery backlog).", channel, d.Alert.Kind.Describe(), value)
		}
		e.log.Warn("threshold breached", "channel", channel, "value", value, "kind", d.Alert.Kind, "alert_id", d.Alert.ID)
		e.emit(domain.InfoStatus(now, "%s", msg))
		e.count(observability.AlertsSent, 1)
	}
	for _, k := range d.Suppressed {
		e.log.Info("alert suppressed", "channel", channel, "value", value, "kind", k)
		e.emit(domain.InfoStatus(now, "Alert: %s %s at %.2f°C. Notification suppressed (cooldown).", channel, k.Describe(), value))
		e.count(observability.AlertsSuppressed, 1)
	}
}

func (e *Engine) emit(st domain.StatusEvent) {
	if e.status != nil {
		e.status.Put(domain.StatusOf(st))
	}
}

func (e *Engine) count(name string, v float64) {
	if e.obs != nil {
		e.obs.IncCounter(name, v)
	}
}

// LastAlertAt returns when the gate last opened; zero if never.
func (e *Engine) LastAlertAt() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastAlertAt
}

var _ ports.SampleObserver = (*Engine)(nil)
