// Package control records operator intents addressed to the device.
// Nothing here talks to the device; intents are kept for display.
package control

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/NoahOriano/SeniorDesignTeam8/internal/domain"
	"github.com/NoahOriano/SeniorDesignTeam8/internal/ports"
)

const (
	CommandSetSensor = "set_sensor"

	DefaultHistory = 64
)

var ErrNoChannel = errors.New("control: channel is required")

type RecorderConfig struct {
	History int
	Status  ports.EventSink
	Logger  *slog.Logger
	Now     func() time.Time
}

type Recorder struct {
	mu      sync.Mutex
	intents map[string]bool
	history []domain.Command
	limit   int

	status ports.EventSink
	log    *slog.Logger
	now    func() time.Time
}

func NewRecorder(cfg RecorderConfig) *Recorder {
	if cfg.History <= 0 {
		cfg.History = DefaultHistory
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Recorder{
		intents: make(map[string]bool),
		limit:   cfg.History,
		status:  cfg.Status,
		log:     cfg.Logger.With("component", "control"),
		now:     cfg.Now,
	}
}

// Toggle flips the recorded on/off intent for channel. Channels start off,
// so the first toggle records "on".
func (r *Recorder) Toggle(channel string) (domain.Command, error) {
	if channel == "" {
		return domain.Command{}, ErrNoChannel
	}
	now := r.now()

	r.mu.Lock()
	on := !r.intents[channel]
	r.intents[channel] = on
	cmd := domain.Command{
		ID:      uuid.NewString(),
		Name:    CommandSetSensor,
		Channel: channel,
		State:   stateLabel(on),
		At:      now,
	}
	r.history = append(r.history, cmd)
	if len(r.history) > r.limit {
		r.history = append(r.history[:0], r.history[len(r.history)-r.limit:]...)
	}
	r.mu.Unlock()

	r.log.Info("command recorded", "command", cmd.Name, "sensor", channel, "state", cmd.State, "id", cmd.ID)
	if r.status != nil {
		r.status.Put(domain.StatusOf(domain.InfoStatus(now, "command recorded: %s %s %s", cmd.Name, channel, cmd.State)))
	}
	return cmd, nil
}

// Intent reports the recorded state for channel.
func (r *Recorder) Intent(channel string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.intents[channel]
}

// History returns recorded commands, oldest first.
func (r *Recorder) History() []domain.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Command, len(r.history))
	copy(out, r.history)
	return out
}

func stateLabel(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
