package notifier

import (
	"context"
	"log/slog"

	"github.com/NoahOriano/SeniorDesignTeam8/internal/domain"
)

// Log writes alerts to the structured log. It never fails.
type Log struct {
	log *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{log: logger.With("component", "alerts")}
}

func (l *Log) Name() string { return "log" }

func (l *Log) Notify(_ context.Context, ev domain.AlertEvent) error {
	l.log.Warn(ev.Body(),
		"alert_id", ev.ID,
		"channel", ev.ChannelID,
		"value", ev.Value,
		"kind", ev.Kind,
		"threshold", ev.Threshold,
	)
	return nil
}
