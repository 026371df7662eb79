package ports

import (
	"context"

	"github.com/NoahOriano/SeniorDesignTeam8/internal/domain"
)

// Notifier delivers an alert. A non-nil error means delivery failed.
type Notifier interface {
	Notify(ctx context.Context, ev domain.AlertEvent) error
	Name() string
}

// AlertPublisher accepts alerts for delivery without blocking the caller.
// It returns false when the alert could not be queued.
type AlertPublisher interface {
	Publish(ev domain.AlertEvent) bool
}
