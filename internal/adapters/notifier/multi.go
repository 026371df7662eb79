package notifier

import (
	"context"
	"errors"
	"strings"

	"github.com/NoahOriano/SeniorDesignTeam8/internal/domain"
	"github.com/NoahOriano/SeniorDesignTeam8/internal/ports"
)

// Multi fans an alert out to every notifier and joins their errors.
type Multi struct {
	notifiers []ports.Notifier
}

func NewMulti(notifiers ...ports.Notifier) *Multi {
	out := make([]ports.Notifier, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			out = append(out, n)
		}
	}
	return &Multi{notifiers: out}
}

func (m *Multi) Name() string {
	names := make([]string, 0, len(m.notifiers))
	for _, n := range m.notifiers {
		names = append(names, n.Name())
	}
	return strings.Join(names, "+")
}

func (m *Multi) Len() int { return len(m.notifiers) }

func (m *Multi) Notify(ctx context.Context, ev domain.AlertEvent) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ ports.Notifier = (*Multi)(nil)
