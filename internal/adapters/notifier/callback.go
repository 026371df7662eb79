package notifier

import (
	"context"
	"errors"

	"github.com/NoahOriano/SeniorDesignTeam8/internal/domain"
)

// Callback hands alerts to a user function.
type Callback struct {
	name string
	fn   func(context.Context, domain.AlertEvent) error
}

func NewCallback(name string, fn func(context.Context, domain.AlertEvent) error) (*Callback, error) {
	if fn == nil {
		return nil, errors.New("callback notifier requires a function")
	}
	if name == "" {
		name = "callback"
	}
	return &Callback{name: name, fn: fn}, nil
}

func (c *Callback) Name() string { return c.name }

func (c *Callback) Notify(ctx context.Context, ev domain.AlertEvent) error {
	if err := c.fn(ctx, ev); err != nil {
		return &domain.NotifierError{Notifier: c.name, Err: err}
	}
	return nil
}
