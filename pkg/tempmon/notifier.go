package tempmon

import (
	"context"

	"github.com/NoahOriano/SeniorDesignTeam8/internal/adapters/notifier"
)

// NewCallbackNotifier wraps fn as a Notifier. fn runs on the delivery
// goroutine, never on the ingestion path.
func NewCallbackNotifier(name string, fn func(context.Context, AlertEvent) error) (Notifier, error) {
	cb, err := notifier.NewCallback(name, fn)
	if err != nil {
		return nil, err
	}
	return cb, nil
}
