package notify

import (
	"context"

	"go.uber.org/multierr"

	"github.com/kaanureyen/emabot/cmd/shared/dispatch"
)

// Multi sends every message to all of its notifiers, a failing one does not stop the rest.
type Multi []dispatch.Notifier

func (m Multi) Notify(ctx context.Context, message string) error {
	var err error
	for _, n := range m {
		err = multierr.Append(err, n.Notify(ctx, message))
	}
	return err
}
