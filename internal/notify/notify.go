// Package notify delivers back-in-stock notifications.
//
// Notifiers never return errors: a failed delivery is logged and dropped so that
// it cannot affect the persisted stock state.
package notify

import (
	"context"

	"github.com/tuanvumaihuynh/restock-watch/internal/model"
)

type Notifier interface {
	Notify(ctx context.Context, transitions []model.Transition)
}

// Multi fans a batch out to every notifier in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, transitions []model.Transition) {
	for _, n := range m {
		n.Notify(ctx, transitions)
	}
}
