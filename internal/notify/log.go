package notify

import (
	"context"
	"log/slog"

	"github.com/tuanvumaihuynh/restock-watch/internal/model"
)

var _ Notifier = (*LogNotifier)(nil)

// LogNotifier writes one INFO line per transition.
type LogNotifier struct {
	logger   *slog.Logger
	renderer *Renderer
}

func NewLogNotifier(logger *slog.Logger, renderer *Renderer) *LogNotifier {
	return &LogNotifier{
		logger:   logger.With(slog.String("notifier", "log")),
		renderer: renderer,
	}
}

func (n *LogNotifier) Notify(ctx context.Context, transitions []model.Transition) {
	for _, t := range transitions {
		msg, err := n.renderer.Render(t)
		if err != nil {
			n.logger.ErrorContext(ctx, "error rendering notification", slog.String("item_id", t.ID), slog.Any("error", err))
			continue
		}

		n.logger.InfoContext(ctx, msg,
			slog.String("item_id", t.ID),
			slog.Int("quantity", t.Quantity),
		)
	}
}
