package event

import (
	"context"
	"log/slog"
	"time"

	"github.com/tuanvumaihuynh/restock-watch/internal/model"
)

const TopicStockRestocked = "stock.restocked"

type StockRestockedEvent struct {
	ItemID      string    `json:"item_id"`
	Name        string    `json:"name"`
	Quantity    int       `json:"quantity"`
	RestockedAt time.Time `json:"restocked_at"`
}

func NewStockRestockedEvent(t model.Transition, at time.Time) StockRestockedEvent {
	return StockRestockedEvent{
		ItemID:      t.ID,
		Name:        t.Name,
		Quantity:    t.Quantity,
		RestockedAt: at.UTC(),
	}
}

func (e StockRestockedEvent) Transition() model.Transition {
	return model.Transition{
		ID:       e.ItemID,
		Name:     e.Name,
		Quantity: e.Quantity,
	}
}

func (s *Service) handleStockRestockedEvent(ctx context.Context, ev StockRestockedEvent) error {
	s.logger.InfoContext(ctx, "handling stock restocked event",
		slog.String("item_id", ev.ItemID),
		slog.Time("restocked_at", ev.RestockedAt),
	)
	s.deliverer.Notify(ctx, []model.Transition{ev.Transition()})
	return nil
}
