package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/tuanvumaihuynh/restock-watch/internal/event"
	"github.com/tuanvumaihuynh/restock-watch/internal/model"
	"github.com/tuanvumaihuynh/restock-watch/internal/storage/mq"
	"github.com/tuanvumaihuynh/restock-watch/pkg/outbox"
	"github.com/tuanvumaihuynh/restock-watch/pkg/ptr"
)

var _ Notifier = (*KafkaNotifier)(nil)

// KafkaNotifier publishes one stock.restocked event per transition, keyed by item id.
type KafkaNotifier struct {
	producer mq.Producer
	logger   *slog.Logger
	now      func() time.Time
}

func NewKafkaNotifier(producer mq.Producer, logger *slog.Logger) *KafkaNotifier {
	return &KafkaNotifier{
		producer: producer,
		logger:   logger.With(slog.String("notifier", "kafka")),
		now:      time.Now,
	}
}

func (n *KafkaNotifier) Notify(ctx context.Context, transitions []model.Transition) {
	headers := outbox.BuildHeaders(ctx)
	now := n.now()

	for _, t := range transitions {
		payload, err := json.Marshal(event.NewStockRestockedEvent(t, now))
		if err != nil {
			n.logger.ErrorContext(ctx, "error marshaling event", slog.String("item_id", t.ID), slog.Any("error", err))
			continue
		}

		if err := n.producer.Produce(ctx, mq.ProduceMsg{
			Topic:        event.TopicStockRestocked,
			Headers:      headers,
			Payload:      payload,
			PartitionKey: ptr.New(t.ID),
		}); err != nil {
			n.logger.ErrorContext(ctx, "error producing event", slog.String("item_id", t.ID), slog.Any("error", err))
		}
	}
}
