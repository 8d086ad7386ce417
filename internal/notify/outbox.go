package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/tuanvumaihuynh/restock-watch/internal/event"
	"github.com/tuanvumaihuynh/restock-watch/internal/model"
	"github.com/tuanvumaihuynh/restock-watch/internal/repository"
	"github.com/tuanvumaihuynh/restock-watch/internal/storage/db"
	"github.com/tuanvumaihuynh/restock-watch/pkg/outbox"
	"github.com/tuanvumaihuynh/restock-watch/pkg/ptr"
)

var _ Notifier = (*OutboxNotifier)(nil)

// OutboxNotifier queues stock.restocked events in the outbox table for the relay.
type OutboxNotifier struct {
	db            db.DB
	outboxMsgRepo repository.OutboxMsgRepository
	logger        *slog.Logger
	now           func() time.Time
}

func NewOutboxNotifier(db db.DB, outboxMsgRepo repository.OutboxMsgRepository, logger *slog.Logger) *OutboxNotifier {
	return &OutboxNotifier{
		db:            db,
		outboxMsgRepo: outboxMsgRepo,
		logger:        logger.With(slog.String("notifier", "outbox")),
		now:           time.Now,
	}
}

func (n *OutboxNotifier) Notify(ctx context.Context, transitions []model.Transition) {
	if len(transitions) == 0 {
		return
	}

	if err := n.queue(ctx, transitions); err != nil {
		n.logger.ErrorContext(ctx, "error queueing outbox msgs",
			slog.Int("count", len(transitions)),
			slog.Any("error", err),
		)
	}
}

func (n *OutboxNotifier) queue(ctx context.Context, transitions []model.Transition) error {
	headers := outbox.BuildHeaders(ctx)
	now := n.now()

	params := make([]repository.CreateOutboxMsgParams, 0, len(transitions))
	for _, t := range transitions {
		payload, err := json.Marshal(event.NewStockRestockedEvent(t, now))
		if err != nil {
			return fmt.Errorf("marshal event: %w", err)
		}

		params = append(params, repository.CreateOutboxMsgParams{
			Topic:        event.TopicStockRestocked,
			Headers:      headers,
			Payload:      payload,
			PartitionKey: ptr.New(t.ID),
		})
	}

	if err := n.db.WithTx(ctx, func(db db.DB) error {
		if err := n.outboxMsgRepo.
			WithDB(db).
			CreateOutboxMsgs(ctx, params); err != nil {
			return fmt.Errorf("outbox msg repository create outbox msgs: %w", err)
		}

		return nil
	}); err != nil {
		return fmt.Errorf("db with tx: %w", err)
	}

	n.logger.InfoContext(ctx, "queued outbox msgs", slog.Int("count", len(params)))

	return nil
}
