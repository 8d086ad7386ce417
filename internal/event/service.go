package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/tuanvumaihuynh/restock-watch/internal/model"
	"github.com/tuanvumaihuynh/restock-watch/internal/storage/mq"
)

// Deliverer hands restock notifications to their final channel.
type Deliverer interface {
	Notify(ctx context.Context, transitions []model.Transition)
}

// Service is the event service.
type Service struct {
	logger     *slog.Logger
	mqConsumer mq.Consumer
	deliverer  Deliverer
}

// New creates a new event service.
func New(
	logger *slog.Logger,
	mqConsumer mq.Consumer,
	deliverer Deliverer,
) *Service {
	return &Service{
		logger:     logger.With(slog.String("service", "event")),
		mqConsumer: mqConsumer,
		deliverer:  deliverer,
	}
}

type CleanupFunc func()

func (s *Service) Run(ctx context.Context) (CleanupFunc, error) {
	if err := s.mqConsumer.RegisterHandler(TopicStockRestocked, s.handleStockRestocked); err != nil {
		return nil, fmt.Errorf("register stock restocked event handler: %w", err)
	}

	mqCleanup, err := s.mqConsumer.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("run mq consumer: %w", err)
	}

	cleanup := func() {
		mqCleanup()
	}

	return cleanup, nil
}

func (s *Service) handleStockRestocked(ctx context.Context, _ string, payload []byte) error {
	var ev StockRestockedEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return fmt.Errorf("unmarshal stock restocked event: %w", err)
	}

	if err := s.handleStockRestockedEvent(ctx, ev); err != nil {
		return fmt.Errorf("handle stock restocked event: %w", err)
	}

	return nil
}
