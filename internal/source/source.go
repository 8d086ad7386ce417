package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"

	"github.com/tuanvumaihuynh/restock-watch/internal/apperr"
	"github.com/tuanvumaihuynh/restock-watch/internal/config"
	"github.com/tuanvumaihuynh/restock-watch/internal/model"
)

var tracer = otel.Tracer("internal/source")

// Source fetches the current catalog snapshot for a region.
// Every failure is reported as an [apperr.SourceErr].
type Source interface {
	FetchSnapshot(ctx context.Context, regionCode string) ([]model.ProductRecord, error)
}

// Strategy is a named Source taking part in a Chain.
type Strategy struct {
	Name   string
	Source Source
}

var _ Source = (*Chain)(nil)

// Chain tries its strategies in order and returns the first successful snapshot.
type Chain struct {
	logger     *slog.Logger
	strategies []Strategy
}

func NewChain(logger *slog.Logger, strategies ...Strategy) *Chain {
	return &Chain{
		logger:     logger.With(slog.String("service", "source")),
		strategies: strategies,
	}
}

func (c *Chain) FetchSnapshot(ctx context.Context, regionCode string) ([]model.ProductRecord, error) {
	if len(c.strategies) == 0 {
		return nil, apperr.SourceErr.WrapParent(errors.New("no snapshot strategy configured"))
	}

	var errs []error
	for _, s := range c.strategies {
		records, err := s.Source.FetchSnapshot(ctx, regionCode)
		if err != nil {
			c.logger.WarnContext(ctx, "snapshot strategy failed",
				slog.String("strategy", s.Name),
				slog.Any("error", err),
			)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
			continue
		}

		c.logger.InfoContext(ctx, "snapshot fetched",
			slog.String("strategy", s.Name),
			slog.Int("count", len(records)),
		)
		return records, nil
	}

	return nil, apperr.SourceErr.WrapParent(errors.Join(errs...))
}

// NewDefaultChain tries the captured session of the region first and falls back
// to the credentials from configuration.
func NewDefaultChain(cfg config.Source, logger *slog.Logger) *Chain {
	var strategies []Strategy
	if cfg.SessionDir != "" {
		storage := NewSessionStorage(cfg.SessionDir)
		strategies = append(strategies, Strategy{
			Name:   "session",
			Source: NewHTTPSource(cfg, logger, NewSessionCredentials(storage, logger)),
		})
	}
	strategies = append(strategies, Strategy{
		Name:   "static",
		Source: NewHTTPSource(cfg, logger, NewStaticCredentials(cfg)),
	})

	return NewChain(logger, strategies...)
}
