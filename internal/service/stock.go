package service

import (
	"context"
	"fmt"

	"github.com/tuanvumaihuynh/restock-watch/internal/apperr"
	"github.com/tuanvumaihuynh/restock-watch/internal/model"
	"github.com/tuanvumaihuynh/restock-watch/internal/repository"
	"github.com/tuanvumaihuynh/restock-watch/internal/storage/db"
)

type ListStockItemsParams struct {
	Available *bool
}

type StockService interface {
	ListStockItems(ctx context.Context, params ListStockItemsParams) ([]model.StockEntry, error)
	CheckHealth(ctx context.Context) error
}

type stockService struct {
	stockRepo repository.StockRepository
	health    db.HealthChecker
}

func NewStockService(stockRepo repository.StockRepository, health db.HealthChecker) StockService {
	return &stockService{
		stockRepo: stockRepo,
		health:    health,
	}
}

func (s *stockService) ListStockItems(ctx context.Context, params ListStockItemsParams) ([]model.StockEntry, error) {
	entries, err := s.stockRepo.ListStockEntries(ctx, repository.ListStockEntriesParams{
		Available: params.Available,
	})
	if err != nil {
		return nil, apperr.StoreErr.WrapParent(fmt.Errorf("stock repository list stock entries: %w", err))
	}

	return entries, nil
}

func (s *stockService) CheckHealth(ctx context.Context) error {
	if err := s.health.CheckHealth(ctx); err != nil {
		return apperr.UnavailableErr.WrapParent(err)
	}
	return nil
}
