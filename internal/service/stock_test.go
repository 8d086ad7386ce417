package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/restock-watch/internal/apperr"
	"github.com/tuanvumaihuynh/restock-watch/internal/model"
	"github.com/tuanvumaihuynh/restock-watch/internal/repository"
	"github.com/tuanvumaihuynh/restock-watch/internal/service"
	"github.com/tuanvumaihuynh/restock-watch/pkg/ptr"
)

type mockStockRepo struct {
	mock.Mock
}

func (m *mockStockRepo) LoadAvailability(ctx context.Context) (map[string]bool, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[string]bool), args.Error(1)
}

func (m *mockStockRepo) UpsertStockEntries(ctx context.Context, entries []model.StockEntry) error {
	return m.Called(ctx, entries).Error(0)
}

func (m *mockStockRepo) ListStockEntries(ctx context.Context, params repository.ListStockEntriesParams) ([]model.StockEntry, error) {
	args := m.Called(ctx, params)
	return args.Get(0).([]model.StockEntry), args.Error(1)
}

type healthFunc func(ctx context.Context) error

func (f healthFunc) CheckHealth(ctx context.Context) error { return f(ctx) }

func TestStockService_ListStockItems(t *testing.T) {
	ctx := context.Background()
	healthy := healthFunc(func(context.Context) error { return nil })

	t.Run("Should pass the availability filter", func(t *testing.T) {
		repo := &mockStockRepo{}
		want := []model.StockEntry{{ID: "A", Name: "Protein Milk", Quantity: 5, Available: true}}
		repo.On("ListStockEntries", mock.Anything, repository.ListStockEntriesParams{Available: ptr.New(true)}).
			Return(want, nil)

		got, err := service.NewStockService(repo, healthy).
			ListStockItems(ctx, service.ListStockItemsParams{Available: ptr.New(true)})
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("Should wrap repository errors", func(t *testing.T) {
		repo := &mockStockRepo{}
		repo.On("ListStockEntries", mock.Anything, mock.Anything).
			Return([]model.StockEntry(nil), errors.New("connection reset"))

		_, err := service.NewStockService(repo, healthy).ListStockItems(ctx, service.ListStockItemsParams{})
		assert.True(t, apperr.IsStoreErr(err))
	})
}

func TestStockService_CheckHealth(t *testing.T) {
	ctx := context.Background()

	require.NoError(t, service.NewStockService(&mockStockRepo{}, healthFunc(func(context.Context) error { return nil })).CheckHealth(ctx))

	err := service.NewStockService(&mockStockRepo{}, healthFunc(func(context.Context) error { return errors.New("ping timeout") })).CheckHealth(ctx)
	assert.ErrorIs(t, err, apperr.UnavailableErr)
}
