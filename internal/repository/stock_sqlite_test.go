package repository_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/restock-watch/internal/model"
	"github.com/tuanvumaihuynh/restock-watch/internal/repository"
	"github.com/tuanvumaihuynh/restock-watch/pkg/ptr"
)

func newSQLiteRepo(t *testing.T) (*repository.SQLiteStockRepository, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	return repository.NewSQLiteStockRepository(sqlDB), mock
}

func TestSQLiteStockRepository_LoadAvailability(t *testing.T) {
	ctx := context.Background()

	t.Run("Should map 0/1 and null to bool", func(t *testing.T) {
		repo, mock := newSQLiteRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT id, available FROM items")).
			WillReturnRows(sqlmock.NewRows([]string{"id", "available"}).
				AddRow("A", 1).
				AddRow("B", 0).
				AddRow("C", nil))

		got, err := repo.LoadAvailability(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]bool{"A": true, "B": false, "C": false}, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should return error on query failure", func(t *testing.T) {
		repo, mock := newSQLiteRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT id, available FROM items")).
			WillReturnError(errors.New("database is locked"))

		_, err := repo.LoadAvailability(ctx)
		assert.ErrorContains(t, err, "database is locked")
	})
}

func TestSQLiteStockRepository_UpsertStockEntries(t *testing.T) {
	ctx := context.Background()
	upsert := regexp.QuoteMeta("INSERT INTO items (id, name, quantity, available)")

	t.Run("Should upsert every entry in one transaction", func(t *testing.T) {
		repo, mock := newSQLiteRepo(t)
		mock.ExpectBegin()
		prep := mock.ExpectPrepare(upsert)
		prep.ExpectExec().WithArgs("A", "Protein Milk", 5, 1).WillReturnResult(sqlmock.NewResult(0, 1))
		prep.ExpectExec().WithArgs("B", "Whey 30", -2, 0).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.UpsertStockEntries(ctx, []model.StockEntry{
			{ID: "A", Name: "Protein Milk", Quantity: 5, Available: true},
			{ID: "B", Name: "Whey 30", Quantity: -2, Available: false},
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should roll back on failure", func(t *testing.T) {
		repo, mock := newSQLiteRepo(t)
		mock.ExpectBegin()
		prep := mock.ExpectPrepare(upsert)
		prep.ExpectExec().WithArgs("A", "Protein Milk", 5, 1).WillReturnError(errors.New("disk I/O error"))
		mock.ExpectRollback()

		err := repo.UpsertStockEntries(ctx, []model.StockEntry{
			{ID: "A", Name: "Protein Milk", Quantity: 5, Available: true},
		})
		assert.ErrorContains(t, err, "disk I/O error")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should not touch the database for no entries", func(t *testing.T) {
		repo, mock := newSQLiteRepo(t)

		require.NoError(t, repo.UpsertStockEntries(ctx, nil))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSQLiteStockRepository_ListStockEntries(t *testing.T) {
	ctx := context.Background()
	columns := []string{"id", "name", "quantity", "available"}

	t.Run("Should list all entries", func(t *testing.T) {
		repo, mock := newSQLiteRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, quantity, available FROM items ORDER BY name, id")).
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow("A", "Protein Milk", 5, 1).
				AddRow("B", "Whey 30", -2, 0))

		got, err := repo.ListStockEntries(ctx, repository.ListStockEntriesParams{})
		require.NoError(t, err)
		assert.Equal(t, []model.StockEntry{
			{ID: "A", Name: "Protein Milk", Quantity: 5, Available: true},
			{ID: "B", Name: "Whey 30", Quantity: -2, Available: false},
		}, got)
	})

	t.Run("Should filter by availability", func(t *testing.T) {
		repo, mock := newSQLiteRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, quantity, available FROM items WHERE available = ? ORDER BY name, id")).
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows(columns).AddRow("A", "Protein Milk", 5, 1))

		got, err := repo.ListStockEntries(ctx, repository.ListStockEntriesParams{Available: ptr.New(true)})
		require.NoError(t, err)
		assert.Len(t, got, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
