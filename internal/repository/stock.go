package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tuanvumaihuynh/restock-watch/internal/model"
	"github.com/tuanvumaihuynh/restock-watch/internal/storage/db"
)

type ListStockEntriesParams struct {
	// Available filters by availability when set.
	Available *bool
}

type StockRepository interface {
	// LoadAvailability returns the persisted availability flag of every known item.
	LoadAvailability(ctx context.Context) (map[string]bool, error)
	// UpsertStockEntries writes all entries in a single batch.
	UpsertStockEntries(ctx context.Context, entries []model.StockEntry) error
	ListStockEntries(ctx context.Context, params ListStockEntriesParams) ([]model.StockEntry, error)
}

var _ StockRepository = (*PgStockRepository)(nil)

type PgStockRepository struct {
	db db.DB
}

func NewStockRepository(db db.DB) *PgStockRepository {
	return &PgStockRepository{db: db}
}

func (r PgStockRepository) WithDB(db db.DB) *PgStockRepository {
	return &PgStockRepository{db: db}
}

func (r PgStockRepository) LoadAvailability(ctx context.Context) (map[string]bool, error) {
	rows, err := r.db.Query(ctx, `SELECT id, available FROM stock_items`)
	if err != nil {
		return nil, fmt.Errorf("query stock availability: %w", err)
	}
	defer rows.Close()

	availability := map[string]bool{}
	for rows.Next() {
		var (
			id        string
			available int16
		)
		if err := rows.Scan(&id, &available); err != nil {
			return nil, fmt.Errorf("scan stock availability: %w", err)
		}
		availability[id] = available != 0
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stock availability: %w", err)
	}

	return availability, nil
}

func (r PgStockRepository) UpsertStockEntries(ctx context.Context, entries []model.StockEntry) error {
	if len(entries) == 0 {
		return nil
	}

	ids := make([]string, 0, len(entries))
	names := make([]string, 0, len(entries))
	quantities := make([]int64, 0, len(entries))
	available := make([]int16, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
		names = append(names, e.Name)
		quantities = append(quantities, int64(e.Quantity))
		available = append(available, model.AvailableFlag(e.Available))
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO stock_items (id, name, quantity, available)
		SELECT *
		FROM UNNEST(
			@ids::text[],
			@names::text[],
			@quantities::bigint[],
			@available::smallint[]
		)
		ON CONFLICT (id) DO UPDATE SET
			name      = EXCLUDED.name,
			quantity  = EXCLUDED.quantity,
			available = EXCLUDED.available;
	`, pgx.NamedArgs{
		"ids":        ids,
		"names":      names,
		"quantities": quantities,
		"available":  available,
	})
	if err != nil {
		return fmt.Errorf("stock items bulk upsert: %w", err)
	}

	return nil
}

func (r PgStockRepository) ListStockEntries(ctx context.Context, params ListStockEntriesParams) ([]model.StockEntry, error) {
	var available *int16
	if params.Available != nil {
		flag := model.AvailableFlag(*params.Available)
		available = &flag
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, name, quantity, available
		FROM stock_items
		WHERE @available::smallint IS NULL OR available = @available::smallint
		ORDER BY name, id;
	`, pgx.NamedArgs{
		"available": available,
	})
	if err != nil {
		return nil, fmt.Errorf("query stock items: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.StockEntry, error) {
		var (
			e        model.StockEntry
			quantity int64
			flag     int16
		)
		if err := row.Scan(&e.ID, &e.Name, &quantity, &flag); err != nil {
			return model.StockEntry{}, err
		}
		e.Quantity = int(quantity)
		e.Available = flag != 0
		return e, nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect stock items: %w", err)
	}

	return entries, nil
}
