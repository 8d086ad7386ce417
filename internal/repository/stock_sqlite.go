package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tuanvumaihuynh/restock-watch/internal/model"
)

var _ StockRepository = (*SQLiteStockRepository)(nil)

// SQLiteStockRepository stores stock state in the single-file "items" table.
type SQLiteStockRepository struct {
	db *sql.DB
}

func NewSQLiteStockRepository(db *sql.DB) *SQLiteStockRepository {
	return &SQLiteStockRepository{db: db}
}

func (r SQLiteStockRepository) LoadAvailability(ctx context.Context) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, available FROM items`)
	if err != nil {
		return nil, fmt.Errorf("query items availability: %w", err)
	}
	defer rows.Close()

	availability := map[string]bool{}
	for rows.Next() {
		var (
			id        string
			available sql.NullInt64
		)
		if err := rows.Scan(&id, &available); err != nil {
			return nil, fmt.Errorf("scan items availability: %w", err)
		}
		availability[id] = available.Valid && available.Int64 != 0
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items availability: %w", err)
	}

	return availability, nil
}

func (r SQLiteStockRepository) UpsertStockEntries(ctx context.Context, entries []model.StockEntry) (err error) {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = errors.Join(err, rbErr)
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO items (id, name, quantity, available)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name,
			quantity=excluded.quantity,
			available=excluded.available
	`)
	if err != nil {
		return fmt.Errorf("prepare items upsert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err = stmt.ExecContext(ctx, e.ID, e.Name, e.Quantity, model.AvailableFlag(e.Available)); err != nil {
			return fmt.Errorf("upsert item %s: %w", e.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

func (r SQLiteStockRepository) ListStockEntries(ctx context.Context, params ListStockEntriesParams) ([]model.StockEntry, error) {
	query := `SELECT id, name, quantity, available FROM items`
	var args []any
	if params.Available != nil {
		query += ` WHERE available = ?`
		args = append(args, model.AvailableFlag(*params.Available))
	}
	query += ` ORDER BY name, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	entries := []model.StockEntry{}
	for rows.Next() {
		var (
			e         model.StockEntry
			name      sql.NullString
			quantity  sql.NullInt64
			available sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &name, &quantity, &available); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		e.Name = name.String
		e.Quantity = int(quantity.Int64)
		e.Available = available.Valid && available.Int64 != 0
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}

	return entries, nil
}
