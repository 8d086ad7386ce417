package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the query surface shared by the pool and an open transaction,
// so repositories work the same inside and outside WithTx.
type DB interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	SendBatch(context.Context, *pgx.Batch) pgx.BatchResults

	// WithTx runs txFunc in a transaction, committing when it returns nil.
	// Called on a transaction it opens a savepoint.
	WithTx(ctx context.Context, txFunc func(DB) error) error
}

// HealthChecker reports whether a backing store is reachable.
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

var (
	_ DB            = (*Client)(nil)
	_ DB            = (*txDB)(nil)
	_ HealthChecker = (*Client)(nil)
)

type Client struct {
	*pgxpool.Pool
}

func NewClient(pool *pgxpool.Pool) *Client {
	return &Client{pool}
}

func (c *Client) WithTx(ctx context.Context, txFunc func(DB) error) error {
	err := pgx.BeginFunc(ctx, c.Pool, func(tx pgx.Tx) error {
		return txFunc(&txDB{Tx: tx})
	})
	if err != nil {
		return fmt.Errorf("postgres tx: %w", err)
	}
	return nil
}

func (c *Client) CheckHealth(ctx context.Context) error {
	if err := c.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

type txDB struct {
	pgx.Tx
}

func (t *txDB) WithTx(ctx context.Context, txFunc func(DB) error) error {
	return pgx.BeginFunc(ctx, t.Tx, func(sp pgx.Tx) error {
		return txFunc(&txDB{Tx: sp})
	})
}
