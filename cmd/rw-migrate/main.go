package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/tuanvumaihuynh/restock-watch/internal/config"
	"github.com/tuanvumaihuynh/restock-watch/internal/log"
	"github.com/tuanvumaihuynh/restock-watch/internal/storage/db"
	"github.com/tuanvumaihuynh/restock-watch/internal/storage/sqlite"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("error running migrate application: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	time.Local = time.UTC

	type Config struct {
		Log   config.Log
		Store config.Store
	}
	cfg, err := config.New[Config]()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logger := log.NewSlogLogger(cfg.Log)

	logger.InfoContext(ctx, "starting database migration")

	switch cfg.Store.Driver {
	case config.StoreDriverSQLite:
		sqliteCfg, err := config.New[config.SQLite]()
		if err != nil {
			return fmt.Errorf("error loading sqlite config: %w", err)
		}

		sqliteDB, err := sqlite.Open(ctx, sqliteCfg)
		if err != nil {
			return fmt.Errorf("error opening sqlite: %w", err)
		}
		defer sqliteDB.Close()

		if err := sqliteDB.Migrate(ctx); err != nil {
			return fmt.Errorf("error migrating sqlite: %w", err)
		}
	default:
		pgCfg, err := config.New[config.Postgres]()
		if err != nil {
			return fmt.Errorf("error loading postgres config: %w", err)
		}

		pgxPool, err := db.NewPgxPool(ctx, pgCfg)
		if err != nil {
			return fmt.Errorf("error creating pgx pool: %w", err)
		}
		defer pgxPool.Close()

		if err := db.Migrate(ctx, pgxPool); err != nil {
			return fmt.Errorf("error migrating database: %w", err)
		}
	}

	logger.InfoContext(ctx, "database migration completed successfully")

	return nil
}
