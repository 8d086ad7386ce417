package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tuanvumaihuynh/restock-watch/internal/config"
	"github.com/tuanvumaihuynh/restock-watch/internal/log"
	"github.com/tuanvumaihuynh/restock-watch/internal/notify"
	"github.com/tuanvumaihuynh/restock-watch/internal/reconcile"
	"github.com/tuanvumaihuynh/restock-watch/internal/repository"
	"github.com/tuanvumaihuynh/restock-watch/internal/source"
	"github.com/tuanvumaihuynh/restock-watch/internal/storage/db"
	"github.com/tuanvumaihuynh/restock-watch/internal/storage/mq"
	"github.com/tuanvumaihuynh/restock-watch/internal/storage/sqlite"
	"github.com/tuanvumaihuynh/restock-watch/internal/telemetry"
	"github.com/tuanvumaihuynh/restock-watch/internal/watcher"
	"github.com/tuanvumaihuynh/restock-watch/pkg/cmdutil"
	"github.com/tuanvumaihuynh/restock-watch/pkg/validator"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("error running watcher application: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	time.Local = time.UTC

	type Config struct {
		Log      config.Log
		Otel     config.Otel
		Store    config.Store
		Watcher  config.Watcher
		Source   config.Source
		Notifier config.Notifier
		Telegram config.Telegram
	}
	cfg, err := config.New[Config]()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logger := log.NewSlogLogger(cfg.Log)

	cleanupTracer, err := telemetry.InitTracer(ctx, cfg.Otel)
	if err != nil {
		return fmt.Errorf("error initializing tracer: %w", err)
	}
	defer func() {
		if err := cleanupTracer(ctx); err != nil {
			logger.ErrorContext(ctx, "error cleaning up tracer", slog.Any("error", err))
		}
	}()

	var (
		store    reconcile.Store
		dbClient *db.Client
	)
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

		store = repository.NewSQLiteStockRepository(sqliteDB.DB)
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

		dbClient = db.NewClient(pgxPool)
		store = repository.NewStockRepository(dbClient)
	}

	notifiers, err := notify.NewDelivery(cfg.Notifier, cfg.Telegram, logger)
	if err != nil {
		return fmt.Errorf("error creating notifiers: %w", err)
	}

	if cfg.Notifier.Has(config.NotifierChannelKafka) {
		kafkaCfg, err := config.New[config.Kafka]()
		if err != nil {
			return fmt.Errorf("error loading kafka config: %w", err)
		}

		kafkaProducer, err := mq.NewKafkaProducer(ctx, kafkaCfg)
		if err != nil {
			return fmt.Errorf("error creating kafka producer: %w", err)
		}
		defer kafkaProducer.Close()

		notifiers = append(notifiers, notify.NewKafkaNotifier(kafkaProducer, logger))
	}

	if cfg.Notifier.Has(config.NotifierChannelOutbox) {
		if dbClient == nil {
			return errors.New("outbox notifier requires the POSTGRES store driver")
		}
		notifiers = append(notifiers, notify.NewOutboxNotifier(dbClient, repository.NewOutboxMsgRepository(dbClient), logger))
	}

	reconciler := reconcile.New(store, notifiers, validator.MustNewDefaultValidator(), logger)
	svc := watcher.NewService(
		cfg.Watcher,
		logger,
		source.NewDefaultChain(cfg.Source, logger),
		reconciler,
		watcher.NewMetrics(prometheus.DefaultRegisterer),
	)

	if cfg.Watcher.RunOnce {
		if _, err := svc.RunCycle(ctx); err != nil {
			return fmt.Errorf("error running cycle: %w", err)
		}
		return nil
	}

	if cfg.Watcher.MetricsAddr != "" {
		shutdownMetrics, err := watcher.ServeMetrics(ctx, cfg.Watcher.MetricsAddr, prometheus.DefaultGatherer, logger)
		if err != nil {
			return fmt.Errorf("error serving metrics: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownMetrics(shutdownCtx); err != nil {
				logger.ErrorContext(ctx, "error shutting down metrics server", slog.Any("error", err))
			}
		}()
		logger.InfoContext(ctx, "metrics server started", slog.String("address", cfg.Watcher.MetricsAddr))
	}

	cleanup := svc.Run(ctx)
	logger.InfoContext(ctx, "watcher service started",
		slog.String("region_code", cfg.Watcher.RegionCode),
		slog.Duration("interval", cfg.Watcher.Interval),
	)

	<-cmdutil.InterruptChan()

	logger.InfoContext(ctx, "watcher service is shutting down")
	cleanup()

	logger.InfoContext(ctx, "watcher service is stopped")

	return nil
}
