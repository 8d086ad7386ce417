package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/tuanvumaihuynh/restock-watch/internal/config"
	"github.com/tuanvumaihuynh/restock-watch/internal/event"
	"github.com/tuanvumaihuynh/restock-watch/internal/http"
	"github.com/tuanvumaihuynh/restock-watch/internal/log"
	"github.com/tuanvumaihuynh/restock-watch/internal/notify"
	"github.com/tuanvumaihuynh/restock-watch/internal/reconcile"
	"github.com/tuanvumaihuynh/restock-watch/internal/relay"
	"github.com/tuanvumaihuynh/restock-watch/internal/repository"
	"github.com/tuanvumaihuynh/restock-watch/internal/service"
	"github.com/tuanvumaihuynh/restock-watch/internal/source"
	"github.com/tuanvumaihuynh/restock-watch/internal/storage/db"
	"github.com/tuanvumaihuynh/restock-watch/internal/storage/mq"
	"github.com/tuanvumaihuynh/restock-watch/internal/telemetry"
	"github.com/tuanvumaihuynh/restock-watch/internal/watcher"
	"github.com/tuanvumaihuynh/restock-watch/pkg/cmdutil"
	"github.com/tuanvumaihuynh/restock-watch/pkg/validator"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("error running standalone application: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	time.Local = time.UTC

	type Config struct {
		Log      config.Log
		Postgres config.Postgres
		HTTP     config.HTTP
		Relay    config.Relay
		Kafka    config.Kafka
		Otel     config.Otel
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

	pgxPool, err := db.NewPgxPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("error creating pgx pool: %w", err)
	}
	defer pgxPool.Close()

	if err := db.Migrate(ctx, pgxPool); err != nil {
		return fmt.Errorf("error migrating database: %w", err)
	}

	dbClient := db.NewClient(pgxPool)

	kafkaProducer, err := mq.NewKafkaProducer(ctx, cfg.Kafka)
	if err != nil {
		return fmt.Errorf("error creating kafka producer: %w", err)
	}
	defer kafkaProducer.Close()

	kafkaConsumer, err := mq.NewKafkaConsumer(ctx, cfg.Kafka, logger)
	if err != nil {
		return fmt.Errorf("error creating kafka consumer: %w", err)
	}
	defer kafkaConsumer.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	stockRepository := repository.NewStockRepository(dbClient)
	outboxMsgRepository := repository.NewOutboxMsgRepository(dbClient)

	stockService := service.NewStockService(stockRepository, dbClient)

	// restocks go through the outbox; the event service delivers them
	deliverers, err := notify.NewDelivery(cfg.Notifier, cfg.Telegram, logger)
	if err != nil {
		return fmt.Errorf("error creating notifiers: %w", err)
	}
	reconciler := reconcile.New(
		stockRepository,
		notify.NewOutboxNotifier(dbClient, outboxMsgRepository, logger),
		validator.MustNewDefaultValidator(),
		logger,
	)

	interruptChan := cmdutil.InterruptChan()
	var wg sync.WaitGroup

	wg.Go(func() {
		svc := event.New(logger, kafkaConsumer, deliverers)
		cleanup, err := svc.Run(ctx)
		if err != nil {
			panic(fmt.Errorf("error running event service: %w", err))
		}
		logger.InfoContext(ctx, "event service started")

		<-interruptChan

		logger.InfoContext(ctx, "event service is shutting down")
		cleanup()

		logger.InfoContext(ctx, "event service is stopped")
	})

	wg.Go(func() {
		svc := http.New(cfg.HTTP, logger, reg, stockService)
		cleanup, err := svc.Run(ctx)
		if err != nil {
			panic(fmt.Errorf("error running http service: %w", err))
		}

		logger.InfoContext(ctx, "http service started", slog.String("address", cfg.HTTP.Addr()))

		<-interruptChan

		logger.InfoContext(ctx, "http service is shutting down")
		if err := cleanup(ctx); err != nil {
			logger.ErrorContext(ctx, "error shutting down http service", slog.Any("error", err))
		}

		logger.InfoContext(ctx, "http service is stopped")
	})

	wg.Go(func() {
		svc := relay.NewService(cfg.Relay, logger, dbClient, outboxMsgRepository, kafkaProducer)
		cleanup := svc.Run(ctx)
		logger.InfoContext(ctx, "relay service started")

		<-interruptChan

		logger.InfoContext(ctx, "relay service is shutting down")
		cleanup()

		logger.InfoContext(ctx, "relay service is stopped")
	})

	wg.Go(func() {
		svc := watcher.NewService(
			cfg.Watcher,
			logger,
			source.NewDefaultChain(cfg.Source, logger),
			reconciler,
			watcher.NewMetrics(reg),
		)
		cleanup := svc.Run(ctx)
		logger.InfoContext(ctx, "watcher service started", slog.String("region_code", cfg.Watcher.RegionCode))

		<-interruptChan

		logger.InfoContext(ctx, "watcher service is shutting down")
		cleanup()

		logger.InfoContext(ctx, "watcher service is stopped")
	})

	wg.Wait()

	return nil
}
