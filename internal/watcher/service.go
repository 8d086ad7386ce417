package watcher

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tuanvumaihuynh/restock-watch/internal/apperr"
	"github.com/tuanvumaihuynh/restock-watch/internal/config"
	"github.com/tuanvumaihuynh/restock-watch/internal/log"
	"github.com/tuanvumaihuynh/restock-watch/internal/model"
	"github.com/tuanvumaihuynh/restock-watch/internal/source"
	"github.com/tuanvumaihuynh/restock-watch/pkg/correlationid"
)

var tracer = otel.Tracer("internal/watcher")

type Reconciler interface {
	Reconcile(ctx context.Context, snapshot []model.ProductRecord) ([]model.Transition, error)
}

// CycleResult summarizes one completed cycle.
type CycleResult struct {
	SnapshotSize int
	Transitions  []model.Transition
}

type Service struct {
	cfg        config.Watcher
	logger     *slog.Logger
	source     source.Source
	reconciler Reconciler
	metrics    *Metrics

	stopChan chan struct{}
}

func NewService(
	cfg config.Watcher,
	logger *slog.Logger,
	src source.Source,
	reconciler Reconciler,
	metrics *Metrics,
) *Service {
	return &Service{
		cfg:        cfg,
		logger:     logger.With(slog.String("service", "watcher")),
		source:     src,
		reconciler: reconciler,
		metrics:    metrics,
		stopChan:   make(chan struct{}),
	}
}

// RunCycle fetches one snapshot and reconciles it.
// A failed fetch returns before anything is written.
func (s *Service) RunCycle(ctx context.Context) (CycleResult, error) {
	return s.runCycle(s.regionContext(ctx))
}

// regionContext tags every log record written under ctx with the region code.
func (s *Service) regionContext(ctx context.Context) context.Context {
	return log.WithContextAttrs(ctx, slog.String("region_code", s.cfg.RegionCode))
}

func (s *Service) runCycle(ctx context.Context) (_ CycleResult, err error) {
	start := time.Now()
	ctx = correlationid.NewContext(ctx, correlationid.New())
	ctx, span := tracer.Start(ctx, "Watcher.RunCycle",
		trace.WithAttributes(attribute.String("region_code", s.cfg.RegionCode)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		s.metrics.CycleDuration.Observe(time.Since(start).Seconds())
		s.metrics.CyclesTotal.WithLabelValues(outcome(err)).Inc()
	}()

	s.logger.InfoContext(ctx, "starting cycle")

	snapshot, err := s.source.FetchSnapshot(ctx, s.cfg.RegionCode)
	if err != nil {
		return CycleResult{}, err
	}

	s.metrics.SnapshotSize.Set(float64(len(snapshot)))
	if len(snapshot) == 0 {
		s.logger.WarnContext(ctx, "snapshot is empty")
	}

	transitions, err := s.reconciler.Reconcile(ctx, snapshot)
	if err != nil {
		return CycleResult{}, err
	}

	s.metrics.TransitionsTotal.Add(float64(len(transitions)))
	s.logger.InfoContext(ctx, "cycle completed",
		slog.Int("snapshot_size", len(snapshot)),
		slog.Int("transitions", len(transitions)),
		slog.Duration("duration", time.Since(start)),
	)

	return CycleResult{SnapshotSize: len(snapshot), Transitions: transitions}, nil
}

type CleanupFunc func()

// Run starts the first cycle immediately and then one cycle per interval,
// measured from the end of the previous cycle.
func (s *Service) Run(ctx context.Context) CleanupFunc {
	ctx, cancel := context.WithCancel(ctx)

	stoppedChan := make(chan struct{})
	go func() {
		defer close(stoppedChan)
		s.run(ctx)
	}()

	return func() {
		close(s.stopChan)
		select {
		case <-stoppedChan:
		case <-time.After(5 * time.Second):
			cancel()
			<-stoppedChan
		}
		cancel()
	}
}

func (s *Service) run(ctx context.Context) {
	ctx = s.regionContext(ctx)
	for {
		if _, err := s.runCycle(ctx); err != nil {
			s.logger.ErrorContext(ctx, "error running cycle", slog.Any("error", err))
		}

		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-time.After(s.cfg.Interval):
		}
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case apperr.IsSourceErr(err):
		return outcomeSourceError
	case apperr.IsStoreErr(err):
		return outcomeStoreError
	default:
		return outcomeError
	}
}
