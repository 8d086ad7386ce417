package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	outcomeOK          = "ok"
	outcomeSourceError = "source_error"
	outcomeStoreError  = "store_error"
	outcomeError       = "error"
)

type Metrics struct {
	CyclesTotal      *prometheus.CounterVec
	TransitionsTotal prometheus.Counter
	SnapshotSize     prometheus.Gauge
	CycleDuration    prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		CyclesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "restock_watch",
			Name:      "cycles_total",
			Help:      "Number of watcher cycles by outcome.",
		}, []string{"outcome"}),
		TransitionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "restock_watch",
			Name:      "transitions_total",
			Help:      "Number of items that became available.",
		}),
		SnapshotSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "restock_watch",
			Name:      "snapshot_size",
			Help:      "Number of records in the last fetched snapshot.",
		}),
		CycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "restock_watch",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of watcher cycles.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
	}
}

// MetricsHandler serves /metrics from g and 404s everything else.
func MetricsHandler(g prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return mux
}

// ServeMetrics exposes MetricsHandler on addr for binaries that run without
// the HTTP API. The returned func shuts the listener down.
func ServeMetrics(ctx context.Context, addr string, g prometheus.Gatherer, logger *slog.Logger) (func(context.Context) error, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           MetricsHandler(g),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorContext(ctx, "metrics server stopped", slog.Any("error", err))
		}
	}()

	return srv.Shutdown, nil
}
