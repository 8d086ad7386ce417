package watcher_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/restock-watch/internal/apperr"
	"github.com/tuanvumaihuynh/restock-watch/internal/config"
	"github.com/tuanvumaihuynh/restock-watch/internal/log"
	"github.com/tuanvumaihuynh/restock-watch/internal/model"
	"github.com/tuanvumaihuynh/restock-watch/internal/reconcile"
	"github.com/tuanvumaihuynh/restock-watch/internal/watcher"
	"github.com/tuanvumaihuynh/restock-watch/pkg/correlationid"
	"github.com/tuanvumaihuynh/restock-watch/pkg/validator"
)

type fakeSource struct {
	mu       sync.Mutex
	snapshot []model.ProductRecord
	err      error
	calls    int
	ids      []string
}

func (s *fakeSource) FetchSnapshot(ctx context.Context, _ string) ([]model.ProductRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	id, _ := correlationid.FromContext(ctx)
	s.ids = append(s.ids, id)
	return s.snapshot, s.err
}

func (s *fakeSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type countingStore struct {
	writes atomic.Int32
	state  map[string]bool
}

func (s *countingStore) LoadAvailability(context.Context) (map[string]bool, error) {
	return s.state, nil
}

func (s *countingStore) UpsertStockEntries(_ context.Context, entries []model.StockEntry) error {
	s.writes.Add(1)
	for _, e := range entries {
		s.state[e.ID] = e.Available
	}
	return nil
}

type countingNotifier struct {
	calls atomic.Int32
}

func (n *countingNotifier) Notify(context.Context, []model.Transition) {
	n.calls.Add(1)
}

type failingStore struct{}

func (failingStore) LoadAvailability(context.Context) (map[string]bool, error) {
	return map[string]bool{}, nil
}

func (failingStore) UpsertStockEntries(context.Context, []model.StockEntry) error {
	return errors.New("disk full")
}

func newService(src *fakeSource, store reconcile.Store, notifier reconcile.Notifier, interval time.Duration) (*watcher.Service, *watcher.Metrics) {
	metrics := watcher.NewMetrics(prometheus.NewRegistry())
	r := reconcile.New(store, notifier, validator.MustNewDefaultValidator(), log.NewNop())
	cfg := config.Watcher{RegionCode: "110001", Interval: interval}
	return watcher.NewService(cfg, log.NewNop(), src, r, metrics), metrics
}

func TestService_RunCycle(t *testing.T) {
	ctx := context.Background()

	t.Run("Should reconcile the fetched snapshot", func(t *testing.T) {
		src := &fakeSource{snapshot: []model.ProductRecord{
			{ID: "A", Name: "Protein Milk", Quantity: 5, Available: true},
			{ID: "B", Name: "Whey 30", Available: false},
		}}
		store := &countingStore{state: map[string]bool{}}
		notifier := &countingNotifier{}
		svc, metrics := newService(src, store, notifier, time.Minute)

		res, err := svc.RunCycle(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, res.SnapshotSize)
		assert.Equal(t, []model.Transition{{ID: "A", Name: "Protein Milk", Quantity: 5}}, res.Transitions)
		assert.Equal(t, int32(1), notifier.calls.Load())
		assert.NotEmpty(t, src.ids[0], "cycle carries a correlation id")

		assert.Equal(t, float64(1), testutil.ToFloat64(metrics.CyclesTotal.WithLabelValues("ok")))
		assert.Equal(t, float64(1), testutil.ToFloat64(metrics.TransitionsTotal))
		assert.Equal(t, float64(2), testutil.ToFloat64(metrics.SnapshotSize))
	})

	t.Run("Should write and notify nothing when the source fails", func(t *testing.T) {
		src := &fakeSource{err: apperr.SourceErr.WrapParent(errors.New("timeout"))}
		store := &countingStore{state: map[string]bool{}}
		notifier := &countingNotifier{}
		svc, metrics := newService(src, store, notifier, time.Minute)

		_, err := svc.RunCycle(ctx)
		assert.True(t, apperr.IsSourceErr(err))
		assert.Zero(t, store.writes.Load())
		assert.Zero(t, notifier.calls.Load())
		assert.Equal(t, float64(1), testutil.ToFloat64(metrics.CyclesTotal.WithLabelValues("source_error")))
	})

	t.Run("Should report store failures", func(t *testing.T) {
		src := &fakeSource{snapshot: []model.ProductRecord{{ID: "A", Name: "Protein Milk", Available: true}}}
		notifier := &countingNotifier{}
		svc, metrics := newService(src, failingStore{}, notifier, time.Minute)

		_, err := svc.RunCycle(ctx)
		assert.True(t, apperr.IsStoreErr(err))
		assert.Zero(t, notifier.calls.Load())
		assert.Equal(t, float64(1), testutil.ToFloat64(metrics.CyclesTotal.WithLabelValues("store_error")))
	})

	t.Run("Should succeed on an empty snapshot", func(t *testing.T) {
		store := &countingStore{state: map[string]bool{}}
		svc, _ := newService(&fakeSource{}, store, &countingNotifier{}, time.Minute)

		res, err := svc.RunCycle(ctx)
		require.NoError(t, err)
		assert.Zero(t, res.SnapshotSize)
		assert.Zero(t, store.writes.Load())
	})
}

func TestService_Run(t *testing.T) {
	t.Run("Should keep running after failed cycles", func(t *testing.T) {
		src := &fakeSource{err: apperr.SourceErr}
		svc, _ := newService(src, &countingStore{state: map[string]bool{}}, &countingNotifier{}, 10*time.Millisecond)

		cleanup := svc.Run(context.Background())
		assert.Eventually(t, func() bool { return src.callCount() >= 3 }, 2*time.Second, 5*time.Millisecond)
		cleanup()

		calls := src.callCount()
		time.Sleep(50 * time.Millisecond)
		assert.Equal(t, calls, src.callCount(), "no cycle after cleanup")
	})

	t.Run("Should run the first cycle immediately", func(t *testing.T) {
		src := &fakeSource{}
		svc, _ := newService(src, &countingStore{state: map[string]bool{}}, &countingNotifier{}, time.Hour)

		cleanup := svc.Run(context.Background())
		assert.Eventually(t, func() bool { return src.callCount() == 1 }, time.Second, 5*time.Millisecond)
		cleanup()
	})

	t.Run("Should assign a new correlation id per cycle", func(t *testing.T) {
		src := &fakeSource{}
		svc, _ := newService(src, &countingStore{state: map[string]bool{}}, &countingNotifier{}, 5*time.Millisecond)

		cleanup := svc.Run(context.Background())
		assert.Eventually(t, func() bool { return src.callCount() >= 2 }, 2*time.Second, 5*time.Millisecond)
		cleanup()

		src.mu.Lock()
		defer src.mu.Unlock()
		assert.NotEqual(t, src.ids[0], src.ids[1])
	})
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestService_RegionCodeLogged(t *testing.T) {
	var out syncBuffer
	logger := log.New(&out, config.Log{Format: config.LogFormatJSON})

	src := &fakeSource{err: apperr.SourceErr}
	r := reconcile.New(&countingStore{state: map[string]bool{}}, &countingNotifier{}, validator.MustNewDefaultValidator(), logger)
	svc := watcher.NewService(
		config.Watcher{RegionCode: "110001", Interval: time.Hour},
		logger, src, r, watcher.NewMetrics(prometheus.NewRegistry()),
	)

	cleanup := svc.Run(context.Background())
	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "error running cycle")
	}, 2*time.Second, 5*time.Millisecond)
	cleanup()

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.NotEmpty(t, lines)
	for _, line := range lines {
		assert.Equal(t, 1, strings.Count(line, `"region_code"`), line)
	}
}
