package reconcile_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/restock-watch/internal/apperr"
	"github.com/tuanvumaihuynh/restock-watch/internal/log"
	"github.com/tuanvumaihuynh/restock-watch/internal/model"
	"github.com/tuanvumaihuynh/restock-watch/internal/reconcile"
	"github.com/tuanvumaihuynh/restock-watch/pkg/validator"
)

// memStore is an in-memory Store counting its write batches.
type memStore struct {
	entries map[string]model.StockEntry
	writes  int
	loadErr error
}

func newMemStore(entries ...model.StockEntry) *memStore {
	s := &memStore{entries: map[string]model.StockEntry{}}
	for _, e := range entries {
		s.entries[e.ID] = e
	}
	return s
}

func (s *memStore) LoadAvailability(context.Context) (map[string]bool, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	out := make(map[string]bool, len(s.entries))
	for id, e := range s.entries {
		out[id] = e.Available
	}
	return out, nil
}

func (s *memStore) UpsertStockEntries(_ context.Context, entries []model.StockEntry) error {
	s.writes++
	for _, e := range entries {
		s.entries[e.ID] = e
	}
	return nil
}

type recordingNotifier struct {
	calls [][]model.Transition
}

func (n *recordingNotifier) Notify(_ context.Context, transitions []model.Transition) {
	n.calls = append(n.calls, transitions)
}

func newReconciler(store reconcile.Store, notifier reconcile.Notifier) *reconcile.Reconciler {
	return reconcile.New(store, notifier, validator.MustNewDefaultValidator(), log.NewNop())
}

func TestReconciler_Reconcile(t *testing.T) {
	ctx := context.Background()

	t.Run("Should notify only the item that became available", func(t *testing.T) {
		store := newMemStore(
			model.StockEntry{ID: "A", Name: "Protein Milk", Available: false},
			model.StockEntry{ID: "B", Name: "Whey 30", Quantity: 3, Available: true},
		)
		notifier := &recordingNotifier{}

		got, err := newReconciler(store, notifier).Reconcile(ctx, []model.ProductRecord{
			{ID: "A", Name: "Protein Milk", Quantity: 5, Available: true},
			{ID: "B", Name: "Whey 30", Quantity: 0, Available: false},
		})
		require.NoError(t, err)

		want := []model.Transition{{ID: "A", Name: "Protein Milk", Quantity: 5}}
		assert.Equal(t, want, got)
		assert.Equal(t, [][]model.Transition{want}, notifier.calls)
		assert.Equal(t, model.StockEntry{ID: "B", Name: "Whey 30", Quantity: 0, Available: false}, store.entries["B"])
		assert.Equal(t, 1, store.writes)
	})

	t.Run("Should fire for a never seen available item", func(t *testing.T) {
		store := newMemStore()
		notifier := &recordingNotifier{}

		got, err := newReconciler(store, notifier).Reconcile(ctx, []model.ProductRecord{
			{ID: "N", Name: "New Item", Quantity: 1, Available: true},
			{ID: "M", Name: "Missing Flag"},
		})
		require.NoError(t, err)
		assert.Equal(t, []model.Transition{{ID: "N", Name: "New Item", Quantity: 1}}, got)
		assert.False(t, store.entries["M"].Available)
	})

	t.Run("Should be idempotent on a repeated snapshot", func(t *testing.T) {
		store := newMemStore()
		notifier := &recordingNotifier{}
		r := newReconciler(store, notifier)
		snapshot := []model.ProductRecord{
			{ID: "A", Name: "Protein Milk", Quantity: 5, Available: true},
			{ID: "B", Name: "Whey 30", Available: false},
		}

		first, err := r.Reconcile(ctx, snapshot)
		require.NoError(t, err)
		assert.Len(t, first, 1)

		second, err := r.Reconcile(ctx, snapshot)
		require.NoError(t, err)
		assert.Empty(t, second)
		assert.Len(t, notifier.calls, 1)
	})

	t.Run("Should not treat other changes as transitions", func(t *testing.T) {
		store := newMemStore(
			model.StockEntry{ID: "A", Name: "Still Available", Quantity: 1, Available: true},
			model.StockEntry{ID: "B", Name: "Went Away", Quantity: 4, Available: true},
			model.StockEntry{ID: "C", Name: "Still Gone", Available: false},
		)
		notifier := &recordingNotifier{}

		got, err := newReconciler(store, notifier).Reconcile(ctx, []model.ProductRecord{
			{ID: "A", Name: "Still Available", Quantity: 99, Available: true},
			{ID: "B", Name: "Went Away", Quantity: 0, Available: false},
			{ID: "C", Name: "Still Gone", Quantity: 7, Available: false},
		})
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.Empty(t, notifier.calls)
		assert.Equal(t, 99, store.entries["A"].Quantity)
		assert.False(t, store.entries["B"].Available)
	})

	t.Run("Should leave items absent from the snapshot untouched", func(t *testing.T) {
		gone := model.StockEntry{ID: "Z", Name: "Delisted", Quantity: 2, Available: true}
		store := newMemStore(gone)

		_, err := newReconciler(store, &recordingNotifier{}).Reconcile(ctx, []model.ProductRecord{
			{ID: "A", Name: "Protein Milk", Available: false},
		})
		require.NoError(t, err)
		assert.Equal(t, gone, store.entries["Z"])
		assert.Contains(t, store.entries, "A")
	})

	t.Run("Should do nothing for an empty snapshot", func(t *testing.T) {
		store := newMemStore(model.StockEntry{ID: "A", Name: "Protein Milk", Available: false})
		notifier := &recordingNotifier{}

		got, err := newReconciler(store, notifier).Reconcile(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.Zero(t, store.writes)
		assert.Empty(t, notifier.calls)
	})

	t.Run("Should keep snapshot order", func(t *testing.T) {
		notifier := &recordingNotifier{}

		got, err := newReconciler(newMemStore(), notifier).Reconcile(ctx, []model.ProductRecord{
			{ID: "C", Name: "Third", Available: true},
			{ID: "A", Name: "First", Available: true},
			{ID: "B", Name: "Second", Available: true},
		})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, []string{"C", "A", "B"}, []string{got[0].ID, got[1].ID, got[2].ID})
		assert.Len(t, notifier.calls, 1)
	})

	t.Run("Should skip malformed records and keep the rest", func(t *testing.T) {
		store := newMemStore()
		notifier := &recordingNotifier{}

		got, err := newReconciler(store, notifier).Reconcile(ctx, []model.ProductRecord{
			{ID: "", Name: "No Id", Available: true},
			{ID: "A", Name: "Protein Milk", Available: true},
			{ID: "B", Name: "   ", Available: true},
		})
		require.NoError(t, err)
		assert.Equal(t, []model.Transition{{ID: "A", Name: "Protein Milk"}}, got)
		assert.Len(t, store.entries, 1)
	})

	t.Run("Should not write when every record is malformed", func(t *testing.T) {
		store := newMemStore()

		got, err := newReconciler(store, &recordingNotifier{}).Reconcile(ctx, []model.ProductRecord{{Name: "No Id"}})
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.Zero(t, store.writes)
	})

	t.Run("Should let the last duplicate win at the first position", func(t *testing.T) {
		store := newMemStore()

		got, err := newReconciler(store, &recordingNotifier{}).Reconcile(ctx, []model.ProductRecord{
			{ID: "A", Name: "Protein Milk", Quantity: 1, Available: false},
			{ID: "B", Name: "Whey 30", Quantity: 2, Available: true},
			{ID: "A", Name: "Protein Milk", Quantity: 8, Available: true},
		})
		require.NoError(t, err)
		assert.Equal(t, []model.Transition{
			{ID: "A", Name: "Protein Milk", Quantity: 8},
			{ID: "B", Name: "Whey 30", Quantity: 2},
		}, got)
		assert.Equal(t, 8, store.entries["A"].Quantity)
	})

	t.Run("Should treat a failed load as empty state", func(t *testing.T) {
		store := newMemStore(model.StockEntry{ID: "A", Name: "Protein Milk", Available: true})
		store.loadErr = errors.New("no such table: items")
		notifier := &recordingNotifier{}

		got, err := newReconciler(store, notifier).Reconcile(ctx, []model.ProductRecord{
			{ID: "A", Name: "Protein Milk", Available: true},
		})
		require.NoError(t, err)
		assert.Len(t, got, 1)
		assert.Equal(t, 1, store.writes)
	})
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) LoadAvailability(ctx context.Context) (map[string]bool, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[string]bool), args.Error(1)
}

func (m *mockStore) UpsertStockEntries(ctx context.Context, entries []model.StockEntry) error {
	return m.Called(ctx, entries).Error(0)
}

func TestReconciler_Reconcile_StoreFailure(t *testing.T) {
	store := &mockStore{}
	store.On("LoadAvailability", mock.Anything).Return(map[string]bool{}, nil)
	store.On("UpsertStockEntries", mock.Anything, []model.StockEntry{
		{ID: "A", Name: "Protein Milk", Quantity: 5, Available: true},
	}).Return(errors.New("database is locked"))
	notifier := &recordingNotifier{}

	got, err := newReconciler(store, notifier).Reconcile(context.Background(), []model.ProductRecord{
		{ID: "A", Name: "Protein Milk", Quantity: 5, Available: true},
	})

	assert.True(t, apperr.IsStoreErr(err))
	assert.ErrorContains(t, err, "database is locked")
	assert.Nil(t, got)
	assert.Empty(t, notifier.calls)
	store.AssertExpectations(t)
}
