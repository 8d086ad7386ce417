// Package reconcile diffs a catalog snapshot against the persisted stock state.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tuanvumaihuynh/restock-watch/internal/apperr"
	"github.com/tuanvumaihuynh/restock-watch/internal/model"
	"github.com/tuanvumaihuynh/restock-watch/pkg/validator"
)

var tracer = otel.Tracer("internal/reconcile")

// Store is the persisted stock state used by the Reconciler.
type Store interface {
	// LoadAvailability returns the last known availability per item id.
	LoadAvailability(ctx context.Context) (map[string]bool, error)
	// UpsertStockEntries writes all entries as one batch.
	UpsertStockEntries(ctx context.Context, entries []model.StockEntry) error
}

// Notifier receives the transitions of one cycle in a single call.
type Notifier interface {
	Notify(ctx context.Context, transitions []model.Transition)
}

type Reconciler struct {
	store     Store
	notifier  Notifier
	validator validator.Validator
	logger    *slog.Logger
}

func New(store Store, notifier Notifier, v validator.Validator, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		store:     store,
		notifier:  notifier,
		validator: v,
		logger:    logger.With(slog.String("service", "reconcile")),
	}
}

// Reconcile persists the snapshot and notifies every item that went from
// unavailable (or unknown) to available. It returns the transitions in snapshot order.
//
// The snapshot is persisted before anything is notified; a persistence failure
// returns an [apperr.StoreErr] and notifies nothing.
func (r *Reconciler) Reconcile(ctx context.Context, snapshot []model.ProductRecord) (_ []model.Transition, err error) {
	ctx, span := tracer.Start(ctx, "Reconciler.Reconcile",
		trace.WithAttributes(attribute.Int("snapshot.size", len(snapshot))),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if len(snapshot) == 0 {
		return nil, nil
	}

	previous, err := r.store.LoadAvailability(ctx)
	if err != nil {
		r.logger.WarnContext(ctx, "error loading stock state, treating every item as unseen", slog.Any("error", err))
		previous = map[string]bool{}
	}

	entries, transitions := r.diff(ctx, snapshot, previous)
	span.SetAttributes(
		attribute.Int("entries", len(entries)),
		attribute.Int("transitions", len(transitions)),
	)

	if len(entries) == 0 {
		return nil, nil
	}

	if err := r.store.UpsertStockEntries(ctx, entries); err != nil {
		return nil, apperr.StoreErr.WrapParent(fmt.Errorf("upsert stock entries: %w", err))
	}

	if len(transitions) > 0 {
		r.notifier.Notify(ctx, transitions)
	}

	return transitions, nil
}

// diff validates the records and returns the entries to persist and the transitions
// to notify. For a duplicated id the last record wins, at the position of the first.
func (r *Reconciler) diff(ctx context.Context, snapshot []model.ProductRecord, previous map[string]bool) ([]model.StockEntry, []model.Transition) {
	order := make([]string, 0, len(snapshot))
	latest := make(map[string]model.ProductRecord, len(snapshot))

	for i, rec := range snapshot {
		if err := r.validator.Validate(rec); err != nil {
			recErr := apperr.RecordErr.WrapParent(err)
			r.logger.WarnContext(ctx, "skipping malformed record",
				slog.Int("position", i),
				slog.String("item_id", rec.ID),
				slog.Any("fields", validator.FieldErrors(err)),
				slog.Any("error", recErr),
			)
			continue
		}

		if _, seen := latest[rec.ID]; !seen {
			order = append(order, rec.ID)
		} else {
			r.logger.DebugContext(ctx, "duplicate item id in snapshot, keeping last", slog.String("item_id", rec.ID))
		}
		latest[rec.ID] = rec
	}

	entries := make([]model.StockEntry, 0, len(order))
	var transitions []model.Transition
	for _, id := range order {
		rec := latest[id]
		entries = append(entries, rec.Entry())

		if rec.Available && !previous[id] {
			transitions = append(transitions, model.Transition{
				ID:       rec.ID,
				Name:     rec.Name,
				Quantity: rec.Quantity,
			})
		}
	}

	return entries, transitions
}
