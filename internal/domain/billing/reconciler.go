package billing

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InvoiceStore is the remote persistence collaborator for draft invoice
// items. Every mutation carries the draft's optimistic version token;
// implementations return shared.ErrConcurrencyConflict when the token is
// stale, and return the server-authoritative stored rows plus the new
// version on success.
type InvoiceStore interface {
	// LoadDraft returns the persisted draft for a booking: its line
	// items and the current version token. A booking without an invoice
	// yet yields an empty draft at version zero.
	LoadDraft(ctx context.Context, bookingID uuid.UUID) (DraftInvoiceState, error)

	// ReplaceComputedItems atomically swaps the computed subset of the
	// booking's draft for the given items, leaving manual items alone.
	// Returns the stored computed rows.
	ReplaceComputedItems(ctx context.Context, bookingID uuid.UUID, version int64, items []LineItem) ([]LineItem, int64, error)

	// CreateItem persists one new item and returns the stored row
	CreateItem(ctx context.Context, bookingID uuid.UUID, version int64, item LineItem) (*LineItem, int64, error)

	// UpdateItem persists a changed item and returns the stored row
	UpdateItem(ctx context.Context, bookingID uuid.UUID, version int64, item LineItem) (*LineItem, int64, error)

	// DeleteItem removes one item
	DeleteItem(ctx context.Context, bookingID uuid.UUID, version int64, itemID uuid.UUID) (int64, error)
}

// DraftReconciler owns the authoritative in-memory draft invoice state
// for exactly one booking. Every mutation is applied optimistically to
// the local state, pushed to the remote store, and rolled back to the
// pre-mutation snapshot if the push fails. A single mutex serializes
// mutations so no second mutation can begin against the same booking
// until the prior one has resolved.
type DraftReconciler struct {
	mu        sync.Mutex
	bookingID uuid.UUID
	store     InvoiceStore
	logger    *zap.Logger

	state DraftInvoiceState
}

// NewDraftReconciler creates a reconciler with an empty draft
func NewDraftReconciler(bookingID uuid.UUID, store InvoiceStore, logger *zap.Logger) *DraftReconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DraftReconciler{
		bookingID: bookingID,
		store:     store,
		logger:    logger.With(zap.String("booking_id", bookingID.String())),
		state:     NewDraftInvoiceState(),
	}
}

// BookingID returns the booking this reconciler is bound to
func (r *DraftReconciler) BookingID() uuid.UUID {
	return r.bookingID
}

// State returns a copy of the current draft state
func (r *DraftReconciler) State() DraftInvoiceState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Clone()
}

// Totals returns the current totals fold
func (r *DraftReconciler) Totals() Totals {
	r.mu.Lock()
	defer r.mu.Unlock()
	return foldTotals(r.state.Items)
}

// Hydrate replaces the draft with a previously persisted state, e.g.
// when a staff member reopens a booking that already has a draft
// invoice. No remote call is made.
func (r *DraftReconciler) Hydrate(state DraftInvoiceState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = state.Clone()
	r.state.recomputeTotals()
}

// Initialize replaces the computed subset of the draft with freshly
// calculated items. Manual chargeables survive recalculation; a prior
// calculation's aircraft and instructor items are always discarded.
//
// guard, when non-nil, runs under the reconciler mutex before anything
// is applied; its error aborts the mutation with the draft untouched.
// Callers use it to drop a calculation result that was superseded while
// this one waited for the mutex.
func (r *DraftReconciler) Initialize(ctx context.Context, computed []LineItem, guard func() error) error {
	return r.mutateWithSnapshot(ctx, "initialize",
		func(s *DraftInvoiceState) error {
			if guard != nil {
				if err := guard(); err != nil {
					return err
				}
			}
			manual := make([]LineItem, 0, len(s.Items))
			for _, item := range s.Items {
				if !item.IsComputed() {
					manual = append(manual, item)
				}
			}
			s.Items = append(append(make([]LineItem, 0, len(computed)+len(manual)), computed...), manual...)
			return nil
		},
		func(ctx context.Context, s *DraftInvoiceState) (reconcile, error) {
			stored, version, err := r.store.ReplaceComputedItems(ctx, r.bookingID, s.RemoteVersion, computed)
			if err != nil {
				return nil, err
			}
			return func(s *DraftInvoiceState) {
				replaceItems(s, stored)
				s.RemoteVersion = version
			}, nil
		})
}

// Add appends one line item and persists it. Returns the stored item as
// reconciled with the server row.
func (r *DraftReconciler) Add(ctx context.Context, item LineItem) (*LineItem, error) {
	var result LineItem
	err := r.mutateWithSnapshot(ctx, "add",
		func(s *DraftInvoiceState) error {
			s.Items = append(s.Items, item)
			return nil
		},
		func(ctx context.Context, s *DraftInvoiceState) (reconcile, error) {
			stored, version, err := r.store.CreateItem(ctx, r.bookingID, s.RemoteVersion, item)
			if err != nil {
				return nil, err
			}
			return func(s *DraftInvoiceState) {
				replaceItems(s, []LineItem{*stored})
				s.RemoteVersion = version
				result = *stored
			}, nil
		})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Update applies a partial change to one item and persists it
func (r *DraftReconciler) Update(ctx context.Context, id uuid.UUID, patch LineItemPatch) (*LineItem, error) {
	var updated LineItem
	err := r.mutateWithSnapshot(ctx, "update",
		func(s *DraftInvoiceState) error {
			idx := s.ItemByID(id)
			if idx < 0 {
				return NewInvalidChargeInputError("Line item not found: " + id.String())
			}
			item := s.Items[idx]
			if err := item.apply(patch); err != nil {
				return err
			}
			s.Items[idx] = item
			updated = item
			return nil
		},
		func(ctx context.Context, s *DraftInvoiceState) (reconcile, error) {
			stored, version, err := r.store.UpdateItem(ctx, r.bookingID, s.RemoteVersion, updated)
			if err != nil {
				return nil, err
			}
			return func(s *DraftInvoiceState) {
				replaceItems(s, []LineItem{*stored})
				s.RemoteVersion = version
				updated = *stored
			}, nil
		})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes one item and persists the removal
func (r *DraftReconciler) Delete(ctx context.Context, id uuid.UUID) error {
	return r.mutateWithSnapshot(ctx, "delete",
		func(s *DraftInvoiceState) error {
			idx := s.ItemByID(id)
			if idx < 0 {
				return NewInvalidChargeInputError("Line item not found: " + id.String())
			}
			s.Items = append(s.Items[:idx], s.Items[idx+1:]...)
			return nil
		},
		func(ctx context.Context, s *DraftInvoiceState) (reconcile, error) {
			version, err := r.store.DeleteItem(ctx, r.bookingID, s.RemoteVersion, id)
			if err != nil {
				return nil, err
			}
			return func(s *DraftInvoiceState) {
				s.RemoteVersion = version
			}, nil
		})
}

// reconcile folds server-computed fields back into the local state after
// a successful remote call
type reconcile func(s *DraftInvoiceState)

// mutateWithSnapshot is the one optimistic-mutation primitive all draft
// operations go through: snapshot, apply locally, recompute totals, push
// to the remote store, then either fold the server response back in or
// restore the snapshot. The reconciler mutex is held for the whole
// sequence, including the remote call.
func (r *DraftReconciler) mutateWithSnapshot(
	ctx context.Context,
	op string,
	apply func(s *DraftInvoiceState) error,
	remote func(ctx context.Context, s *DraftInvoiceState) (reconcile, error),
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := r.state.Clone()

	if err := apply(&r.state); err != nil {
		r.state = snapshot
		return err
	}
	r.state.recomputeTotals()

	rec, err := remote(ctx, &snapshot)
	if err != nil {
		r.state = snapshot
		r.logger.Warn("draft mutation rolled back",
			zap.String("op", op),
			zap.Error(err),
		)
		return &RemoteMutationError{Op: op, Cause: err}
	}

	rec(&r.state)
	r.state.recomputeTotals()

	r.logger.Debug("draft mutation applied",
		zap.String("op", op),
		zap.Int("items", len(r.state.Items)),
		zap.String("total", r.state.Totals.Total.StringFixed(2)),
	)
	return nil
}

// replaceItems swaps matching local items for their server-authoritative
// rows, keyed by item ID; insertion order is preserved
func replaceItems(s *DraftInvoiceState, stored []LineItem) {
	for _, row := range stored {
		if idx := s.ItemByID(row.ID); idx >= 0 {
			s.Items[idx] = row
		}
	}
}
