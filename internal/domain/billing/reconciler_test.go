package billing

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeInvoiceStore echoes mutations back and can be told to fail the
// next call
type fakeInvoiceStore struct {
	version  int64
	failWith error

	replaceCalls int
	createCalls  int
	updateCalls  int
	deleteCalls  int
}

func (f *fakeInvoiceStore) fail() error {
	if f.failWith != nil {
		err := f.failWith
		f.failWith = nil
		return err
	}
	return nil
}

func (f *fakeInvoiceStore) LoadDraft(_ context.Context, _ uuid.UUID) (DraftInvoiceState, error) {
	state := NewDraftInvoiceState()
	state.RemoteVersion = f.version
	return state, nil
}

func (f *fakeInvoiceStore) ReplaceComputedItems(_ context.Context, _ uuid.UUID, _ int64, items []LineItem) ([]LineItem, int64, error) {
	f.replaceCalls++
	if err := f.fail(); err != nil {
		return nil, 0, err
	}
	f.version++
	stored := make([]LineItem, len(items))
	copy(stored, items)
	return stored, f.version, nil
}

func (f *fakeInvoiceStore) CreateItem(_ context.Context, _ uuid.UUID, _ int64, item LineItem) (*LineItem, int64, error) {
	f.createCalls++
	if err := f.fail(); err != nil {
		return nil, 0, err
	}
	f.version++
	stored := item
	return &stored, f.version, nil
}

func (f *fakeInvoiceStore) UpdateItem(_ context.Context, _ uuid.UUID, _ int64, item LineItem) (*LineItem, int64, error) {
	f.updateCalls++
	if err := f.fail(); err != nil {
		return nil, 0, err
	}
	f.version++
	stored := item
	return &stored, f.version, nil
}

func (f *fakeInvoiceStore) DeleteItem(_ context.Context, _ uuid.UUID, _ int64, _ uuid.UUID) (int64, error) {
	f.deleteCalls++
	if err := f.fail(); err != nil {
		return 0, err
	}
	f.version++
	return f.version, nil
}

func testChargeableItem(t *testing.T, name, rate, qty string) LineItem {
	item, err := PriceChargeable(uuid.New(), name, dec(rate), true, dec(qty), mustTaxRate(t, "0.15"))
	require.NoError(t, err)
	return item
}

func testComputedItems(t *testing.T) []LineItem {
	seg := FlightSegment{Kind: SegmentDual, DurationHours: dec("1.5"), FlightTypeID: uuid.New()}
	items, err := PriceSegment(seg, resolvedRates(t, "150", nil, "0.15"), "D-EABC", "")
	require.NoError(t, err)
	return items
}

func TestDraftReconciler_Add(t *testing.T) {
	t.Run("success applies and bumps the version", func(t *testing.T) {
		store := &fakeInvoiceStore{}
		r := NewDraftReconciler(uuid.New(), store, nil)

		stored, err := r.Add(context.Background(), testChargeableItem(t, "Landing fee", "12.50", "1"))
		require.NoError(t, err)
		require.NotNil(t, stored)

		state := r.State()
		assert.Len(t, state.Items, 1)
		assert.Equal(t, int64(1), state.RemoteVersion)
		assert.True(t, state.Totals.Total.Equal(dec("14.38")))
	})

	t.Run("remote failure rolls back state and totals", func(t *testing.T) {
		store := &fakeInvoiceStore{}
		r := NewDraftReconciler(uuid.New(), store, nil)

		_, err := r.Add(context.Background(), testChargeableItem(t, "Landing fee", "12.50", "1"))
		require.NoError(t, err)
		before := r.State()

		store.failWith = errors.New("network timeout")
		_, err = r.Add(context.Background(), testChargeableItem(t, "Headset", "10", "1"))
		require.Error(t, err)
		assert.True(t, IsRemoteMutationFailed(err))

		after := r.State()
		assert.Len(t, after.Items, 1)
		assert.Equal(t, before.RemoteVersion, after.RemoteVersion)
		assert.True(t, before.Totals.Equals(after.Totals), "totals must match the pre-mutation snapshot")
	})
}

func TestDraftReconciler_Update(t *testing.T) {
	store := &fakeInvoiceStore{}
	r := NewDraftReconciler(uuid.New(), store, nil)

	added, err := r.Add(context.Background(), testChargeableItem(t, "Landing fee", "12.50", "1"))
	require.NoError(t, err)

	t.Run("patch re-derives and persists", func(t *testing.T) {
		qty := dec("2")
		updated, err := r.Update(context.Background(), added.ID, LineItemPatch{Quantity: &qty})
		require.NoError(t, err)
		assert.True(t, updated.Amount.Equal(dec("25")))

		state := r.State()
		assert.True(t, state.Totals.Subtotal.Equal(dec("25")))
	})

	t.Run("unknown item fails locally without a remote call", func(t *testing.T) {
		updates := store.updateCalls
		qty := dec("2")
		_, err := r.Update(context.Background(), uuid.New(), LineItemPatch{Quantity: &qty})
		require.Error(t, err)
		assert.True(t, IsInvalidChargeInput(err))
		assert.Equal(t, updates, store.updateCalls)
	})

	t.Run("remote failure restores the previous values", func(t *testing.T) {
		before := r.State()
		store.failWith = errors.New("boom")

		qty := dec("5")
		_, err := r.Update(context.Background(), added.ID, LineItemPatch{Quantity: &qty})
		require.Error(t, err)
		assert.True(t, IsRemoteMutationFailed(err))

		after := r.State()
		assert.True(t, before.Totals.Equals(after.Totals))
		assert.True(t, after.Items[0].Quantity.Equal(before.Items[0].Quantity))
	})
}

func TestDraftReconciler_AddThenDeleteRoundTrip(t *testing.T) {
	store := &fakeInvoiceStore{}
	r := NewDraftReconciler(uuid.New(), store, nil)

	require.NoError(t, r.Initialize(context.Background(), testComputedItems(t), nil))
	original := r.Totals()

	added, err := r.Add(context.Background(), testChargeableItem(t, "Landing fee", "12.50", "1"))
	require.NoError(t, err)
	assert.False(t, r.Totals().Equals(original))

	require.NoError(t, r.Delete(context.Background(), added.ID))
	assert.True(t, r.Totals().Equals(original), "add then delete must return to the original totals")
}

func TestDraftReconciler_Delete(t *testing.T) {
	t.Run("unknown item fails locally", func(t *testing.T) {
		store := &fakeInvoiceStore{}
		r := NewDraftReconciler(uuid.New(), store, nil)

		err := r.Delete(context.Background(), uuid.New())
		require.Error(t, err)
		assert.True(t, IsInvalidChargeInput(err))
		assert.Equal(t, 0, store.deleteCalls)
	})

	t.Run("remote failure restores the deleted item", func(t *testing.T) {
		store := &fakeInvoiceStore{}
		r := NewDraftReconciler(uuid.New(), store, nil)

		added, err := r.Add(context.Background(), testChargeableItem(t, "Landing fee", "12.50", "1"))
		require.NoError(t, err)

		store.failWith = errors.New("boom")
		err = r.Delete(context.Background(), added.ID)
		require.Error(t, err)

		state := r.State()
		require.Len(t, state.Items, 1)
		assert.Equal(t, added.ID, state.Items[0].ID)
	})
}

func TestDraftReconciler_Initialize(t *testing.T) {
	t.Run("manual items survive recalculation", func(t *testing.T) {
		store := &fakeInvoiceStore{}
		r := NewDraftReconciler(uuid.New(), store, nil)

		require.NoError(t, r.Initialize(context.Background(), testComputedItems(t), nil))
		manual, err := r.Add(context.Background(), testChargeableItem(t, "Landing fee", "12.50", "1"))
		require.NoError(t, err)

		require.NoError(t, r.Initialize(context.Background(), testComputedItems(t), nil))

		state := r.State()
		require.Len(t, state.Items, 2)
		assert.True(t, state.Items[0].IsComputed())
		assert.Equal(t, manual.ID, state.Items[1].ID)
	})

	t.Run("repeated calculation with identical inputs yields identical totals", func(t *testing.T) {
		store := &fakeInvoiceStore{}
		r := NewDraftReconciler(uuid.New(), store, nil)

		require.NoError(t, r.Initialize(context.Background(), testComputedItems(t), nil))
		first := r.Totals()

		require.NoError(t, r.Initialize(context.Background(), testComputedItems(t), nil))
		assert.True(t, r.Totals().Equals(first))
	})

	t.Run("guard failure aborts under the mutex without a remote call", func(t *testing.T) {
		store := &fakeInvoiceStore{}
		r := NewDraftReconciler(uuid.New(), store, nil)

		require.NoError(t, r.Initialize(context.Background(), testComputedItems(t), nil))
		before := r.State()
		replaces := store.replaceCalls

		superseded := errors.New("superseded")
		err := r.Initialize(context.Background(), testComputedItems(t), func() error {
			return superseded
		})
		assert.ErrorIs(t, err, superseded)
		assert.Equal(t, replaces, store.replaceCalls)

		after := r.State()
		assert.Equal(t, before.RemoteVersion, after.RemoteVersion)
		assert.True(t, before.Totals.Equals(after.Totals))
	})

	t.Run("remote failure keeps the previous draft", func(t *testing.T) {
		store := &fakeInvoiceStore{}
		r := NewDraftReconciler(uuid.New(), store, nil)

		require.NoError(t, r.Initialize(context.Background(), testComputedItems(t), nil))
		before := r.State()

		store.failWith = errors.New("boom")
		err := r.Initialize(context.Background(), testComputedItems(t), nil)
		require.Error(t, err)
		assert.True(t, IsRemoteMutationFailed(err))

		after := r.State()
		assert.True(t, before.Totals.Equals(after.Totals))
		assert.Equal(t, before.RemoteVersion, after.RemoteVersion)
	})
}

func TestDraftReconciler_Hydrate(t *testing.T) {
	r := NewDraftReconciler(uuid.New(), &fakeInvoiceStore{}, nil)

	item := testChargeableItem(t, "Landing fee", "12.50", "1")
	r.Hydrate(DraftInvoiceState{RemoteVersion: 7, Items: []LineItem{item}})

	state := r.State()
	assert.Equal(t, int64(7), state.RemoteVersion)
	require.Len(t, state.Items, 1)
	assert.True(t, state.Totals.Total.Equal(dec("14.38")), "hydrate must recompute totals")
}

func TestDraftInvoiceState_Clone(t *testing.T) {
	item := testChargeableItem(t, "Landing fee", "12.50", "1")
	state := DraftInvoiceState{RemoteVersion: 3, Items: []LineItem{item}}
	state.recomputeTotals()

	clone := state.Clone()
	clone.Items[0].Description = "changed"

	assert.Equal(t, "Landing fee", state.Items[0].Description)
	assert.True(t, clone.Totals.Equals(state.Totals))
}
