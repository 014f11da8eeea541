package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aeroclub/backend/internal/domain/billing"
	"github.com/aeroclub/backend/internal/domain/shared"
	"github.com/aeroclub/backend/internal/infrastructure/persistence/models"
)

func setupInvoiceTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.InvoiceModel{}, &models.LineItemModel{})
	require.NoError(t, err)

	return db
}

// testItem builds a line item with its monetary fields derived the same
// way the domain derives them
func testItem(origin billing.ItemOrigin, description, quantity, unitPrice, taxRate string) billing.LineItem {
	q := decimal.RequireFromString(quantity)
	p := decimal.RequireFromString(unitPrice)
	r := decimal.RequireFromString(taxRate)
	amount := q.Mul(p).Round(2)
	tax := amount.Mul(r).Round(2)
	return billing.LineItem{
		ID:            uuid.New(),
		Origin:        origin,
		Description:   description,
		Quantity:      q,
		UnitPrice:     p,
		TaxRate:       r,
		Amount:        amount,
		TaxAmount:     tax,
		LineTotal:     amount.Add(tax),
		RateInclusive: p.Mul(decimal.NewFromInt(1).Add(r)).Round(2),
		CreatedAt:     time.Now(),
	}
}

func TestGormInvoiceStore_CreateItem_FirstTouch(t *testing.T) {
	db := setupInvoiceTestDB(t)
	store := NewGormInvoiceStore(db)
	ctx := context.Background()
	bookingID := uuid.New()

	item := testItem(billing.OriginManual, "Landing fee", "1", "15.00", "0.20")
	stored, version, err := store.CreateItem(ctx, bookingID, 0, item)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
	assert.Equal(t, item.ID, stored.ID)
	assert.True(t, stored.Amount.Equal(decimal.RequireFromString("15.00")))
	assert.True(t, stored.TaxAmount.Equal(decimal.RequireFromString("3.00")))

	var invoice models.InvoiceModel
	require.NoError(t, db.Where("booking_id = ?", bookingID).First(&invoice).Error)
	assert.Equal(t, int64(1), invoice.DraftVersion)
	assert.True(t, invoice.Total.Equal(decimal.RequireFromString("18.00")))
	assert.False(t, invoice.IsFinalized())
}

func TestGormInvoiceStore_CreateItem_StaleVersion(t *testing.T) {
	db := setupInvoiceTestDB(t)
	store := NewGormInvoiceStore(db)
	ctx := context.Background()
	bookingID := uuid.New()

	_, _, err := store.CreateItem(ctx, bookingID, 0, testItem(billing.OriginManual, "Landing fee", "1", "15.00", "0.20"))
	require.NoError(t, err)

	_, _, err = store.CreateItem(ctx, bookingID, 0, testItem(billing.OriginManual, "Headset rental", "1", "5.00", "0.20"))
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
}

func TestGormInvoiceStore_ReplaceComputedItems_KeepsManual(t *testing.T) {
	db := setupInvoiceTestDB(t)
	store := NewGormInvoiceStore(db)
	ctx := context.Background()
	bookingID := uuid.New()

	manual := testItem(billing.OriginManual, "Landing fee", "1", "15.00", "0.20")
	_, version, err := store.CreateItem(ctx, bookingID, 0, manual)
	require.NoError(t, err)

	first := testItem(billing.OriginComputed, "Aircraft D-EABC (dual)", "1.5", "150.00", "0.20")
	stored, version, err := store.ReplaceComputedItems(ctx, bookingID, version, []billing.LineItem{first})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, int64(2), version)

	// Recalculation swaps the computed subset, the manual item survives.
	second := testItem(billing.OriginComputed, "Aircraft D-EABC (dual)", "1.2", "150.00", "0.20")
	stored, version, err = store.ReplaceComputedItems(ctx, bookingID, version, []billing.LineItem{second})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, second.ID, stored[0].ID)
	assert.Equal(t, int64(3), version)

	var rows []models.LineItemModel
	require.NoError(t, db.Order("origin ASC").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, second.ID, rows[0].ID)
	assert.Equal(t, manual.ID, rows[1].ID)

	var invoice models.InvoiceModel
	require.NoError(t, db.Where("booking_id = ?", bookingID).First(&invoice).Error)
	// 1.2h * 150.00 + 15.00 = 195.00 net, 39.00 tax
	assert.True(t, invoice.Subtotal.Equal(decimal.RequireFromString("195.00")))
	assert.True(t, invoice.Tax.Equal(decimal.RequireFromString("39.00")))
	assert.True(t, invoice.Total.Equal(decimal.RequireFromString("234.00")))
}

func TestGormInvoiceStore_ReplaceComputedItems_Empty(t *testing.T) {
	db := setupInvoiceTestDB(t)
	store := NewGormInvoiceStore(db)
	ctx := context.Background()
	bookingID := uuid.New()

	item := testItem(billing.OriginComputed, "Aircraft D-EABC (dual)", "1.5", "150.00", "0.20")
	_, version, err := store.ReplaceComputedItems(ctx, bookingID, 0, []billing.LineItem{item})
	require.NoError(t, err)

	stored, version, err := store.ReplaceComputedItems(ctx, bookingID, version, nil)
	require.NoError(t, err)
	assert.Empty(t, stored)
	assert.Equal(t, int64(2), version)

	var invoice models.InvoiceModel
	require.NoError(t, db.Where("booking_id = ?", bookingID).First(&invoice).Error)
	assert.True(t, invoice.Total.IsZero())
}

func TestGormInvoiceStore_UpdateItem(t *testing.T) {
	db := setupInvoiceTestDB(t)
	store := NewGormInvoiceStore(db)
	ctx := context.Background()
	bookingID := uuid.New()

	item := testItem(billing.OriginManual, "Landing fee", "1", "15.00", "0.20")
	_, version, err := store.CreateItem(ctx, bookingID, 0, item)
	require.NoError(t, err)

	changed := testItem(billing.OriginManual, "Landing fee x2", "2", "15.00", "0.20")
	changed.ID = item.ID
	stored, version, err := store.UpdateItem(ctx, bookingID, version, changed)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
	assert.Equal(t, "Landing fee x2", stored.Description)
	assert.True(t, stored.Amount.Equal(decimal.RequireFromString("30.00")))

	var invoice models.InvoiceModel
	require.NoError(t, db.Where("booking_id = ?", bookingID).First(&invoice).Error)
	assert.True(t, invoice.Subtotal.Equal(decimal.RequireFromString("30.00")))
}

func TestGormInvoiceStore_UpdateItem_NotFound(t *testing.T) {
	db := setupInvoiceTestDB(t)
	store := NewGormInvoiceStore(db)
	ctx := context.Background()
	bookingID := uuid.New()

	_, version, err := store.CreateItem(ctx, bookingID, 0, testItem(billing.OriginManual, "Landing fee", "1", "15.00", "0.20"))
	require.NoError(t, err)

	unknown := testItem(billing.OriginManual, "Phantom", "1", "1.00", "0")
	_, _, err = store.UpdateItem(ctx, bookingID, version, unknown)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormInvoiceStore_DeleteItem(t *testing.T) {
	db := setupInvoiceTestDB(t)
	store := NewGormInvoiceStore(db)
	ctx := context.Background()
	bookingID := uuid.New()

	item := testItem(billing.OriginManual, "Landing fee", "1", "15.00", "0.20")
	_, version, err := store.CreateItem(ctx, bookingID, 0, item)
	require.NoError(t, err)

	version, err = store.DeleteItem(ctx, bookingID, version, item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	var count int64
	require.NoError(t, db.Model(&models.LineItemModel{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	var invoice models.InvoiceModel
	require.NoError(t, db.Where("booking_id = ?", bookingID).First(&invoice).Error)
	assert.True(t, invoice.Total.IsZero())
}

func TestGormInvoiceStore_DeleteItem_NotFound(t *testing.T) {
	db := setupInvoiceTestDB(t)
	store := NewGormInvoiceStore(db)
	ctx := context.Background()
	bookingID := uuid.New()

	_, version, err := store.CreateItem(ctx, bookingID, 0, testItem(billing.OriginManual, "Landing fee", "1", "15.00", "0.20"))
	require.NoError(t, err)

	_, err = store.DeleteItem(ctx, bookingID, version, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormInvoiceStore_LoadDraft(t *testing.T) {
	t.Run("booking without an invoice yields an empty draft at version zero", func(t *testing.T) {
		db := setupInvoiceTestDB(t)
		store := NewGormInvoiceStore(db)

		state, err := store.LoadDraft(context.Background(), uuid.New())
		require.NoError(t, err)
		assert.Equal(t, int64(0), state.RemoteVersion)
		assert.Empty(t, state.Items)
	})

	t.Run("returns the stored items and version token", func(t *testing.T) {
		db := setupInvoiceTestDB(t)
		store := NewGormInvoiceStore(db)
		ctx := context.Background()
		bookingID := uuid.New()

		computed := testItem(billing.OriginComputed, "Aircraft D-EABC (dual)", "1.5", "150.00", "0.20")
		_, version, err := store.ReplaceComputedItems(ctx, bookingID, 0, []billing.LineItem{computed})
		require.NoError(t, err)
		manual := testItem(billing.OriginManual, "Landing fee", "1", "15.00", "0.20")
		_, version, err = store.CreateItem(ctx, bookingID, version, manual)
		require.NoError(t, err)

		state, err := store.LoadDraft(ctx, bookingID)
		require.NoError(t, err)
		assert.Equal(t, version, state.RemoteVersion)
		require.Len(t, state.Items, 2)
	})
}

func TestGormInvoiceStore_ResumesDraftAcrossProcesses(t *testing.T) {
	db := setupInvoiceTestDB(t)
	store := NewGormInvoiceStore(db)
	ctx := context.Background()
	bookingID := uuid.New()

	first := billing.NewDraftReconciler(bookingID, store, nil)
	require.NoError(t, first.Initialize(ctx, []billing.LineItem{
		testItem(billing.OriginComputed, "Aircraft D-EABC (dual)", "1.5", "150.00", "0.20"),
	}, nil))
	_, err := first.Add(ctx, testItem(billing.OriginManual, "Landing fee", "1", "15.00", "0.20"))
	require.NoError(t, err)
	persisted := first.State()

	// A reconciler built after a restart starts from the stored draft,
	// not from version zero, so its mutations are accepted.
	loaded, err := store.LoadDraft(ctx, bookingID)
	require.NoError(t, err)
	second := billing.NewDraftReconciler(bookingID, store, nil)
	second.Hydrate(loaded)

	resumed := second.State()
	assert.Equal(t, persisted.RemoteVersion, resumed.RemoteVersion)
	assert.True(t, persisted.Totals.Equals(resumed.Totals))

	_, err = second.Add(ctx, testItem(billing.OriginManual, "Headset rental", "1", "5.00", "0.20"))
	require.NoError(t, err)
	assert.Len(t, second.State().Items, 3)
}

func TestGormInvoiceStore_RejectsFinalizedInvoice(t *testing.T) {
	db := setupInvoiceTestDB(t)
	store := NewGormInvoiceStore(db)
	ctx := context.Background()
	bookingID := uuid.New()

	item := testItem(billing.OriginManual, "Landing fee", "1", "15.00", "0.20")
	_, version, err := store.CreateItem(ctx, bookingID, 0, item)
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.InvoiceModel{}).
		Where("booking_id = ?", bookingID).
		Update("status", string(billing.InvoiceFinalized)).Error)

	_, _, err = store.CreateItem(ctx, bookingID, version, testItem(billing.OriginManual, "Headset rental", "1", "5.00", "0.20"))
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}
