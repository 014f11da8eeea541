package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/aeroclub/backend/internal/domain/billing"
	"github.com/aeroclub/backend/internal/domain/shared"
	"github.com/aeroclub/backend/internal/infrastructure/persistence/models"
)

// GormInvoiceStore implements billing.InvoiceStore using GORM. Each
// mutation runs in one transaction: the invoice row is loaded (or
// created on first touch), the presented draft version is checked
// against the stored one, the line item rows are changed, and the
// invoice totals and version are rewritten from the surviving rows.
type GormInvoiceStore struct {
	db *gorm.DB
}

// NewGormInvoiceStore creates a new GormInvoiceStore
func NewGormInvoiceStore(db *gorm.DB) *GormInvoiceStore {
	return &GormInvoiceStore{db: db}
}

// LoadDraft returns the stored draft for a booking so a new session can
// resume at the persisted version token. A booking without an invoice
// row yields an empty draft at version zero.
func (s *GormInvoiceStore) LoadDraft(ctx context.Context, bookingID uuid.UUID) (billing.DraftInvoiceState, error) {
	var invoice models.InvoiceModel
	err := s.db.WithContext(ctx).Where("booking_id = ?", bookingID).First(&invoice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return billing.NewDraftInvoiceState(), nil
	}
	if err != nil {
		return billing.DraftInvoiceState{}, fmt.Errorf("failed to load invoice: %w", err)
	}

	var rows []models.LineItemModel
	if err := s.db.WithContext(ctx).
		Where("invoice_id = ?", invoice.ID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return billing.DraftInvoiceState{}, fmt.Errorf("failed to load items: %w", err)
	}

	state := billing.NewDraftInvoiceState()
	state.RemoteVersion = invoice.DraftVersion
	for i := range rows {
		state.Items = append(state.Items, rows[i].ToDomain())
	}
	return state, nil
}

// ReplaceComputedItems atomically swaps the computed subset of the
// booking's draft, leaving manual items alone
func (s *GormInvoiceStore) ReplaceComputedItems(ctx context.Context, bookingID uuid.UUID, version int64, items []billing.LineItem) ([]billing.LineItem, int64, error) {
	var stored []billing.LineItem
	var newVersion int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := loadDraftInvoice(tx, bookingID, version)
		if err != nil {
			return err
		}

		if err := tx.Where("invoice_id = ? AND origin = ?", invoice.ID, billing.OriginComputed.String()).
			Delete(&models.LineItemModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete computed items: %w", err)
		}

		rows := make([]*models.LineItemModel, 0, len(items))
		for i := range items {
			rows = append(rows, models.LineItemModelFromDomain(invoice.ID, items[i]))
		}
		if len(rows) > 0 {
			if err := tx.Create(rows).Error; err != nil {
				return fmt.Errorf("failed to insert computed items: %w", err)
			}
		}

		if err := commitDraftMutation(tx, invoice); err != nil {
			return err
		}
		newVersion = invoice.DraftVersion

		stored = make([]billing.LineItem, 0, len(rows))
		for _, row := range rows {
			stored = append(stored, row.ToDomain())
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return stored, newVersion, nil
}

// CreateItem persists one new line item and returns the stored row
func (s *GormInvoiceStore) CreateItem(ctx context.Context, bookingID uuid.UUID, version int64, item billing.LineItem) (*billing.LineItem, int64, error) {
	var stored billing.LineItem
	var newVersion int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := loadDraftInvoice(tx, bookingID, version)
		if err != nil {
			return err
		}

		row := models.LineItemModelFromDomain(invoice.ID, item)
		if err := tx.Create(row).Error; err != nil {
			return fmt.Errorf("failed to insert item: %w", err)
		}

		if err := commitDraftMutation(tx, invoice); err != nil {
			return err
		}
		newVersion = invoice.DraftVersion
		stored = row.ToDomain()
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return &stored, newVersion, nil
}

// UpdateItem persists a changed line item and returns the stored row
func (s *GormInvoiceStore) UpdateItem(ctx context.Context, bookingID uuid.UUID, version int64, item billing.LineItem) (*billing.LineItem, int64, error) {
	var stored billing.LineItem
	var newVersion int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := loadDraftInvoice(tx, bookingID, version)
		if err != nil {
			return err
		}

		row := models.LineItemModelFromDomain(invoice.ID, item)
		result := tx.Model(&models.LineItemModel{}).
			Where("id = ? AND invoice_id = ?", row.ID, invoice.ID).
			Select("*").Omit("id", "invoice_id", "created_at").
			Updates(row)
		if result.Error != nil {
			return fmt.Errorf("failed to update item: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}

		if err := commitDraftMutation(tx, invoice); err != nil {
			return err
		}
		newVersion = invoice.DraftVersion
		stored = row.ToDomain()
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return &stored, newVersion, nil
}

// DeleteItem removes one line item from the draft
func (s *GormInvoiceStore) DeleteItem(ctx context.Context, bookingID uuid.UUID, version int64, itemID uuid.UUID) (int64, error) {
	var newVersion int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := loadDraftInvoice(tx, bookingID, version)
		if err != nil {
			return err
		}

		result := tx.Where("id = ? AND invoice_id = ?", itemID, invoice.ID).
			Delete(&models.LineItemModel{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete item: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}

		if err := commitDraftMutation(tx, invoice); err != nil {
			return err
		}
		newVersion = invoice.DraftVersion
		return nil
	})
	if err != nil {
		return 0, err
	}
	return newVersion, nil
}

// loadDraftInvoice loads the invoice row for a booking, creating it on
// first touch, and checks the presented draft version token
func loadDraftInvoice(tx *gorm.DB, bookingID uuid.UUID, version int64) (*models.InvoiceModel, error) {
	var invoice models.InvoiceModel
	err := tx.Where("booking_id = ?", bookingID).First(&invoice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		invoice = models.InvoiceModel{
			BaseModel: models.BaseModel{ID: uuid.New()},
			BookingID: bookingID,
			Status:    string(billing.InvoiceDraft),
		}
		if err := tx.Create(&invoice).Error; err != nil {
			return nil, fmt.Errorf("failed to create invoice: %w", err)
		}
	} else if err != nil {
		return nil, err
	}

	if invoice.IsFinalized() {
		return nil, fmt.Errorf("%w: invoice is finalized", shared.ErrInvalidState)
	}
	if invoice.DraftVersion != version {
		return nil, shared.ErrConcurrencyConflict
	}
	return &invoice, nil
}

// commitDraftMutation refolds the invoice totals from the surviving
// line item rows and bumps the draft version
func commitDraftMutation(tx *gorm.DB, invoice *models.InvoiceModel) error {
	var rows []models.LineItemModel
	if err := tx.Where("invoice_id = ?", invoice.ID).Find(&rows).Error; err != nil {
		return fmt.Errorf("failed to load items: %w", err)
	}

	subtotal := decimal.Zero
	tax := decimal.Zero
	total := decimal.Zero
	for i := range rows {
		subtotal = subtotal.Add(rows[i].Amount)
		tax = tax.Add(rows[i].TaxAmount)
		total = total.Add(rows[i].LineTotal)
	}

	invoice.Subtotal = subtotal
	invoice.Tax = tax
	invoice.Total = total
	invoice.DraftVersion++
	invoice.UpdatedAt = time.Now()
	if err := tx.Model(&models.InvoiceModel{}).
		Where("id = ?", invoice.ID).
		Updates(map[string]interface{}{
			"subtotal":      invoice.Subtotal,
			"tax":           invoice.Tax,
			"total":         invoice.Total,
			"draft_version": invoice.DraftVersion,
			"updated_at":    invoice.UpdatedAt,
		}).Error; err != nil {
		return fmt.Errorf("failed to update invoice: %w", err)
	}
	return nil
}

// Ensure GormInvoiceStore implements billing.InvoiceStore
var _ billing.InvoiceStore = (*GormInvoiceStore)(nil)
