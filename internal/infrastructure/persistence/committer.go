package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aeroclub/backend/internal/domain/billing"
	"github.com/aeroclub/backend/internal/domain/shared"
	"github.com/aeroclub/backend/internal/infrastructure/persistence/models"
)

// GormBookingCommitter implements billing.BookingCommitter using GORM.
// Each half of the commit is idempotent per booking: the flight log is
// keyed uniquely by booking and skipped when it already exists, and
// finalizing an already finalized invoice is a no-op.
type GormBookingCommitter struct {
	db *gorm.DB
}

// NewGormBookingCommitter creates a new GormBookingCommitter
func NewGormBookingCommitter(db *gorm.DB) *GormBookingCommitter {
	return &GormBookingCommitter{db: db}
}

// CommitFlightLog writes the flight log entry with its billed segments
// and stores the final meter reading on the booking row
func (c *GormBookingCommitter) CommitFlightLog(ctx context.Context, in billing.CompletionInput) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.FlightLogModel
		err := tx.Where("booking_id = ?", in.BookingID).First(&existing).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var booking models.BookingModel
		if err := tx.First(&booking, "id = ?", in.BookingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		log := models.FlightLogModel{
			BaseModel:    models.BaseModel{ID: uuid.New()},
			BookingID:    in.BookingID,
			AircraftID:   booking.AircraftID,
			MemberID:     booking.MemberID,
			HobbsStart:   in.Reading.HobbsStart,
			HobbsEnd:     in.Reading.HobbsEnd,
			TachStart:    in.Reading.TachStart,
			TachEnd:      in.Reading.TachEnd,
			SoloEndHobbs: in.Reading.SoloEndHobbs,
			TotalHours:   billing.TotalDuration(in.Segments),
		}
		if err := tx.Create(&log).Error; err != nil {
			return fmt.Errorf("failed to create flight log: %w", err)
		}

		if len(in.Segments) > 0 {
			rows := make([]models.FlightLogSegmentModel, 0, len(in.Segments))
			for _, seg := range in.Segments {
				rows = append(rows, models.FlightLogSegmentModel{
					ID:            uuid.New(),
					FlightLogID:   log.ID,
					Kind:          seg.Kind.String(),
					DurationHours: seg.DurationHours,
					FlightTypeID:  seg.FlightTypeID,
					InstructorID:  seg.InstructorID,
					CreatedAt:     time.Now(),
				})
			}
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("failed to create flight log segments: %w", err)
			}
		}

		return tx.Model(&models.BookingModel{}).
			Where("id = ?", in.BookingID).
			Updates(map[string]interface{}{
				"hobbs_start":    in.Reading.HobbsStart,
				"hobbs_end":      in.Reading.HobbsEnd,
				"tach_start":     in.Reading.TachStart,
				"tach_end":       in.Reading.TachEnd,
				"solo_end_hobbs": in.Reading.SoloEndHobbs,
				"updated_at":     time.Now(),
			}).Error
	})
}

// FinalizeInvoice freezes the booking's draft invoice and advances the
// booking row to COMPLETED
func (c *GormBookingCommitter) FinalizeInvoice(ctx context.Context, in billing.CompletionInput) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var invoice models.InvoiceModel
		if err := tx.Where("booking_id = ?", in.BookingID).First(&invoice).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}
		if invoice.IsFinalized() {
			return nil
		}

		now := time.Now()
		if err := tx.Model(&models.InvoiceModel{}).
			Where("id = ?", invoice.ID).
			Updates(map[string]interface{}{
				"status":       string(billing.InvoiceFinalized),
				"finalized_at": now,
				"subtotal":     in.Draft.Totals.Subtotal,
				"tax":          in.Draft.Totals.Tax,
				"total":        in.Draft.Totals.Total,
				"updated_at":   now,
			}).Error; err != nil {
			return fmt.Errorf("failed to finalize invoice: %w", err)
		}

		return tx.Model(&models.BookingModel{}).
			Where("id = ?", in.BookingID).
			Updates(map[string]interface{}{
				"status":       billing.StatusCompleted.String(),
				"completed_at": now,
				"updated_at":   now,
			}).Error
	})
}

// IsFinalized reports whether the booking's invoice has been finalized
func (c *GormBookingCommitter) IsFinalized(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	var invoice models.InvoiceModel
	err := c.db.WithContext(ctx).Where("booking_id = ?", bookingID).First(&invoice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return invoice.IsFinalized(), nil
}

// Ensure GormBookingCommitter implements billing.BookingCommitter
var _ billing.BookingCommitter = (*GormBookingCommitter)(nil)
