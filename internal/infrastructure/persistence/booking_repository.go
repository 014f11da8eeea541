package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aeroclub/backend/internal/domain/billing"
	"github.com/aeroclub/backend/internal/domain/booking"
	"github.com/aeroclub/backend/internal/domain/shared"
	"github.com/aeroclub/backend/internal/infrastructure/persistence/models"
)

// GormBookingRepository implements booking.Repository using GORM
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID finds a booking by its ID
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	var model models.BookingModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByReference finds a booking by its human-readable reference
func (r *GormBookingRepository) FindByReference(ctx context.Context, reference string) (*booking.Booking, error) {
	var model models.BookingModel
	if err := r.db.WithContext(ctx).
		Where("reference = ?", reference).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByStatus finds bookings in the given lifecycle state
func (r *GormBookingRepository) FindByStatus(ctx context.Context, status billing.LifecycleStatus, filter shared.Filter) ([]booking.Booking, error) {
	var rows []models.BookingModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.BookingModel{}).
			Where("status = ?", status.String()),
		filter,
	)

	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	bookings := make([]booking.Booking, len(rows))
	for i := range rows {
		bookings[i] = *rows[i].ToDomain()
	}
	return bookings, nil
}

// Save creates or updates a booking
func (r *GormBookingRepository) Save(ctx context.Context, b *booking.Booking) error {
	model := models.BookingModelFromDomain(b)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking. The update only lands when
// the stored version still matches the aggregate's version; on success
// the version is bumped in both the row and the aggregate. A stale
// version is reported as shared.ErrConcurrencyConflict.
func (r *GormBookingRepository) SaveWithLock(ctx context.Context, b *booking.Booking) error {
	model := models.BookingModelFromDomain(b)

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.BookingModel{}).
		Where("id = ?", model.ID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		model.Version = b.Version
		if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
			return err
		}
		return nil
	}

	currentVersion := model.Version
	model.Version = currentVersion + 1

	result := r.db.WithContext(ctx).
		Model(&models.BookingModel{}).
		Where("id = ? AND version = ?", model.ID, currentVersion).
		Select("*").
		Omit("created_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}

	b.Version = model.Version
	return nil
}

// Count counts bookings matching the filter
func (r *GormBookingRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.BookingModel{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormBookingRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	sortField := ValidateSortField(filter.OrderBy, BookingSortFields, "scheduled_start")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	query = query.Order(sortField + " " + sortOrder)

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormBookingRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("reference LIKE ? OR member_name LIKE ?", searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "aircraft_id":
			query = query.Where("aircraft_id = ?", value)
		case "member_id":
			query = query.Where("member_id = ?", value)
		case "instructor_id":
			query = query.Where("instructor_id = ?", value)
		}
	}

	return query
}

// Ensure GormBookingRepository implements booking.Repository
var _ booking.Repository = (*GormBookingRepository)(nil)
