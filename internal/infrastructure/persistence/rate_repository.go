package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aeroclub/backend/internal/domain/fleet"
	"github.com/aeroclub/backend/internal/domain/shared"
	"github.com/aeroclub/backend/internal/infrastructure/persistence/models"
)

// GormRateRepository implements fleet.RateRepository using GORM
type GormRateRepository struct {
	db *gorm.DB
}

// NewGormRateRepository creates a new GormRateRepository
func NewGormRateRepository(db *gorm.DB) *GormRateRepository {
	return &GormRateRepository{db: db}
}

// FindAircraftRate finds the rate row for an (aircraft, flight type) pair
func (r *GormRateRepository) FindAircraftRate(ctx context.Context, aircraftID, flightTypeID uuid.UUID) (*fleet.AircraftRate, error) {
	var model models.AircraftRateModel
	if err := r.db.WithContext(ctx).
		Where("aircraft_id = ? AND flight_type_id = ?", aircraftID, flightTypeID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindInstructorRate finds the rate row for an (instructor, flight type) pair
func (r *GormRateRepository) FindInstructorRate(ctx context.Context, instructorID, flightTypeID uuid.UUID) (*fleet.InstructorRate, error) {
	var model models.InstructorRateModel
	if err := r.db.WithContext(ctx).
		Where("instructor_id = ? AND flight_type_id = ?", instructorID, flightTypeID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// SaveAircraftRate creates or updates an aircraft rate entry
func (r *GormRateRepository) SaveAircraftRate(ctx context.Context, rate *fleet.AircraftRate) error {
	model := &models.AircraftRateModel{}
	model.FromDomain(rate)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveInstructorRate creates or updates an instructor rate entry
func (r *GormRateRepository) SaveInstructorRate(ctx context.Context, rate *fleet.InstructorRate) error {
	model := &models.InstructorRateModel{}
	model.FromDomain(rate)
	return r.db.WithContext(ctx).Save(model).Error
}

// Ensure GormRateRepository implements fleet.RateRepository
var _ fleet.RateRepository = (*GormRateRepository)(nil)
