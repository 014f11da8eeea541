package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aeroclub/backend/internal/domain/fleet"
	"github.com/aeroclub/backend/internal/domain/shared"
	"github.com/aeroclub/backend/internal/infrastructure/persistence/models"
)

// GormAircraftRepository implements fleet.AircraftRepository using GORM
type GormAircraftRepository struct {
	db *gorm.DB
}

// NewGormAircraftRepository creates a new GormAircraftRepository
func NewGormAircraftRepository(db *gorm.DB) *GormAircraftRepository {
	return &GormAircraftRepository{db: db}
}

// FindByID finds an aircraft by its ID
func (r *GormAircraftRepository) FindByID(ctx context.Context, id uuid.UUID) (*fleet.Aircraft, error) {
	var model models.AircraftModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByRegistration finds an aircraft by its registration
func (r *GormAircraftRepository) FindByRegistration(ctx context.Context, registration string) (*fleet.Aircraft, error) {
	var model models.AircraftModel
	if err := r.db.WithContext(ctx).
		Where("registration = ?", strings.ToUpper(registration)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds all aircraft matching the filter
func (r *GormAircraftRepository) FindAll(ctx context.Context, filter shared.Filter) ([]fleet.Aircraft, error) {
	var rows []models.AircraftModel
	query := r.db.WithContext(ctx).Model(&models.AircraftModel{})

	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("registration LIKE ? OR model LIKE ?", searchPattern, searchPattern)
	}
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	query = query.Order("registration ASC")

	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	aircraft := make([]fleet.Aircraft, len(rows))
	for i := range rows {
		aircraft[i] = *rows[i].ToDomain()
	}
	return aircraft, nil
}

// Save creates or updates an aircraft
func (r *GormAircraftRepository) Save(ctx context.Context, a *fleet.Aircraft) error {
	model := &models.AircraftModel{}
	model.FromDomain(a)
	return r.db.WithContext(ctx).Save(model).Error
}

// Ensure GormAircraftRepository implements fleet.AircraftRepository
var _ fleet.AircraftRepository = (*GormAircraftRepository)(nil)
