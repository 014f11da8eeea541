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

// GormFlightTypeRepository implements fleet.FlightTypeRepository using GORM
type GormFlightTypeRepository struct {
	db *gorm.DB
}

// NewGormFlightTypeRepository creates a new GormFlightTypeRepository
func NewGormFlightTypeRepository(db *gorm.DB) *GormFlightTypeRepository {
	return &GormFlightTypeRepository{db: db}
}

// FindByID finds a flight type by its ID
func (r *GormFlightTypeRepository) FindByID(ctx context.Context, id uuid.UUID) (*fleet.FlightType, error) {
	var model models.FlightTypeModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCode finds a flight type by its code
func (r *GormFlightTypeRepository) FindByCode(ctx context.Context, code string) (*fleet.FlightType, error) {
	var model models.FlightTypeModel
	if err := r.db.WithContext(ctx).
		Where("code = ?", strings.ToUpper(code)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds all flight types matching the filter
func (r *GormFlightTypeRepository) FindAll(ctx context.Context, filter shared.Filter) ([]fleet.FlightType, error) {
	var rows []models.FlightTypeModel
	query := r.db.WithContext(ctx).Model(&models.FlightTypeModel{})

	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR code LIKE ?", searchPattern, searchPattern)
	}
	query = query.Order("code ASC")

	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	types := make([]fleet.FlightType, len(rows))
	for i := range rows {
		types[i] = *rows[i].ToDomain()
	}
	return types, nil
}

// Save creates or updates a flight type
func (r *GormFlightTypeRepository) Save(ctx context.Context, f *fleet.FlightType) error {
	model := &models.FlightTypeModel{}
	model.FromDomain(f)
	return r.db.WithContext(ctx).Save(model).Error
}

// Ensure GormFlightTypeRepository implements fleet.FlightTypeRepository
var _ fleet.FlightTypeRepository = (*GormFlightTypeRepository)(nil)
