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

// GormChargeableRepository implements fleet.ChargeableRepository using GORM
type GormChargeableRepository struct {
	db *gorm.DB
}

// NewGormChargeableRepository creates a new GormChargeableRepository
func NewGormChargeableRepository(db *gorm.DB) *GormChargeableRepository {
	return &GormChargeableRepository{db: db}
}

// FindByID finds a chargeable by ID
func (r *GormChargeableRepository) FindByID(ctx context.Context, id uuid.UUID) (*fleet.Chargeable, error) {
	var model models.ChargeableModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActive finds all chargeables offered for new draft items
func (r *GormChargeableRepository) FindActive(ctx context.Context) ([]fleet.Chargeable, error) {
	var rows []models.ChargeableModel
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	chargeables := make([]fleet.Chargeable, len(rows))
	for i := range rows {
		chargeables[i] = *rows[i].ToDomain()
	}
	return chargeables, nil
}

// Save creates or updates a chargeable
func (r *GormChargeableRepository) Save(ctx context.Context, c *fleet.Chargeable) error {
	model := &models.ChargeableModel{}
	model.FromDomain(c)
	return r.db.WithContext(ctx).Save(model).Error
}

// Ensure GormChargeableRepository implements fleet.ChargeableRepository
var _ fleet.ChargeableRepository = (*GormChargeableRepository)(nil)
