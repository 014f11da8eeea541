package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/aeroclub/backend/internal/domain/fleet"
	"github.com/aeroclub/backend/internal/domain/shared"
	"github.com/aeroclub/backend/internal/infrastructure/persistence/models"
)

// GormSettingsRepository implements fleet.SettingsRepository using GORM.
// There is exactly one settings row.
type GormSettingsRepository struct {
	db *gorm.DB
}

// NewGormSettingsRepository creates a new GormSettingsRepository
func NewGormSettingsRepository(db *gorm.DB) *GormSettingsRepository {
	return &GormSettingsRepository{db: db}
}

// Get loads the club settings row
func (r *GormSettingsRepository) Get(ctx context.Context) (*fleet.ClubSettings, error) {
	var model models.ClubSettingsModel
	if err := r.db.WithContext(ctx).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates the club settings row
func (r *GormSettingsRepository) Save(ctx context.Context, s *fleet.ClubSettings) error {
	model := &models.ClubSettingsModel{}
	model.FromDomain(s)
	return r.db.WithContext(ctx).Save(model).Error
}

// Ensure GormSettingsRepository implements fleet.SettingsRepository
var _ fleet.SettingsRepository = (*GormSettingsRepository)(nil)
