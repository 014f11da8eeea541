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

// GormInstructorRepository implements fleet.InstructorRepository using GORM
type GormInstructorRepository struct {
	db *gorm.DB
}

// NewGormInstructorRepository creates a new GormInstructorRepository
func NewGormInstructorRepository(db *gorm.DB) *GormInstructorRepository {
	return &GormInstructorRepository{db: db}
}

// FindByID finds an instructor by ID
func (r *GormInstructorRepository) FindByID(ctx context.Context, id uuid.UUID) (*fleet.Instructor, error) {
	var model models.InstructorModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds all instructors matching the filter
func (r *GormInstructorRepository) FindAll(ctx context.Context, filter shared.Filter) ([]fleet.Instructor, error) {
	var rows []models.InstructorModel
	query := r.db.WithContext(ctx).Model(&models.InstructorModel{})

	if filter.Search != "" {
		query = query.Where("name LIKE ?", "%"+filter.Search+"%")
	}
	if active, ok := filter.Filters["active"]; ok {
		query = query.Where("active = ?", active)
	}
	query = query.Order("name ASC")

	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	instructors := make([]fleet.Instructor, len(rows))
	for i := range rows {
		instructors[i] = *rows[i].ToDomain()
	}
	return instructors, nil
}

// Save creates or updates an instructor
func (r *GormInstructorRepository) Save(ctx context.Context, i *fleet.Instructor) error {
	model := &models.InstructorModel{}
	model.FromDomain(i)
	return r.db.WithContext(ctx).Save(model).Error
}

// Ensure GormInstructorRepository implements fleet.InstructorRepository
var _ fleet.InstructorRepository = (*GormInstructorRepository)(nil)
