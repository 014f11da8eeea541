package fleet

import (
	"context"

	"github.com/google/uuid"

	"github.com/aeroclub/backend/internal/domain/shared"
)

// AircraftRepository defines the interface for aircraft persistence
type AircraftRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Aircraft, error)
	FindByRegistration(ctx context.Context, registration string) (*Aircraft, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Aircraft, error)
	Save(ctx context.Context, a *Aircraft) error
}

// FlightTypeRepository defines the interface for flight type persistence
type FlightTypeRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*FlightType, error)
	FindByCode(ctx context.Context, code string) (*FlightType, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]FlightType, error)
	Save(ctx context.Context, f *FlightType) error
}

// InstructorRepository defines the interface for instructor persistence
type InstructorRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Instructor, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Instructor, error)
	Save(ctx context.Context, i *Instructor) error
}

// ChargeableRepository defines the interface for chargeable persistence
type ChargeableRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Chargeable, error)
	FindActive(ctx context.Context) ([]Chargeable, error)
	Save(ctx context.Context, c *Chargeable) error
}

// RateRepository defines the interface for rate entry persistence.
// Lookups return shared.ErrNotFound when no row exists for the pair.
type RateRepository interface {
	FindAircraftRate(ctx context.Context, aircraftID, flightTypeID uuid.UUID) (*AircraftRate, error)
	FindInstructorRate(ctx context.Context, instructorID, flightTypeID uuid.UUID) (*InstructorRate, error)
	SaveAircraftRate(ctx context.Context, r *AircraftRate) error
	SaveInstructorRate(ctx context.Context, r *InstructorRate) error
}
