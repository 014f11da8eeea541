package booking

import (
	"context"

	"github.com/google/uuid"

	"github.com/aeroclub/backend/internal/domain/billing"
	"github.com/aeroclub/backend/internal/domain/shared"
)

// Repository defines the interface for booking persistence
type Repository interface {
	// FindByID finds a booking by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByReference finds a booking by its human-readable reference
	FindByReference(ctx context.Context, reference string) (*Booking, error)

	// FindByStatus finds bookings in the given lifecycle state
	FindByStatus(ctx context.Context, status billing.LifecycleStatus, filter shared.Filter) ([]Booking, error)

	// Save creates or updates a booking
	Save(ctx context.Context, b *Booking) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, b *Booking) error

	// Count counts bookings matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
