package fleet

import (
	"time"

	"github.com/aeroclub/backend/internal/domain/shared"
)

// Instructor represents a flight instructor on the club's roster
type Instructor struct {
	shared.BaseAggregateRoot
	Name    string
	License string
	Active  bool
}

// NewInstructor creates a new instructor
func NewInstructor(name, license string) (*Instructor, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Instructor name cannot be empty")
	}
	if license == "" {
		return nil, shared.NewDomainError("INVALID_LICENSE", "Instructor license cannot be empty")
	}

	return &Instructor{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		License:           license,
		Active:            true,
	}, nil
}

// Deactivate removes the instructor from the active roster. Historic
// flight log entries and invoices are unaffected.
func (i *Instructor) Deactivate() {
	i.Active = false
	i.UpdatedAt = time.Now()
}
