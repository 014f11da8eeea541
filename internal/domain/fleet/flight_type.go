package fleet

import (
	"time"

	"github.com/google/uuid"

	"github.com/aeroclub/backend/internal/domain/shared"
)

// FlightType represents a billable category of flying (private hire,
// dual instruction, solo supervised, trial lesson). Rates are keyed per
// flight type, so the same aircraft can carry different hourly rates
// for instruction and private hire.
type FlightType struct {
	shared.BaseAggregateRoot
	Name string
	Code string

	// DualInstruction marks types flown with an instructor on board.
	// Only these may be followed by a solo continuation in one booking.
	DualInstruction bool

	// RequiresInstructor rejects calculations without an instructor
	// assigned to the booking.
	RequiresInstructor bool

	// SoloContinuationTypeID is the flight type a solo continuation is
	// billed against, typically a supervised-solo type without
	// instruction charges. Only meaningful on dual instruction types.
	SoloContinuationTypeID *uuid.UUID
}

// NewFlightType creates a new flight type
func NewFlightType(name, code string, dualInstruction, requiresInstructor bool) (*FlightType, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Flight type name cannot be empty")
	}
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Flight type code cannot be empty")
	}
	if requiresInstructor && !dualInstruction {
		return nil, shared.NewDomainError("INVALID_FLIGHT_TYPE", "Only dual instruction types can require an instructor")
	}

	return &FlightType{
		BaseAggregateRoot:  shared.NewBaseAggregateRoot(),
		Name:               name,
		Code:               code,
		DualInstruction:    dualInstruction,
		RequiresInstructor: requiresInstructor,
	}, nil
}

// SetSoloContinuationType configures the flight type solo continuations
// are billed against
func (f *FlightType) SetSoloContinuationType(typeID uuid.UUID) error {
	if !f.DualInstruction {
		return shared.NewDomainError("INVALID_FLIGHT_TYPE", "Solo continuation only applies to dual instruction types")
	}
	if typeID == uuid.Nil {
		return shared.NewDomainError("INVALID_FLIGHT_TYPE", "Solo continuation type ID cannot be empty")
	}
	if typeID == f.ID {
		return shared.NewDomainError("INVALID_FLIGHT_TYPE", "Solo continuation type cannot reference itself")
	}
	f.SoloContinuationTypeID = &typeID
	f.UpdatedAt = time.Now()
	return nil
}
