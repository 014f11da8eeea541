package fleet

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aeroclub/backend/internal/domain/shared"
)

// AircraftRate is the tax-exclusive hourly rate for one aircraft on one
// flight type. The pair (AircraftID, FlightTypeID) is unique.
type AircraftRate struct {
	shared.BaseEntity
	AircraftID   uuid.UUID
	FlightTypeID uuid.UUID
	HourlyRate   decimal.Decimal
	Taxable      bool
}

// NewAircraftRate creates a new aircraft rate entry
func NewAircraftRate(aircraftID, flightTypeID uuid.UUID, hourlyRate decimal.Decimal, taxable bool) (*AircraftRate, error) {
	if aircraftID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_AIRCRAFT", "Aircraft ID cannot be empty")
	}
	if flightTypeID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_FLIGHT_TYPE", "Flight type ID cannot be empty")
	}
	if hourlyRate.IsNegative() {
		return nil, shared.NewDomainError("INVALID_RATE", "Hourly rate cannot be negative")
	}

	return &AircraftRate{
		BaseEntity:   shared.NewBaseEntity(),
		AircraftID:   aircraftID,
		FlightTypeID: flightTypeID,
		HourlyRate:   hourlyRate,
		Taxable:      taxable,
	}, nil
}

// UpdateRate changes the hourly rate
func (r *AircraftRate) UpdateRate(hourlyRate decimal.Decimal) error {
	if hourlyRate.IsNegative() {
		return shared.NewDomainError("INVALID_RATE", "Hourly rate cannot be negative")
	}
	r.HourlyRate = hourlyRate
	r.UpdatedAt = time.Now()
	return nil
}

// InstructorRate is the tax-exclusive hourly instruction rate for one
// instructor on one flight type
type InstructorRate struct {
	shared.BaseEntity
	InstructorID uuid.UUID
	FlightTypeID uuid.UUID
	HourlyRate   decimal.Decimal
	Taxable      bool
}

// NewInstructorRate creates a new instructor rate entry
func NewInstructorRate(instructorID, flightTypeID uuid.UUID, hourlyRate decimal.Decimal, taxable bool) (*InstructorRate, error) {
	if instructorID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INSTRUCTOR", "Instructor ID cannot be empty")
	}
	if flightTypeID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_FLIGHT_TYPE", "Flight type ID cannot be empty")
	}
	if hourlyRate.IsNegative() {
		return nil, shared.NewDomainError("INVALID_RATE", "Hourly rate cannot be negative")
	}

	return &InstructorRate{
		BaseEntity:   shared.NewBaseEntity(),
		InstructorID: instructorID,
		FlightTypeID: flightTypeID,
		HourlyRate:   hourlyRate,
		Taxable:      taxable,
	}, nil
}

// UpdateRate changes the hourly rate
func (r *InstructorRate) UpdateRate(hourlyRate decimal.Decimal) error {
	if hourlyRate.IsNegative() {
		return shared.NewDomainError("INVALID_RATE", "Hourly rate cannot be negative")
	}
	r.HourlyRate = hourlyRate
	r.UpdatedAt = time.Now()
	return nil
}
