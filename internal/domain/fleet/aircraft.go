package fleet

import (
	"time"

	"github.com/aeroclub/backend/internal/domain/billing"
	"github.com/aeroclub/backend/internal/domain/shared"
)

// AircraftStatus represents the operational status of an aircraft
type AircraftStatus string

const (
	AircraftStatusActive      AircraftStatus = "ACTIVE"
	AircraftStatusMaintenance AircraftStatus = "MAINTENANCE"
	AircraftStatusRetired     AircraftStatus = "RETIRED"
)

// IsValid checks if the status is a valid AircraftStatus
func (s AircraftStatus) IsValid() bool {
	switch s {
	case AircraftStatusActive, AircraftStatusMaintenance, AircraftStatusRetired:
		return true
	}
	return false
}

// String returns the string representation of AircraftStatus
func (s AircraftStatus) String() string {
	return string(s)
}

// Aircraft represents an aircraft aggregate root. The billing basis
// decides which meter pair the aircraft is billed by; tachometer-billed
// aircraft still record hobbs for the flight log.
type Aircraft struct {
	shared.BaseAggregateRoot
	Registration string
	Model        string
	BillingBasis billing.BillingBasis
	Status       AircraftStatus
}

// NewAircraft creates a new aircraft
func NewAircraft(registration, model string, basis billing.BillingBasis) (*Aircraft, error) {
	if registration == "" {
		return nil, shared.NewDomainError("INVALID_REGISTRATION", "Registration cannot be empty")
	}
	if len(registration) > 10 {
		return nil, shared.NewDomainError("INVALID_REGISTRATION", "Registration cannot exceed 10 characters")
	}
	if model == "" {
		return nil, shared.NewDomainError("INVALID_MODEL", "Model cannot be empty")
	}
	if !basis.IsValid() {
		return nil, shared.NewDomainError("INVALID_BILLING_BASIS", "Unknown billing basis "+basis.String())
	}

	return &Aircraft{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Registration:      registration,
		Model:             model,
		BillingBasis:      basis,
		Status:            AircraftStatusActive,
	}, nil
}

// ChangeBillingBasis switches the meter pair the aircraft is billed by.
// Affects future calculations only; existing drafts keep their items.
func (a *Aircraft) ChangeBillingBasis(basis billing.BillingBasis) error {
	if !basis.IsValid() {
		return shared.NewDomainError("INVALID_BILLING_BASIS", "Unknown billing basis "+basis.String())
	}
	a.BillingBasis = basis
	a.UpdatedAt = time.Now()
	return nil
}

// SetStatus updates the operational status
func (a *Aircraft) SetStatus(status AircraftStatus) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Unknown aircraft status "+status.String())
	}
	a.Status = status
	a.UpdatedAt = time.Now()
	return nil
}

// IsBookable reports whether the aircraft can currently be flown
func (a *Aircraft) IsBookable() bool {
	return a.Status == AircraftStatusActive
}
