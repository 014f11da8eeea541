package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/aeroclub/backend/internal/domain/billing"
	"github.com/aeroclub/backend/internal/domain/fleet"
	"github.com/aeroclub/backend/internal/domain/shared"
	"github.com/aeroclub/backend/internal/domain/shared/valueobject"
)

// RepositoryRateSource implements billing.RateSource on top of the fleet
// rate repository. A missing rate row passes shared.ErrNotFound through
// so the resolver can report RATE_NOT_CONFIGURED.
type RepositoryRateSource struct {
	rates fleet.RateRepository
}

// NewRepositoryRateSource creates a new RepositoryRateSource
func NewRepositoryRateSource(rates fleet.RateRepository) *RepositoryRateSource {
	return &RepositoryRateSource{rates: rates}
}

// AircraftRate looks up the hourly rate for an (aircraft, flight type) pair
func (s *RepositoryRateSource) AircraftRate(ctx context.Context, aircraftID, flightTypeID uuid.UUID) (*billing.RateQuote, error) {
	rate, err := s.rates.FindAircraftRate(ctx, aircraftID, flightTypeID)
	if err != nil {
		return nil, err
	}
	return &billing.RateQuote{
		SubjectID:     rate.AircraftID,
		SubjectKind:   billing.RateSubjectAircraft,
		FlightTypeID:  rate.FlightTypeID,
		RateExclusive: valueobject.NewMoneyEUR(rate.HourlyRate),
		Taxable:       rate.Taxable,
	}, nil
}

// InstructorRate looks up the hourly rate for an (instructor, flight type) pair
func (s *RepositoryRateSource) InstructorRate(ctx context.Context, instructorID, flightTypeID uuid.UUID) (*billing.RateQuote, error) {
	rate, err := s.rates.FindInstructorRate(ctx, instructorID, flightTypeID)
	if err != nil {
		return nil, err
	}
	return &billing.RateQuote{
		SubjectID:     rate.InstructorID,
		SubjectKind:   billing.RateSubjectInstructor,
		FlightTypeID:  rate.FlightTypeID,
		RateExclusive: valueobject.NewMoneyEUR(rate.HourlyRate),
		Taxable:       rate.Taxable,
	}, nil
}

// Ensure RepositoryRateSource implements billing.RateSource
var _ billing.RateSource = (*RepositoryRateSource)(nil)

// SettingsTaxProvider implements billing.TaxProvider from the club
// settings row. A club that has not configured settings yet bills
// tax-free rather than failing every calculation.
type SettingsTaxProvider struct {
	settings fleet.SettingsRepository
}

// NewSettingsTaxProvider creates a new SettingsTaxProvider
func NewSettingsTaxProvider(settings fleet.SettingsRepository) *SettingsTaxProvider {
	return &SettingsTaxProvider{settings: settings}
}

// OrganizationTaxRate returns the club-wide tax rate
func (p *SettingsTaxProvider) OrganizationTaxRate(ctx context.Context) (valueobject.TaxRate, error) {
	s, err := p.settings.Get(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return valueobject.ZeroTaxRate, nil
		}
		return valueobject.TaxRate{}, err
	}
	return s.TaxRateValue()
}

// Ensure SettingsTaxProvider implements billing.TaxProvider
var _ billing.TaxProvider = (*SettingsTaxProvider)(nil)
