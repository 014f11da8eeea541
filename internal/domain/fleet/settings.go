package fleet

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aeroclub/backend/internal/domain/shared"
	"github.com/aeroclub/backend/internal/domain/shared/valueobject"
)

// ClubSettings holds the club-wide billing configuration. There is
// exactly one row; the tax rate applies to every taxable line item.
type ClubSettings struct {
	shared.BaseEntity
	ClubName string
	TaxRate  decimal.Decimal
	Currency string
}

// NewClubSettings creates the settings row
func NewClubSettings(clubName string, taxRate decimal.Decimal, currency string) (*ClubSettings, error) {
	if clubName == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Club name cannot be empty")
	}
	if _, err := valueobject.NewTaxRate(taxRate); err != nil {
		return nil, err
	}
	if currency == "" {
		currency = string(valueobject.EUR)
	}

	return &ClubSettings{
		BaseEntity: shared.NewBaseEntity(),
		ClubName:   clubName,
		TaxRate:    taxRate,
		Currency:   currency,
	}, nil
}

// UpdateTaxRate changes the club tax rate. Existing line items keep the
// rate they were derived with.
func (s *ClubSettings) UpdateTaxRate(rate decimal.Decimal) error {
	if _, err := valueobject.NewTaxRate(rate); err != nil {
		return err
	}
	s.TaxRate = rate
	s.UpdatedAt = time.Now()
	return nil
}

// TaxRateValue returns the tax rate as value object
func (s *ClubSettings) TaxRateValue() (valueobject.TaxRate, error) {
	return valueobject.NewTaxRate(s.TaxRate)
}

// SettingsRepository defines the interface for club settings persistence
type SettingsRepository interface {
	Get(ctx context.Context) (*ClubSettings, error)
	Save(ctx context.Context, s *ClubSettings) error
}
