package fleet

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/aeroclub/backend/internal/domain/shared"
	"github.com/aeroclub/backend/internal/domain/shared/valueobject"
)

// Chargeable represents an ad-hoc billable extra (landing fee, headset
// rental, fuel surcharge) that staff can add to a draft invoice as a
// manual line item
type Chargeable struct {
	shared.BaseAggregateRoot
	Name    string
	Rate    decimal.Decimal
	Taxable bool
	Active  bool
}

// NewChargeable creates a new chargeable
func NewChargeable(name string, rate decimal.Decimal, taxable bool) (*Chargeable, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Chargeable name cannot be empty")
	}
	if rate.IsNegative() {
		return nil, shared.NewDomainError("INVALID_RATE", "Chargeable rate cannot be negative")
	}

	return &Chargeable{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Rate:              rate,
		Taxable:           taxable,
		Active:            true,
	}, nil
}

// UpdateRate changes the unit rate. Existing draft line items keep the
// rate they were priced with.
func (c *Chargeable) UpdateRate(rate decimal.Decimal) error {
	if rate.IsNegative() {
		return shared.NewDomainError("INVALID_RATE", "Chargeable rate cannot be negative")
	}
	c.Rate = rate
	c.UpdatedAt = time.Now()
	return nil
}

// Deactivate hides the chargeable from new drafts without touching
// items already priced from it
func (c *Chargeable) Deactivate() {
	c.Active = false
	c.UpdatedAt = time.Now()
}

// RateMoney returns the rate as Money value object
func (c *Chargeable) RateMoney() valueobject.Money {
	return valueobject.NewMoneyEUR(c.Rate)
}
