package valueobject

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// TaxRate is a value object representing a fractional tax rate in [0, 1].
// A rate of 0.15 means 15% tax on the exclusive amount.
type TaxRate struct {
	rate decimal.Decimal
}

// ZeroTaxRate is the rate applied to non-taxable charges
var ZeroTaxRate = TaxRate{rate: decimal.Zero}

// NewTaxRate creates a TaxRate, rejecting values outside [0, 1]
func NewTaxRate(rate decimal.Decimal) (TaxRate, error) {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return TaxRate{}, fmt.Errorf("tax rate must be between 0 and 1, got %s", rate)
	}
	return TaxRate{rate: rate}, nil
}

// NewTaxRateFromString creates a TaxRate from a decimal string such as "0.15"
func NewTaxRateFromString(rate string) (TaxRate, error) {
	d, err := decimal.NewFromString(rate)
	if err != nil {
		return TaxRate{}, fmt.Errorf("invalid tax rate string: %w", err)
	}
	return NewTaxRate(d)
}

// Rate returns the fractional rate
func (t TaxRate) Rate() decimal.Decimal {
	return t.rate
}

// IsZero returns true for a zero (non-taxable) rate
func (t TaxRate) IsZero() bool {
	return t.rate.IsZero()
}

// TaxOn returns the tax portion for an exclusive amount, rounded to 2 places
func (t TaxRate) TaxOn(exclusive decimal.Decimal) decimal.Decimal {
	return exclusive.Mul(t.rate).Round(2)
}

// GrossFactor returns 1 + rate, used to derive tax-inclusive unit rates
func (t TaxRate) GrossFactor() decimal.Decimal {
	return decimal.NewFromInt(1).Add(t.rate)
}

// String returns the rate as a plain decimal string
func (t TaxRate) String() string {
	return t.rate.String()
}
