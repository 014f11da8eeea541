package billing

import (
	"fmt"
	"time"

	"github.com/aeroclub/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// moneyPlaces is the precision all monetary line item fields round to
const moneyPlaces = 2

// ItemOrigin separates line items derived from the segment calculation
// from chargeables added by staff. Recalculation replaces only the
// computed subset; manual items survive.
type ItemOrigin string

const (
	OriginComputed ItemOrigin = "COMPUTED"
	OriginManual   ItemOrigin = "MANUAL"
)

// String returns the string representation of ItemOrigin
func (o ItemOrigin) String() string {
	return string(o)
}

// LineItem is one priced row of a draft invoice. All monetary fields are
// derived from Quantity, UnitPrice and TaxRate at construction and on
// every patch; they are never set independently.
type LineItem struct {
	ID            uuid.UUID       `json:"id"`
	Origin        ItemOrigin      `json:"origin"`
	ChargeableID  *uuid.UUID      `json:"chargeable_id,omitempty"`
	Description   string          `json:"description"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	TaxRate       decimal.Decimal `json:"tax_rate"`
	Amount        decimal.Decimal `json:"amount"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	LineTotal     decimal.Decimal `json:"line_total"`
	RateInclusive decimal.Decimal `json:"rate_inclusive"`
	CreatedAt     time.Time       `json:"created_at"`
}

// newLineItem builds a line item and derives its monetary fields
func newLineItem(origin ItemOrigin, chargeableID *uuid.UUID, description string, quantity, unitPrice decimal.Decimal, taxRate valueobject.TaxRate) (LineItem, error) {
	if description == "" {
		return LineItem{}, NewInvalidChargeInputError("Description cannot be empty")
	}
	if quantity.IsNegative() {
		return LineItem{}, NewInvalidChargeInputError("Quantity cannot be negative")
	}
	if unitPrice.IsNegative() {
		return LineItem{}, NewInvalidChargeInputError("Unit price cannot be negative")
	}

	item := LineItem{
		ID:           uuid.New(),
		Origin:       origin,
		ChargeableID: chargeableID,
		Description:  description,
		Quantity:     quantity,
		UnitPrice:    unitPrice,
		TaxRate:      taxRate.Rate(),
		CreatedAt:    time.Now(),
	}
	item.derive()
	return item, nil
}

// derive recomputes the dependent monetary fields from quantity, unit
// price and tax rate
func (i *LineItem) derive() {
	i.Amount = i.Quantity.Mul(i.UnitPrice).Round(moneyPlaces)
	i.TaxAmount = i.Amount.Mul(i.TaxRate).Round(moneyPlaces)
	i.LineTotal = i.Amount.Add(i.TaxAmount)
	i.RateInclusive = i.UnitPrice.Mul(decimal.NewFromInt(1).Add(i.TaxRate)).Round(moneyPlaces)
}

// AmountMoney returns the tax-exclusive amount as Money
func (i *LineItem) AmountMoney() valueobject.Money {
	return valueobject.NewMoneyEUR(i.Amount)
}

// LineTotalMoney returns the tax-inclusive total as Money
func (i *LineItem) LineTotalMoney() valueobject.Money {
	return valueobject.NewMoneyEUR(i.LineTotal)
}

// IsComputed reports whether the item came from the segment calculation
func (i *LineItem) IsComputed() bool {
	return i.Origin == OriginComputed
}

// LineItemPatch carries a partial update to a line item. Nil fields are
// left untouched; monetary fields are re-derived after applying.
type LineItemPatch struct {
	Description *string
	Quantity    *decimal.Decimal
	UnitPrice   *decimal.Decimal
	TaxRate     *decimal.Decimal
}

// apply validates and applies the patch, re-deriving monetary fields
func (i *LineItem) apply(patch LineItemPatch) error {
	if patch.Description != nil {
		if *patch.Description == "" {
			return NewInvalidChargeInputError("Description cannot be empty")
		}
		i.Description = *patch.Description
	}
	if patch.Quantity != nil {
		if patch.Quantity.IsNegative() {
			return NewInvalidChargeInputError("Quantity cannot be negative")
		}
		i.Quantity = *patch.Quantity
	}
	if patch.UnitPrice != nil {
		if patch.UnitPrice.IsNegative() {
			return NewInvalidChargeInputError("Unit price cannot be negative")
		}
		i.UnitPrice = *patch.UnitPrice
	}
	if patch.TaxRate != nil {
		rate, err := valueobject.NewTaxRate(*patch.TaxRate)
		if err != nil {
			return NewInvalidChargeInputError(err.Error())
		}
		i.TaxRate = rate.Rate()
	}
	i.derive()
	return nil
}

// PriceSegment turns a flight segment into priced line items: one
// aircraft item always, plus one instructor item when an instructor is
// on the segment. The tax rate on each item is the organization rate if
// the underlying rate quote is taxable, else zero.
func PriceSegment(seg FlightSegment, rates ResolvedRates, aircraftName, instructorName string) ([]LineItem, error) {
	items := make([]LineItem, 0, 2)

	aircraftItem, err := newLineItem(
		OriginComputed,
		nil,
		segmentDescription("Aircraft", aircraftName, seg.Kind),
		seg.DurationHours,
		rates.Aircraft.RateExclusive.Amount(),
		itemTaxRate(rates.Aircraft.Taxable, rates.TaxRate),
	)
	if err != nil {
		return nil, err
	}
	items = append(items, aircraftItem)

	if seg.InstructorID != nil {
		if rates.Instructor == nil {
			return nil, NewRateNotConfiguredError("instructor "+seg.InstructorID.String(), seg.FlightTypeID.String())
		}
		instructorItem, err := newLineItem(
			OriginComputed,
			nil,
			segmentDescription("Instruction", instructorName, seg.Kind),
			seg.DurationHours,
			rates.Instructor.RateExclusive.Amount(),
			itemTaxRate(rates.Instructor.Taxable, rates.TaxRate),
		)
		if err != nil {
			return nil, err
		}
		items = append(items, instructorItem)
	}

	return items, nil
}

// PriceChargeable prices an ad-hoc chargeable (landing fee, headset
// rental, ...) added by staff as a manual line item. Quantity must be
// non-zero: a zero-quantity row prices to nothing, so it is rejected as
// invalid input instead of producing an empty line.
func PriceChargeable(chargeableID uuid.UUID, name string, rate decimal.Decimal, taxable bool, quantity decimal.Decimal, orgTaxRate valueobject.TaxRate) (LineItem, error) {
	if chargeableID == uuid.Nil {
		return LineItem{}, NewInvalidChargeInputError("Chargeable ID cannot be empty")
	}
	if quantity.IsZero() {
		return LineItem{}, NewInvalidChargeInputError("Quantity cannot be zero")
	}
	return newLineItem(OriginManual, &chargeableID, name, quantity, rate, itemTaxRate(taxable, orgTaxRate))
}

func itemTaxRate(taxable bool, orgRate valueobject.TaxRate) valueobject.TaxRate {
	if taxable {
		return orgRate
	}
	return valueobject.ZeroTaxRate
}

func segmentDescription(charge, subjectName string, kind SegmentKind) string {
	label := "dual"
	if kind == SegmentSoloContinuation {
		label = "solo"
	}
	if subjectName == "" {
		return fmt.Sprintf("%s time (%s)", charge, label)
	}
	return fmt.Sprintf("%s %s (%s)", charge, subjectName, label)
}
