package billing

import (
	"github.com/shopspring/decimal"
)

// BillingBasis selects which meter delta is authoritative for aircraft
// billing. Configured per aircraft.
type BillingBasis string

const (
	BasisHobbs BillingBasis = "HOBBS"
	BasisTacho BillingBasis = "TACHO"
)

// IsValid checks if the basis is a known BillingBasis
func (b BillingBasis) IsValid() bool {
	return b == BasisHobbs || b == BasisTacho
}

// String returns the string representation of BillingBasis
func (b BillingBasis) String() string {
	return string(b)
}

// MeterReading is the immutable set of meter values captured at the end
// of a flight. SoloEndHobbs is present only when the student continued
// solo after a dual segment; solo time is always hobbs-based because no
// instructor is aboard to confirm the tach.
type MeterReading struct {
	HobbsStart   decimal.Decimal  `json:"hobbs_start"`
	HobbsEnd     decimal.Decimal  `json:"hobbs_end"`
	TachStart    decimal.Decimal  `json:"tach_start"`
	TachEnd      decimal.Decimal  `json:"tach_end"`
	SoloEndHobbs *decimal.Decimal `json:"solo_end_hobbs,omitempty"`
}

// NewMeterReading creates a validated meter reading
func NewMeterReading(hobbsStart, hobbsEnd, tachStart, tachEnd decimal.Decimal, soloEndHobbs *decimal.Decimal) (MeterReading, error) {
	r := MeterReading{
		HobbsStart:   hobbsStart,
		HobbsEnd:     hobbsEnd,
		TachStart:    tachStart,
		TachEnd:      tachEnd,
		SoloEndHobbs: soloEndHobbs,
	}
	if err := r.Validate(); err != nil {
		return MeterReading{}, err
	}
	return r, nil
}

// Validate checks the meter reading invariants
func (r MeterReading) Validate() error {
	if r.HobbsStart.IsNegative() || r.TachStart.IsNegative() {
		return NewInvalidMeterReadingError("Meter values cannot be negative")
	}
	if !r.HobbsEnd.GreaterThan(r.HobbsStart) {
		return NewInvalidMeterReadingError("Hobbs end must be greater than hobbs start")
	}
	if !r.TachEnd.GreaterThan(r.TachStart) {
		return NewInvalidMeterReadingError("Tach end must be greater than tach start")
	}
	if r.SoloEndHobbs != nil && !r.SoloEndHobbs.GreaterThan(r.HobbsEnd) {
		return NewInvalidMeterReadingError("Solo end hobbs must be greater than hobbs end")
	}
	return nil
}

// HobbsDelta returns the raw hobbs delta of the dual portion
func (r MeterReading) HobbsDelta() decimal.Decimal {
	return r.HobbsEnd.Sub(r.HobbsStart)
}

// TachDelta returns the raw tach delta
func (r MeterReading) TachDelta() decimal.Decimal {
	return r.TachEnd.Sub(r.TachStart)
}

// BasisDelta returns the delta of the basis-selected meter pair
func (r MeterReading) BasisDelta(basis BillingBasis) decimal.Decimal {
	if basis == BasisTacho {
		return r.TachDelta()
	}
	return r.HobbsDelta()
}

// SoloDelta returns the hobbs delta of the solo continuation, or zero
// when no solo end was captured
func (r MeterReading) SoloDelta() decimal.Decimal {
	if r.SoloEndHobbs == nil {
		return decimal.Zero
	}
	return r.SoloEndHobbs.Sub(r.HobbsEnd)
}

// HasSoloContinuation reports whether a solo end value was captured
func (r MeterReading) HasSoloContinuation() bool {
	return r.SoloEndHobbs != nil
}

// Equals compares two readings value-wise, including the optional solo end
func (r MeterReading) Equals(other MeterReading) bool {
	if !r.HobbsStart.Equal(other.HobbsStart) ||
		!r.HobbsEnd.Equal(other.HobbsEnd) ||
		!r.TachStart.Equal(other.TachStart) ||
		!r.TachEnd.Equal(other.TachEnd) {
		return false
	}
	if (r.SoloEndHobbs == nil) != (other.SoloEndHobbs == nil) {
		return false
	}
	if r.SoloEndHobbs != nil && !r.SoloEndHobbs.Equal(*other.SoloEndHobbs) {
		return false
	}
	return true
}
