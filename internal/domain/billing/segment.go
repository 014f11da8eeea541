package billing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// durationPlaces is the precision flight durations are billed at.
// Meters on the panel read in tenths of an hour.
const durationPlaces = 1

// SegmentKind distinguishes the dual portion of a flight from a solo
// continuation flown by the student afterwards
type SegmentKind string

const (
	SegmentDual             SegmentKind = "DUAL"
	SegmentSoloContinuation SegmentKind = "SOLO_CONTINUATION"
)

// String returns the string representation of SegmentKind
func (k SegmentKind) String() string {
	return string(k)
}

// FlightSegment is a billable slice of flight time derived from meter
// deltas. It is never persisted standalone; it exists to be priced into
// line items.
type FlightSegment struct {
	Kind          SegmentKind     `json:"kind"`
	DurationHours decimal.Decimal `json:"duration_hours"`
	FlightTypeID  uuid.UUID       `json:"flight_type_id"`
	InstructorID  *uuid.UUID      `json:"instructor_id,omitempty"`
}

// SegmentInput carries everything the segment calculator needs. The
// flight-type flags are resolved by the caller from master data so the
// calculator stays a pure function of its inputs.
type SegmentInput struct {
	Reading      MeterReading
	Basis        BillingBasis
	FlightTypeID uuid.UUID
	InstructorID *uuid.UUID

	// DualInstruction marks the originating flight type as a dual
	// instruction type; only then can a solo continuation follow.
	DualInstruction bool

	// SoloFlightTypeID is the flight type a solo continuation is billed
	// against. Required when a solo end reading is supplied on a dual
	// instruction flight.
	SoloFlightTypeID *uuid.UUID
}

// CalculateSegments converts a meter reading into one or two billable
// segments. The dual segment duration comes from the basis-selected
// meter pair; a solo continuation is always hobbs-based. Durations are
// rounded half-up to one decimal, and a solo segment that rounds to zero
// is discarded rather than billed.
func CalculateSegments(in SegmentInput) ([]FlightSegment, error) {
	if !in.Basis.IsValid() {
		return nil, NewInvalidMeterReadingError("Unknown billing basis " + in.Basis.String())
	}
	if in.FlightTypeID == uuid.Nil {
		return nil, NewInvalidMeterReadingError("Flight type is required")
	}
	if err := in.Reading.Validate(); err != nil {
		return nil, err
	}

	baseDuration := in.Reading.BasisDelta(in.Basis).Round(durationPlaces)
	if !baseDuration.IsPositive() {
		return nil, NewInvalidMeterReadingError("Billable duration rounds to zero")
	}

	segments := []FlightSegment{{
		Kind:          SegmentDual,
		DurationHours: baseDuration,
		FlightTypeID:  in.FlightTypeID,
		InstructorID:  in.InstructorID,
	}}

	if in.Reading.HasSoloContinuation() && in.DualInstruction {
		if in.SoloFlightTypeID == nil {
			return nil, NewInvalidMeterReadingError("No solo continuation flight type configured")
		}
		soloDuration := in.Reading.SoloDelta().Round(durationPlaces)
		if soloDuration.IsPositive() {
			segments = append(segments, FlightSegment{
				Kind:          SegmentSoloContinuation,
				DurationHours: soloDuration,
				FlightTypeID:  *in.SoloFlightTypeID,
			})
		}
	}

	return segments, nil
}

// TotalDuration folds the durations of the given segments
func TotalDuration(segments []FlightSegment) decimal.Decimal {
	total := decimal.Zero
	for _, s := range segments {
		total = total.Add(s.DurationHours)
	}
	return total
}
