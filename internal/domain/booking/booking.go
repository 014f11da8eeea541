package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/aeroclub/backend/internal/domain/billing"
	"github.com/aeroclub/backend/internal/domain/shared"
)

// Booking represents a flight booking aggregate root. It owns the
// billing lifecycle of one flight: FLYING while the aircraft is out,
// DRAFT_READY once meters are entered and a draft invoice exists,
// COMPLETING while the commit runs, COMPLETED when flight log and
// invoice are both persisted.
type Booking struct {
	shared.BaseAggregateRoot
	Reference      string
	MemberID       uuid.UUID
	MemberName     string
	AircraftID     uuid.UUID
	InstructorID   *uuid.UUID
	FlightTypeID   uuid.UUID
	ScheduledStart time.Time
	ScheduledEnd   time.Time
	Status         billing.LifecycleStatus
	FinalReading   *billing.MeterReading
	CompletedAt    *time.Time
}

// NewBooking creates a new booking in FLYING state
func NewBooking(reference string, memberID uuid.UUID, memberName string, aircraftID uuid.UUID, instructorID *uuid.UUID, flightTypeID uuid.UUID, scheduledStart, scheduledEnd time.Time) (*Booking, error) {
	if reference == "" {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Booking reference cannot be empty")
	}
	if memberID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MEMBER", "Member ID cannot be empty")
	}
	if aircraftID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_AIRCRAFT", "Aircraft ID cannot be empty")
	}
	if flightTypeID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_FLIGHT_TYPE", "Flight type ID cannot be empty")
	}
	if !scheduledEnd.After(scheduledStart) {
		return nil, shared.NewDomainError("INVALID_SCHEDULE", "Scheduled end must be after scheduled start")
	}

	b := &Booking{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Reference:         reference,
		MemberID:          memberID,
		MemberName:        memberName,
		AircraftID:        aircraftID,
		InstructorID:      instructorID,
		FlightTypeID:      flightTypeID,
		ScheduledStart:    scheduledStart,
		ScheduledEnd:      scheduledEnd,
		Status:            billing.StatusFlying,
	}

	b.AddDomainEvent(NewBookingCreatedEvent(b))

	return b, nil
}

// MarkDraftReady records the final meter reading and moves the booking
// into DRAFT_READY. Allowed from FLYING (first calculation) and from
// DRAFT_READY (recalculation with corrected meters).
func (b *Booking) MarkDraftReady(reading billing.MeterReading) error {
	if err := b.transition(billing.StatusDraftReady); err != nil {
		return err
	}
	if err := reading.Validate(); err != nil {
		return err
	}

	b.FinalReading = &reading
	b.UpdatedAt = time.Now()
	b.AddDomainEvent(NewBookingDraftReadyEvent(b))

	return nil
}

// BeginCompletion moves the booking into COMPLETING while the commit
// runs. Mutations to the draft are rejected in this state.
func (b *Booking) BeginCompletion() error {
	if b.FinalReading == nil {
		return shared.NewDomainError("INVALID_STATE", "Cannot complete a booking without a meter reading")
	}
	if err := b.transition(billing.StatusCompleting); err != nil {
		return err
	}
	b.UpdatedAt = time.Now()
	return nil
}

// CompletionSucceeded moves the booking into its terminal COMPLETED state
func (b *Booking) CompletionSucceeded() error {
	if err := b.transition(billing.StatusCompleted); err != nil {
		return err
	}
	now := time.Now()
	b.CompletedAt = &now
	b.UpdatedAt = now
	b.AddDomainEvent(NewBookingCompletedEvent(b))
	return nil
}

// CompletionFailed returns the booking to DRAFT_READY after a failed or
// partial commit so the draft stays editable and the commit can be
// retried
func (b *Booking) CompletionFailed() error {
	if err := b.transition(billing.StatusDraftReady); err != nil {
		return err
	}
	b.UpdatedAt = time.Now()
	return nil
}

// CanMutateDraft reports whether draft line items may be changed in the
// current state
func (b *Booking) CanMutateDraft() bool {
	return b.Status == billing.StatusDraftReady
}

// IsCompleted reports whether the booking reached its terminal state
func (b *Booking) IsCompleted() bool {
	return b.Status.IsTerminal()
}

func (b *Booking) transition(next billing.LifecycleStatus) error {
	if !b.Status.CanTransitionTo(next) {
		return shared.NewDomainError("INVALID_STATE",
			"Cannot transition booking from "+b.Status.String()+" to "+next.String())
	}
	b.Status = next
	return nil
}
