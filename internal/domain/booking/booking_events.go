package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/aeroclub/backend/internal/domain/billing"
	"github.com/aeroclub/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeBooking = "Booking"

// Event type constants
const (
	EventTypeBookingCreated    = "BookingCreated"
	EventTypeBookingDraftReady = "BookingDraftReady"
	EventTypeBookingCompleted  = "BookingCompleted"
)

// BookingCreatedEvent is raised when a new booking is created
type BookingCreatedEvent struct {
	shared.BaseDomainEvent
	BookingID    uuid.UUID  `json:"booking_id"`
	Reference    string     `json:"reference"`
	MemberID     uuid.UUID  `json:"member_id"`
	AircraftID   uuid.UUID  `json:"aircraft_id"`
	InstructorID *uuid.UUID `json:"instructor_id,omitempty"`
}

// NewBookingCreatedEvent creates a new BookingCreatedEvent
func NewBookingCreatedEvent(b *Booking) *BookingCreatedEvent {
	return &BookingCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBookingCreated, AggregateTypeBooking, b.ID),
		BookingID:       b.ID,
		Reference:       b.Reference,
		MemberID:        b.MemberID,
		AircraftID:      b.AircraftID,
		InstructorID:    b.InstructorID,
	}
}

// EventType returns the event type name
func (e *BookingCreatedEvent) EventType() string {
	return EventTypeBookingCreated
}

// BookingDraftReadyEvent is raised when the final meter reading is
// recorded and a draft invoice becomes available
type BookingDraftReadyEvent struct {
	shared.BaseDomainEvent
	BookingID uuid.UUID            `json:"booking_id"`
	Reference string               `json:"reference"`
	Reading   billing.MeterReading `json:"reading"`
}

// NewBookingDraftReadyEvent creates a new BookingDraftReadyEvent
func NewBookingDraftReadyEvent(b *Booking) *BookingDraftReadyEvent {
	e := &BookingDraftReadyEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBookingDraftReady, AggregateTypeBooking, b.ID),
		BookingID:       b.ID,
		Reference:       b.Reference,
	}
	if b.FinalReading != nil {
		e.Reading = *b.FinalReading
	}
	return e
}

// EventType returns the event type name
func (e *BookingDraftReadyEvent) EventType() string {
	return EventTypeBookingDraftReady
}

// BookingCompletedEvent is raised when flight log and invoice have both
// been committed
type BookingCompletedEvent struct {
	shared.BaseDomainEvent
	BookingID   uuid.UUID `json:"booking_id"`
	Reference   string    `json:"reference"`
	MemberID    uuid.UUID `json:"member_id"`
	CompletedAt time.Time `json:"completed_at"`
}

// NewBookingCompletedEvent creates a new BookingCompletedEvent
func NewBookingCompletedEvent(b *Booking) *BookingCompletedEvent {
	e := &BookingCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBookingCompleted, AggregateTypeBooking, b.ID),
		BookingID:       b.ID,
		Reference:       b.Reference,
		MemberID:        b.MemberID,
	}
	if b.CompletedAt != nil {
		e.CompletedAt = *b.CompletedAt
	}
	return e
}

// EventType returns the event type name
func (e *BookingCompletedEvent) EventType() string {
	return EventTypeBookingCompleted
}
