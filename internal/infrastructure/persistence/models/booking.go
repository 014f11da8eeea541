package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aeroclub/backend/internal/domain/billing"
	"github.com/aeroclub/backend/internal/domain/booking"
)

// BookingModel is the persistence model for the Booking aggregate root.
// The final meter reading columns are null until the first calculation
// records one.
type BookingModel struct {
	AggregateModel
	Reference      string     `gorm:"type:varchar(20);not null;uniqueIndex"`
	MemberID       uuid.UUID  `gorm:"type:uuid;not null;index"`
	MemberName     string     `gorm:"type:varchar(100);not null"`
	AircraftID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	InstructorID   *uuid.UUID `gorm:"type:uuid;index"`
	FlightTypeID   uuid.UUID  `gorm:"type:uuid;not null"`
	ScheduledStart time.Time  `gorm:"not null"`
	ScheduledEnd   time.Time  `gorm:"not null"`
	Status         string     `gorm:"type:varchar(20);not null;index"`

	HobbsStart   *decimal.Decimal `gorm:"type:decimal(10,2)"`
	HobbsEnd     *decimal.Decimal `gorm:"type:decimal(10,2)"`
	TachStart    *decimal.Decimal `gorm:"type:decimal(10,2)"`
	TachEnd      *decimal.Decimal `gorm:"type:decimal(10,2)"`
	SoloEndHobbs *decimal.Decimal `gorm:"type:decimal(10,2)"`

	CompletedAt *time.Time
}

// TableName returns the table name for GORM
func (BookingModel) TableName() string {
	return "bookings"
}

// ToDomain converts the persistence model to a domain Booking aggregate.
func (m *BookingModel) ToDomain() *booking.Booking {
	b := &booking.Booking{
		Reference:      m.Reference,
		MemberID:       m.MemberID,
		MemberName:     m.MemberName,
		AircraftID:     m.AircraftID,
		InstructorID:   m.InstructorID,
		FlightTypeID:   m.FlightTypeID,
		ScheduledStart: m.ScheduledStart,
		ScheduledEnd:   m.ScheduledEnd,
		Status:         billing.LifecycleStatus(m.Status),
		CompletedAt:    m.CompletedAt,
	}
	m.PopulateAggregateRoot(&b.BaseAggregateRoot)

	if m.HobbsStart != nil && m.HobbsEnd != nil && m.TachStart != nil && m.TachEnd != nil {
		b.FinalReading = &billing.MeterReading{
			HobbsStart:   *m.HobbsStart,
			HobbsEnd:     *m.HobbsEnd,
			TachStart:    *m.TachStart,
			TachEnd:      *m.TachEnd,
			SoloEndHobbs: m.SoloEndHobbs,
		}
	}
	return b
}

// FromDomain populates the persistence model from a domain Booking aggregate.
func (m *BookingModel) FromDomain(b *booking.Booking) {
	m.FromDomainAggregateRoot(b.BaseAggregateRoot)
	m.Reference = b.Reference
	m.MemberID = b.MemberID
	m.MemberName = b.MemberName
	m.AircraftID = b.AircraftID
	m.InstructorID = b.InstructorID
	m.FlightTypeID = b.FlightTypeID
	m.ScheduledStart = b.ScheduledStart
	m.ScheduledEnd = b.ScheduledEnd
	m.Status = b.Status.String()
	m.CompletedAt = b.CompletedAt

	if b.FinalReading != nil {
		r := *b.FinalReading
		m.HobbsStart = &r.HobbsStart
		m.HobbsEnd = &r.HobbsEnd
		m.TachStart = &r.TachStart
		m.TachEnd = &r.TachEnd
		m.SoloEndHobbs = r.SoloEndHobbs
	} else {
		m.HobbsStart = nil
		m.HobbsEnd = nil
		m.TachStart = nil
		m.TachEnd = nil
		m.SoloEndHobbs = nil
	}
}

// BookingModelFromDomain creates a new persistence model from a domain Booking.
func BookingModelFromDomain(b *booking.Booking) *BookingModel {
	m := &BookingModel{}
	m.FromDomain(b)
	return m
}
