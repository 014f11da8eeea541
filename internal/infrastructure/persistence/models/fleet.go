package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aeroclub/backend/internal/domain/billing"
	"github.com/aeroclub/backend/internal/domain/fleet"
)

// AircraftModel is the persistence model for the Aircraft aggregate root.
type AircraftModel struct {
	AggregateModel
	Registration string `gorm:"type:varchar(10);not null;uniqueIndex"`
	Model        string `gorm:"type:varchar(50);not null"`
	BillingBasis string `gorm:"type:varchar(10);not null"`
	Status       string `gorm:"type:varchar(15);not null"`
}

// TableName returns the table name for GORM
func (AircraftModel) TableName() string {
	return "aircraft"
}

// ToDomain converts the persistence model to a domain Aircraft.
func (m *AircraftModel) ToDomain() *fleet.Aircraft {
	a := &fleet.Aircraft{
		Registration: m.Registration,
		Model:        m.Model,
		BillingBasis: billing.BillingBasis(m.BillingBasis),
		Status:       fleet.AircraftStatus(m.Status),
	}
	m.PopulateAggregateRoot(&a.BaseAggregateRoot)
	return a
}

// FromDomain populates the persistence model from a domain Aircraft.
func (m *AircraftModel) FromDomain(a *fleet.Aircraft) {
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	m.Registration = a.Registration
	m.Model = a.Model
	m.BillingBasis = a.BillingBasis.String()
	m.Status = a.Status.String()
}

// FlightTypeModel is the persistence model for the FlightType aggregate root.
type FlightTypeModel struct {
	AggregateModel
	Name                   string     `gorm:"type:varchar(50);not null"`
	Code                   string     `gorm:"type:varchar(10);not null;uniqueIndex"`
	DualInstruction        bool       `gorm:"not null;default:false"`
	RequiresInstructor     bool       `gorm:"not null;default:false"`
	SoloContinuationTypeID *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (FlightTypeModel) TableName() string {
	return "flight_types"
}

// ToDomain converts the persistence model to a domain FlightType.
func (m *FlightTypeModel) ToDomain() *fleet.FlightType {
	f := &fleet.FlightType{
		Name:                   m.Name,
		Code:                   m.Code,
		DualInstruction:        m.DualInstruction,
		RequiresInstructor:     m.RequiresInstructor,
		SoloContinuationTypeID: m.SoloContinuationTypeID,
	}
	m.PopulateAggregateRoot(&f.BaseAggregateRoot)
	return f
}

// FromDomain populates the persistence model from a domain FlightType.
func (m *FlightTypeModel) FromDomain(f *fleet.FlightType) {
	m.FromDomainAggregateRoot(f.BaseAggregateRoot)
	m.Name = f.Name
	m.Code = f.Code
	m.DualInstruction = f.DualInstruction
	m.RequiresInstructor = f.RequiresInstructor
	m.SoloContinuationTypeID = f.SoloContinuationTypeID
}

// InstructorModel is the persistence model for the Instructor aggregate root.
type InstructorModel struct {
	AggregateModel
	Name    string `gorm:"type:varchar(100);not null"`
	License string `gorm:"type:varchar(30);not null"`
	Active  bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (InstructorModel) TableName() string {
	return "instructors"
}

// ToDomain converts the persistence model to a domain Instructor.
func (m *InstructorModel) ToDomain() *fleet.Instructor {
	i := &fleet.Instructor{
		Name:    m.Name,
		License: m.License,
		Active:  m.Active,
	}
	m.PopulateAggregateRoot(&i.BaseAggregateRoot)
	return i
}

// FromDomain populates the persistence model from a domain Instructor.
func (m *InstructorModel) FromDomain(i *fleet.Instructor) {
	m.FromDomainAggregateRoot(i.BaseAggregateRoot)
	m.Name = i.Name
	m.License = i.License
	m.Active = i.Active
}

// ChargeableModel is the persistence model for the Chargeable aggregate root.
type ChargeableModel struct {
	AggregateModel
	Name    string          `gorm:"type:varchar(100);not null"`
	Rate    decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Taxable bool            `gorm:"not null;default:true"`
	Active  bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (ChargeableModel) TableName() string {
	return "chargeables"
}

// ToDomain converts the persistence model to a domain Chargeable.
func (m *ChargeableModel) ToDomain() *fleet.Chargeable {
	c := &fleet.Chargeable{
		Name:    m.Name,
		Rate:    m.Rate,
		Taxable: m.Taxable,
		Active:  m.Active,
	}
	m.PopulateAggregateRoot(&c.BaseAggregateRoot)
	return c
}

// FromDomain populates the persistence model from a domain Chargeable.
func (m *ChargeableModel) FromDomain(c *fleet.Chargeable) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.Name = c.Name
	m.Rate = c.Rate
	m.Taxable = c.Taxable
	m.Active = c.Active
}

// AircraftRateModel is the persistence model for an aircraft rate entry.
// The (aircraft, flight type) pair is unique.
type AircraftRateModel struct {
	BaseModel
	AircraftID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_aircraft_rate_pair,priority:1"`
	FlightTypeID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_aircraft_rate_pair,priority:2"`
	HourlyRate   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Taxable      bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (AircraftRateModel) TableName() string {
	return "aircraft_rates"
}

// ToDomain converts the persistence model to a domain AircraftRate.
func (m *AircraftRateModel) ToDomain() *fleet.AircraftRate {
	return &fleet.AircraftRate{
		BaseEntity:   m.BaseModel.ToDomain(),
		AircraftID:   m.AircraftID,
		FlightTypeID: m.FlightTypeID,
		HourlyRate:   m.HourlyRate,
		Taxable:      m.Taxable,
	}
}

// FromDomain populates the persistence model from a domain AircraftRate.
func (m *AircraftRateModel) FromDomain(r *fleet.AircraftRate) {
	m.FromDomainBaseEntity(r.BaseEntity)
	m.AircraftID = r.AircraftID
	m.FlightTypeID = r.FlightTypeID
	m.HourlyRate = r.HourlyRate
	m.Taxable = r.Taxable
}

// InstructorRateModel is the persistence model for an instructor rate entry.
type InstructorRateModel struct {
	BaseModel
	InstructorID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_instructor_rate_pair,priority:1"`
	FlightTypeID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_instructor_rate_pair,priority:2"`
	HourlyRate   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Taxable      bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (InstructorRateModel) TableName() string {
	return "instructor_rates"
}

// ToDomain converts the persistence model to a domain InstructorRate.
func (m *InstructorRateModel) ToDomain() *fleet.InstructorRate {
	return &fleet.InstructorRate{
		BaseEntity:   m.BaseModel.ToDomain(),
		InstructorID: m.InstructorID,
		FlightTypeID: m.FlightTypeID,
		HourlyRate:   m.HourlyRate,
		Taxable:      m.Taxable,
	}
}

// FromDomain populates the persistence model from a domain InstructorRate.
func (m *InstructorRateModel) FromDomain(r *fleet.InstructorRate) {
	m.FromDomainBaseEntity(r.BaseEntity)
	m.InstructorID = r.InstructorID
	m.FlightTypeID = r.FlightTypeID
	m.HourlyRate = r.HourlyRate
	m.Taxable = r.Taxable
}

// ClubSettingsModel is the persistence model for the single club
// settings row.
type ClubSettingsModel struct {
	BaseModel
	ClubName string          `gorm:"type:varchar(100);not null"`
	TaxRate  decimal.Decimal `gorm:"type:decimal(6,4);not null"`
	Currency string          `gorm:"type:varchar(3);not null;default:'EUR'"`
}

// TableName returns the table name for GORM
func (ClubSettingsModel) TableName() string {
	return "club_settings"
}

// ToDomain converts the persistence model to domain ClubSettings.
func (m *ClubSettingsModel) ToDomain() *fleet.ClubSettings {
	return &fleet.ClubSettings{
		BaseEntity: m.BaseModel.ToDomain(),
		ClubName:   m.ClubName,
		TaxRate:    m.TaxRate,
		Currency:   m.Currency,
	}
}

// FromDomain populates the persistence model from domain ClubSettings.
func (m *ClubSettingsModel) FromDomain(s *fleet.ClubSettings) {
	m.FromDomainBaseEntity(s.BaseEntity)
	m.ClubName = s.ClubName
	m.TaxRate = s.TaxRate
	m.Currency = s.Currency
}
