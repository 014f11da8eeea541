package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aeroclub/backend/internal/domain/billing"
)

// InvoiceModel is the persistence model for one booking's invoice. While
// the invoice is a draft, DraftVersion is the optimistic version token
// every line item mutation must present; it is bumped on each accepted
// write. Once Status is FINALIZED no further mutation is accepted.
type InvoiceModel struct {
	BaseModel
	BookingID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	Status       string          `gorm:"type:varchar(20);not null;default:'DRAFT'"`
	DraftVersion int64           `gorm:"not null;default:0"`
	Subtotal     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Tax          decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Total        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	FinalizedAt  *time.Time

	Items []LineItemModel `gorm:"foreignKey:InvoiceID;references:ID"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// IsFinalized reports whether the invoice has been frozen
func (m *InvoiceModel) IsFinalized() bool {
	return m.Status == string(billing.InvoiceFinalized)
}

// LineItemModel is the persistence model for one draft invoice row. The
// row keeps the same ID the domain line item was created with so server
// rows reconcile back into the in-memory draft.
type LineItemModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	InvoiceID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Origin        string          `gorm:"type:varchar(10);not null"`
	ChargeableID  *uuid.UUID      `gorm:"type:uuid"`
	Description   string          `gorm:"type:varchar(200);not null"`
	Quantity      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	TaxRate       decimal.Decimal `gorm:"type:decimal(6,4);not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TaxAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	LineTotal     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	RateInclusive decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CreatedAt     time.Time       `gorm:"not null"`
	UpdatedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (LineItemModel) TableName() string {
	return "invoice_line_items"
}

// ToDomain converts the persistence model to a domain LineItem.
func (m *LineItemModel) ToDomain() billing.LineItem {
	return billing.LineItem{
		ID:            m.ID,
		Origin:        billing.ItemOrigin(m.Origin),
		ChargeableID:  m.ChargeableID,
		Description:   m.Description,
		Quantity:      m.Quantity,
		UnitPrice:     m.UnitPrice,
		TaxRate:       m.TaxRate,
		Amount:        m.Amount,
		TaxAmount:     m.TaxAmount,
		LineTotal:     m.LineTotal,
		RateInclusive: m.RateInclusive,
		CreatedAt:     m.CreatedAt,
	}
}

// LineItemModelFromDomain creates a persistence model from a domain LineItem.
func LineItemModelFromDomain(invoiceID uuid.UUID, item billing.LineItem) *LineItemModel {
	return &LineItemModel{
		ID:            item.ID,
		InvoiceID:     invoiceID,
		Origin:        item.Origin.String(),
		ChargeableID:  item.ChargeableID,
		Description:   item.Description,
		Quantity:      item.Quantity,
		UnitPrice:     item.UnitPrice,
		TaxRate:       item.TaxRate,
		Amount:        item.Amount,
		TaxAmount:     item.TaxAmount,
		LineTotal:     item.LineTotal,
		RateInclusive: item.RateInclusive,
		CreatedAt:     item.CreatedAt,
		UpdatedAt:     time.Now(),
	}
}

// FlightLogModel is the persistence model for the committed flight log
// entry of one booking. There is at most one per booking; the completion
// commit upserts it so a retry cannot produce a second entry.
type FlightLogModel struct {
	BaseModel
	BookingID    uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex"`
	AircraftID   uuid.UUID        `gorm:"type:uuid;not null;index"`
	MemberID     uuid.UUID        `gorm:"type:uuid;not null;index"`
	HobbsStart   decimal.Decimal  `gorm:"type:decimal(10,2);not null"`
	HobbsEnd     decimal.Decimal  `gorm:"type:decimal(10,2);not null"`
	TachStart    decimal.Decimal  `gorm:"type:decimal(10,2);not null"`
	TachEnd      decimal.Decimal  `gorm:"type:decimal(10,2);not null"`
	SoloEndHobbs *decimal.Decimal `gorm:"type:decimal(10,2)"`
	TotalHours   decimal.Decimal  `gorm:"type:decimal(10,1);not null"`

	Segments []FlightLogSegmentModel `gorm:"foreignKey:FlightLogID;references:ID"`
}

// TableName returns the table name for GORM
func (FlightLogModel) TableName() string {
	return "flight_logs"
}

// FlightLogSegmentModel is one billed segment of a flight log entry
type FlightLogSegmentModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	FlightLogID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Kind          string          `gorm:"type:varchar(20);not null"`
	DurationHours decimal.Decimal `gorm:"type:decimal(10,1);not null"`
	FlightTypeID  uuid.UUID       `gorm:"type:uuid;not null"`
	InstructorID  *uuid.UUID      `gorm:"type:uuid"`
	CreatedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (FlightLogSegmentModel) TableName() string {
	return "flight_log_segments"
}

// ToDomain converts the persistence model to a domain FlightSegment.
func (m *FlightLogSegmentModel) ToDomain() billing.FlightSegment {
	return billing.FlightSegment{
		Kind:          billing.SegmentKind(m.Kind),
		DurationHours: m.DurationHours,
		FlightTypeID:  m.FlightTypeID,
		InstructorID:  m.InstructorID,
	}
}
