package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aeroclub/backend/internal/domain/billing"
)

// CalculateRequest carries the final meter reading for a booking.
// FlightTypeID may override the booked flight type, e.g. when a planned
// dual lesson was flown as a checkride.
type CalculateRequest struct {
	FlightTypeID *uuid.UUID       `json:"flight_type_id"`
	HobbsStart   decimal.Decimal  `json:"hobbs_start" binding:"required"`
	HobbsEnd     decimal.Decimal  `json:"hobbs_end" binding:"required"`
	TachStart    decimal.Decimal  `json:"tach_start" binding:"required"`
	TachEnd      decimal.Decimal  `json:"tach_end" binding:"required"`
	SoloEndHobbs *decimal.Decimal `json:"solo_end_hobbs"`
}

// AddItemRequest adds a chargeable from the catalog to the draft
type AddItemRequest struct {
	ChargeableID uuid.UUID       `json:"chargeable_id" binding:"required"`
	Quantity     decimal.Decimal `json:"quantity" binding:"required"`
}

// UpdateItemRequest is a partial line item update; nil fields are untouched
type UpdateItemRequest struct {
	Description *string          `json:"description"`
	Quantity    *decimal.Decimal `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
	TaxRate     *decimal.Decimal `json:"tax_rate"`
}

// LineItemResponse is one draft invoice row
type LineItemResponse struct {
	ID            uuid.UUID       `json:"id"`
	Origin        string          `json:"origin"`
	ChargeableID  *uuid.UUID      `json:"chargeable_id,omitempty"`
	Description   string          `json:"description"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	TaxRate       decimal.Decimal `json:"tax_rate"`
	Amount        decimal.Decimal `json:"amount"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	LineTotal     decimal.Decimal `json:"line_total"`
	RateInclusive decimal.Decimal `json:"rate_inclusive"`
}

// TotalsResponse is the fold of the draft
type TotalsResponse struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// DraftResponse is the observable billing state of one booking
type DraftResponse struct {
	BookingID     uuid.UUID          `json:"booking_id"`
	BookingStatus string             `json:"booking_status"`
	Items         []LineItemResponse `json:"items"`
	Totals        TotalsResponse     `json:"totals"`
	RemoteVersion int64              `json:"remote_version"`
	IsCalculating bool               `json:"is_calculating"`
	IsCompleting  bool               `json:"is_completing"`
	LastError     string             `json:"last_error,omitempty"`
	Warnings      []string           `json:"warnings,omitempty"`
}

// CompletionResponse reports the outcome of a completion commit
type CompletionResponse struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingStatus string    `json:"booking_status"`
	InvoiceStatus string    `json:"invoice_status"`
	Warnings      []string  `json:"warnings,omitempty"`
	CompletedAt   time.Time `json:"completed_at"`
}

// ToLineItemResponse converts a domain line item
func ToLineItemResponse(item billing.LineItem) LineItemResponse {
	return LineItemResponse{
		ID:            item.ID,
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
	}
}

// ToTotalsResponse converts domain totals
func ToTotalsResponse(t billing.Totals) TotalsResponse {
	return TotalsResponse{Subtotal: t.Subtotal, Tax: t.Tax, Total: t.Total}
}

// ToCompletionResponse converts a coordinator result
func ToCompletionResponse(r *billing.CompletionResult) CompletionResponse {
	return CompletionResponse{
		BookingID:     r.BookingID,
		BookingStatus: r.BookingStatus.String(),
		InvoiceStatus: string(r.InvoiceStatus),
		Warnings:      r.Warnings,
		CompletedAt:   r.CompletedAt,
	}
}
