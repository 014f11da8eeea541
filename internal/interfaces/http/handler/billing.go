package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appbilling "github.com/aeroclub/backend/internal/application/billing"
	"github.com/aeroclub/backend/internal/domain/billing"
	"github.com/aeroclub/backend/internal/domain/shared"
	"github.com/aeroclub/backend/internal/interfaces/http/dto"
)

// BillingHandler exposes the flight completion and billing workflow of
// one booking: calculate the draft, edit line items, commit.
type BillingHandler struct {
	BaseHandler
	service *appbilling.CompletionService
}

// NewBillingHandler creates a new BillingHandler
func NewBillingHandler(service *appbilling.CompletionService) *BillingHandler {
	return &BillingHandler{service: service}
}

// Calculate derives the draft invoice from a meter reading
// POST /bookings/:id/billing/calculate
func (h *BillingHandler) Calculate(c *gin.Context) {
	bookingID, ok := h.bookingID(c)
	if !ok {
		return
	}

	var req appbilling.CalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, 400, dto.ErrCodeInvalidJSON, err.Error())
		return
	}

	draft, err := h.service.Calculate(c.Request.Context(), bookingID, req)
	if err != nil {
		h.handleBillingError(c, err)
		return
	}
	h.Success(c, draft)
}

// GetDraft returns the observable billing state of a booking
// GET /bookings/:id/billing
func (h *BillingHandler) GetDraft(c *gin.Context) {
	bookingID, ok := h.bookingID(c)
	if !ok {
		return
	}

	draft, err := h.service.GetDraft(c.Request.Context(), bookingID)
	if err != nil {
		h.handleBillingError(c, err)
		return
	}
	h.Success(c, draft)
}

// AddItem appends a manual chargeable to the draft
// POST /bookings/:id/billing/items
func (h *BillingHandler) AddItem(c *gin.Context) {
	bookingID, ok := h.bookingID(c)
	if !ok {
		return
	}

	var req appbilling.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, 400, dto.ErrCodeInvalidJSON, err.Error())
		return
	}

	draft, err := h.service.AddItem(c.Request.Context(), bookingID, req)
	if err != nil {
		h.handleBillingError(c, err)
		return
	}
	h.Created(c, draft)
}

// UpdateItem applies a partial update to one draft line item
// PATCH /bookings/:id/billing/items/:itemID
func (h *BillingHandler) UpdateItem(c *gin.Context) {
	bookingID, ok := h.bookingID(c)
	if !ok {
		return
	}
	itemID, err := uuid.Parse(c.Param("itemID"))
	if err != nil {
		h.BadRequest(c, "Invalid item ID")
		return
	}

	var req appbilling.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, 400, dto.ErrCodeInvalidJSON, err.Error())
		return
	}

	draft, err := h.service.UpdateItem(c.Request.Context(), bookingID, itemID, req)
	if err != nil {
		h.handleBillingError(c, err)
		return
	}
	h.Success(c, draft)
}

// DeleteItem removes one draft line item
// DELETE /bookings/:id/billing/items/:itemID
func (h *BillingHandler) DeleteItem(c *gin.Context) {
	bookingID, ok := h.bookingID(c)
	if !ok {
		return
	}
	itemID, err := uuid.Parse(c.Param("itemID"))
	if err != nil {
		h.BadRequest(c, "Invalid item ID")
		return
	}

	draft, err := h.service.DeleteItem(c.Request.Context(), bookingID, itemID)
	if err != nil {
		h.handleBillingError(c, err)
		return
	}
	h.Success(c, draft)
}

// Complete commits the booking: flight log write plus invoice finalize
// POST /bookings/:id/complete
func (h *BillingHandler) Complete(c *gin.Context) {
	bookingID, ok := h.bookingID(c)
	if !ok {
		return
	}

	result, err := h.service.Complete(c.Request.Context(), bookingID)
	if err != nil {
		h.handleBillingError(c, err)
		return
	}
	h.Success(c, result)
}

func (h *BillingHandler) bookingID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid booking ID")
		return uuid.Nil, false
	}
	return id, true
}

// handleBillingError maps billing engine error types that are not plain
// domain errors before falling back to the shared handling
func (h *BillingHandler) handleBillingError(c *gin.Context, err error) {
	// A rolled-back mutation caused by a stale version surfaces the
	// conflict, not the rollback wrapper.
	if errors.Is(err, shared.ErrConcurrencyConflict) {
		h.ErrorWithCode(c, dto.ErrCodeConcurrencyConflict, shared.ErrConcurrencyConflict.Message)
		return
	}

	var remoteErr *billing.RemoteMutationError
	if errors.As(err, &remoteErr) {
		var domainErr *shared.DomainError
		if errors.As(remoteErr.Cause, &domainErr) {
			h.HandleError(c, domainErr)
			return
		}
		h.ErrorWithCode(c, billing.ErrCodeRemoteMutationFailed, remoteErr.Error())
		return
	}

	var commitErr *billing.CommitError
	if errors.As(err, &commitErr) {
		h.ErrorWithCode(c, billing.ErrCodeCommitFailed, commitErr.Error())
		return
	}

	h.HandleError(c, err)
}
