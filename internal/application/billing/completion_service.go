package billing

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aeroclub/backend/internal/domain/billing"
	"github.com/aeroclub/backend/internal/domain/booking"
	"github.com/aeroclub/backend/internal/domain/fleet"
	"github.com/aeroclub/backend/internal/domain/shared"
	"github.com/aeroclub/backend/internal/infrastructure/telemetry"
)

// CompletionService drives the flight completion and billing workflow
// per booking: calculate the draft from a meter reading, edit line
// items, and commit. It holds one session per open booking.
type CompletionService struct {
	bookings    booking.Repository
	aircraft    fleet.AircraftRepository
	flightTypes fleet.FlightTypeRepository
	instructors fleet.InstructorRepository
	chargeables fleet.ChargeableRepository

	resolver    *billing.RateResolver
	tax         billing.TaxProvider
	store       billing.InvoiceStore
	coordinator *billing.CompletionCoordinator
	logger      *zap.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*session
}

// NewCompletionService creates a new CompletionService
func NewCompletionService(
	bookings booking.Repository,
	aircraft fleet.AircraftRepository,
	flightTypes fleet.FlightTypeRepository,
	instructors fleet.InstructorRepository,
	chargeables fleet.ChargeableRepository,
	resolver *billing.RateResolver,
	tax billing.TaxProvider,
	store billing.InvoiceStore,
	coordinator *billing.CompletionCoordinator,
	logger *zap.Logger,
) *CompletionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompletionService{
		bookings:    bookings,
		aircraft:    aircraft,
		flightTypes: flightTypes,
		instructors: instructors,
		chargeables: chargeables,
		resolver:    resolver,
		tax:         tax,
		store:       store,
		coordinator: coordinator,
		logger:      logger,
		sessions:    make(map[uuid.UUID]*session),
	}
}

// Calculate derives the draft invoice from the booking's final meter
// reading. Manual items survive; computed items are replaced. A result
// that is no longer the newest calculation for the booking is discarded.
func (s *CompletionService) Calculate(ctx context.Context, bookingID uuid.UUID, req CalculateRequest) (*DraftResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "billing", "calculate",
		telemetry.WithAttribute(telemetry.SpanAttrBookingID, bookingID.String()))
	defer span.End()

	b, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if b.IsCompleted() {
		err := shared.NewDomainError("INVALID_STATE", "Booking is already completed")
		telemetry.RecordError(span, err)
		return nil, err
	}

	reading, err := billing.NewMeterReading(req.HobbsStart, req.HobbsEnd, req.TachStart, req.TachEnd, req.SoloEndHobbs)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	flightTypeID := b.FlightTypeID
	if req.FlightTypeID != nil {
		flightTypeID = *req.FlightTypeID
	}
	flightType, err := s.flightTypes.FindByID(ctx, flightTypeID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if flightType.RequiresInstructor && b.InstructorID == nil {
		err := shared.NewDomainError(billing.ErrCodeValidationFailed,
			"Flight type "+flightType.Name+" requires an instructor on the booking")
		telemetry.RecordError(span, err)
		return nil, err
	}

	aircraft, err := s.aircraft.FindByID(ctx, b.AircraftID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	sess, err := s.session(ctx, bookingID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	seq := sess.beginCalculation()
	defer sess.endCalculation()
	telemetry.SetAttribute(span, telemetry.SpanAttrCalcSequence, seq)

	segments, err := billing.CalculateSegments(billing.SegmentInput{
		Reading:          reading,
		Basis:            aircraft.BillingBasis,
		FlightTypeID:     flightType.ID,
		InstructorID:     b.InstructorID,
		DualInstruction:  flightType.DualInstruction,
		SoloFlightTypeID: flightType.SoloContinuationTypeID,
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrSegmentCount, len(segments))

	computed, err := s.priceSegments(ctx, b, aircraft, segments)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	staleCheck := func() error {
		if sess.isCurrent(seq) {
			return nil
		}
		return shared.NewDomainError(billing.ErrCodeStaleCalculation,
			"A newer calculation superseded this one")
	}

	// A newer calculation started while rates were being resolved;
	// its result wins, this one is discarded.
	if err := staleCheck(); err != nil {
		s.logger.Debug("discarding stale calculation",
			zap.String("booking_id", bookingID.String()),
			zap.Int64("seq", seq),
		)
		telemetry.RecordError(span, err)
		return nil, err
	}

	// The check runs again under the reconciler mutex: a newer result
	// may fully apply while this one waits for the lock.
	if err := sess.reconciler.Initialize(ctx, computed, staleCheck); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := b.MarkDraftReady(reading); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.bookings.SaveWithLock(ctx, b); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	sess.setCalculated(reading, segments)
	telemetry.SetOK(span)

	return s.draftResponse(b, sess), nil
}

// GetDraft returns the observable billing state of a booking
func (s *CompletionService) GetDraft(ctx context.Context, bookingID uuid.UUID) (*DraftResponse, error) {
	b, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	sess, err := s.session(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return s.draftResponse(b, sess), nil
}

// AddItem prices a chargeable from the catalog and appends it to the
// draft as a manual item
func (s *CompletionService) AddItem(ctx context.Context, bookingID uuid.UUID, req AddItemRequest) (*DraftResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "billing", "add_item",
		telemetry.WithAttribute(telemetry.SpanAttrBookingID, bookingID.String()))
	defer span.End()

	b, sess, err := s.mutableSession(ctx, bookingID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	chargeable, err := s.chargeables.FindByID(ctx, req.ChargeableID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if !chargeable.Active {
		err := shared.NewDomainError(billing.ErrCodeInvalidChargeInput, "Chargeable is no longer offered")
		telemetry.RecordError(span, err)
		return nil, err
	}

	taxRate, err := s.tax.OrganizationTaxRate(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	item, err := billing.PriceChargeable(chargeable.ID, chargeable.Name, chargeable.Rate, chargeable.Taxable, req.Quantity, taxRate)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if _, err := sess.reconciler.Add(ctx, item); err != nil {
		sess.setOutcome(err.Error(), nil)
		telemetry.RecordError(span, err)
		return nil, err
	}

	sess.setOutcome("", nil)
	telemetry.SetOK(span)
	return s.draftResponse(b, sess), nil
}

// UpdateItem applies a partial update to one draft line item
func (s *CompletionService) UpdateItem(ctx context.Context, bookingID, itemID uuid.UUID, req UpdateItemRequest) (*DraftResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "billing", "update_item",
		telemetry.WithAttribute(telemetry.SpanAttrBookingID, bookingID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrItemID, itemID.String()))
	defer span.End()

	b, sess, err := s.mutableSession(ctx, bookingID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	patch := billing.LineItemPatch{
		Description: req.Description,
		Quantity:    req.Quantity,
		UnitPrice:   req.UnitPrice,
		TaxRate:     req.TaxRate,
	}
	if _, err := sess.reconciler.Update(ctx, itemID, patch); err != nil {
		sess.setOutcome(err.Error(), nil)
		telemetry.RecordError(span, err)
		return nil, err
	}

	sess.setOutcome("", nil)
	telemetry.SetOK(span)
	return s.draftResponse(b, sess), nil
}

// DeleteItem removes one draft line item
func (s *CompletionService) DeleteItem(ctx context.Context, bookingID, itemID uuid.UUID) (*DraftResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "billing", "delete_item",
		telemetry.WithAttribute(telemetry.SpanAttrBookingID, bookingID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrItemID, itemID.String()))
	defer span.End()

	b, sess, err := s.mutableSession(ctx, bookingID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := sess.reconciler.Delete(ctx, itemID); err != nil {
		sess.setOutcome(err.Error(), nil)
		telemetry.RecordError(span, err)
		return nil, err
	}

	sess.setOutcome("", nil)
	telemetry.SetOK(span)
	return s.draftResponse(b, sess), nil
}

// Complete commits the booking: flight log write plus invoice finalize.
// A duplicate request returns the recorded result; a partial failure
// returns the booking to DRAFT_READY with a warning the caller must
// surface.
func (s *CompletionService) Complete(ctx context.Context, bookingID uuid.UUID) (*CompletionResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "billing", "complete",
		telemetry.WithAttribute(telemetry.SpanAttrBookingID, bookingID.String()))
	defer span.End()

	sess, err := s.session(ctx, bookingID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if !sess.completing.CompareAndSwap(false, true) {
		err := shared.NewDomainError("INVALID_STATE", "Completion already in progress for this booking")
		telemetry.RecordError(span, err)
		return nil, err
	}
	defer sess.completing.Store(false)

	b, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if !b.IsCompleted() {
		if err := b.BeginCompletion(); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		if err := s.bookings.SaveWithLock(ctx, b); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	var reading billing.MeterReading
	if b.FinalReading != nil {
		reading = *b.FinalReading
	}
	result, err := s.coordinator.Complete(ctx, sess.completionInput(reading))
	if err != nil {
		sess.setOutcome(err.Error(), nil)
		s.failCompletion(ctx, b)
		telemetry.RecordError(span, err)
		return nil, err
	}

	if result.IsPartial() {
		sess.setOutcome("", result.Warnings)
		s.failCompletion(ctx, b)
		telemetry.AddEvent(span, "partial_commit",
			telemetry.SpanAttrBookingID, bookingID.String())
		resp := ToCompletionResponse(result)
		return &resp, nil
	}

	if !b.IsCompleted() {
		if err := b.CompletionSucceeded(); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		if err := s.bookings.SaveWithLock(ctx, b); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}
	sess.setOutcome("", nil)
	telemetry.SetAttribute(span, telemetry.SpanAttrBookingStatus, result.BookingStatus.String())
	telemetry.SetOK(span)

	resp := ToCompletionResponse(result)
	return &resp, nil
}

// session returns the session for a booking, creating it on first use.
// A new session hydrates its reconciler from the persisted draft so the
// first mutation after a process restart presents the stored version
// token rather than zero.
func (s *CompletionService) session(ctx context.Context, bookingID uuid.UUID) (*session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[bookingID]
	if !ok {
		sess = newSession(bookingID, s.store, s.logger)
		s.sessions[bookingID] = sess
	}
	s.mu.Unlock()

	if err := sess.ensureHydrated(ctx); err != nil {
		s.logger.Error("failed to hydrate draft session",
			zap.String("booking_id", bookingID.String()),
			zap.Error(err),
		)
		return nil, err
	}
	return sess, nil
}

// mutableSession loads the booking and rejects draft mutations outside
// DRAFT_READY
func (s *CompletionService) mutableSession(ctx context.Context, bookingID uuid.UUID) (*booking.Booking, *session, error) {
	b, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	if !b.CanMutateDraft() {
		return nil, nil, shared.NewDomainError("INVALID_STATE",
			"Draft items can only be changed while the booking is in "+billing.StatusDraftReady.String())
	}
	sess, err := s.session(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	return b, sess, nil
}

// priceSegments resolves rates per segment and prices them into
// computed line items
func (s *CompletionService) priceSegments(ctx context.Context, b *booking.Booking, aircraft *fleet.Aircraft, segments []billing.FlightSegment) ([]billing.LineItem, error) {
	instructorName := ""
	if b.InstructorID != nil {
		instructor, err := s.instructors.FindByID(ctx, *b.InstructorID)
		if err != nil {
			return nil, err
		}
		instructorName = instructor.Name
	}

	computed := make([]billing.LineItem, 0, 2*len(segments))
	for _, seg := range segments {
		rates, err := s.resolver.Resolve(ctx, aircraft.ID, seg.InstructorID, seg.FlightTypeID)
		if err != nil {
			return nil, err
		}
		items, err := billing.PriceSegment(seg, *rates, aircraft.Registration, instructorName)
		if err != nil {
			return nil, err
		}
		computed = append(computed, items...)
	}
	return computed, nil
}

// failCompletion returns the booking to DRAFT_READY after a failed or
// partial commit; a failure to persist the transition is logged, not
// propagated, since the commit outcome already decides the response
func (s *CompletionService) failCompletion(ctx context.Context, b *booking.Booking) {
	if b.IsCompleted() {
		return
	}
	if err := b.CompletionFailed(); err != nil {
		s.logger.Warn("cannot return booking to draft", zap.Error(err))
		return
	}
	if err := s.bookings.SaveWithLock(ctx, b); err != nil {
		s.logger.Error("failed to persist booking state after failed commit",
			zap.String("booking_id", b.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *CompletionService) draftResponse(b *booking.Booking, sess *session) *DraftResponse {
	state := sess.reconciler.State()
	items := make([]LineItemResponse, len(state.Items))
	for i, item := range state.Items {
		items[i] = ToLineItemResponse(item)
	}
	lastError, warnings := sess.outcome()

	return &DraftResponse{
		BookingID:     b.ID,
		BookingStatus: b.Status.String(),
		Items:         items,
		Totals:        ToTotalsResponse(state.Totals),
		RemoteVersion: state.RemoteVersion,
		IsCalculating: sess.isCalculating(),
		IsCompleting:  sess.completing.Load(),
		LastError:     lastError,
		Warnings:      warnings,
	}
}
