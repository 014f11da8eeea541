package billing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aeroclub/backend/internal/domain/shared"
)

// InvoiceStatus reflects how far the completion commit got on the
// invoice side
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "DRAFT"
	InvoiceFinalized InvoiceStatus = "FINALIZED"
)

// CompletionInput carries everything the coordinator needs to commit a
// booking. The reading must be the one the current draft was calculated
// from; the coordinator refuses to commit a draft that no longer
// matches its reading.
type CompletionInput struct {
	BookingID    uuid.UUID
	Reading      MeterReading
	DraftReading *MeterReading
	Segments     []FlightSegment
	Draft        DraftInvoiceState
}

// CompletionResult is the terminal record of one completion attempt
// that got past the flight log commit. Warnings are non-empty exactly
// when the commit is partial; a partial result must not be treated as a
// closed booking.
type CompletionResult struct {
	BookingID     uuid.UUID       `json:"booking_id"`
	BookingStatus LifecycleStatus `json:"booking_status"`
	InvoiceStatus InvoiceStatus   `json:"invoice_status"`
	Warnings      []string        `json:"warnings,omitempty"`
	CompletedAt   time.Time       `json:"completed_at"`
}

// IsPartial reports whether only the flight log half of the commit
// succeeded
func (r *CompletionResult) IsPartial() bool {
	return r.InvoiceStatus != InvoiceFinalized
}

// BookingCommitter performs the two halves of the completion commit
// against persistent storage. Each half must itself be idempotent per
// booking so a retry after a partial failure cannot double-apply.
type BookingCommitter interface {
	// CommitFlightLog writes the final meter reading and the billed
	// segments into the flight log and advances the booking row.
	CommitFlightLog(ctx context.Context, in CompletionInput) error

	// FinalizeInvoice freezes the draft into a finalized invoice. After
	// this returns nil the draft is immutable.
	FinalizeInvoice(ctx context.Context, in CompletionInput) error

	// IsFinalized reports whether the booking's invoice has already been
	// finalized, used to answer replays after a restart.
	IsFinalized(ctx context.Context, bookingID uuid.UUID) (bool, error)
}

// commitProgress tracks which halves of a booking's commit have landed
// so a retry re-issues only the failed half
type commitProgress struct {
	mu            sync.Mutex
	flightLogDone bool
	result        *CompletionResult
}

// CompletionCoordinator turns a reviewed draft into a flight log entry
// and a finalized invoice. Completion is idempotent per booking: a
// duplicate request returns the recorded result without issuing a
// second invoice, and a retry after a partial failure picks up at the
// half that failed.
type CompletionCoordinator struct {
	committer   BookingCommitter
	idempotency shared.IdempotencyStore
	ttl         time.Duration
	logger      *zap.Logger

	mu       sync.Mutex
	progress map[uuid.UUID]*commitProgress
}

// NewCompletionCoordinator creates a coordinator. idempotency may be
// nil, in which case replay detection is limited to this process.
func NewCompletionCoordinator(committer BookingCommitter, idempotency shared.IdempotencyStore, cfg shared.IdempotencyConfig, logger *zap.Logger) *CompletionCoordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled {
		idempotency = nil
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = shared.DefaultIdempotencyConfig().TTL
	}
	return &CompletionCoordinator{
		committer:   committer,
		idempotency: idempotency,
		ttl:         ttl,
		logger:      logger,
		progress:    make(map[uuid.UUID]*commitProgress),
	}
}

// Complete commits the booking. On full success the result carries
// COMPLETED / FINALIZED and no warnings. When the flight log lands but
// the invoice finalize fails, the result carries DRAFT_READY / DRAFT
// plus a warning and the caller may retry; the retry skips the flight
// log half. When the flight log half itself fails nothing has changed
// and a CommitError is returned.
func (c *CompletionCoordinator) Complete(ctx context.Context, in CompletionInput) (*CompletionResult, error) {
	if err := c.validate(in); err != nil {
		return nil, err
	}

	p := c.progressFor(in.BookingID)
	p.mu.Lock()
	defer p.mu.Unlock()

	log := c.logger.With(zap.String("booking_id", in.BookingID.String()))

	if p.result != nil && !p.result.IsPartial() {
		log.Info("duplicate completion request, returning recorded result")
		return p.result, nil
	}
	if replay, err := c.checkReplay(ctx, in.BookingID); err != nil {
		return nil, err
	} else if replay != nil {
		log.Info("completion already finalized, returning replay result")
		p.result = replay
		return replay, nil
	}

	if !p.flightLogDone {
		if err := c.committer.CommitFlightLog(ctx, in); err != nil {
			log.Error("flight log commit failed", zap.Error(err))
			return nil, &CommitError{BookingID: in.BookingID.String(), Cause: err}
		}
		p.flightLogDone = true
		log.Debug("flight log committed", zap.Int("segments", len(in.Segments)))
	}

	if err := c.committer.FinalizeInvoice(ctx, in); err != nil {
		log.Warn("invoice finalize failed after flight log commit", zap.Error(err))
		partial := &CompletionResult{
			BookingID:     in.BookingID,
			BookingStatus: StatusDraftReady,
			InvoiceStatus: InvoiceDraft,
			Warnings: []string{
				fmt.Sprintf("Flight log committed but invoice finalization failed: %v. Retry to finalize the invoice.", err),
			},
			CompletedAt: time.Now(),
		}
		p.result = partial
		return partial, nil
	}

	result := &CompletionResult{
		BookingID:     in.BookingID,
		BookingStatus: StatusCompleted,
		InvoiceStatus: InvoiceFinalized,
		CompletedAt:   time.Now(),
	}
	p.result = result
	c.markProcessed(ctx, in.BookingID, log)

	log.Info("booking completed",
		zap.Int("items", len(in.Draft.Items)),
		zap.String("total", in.Draft.Totals.Total.StringFixed(2)),
	)
	return result, nil
}

func (c *CompletionCoordinator) validate(in CompletionInput) error {
	if in.BookingID == uuid.Nil {
		return shared.NewDomainError(ErrCodeValidationFailed, "Booking ID is required")
	}
	if err := in.Reading.Validate(); err != nil {
		return err
	}
	if in.DraftReading == nil {
		return shared.NewDomainError(ErrCodeValidationFailed, "No calculation exists for this booking")
	}
	if !in.Reading.Equals(*in.DraftReading) {
		return shared.NewDomainError(ErrCodeValidationFailed,
			"Meter reading changed since the draft was calculated; recalculate before completing")
	}
	if in.Draft.IsEmpty() {
		return shared.NewDomainError(ErrCodeValidationFailed, "Draft invoice has no line items")
	}
	return nil
}

func (c *CompletionCoordinator) progressFor(bookingID uuid.UUID) *commitProgress {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.progress[bookingID]
	if !ok {
		p = &commitProgress{}
		c.progress[bookingID] = p
	}
	return p
}

// checkReplay consults the idempotency store for completions committed
// by a previous process. The booking is the idempotency key; the store
// answering "processed" is only trusted when storage confirms the
// invoice is finalized.
func (c *CompletionCoordinator) checkReplay(ctx context.Context, bookingID uuid.UUID) (*CompletionResult, error) {
	if c.idempotency == nil {
		return nil, nil
	}
	processed, err := c.idempotency.IsProcessed(ctx, completionKey(bookingID))
	if err != nil {
		return nil, fmt.Errorf("idempotency check: %w", err)
	}
	if !processed {
		return nil, nil
	}
	finalized, err := c.committer.IsFinalized(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("finalization check: %w", err)
	}
	if !finalized {
		return nil, nil
	}
	return &CompletionResult{
		BookingID:     bookingID,
		BookingStatus: StatusCompleted,
		InvoiceStatus: InvoiceFinalized,
		CompletedAt:   time.Now(),
	}, nil
}

func (c *CompletionCoordinator) markProcessed(ctx context.Context, bookingID uuid.UUID, log *zap.Logger) {
	if c.idempotency == nil {
		return
	}
	if _, err := c.idempotency.MarkProcessed(ctx, completionKey(bookingID), c.ttl); err != nil {
		// The commit itself succeeded; a failed mark only weakens
		// cross-process replay detection.
		log.Warn("failed to mark completion processed", zap.Error(err))
	}
}

func completionKey(bookingID uuid.UUID) string {
	return "completion:" + bookingID.String()
}
