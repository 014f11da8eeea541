package billing

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aeroclub/backend/internal/domain/billing"
)

// session is the per-booking completion workflow state. It owns the
// draft reconciler for its booking, the calculation sequence counter
// used to discard stale results, and the last error/warning slot staff
// see on the draft screen.
type session struct {
	bookingID  uuid.UUID
	store      billing.InvoiceStore
	reconciler *billing.DraftReconciler

	// calcSeq increases on every calculation request; a result whose
	// sequence is no longer current is discarded instead of applied.
	calcSeq     atomic.Int64
	calculating atomic.Int32
	completing  atomic.Bool

	mu           sync.Mutex
	hydrated     bool
	draftReading *billing.MeterReading
	segments     []billing.FlightSegment
	lastError    string
	warnings     []string
}

func newSession(bookingID uuid.UUID, store billing.InvoiceStore, logger *zap.Logger) *session {
	return &session{
		bookingID:  bookingID,
		store:      store,
		reconciler: billing.NewDraftReconciler(bookingID, store, logger),
	}
}

// ensureHydrated loads the persisted draft into the reconciler the first
// time the session is used, so a restarted process resumes at the stored
// version token instead of zero. A load failure leaves the session
// unhydrated; the next call retries.
func (s *session) ensureHydrated(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hydrated {
		return nil
	}
	state, err := s.store.LoadDraft(ctx, s.bookingID)
	if err != nil {
		return err
	}
	s.reconciler.Hydrate(state)
	s.hydrated = true
	return nil
}

// beginCalculation reserves the next sequence number and marks the
// session as calculating
func (s *session) beginCalculation() int64 {
	s.calculating.Add(1)
	return s.calcSeq.Add(1)
}

// endCalculation clears the calculating flag for one request
func (s *session) endCalculation() {
	s.calculating.Add(-1)
}

// isCurrent reports whether seq is still the newest calculation
func (s *session) isCurrent(seq int64) bool {
	return s.calcSeq.Load() == seq
}

func (s *session) isCalculating() bool {
	return s.calculating.Load() > 0
}

// setCalculated records the reading and segments the current draft was
// derived from
func (s *session) setCalculated(reading billing.MeterReading, segments []billing.FlightSegment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draftReading = &reading
	s.segments = segments
	s.lastError = ""
	s.warnings = nil
}

// completionInput assembles the coordinator input from the session state
func (s *session) completionInput(finalReading billing.MeterReading) billing.CompletionInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	segments := make([]billing.FlightSegment, len(s.segments))
	copy(segments, s.segments)
	return billing.CompletionInput{
		BookingID:    s.bookingID,
		Reading:      finalReading,
		DraftReading: s.draftReading,
		Segments:     segments,
		Draft:        s.reconciler.State(),
	}
}

// setOutcome records the result of the last failed or partial operation
func (s *session) setOutcome(lastError string, warnings []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = lastError
	s.warnings = warnings
}

// outcome returns the last error and warnings
func (s *session) outcome() (string, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	warnings := make([]string, len(s.warnings))
	copy(warnings, s.warnings)
	return s.lastError, warnings
}
