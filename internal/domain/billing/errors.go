package billing

import (
	"errors"
	"fmt"

	"github.com/aeroclub/backend/internal/domain/shared"
)

// Error codes for the billing engine. Every failure that crosses the
// package boundary carries one of these codes so callers can branch on
// the kind without string matching.
const (
	ErrCodeInvalidMeterReading  = "INVALID_METER_READING"
	ErrCodeRateNotConfigured    = "RATE_NOT_CONFIGURED"
	ErrCodeInvalidChargeInput   = "INVALID_CHARGE_INPUT"
	ErrCodeRemoteMutationFailed = "REMOTE_MUTATION_FAILED"
	ErrCodeCommitFailed         = "COMMIT_FAILED"
	ErrCodePartialCommit        = "PARTIAL_COMMIT"
	ErrCodeValidationFailed     = "VALIDATION_FAILED"
	ErrCodeStaleCalculation     = "STALE_CALCULATION"
)

// NewInvalidMeterReadingError reports a meter reading that violates an
// invariant (non-monotonic meters, solo end not after dual end, ...).
// Recoverable by re-entry.
func NewInvalidMeterReadingError(detail string) *shared.DomainError {
	return shared.NewDomainError(ErrCodeInvalidMeterReading, detail)
}

// NewRateNotConfiguredError reports a missing rate row for the given
// subject and flight type. This is a configuration gap, fatal to the
// calculation until fixed upstream, and deliberately distinct from a
// transient lookup failure.
func NewRateNotConfiguredError(subject, flightType string) *shared.DomainError {
	return shared.NewDomainError(ErrCodeRateNotConfigured,
		fmt.Sprintf("No rate configured for %s on flight type %s", subject, flightType))
}

// NewInvalidChargeInputError reports invalid manual line item input
// (negative quantity or price, empty description).
func NewInvalidChargeInputError(detail string) *shared.DomainError {
	return shared.NewDomainError(ErrCodeInvalidChargeInput, detail)
}

// RemoteMutationError wraps a remote store failure during an optimistic
// draft mutation. The local state has already been rolled back to the
// pre-mutation snapshot when this error is returned.
type RemoteMutationError struct {
	Op    string // "initialize", "add", "update", "delete"
	Cause error
}

func (e *RemoteMutationError) Error() string {
	return fmt.Sprintf("remote %s failed, draft rolled back: %v", e.Op, e.Cause)
}

func (e *RemoteMutationError) Unwrap() error {
	return e.Cause
}

// CommitError wraps a failed completion attempt. The draft is preserved
// untouched so the caller may retry.
type CommitError struct {
	BookingID string
	Cause     error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("completion commit failed for booking %s: %v", e.BookingID, e.Cause)
}

func (e *CommitError) Unwrap() error {
	return e.Cause
}

// IsInvalidMeterReading reports whether err carries the invalid meter
// reading code.
func IsInvalidMeterReading(err error) bool {
	return hasCode(err, ErrCodeInvalidMeterReading)
}

// IsRateNotConfigured reports whether err carries the rate-not-configured
// code.
func IsRateNotConfigured(err error) bool {
	return hasCode(err, ErrCodeRateNotConfigured)
}

// IsInvalidChargeInput reports whether err carries the invalid charge
// input code.
func IsInvalidChargeInput(err error) bool {
	return hasCode(err, ErrCodeInvalidChargeInput)
}

// IsStaleCalculation reports whether err marks a calculation result
// that was superseded by a newer one.
func IsStaleCalculation(err error) bool {
	return hasCode(err, ErrCodeStaleCalculation)
}

// IsRemoteMutationFailed reports whether err stems from a rolled-back
// remote mutation.
func IsRemoteMutationFailed(err error) bool {
	var rm *RemoteMutationError
	return errors.As(err, &rm)
}

// IsCommitFailed reports whether err stems from a failed completion commit.
func IsCommitFailed(err error) bool {
	var ce *CommitError
	return errors.As(err, &ce)
}

func hasCode(err error, code string) bool {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}
