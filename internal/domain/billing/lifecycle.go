package billing

// LifecycleStatus is the billing lifecycle of a booking:
//
//	FLYING -> (calculate)* -> DRAFT_READY -> (edit)* -> COMPLETING -> COMPLETED
//
// with COMPLETING falling back to DRAFT_READY on any failure. No partial
// success persists as a terminal state.
type LifecycleStatus string

const (
	StatusFlying     LifecycleStatus = "FLYING"
	StatusDraftReady LifecycleStatus = "DRAFT_READY"
	StatusCompleting LifecycleStatus = "COMPLETING"
	StatusCompleted  LifecycleStatus = "COMPLETED"
)

// IsValid checks if the status is a known LifecycleStatus
func (s LifecycleStatus) IsValid() bool {
	switch s {
	case StatusFlying, StatusDraftReady, StatusCompleting, StatusCompleted:
		return true
	}
	return false
}

// String returns the string representation of LifecycleStatus
func (s LifecycleStatus) String() string {
	return string(s)
}

// IsTerminal returns true once the booking is fully completed
func (s LifecycleStatus) IsTerminal() bool {
	return s == StatusCompleted
}

// CanTransitionTo reports whether the transition to next is legal
func (s LifecycleStatus) CanTransitionTo(next LifecycleStatus) bool {
	switch s {
	case StatusFlying:
		return next == StatusDraftReady
	case StatusDraftReady:
		// Recalculation keeps the booking in DRAFT_READY
		return next == StatusDraftReady || next == StatusCompleting
	case StatusCompleting:
		return next == StatusCompleted || next == StatusDraftReady
	case StatusCompleted:
		return false
	}
	return false
}
