package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrSequence is matched by every *SequenceError.
	ErrSequence = errors.New("time event violates clock-in/clock-out sequence")
	// ErrChainBroken is matched by every *ChainBrokenError.
	ErrChainBroken = errors.New("time ledger hash chain is broken")

	ErrEmployeeIDRequired = errors.New("employee ID is required")
	ErrInvalidKind        = errors.New("kind must be 'clock_in' or 'clock_out'")
	ErrEventNotFound      = errors.New("time event not found")
	ErrInvalidBreak       = errors.New("break must start before it ends")
	ErrTimestampInFuture  = errors.New("timestamp is ahead of the server clock")
)

// SequenceReason names the ordering rule an append broke.
type SequenceReason string

const (
	ReasonAlreadyClockedIn   SequenceReason = "already_clocked_in"
	ReasonNotClockedIn       SequenceReason = "not_clocked_in"
	ReasonTimestampRegressed SequenceReason = "timestamp_before_previous_event"
)

// SequenceError rejects an append that would break clock-in/out ordering.
type SequenceError struct {
	EmployeeID string
	Kind       Kind
	Reason     SequenceReason
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("%s for employee %s: %s", e.Kind, e.EmployeeID, e.Reason)
}

func (e *SequenceError) Is(target error) bool {
	return target == ErrSequence
}

// ChainBrokenError is an integrity alarm: a stored event no longer matches
// the hash recomputed from its fields or no longer links to its predecessor.
type ChainBrokenError struct {
	EmployeeID string
	EventID    string
	Sequence   int64
	Reason     string
}

func (e *ChainBrokenError) Error() string {
	return fmt.Sprintf("chain of employee %s broken at event %s (sequence %d): %s",
		e.EmployeeID, e.EventID, e.Sequence, e.Reason)
}

func (e *ChainBrokenError) Is(target error) bool {
	return target == ErrChainBroken
}
