package ledger

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/digest"
)

const hashDomain = "timeledger/time-event/v1"

// ComputeHash returns H(employeeID, kind, timestamp, previousHash).
func ComputeHash(employeeID string, kind Kind, timestamp time.Time, previousHash string) string {
	return digest.New(hashDomain).
		Identifier(employeeID).
		String(string(kind)).
		Time(timestamp).
		String(previousHash).
		Hex()
}

// CheckNext validates that an event of the given kind and timestamp may
// follow head. It returns a *SequenceError or nil.
func CheckNext(head Head, employeeID string, kind Kind, timestamp time.Time) error {
	switch {
	case kind == KindClockIn && head.IsOpen():
		return &SequenceError{EmployeeID: employeeID, Kind: kind, Reason: ReasonAlreadyClockedIn}
	case kind == KindClockOut && !head.IsOpen():
		return &SequenceError{EmployeeID: employeeID, Kind: kind, Reason: ReasonNotClockedIn}
	case head.Length > 0 && timestamp.Before(head.LastTimestamp):
		return &SequenceError{EmployeeID: employeeID, Kind: kind, Reason: ReasonTimestampRegressed}
	}
	return nil
}

// NewEvent builds the event that extends head. The caller must hold the
// employee's append section and must have run CheckNext.
func NewEvent(head Head, id, employeeID string, kind Kind, timestamp time.Time, source Source, recordedAt time.Time) TimeEvent {
	ts := digest.Truncate(timestamp)
	prevHash := head.PreviousHash()

	e := TimeEvent{
		ID:           id,
		EmployeeID:   employeeID,
		Sequence:     head.Length + 1,
		Kind:         kind,
		Timestamp:    ts,
		PreviousHash: prevHash,
		Hash:         ComputeHash(employeeID, kind, ts, prevHash),
		Source:       source,
		RecordedAt:   digest.Truncate(recordedAt),
	}
	if head.Length > 0 {
		prevID := head.LastEventID
		e.PreviousEntryID = &prevID
	}
	return e
}

// VerifyChain walks events in insertion order and recomputes every link. It
// returns the *ChainBrokenError of the first offending event, or nil. It reads
// nothing but its argument.
func VerifyChain(employeeID string, events []TimeEvent) error {
	prevHash := GenesisHash
	var prevID *string

	for i, e := range events {
		broken := func(reason string) error {
			return &ChainBrokenError{EmployeeID: employeeID, EventID: e.ID, Sequence: e.Sequence, Reason: reason}
		}

		if e.EmployeeID != employeeID {
			return broken("event belongs to another employee")
		}
		if e.Sequence != int64(i+1) {
			return broken("sequence gap")
		}
		if e.PreviousHash != prevHash {
			return broken("previous hash does not link to predecessor")
		}
		if !samePtr(e.PreviousEntryID, prevID) {
			return broken("previous entry id does not link to predecessor")
		}
		if e.Hash != ComputeHash(e.EmployeeID, e.Kind, e.Timestamp, e.PreviousHash) {
			return broken("hash does not match event fields")
		}

		prevHash = e.Hash
		id := e.ID
		prevID = &id
	}
	return nil
}

func samePtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// VerifySnapshot verifies the events of s and that the recorded head still
// points at the last of them, which catches truncation of the chain tail.
func VerifySnapshot(employeeID string, s Snapshot) error {
	if err := VerifyChain(employeeID, s.Events); err != nil {
		return err
	}
	if int64(len(s.Events)) != s.Head.Length {
		return &ChainBrokenError{
			EmployeeID: employeeID,
			EventID:    s.Head.LastEventID,
			Sequence:   s.Head.Length,
			Reason:     fmt.Sprintf("head records %d events, %d stored", s.Head.Length, len(s.Events)),
		}
	}
	if n := len(s.Events); n > 0 && s.Events[n-1].Hash != s.Head.LastHash {
		last := s.Events[n-1]
		return &ChainBrokenError{
			EmployeeID: employeeID,
			EventID:    last.ID,
			Sequence:   last.Sequence,
			Reason:     "head hash does not match last event",
		}
	}
	return nil
}
