package ledger

import (
	"strings"
	"time"
)

// Kind is the clock action recorded by a TimeEvent.
type Kind string

const (
	KindClockIn  Kind = "clock_in"
	KindClockOut Kind = "clock_out"
)

var KindValues = []string{
	string(KindClockIn),
	string(KindClockOut),
}

func (k Kind) Valid() bool {
	return k == KindClockIn || k == KindClockOut
}

// Source tells where an event entered the system. It is metadata and is not
// part of the hash.
type Source string

const (
	SourceAPI     Source = "api"
	SourceOffline Source = "offline_queue"
	SourceBreak   Source = "break"
)

// GenesisHash is the PreviousHash of the first event of every employee chain.
var GenesisHash = strings.Repeat("0", 64)

// TimeEvent is one immutable clock action in an employee's chain.
type TimeEvent struct {
	ID              string
	EmployeeID      string
	Sequence        int64 // 1-based insertion index within the employee chain
	Kind            Kind
	Timestamp       time.Time
	Hash            string
	PreviousHash    string
	PreviousEntryID *string
	Source          Source
	RecordedAt      time.Time
}

// Head is the append cursor of an employee chain: the last event and the
// chain length. A zero Head (Length == 0) means an empty chain.
type Head struct {
	EmployeeID    string
	Length        int64
	LastEventID   string
	LastHash      string
	LastKind      Kind
	LastTimestamp time.Time
}

// IsOpen reports whether the chain currently ends in a clock-in.
func (h Head) IsOpen() bool {
	return h.Length > 0 && h.LastKind == KindClockIn
}

// PreviousHash returns the hash the next event must link to.
func (h Head) PreviousHash() string {
	if h.Length == 0 {
		return GenesisHash
	}
	return h.LastHash
}

// Advance returns the head after e has been appended.
func (h Head) Advance(e TimeEvent) Head {
	return Head{
		EmployeeID:    e.EmployeeID,
		Length:        e.Sequence,
		LastEventID:   e.ID,
		LastHash:      e.Hash,
		LastKind:      e.Kind,
		LastTimestamp: e.Timestamp,
	}
}

// Snapshot is a fixed-length read of one employee chain.
type Snapshot struct {
	Head   Head
	Events []TimeEvent
}
