package workperiod

import "time"

// Source tells whether a period was derived from the ledger or projected
// from a planned shift.
type Source string

const (
	SourceLedger   Source = "ledger"
	SourceSchedule Source = "schedule"
)

// WorkPeriod is a derived clock-in to clock-out interval. It is a view over
// the ledger and is never stored as a source of truth.
type WorkPeriod struct {
	ID              string
	EmployeeID      string
	ClockInEventID  string
	ClockOutEventID *string
	StartTime       time.Time
	EndTime         *time.Time
	DurationMinutes int64
	IsActive        bool
	Source          Source
	Overrides       []FieldOverride
}

// EndOr returns the period end, or at when the period is still open.
func (p WorkPeriod) EndOr(at time.Time) time.Time {
	if p.EndTime != nil {
		return *p.EndTime
	}
	return at
}

type Field string

const (
	FieldStartTime Field = "start_time"
	FieldEndTime   Field = "end_time"
)

// FieldOverride records one field replaced by an approved correction.
type FieldOverride struct {
	Field        Field
	Original     *time.Time
	Corrected    time.Time
	CorrectionID string
}

type CorrectionStatus string

const (
	CorrectionPending  CorrectionStatus = "pending"
	CorrectionApproved CorrectionStatus = "approved"
	CorrectionRejected CorrectionStatus = "rejected"
)

// Correction is an approval-gated overlay for the period that starts at
// ClockInEventID. It never changes the ledger.
type Correction struct {
	ID              string
	EmployeeID      string
	CompanyID       string
	ClockInEventID  string
	CorrectedStart  *time.Time
	CorrectedEnd    *time.Time
	Reason          string
	Status          CorrectionStatus
	RequestedBy     string
	ReviewedBy      *string
	ReviewedAt      *time.Time
	RejectionReason *string
	CreatedAt       time.Time
}
