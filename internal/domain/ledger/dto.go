package ledger

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/validator"
)

type AppendRequest struct {
	EmployeeID string     `json:"employee_id"`
	Kind       Kind       `json:"kind"`
	Timestamp  *time.Time `json:"timestamp,omitempty"` // defaults to now
	Source     Source     `json:"-"`
}

func (r *AppendRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	if !r.Kind.Valid() {
		errs = append(errs, validator.ValidationError{
			Field:   "kind",
			Message: "kind must be one of: " + strings.Join(KindValues, ", "),
		})
	}

	if r.Timestamp != nil && r.Timestamp.IsZero() {
		errs = append(errs, validator.ValidationError{
			Field:   "timestamp",
			Message: "timestamp must be a valid RFC 3339 instant",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type BreakRequest struct {
	EmployeeID string     `json:"employee_id"`
	BreakStart time.Time  `json:"break_start"`
	ResumeAt   *time.Time `json:"resume_at,omitempty"` // defaults to now
}

func (r *BreakRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}
	if r.BreakStart.IsZero() {
		errs = append(errs, validator.ValidationError{
			Field:   "break_start",
			Message: "break_start is required",
		})
	}
	if r.ResumeAt != nil && !r.BreakStart.IsZero() && !r.ResumeAt.After(r.BreakStart) {
		errs = append(errs, validator.ValidationError{
			Field:   "resume_at",
			Message: "resume_at must be after break_start",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Verification is the result of a successful chain check.
type Verification struct {
	EmployeeID string `json:"employee_id"`
	Valid      bool   `json:"valid"`
	Length     int64  `json:"length"`
	HeadHash   string `json:"head_hash"`
}

type TimeEventResponse struct {
	ID              string  `json:"id"`
	EmployeeID      string  `json:"employee_id"`
	Sequence        int64   `json:"sequence"`
	Kind            Kind    `json:"kind"`
	Timestamp       string  `json:"timestamp"`
	Hash            string  `json:"hash"`
	PreviousHash    string  `json:"previous_hash"`
	PreviousEntryID *string `json:"previous_entry_id,omitempty"`
	Source          Source  `json:"source"`
	RecordedAt      string  `json:"recorded_at"`
}

func ToResponse(e TimeEvent) TimeEventResponse {
	return TimeEventResponse{
		ID:              e.ID,
		EmployeeID:      e.EmployeeID,
		Sequence:        e.Sequence,
		Kind:            e.Kind,
		Timestamp:       e.Timestamp.UTC().Format(time.RFC3339Nano),
		Hash:            e.Hash,
		PreviousHash:    e.PreviousHash,
		PreviousEntryID: e.PreviousEntryID,
		Source:          e.Source,
		RecordedAt:      e.RecordedAt.UTC().Format(time.RFC3339Nano),
	}
}
