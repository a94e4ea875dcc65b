package workperiod

import (
	"time"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/validator"
)

type CorrectionRequest struct {
	EmployeeID     string     `json:"-"`
	CompanyID      string     `json:"-"`
	RequestedBy    string     `json:"-"`
	ClockInEventID string     `json:"clock_in_event_id"`
	CorrectedStart *time.Time `json:"corrected_start,omitempty"`
	CorrectedEnd   *time.Time `json:"corrected_end,omitempty"`
	Reason         string     `json:"reason"`
}

func (r *CorrectionRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: ErrEmployeeIDRequired.Error()})
	}
	if validator.IsEmpty(r.ClockInEventID) {
		errs = append(errs, validator.ValidationError{Field: "clock_in_event_id", Message: ErrClockInEventIDRequired.Error()})
	}
	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{Field: "reason", Message: ErrReasonRequired.Error()})
	}
	if r.CorrectedStart == nil && r.CorrectedEnd == nil {
		errs = append(errs, validator.ValidationError{Field: "corrected_start", Message: ErrNothingToCorrect.Error()})
	}
	if r.CorrectedStart != nil && r.CorrectedEnd != nil && !r.CorrectedEnd.After(*r.CorrectedStart) {
		errs = append(errs, validator.ValidationError{Field: "corrected_end", Message: ErrCorrectionInverted.Error()})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ReviewRequest struct {
	CorrectionID    string  `json:"-"`
	CompanyID       string  `json:"-"`
	ReviewedBy      string  `json:"-"`
	RejectionReason *string `json:"rejection_reason,omitempty"`
}

type FieldOverrideResponse struct {
	Field        Field      `json:"field"`
	Original     *time.Time `json:"original"`
	Corrected    time.Time  `json:"corrected"`
	CorrectionID string     `json:"correction_id"`
}

type WorkPeriodResponse struct {
	ID              string                  `json:"id"`
	EmployeeID      string                  `json:"employee_id"`
	ClockInEventID  string                  `json:"clock_in_event_id,omitempty"`
	ClockOutEventID *string                 `json:"clock_out_event_id"`
	StartTime       time.Time               `json:"start_time"`
	EndTime         *time.Time              `json:"end_time"`
	DurationMinutes int64                   `json:"duration_minutes"`
	IsActive        bool                    `json:"is_active"`
	Source          Source                  `json:"source"`
	Overrides       []FieldOverrideResponse `json:"overrides,omitempty"`
}

func ToResponse(p WorkPeriod) WorkPeriodResponse {
	resp := WorkPeriodResponse{
		ID:              p.ID,
		EmployeeID:      p.EmployeeID,
		ClockInEventID:  p.ClockInEventID,
		ClockOutEventID: p.ClockOutEventID,
		StartTime:       p.StartTime,
		EndTime:         p.EndTime,
		DurationMinutes: p.DurationMinutes,
		IsActive:        p.IsActive,
		Source:          p.Source,
	}
	for _, o := range p.Overrides {
		resp.Overrides = append(resp.Overrides, FieldOverrideResponse(o))
	}
	return resp
}

type CorrectionResponse struct {
	ID              string           `json:"id"`
	EmployeeID      string           `json:"employee_id"`
	ClockInEventID  string           `json:"clock_in_event_id"`
	CorrectedStart  *time.Time       `json:"corrected_start"`
	CorrectedEnd    *time.Time       `json:"corrected_end"`
	Reason          string           `json:"reason"`
	Status          CorrectionStatus `json:"status"`
	RequestedBy     string           `json:"requested_by"`
	ReviewedBy      *string          `json:"reviewed_by"`
	ReviewedAt      *time.Time       `json:"reviewed_at"`
	RejectionReason *string          `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

func ToCorrectionResponse(c Correction) CorrectionResponse {
	return CorrectionResponse{
		ID:              c.ID,
		EmployeeID:      c.EmployeeID,
		ClockInEventID:  c.ClockInEventID,
		CorrectedStart:  c.CorrectedStart,
		CorrectedEnd:    c.CorrectedEnd,
		Reason:          c.Reason,
		Status:          c.Status,
		RequestedBy:     c.RequestedBy,
		ReviewedBy:      c.ReviewedBy,
		ReviewedAt:      c.ReviewedAt,
		RejectionReason: c.RejectionReason,
		CreatedAt:       c.CreatedAt,
	}
}
