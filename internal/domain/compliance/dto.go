package compliance

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/timerange"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/validator"
)

type EvaluateRequest struct {
	CompanyID   string
	EmployeeID  string
	Dates       timerange.Dates
	EvaluatedAt time.Time
}

type CompanyEvaluateRequest struct {
	CompanyID   string
	Dates       timerange.Dates
	EvaluatedAt time.Time
}

// CompanyEvaluation is the combined result over every employee of a company.
type CompanyEvaluation struct {
	CompanyID           string
	Dates               timerange.Dates
	EvaluatedAt         time.Time
	Findings            []Finding
	Summary             Summary
	AppliedExceptionIDs []string
}

type CreateExceptionRequest struct {
	CompanyID   string    `json:"-"`
	RequestedBy string    `json:"-"`
	EmployeeID  string    `json:"employee_id"`
	RuleType    string    `json:"rule_type"`
	Kind        string    `json:"kind"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	Reason      string    `json:"reason"`
}

func (r *CreateExceptionRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id is required"})
	}
	if !RuleType(r.RuleType).Valid() {
		errs = append(errs, validator.ValidationError{
			Field:   "rule_type",
			Message: "rule_type must be one of: " + strings.Join(RuleTypeValues, ", "),
		})
	}
	if !validator.IsInSlice(r.Kind, ExceptionKindValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "kind",
			Message: "kind must be one of: " + strings.Join(ExceptionKindValues, ", "),
		})
	}
	if r.WindowStart.IsZero() || r.WindowEnd.IsZero() {
		errs = append(errs, validator.ValidationError{Field: "window_start", Message: "window_start and window_end are required"})
	} else if !r.WindowEnd.After(r.WindowStart) {
		errs = append(errs, validator.ValidationError{Field: "window_end", Message: ErrInvalidWindow.Error()})
	}
	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{Field: "reason", Message: "reason is required"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ReviewExceptionRequest struct {
	ExceptionID string `json:"-"`
	CompanyID   string `json:"-"`
	ReviewedBy  string `json:"-"`
}

type FindingResponse struct {
	ID                    string    `json:"id"`
	EmployeeID            string    `json:"employee_id"`
	Type                  RuleType  `json:"type"`
	Severity              Severity  `json:"severity"`
	WindowStart           time.Time `json:"window_start"`
	WindowEnd             time.Time `json:"window_end"`
	EvidenceWorkPeriodIDs []string  `json:"evidence_work_period_ids"`
	Observed              int64     `json:"observed"`
	Limit                 int64     `json:"limit"`
	Overage               int64     `json:"overage"`
	Unit                  Unit      `json:"unit"`
	Waived                bool      `json:"waived"`
	ExceptionID           *string   `json:"exception_id,omitempty"`
}

func ToFindingResponse(f Finding) FindingResponse {
	return FindingResponse(f)
}

func ToFindingResponses(findings []Finding) []FindingResponse {
	out := make([]FindingResponse, 0, len(findings))
	for _, f := range findings {
		out = append(out, ToFindingResponse(f))
	}
	return out
}

type SummaryResponse struct {
	CompanyID   string            `json:"company_id"`
	StartDate   string            `json:"start_date"`
	EndDate     string            `json:"end_date"`
	EvaluatedAt time.Time         `json:"evaluated_at"`
	Summary     Summary           `json:"summary"`
	Findings    []FindingResponse `json:"findings"`
}

func ToSummaryResponse(e CompanyEvaluation) SummaryResponse {
	return SummaryResponse{
		CompanyID:   e.CompanyID,
		StartDate:   e.Dates.From,
		EndDate:     e.Dates.To,
		EvaluatedAt: e.EvaluatedAt,
		Summary:     e.Summary,
		Findings:    ToFindingResponses(e.Findings),
	}
}

type ExceptionResponse struct {
	ID          string          `json:"id"`
	EmployeeID  string          `json:"employee_id"`
	CompanyID   string          `json:"company_id"`
	RuleType    RuleType        `json:"rule_type"`
	Kind        ExceptionKind   `json:"kind"`
	WindowStart time.Time       `json:"window_start"`
	WindowEnd   time.Time       `json:"window_end"`
	Status      ExceptionStatus `json:"status"`
	Reason      string          `json:"reason"`
	RequestedBy string          `json:"requested_by"`
	ReviewedBy  *string         `json:"reviewed_by"`
	ReviewedAt  *time.Time      `json:"reviewed_at"`
	ExpiresAt   *time.Time      `json:"expires_at"`
	ConsumedAt  *time.Time      `json:"consumed_at"`
	CreatedAt   time.Time       `json:"created_at"`
}

func ToExceptionResponse(e Exception) ExceptionResponse {
	return ExceptionResponse(e)
}
