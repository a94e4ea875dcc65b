package publish

import (
	"time"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/compliance"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/validator"
)

type EvaluateRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func (r *EvaluateRequest) Validate() error {
	var errs validator.ValidationErrors

	if _, ok := validator.IsValidDate(r.StartDate); !ok {
		errs = append(errs, validator.ValidationError{Field: "start_date", Message: "start_date must be YYYY-MM-DD"})
	}
	if _, ok := validator.IsValidDate(r.EndDate); !ok {
		errs = append(errs, validator.ValidationError{Field: "end_date", Message: "end_date must be YYYY-MM-DD"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type PublishRequest struct {
	CompanyID      string          `json:"-"`
	PublishedBy    string          `json:"-"`
	StartDate      string          `json:"start_date"`
	EndDate        string          `json:"end_date"`
	Acknowledgment *Acknowledgment `json:"acknowledgment,omitempty"`
}

func (r *PublishRequest) Validate() error {
	eval := EvaluateRequest{StartDate: r.StartDate, EndDate: r.EndDate}
	return eval.Validate()
}

type EvaluationResponse struct {
	CompanyID              string                       `json:"company_id"`
	StartDate              string                       `json:"start_date"`
	EndDate                string                       `json:"end_date"`
	ScheduleVersion        int64                        `json:"schedule_version"`
	Summary                compliance.Summary           `json:"summary"`
	Fingerprint            string                       `json:"fingerprint"`
	RequiresAcknowledgment bool                         `json:"requires_acknowledgment"`
	EvaluatedAt            time.Time                    `json:"evaluated_at"`
	Findings               []compliance.FindingResponse `json:"findings"`
}

func ToEvaluationResponse(e Evaluation) EvaluationResponse {
	return EvaluationResponse{
		CompanyID:              e.CompanyID,
		StartDate:              e.Dates.From,
		EndDate:                e.Dates.To,
		ScheduleVersion:        e.ScheduleVersion,
		Summary:                e.Summary,
		Fingerprint:            e.Fingerprint,
		RequiresAcknowledgment: e.RequiresAcknowledgment(),
		EvaluatedAt:            e.EvaluatedAt,
		Findings:               compliance.ToFindingResponses(e.Findings),
	}
}

type PublicationResponse struct {
	ID                       string             `json:"id"`
	CompanyID                string             `json:"company_id"`
	StartDate                string             `json:"start_date"`
	EndDate                  string             `json:"end_date"`
	ScheduleVersion          int64              `json:"schedule_version"`
	Fingerprint              string             `json:"fingerprint"`
	Summary                  compliance.Summary `json:"summary"`
	WithAcknowledgedWarnings bool               `json:"with_acknowledged_warnings"`
	ShiftsPublished          int64              `json:"shifts_published"`
	ConsumedExceptionIDs     []string           `json:"consumed_exception_ids"`
	PublishedBy              string             `json:"published_by"`
	PublishedAt              time.Time          `json:"published_at"`
}

func ToPublicationResponse(p Publication) PublicationResponse {
	return PublicationResponse{
		ID:                       p.ID,
		CompanyID:                p.CompanyID,
		StartDate:                p.Dates.From,
		EndDate:                  p.Dates.To,
		ScheduleVersion:          p.ScheduleVersion,
		Fingerprint:              p.Fingerprint,
		Summary:                  p.Summary,
		WithAcknowledgedWarnings: p.WithAcknowledgedWarnings,
		ShiftsPublished:          p.ShiftsPublished,
		ConsumedExceptionIDs:     p.ConsumedExceptionIDs,
		PublishedBy:              p.PublishedBy,
		PublishedAt:              p.PublishedAt,
	}
}
