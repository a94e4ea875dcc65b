package publish

import (
	"time"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/compliance"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/timerange"
)

// Evaluation is an ephemeral pre-publish snapshot. It is recomputed on every
// publish attempt and never trusted when sent back by a caller.
type Evaluation struct {
	CompanyID           string
	Dates               timerange.Dates
	ScheduleVersion     int64
	Summary             compliance.Summary
	Fingerprint         string
	EvaluatedAt         time.Time
	Findings            []compliance.Finding
	AppliedExceptionIDs []string
}

// RequiresAcknowledgment reports whether a publish needs a matching
// fingerprint.
func (e Evaluation) RequiresAcknowledgment() bool {
	return e.Summary.Total > 0
}

// Acknowledgment is a manager's confirmation of one specific evaluation.
type Acknowledgment struct {
	Fingerprint string `json:"fingerprint"`
}

// Publication records one successful publish, with the summary that was
// acknowledged.
type Publication struct {
	ID                       string
	CompanyID                string
	Dates                    timerange.Dates
	ScheduleVersion          int64
	Fingerprint              string
	Summary                  compliance.Summary
	WithAcknowledgedWarnings bool
	ShiftsPublished          int64
	ConsumedExceptionIDs     []string
	PublishedBy              string
	PublishedAt              time.Time
}
