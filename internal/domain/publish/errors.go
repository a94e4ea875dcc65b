package publish

import (
	"errors"
	"fmt"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/compliance"
)

var (
	// ErrAcknowledgmentRequired is matched by every *AcknowledgmentRequiredError.
	ErrAcknowledgmentRequired = errors.New("publish requires acknowledgment of compliance findings")
	// ErrStaleFingerprint is matched when the supplied fingerprint no longer
	// matches the current evaluation.
	ErrStaleFingerprint = errors.New("acknowledged fingerprint is stale")
	// ErrScheduleBusy means the schedule kept changing while publishing.
	ErrScheduleBusy = errors.New("schedule changed repeatedly during publish, try again")

	ErrCompanyIDRequired = errors.New("company ID is required")
)

// AcknowledgmentRequiredError carries the current evaluation a manager must
// acknowledge. Recover by re-acknowledging with Fingerprint; never by
// retrying the old fingerprint.
type AcknowledgmentRequiredError struct {
	Summary     compliance.Summary
	Fingerprint string
	Stale       bool
}

func (e *AcknowledgmentRequiredError) Error() string {
	if e.Stale {
		return fmt.Sprintf("%s: %d findings, supplied fingerprint is stale", ErrAcknowledgmentRequired, e.Summary.Total)
	}
	return fmt.Sprintf("%s: %d findings", ErrAcknowledgmentRequired, e.Summary.Total)
}

func (e *AcknowledgmentRequiredError) Is(target error) bool {
	return target == ErrAcknowledgmentRequired || (e.Stale && target == ErrStaleFingerprint)
}
