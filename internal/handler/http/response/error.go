package response

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/compliance"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/ledger"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/publish"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/workperiod"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/timerange"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	// Ledger
	var seqErr *ledger.SequenceError
	if errors.As(err, &seqErr) {
		ConflictWithCode(w, CodeSequenceError, seqErr.Error(), map[string]string{
			"employee_id": seqErr.EmployeeID,
			"kind":        string(seqErr.Kind),
			"reason":      string(seqErr.Reason),
		}, nil)
		return
	}
	var chainErr *ledger.ChainBrokenError
	if errors.As(err, &chainErr) {
		slog.Error("hash chain integrity alarm",
			"employee_id", chainErr.EmployeeID,
			"event_id", chainErr.EventID,
			"sequence", chainErr.Sequence,
			"reason", chainErr.Reason,
		)
		ConflictWithCode(w, CodeChainBroken, "Time ledger integrity check failed", map[string]string{
			"employee_id": chainErr.EmployeeID,
			"event_id":    chainErr.EventID,
			"sequence":    strconv.FormatInt(chainErr.Sequence, 10),
			"reason":      chainErr.Reason,
		}, nil)
		return
	}

	// Publish gate
	var ackErr *publish.AcknowledgmentRequiredError
	if errors.As(err, &ackErr) {
		message := "Compliance findings must be acknowledged before publishing"
		if ackErr.Stale {
			message = "Acknowledged findings are stale, review the current evaluation"
		}
		ConflictWithCode(w, CodeAcknowledgmentRequired, message, nil, map[string]interface{}{
			"summary":     ackErr.Summary,
			"fingerprint": ackErr.Fingerprint,
			"stale":       ackErr.Stale,
		})
		return
	}

	switch {
	case errors.Is(err, database.ErrStorageUnavailable):
		slog.Warn("storage unavailable", "error", err)
		ServiceUnavailable(w, "Storage is temporarily unavailable, retry shortly")

	// Auth
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, err.Error())
	case errors.Is(err, auth.ErrManagerAccessRequired),
		errors.Is(err, auth.ErrCompanyIDRequired),
		errors.Is(err, auth.ErrEmployeeAccessDenied):
		Forbidden(w, err.Error())

	// Not found
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, ledger.ErrEventNotFound):
		NotFound(w, "Time event not found")
	case errors.Is(err, workperiod.ErrCorrectionNotFound):
		NotFound(w, "Correction not found")
	case errors.Is(err, workperiod.ErrPeriodNotFound):
		NotFound(w, err.Error())
	case errors.Is(err, compliance.ErrExceptionNotFound):
		NotFound(w, "Compliance exception not found")
	case errors.Is(err, schedule.ErrShiftNotFound):
		NotFound(w, "Shift not found")

	// State conflicts
	case errors.Is(err, workperiod.ErrCorrectionNotPending):
		Conflict(w, "Correction already reviewed")
	case errors.Is(err, compliance.ErrExceptionNotPending):
		Conflict(w, "Compliance exception is no longer pending")
	case errors.Is(err, schedule.ErrOverlappingShift):
		Conflict(w, err.Error())
	case errors.Is(err, publish.ErrScheduleBusy):
		Conflict(w, err.Error())

	// Input errors raised below request validation
	case errors.Is(err, timerange.ErrInvalidDate),
		errors.Is(err, timerange.ErrInvalidRange):
		ValidationError(w, map[string]string{"range": err.Error()})
	case errors.Is(err, ledger.ErrInvalidBreak):
		ValidationError(w, map[string]string{"resume_at": err.Error()})
	case errors.Is(err, ledger.ErrTimestampInFuture):
		ValidationError(w, map[string]string{"timestamp": err.Error()})
	case errors.Is(err, workperiod.ErrCorrectionInverted):
		ValidationError(w, map[string]string{"corrected_end": err.Error()})
	case errors.Is(err, workperiod.ErrNothingToCorrect):
		ValidationError(w, map[string]string{"corrected_start": err.Error()})
	case errors.Is(err, workperiod.ErrReasonRequired):
		ValidationError(w, map[string]string{"reason": err.Error()})
	case errors.Is(err, workperiod.ErrClockInEventIDRequired):
		ValidationError(w, map[string]string{"clock_in_event_id": err.Error()})
	case errors.Is(err, ledger.ErrEmployeeIDRequired),
		errors.Is(err, workperiod.ErrEmployeeIDRequired),
		errors.Is(err, compliance.ErrEmployeeIDRequired),
		errors.Is(err, schedule.ErrEmployeeIDRequired):
		ValidationError(w, map[string]string{"employee_id": err.Error()})
	case errors.Is(err, ledger.ErrInvalidKind),
		errors.Is(err, compliance.ErrInvalidKind):
		ValidationError(w, map[string]string{"kind": err.Error()})
	case errors.Is(err, compliance.ErrInvalidRuleType):
		ValidationError(w, map[string]string{"rule_type": err.Error()})
	case errors.Is(err, compliance.ErrInvalidWindow):
		ValidationError(w, map[string]string{"window_end": err.Error()})
	case errors.Is(err, compliance.ErrCompanyIDRequired),
		errors.Is(err, publish.ErrCompanyIDRequired):
		Forbidden(w, err.Error())

	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
