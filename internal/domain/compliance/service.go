package compliance

import (
	"context"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/timerange"
)

type Service interface {
	// EvaluateEmployee evaluates one employee over a date range at the
	// given instant.
	EvaluateEmployee(ctx context.Context, req EvaluateRequest) (Result, error)
	// EvaluateCompany evaluates every active employee of a company.
	EvaluateCompany(ctx context.Context, req CompanyEvaluateRequest) (CompanyEvaluation, error)
	GetComplianceSummary(ctx context.Context, companyID string, dates timerange.Dates) (CompanyEvaluation, error)
}

type ExceptionService interface {
	RequestException(ctx context.Context, req CreateExceptionRequest) (Exception, error)
	ApproveException(ctx context.Context, req ReviewExceptionRequest) (Exception, error)
	RejectException(ctx context.Context, req ReviewExceptionRequest) (Exception, error)
	ListExceptions(ctx context.Context, companyID string, status *ExceptionStatus) ([]Exception, error)
	// ExpireStale runs the expiry transition and returns how many moved.
	ExpireStale(ctx context.Context) (int64, error)
}
