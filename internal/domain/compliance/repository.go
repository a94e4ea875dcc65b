package compliance

import (
	"context"
	"time"
)

type ExceptionRepository interface {
	Create(ctx context.Context, e Exception) error
	GetByID(ctx context.Context, id string) (Exception, error)
	// ListForEmployee returns the employee's exceptions whose window
	// overlaps [from, to).
	ListForEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]Exception, error)
	ListByCompany(ctx context.Context, companyID string, status *ExceptionStatus) ([]Exception, error)
	// Review stores a state transition. It only applies when the stored
	// status still equals from, and returns ErrExceptionNotPending otherwise.
	Review(ctx context.Context, e Exception, from ExceptionStatus) error
	// Consume stamps the approved, unconsumed pre-approvals among ids as
	// consumed at at and returns their ids. Waivers are never consumed.
	Consume(ctx context.Context, ids []string, at time.Time) ([]string, error)
	// ExpireStale moves pending exceptions and unconsumed approved
	// pre-approvals whose ExpiresAt passed to expired.
	ExpireStale(ctx context.Context, at time.Time) (int64, error)
}
