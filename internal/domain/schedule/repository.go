package schedule

import (
	"context"
	"time"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/timerange"
)

type ShiftRepository interface {
	Create(ctx context.Context, s Shift) error
	GetByID(ctx context.Context, id, companyID string) (Shift, error)
	Update(ctx context.Context, s Shift) error
	Delete(ctx context.Context, id, companyID string) error

	// ListByCompany returns the company's shifts overlapping r ordered by
	// start time.
	ListByCompany(ctx context.Context, companyID string, r timerange.Range) ([]Shift, error)
	// ListByEmployee returns the employee's shifts overlapping r ordered by
	// start time.
	ListByEmployee(ctx context.Context, employeeID string, r timerange.Range) ([]Shift, error)
	// HasOverlap reports whether the employee has another shift intersecting
	// [start, end). excludeID may be empty.
	HasOverlap(ctx context.Context, employeeID string, start, end time.Time, excludeID string) (bool, error)

	// LockCompany serialises schedule writers of one company until the
	// surrounding transaction ends.
	LockCompany(ctx context.Context, companyID string) error
	// PublishDrafts marks the company's draft shifts starting inside r as
	// published and returns how many moved.
	PublishDrafts(ctx context.Context, companyID string, r timerange.Range, at time.Time) (int64, error)
}

// VersionRepository stores one monotonic counter per (company, local day).
type VersionRepository interface {
	// Bump increments the counter of every listed day.
	Bump(ctx context.Context, companyID string, days []string) error
	// Sum returns the sum of the counters of the listed days.
	Sum(ctx context.Context, companyID string, days []string) (int64, error)
}
