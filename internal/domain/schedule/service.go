package schedule

import (
	"context"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/timerange"
)

type Service interface {
	CreateShift(ctx context.Context, req CreateShiftRequest) (Shift, error)
	// UpdateShift changes times or reassigns a shift. A published shift
	// returns to draft.
	UpdateShift(ctx context.Context, req UpdateShiftRequest) (Shift, error)
	DeleteShift(ctx context.Context, id, companyID string) error
	ListShifts(ctx context.Context, filter ShiftFilter) ([]Shift, error)

	// EmployeeShifts returns one employee's shifts overlapping r.
	EmployeeShifts(ctx context.Context, employeeID string, r timerange.Range) ([]Shift, error)

	// RangeVersion returns the schedule version of a company date range. It
	// grows on every shift mutation touching one of the range's days.
	RangeVersion(ctx context.Context, companyID string, dates timerange.Dates) (int64, error)
}
