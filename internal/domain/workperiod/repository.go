package workperiod

import "context"

type CorrectionRepository interface {
	Create(ctx context.Context, c Correction) (Correction, error)
	GetByID(ctx context.Context, id string) (Correction, error)
	// ListApproved returns approved corrections of one employee ordered by
	// review time.
	ListApproved(ctx context.Context, employeeID string) ([]Correction, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]Correction, error)
	// Review moves a pending correction to approved or rejected. It returns
	// ErrCorrectionNotPending when the row was already reviewed.
	Review(ctx context.Context, c Correction) error
}
