package employee

import "context"

type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (Employee, error)
	GetByUserID(ctx context.Context, userID string) (Employee, error)
	GetActiveByCompanyID(ctx context.Context, companyID string) ([]Employee, error)
	ListCompanyIDs(ctx context.Context) ([]string, error)
	// Save inserts or replaces a directory entry. It backs the HR sync and
	// local seeding.
	Save(ctx context.Context, e Employee) error
}
