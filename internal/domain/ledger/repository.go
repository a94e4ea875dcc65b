package ledger

import (
	"context"
)

// Repository persists employee chains. Implementations never update or
// delete a stored TimeEvent.
type Repository interface {
	// LockHead returns the append cursor for employeeID and, inside a
	// transaction, holds the employee's append lock until commit.
	LockHead(ctx context.Context, employeeID string) (Head, error)

	// Append stores e and advances the employee's head in the same unit of
	// work. e.Sequence must be head.Length+1.
	Append(ctx context.Context, e TimeEvent) error

	// Head reads the append cursor without locking.
	Head(ctx context.Context, employeeID string) (Head, error)

	// ListUpTo returns events with sequence <= length in insertion order.
	ListUpTo(ctx context.Context, employeeID string, length int64) ([]TimeEvent, error)

	// ListEmployeeIDs returns every employee that has at least one event.
	ListEmployeeIDs(ctx context.Context) ([]string, error)
}
