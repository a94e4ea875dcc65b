package ledger

import (
	"context"
)

// Service is the caller-facing ledger contract.
type Service interface {
	// Append validates, links and durably stores one clock action.
	Append(ctx context.Context, req AppendRequest) (TimeEvent, error)

	// AppendBreak records a break as a clock-out at BreakStart followed by a
	// clock-in at ResumeAt, both or neither.
	AppendBreak(ctx context.Context, req BreakRequest) ([]TimeEvent, error)

	// VerifyChain recomputes an employee chain from a consistent snapshot.
	// A broken chain is returned as *ChainBrokenError.
	VerifyChain(ctx context.Context, employeeID string) (Verification, error)

	// Snapshot reads a fixed-length copy of the chain.
	Snapshot(ctx context.Context, employeeID string) (Snapshot, error)

	// VerifiedSnapshot reads a snapshot and verifies it before returning.
	VerifiedSnapshot(ctx context.Context, employeeID string) (Snapshot, error)
}
