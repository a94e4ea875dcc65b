package workperiod

import (
	"context"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/timerange"
)

type Service interface {
	// BuildPeriods returns the corrected periods of one employee that
	// overlap r. A broken chain is returned as an error, never as periods.
	BuildPeriods(ctx context.Context, employeeID string, r timerange.Range) ([]WorkPeriod, error)

	RequestCorrection(ctx context.Context, req CorrectionRequest) (Correction, error)
	ApproveCorrection(ctx context.Context, req ReviewRequest) (Correction, error)
	RejectCorrection(ctx context.Context, req ReviewRequest) (Correction, error)
	ListCorrections(ctx context.Context, employeeID string) ([]Correction, error)
}
