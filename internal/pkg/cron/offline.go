package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/ledger"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/offline"
)

type OfflineJobs struct {
	queue     *offline.Queue
	ledgerSvc ledger.Service
}

func NewOfflineJobs(queue *offline.Queue, ledgerSvc ledger.Service) *OfflineJobs {
	return &OfflineJobs{queue: queue, ledgerSvc: ledgerSvc}
}

func (j *OfflineJobs) RegisterJobs(scheduler *Scheduler, interval time.Duration) {
	scheduler.AddJob("drain_offline_queue", interval, j.Drain)
}

// Drain replays buffered clock actions into the ledger.
func (j *OfflineJobs) Drain(ctx context.Context) error {
	res, err := j.Replay(ctx)
	if err != nil {
		return err
	}
	if res.Submitted > 0 || res.Failed > 0 || res.Stopped {
		slog.Info("Cron: offline queue drained",
			"submitted", res.Submitted,
			"failed", res.Failed,
			"storage_unavailable", res.Stopped,
		)
	}
	return nil
}

// Replay runs one drain pass and reports what happened.
func (j *OfflineJobs) Replay(ctx context.Context) (offline.DrainResult, error) {
	return j.queue.Drain(ctx, j.submit)
}

func (j *OfflineJobs) submit(ctx context.Context, a offline.Action) error {
	ts := a.Timestamp
	_, err := j.ledgerSvc.Append(ctx, ledger.AppendRequest{
		EmployeeID: a.EmployeeID,
		Kind:       ledger.Kind(a.Kind),
		Timestamp:  &ts,
		Source:     ledger.SourceOffline,
	})
	return err
}
