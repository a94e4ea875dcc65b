package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/ledger"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/metrics"
	"github.com/google/uuid"
)

// DefaultMaxClockSkew is how far past the server clock an appended
// timestamp may lie.
const DefaultMaxClockSkew = 5 * time.Minute

type LedgerServiceImpl struct {
	tx      database.Transactor
	repo    ledger.Repository
	metrics *metrics.Collector
	locks   *employeeLocks
	now     func() time.Time
	maxSkew time.Duration
}

// Option customises a LedgerServiceImpl.
type Option func(*LedgerServiceImpl)

// WithClock overrides the clock used for default timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *LedgerServiceImpl) { s.now = now }
}

// WithMaxClockSkew bounds how far ahead of the clock a timestamp may be.
// Zero turns the bound off.
func WithMaxClockSkew(d time.Duration) Option {
	return func(s *LedgerServiceImpl) { s.maxSkew = d }
}

// WithMetrics attaches a metrics collector.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *LedgerServiceImpl) { s.metrics = c }
}

func NewLedgerService(tx database.Transactor, repo ledger.Repository, opts ...Option) ledger.Service {
	s := &LedgerServiceImpl{
		tx:    tx,
		repo:  repo,
		locks:   newEmployeeLocks(),
		now:     time.Now,
		maxSkew: DefaultMaxClockSkew,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append implements ledger.Service.
func (s *LedgerServiceImpl) Append(ctx context.Context, req ledger.AppendRequest) (ledger.TimeEvent, error) {
	if err := req.Validate(); err != nil {
		return ledger.TimeEvent{}, err
	}

	now := s.now()
	ts := now
	if req.Timestamp != nil {
		ts = *req.Timestamp
	}
	if err := s.checkSkew(ts, now); err != nil {
		return ledger.TimeEvent{}, err
	}
	source := req.Source
	if source == "" {
		source = ledger.SourceAPI
	}

	unlock := s.locks.Lock(req.EmployeeID)
	defer unlock()

	var appended ledger.TimeEvent
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		e, err := s.appendLocked(txCtx, req.EmployeeID, req.Kind, ts, source, now)
		appended = e
		return err
	})
	if err != nil {
		return ledger.TimeEvent{}, s.appendFailed(req.EmployeeID, err)
	}

	s.metrics.Append()
	slog.Debug("time event appended",
		"employee_id", appended.EmployeeID,
		"event_id", appended.ID,
		"kind", appended.Kind,
		"sequence", appended.Sequence,
	)
	return appended, nil
}

// AppendBreak implements ledger.Service.
func (s *LedgerServiceImpl) AppendBreak(ctx context.Context, req ledger.BreakRequest) ([]ledger.TimeEvent, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	resumeAt := now
	if req.ResumeAt != nil {
		resumeAt = *req.ResumeAt
	}
	if !resumeAt.After(req.BreakStart) {
		return nil, ledger.ErrInvalidBreak
	}
	if err := s.checkSkew(resumeAt, now); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(req.EmployeeID)
	defer unlock()

	var events []ledger.TimeEvent
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		out, err := s.appendLocked(txCtx, req.EmployeeID, ledger.KindClockOut, req.BreakStart, ledger.SourceBreak, now)
		if err != nil {
			return err
		}
		in, err := s.appendLocked(txCtx, req.EmployeeID, ledger.KindClockIn, resumeAt, ledger.SourceBreak, now)
		if err != nil {
			return err
		}
		events = []ledger.TimeEvent{out, in}
		return nil
	})
	if err != nil {
		return nil, s.appendFailed(req.EmployeeID, err)
	}

	s.metrics.Append()
	s.metrics.Append()
	return events, nil
}

// checkSkew rejects timestamps more than maxSkew past now.
func (s *LedgerServiceImpl) checkSkew(ts, now time.Time) error {
	if s.maxSkew <= 0 || !ts.After(now.Add(s.maxSkew)) {
		return nil
	}
	return fmt.Errorf("%w: %s is more than %s past %s", ledger.ErrTimestampInFuture,
		ts.UTC().Format(time.RFC3339), s.maxSkew, now.UTC().Format(time.RFC3339))
}

// appendLocked runs inside the employee's append section and transaction.
func (s *LedgerServiceImpl) appendLocked(ctx context.Context, employeeID string, kind ledger.Kind, ts time.Time, source ledger.Source, now time.Time) (ledger.TimeEvent, error) {
	head, err := s.repo.LockHead(ctx, employeeID)
	if err != nil {
		return ledger.TimeEvent{}, fmt.Errorf("failed to lock chain head: %w", err)
	}

	if err := ledger.CheckNext(head, employeeID, kind, ts); err != nil {
		return ledger.TimeEvent{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return ledger.TimeEvent{}, fmt.Errorf("failed to generate event id: %w", err)
	}

	e := ledger.NewEvent(head, id.String(), employeeID, kind, ts, source, now)
	if err := s.repo.Append(ctx, e); err != nil {
		return ledger.TimeEvent{}, fmt.Errorf("failed to append time event: %w", err)
	}
	return e, nil
}

func (s *LedgerServiceImpl) appendFailed(employeeID string, err error) error {
	if errors.Is(err, ledger.ErrSequence) {
		s.metrics.SequenceRejected()
		slog.Info("time event rejected", "employee_id", employeeID, "error", err)
		return err
	}
	return database.Classify(err)
}

// VerifyChain implements ledger.Service.
func (s *LedgerServiceImpl) VerifyChain(ctx context.Context, employeeID string) (ledger.Verification, error) {
	snap, err := s.VerifiedSnapshot(ctx, employeeID)
	if err != nil {
		return ledger.Verification{EmployeeID: employeeID}, err
	}

	return ledger.Verification{
		EmployeeID: employeeID,
		Valid:      true,
		Length:     snap.Head.Length,
		HeadHash:   snap.Head.PreviousHash(),
	}, nil
}

// Snapshot implements ledger.Service.
func (s *LedgerServiceImpl) Snapshot(ctx context.Context, employeeID string) (ledger.Snapshot, error) {
	if employeeID == "" {
		return ledger.Snapshot{}, ledger.ErrEmployeeIDRequired
	}

	head, err := s.repo.Head(ctx, employeeID)
	if err != nil {
		return ledger.Snapshot{}, database.Classify(fmt.Errorf("failed to read chain head: %w", err))
	}

	events, err := s.repo.ListUpTo(ctx, employeeID, head.Length)
	if err != nil {
		return ledger.Snapshot{}, database.Classify(fmt.Errorf("failed to read chain: %w", err))
	}

	return ledger.Snapshot{Head: head, Events: events}, nil
}

// VerifiedSnapshot implements ledger.Service.
func (s *LedgerServiceImpl) VerifiedSnapshot(ctx context.Context, employeeID string) (ledger.Snapshot, error) {
	snap, err := s.Snapshot(ctx, employeeID)
	if err != nil {
		return ledger.Snapshot{}, err
	}

	if err := ledger.VerifySnapshot(employeeID, snap); err != nil {
		s.metrics.ChainBroken()
		slog.Error("time ledger integrity alarm", "employee_id", employeeID, "error", err)
		return ledger.Snapshot{}, err
	}
	return snap, nil
}
