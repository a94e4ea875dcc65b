package workperiod

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/ledger"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/workperiod"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/timerange"
	"github.com/google/uuid"
)

type WorkPeriodServiceImpl struct {
	tx          database.Transactor
	ledger      ledger.Service
	corrections workperiod.CorrectionRepository
	now         func() time.Time
}

func NewWorkPeriodService(tx database.Transactor, ledgerService ledger.Service, corrections workperiod.CorrectionRepository) *WorkPeriodServiceImpl {
	return &WorkPeriodServiceImpl{
		tx:          tx,
		ledger:      ledgerService,
		corrections: corrections,
		now:         time.Now,
	}
}

// WithClock replaces the review clock. It is meant for tests.
func (s *WorkPeriodServiceImpl) WithClock(now func() time.Time) *WorkPeriodServiceImpl {
	s.now = now
	return s
}

// BuildPeriods implements workperiod.Service.
func (s *WorkPeriodServiceImpl) BuildPeriods(ctx context.Context, employeeID string, r timerange.Range) ([]workperiod.WorkPeriod, error) {
	periods, err := s.allPeriods(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return workperiod.Within(periods, r), nil
}

// allPeriods pairs the whole verified chain so a period that started before
// the requested range is still matched with its clock-out.
func (s *WorkPeriodServiceImpl) allPeriods(ctx context.Context, employeeID string, pending ...workperiod.Correction) ([]workperiod.WorkPeriod, error) {
	if employeeID == "" {
		return nil, workperiod.ErrEmployeeIDRequired
	}

	snap, err := s.ledger.VerifiedSnapshot(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	corrections, err := s.corrections.ListApproved(ctx, employeeID)
	if err != nil {
		return nil, database.Classify(fmt.Errorf("failed to list approved corrections: %w", err))
	}
	corrections = append(corrections, pending...)

	return workperiod.ApplyCorrections(workperiod.Pair(snap.Events), corrections), nil
}

// RequestCorrection implements workperiod.Service.
func (s *WorkPeriodServiceImpl) RequestCorrection(ctx context.Context, req workperiod.CorrectionRequest) (workperiod.Correction, error) {
	if err := req.Validate(); err != nil {
		return workperiod.Correction{}, err
	}

	periods, err := s.allPeriods(ctx, req.EmployeeID)
	if err != nil {
		return workperiod.Correction{}, err
	}

	var target *workperiod.WorkPeriod
	for i := range periods {
		if periods[i].ClockInEventID == req.ClockInEventID {
			target = &periods[i]
			break
		}
	}
	if target == nil {
		return workperiod.Correction{}, workperiod.ErrPeriodNotFound
	}

	start := target.StartTime
	if req.CorrectedStart != nil {
		start = *req.CorrectedStart
	}
	end := target.EndTime
	if req.CorrectedEnd != nil {
		end = req.CorrectedEnd
	}
	if end != nil && !end.After(start) {
		return workperiod.Correction{}, workperiod.ErrCorrectionInverted
	}

	id, err := uuid.NewV7()
	if err != nil {
		return workperiod.Correction{}, fmt.Errorf("failed to generate correction id: %w", err)
	}

	c := workperiod.Correction{
		ID:             id.String(),
		EmployeeID:     req.EmployeeID,
		CompanyID:      req.CompanyID,
		ClockInEventID: req.ClockInEventID,
		CorrectedStart: utcPtr(req.CorrectedStart),
		CorrectedEnd:   utcPtr(req.CorrectedEnd),
		Reason:         req.Reason,
		Status:         workperiod.CorrectionPending,
		RequestedBy:    req.RequestedBy,
		CreatedAt:      s.now().UTC(),
	}

	created, err := s.corrections.Create(ctx, c)
	if err != nil {
		return workperiod.Correction{}, database.Classify(fmt.Errorf("failed to create correction: %w", err))
	}
	return created, nil
}

// ApproveCorrection implements workperiod.Service.
func (s *WorkPeriodServiceImpl) ApproveCorrection(ctx context.Context, req workperiod.ReviewRequest) (workperiod.Correction, error) {
	return s.review(ctx, req, workperiod.CorrectionApproved)
}

// RejectCorrection implements workperiod.Service.
func (s *WorkPeriodServiceImpl) RejectCorrection(ctx context.Context, req workperiod.ReviewRequest) (workperiod.Correction, error) {
	return s.review(ctx, req, workperiod.CorrectionRejected)
}

func (s *WorkPeriodServiceImpl) review(ctx context.Context, req workperiod.ReviewRequest, status workperiod.CorrectionStatus) (workperiod.Correction, error) {
	var reviewed workperiod.Correction
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		c, err := s.corrections.GetByID(txCtx, req.CorrectionID)
		if err != nil {
			return err
		}
		if req.CompanyID != "" && c.CompanyID != req.CompanyID {
			return workperiod.ErrCorrectionNotFound
		}
		if c.Status != workperiod.CorrectionPending {
			return workperiod.ErrCorrectionNotPending
		}

		at := s.now().UTC()
		reviewer := req.ReviewedBy
		c.Status = status
		c.ReviewedBy = &reviewer
		c.ReviewedAt = &at
		if status == workperiod.CorrectionRejected {
			c.RejectionReason = req.RejectionReason
		}
		if status == workperiod.CorrectionApproved {
			if err := s.checkOverlay(txCtx, c); err != nil {
				return err
			}
		}

		if err := s.corrections.Review(txCtx, c); err != nil {
			return err
		}
		reviewed = c
		return nil
	})
	if err != nil {
		return workperiod.Correction{}, database.Classify(err)
	}
	return reviewed, nil
}

// checkOverlay rebuilds c's period on top of the corrections already
// approved and rejects an approval that would leave it inverted.
func (s *WorkPeriodServiceImpl) checkOverlay(ctx context.Context, c workperiod.Correction) error {
	periods, err := s.allPeriods(ctx, c.EmployeeID, c)
	if err != nil {
		return err
	}
	for _, p := range periods {
		if p.ClockInEventID != c.ClockInEventID {
			continue
		}
		if p.EndTime != nil && !p.EndTime.After(p.StartTime) {
			return workperiod.ErrCorrectionInverted
		}
		return nil
	}
	return workperiod.ErrPeriodNotFound
}

// ListCorrections implements workperiod.Service.
func (s *WorkPeriodServiceImpl) ListCorrections(ctx context.Context, employeeID string) ([]workperiod.Correction, error) {
	if employeeID == "" {
		return nil, workperiod.ErrEmployeeIDRequired
	}
	corrections, err := s.corrections.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, database.Classify(fmt.Errorf("failed to list corrections: %w", err))
	}
	return corrections, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
