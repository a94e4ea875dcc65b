package compliance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/compliance"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/database"
	"github.com/google/uuid"
)

// DefaultExceptionTTL bounds how long a request may stay pending and how
// long an approved pre-approval may stay unconsumed.
const DefaultExceptionTTL = 24 * time.Hour

type ExceptionServiceImpl struct {
	tx        database.Transactor
	repo      compliance.ExceptionRepository
	employees employee.EmployeeRepository
	ttl       time.Duration
	now       func() time.Time
}

func NewExceptionService(tx database.Transactor, repo compliance.ExceptionRepository, employees employee.EmployeeRepository, ttl time.Duration) *ExceptionServiceImpl {
	if ttl <= 0 {
		ttl = DefaultExceptionTTL
	}
	return &ExceptionServiceImpl{
		tx:        tx,
		repo:      repo,
		employees: employees,
		ttl:       ttl,
		now:       time.Now,
	}
}

// WithClock replaces the default clock. It is meant for tests.
func (s *ExceptionServiceImpl) WithClock(now func() time.Time) *ExceptionServiceImpl {
	s.now = now
	return s
}

// RequestException implements compliance.ExceptionService.
func (s *ExceptionServiceImpl) RequestException(ctx context.Context, req compliance.CreateExceptionRequest) (compliance.Exception, error) {
	if err := req.Validate(); err != nil {
		return compliance.Exception{}, err
	}
	if err := ensureEmployee(ctx, s.employees, req.EmployeeID, req.CompanyID); err != nil {
		return compliance.Exception{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return compliance.Exception{}, fmt.Errorf("failed to generate exception id: %w", err)
	}
	now := s.now().UTC()
	expires := now.Add(s.ttl)
	e := compliance.Exception{
		ID:          id.String(),
		EmployeeID:  req.EmployeeID,
		CompanyID:   req.CompanyID,
		RuleType:    compliance.RuleType(req.RuleType),
		Kind:        compliance.ExceptionKind(req.Kind),
		WindowStart: req.WindowStart.UTC(),
		WindowEnd:   req.WindowEnd.UTC(),
		Status:      compliance.ExceptionPending,
		Reason:      req.Reason,
		RequestedBy: req.RequestedBy,
		ExpiresAt:   &expires,
		CreatedAt:   now,
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return compliance.Exception{}, database.Classify(fmt.Errorf("failed to create exception: %w", err))
	}
	return e, nil
}

// ApproveException implements compliance.ExceptionService.
func (s *ExceptionServiceImpl) ApproveException(ctx context.Context, req compliance.ReviewExceptionRequest) (compliance.Exception, error) {
	return s.review(ctx, req, compliance.ExceptionApproved)
}

// RejectException implements compliance.ExceptionService.
func (s *ExceptionServiceImpl) RejectException(ctx context.Context, req compliance.ReviewExceptionRequest) (compliance.Exception, error) {
	return s.review(ctx, req, compliance.ExceptionRejected)
}

func (s *ExceptionServiceImpl) review(ctx context.Context, req compliance.ReviewExceptionRequest, to compliance.ExceptionStatus) (compliance.Exception, error) {
	var reviewed compliance.Exception
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		e, err := s.repo.GetByID(txCtx, req.ExceptionID)
		if err != nil {
			return err
		}
		if req.CompanyID != "" && e.CompanyID != req.CompanyID {
			return compliance.ErrExceptionNotFound
		}

		now := s.now().UTC()
		if e.Status != compliance.ExceptionPending || e.ExpiredAt(now) {
			return compliance.ErrExceptionNotPending
		}

		reviewer := req.ReviewedBy
		e.Status = to
		e.ReviewedBy = &reviewer
		e.ReviewedAt = &now
		switch {
		case to == compliance.ExceptionApproved && e.Kind == compliance.ExceptionPreApproval:
			expires := now.Add(s.ttl)
			e.ExpiresAt = &expires
		case to == compliance.ExceptionApproved:
			e.ExpiresAt = nil
		}

		if err := s.repo.Review(txCtx, e, compliance.ExceptionPending); err != nil {
			return err
		}
		reviewed = e
		return nil
	})
	if err != nil {
		return compliance.Exception{}, database.Classify(err)
	}

	slog.Info("compliance exception reviewed",
		"exception_id", reviewed.ID,
		"status", reviewed.Status,
		"rule_type", reviewed.RuleType,
		"reviewed_by", req.ReviewedBy,
	)
	return reviewed, nil
}

// ListExceptions implements compliance.ExceptionService.
func (s *ExceptionServiceImpl) ListExceptions(ctx context.Context, companyID string, status *compliance.ExceptionStatus) ([]compliance.Exception, error) {
	if companyID == "" {
		return nil, compliance.ErrCompanyIDRequired
	}
	list, err := s.repo.ListByCompany(ctx, companyID, status)
	if err != nil {
		return nil, database.Classify(fmt.Errorf("failed to list exceptions: %w", err))
	}
	return list, nil
}

// ExpireStale implements compliance.ExceptionService.
func (s *ExceptionServiceImpl) ExpireStale(ctx context.Context) (int64, error) {
	n, err := s.repo.ExpireStale(ctx, s.now().UTC())
	if err != nil {
		return 0, database.Classify(fmt.Errorf("failed to expire exceptions: %w", err))
	}
	return n, nil
}
