package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/compliance"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/policy"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/timerange"
	"golang.org/x/sync/errgroup"
)

// sweepConcurrency bounds how many companies are evaluated at once.
const sweepConcurrency = 4

type ComplianceJobs struct {
	complianceSvc compliance.Service
	exceptionSvc  compliance.ExceptionService
	employeeRepo  employee.EmployeeRepository
	policies      policy.Provider
	sink          compliance.NotificationSink
	now           func() time.Time
}

func NewComplianceJobs(
	complianceSvc compliance.Service,
	exceptionSvc compliance.ExceptionService,
	employeeRepo employee.EmployeeRepository,
	policies policy.Provider,
	sink compliance.NotificationSink,
) *ComplianceJobs {
	return &ComplianceJobs{
		complianceSvc: complianceSvc,
		exceptionSvc:  exceptionSvc,
		employeeRepo:  employeeRepo,
		policies:      policies,
		sink:          sink,
		now:           time.Now,
	}
}

func (j *ComplianceJobs) RegisterJobs(scheduler *Scheduler, expiryInterval, sweepInterval time.Duration) {
	scheduler.AddJob("expire_compliance_exceptions", expiryInterval, j.ExpireExceptions)
	scheduler.AddJob("compliance_sweep", sweepInterval, j.SweepCurrentWeek)
}

func (j *ComplianceJobs) ExpireExceptions(ctx context.Context) error {
	n, err := j.exceptionSvc.ExpireStale(ctx)
	if err != nil {
		return fmt.Errorf("failed to expire exceptions: %w", err)
	}
	if n > 0 {
		slog.Info("Cron: compliance exceptions expired", "count", n)
	}
	return nil
}

// SweepCurrentWeek evaluates every company's current week and hands the
// findings to the sink. One company failing does not stop the others.
func (j *ComplianceJobs) SweepCurrentWeek(ctx context.Context) error {
	companyIDs, err := j.employeeRepo.ListCompanyIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list companies: %w", err)
	}

	now := j.now()
	errs := make([]error, len(companyIDs))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(sweepConcurrency)
	for i, companyID := range companyIDs {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			if err := j.sweepCompany(gCtx, companyID, now); err != nil {
				slog.Error("Cron: compliance sweep failed", "company_id", companyID, "error", err)
				errs[i] = fmt.Errorf("company %s: %w", companyID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return errors.Join(errs...)
}

func (j *ComplianceJobs) sweepCompany(ctx context.Context, companyID string, now time.Time) error {
	p, err := j.policies.PolicyFor(ctx, companyID)
	if err != nil {
		return err
	}
	week := timerange.WeekOf(now, p.Location())

	eval, err := j.complianceSvc.EvaluateCompany(ctx, compliance.CompanyEvaluateRequest{
		CompanyID:   companyID,
		Dates:       week,
		EvaluatedAt: now,
	})
	if err != nil {
		return err
	}

	slog.Info("Cron: compliance sweep",
		"company_id", companyID,
		"week", week.String(),
		"findings", eval.Summary.Total,
		"waived", eval.Summary.Waived,
	)
	return j.sink.Notify(ctx, compliance.Notification{
		CompanyID: companyID,
		Findings:  eval.Findings,
		Summary:   eval.Summary,
	})
}
