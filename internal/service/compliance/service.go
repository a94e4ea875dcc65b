package compliance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/compliance"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/workperiod"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/policy"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/timerange"
)

type ComplianceServiceImpl struct {
	employees  employee.EmployeeRepository
	periods    workperiod.Service
	schedules  schedule.Service
	exceptions compliance.ExceptionRepository
	policies   policy.Provider
	metrics    *metrics.Collector
	now        func() time.Time
}

func NewComplianceService(
	employees employee.EmployeeRepository,
	periods workperiod.Service,
	schedules schedule.Service,
	exceptions compliance.ExceptionRepository,
	policies policy.Provider,
	collector *metrics.Collector,
) *ComplianceServiceImpl {
	return &ComplianceServiceImpl{
		employees:  employees,
		periods:    periods,
		schedules:  schedules,
		exceptions: exceptions,
		policies:   policies,
		metrics:    collector,
		now:        time.Now,
	}
}

// WithClock replaces the default evaluation clock. It is meant for tests.
func (s *ComplianceServiceImpl) WithClock(now func() time.Time) *ComplianceServiceImpl {
	s.now = now
	return s
}

// EvaluateEmployee implements compliance.Service.
func (s *ComplianceServiceImpl) EvaluateEmployee(ctx context.Context, req compliance.EvaluateRequest) (compliance.Result, error) {
	if req.EmployeeID == "" {
		return compliance.Result{}, compliance.ErrEmployeeIDRequired
	}
	at := req.EvaluatedAt
	if at.IsZero() {
		at = s.now()
	}

	p, err := s.policies.PolicyFor(ctx, req.CompanyID)
	if err != nil {
		return compliance.Result{}, fmt.Errorf("failed to resolve company policy: %w", err)
	}
	return s.evaluate(ctx, req.CompanyID, req.EmployeeID, req.Dates, p, at)
}

func (s *ComplianceServiceImpl) evaluate(ctx context.Context, companyID, employeeID string, dates timerange.Dates, p policy.Policy, at time.Time) (compliance.Result, error) {
	r := dates.In(p.Location())
	lookback := compliance.LookbackDays(p)
	scope := timerange.Range{
		Start: r.Start.AddDate(0, 0, -lookback),
		End:   r.End.AddDate(0, 0, lookback),
	}

	periods, err := s.periods.BuildPeriods(ctx, employeeID, scope)
	if err != nil {
		return compliance.Result{}, err
	}

	shifts, err := s.schedules.EmployeeShifts(ctx, employeeID, scope)
	if err != nil {
		return compliance.Result{}, err
	}
	for _, sh := range shifts {
		if sh.CompanyID != companyID || !sh.StartTime.After(at) {
			continue
		}
		periods = append(periods, workperiod.Planned(sh.ID, sh.EmployeeID, sh.StartTime, sh.EndTime))
	}

	exceptions, err := s.exceptions.ListForEmployee(ctx, employeeID, scope.Start, scope.End)
	if err != nil {
		return compliance.Result{}, database.Classify(fmt.Errorf("failed to list exceptions: %w", err))
	}

	return compliance.Evaluate(compliance.Input{
		EmployeeID:  employeeID,
		Range:       r,
		Periods:     periods,
		Exceptions:  exceptions,
		Policy:      p,
		EvaluatedAt: at,
	}), nil
}

// EvaluateCompany implements compliance.Service.
func (s *ComplianceServiceImpl) EvaluateCompany(ctx context.Context, req compliance.CompanyEvaluateRequest) (compliance.CompanyEvaluation, error) {
	if req.CompanyID == "" {
		return compliance.CompanyEvaluation{}, compliance.ErrCompanyIDRequired
	}
	at := req.EvaluatedAt
	if at.IsZero() {
		at = s.now()
	}

	p, err := s.policies.PolicyFor(ctx, req.CompanyID)
	if err != nil {
		return compliance.CompanyEvaluation{}, fmt.Errorf("failed to resolve company policy: %w", err)
	}

	emps, err := s.employees.GetActiveByCompanyID(ctx, req.CompanyID)
	if err != nil {
		return compliance.CompanyEvaluation{}, database.Classify(fmt.Errorf("failed to list employees: %w", err))
	}
	sort.Slice(emps, func(i, j int) bool { return emps[i].ID < emps[j].ID })

	out := compliance.CompanyEvaluation{
		CompanyID:   req.CompanyID,
		Dates:       req.Dates,
		EvaluatedAt: at,
	}
	applied := map[string]bool{}
	for _, emp := range emps {
		if err := ctx.Err(); err != nil {
			return compliance.CompanyEvaluation{}, err
		}
		res, err := s.evaluate(ctx, req.CompanyID, emp.ID, req.Dates, p, at)
		if err != nil {
			return compliance.CompanyEvaluation{}, fmt.Errorf("employee %s: %w", emp.ID, err)
		}
		out.Findings = append(out.Findings, res.Findings...)
		for _, id := range res.AppliedExceptionIDs {
			applied[id] = true
		}
	}
	for id := range applied {
		out.AppliedExceptionIDs = append(out.AppliedExceptionIDs, id)
	}
	sort.Strings(out.AppliedExceptionIDs)
	out.Summary = compliance.Summarize(out.Findings)

	s.metrics.Evaluation()
	slog.Debug("compliance evaluated",
		"company_id", req.CompanyID,
		"range", req.Dates.String(),
		"employees", len(emps),
		"findings", out.Summary.Total,
		"waived", out.Summary.Waived,
	)
	return out, nil
}

// GetComplianceSummary implements compliance.Service.
func (s *ComplianceServiceImpl) GetComplianceSummary(ctx context.Context, companyID string, dates timerange.Dates) (compliance.CompanyEvaluation, error) {
	return s.EvaluateCompany(ctx, compliance.CompanyEvaluateRequest{CompanyID: companyID, Dates: dates})
}

// ensureEmployee checks that employeeID belongs to companyID.
func ensureEmployee(ctx context.Context, repo employee.EmployeeRepository, employeeID, companyID string) error {
	emp, err := repo.GetByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return err
		}
		return database.Classify(fmt.Errorf("failed to get employee: %w", err))
	}
	if emp.CompanyID != companyID {
		return employee.ErrEmployeeNotFound
	}
	return nil
}
