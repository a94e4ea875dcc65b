package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/policy"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/timerange"
	"github.com/google/uuid"
)

type scheduleServiceImpl struct {
	tx           database.Transactor
	shiftRepo    schedule.ShiftRepository
	versionRepo  schedule.VersionRepository
	employeeRepo employee.EmployeeRepository
	policies     policy.Provider
	now          func() time.Time
}

func NewScheduleService(
	tx database.Transactor,
	shiftRepo schedule.ShiftRepository,
	versionRepo schedule.VersionRepository,
	employeeRepo employee.EmployeeRepository,
	policies policy.Provider,
) schedule.Service {
	return &scheduleServiceImpl{
		tx:           tx,
		shiftRepo:    shiftRepo,
		versionRepo:  versionRepo,
		employeeRepo: employeeRepo,
		policies:     policies,
		now:          time.Now,
	}
}

// CreateShift implements schedule.Service.
func (s *scheduleServiceImpl) CreateShift(ctx context.Context, req schedule.CreateShiftRequest) (schedule.Shift, error) {
	if err := req.Validate(); err != nil {
		return schedule.Shift{}, err
	}
	if err := s.checkEmployee(ctx, req.EmployeeID, req.CompanyID); err != nil {
		return schedule.Shift{}, err
	}

	loc, err := s.location(ctx, req.CompanyID)
	if err != nil {
		return schedule.Shift{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return schedule.Shift{}, fmt.Errorf("failed to generate shift id: %w", err)
	}
	now := s.now().UTC()
	shift := schedule.Shift{
		ID:         id.String(),
		CompanyID:  req.CompanyID,
		EmployeeID: req.EmployeeID,
		StartTime:  req.StartTime.UTC(),
		EndTime:    req.EndTime.UTC(),
		Status:     schedule.ShiftStatusDraft,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.shiftRepo.LockCompany(txCtx, shift.CompanyID); err != nil {
			return fmt.Errorf("failed to lock company schedule: %w", err)
		}
		overlap, err := s.shiftRepo.HasOverlap(txCtx, shift.EmployeeID, shift.StartTime, shift.EndTime, "")
		if err != nil {
			return fmt.Errorf("failed to check overlapping shifts: %w", err)
		}
		if overlap {
			return schedule.ErrOverlappingShift
		}
		if err := s.shiftRepo.Create(txCtx, shift); err != nil {
			return fmt.Errorf("failed to create shift: %w", err)
		}
		return s.bump(txCtx, shift.CompanyID, loc, shift)
	})
	if err != nil {
		return schedule.Shift{}, database.Classify(err)
	}

	slog.Info("shift created", "shift_id", shift.ID, "company_id", shift.CompanyID, "employee_id", shift.EmployeeID)
	return shift, nil
}

// UpdateShift implements schedule.Service.
func (s *scheduleServiceImpl) UpdateShift(ctx context.Context, req schedule.UpdateShiftRequest) (schedule.Shift, error) {
	if err := req.Validate(); err != nil {
		return schedule.Shift{}, err
	}
	if req.EmployeeID != nil {
		if err := s.checkEmployee(ctx, *req.EmployeeID, req.CompanyID); err != nil {
			return schedule.Shift{}, err
		}
	}

	loc, err := s.location(ctx, req.CompanyID)
	if err != nil {
		return schedule.Shift{}, err
	}

	var updated schedule.Shift
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.shiftRepo.LockCompany(txCtx, req.CompanyID); err != nil {
			return fmt.Errorf("failed to lock company schedule: %w", err)
		}
		current, err := s.shiftRepo.GetByID(txCtx, req.ID, req.CompanyID)
		if err != nil {
			return err
		}

		next := req.Apply(current)
		if err := schedule.ValidateInterval(next.StartTime, next.EndTime); err != nil {
			return err
		}
		overlap, err := s.shiftRepo.HasOverlap(txCtx, next.EmployeeID, next.StartTime, next.EndTime, next.ID)
		if err != nil {
			return fmt.Errorf("failed to check overlapping shifts: %w", err)
		}
		if overlap {
			return schedule.ErrOverlappingShift
		}

		next.Status = schedule.ShiftStatusDraft
		next.PublishedAt = nil
		next.UpdatedAt = s.now().UTC()
		if err := s.shiftRepo.Update(txCtx, next); err != nil {
			return fmt.Errorf("failed to update shift: %w", err)
		}
		if err := s.bump(txCtx, req.CompanyID, loc, current, next); err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		return schedule.Shift{}, database.Classify(err)
	}
	return updated, nil
}

// DeleteShift implements schedule.Service.
func (s *scheduleServiceImpl) DeleteShift(ctx context.Context, id, companyID string) error {
	loc, err := s.location(ctx, companyID)
	if err != nil {
		return err
	}

	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.shiftRepo.LockCompany(txCtx, companyID); err != nil {
			return fmt.Errorf("failed to lock company schedule: %w", err)
		}
		current, err := s.shiftRepo.GetByID(txCtx, id, companyID)
		if err != nil {
			return err
		}
		if err := s.shiftRepo.Delete(txCtx, id, companyID); err != nil {
			return fmt.Errorf("failed to delete shift: %w", err)
		}
		return s.bump(txCtx, companyID, loc, current)
	})
	return database.Classify(err)
}

// ListShifts implements schedule.Service.
func (s *scheduleServiceImpl) ListShifts(ctx context.Context, filter schedule.ShiftFilter) ([]schedule.Shift, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	dates, err := timerange.ParseDates(filter.StartDate, filter.EndDate)
	if err != nil {
		return nil, err
	}
	loc, err := s.location(ctx, filter.CompanyID)
	if err != nil {
		return nil, err
	}

	var shifts []schedule.Shift
	if filter.EmployeeID != "" {
		shifts, err = s.shiftRepo.ListByEmployee(ctx, filter.EmployeeID, dates.In(loc))
	} else {
		shifts, err = s.shiftRepo.ListByCompany(ctx, filter.CompanyID, dates.In(loc))
	}
	if err != nil {
		return nil, database.Classify(fmt.Errorf("failed to list shifts: %w", err))
	}

	// ListByEmployee is not company scoped.
	kept := shifts[:0]
	for _, sh := range shifts {
		if sh.CompanyID == filter.CompanyID {
			kept = append(kept, sh)
		}
	}
	return kept, nil
}

// EmployeeShifts implements schedule.Service.
func (s *scheduleServiceImpl) EmployeeShifts(ctx context.Context, employeeID string, r timerange.Range) ([]schedule.Shift, error) {
	if employeeID == "" {
		return nil, schedule.ErrEmployeeIDRequired
	}
	shifts, err := s.shiftRepo.ListByEmployee(ctx, employeeID, r)
	if err != nil {
		return nil, database.Classify(fmt.Errorf("failed to list employee shifts: %w", err))
	}
	return shifts, nil
}

// RangeVersion implements schedule.Service.
func (s *scheduleServiceImpl) RangeVersion(ctx context.Context, companyID string, dates timerange.Dates) (int64, error) {
	v, err := s.versionRepo.Sum(ctx, companyID, dates.Days())
	if err != nil {
		return 0, database.Classify(fmt.Errorf("failed to read schedule version: %w", err))
	}
	return v, nil
}

// bump increments the version of every local day touched by the given
// shifts. It must run in the mutation's transaction.
func (s *scheduleServiceImpl) bump(ctx context.Context, companyID string, loc *time.Location, shifts ...schedule.Shift) error {
	seen := make(map[string]bool)
	var days []string
	for _, sh := range shifts {
		for _, d := range timerange.DaysOf(sh.StartTime, sh.EndTime, loc) {
			if !seen[d] {
				seen[d] = true
				days = append(days, d)
			}
		}
	}
	if err := s.versionRepo.Bump(ctx, companyID, days); err != nil {
		return fmt.Errorf("failed to bump schedule version: %w", err)
	}
	return nil
}

func (s *scheduleServiceImpl) checkEmployee(ctx context.Context, employeeID, companyID string) error {
	emp, err := s.employeeRepo.GetByID(ctx, employeeID)
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

func (s *scheduleServiceImpl) location(ctx context.Context, companyID string) (*time.Location, error) {
	p, err := s.policies.PolicyFor(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve company policy: %w", err)
	}
	return p.Location(), nil
}
