package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/timerange"
)

type ShiftRepository struct {
	store *Store
}

func NewShiftRepository(store *Store) *ShiftRepository {
	return &ShiftRepository{store: store}
}

// Create implements schedule.ShiftRepository.
func (r *ShiftRepository) Create(ctx context.Context, s schedule.Shift) error {
	return r.store.write(ctx, func(d *state) error {
		d.shifts[s.ID] = s
		return nil
	})
}

// GetByID implements schedule.ShiftRepository.
func (r *ShiftRepository) GetByID(_ context.Context, id, companyID string) (schedule.Shift, error) {
	var (
		s  schedule.Shift
		ok bool
	)
	r.store.read(func(d *state) {
		s, ok = d.shifts[id]
	})
	if !ok || s.CompanyID != companyID {
		return schedule.Shift{}, schedule.ErrShiftNotFound
	}
	return s, nil
}

// Update implements schedule.ShiftRepository.
func (r *ShiftRepository) Update(ctx context.Context, s schedule.Shift) error {
	return r.store.write(ctx, func(d *state) error {
		current, ok := d.shifts[s.ID]
		if !ok || current.CompanyID != s.CompanyID {
			return schedule.ErrShiftNotFound
		}
		d.shifts[s.ID] = s
		return nil
	})
}

// Delete implements schedule.ShiftRepository.
func (r *ShiftRepository) Delete(ctx context.Context, id, companyID string) error {
	return r.store.write(ctx, func(d *state) error {
		current, ok := d.shifts[id]
		if !ok || current.CompanyID != companyID {
			return schedule.ErrShiftNotFound
		}
		delete(d.shifts, id)
		return nil
	})
}

func (r *ShiftRepository) list(match func(schedule.Shift) bool) []schedule.Shift {
	var out []schedule.Shift
	r.store.read(func(d *state) {
		for _, s := range d.shifts {
			if match(s) {
				out = append(out, s)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ListByCompany implements schedule.ShiftRepository.
func (r *ShiftRepository) ListByCompany(_ context.Context, companyID string, rg timerange.Range) ([]schedule.Shift, error) {
	return r.list(func(s schedule.Shift) bool {
		return s.CompanyID == companyID && rg.Overlaps(s.StartTime, &s.EndTime)
	}), nil
}

// ListByEmployee implements schedule.ShiftRepository.
func (r *ShiftRepository) ListByEmployee(_ context.Context, employeeID string, rg timerange.Range) ([]schedule.Shift, error) {
	return r.list(func(s schedule.Shift) bool {
		return s.EmployeeID == employeeID && rg.Overlaps(s.StartTime, &s.EndTime)
	}), nil
}

// HasOverlap implements schedule.ShiftRepository.
func (r *ShiftRepository) HasOverlap(_ context.Context, employeeID string, start, end time.Time, excludeID string) (bool, error) {
	found := r.list(func(s schedule.Shift) bool {
		return s.EmployeeID == employeeID && s.ID != excludeID &&
			s.StartTime.Before(end) && s.EndTime.After(start)
	})
	return len(found) > 0, nil
}

// LockCompany implements schedule.ShiftRepository. The store already runs
// one unit of work at a time.
func (r *ShiftRepository) LockCompany(context.Context, string) error {
	return nil
}

// PublishDrafts implements schedule.ShiftRepository.
func (r *ShiftRepository) PublishDrafts(ctx context.Context, companyID string, rg timerange.Range, at time.Time) (int64, error) {
	var n int64
	err := r.store.write(ctx, func(d *state) error {
		for id, s := range d.shifts {
			if s.CompanyID != companyID || s.Status != schedule.ShiftStatusDraft {
				continue
			}
			if s.StartTime.Before(rg.Start) || !s.StartTime.Before(rg.End) {
				continue
			}
			ts := at
			s.Status = schedule.ShiftStatusPublished
			s.PublishedAt = &ts
			s.UpdatedAt = at
			d.shifts[id] = s
			n++
		}
		return nil
	})
	return n, err
}

type VersionRepository struct {
	store *Store
}

func NewVersionRepository(store *Store) *VersionRepository {
	return &VersionRepository{store: store}
}

func versionKey(companyID, day string) string {
	return companyID + "|" + day
}

// Bump implements schedule.VersionRepository.
func (r *VersionRepository) Bump(ctx context.Context, companyID string, days []string) error {
	return r.store.write(ctx, func(d *state) error {
		for _, day := range days {
			d.versions[versionKey(companyID, day)]++
		}
		return nil
	})
}

// Sum implements schedule.VersionRepository.
func (r *VersionRepository) Sum(_ context.Context, companyID string, days []string) (int64, error) {
	var total int64
	r.store.read(func(d *state) {
		for _, day := range days {
			total += d.versions[versionKey(companyID, day)]
		}
	})
	return total, nil
}
