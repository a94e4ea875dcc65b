package memory

import (
	"context"
	"sort"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/workperiod"
)

type CorrectionRepository struct {
	store *Store
}

func NewCorrectionRepository(store *Store) *CorrectionRepository {
	return &CorrectionRepository{store: store}
}

// Create implements workperiod.CorrectionRepository.
func (r *CorrectionRepository) Create(ctx context.Context, c workperiod.Correction) (workperiod.Correction, error) {
	err := r.store.write(ctx, func(d *state) error {
		d.corrections[c.ID] = c
		return nil
	})
	return c, err
}

// GetByID implements workperiod.CorrectionRepository.
func (r *CorrectionRepository) GetByID(_ context.Context, id string) (workperiod.Correction, error) {
	var (
		c  workperiod.Correction
		ok bool
	)
	r.store.read(func(d *state) {
		c, ok = d.corrections[id]
	})
	if !ok {
		return workperiod.Correction{}, workperiod.ErrCorrectionNotFound
	}
	return c, nil
}

// ListApproved implements workperiod.CorrectionRepository.
func (r *CorrectionRepository) ListApproved(ctx context.Context, employeeID string) ([]workperiod.Correction, error) {
	all, _ := r.ListByEmployee(ctx, employeeID)
	var out []workperiod.Correction
	for _, c := range all {
		if c.Status == workperiod.CorrectionApproved {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ReviewedAt.Before(*out[j].ReviewedAt)
	})
	return out, nil
}

// ListByEmployee implements workperiod.CorrectionRepository.
func (r *CorrectionRepository) ListByEmployee(_ context.Context, employeeID string) ([]workperiod.Correction, error) {
	var out []workperiod.Correction
	r.store.read(func(d *state) {
		for _, c := range d.corrections {
			if c.EmployeeID == employeeID {
				out = append(out, c)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Review implements workperiod.CorrectionRepository.
func (r *CorrectionRepository) Review(ctx context.Context, c workperiod.Correction) error {
	return r.store.write(ctx, func(d *state) error {
		current, ok := d.corrections[c.ID]
		if !ok {
			return workperiod.ErrCorrectionNotFound
		}
		if current.Status != workperiod.CorrectionPending {
			return workperiod.ErrCorrectionNotPending
		}
		d.corrections[c.ID] = c
		return nil
	})
}
