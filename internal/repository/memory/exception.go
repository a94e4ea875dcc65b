package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/compliance"
)

type ExceptionRepository struct {
	store *Store
}

func NewExceptionRepository(store *Store) *ExceptionRepository {
	return &ExceptionRepository{store: store}
}

// Create implements compliance.ExceptionRepository.
func (r *ExceptionRepository) Create(ctx context.Context, e compliance.Exception) error {
	return r.store.write(ctx, func(d *state) error {
		d.exceptions[e.ID] = e
		return nil
	})
}

// GetByID implements compliance.ExceptionRepository.
func (r *ExceptionRepository) GetByID(_ context.Context, id string) (compliance.Exception, error) {
	var (
		e  compliance.Exception
		ok bool
	)
	r.store.read(func(d *state) {
		e, ok = d.exceptions[id]
	})
	if !ok {
		return compliance.Exception{}, compliance.ErrExceptionNotFound
	}
	return e, nil
}

// ListForEmployee implements compliance.ExceptionRepository.
func (r *ExceptionRepository) ListForEmployee(_ context.Context, employeeID string, from, to time.Time) ([]compliance.Exception, error) {
	var out []compliance.Exception
	r.store.read(func(d *state) {
		for _, e := range d.exceptions {
			if e.EmployeeID == employeeID && e.WindowStart.Before(to) && e.WindowEnd.After(from) {
				out = append(out, e)
			}
		}
	})
	sortExceptions(out)
	return out, nil
}

// ListByCompany implements compliance.ExceptionRepository.
func (r *ExceptionRepository) ListByCompany(_ context.Context, companyID string, status *compliance.ExceptionStatus) ([]compliance.Exception, error) {
	var out []compliance.Exception
	r.store.read(func(d *state) {
		for _, e := range d.exceptions {
			if e.CompanyID != companyID || (status != nil && e.Status != *status) {
				continue
			}
			out = append(out, e)
		}
	})
	sortExceptions(out)
	return out, nil
}

// Review implements compliance.ExceptionRepository.
func (r *ExceptionRepository) Review(ctx context.Context, e compliance.Exception, from compliance.ExceptionStatus) error {
	return r.store.write(ctx, func(d *state) error {
		current, ok := d.exceptions[e.ID]
		if !ok {
			return compliance.ErrExceptionNotFound
		}
		if current.Status != from {
			return compliance.ErrExceptionNotPending
		}
		d.exceptions[e.ID] = e
		return nil
	})
}

// Consume implements compliance.ExceptionRepository.
func (r *ExceptionRepository) Consume(ctx context.Context, ids []string, at time.Time) ([]string, error) {
	var consumed []string
	err := r.store.write(ctx, func(d *state) error {
		for _, id := range ids {
			e, ok := d.exceptions[id]
			if !ok || e.Kind != compliance.ExceptionPreApproval ||
				e.Status != compliance.ExceptionApproved || e.ConsumedAt != nil {
				continue
			}
			ts := at
			e.ConsumedAt = &ts
			d.exceptions[id] = e
			consumed = append(consumed, id)
		}
		return nil
	})
	sort.Strings(consumed)
	return consumed, err
}

// ExpireStale implements compliance.ExceptionRepository.
func (r *ExceptionRepository) ExpireStale(ctx context.Context, at time.Time) (int64, error) {
	var n int64
	err := r.store.write(ctx, func(d *state) error {
		for id, e := range d.exceptions {
			if e.ExpiresAt == nil || at.Before(*e.ExpiresAt) {
				continue
			}
			stale := e.Status == compliance.ExceptionPending ||
				(e.Status == compliance.ExceptionApproved && e.Kind == compliance.ExceptionPreApproval && e.ConsumedAt == nil)
			if !stale {
				continue
			}
			e.Status = compliance.ExceptionExpired
			d.exceptions[id] = e
			n++
		}
		return nil
	})
	return n, err
}

func sortExceptions(list []compliance.Exception) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].WindowStart.Equal(list[j].WindowStart) {
			return list[i].WindowStart.Before(list[j].WindowStart)
		}
		return list[i].ID < list[j].ID
	})
}
