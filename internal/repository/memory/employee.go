package memory

import (
	"context"
	"sort"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/employee"
)

type EmployeeRepository struct {
	store *Store
}

func NewEmployeeRepository(store *Store) *EmployeeRepository {
	return &EmployeeRepository{store: store}
}

// GetByID implements employee.EmployeeRepository.
func (r *EmployeeRepository) GetByID(_ context.Context, id string) (employee.Employee, error) {
	var (
		e  employee.Employee
		ok bool
	)
	r.store.read(func(d *state) {
		e, ok = d.employees[id]
	})
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

// GetByUserID implements employee.EmployeeRepository.
func (r *EmployeeRepository) GetByUserID(_ context.Context, userID string) (employee.Employee, error) {
	var (
		found employee.Employee
		ok    bool
	)
	r.store.read(func(d *state) {
		for _, e := range d.employees {
			if e.UserID != nil && *e.UserID == userID {
				found, ok = e, true
				return
			}
		}
	})
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return found, nil
}

// GetActiveByCompanyID implements employee.EmployeeRepository.
func (r *EmployeeRepository) GetActiveByCompanyID(_ context.Context, companyID string) ([]employee.Employee, error) {
	var out []employee.Employee
	r.store.read(func(d *state) {
		for _, e := range d.employees {
			if e.CompanyID == companyID && e.IsActive() {
				out = append(out, e)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListCompanyIDs implements employee.EmployeeRepository.
func (r *EmployeeRepository) ListCompanyIDs(_ context.Context) ([]string, error) {
	seen := map[string]bool{}
	var ids []string
	r.store.read(func(d *state) {
		for _, e := range d.employees {
			if !seen[e.CompanyID] {
				seen[e.CompanyID] = true
				ids = append(ids, e.CompanyID)
			}
		}
	})
	sort.Strings(ids)
	return ids, nil
}

// Save implements employee.EmployeeRepository.
func (r *EmployeeRepository) Save(ctx context.Context, e employee.Employee) error {
	return r.store.write(ctx, func(d *state) error {
		d.employees[e.ID] = e
		return nil
	})
}
