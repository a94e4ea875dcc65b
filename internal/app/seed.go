package app

import (
	"context"
	"fmt"
	"os"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/employee"
	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Employees []struct {
		ID        string  `yaml:"id"`
		UserID    *string `yaml:"user_id"`
		CompanyID string  `yaml:"company_id"`
		Code      string  `yaml:"code"`
		FullName  string  `yaml:"full_name"`
		Status    string  `yaml:"status"`
	} `yaml:"employees"`
}

// SeedEmployees loads a YAML employee directory, e.g.
//
//	employees:
//	  - id: emp-1
//	    company_id: co-1
//	    full_name: Ana
func SeedEmployees(ctx context.Context, repo employee.EmployeeRepository, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read seed file: %w", err)
	}

	var doc seedFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return 0, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}

	for i, e := range doc.Employees {
		if e.ID == "" || e.CompanyID == "" {
			return i, fmt.Errorf("seed employee %d: id and company_id are required", i)
		}
		status := employee.EmploymentStatus(e.Status)
		if status == "" {
			status = employee.EmploymentStatusActive
		}
		if err := repo.Save(ctx, employee.Employee{
			ID:               e.ID,
			UserID:           e.UserID,
			CompanyID:        e.CompanyID,
			EmployeeCode:     e.Code,
			FullName:         e.FullName,
			EmploymentStatus: status,
		}); err != nil {
			return i, fmt.Errorf("failed to seed employee %s: %w", e.ID, err)
		}
	}
	return len(doc.Employees), nil
}
