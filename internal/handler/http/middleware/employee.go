package middleware

import (
	"context"
	"net/http"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

// AuthorizeEmployee checks that the caller may act for employeeID. An
// employee may only act for themself, which needs no storage round trip so
// clock actions keep working while the database is down. Managers may act
// for employees of their own company.
func AuthorizeEmployee(ctx context.Context, employees employee.EmployeeRepository, employeeID string) error {
	c, ok := ClaimsFromContext(ctx)
	if !ok {
		return auth.ErrInvalidToken
	}
	if c.CanActFor(employeeID) {
		return nil
	}
	if !c.Role.IsManager() {
		return auth.ErrEmployeeAccessDenied
	}

	emp, err := employees.GetByID(ctx, employeeID)
	if err != nil {
		return err
	}
	if emp.CompanyID != c.CompanyID {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

// EmployeeScope authorizes the {employeeID} URL parameter.
func EmployeeScope(employees employee.EmployeeRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := AuthorizeEmployee(r.Context(), employees, chi.URLParam(r, "employeeID")); err != nil {
				response.HandleError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
