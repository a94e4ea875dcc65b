package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/handler/http/response"
)

// RequireCompany rejects tokens that are not bound to a company. Every
// ledger, schedule and compliance route is company scoped.
func RequireCompany(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := ClaimsFromContext(r.Context())
		if !ok || c.CompanyID == "" {
			response.HandleError(w, auth.ErrCompanyIDRequired)
			return
		}

		next.ServeHTTP(w, r)
	})
}
