package middleware

import (
	"net/http"
	"time"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/metrics"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Metrics counts requests, server errors and latency.
func Metrics(c *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			c.Record(status, time.Since(start))
		})
	}
}
