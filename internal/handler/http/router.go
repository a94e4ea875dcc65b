package http

import (
	"io"
	"log/slog"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/metrics"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterConfig struct {
	Logger         *slog.Logger
	AllowedOrigins []string
	JWTService     jwt.Service
	EmployeeRepo   employee.EmployeeRepository
	Metrics        *metrics.Collector
}

type Handlers struct {
	TimeEvent    TimeEventHandler
	WorkPeriod   WorkPeriodHandler
	Compliance   ComplianceHandler
	Schedule     ScheduleHandler
	Publish      PublishHandler
	Notification NotificationHandler
	Metrics      MetricsHandler
}

func NewRouter(cfg RouterConfig, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		MaxAge:           300,
	}))

	if cfg.Logger != nil {
		r.Use(httplog.RequestLogger(cfg.Logger, &httplog.Options{
			Level:  slog.LevelInfo,
			Schema: httplog.SchemaECS,
		}))
	}

	r.Use(middleware.Metrics(cfg.Metrics))
	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		// SSE authenticates with a query token
		r.Get("/notifications/stream", h.Notification.Stream)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(cfg.JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(cfg.JWTService.JWTAuth()))
			r.Use(middleware.RequireCompany)

			r.Route("/time-events", func(r chi.Router) {
				r.Post("/", h.TimeEvent.Append)
				r.Post("/break", h.TimeEvent.AppendBreak)
			})

			r.Route("/employees/{employeeID}", func(r chi.Router) {
				r.Use(middleware.EmployeeScope(cfg.EmployeeRepo))

				r.Get("/time-events", h.TimeEvent.List)
				r.Get("/chain/verify", h.TimeEvent.VerifyChain)
				r.Get("/work-periods", h.WorkPeriod.List)
				r.Get("/findings", h.Compliance.EmployeeFindings)
				r.Get("/corrections", h.WorkPeriod.ListCorrections)
				r.Post("/corrections", h.WorkPeriod.RequestCorrection)
			})

			r.Route("/compliance", func(r chi.Router) {
				r.Post("/exceptions", h.Compliance.RequestException)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireManager)
					r.Get("/summary", h.Compliance.Summary)
					r.Get("/exceptions", h.Compliance.ListExceptions)
					r.Post("/exceptions/{id}/approve", h.Compliance.ApproveException)
					r.Post("/exceptions/{id}/reject", h.Compliance.RejectException)
				})
			})

			// Manager only
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireManager)

				r.Post("/corrections/{id}/approve", h.WorkPeriod.ApproveCorrection)
				r.Post("/corrections/{id}/reject", h.WorkPeriod.RejectCorrection)

				r.Route("/shifts", func(r chi.Router) {
					r.Get("/", h.Schedule.ListShifts)
					r.Post("/", h.Schedule.CreateShift)
					r.Put("/{id}", h.Schedule.UpdateShift)
					r.Delete("/{id}", h.Schedule.DeleteShift)
				})

				r.Route("/publish", func(r chi.Router) {
					r.Post("/evaluate", h.Publish.Evaluate)
					r.Post("/", h.Publish.Publish)
					r.Get("/publications", h.Publish.ListPublications)
				})

				r.Get("/notifications/token", h.Notification.GetSSEToken)
				r.Get("/metrics", h.Metrics.Get)
			})
		})
	})
	return r
}

// NewLogger builds the ECS-shaped JSON logger used for request logs.
func NewLogger(w io.Writer, level slog.Leveler, env, version string) *slog.Logger {
	logFormat := httplog.SchemaECS.Concise(env != "production")
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "timeledger"),
		slog.String("version", version),
		slog.String("env", env),
	)
}
