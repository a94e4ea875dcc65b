package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/app"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/config"
	appHTTP "github.com/cmlabs-hris/timeledger-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/cron"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/jwt"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	logger := appHTTP.NewLogger(os.Stdout, cfg.SlogLevel(), cfg.App.Env, version)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	scheduler := cron.NewScheduler()
	cron.NewComplianceJobs(svc.Compliance, svc.Exceptions, svc.Employees, svc.Policies, svc.Sink).
		RegisterJobs(scheduler, cfg.Compliance.ExpiryInterval, cfg.Compliance.SweepInterval)
	if svc.Queue != nil {
		cron.NewOfflineJobs(svc.Queue, svc.Ledger).RegisterJobs(scheduler, cfg.Offline.DrainInterval)
	}
	scheduler.Start()
	defer scheduler.Stop()

	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	router := appHTTP.NewRouter(appHTTP.RouterConfig{
		Logger:         logger,
		AllowedOrigins: cfg.App.CORSAllowedOrigins,
		JWTService:     jwtService,
		EmployeeRepo:   svc.Employees,
		Metrics:        svc.Metrics,
	}, appHTTP.Handlers{
		TimeEvent:    appHTTP.NewTimeEventHandler(svc.Ledger, svc.Employees, svc.Queue, svc.Metrics),
		WorkPeriod:   appHTTP.NewWorkPeriodHandler(svc.WorkPeriod, svc.Policies),
		Compliance:   appHTTP.NewComplianceHandler(svc.Compliance, svc.Exceptions, svc.Employees, svc.Policies),
		Schedule:     appHTTP.NewScheduleHandler(svc.Schedule),
		Publish:      appHTTP.NewPublishHandler(svc.Publish),
		Notification: appHTTP.NewNotificationHandler(svc.Hub, jwtService),
		Metrics:      appHTTP.NewMetricsHandler(svc.Metrics, svc.Hub, svc.Queue),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server running", "addr", srv.Addr, "storage", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
