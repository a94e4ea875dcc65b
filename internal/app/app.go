// Package app assembles repositories and services from configuration. Both
// the HTTP server and ledgerctl build on it.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/config"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/compliance"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/ledger"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/publish"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/workperiod"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/offline"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/policy"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/repository/memory"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/repository/postgresql"
	complianceService "github.com/cmlabs-hris/timeledger-backend-go/internal/service/compliance"
	ledgerService "github.com/cmlabs-hris/timeledger-backend-go/internal/service/ledger"
	publishService "github.com/cmlabs-hris/timeledger-backend-go/internal/service/publish"
	scheduleService "github.com/cmlabs-hris/timeledger-backend-go/internal/service/schedule"
	workperiodService "github.com/cmlabs-hris/timeledger-backend-go/internal/service/workperiod"
)

type repositories struct {
	tx          database.Transactor
	ledger      ledger.Repository
	corrections workperiod.CorrectionRepository
	exceptions  compliance.ExceptionRepository
	shifts      schedule.ShiftRepository
	versions    schedule.VersionRepository
	pubs        publish.PublicationRepository
	employees   employee.EmployeeRepository
}

// Services is the wired application.
type Services struct {
	Config    *config.Config
	Policies  policy.Provider
	Metrics   *metrics.Collector
	Hub       *sse.Hub
	Queue     *offline.Queue // nil when OFFLINE_QUEUE_PATH is empty
	Employees employee.EmployeeRepository

	Ledger     ledger.Service
	WorkPeriod workperiod.Service
	Schedule   schedule.Service
	Compliance compliance.Service
	Exceptions compliance.ExceptionService
	Publish    publish.Service
	Sink       compliance.NotificationSink

	closers []func()
}

// New opens storage and the offline queue and wires every service.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Services, error) {
	policies, err := policy.LoadFile(cfg.Compliance.PolicyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load policy: %w", err)
	}

	s := &Services{
		Config:   cfg,
		Policies: policies,
		Metrics:  metrics.New(),
		Hub:      sse.NewHub(),
	}

	repos, err := s.openStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	if cfg.Offline.QueuePath != "" {
		q, err := offline.Open(cfg.Offline.QueuePath)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to open offline queue: %w", err)
		}
		s.Queue = q
		s.closers = append(s.closers, func() { q.Close() })
	}

	s.Employees = repos.employees
	s.Ledger = ledgerService.NewLedgerService(repos.tx, repos.ledger,
		ledgerService.WithMetrics(s.Metrics),
		ledgerService.WithMaxClockSkew(cfg.Ledger.MaxClockSkew),
	)
	s.WorkPeriod = workperiodService.NewWorkPeriodService(repos.tx, s.Ledger, repos.corrections)
	s.Schedule = scheduleService.NewScheduleService(repos.tx, repos.shifts, repos.versions, repos.employees, policies)
	s.Compliance = complianceService.NewComplianceService(repos.employees, s.WorkPeriod, s.Schedule, repos.exceptions, policies, s.Metrics)
	s.Exceptions = complianceService.NewExceptionService(repos.tx, repos.exceptions, repos.employees, cfg.Compliance.PreApprovalTTL)
	s.Publish = publishService.NewPublishService(repos.tx, s.Compliance, s.Schedule, repos.shifts, repos.exceptions, repos.pubs, policies, s.Metrics)
	s.Sink = compliance.MultiSink{
		complianceService.NewHubSink(s.Hub),
		complianceService.NewLogSink(logger),
	}

	return s, nil
}

func (s *Services) openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repositories, error) {
	switch cfg.Database.Driver {
	case config.StorageDriverMemory:
		store := memory.NewStore()
		employees := memory.NewEmployeeRepository(store)
		if cfg.Database.SeedFile != "" {
			n, err := SeedEmployees(ctx, employees, cfg.Database.SeedFile)
			if err != nil {
				return repositories{}, err
			}
			logger.Info("Seeded in-memory employees", "count", n, "file", cfg.Database.SeedFile)
		}
		logger.Warn("Using in-memory storage; data is lost on restart")
		return repositories{
			tx:          store,
			ledger:      memory.NewLedgerRepository(store),
			corrections: memory.NewCorrectionRepository(store),
			exceptions:  memory.NewExceptionRepository(store),
			shifts:      memory.NewShiftRepository(store),
			versions:    memory.NewVersionRepository(store),
			pubs:        memory.NewPublicationRepository(store),
			employees:   employees,
		}, nil

	default:
		db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolConfig{MaxConns: cfg.Database.MaxConns})
		if err != nil {
			return repositories{}, fmt.Errorf("failed to connect to database: %w", err)
		}
		s.closers = append(s.closers, db.Close)
		if err := postgresql.EnsureSchema(ctx, db); err != nil {
			s.Close()
			return repositories{}, err
		}
		return repositories{
			tx:          postgresql.NewTxManager(db),
			ledger:      postgresql.NewLedgerRepository(db),
			corrections: postgresql.NewCorrectionRepository(db),
			exceptions:  postgresql.NewExceptionRepository(db),
			shifts:      postgresql.NewShiftRepository(db),
			versions:    postgresql.NewVersionRepository(db),
			pubs:        postgresql.NewPublicationRepository(db),
			employees:   postgresql.NewEmployeeRepository(db),
		}, nil
	}
}

// Close releases the queue and the database pool, in reverse open order.
func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}
