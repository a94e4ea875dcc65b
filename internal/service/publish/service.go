package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/compliance"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/publish"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/policy"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/timerange"
	"github.com/google/uuid"
)

// maxAttempts bounds how often a publish re-evaluates when its inputs move
// between evaluation and the publish write.
const maxAttempts = 3

// errVersionMoved means the evaluation no longer matches what commit sees:
// the schedule version changed or an applied exception stopped applying.
var errVersionMoved = errors.New("schedule version moved")

type PublishServiceImpl struct {
	tx           database.Transactor
	compliance   compliance.Service
	schedules    schedule.Service
	shifts       schedule.ShiftRepository
	exceptions   compliance.ExceptionRepository
	publications publish.PublicationRepository
	policies     policy.Provider
	metrics      *metrics.Collector
	now          func() time.Time
}

func NewPublishService(
	tx database.Transactor,
	complianceService compliance.Service,
	schedules schedule.Service,
	shifts schedule.ShiftRepository,
	exceptions compliance.ExceptionRepository,
	publications publish.PublicationRepository,
	policies policy.Provider,
	collector *metrics.Collector,
) *PublishServiceImpl {
	return &PublishServiceImpl{
		tx:           tx,
		compliance:   complianceService,
		schedules:    schedules,
		shifts:       shifts,
		exceptions:   exceptions,
		publications: publications,
		policies:     policies,
		metrics:      collector,
		now:          time.Now,
	}
}

// WithClock replaces the default clock. It is meant for tests.
func (s *PublishServiceImpl) WithClock(now func() time.Time) *PublishServiceImpl {
	s.now = now
	return s
}

// EvaluateForPublish implements publish.Service.
func (s *PublishServiceImpl) EvaluateForPublish(ctx context.Context, companyID string, dates timerange.Dates) (publish.Evaluation, error) {
	if companyID == "" {
		return publish.Evaluation{}, publish.ErrCompanyIDRequired
	}
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		eval, err := s.evaluate(ctx, companyID, dates)
		if errors.Is(err, errVersionMoved) {
			continue
		}
		return eval, err
	}
	return publish.Evaluation{}, publish.ErrScheduleBusy
}

// evaluate reads the version on both sides of the rule run so the
// fingerprint never pairs a summary with a version it was not computed at.
func (s *PublishServiceImpl) evaluate(ctx context.Context, companyID string, dates timerange.Dates) (publish.Evaluation, error) {
	before, err := s.schedules.RangeVersion(ctx, companyID, dates)
	if err != nil {
		return publish.Evaluation{}, err
	}

	res, err := s.compliance.EvaluateCompany(ctx, compliance.CompanyEvaluateRequest{
		CompanyID:   companyID,
		Dates:       dates,
		EvaluatedAt: s.now(),
	})
	if err != nil {
		return publish.Evaluation{}, err
	}

	after, err := s.schedules.RangeVersion(ctx, companyID, dates)
	if err != nil {
		return publish.Evaluation{}, err
	}
	if after != before {
		return publish.Evaluation{}, errVersionMoved
	}

	return publish.Evaluation{
		CompanyID:           companyID,
		Dates:               dates,
		ScheduleVersion:     after,
		Summary:             res.Summary,
		Fingerprint:         publish.Fingerprint(res.Summary, dates, after),
		EvaluatedAt:         res.EvaluatedAt,
		Findings:            res.Findings,
		AppliedExceptionIDs: res.AppliedExceptionIDs,
	}, nil
}

// Publish implements publish.Service.
func (s *PublishServiceImpl) Publish(ctx context.Context, req publish.PublishRequest) (publish.Publication, error) {
	if err := req.Validate(); err != nil {
		return publish.Publication{}, err
	}
	if req.CompanyID == "" {
		return publish.Publication{}, publish.ErrCompanyIDRequired
	}
	dates, err := timerange.ParseDates(req.StartDate, req.EndDate)
	if err != nil {
		return publish.Publication{}, err
	}

	p, err := s.policies.PolicyFor(ctx, req.CompanyID)
	if err != nil {
		return publish.Publication{}, fmt.Errorf("failed to resolve company policy: %w", err)
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		eval, err := s.evaluate(ctx, req.CompanyID, dates)
		if errors.Is(err, errVersionMoved) {
			continue
		}
		if err != nil {
			return publish.Publication{}, err
		}

		if err := s.gate(eval, req.Acknowledgment); err != nil {
			return publish.Publication{}, err
		}

		pub, err := s.commit(ctx, req, eval, dates.In(p.Location()))
		if errors.Is(err, errVersionMoved) {
			slog.Info("publish inputs changed, re-evaluating",
				"company_id", req.CompanyID, "range", dates.String(), "attempt", attempt)
			continue
		}
		if err != nil {
			return publish.Publication{}, database.Classify(err)
		}

		s.metrics.Published()
		slog.Info("schedule published",
			"company_id", pub.CompanyID,
			"range", dates.String(),
			"schedule_version", pub.ScheduleVersion,
			"shifts", pub.ShiftsPublished,
			"with_acknowledged_warnings", pub.WithAcknowledgedWarnings,
		)
		return pub, nil
	}
	return publish.Publication{}, publish.ErrScheduleBusy
}

// gate decides whether eval may be published with ack.
func (s *PublishServiceImpl) gate(eval publish.Evaluation, ack *publish.Acknowledgment) error {
	if !eval.RequiresAcknowledgment() {
		return nil
	}
	if ack != nil && ack.Fingerprint == eval.Fingerprint {
		return nil
	}
	s.metrics.AcknowledgmentRequired()
	return &publish.AcknowledgmentRequiredError{
		Summary:     eval.Summary,
		Fingerprint: eval.Fingerprint,
		Stale:       ack != nil && ack.Fingerprint != "",
	}
}

// commit is the single atomic publish transition.
func (s *PublishServiceImpl) commit(ctx context.Context, req publish.PublishRequest, eval publish.Evaluation, r timerange.Range) (publish.Publication, error) {
	var pub publish.Publication
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.shifts.LockCompany(txCtx, req.CompanyID); err != nil {
			return fmt.Errorf("failed to lock company schedule: %w", err)
		}
		version, err := s.schedules.RangeVersion(txCtx, req.CompanyID, eval.Dates)
		if err != nil {
			return err
		}
		if version != eval.ScheduleVersion {
			return errVersionMoved
		}

		now := s.now().UTC()
		published, err := s.shifts.PublishDrafts(txCtx, req.CompanyID, r, now)
		if err != nil {
			return fmt.Errorf("failed to publish shifts: %w", err)
		}

		var consumed []string
		if len(eval.AppliedExceptionIDs) > 0 {
			preApprovals, err := s.checkApplied(txCtx, eval.AppliedExceptionIDs, now)
			if err != nil {
				return err
			}
			consumed, err = s.exceptions.Consume(txCtx, eval.AppliedExceptionIDs, now)
			if err != nil {
				return fmt.Errorf("failed to consume pre-approvals: %w", err)
			}
			if len(consumed) != preApprovals {
				return fmt.Errorf("pre-approval consumed concurrently: %w", errVersionMoved)
			}
		}

		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate publication id: %w", err)
		}
		pub = publish.Publication{
			ID:                       id.String(),
			CompanyID:                req.CompanyID,
			Dates:                    eval.Dates,
			ScheduleVersion:          eval.ScheduleVersion,
			Fingerprint:              eval.Fingerprint,
			Summary:                  eval.Summary,
			WithAcknowledgedWarnings: eval.RequiresAcknowledgment(),
			ShiftsPublished:          published,
			ConsumedExceptionIDs:     consumed,
			PublishedBy:              req.PublishedBy,
			PublishedAt:              now,
		}
		if err := s.publications.Create(txCtx, pub); err != nil {
			return fmt.Errorf("failed to record publication: %w", err)
		}
		return nil
	})
	return pub, err
}

// checkApplied confirms every exception the evaluation relied on still
// applies at, and counts the unconsumed pre-approvals among them. A
// pre-approval consumed by an earlier publication keeps covering.
func (s *PublishServiceImpl) checkApplied(ctx context.Context, ids []string, at time.Time) (int, error) {
	preApprovals := 0
	for _, id := range ids {
		e, err := s.exceptions.GetByID(ctx, id)
		if errors.Is(err, compliance.ErrExceptionNotFound) {
			return 0, fmt.Errorf("exception %s is gone: %w", id, errVersionMoved)
		}
		if err != nil {
			return 0, fmt.Errorf("failed to load exception: %w", err)
		}
		if e.Status != compliance.ExceptionApproved || e.ExpiredAt(at) {
			return 0, fmt.Errorf("exception %s no longer applies: %w", id, errVersionMoved)
		}
		if e.Kind == compliance.ExceptionPreApproval && e.ConsumedAt == nil {
			preApprovals++
		}
	}
	return preApprovals, nil
}

// ListPublications implements publish.Service.
func (s *PublishServiceImpl) ListPublications(ctx context.Context, companyID string) ([]publish.Publication, error) {
	if companyID == "" {
		return nil, publish.ErrCompanyIDRequired
	}
	list, err := s.publications.ListByCompany(ctx, companyID, 50)
	if err != nil {
		return nil, database.Classify(fmt.Errorf("failed to list publications: %w", err))
	}
	return list, nil
}
