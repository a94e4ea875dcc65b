package postgresql

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/compliance"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type exceptionRepositoryImpl struct {
	db *database.DB
}

func NewExceptionRepository(db *database.DB) compliance.ExceptionRepository {
	return &exceptionRepositoryImpl{db: db}
}

const exceptionColumns = `
	id, employee_id, company_id, rule_type, kind, window_start, window_end, status,
	reason, requested_by, reviewed_by, reviewed_at, expires_at, consumed_at, created_at`

func scanException(row pgx.Row) (compliance.Exception, error) {
	var e compliance.Exception
	err := row.Scan(
		&e.ID, &e.EmployeeID, &e.CompanyID, &e.RuleType, &e.Kind, &e.WindowStart, &e.WindowEnd, &e.Status,
		&e.Reason, &e.RequestedBy, &e.ReviewedBy, &e.ReviewedAt, &e.ExpiresAt, &e.ConsumedAt, &e.CreatedAt,
	)
	if err != nil {
		return compliance.Exception{}, err
	}
	e.WindowStart = e.WindowStart.UTC()
	e.WindowEnd = e.WindowEnd.UTC()
	e.ReviewedAt = utcPtr(e.ReviewedAt)
	e.ExpiresAt = utcPtr(e.ExpiresAt)
	e.ConsumedAt = utcPtr(e.ConsumedAt)
	e.CreatedAt = e.CreatedAt.UTC()
	return e, nil
}

// Create implements compliance.ExceptionRepository.
func (r *exceptionRepositoryImpl) Create(ctx context.Context, e compliance.Exception) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO compliance_exceptions (` + exceptionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := q.Exec(ctx, query,
		e.ID, e.EmployeeID, e.CompanyID, e.RuleType, e.Kind, e.WindowStart, e.WindowEnd, e.Status,
		e.Reason, e.RequestedBy, e.ReviewedBy, e.ReviewedAt, e.ExpiresAt, e.ConsumedAt, e.CreatedAt,
	)
	return err
}

// GetByID implements compliance.ExceptionRepository.
func (r *exceptionRepositoryImpl) GetByID(ctx context.Context, id string) (compliance.Exception, error) {
	q := GetQuerier(ctx, r.db)

	e, err := scanException(q.QueryRow(ctx, `SELECT `+exceptionColumns+` FROM compliance_exceptions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return compliance.Exception{}, compliance.ErrExceptionNotFound
		}
		return compliance.Exception{}, err
	}
	return e, nil
}

// ListForEmployee implements compliance.ExceptionRepository.
func (r *exceptionRepositoryImpl) ListForEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]compliance.Exception, error) {
	return r.list(ctx, `
		SELECT `+exceptionColumns+`
		FROM compliance_exceptions
		WHERE employee_id = $1 AND window_start < $3 AND window_end > $2
		ORDER BY window_start, id
	`, employeeID, from, to)
}

// ListByCompany implements compliance.ExceptionRepository.
func (r *exceptionRepositoryImpl) ListByCompany(ctx context.Context, companyID string, status *compliance.ExceptionStatus) ([]compliance.Exception, error) {
	return r.list(ctx, `
		SELECT `+exceptionColumns+`
		FROM compliance_exceptions
		WHERE company_id = $1 AND ($2::text IS NULL OR status = $2)
		ORDER BY window_start, id
	`, companyID, status)
}

func (r *exceptionRepositoryImpl) list(ctx context.Context, query string, args ...any) ([]compliance.Exception, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []compliance.Exception
	for rows.Next() {
		e, err := scanException(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Review implements compliance.ExceptionRepository.
func (r *exceptionRepositoryImpl) Review(ctx context.Context, e compliance.Exception, from compliance.ExceptionStatus) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE compliance_exceptions
		SET status = $3, reviewed_by = $4, reviewed_at = $5, expires_at = $6
		WHERE id = $1 AND status = $2
	`
	tag, err := q.Exec(ctx, query, e.ID, from, e.Status, e.ReviewedBy, e.ReviewedAt, e.ExpiresAt)
	if err != nil {
		return fmt.Errorf("review exception %s: %w", e.ID, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	if _, err := r.GetByID(ctx, e.ID); err != nil {
		return err
	}
	return compliance.ErrExceptionNotPending
}

// Consume implements compliance.ExceptionRepository.
func (r *exceptionRepositoryImpl) Consume(ctx context.Context, ids []string, at time.Time) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE compliance_exceptions
		SET consumed_at = $2
		WHERE id = ANY($1) AND kind = 'pre_approval' AND status = 'approved' AND consumed_at IS NULL
		RETURNING id
	`
	rows, err := q.Query(ctx, query, ids, at)
	if err != nil {
		return nil, err
	}
	consumed, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	sort.Strings(consumed)
	return consumed, nil
}

// ExpireStale implements compliance.ExceptionRepository.
func (r *exceptionRepositoryImpl) ExpireStale(ctx context.Context, at time.Time) (int64, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE compliance_exceptions
		SET status = 'expired'
		WHERE expires_at IS NOT NULL AND expires_at <= $1
			AND (status = 'pending'
				OR (status = 'approved' AND kind = 'pre_approval' AND consumed_at IS NULL))
	`
	tag, err := q.Exec(ctx, query, at)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
