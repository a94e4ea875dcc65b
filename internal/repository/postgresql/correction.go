package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/workperiod"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type correctionRepositoryImpl struct {
	db *database.DB
}

func NewCorrectionRepository(db *database.DB) workperiod.CorrectionRepository {
	return &correctionRepositoryImpl{db: db}
}

const correctionColumns = `
	id, employee_id, company_id, clock_in_event_id, corrected_start, corrected_end,
	reason, status, requested_by, reviewed_by, reviewed_at, rejection_reason, created_at`

func scanCorrection(row pgx.Row) (workperiod.Correction, error) {
	var c workperiod.Correction
	err := row.Scan(
		&c.ID, &c.EmployeeID, &c.CompanyID, &c.ClockInEventID, &c.CorrectedStart, &c.CorrectedEnd,
		&c.Reason, &c.Status, &c.RequestedBy, &c.ReviewedBy, &c.ReviewedAt, &c.RejectionReason, &c.CreatedAt,
	)
	if err != nil {
		return workperiod.Correction{}, err
	}
	c.CorrectedStart = utcPtr(c.CorrectedStart)
	c.CorrectedEnd = utcPtr(c.CorrectedEnd)
	c.ReviewedAt = utcPtr(c.ReviewedAt)
	c.CreatedAt = c.CreatedAt.UTC()
	return c, nil
}

// Create implements workperiod.CorrectionRepository.
func (r *correctionRepositoryImpl) Create(ctx context.Context, c workperiod.Correction) (workperiod.Correction, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO corrections (` + correctionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + correctionColumns

	return scanCorrection(q.QueryRow(ctx, query,
		c.ID, c.EmployeeID, c.CompanyID, c.ClockInEventID, c.CorrectedStart, c.CorrectedEnd,
		c.Reason, c.Status, c.RequestedBy, c.ReviewedBy, c.ReviewedAt, c.RejectionReason, c.CreatedAt,
	))
}

// GetByID implements workperiod.CorrectionRepository.
func (r *correctionRepositoryImpl) GetByID(ctx context.Context, id string) (workperiod.Correction, error) {
	q := GetQuerier(ctx, r.db)

	c, err := scanCorrection(q.QueryRow(ctx, `SELECT `+correctionColumns+` FROM corrections WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return workperiod.Correction{}, workperiod.ErrCorrectionNotFound
		}
		return workperiod.Correction{}, err
	}
	return c, nil
}

// ListApproved implements workperiod.CorrectionRepository.
func (r *correctionRepositoryImpl) ListApproved(ctx context.Context, employeeID string) ([]workperiod.Correction, error) {
	return r.list(ctx, `
		SELECT `+correctionColumns+`
		FROM corrections
		WHERE employee_id = $1 AND status = 'approved'
		ORDER BY reviewed_at, id
	`, employeeID)
}

// ListByEmployee implements workperiod.CorrectionRepository.
func (r *correctionRepositoryImpl) ListByEmployee(ctx context.Context, employeeID string) ([]workperiod.Correction, error) {
	return r.list(ctx, `
		SELECT `+correctionColumns+`
		FROM corrections
		WHERE employee_id = $1
		ORDER BY created_at, id
	`, employeeID)
}

func (r *correctionRepositoryImpl) list(ctx context.Context, query string, args ...any) ([]workperiod.Correction, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []workperiod.Correction
	for rows.Next() {
		c, err := scanCorrection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Review implements workperiod.CorrectionRepository.
func (r *correctionRepositoryImpl) Review(ctx context.Context, c workperiod.Correction) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE corrections
		SET status = $2, reviewed_by = $3, reviewed_at = $4, rejection_reason = $5
		WHERE id = $1 AND status = 'pending'
	`
	tag, err := q.Exec(ctx, query, c.ID, c.Status, c.ReviewedBy, c.ReviewedAt, c.RejectionReason)
	if err != nil {
		return fmt.Errorf("review correction %s: %w", c.ID, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	if _, err := r.GetByID(ctx, c.ID); err != nil {
		return err
	}
	return workperiod.ErrCorrectionNotPending
}
