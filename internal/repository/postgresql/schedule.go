package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/timerange"
	"github.com/jackc/pgx/v5"
)

type shiftRepositoryImpl struct {
	db *database.DB
}

func NewShiftRepository(db *database.DB) schedule.ShiftRepository {
	return &shiftRepositoryImpl{db: db}
}

const shiftColumns = `id, company_id, employee_id, start_time, end_time, status, published_at, created_at, updated_at`

func scanShift(row pgx.Row) (schedule.Shift, error) {
	var s schedule.Shift
	err := row.Scan(
		&s.ID, &s.CompanyID, &s.EmployeeID, &s.StartTime, &s.EndTime,
		&s.Status, &s.PublishedAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return schedule.Shift{}, err
	}
	s.StartTime = s.StartTime.UTC()
	s.EndTime = s.EndTime.UTC()
	s.PublishedAt = utcPtr(s.PublishedAt)
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	return s, nil
}

// Create implements schedule.ShiftRepository.
func (r *shiftRepositoryImpl) Create(ctx context.Context, s schedule.Shift) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO shifts (` + shiftColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := q.Exec(ctx, query,
		s.ID, s.CompanyID, s.EmployeeID, s.StartTime, s.EndTime,
		s.Status, s.PublishedAt, s.CreatedAt, s.UpdatedAt,
	)
	return err
}

// GetByID implements schedule.ShiftRepository.
func (r *shiftRepositoryImpl) GetByID(ctx context.Context, id, companyID string) (schedule.Shift, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + shiftColumns + ` FROM shifts WHERE id = $1 AND company_id = $2`
	s, err := scanShift(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.Shift{}, schedule.ErrShiftNotFound
		}
		return schedule.Shift{}, err
	}
	return s, nil
}

// Update implements schedule.ShiftRepository.
func (r *shiftRepositoryImpl) Update(ctx context.Context, s schedule.Shift) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE shifts
		SET employee_id = $3, start_time = $4, end_time = $5, status = $6, published_at = $7, updated_at = $8
		WHERE id = $1 AND company_id = $2
	`
	tag, err := q.Exec(ctx, query, s.ID, s.CompanyID, s.EmployeeID, s.StartTime, s.EndTime, s.Status, s.PublishedAt, s.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return schedule.ErrShiftNotFound
	}
	return nil
}

// Delete implements schedule.ShiftRepository.
func (r *shiftRepositoryImpl) Delete(ctx context.Context, id, companyID string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM shifts WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return schedule.ErrShiftNotFound
	}
	return nil
}

// ListByCompany implements schedule.ShiftRepository.
func (r *shiftRepositoryImpl) ListByCompany(ctx context.Context, companyID string, rg timerange.Range) ([]schedule.Shift, error) {
	return r.list(ctx, `
		SELECT `+shiftColumns+`
		FROM shifts
		WHERE company_id = $1 AND start_time < $3 AND end_time > $2
		ORDER BY start_time, id
	`, companyID, rg.Start, rg.End)
}

// ListByEmployee implements schedule.ShiftRepository.
func (r *shiftRepositoryImpl) ListByEmployee(ctx context.Context, employeeID string, rg timerange.Range) ([]schedule.Shift, error) {
	return r.list(ctx, `
		SELECT `+shiftColumns+`
		FROM shifts
		WHERE employee_id = $1 AND start_time < $3 AND end_time > $2
		ORDER BY start_time, id
	`, employeeID, rg.Start, rg.End)
}

func (r *shiftRepositoryImpl) list(ctx context.Context, query string, args ...any) ([]schedule.Shift, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []schedule.Shift
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// HasOverlap implements schedule.ShiftRepository.
func (r *shiftRepositoryImpl) HasOverlap(ctx context.Context, employeeID string, start, end time.Time, excludeID string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM shifts
			WHERE employee_id = $1 AND id <> $4 AND start_time < $3 AND end_time > $2
		)
	`
	var exists bool
	if err := q.QueryRow(ctx, query, employeeID, start, end, excludeID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// LockCompany implements schedule.ShiftRepository. The lock is held until
// the surrounding transaction ends.
func (r *shiftRepositoryImpl) LockCompany(ctx context.Context, companyID string) error {
	return advisoryLock(ctx, GetQuerier(ctx, r.db), lockSchedule, companyID)
}

// PublishDrafts implements schedule.ShiftRepository.
func (r *shiftRepositoryImpl) PublishDrafts(ctx context.Context, companyID string, rg timerange.Range, at time.Time) (int64, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE shifts
		SET status = 'published', published_at = $4, updated_at = $4
		WHERE company_id = $1 AND status = 'draft' AND start_time >= $2 AND start_time < $3
	`
	tag, err := q.Exec(ctx, query, companyID, rg.Start, rg.End, at)
	if err != nil {
		return 0, fmt.Errorf("publish draft shifts: %w", err)
	}
	return tag.RowsAffected(), nil
}

type versionRepositoryImpl struct {
	db *database.DB
}

func NewVersionRepository(db *database.DB) schedule.VersionRepository {
	return &versionRepositoryImpl{db: db}
}

// Bump implements schedule.VersionRepository.
func (r *versionRepositoryImpl) Bump(ctx context.Context, companyID string, days []string) error {
	if len(days) == 0 {
		return nil
	}
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO schedule_versions (company_id, day, version)
		SELECT $1, d, 1 FROM unnest($2::text[]) AS d
		ON CONFLICT (company_id, day) DO UPDATE
		SET version = schedule_versions.version + 1
	`
	_, err := q.Exec(ctx, query, companyID, days)
	return err
}

// Sum implements schedule.VersionRepository.
func (r *versionRepositoryImpl) Sum(ctx context.Context, companyID string, days []string) (int64, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT COALESCE(SUM(version), 0)::bigint
		FROM schedule_versions
		WHERE company_id = $1 AND day = ANY($2::text[])
	`
	var total int64
	if err := q.QueryRow(ctx, query, companyID, days).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}
