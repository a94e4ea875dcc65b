package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/ledger"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type ledgerRepositoryImpl struct {
	db *database.DB
}

func NewLedgerRepository(db *database.DB) ledger.Repository {
	return &ledgerRepositoryImpl{db: db}
}

// LockHead implements ledger.Repository.
func (r *ledgerRepositoryImpl) LockHead(ctx context.Context, employeeID string) (ledger.Head, error) {
	q := GetQuerier(ctx, r.db)
	if err := advisoryLock(ctx, q, lockLedger, employeeID); err != nil {
		return ledger.Head{}, fmt.Errorf("failed to lock employee chain: %w", err)
	}
	return r.head(ctx, q, employeeID, " FOR UPDATE")
}

// Head implements ledger.Repository.
func (r *ledgerRepositoryImpl) Head(ctx context.Context, employeeID string) (ledger.Head, error) {
	return r.head(ctx, GetQuerier(ctx, r.db), employeeID, "")
}

func (r *ledgerRepositoryImpl) head(ctx context.Context, q database.Querier, employeeID, suffix string) (ledger.Head, error) {
	query := `
		SELECT employee_id, length, last_event_id, last_hash, last_kind, last_timestamp
		FROM ledger_heads
		WHERE employee_id = $1` + suffix

	var h ledger.Head
	err := q.QueryRow(ctx, query, employeeID).Scan(
		&h.EmployeeID, &h.Length, &h.LastEventID, &h.LastHash, &h.LastKind, &h.LastTimestamp,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ledger.Head{EmployeeID: employeeID}, nil
		}
		return ledger.Head{}, err
	}
	h.LastTimestamp = h.LastTimestamp.UTC()
	return h, nil
}

// Append implements ledger.Repository. The insert and the head update share
// the caller's transaction; the head update only succeeds from the length the
// event extends.
func (r *ledgerRepositoryImpl) Append(ctx context.Context, e ledger.TimeEvent) error {
	q := GetQuerier(ctx, r.db)

	insert := `
		INSERT INTO time_events (
			id, employee_id, sequence, kind, event_time,
			hash, previous_hash, previous_entry_id, source, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := q.Exec(ctx, insert,
		e.ID, e.EmployeeID, e.Sequence, e.Kind, e.Timestamp,
		e.Hash, e.PreviousHash, e.PreviousEntryID, e.Source, e.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("insert time event: %w", err)
	}

	advance := `
		INSERT INTO ledger_heads (employee_id, length, last_event_id, last_hash, last_kind, last_timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (employee_id) DO UPDATE
		SET length = EXCLUDED.length,
			last_event_id = EXCLUDED.last_event_id,
			last_hash = EXCLUDED.last_hash,
			last_kind = EXCLUDED.last_kind,
			last_timestamp = EXCLUDED.last_timestamp
		WHERE ledger_heads.length = EXCLUDED.length - 1
	`
	tag, err := q.Exec(ctx, advance, e.EmployeeID, e.Sequence, e.ID, e.Hash, e.Kind, e.Timestamp)
	if err != nil {
		return fmt.Errorf("advance ledger head: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("append out of order: event sequence %d does not extend the head", e.Sequence)
	}
	return nil
}

// ListUpTo implements ledger.Repository.
func (r *ledgerRepositoryImpl) ListUpTo(ctx context.Context, employeeID string, length int64) ([]ledger.TimeEvent, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, sequence, kind, event_time,
			hash, previous_hash, previous_entry_id, source, recorded_at
		FROM time_events
		WHERE employee_id = $1 AND sequence <= $2
		ORDER BY sequence
	`
	rows, err := q.Query(ctx, query, employeeID, length)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []ledger.TimeEvent
	for rows.Next() {
		var e ledger.TimeEvent
		err := rows.Scan(
			&e.ID, &e.EmployeeID, &e.Sequence, &e.Kind, &e.Timestamp,
			&e.Hash, &e.PreviousHash, &e.PreviousEntryID, &e.Source, &e.RecordedAt,
		)
		if err != nil {
			return nil, err
		}
		e.Timestamp = e.Timestamp.UTC()
		e.RecordedAt = e.RecordedAt.UTC()
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// ListEmployeeIDs implements ledger.Repository.
func (r *ledgerRepositoryImpl) ListEmployeeIDs(ctx context.Context) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT employee_id FROM ledger_heads ORDER BY employee_id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}
