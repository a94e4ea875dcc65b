// Package offline buffers clock actions in a local SQLite file while the
// ledger database is unreachable, and replays them in arrival order.
package offline

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/database"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

const timeLayout = time.RFC3339Nano

type Status string

const (
	StatusPending Status = "pending"
	// StatusFailed actions were rejected by the ledger and are kept for an
	// operator to inspect. They are never retried.
	StatusFailed Status = "failed"
)

// Action is one buffered clock action.
type Action struct {
	ID         int64     `json:"id"`
	EmployeeID string    `json:"employee_id"`
	Kind       string    `json:"kind"`
	Timestamp  time.Time `json:"timestamp"`
	Status     Status    `json:"status"`
	Attempts   int       `json:"attempts"`
	LastError  *string   `json:"last_error,omitempty"`
	QueuedAt   time.Time `json:"queued_at"`
}

type Stats struct {
	Pending int `json:"pending"`
	Failed  int `json:"failed"`
}

// Queue is a durable FIFO of clock actions.
type Queue struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens the queue file at path.
func Open(path string) (*Queue, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open offline queue: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to offline queue: %w", err)
	}

	// one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = FULL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply offline queue schema: %w", err)
	}

	return &Queue{db: db, now: time.Now}, nil
}

func (q *Queue) Close() error {
	if q == nil || q.db == nil {
		return nil
	}
	return q.db.Close()
}

// Enqueue appends an action to the tail of the queue.
func (q *Queue) Enqueue(ctx context.Context, employeeID, kind string, ts time.Time) (Action, error) {
	a := Action{
		EmployeeID: employeeID,
		Kind:       kind,
		Timestamp:  ts.UTC(),
		Status:     StatusPending,
		QueuedAt:   q.now().UTC(),
	}
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO queued_actions (employee_id, kind, event_time, status, queued_at) VALUES (?, ?, ?, ?, ?)`,
		a.EmployeeID, a.Kind, a.Timestamp.Format(timeLayout), a.Status, a.QueuedAt.Format(timeLayout),
	)
	if err != nil {
		return Action{}, fmt.Errorf("failed to enqueue action: %w", err)
	}
	if a.ID, err = res.LastInsertId(); err != nil {
		return Action{}, fmt.Errorf("failed to read queued action id: %w", err)
	}
	return a, nil
}

// List returns actions with the given status in queue order; nil lists all.
func (q *Queue) List(ctx context.Context, status *Status, limit int) ([]Action, error) {
	query := `SELECT id, employee_id, kind, event_time, status, attempts, last_error, queued_at FROM queued_actions`
	var args []any
	if status != nil {
		query += ` WHERE status = ?`
		args = append(args, *status)
	}
	query += ` ORDER BY id`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list queued actions: %w", err)
	}
	defer rows.Close()

	var out []Action
	for rows.Next() {
		var (
			a              Action
			eventTime, qAt string
		)
		if err := rows.Scan(&a.ID, &a.EmployeeID, &a.Kind, &eventTime, &a.Status, &a.Attempts, &a.LastError, &qAt); err != nil {
			return nil, err
		}
		if a.Timestamp, err = time.Parse(timeLayout, eventTime); err != nil {
			return nil, fmt.Errorf("queued action %d: %w", a.ID, err)
		}
		if a.QueuedAt, err = time.Parse(timeLayout, qAt); err != nil {
			return nil, fmt.Errorf("queued action %d: %w", a.ID, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// HasPending reports whether employeeID still has actions waiting to be
// replayed. New actions for that employee must queue behind them.
func (q *Queue) HasPending(ctx context.Context, employeeID string) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM queued_actions WHERE employee_id = ? AND status = 'pending')`, employeeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check queued actions: %w", err)
	}
	return exists, nil
}

func (q *Queue) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := q.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0)
		FROM queued_actions
	`).Scan(&s.Pending, &s.Failed)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count queued actions: %w", err)
	}
	return s, nil
}

func (q *Queue) remove(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM queued_actions WHERE id = ?`, id)
	return err
}

func (q *Queue) markFailed(ctx context.Context, id int64, reason string) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE queued_actions SET status = 'failed', attempts = attempts + 1, last_error = ? WHERE id = ?`, reason, id)
	return err
}

func (q *Queue) markRetry(ctx context.Context, id int64, reason string) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE queued_actions SET attempts = attempts + 1, last_error = ? WHERE id = ?`, reason, id)
	return err
}

// Submitter replays one action against the ledger.
type Submitter func(ctx context.Context, a Action) error

type DrainResult struct {
	Submitted int  `json:"submitted"`
	Failed    int  `json:"failed"`
	Stopped   bool `json:"stopped"` // storage still unavailable
}

// Drain replays pending actions oldest first. A storage failure stops the
// drain so later actions never overtake an earlier one; any other
// submission error marks that action failed and the drain moves on.
func (q *Queue) Drain(ctx context.Context, submit Submitter) (DrainResult, error) {
	var res DrainResult
	pending := StatusPending
	actions, err := q.List(ctx, &pending, 0)
	if err != nil {
		return res, err
	}

	for _, a := range actions {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		err := submit(ctx, a)
		switch {
		case err == nil:
			if err := q.remove(ctx, a.ID); err != nil {
				return res, fmt.Errorf("failed to remove replayed action %d: %w", a.ID, err)
			}
			res.Submitted++
		case errors.Is(err, database.ErrStorageUnavailable):
			if err := q.markRetry(ctx, a.ID, err.Error()); err != nil {
				return res, fmt.Errorf("failed to record retry for action %d: %w", a.ID, err)
			}
			res.Stopped = true
			return res, nil
		default:
			slog.Warn("offline action rejected",
				"action_id", a.ID,
				"employee_id", a.EmployeeID,
				"kind", a.Kind,
				"error", err,
			)
			if err := q.markFailed(ctx, a.ID, err.Error()); err != nil {
				return res, fmt.Errorf("failed to mark action %d failed: %w", a.ID, err)
			}
			res.Failed++
		}
	}
	return res, nil
}
