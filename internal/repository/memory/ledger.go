package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/ledger"
)

type LedgerRepository struct {
	store *Store
}

func NewLedgerRepository(store *Store) *LedgerRepository {
	return &LedgerRepository{store: store}
}

// LockHead implements ledger.Repository. Units of work are already
// serialised by the store.
func (r *LedgerRepository) LockHead(ctx context.Context, employeeID string) (ledger.Head, error) {
	return r.Head(ctx, employeeID)
}

// Append implements ledger.Repository.
func (r *LedgerRepository) Append(ctx context.Context, e ledger.TimeEvent) error {
	return r.store.write(ctx, func(d *state) error {
		head := d.heads[e.EmployeeID]
		if e.Sequence != head.Length+1 {
			return fmt.Errorf("append out of order: head at %d, event sequence %d", head.Length, e.Sequence)
		}
		d.events[e.EmployeeID] = append(d.events[e.EmployeeID], e)
		d.heads[e.EmployeeID] = head.Advance(e)
		return nil
	})
}

// Head implements ledger.Repository.
func (r *LedgerRepository) Head(_ context.Context, employeeID string) (ledger.Head, error) {
	var h ledger.Head
	r.store.read(func(d *state) {
		h = d.heads[employeeID]
	})
	if h.EmployeeID == "" {
		h.EmployeeID = employeeID
	}
	return h, nil
}

// ListUpTo implements ledger.Repository.
func (r *LedgerRepository) ListUpTo(_ context.Context, employeeID string, length int64) ([]ledger.TimeEvent, error) {
	var out []ledger.TimeEvent
	r.store.read(func(d *state) {
		events := d.events[employeeID]
		if int64(len(events)) > length {
			events = events[:length]
		}
		out = append([]ledger.TimeEvent(nil), events...)
	})
	return out, nil
}

// ListEmployeeIDs implements ledger.Repository.
func (r *LedgerRepository) ListEmployeeIDs(_ context.Context) ([]string, error) {
	var ids []string
	r.store.read(func(d *state) {
		for id := range d.events {
			ids = append(ids, id)
		}
	})
	sort.Strings(ids)
	return ids, nil
}

// Corrupt edits a stored event in place, bypassing the append path. It
// exists to exercise integrity alarms.
func (r *LedgerRepository) Corrupt(employeeID string, sequence int64, mutate func(*ledger.TimeEvent)) error {
	return r.store.write(context.Background(), func(d *state) error {
		events := d.events[employeeID]
		if sequence < 1 || sequence > int64(len(events)) {
			return ledger.ErrEventNotFound
		}
		mutate(&events[sequence-1])
		return nil
	})
}
