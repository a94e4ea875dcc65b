// Package memory implements every repository in process. It backs the
// "memory" storage driver and the service tests. Transactions are real: a
// failed unit of work restores the state it started from.
package memory

import (
	"context"
	"sync"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/compliance"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/ledger"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/publish"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/workperiod"
)

type state struct {
	events       map[string][]ledger.TimeEvent
	heads        map[string]ledger.Head
	corrections  map[string]workperiod.Correction
	exceptions   map[string]compliance.Exception
	shifts       map[string]schedule.Shift
	versions     map[string]int64 // company|day
	publications []publish.Publication
	employees    map[string]employee.Employee
}

func newState() *state {
	return &state{
		events:      map[string][]ledger.TimeEvent{},
		heads:       map[string]ledger.Head{},
		corrections: map[string]workperiod.Correction{},
		exceptions:  map[string]compliance.Exception{},
		shifts:      map[string]schedule.Shift{},
		versions:    map[string]int64{},
		employees:   map[string]employee.Employee{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.events {
		c.events[k] = append([]ledger.TimeEvent(nil), v...)
	}
	for k, v := range s.heads {
		c.heads[k] = v
	}
	for k, v := range s.corrections {
		c.corrections[k] = v
	}
	for k, v := range s.exceptions {
		c.exceptions[k] = v
	}
	for k, v := range s.shifts {
		c.shifts[k] = v
	}
	for k, v := range s.versions {
		c.versions[k] = v
	}
	c.publications = append([]publish.Publication(nil), s.publications...)
	for k, v := range s.employees {
		c.employees[k] = v
	}
	return c
}

// Store holds the shared state of all memory repositories.
type Store struct {
	txMu sync.Mutex // one unit of work at a time
	mu   sync.RWMutex
	data *state
}

func NewStore() *Store {
	return &Store{data: newState()}
}

type txKey struct{ store *Store }

func (s *Store) inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{s}).(bool)
	return v
}

// WithinTransaction runs fn as one unit of work. Units are serialised;
// when fn fails or panics the state is rolled back.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	saved := s.data.clone()
	s.mu.RUnlock()

	defer func() {
		if p := recover(); p != nil {
			s.restore(saved)
			panic(p)
		}
		if err != nil {
			s.restore(saved)
		}
	}()

	return fn(context.WithValue(ctx, txKey{s}, true))
}

func (s *Store) restore(saved *state) {
	s.mu.Lock()
	s.data = saved
	s.mu.Unlock()
}

// write applies fn to the state. Outside a transaction it runs as its own
// unit of work.
func (s *Store) write(ctx context.Context, fn func(d *state) error) error {
	if !s.inTx(ctx) {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

func (s *Store) read(fn func(d *state)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.data)
}
