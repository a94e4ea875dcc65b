package ledger

import "sync"

// employeeLocks hands out one mutex per employee and forgets it once no
// goroutine holds or waits for it.
type employeeLocks struct {
	mu    sync.Mutex
	locks map[string]*employeeLock
}

type employeeLock struct {
	mu   sync.Mutex
	refs int
}

func newEmployeeLocks() *employeeLocks {
	return &employeeLocks{locks: make(map[string]*employeeLock)}
}

// Lock blocks until the caller owns employeeID's append section and returns
// the matching unlock function.
func (l *employeeLocks) Lock(employeeID string) func() {
	l.mu.Lock()
	el, ok := l.locks[employeeID]
	if !ok {
		el = &employeeLock{}
		l.locks[employeeID] = el
	}
	el.refs++
	l.mu.Unlock()

	el.mu.Lock()

	return func() {
		el.mu.Unlock()

		l.mu.Lock()
		el.refs--
		if el.refs == 0 {
			delete(l.locks, employeeID)
		}
		l.mu.Unlock()
	}
}
