package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_RollbackOnError(t *testing.T) {
	store := NewStore()
	repo := NewLedgerRepository(store)
	ctx := context.Background()
	ts := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	boom := errors.New("boom")
	err := store.WithinTransaction(ctx, func(txCtx context.Context) error {
		e := ledger.NewEvent(ledger.Head{}, "evt-1", "emp-1", ledger.KindClockIn, ts, ledger.SourceAPI, ts)
		require.NoError(t, repo.Append(txCtx, e))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	head, err := repo.Head(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), head.Length)
}

func TestStore_CommitKeepsWrites(t *testing.T) {
	store := NewStore()
	repo := NewLedgerRepository(store)
	ctx := context.Background()
	ts := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	err := store.WithinTransaction(ctx, func(txCtx context.Context) error {
		head, err := repo.LockHead(txCtx, "emp-1")
		if err != nil {
			return err
		}
		return repo.Append(txCtx, ledger.NewEvent(head, "evt-1", "emp-1", ledger.KindClockIn, ts, ledger.SourceAPI, ts))
	})
	require.NoError(t, err)

	events, err := repo.ListUpTo(ctx, "emp-1", 10)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestLedgerRepository_RejectsOutOfOrderAppend(t *testing.T) {
	repo := NewLedgerRepository(NewStore())
	ts := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	e := ledger.NewEvent(ledger.Head{Length: 4}, "evt-5", "emp-1", ledger.KindClockIn, ts, ledger.SourceAPI, ts)

	assert.Error(t, repo.Append(context.Background(), e))
}

func TestEmployeeRepository(t *testing.T) {
	store := NewStore()
	repo := NewEmployeeRepository(store)
	ctx := context.Background()
	uid := "user-1"

	require.NoError(t, repo.Save(ctx, employee.Employee{ID: "e1", UserID: &uid, CompanyID: "c1", EmploymentStatus: employee.EmploymentStatusActive}))
	require.NoError(t, repo.Save(ctx, employee.Employee{ID: "e2", CompanyID: "c1", EmploymentStatus: employee.EmploymentStatusInactive}))
	require.NoError(t, repo.Save(ctx, employee.Employee{ID: "e3", CompanyID: "c2", EmploymentStatus: employee.EmploymentStatusActive}))

	active, err := repo.GetActiveByCompanyID(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "e1", active[0].ID)

	byUser, err := repo.GetByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "e1", byUser.ID)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)

	companies, err := repo.ListCompanyIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2"}, companies)
}
