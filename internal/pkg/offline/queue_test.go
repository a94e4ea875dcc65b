package offline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openQueue(t *testing.T) *Queue {
	t.Helper()
	q, err := Open(filepath.Join(t.TempDir(), "queue.db"))
	require.NoError(t, err)
	t.Cleanup(func() { q.Close() })
	return q
}

func ts(m int) time.Time {
	return time.Date(2026, 3, 2, 9, m, 0, 0, time.UTC)
}

func TestEnqueueAndList(t *testing.T) {
	q := openQueue(t)
	ctx := context.Background()

	first, err := q.Enqueue(ctx, "emp-1", "clock_in", ts(0))
	require.NoError(t, err)
	_, err = q.Enqueue(ctx, "emp-1", "clock_out", ts(30))
	require.NoError(t, err)

	list, err := q.List(ctx, nil, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, ts(0), list[0].Timestamp)
	assert.Equal(t, StatusPending, list[0].Status)
	assert.Equal(t, "clock_out", list[1].Kind)

	stats, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Pending: 2}, stats)
}

func TestQueueSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.db")
	q, err := Open(path)
	require.NoError(t, err)
	_, err = q.Enqueue(context.Background(), "emp-1", "clock_in", ts(0))
	require.NoError(t, err)
	require.NoError(t, q.Close())

	q, err = Open(path)
	require.NoError(t, err)
	defer q.Close()
	list, err := q.List(context.Background(), nil, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestDrain_FIFO(t *testing.T) {
	q := openQueue(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := q.Enqueue(ctx, "emp-1", fmt.Sprintf("kind-%d", i), ts(i))
		require.NoError(t, err)
	}

	var seen []string
	res, err := q.Drain(ctx, func(_ context.Context, a Action) error {
		seen = append(seen, a.Kind)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, DrainResult{Submitted: 3}, res)
	assert.Equal(t, []string{"kind-0", "kind-1", "kind-2"}, seen)

	stats, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
}

func TestDrain_StopsOnStorageFailure(t *testing.T) {
	q := openQueue(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := q.Enqueue(ctx, "emp-1", "clock_in", ts(i))
		require.NoError(t, err)
	}

	calls := 0
	res, err := q.Drain(ctx, func(_ context.Context, a Action) error {
		calls++
		if calls == 2 {
			return fmt.Errorf("append: %w", database.ErrStorageUnavailable)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, DrainResult{Submitted: 1, Stopped: true}, res)
	assert.Equal(t, 2, calls, "later actions must wait for the stuck one")

	pending := StatusPending
	list, err := q.List(ctx, &pending, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 1, list[0].Attempts)
	require.NotNil(t, list[0].LastError)
	assert.Zero(t, list[1].Attempts)
}

func TestDrain_RejectedActionsAreSetAside(t *testing.T) {
	q := openQueue(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := q.Enqueue(ctx, "emp-1", "clock_in", ts(i))
		require.NoError(t, err)
	}

	res, err := q.Drain(ctx, func(_ context.Context, a Action) error {
		if a.Timestamp.Equal(ts(1)) {
			return errors.New("clock-in while a period is open")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, DrainResult{Submitted: 2, Failed: 1}, res)

	failed := StatusFailed
	list, err := q.List(ctx, &failed, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "clock-in while a period is open", *list[0].LastError)

	// failed actions are not replayed
	res, err = q.Drain(ctx, func(context.Context, Action) error {
		t.Fatal("nothing should be replayed")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, DrainResult{}, res)
}

func TestHasPending(t *testing.T) {
	q := openQueue(t)
	ctx := context.Background()

	has, err := q.HasPending(ctx, "emp-1")
	require.NoError(t, err)
	assert.False(t, has)

	_, err = q.Enqueue(ctx, "emp-1", "clock_in", ts(0))
	require.NoError(t, err)

	has, err = q.HasPending(ctx, "emp-1")
	require.NoError(t, err)
	assert.True(t, has)
	has, err = q.HasPending(ctx, "emp-2")
	require.NoError(t, err)
	assert.False(t, has)

	_, err = q.Drain(ctx, func(context.Context, Action) error { return errors.New("rejected") })
	require.NoError(t, err)
	has, err = q.HasPending(ctx, "emp-1")
	require.NoError(t, err)
	assert.False(t, has, "failed actions do not hold later ones back")
}
