package workperiod

import (
	"fmt"
	"testing"
	"time"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/ledger"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/timerange"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chain(t *testing.T, times ...time.Time) []ledger.TimeEvent {
	t.Helper()
	var (
		head   ledger.Head
		events []ledger.TimeEvent
	)
	for i, ts := range times {
		kind := ledger.KindClockIn
		if i%2 == 1 {
			kind = ledger.KindClockOut
		}
		require.NoError(t, ledger.CheckNext(head, "emp-1", kind, ts))
		e := ledger.NewEvent(head, fmt.Sprintf("evt-%d", i+1), "emp-1", kind, ts, ledger.SourceAPI, ts)
		events = append(events, e)
		head = head.Advance(e)
	}
	return events
}

func hm(d, h, m int) time.Time {
	return time.Date(2026, 3, d, h, m, 0, 0, time.UTC)
}

func TestPair_ClosedAndActive(t *testing.T) {
	events := chain(t, hm(2, 9, 0), hm(2, 17, 0), hm(2, 17, 20))
	periods := Pair(events)
	require.Len(t, periods, 2)

	assert.Equal(t, "evt-1", periods[0].ID)
	assert.Equal(t, "evt-1", periods[0].ClockInEventID)
	require.NotNil(t, periods[0].ClockOutEventID)
	assert.Equal(t, "evt-2", *periods[0].ClockOutEventID)
	assert.Equal(t, int64(480), periods[0].DurationMinutes)
	assert.False(t, periods[0].IsActive)
	assert.Equal(t, SourceLedger, periods[0].Source)

	assert.True(t, periods[1].IsActive)
	assert.Nil(t, periods[1].EndTime)
	assert.Nil(t, periods[1].ClockOutEventID)
}

func TestPair_IsIdempotent(t *testing.T) {
	events := chain(t, hm(2, 9, 0), hm(2, 12, 0), hm(2, 13, 0), hm(2, 18, 0))
	assert.Equal(t, Pair(events), Pair(events))
}

func TestPair_Overnight(t *testing.T) {
	events := chain(t, hm(2, 22, 0), hm(3, 6, 30))
	periods := Pair(events)
	require.Len(t, periods, 1)
	assert.Equal(t, int64(510), periods[0].DurationMinutes)
}

func TestPair_DurationFloorsPartialMinutes(t *testing.T) {
	start := hm(2, 9, 0)
	events := chain(t, start, start.Add(90*time.Second))
	assert.Equal(t, int64(1), Pair(events)[0].DurationMinutes)
}

func TestApplyCorrections(t *testing.T) {
	events := chain(t, hm(2, 9, 0), hm(2, 17, 0), hm(3, 9, 0))
	periods := Pair(events)

	first := hm(2, 8, 30)
	later := hm(2, 8, 45)
	end := hm(3, 17, 0)
	r1 := hm(4, 10, 0)
	r2 := hm(4, 11, 0)
	corrections := []Correction{
		// applied in review order, so the 11:00 review wins over the 10:00 one
		{ID: "c2", ClockInEventID: "evt-1", CorrectedStart: &later, Status: CorrectionApproved, ReviewedAt: &r2},
		{ID: "c1", ClockInEventID: "evt-1", CorrectedStart: &first, Status: CorrectionApproved, ReviewedAt: &r1},
		{ID: "c3", ClockInEventID: "evt-3", CorrectedEnd: &end, Status: CorrectionApproved, ReviewedAt: &r1},
		{ID: "c4", ClockInEventID: "evt-1", CorrectedStart: &end, Status: CorrectionPending},
	}

	out := ApplyCorrections(periods, corrections)
	require.Len(t, out, 2)

	assert.Equal(t, later, out[0].StartTime)
	assert.Equal(t, int64(495), out[0].DurationMinutes)
	require.Len(t, out[0].Overrides, 2)
	assert.Equal(t, "c1", out[0].Overrides[0].CorrectionID)
	assert.Equal(t, hm(2, 9, 0), *out[0].Overrides[0].Original)
	assert.Equal(t, "c2", out[0].Overrides[1].CorrectionID)
	assert.Equal(t, first, *out[0].Overrides[1].Original)

	// a corrected end closes the active period in the view only
	assert.False(t, out[1].IsActive)
	require.NotNil(t, out[1].EndTime)
	assert.Equal(t, end, *out[1].EndTime)
	assert.Nil(t, out[1].ClockOutEventID)
	assert.Nil(t, out[1].Overrides[0].Original)

	// the input is untouched
	assert.Equal(t, hm(2, 9, 0), periods[0].StartTime)
	assert.Empty(t, periods[0].Overrides)
	assert.True(t, periods[1].IsActive)
}

func TestWithin(t *testing.T) {
	events := chain(t, hm(1, 22, 0), hm(2, 6, 0), hm(2, 9, 0), hm(2, 17, 0), hm(3, 9, 0))
	periods := Pair(events)
	r := timerange.Range{Start: hm(2, 0, 0), End: hm(3, 0, 0)}

	kept := Within(periods, r)
	require.Len(t, kept, 2, "the overnight period overlaps the range start")
	assert.Equal(t, "evt-1", kept[0].ID)
	assert.Equal(t, "evt-3", kept[1].ID)
}

func TestPlanned(t *testing.T) {
	p := Planned("shift-1", "emp-1", hm(5, 9, 0), hm(5, 17, 0))
	assert.Equal(t, SourceSchedule, p.Source)
	assert.Equal(t, "shift-1", p.ID)
	assert.Equal(t, int64(480), p.DurationMinutes)
	assert.False(t, p.IsActive)
}
