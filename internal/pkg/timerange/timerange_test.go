package timerange

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDates(t *testing.T) {
	d, err := ParseDates("2026-03-02", "2026-03-08")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-02/2026-03-08", d.String())

	_, err = ParseDates("2026-03-08", "2026-03-02")
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = ParseDates("2026/03/02", "2026-03-08")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestDates_InAndDays(t *testing.T) {
	loc := time.FixedZone("WIB", 7*3600)
	d := Dates{From: "2026-03-02", To: "2026-03-04"}

	r := d.In(loc)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, loc), r.Start)
	assert.Equal(t, time.Date(2026, 3, 5, 0, 0, 0, 0, loc), r.End)
	assert.Equal(t, []string{"2026-03-02", "2026-03-03", "2026-03-04"}, d.Days())
}

func TestRange_Overlaps(t *testing.T) {
	base := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	r := Range{Start: base, End: base.Add(24 * time.Hour)}

	before := base.Add(-time.Hour)
	assert.False(t, r.Overlaps(base.Add(-2*time.Hour), &before))
	assert.False(t, r.Overlaps(base.Add(-time.Hour), &base)) // touching start
	assert.True(t, r.Overlaps(base.Add(-time.Hour), nil))
	assert.True(t, r.Overlaps(base.Add(23*time.Hour), nil))
	assert.False(t, r.Overlaps(base.Add(24*time.Hour), nil))
}

func TestRange_Intersect(t *testing.T) {
	base := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	r := Range{Start: base, End: base.Add(24 * time.Hour)}

	assert.Equal(t, 2*time.Hour, r.Intersect(base.Add(-time.Hour), base.Add(2*time.Hour)))
	assert.Equal(t, time.Duration(0), r.Intersect(base.Add(25*time.Hour), base.Add(26*time.Hour)))
}

func TestDaysOf(t *testing.T) {
	loc := time.UTC
	start := time.Date(2026, 3, 2, 22, 0, 0, 0, loc)

	assert.Equal(t, []string{"2026-03-02", "2026-03-03"}, DaysOf(start, start.Add(4*time.Hour), loc))
	assert.Equal(t, []string{"2026-03-02"}, DaysOf(start, start.Add(2*time.Hour), loc))
}

func TestWeekOf(t *testing.T) {
	want := Dates{From: "2026-03-02", To: "2026-03-08"}
	assert.Equal(t, want, WeekOf(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), time.UTC))
	assert.Equal(t, want, WeekOf(time.Date(2026, 3, 5, 13, 0, 0, 0, time.UTC), time.UTC))
	assert.Equal(t, want, WeekOf(time.Date(2026, 3, 8, 23, 59, 0, 0, time.UTC), time.UTC))

	// Sunday 20:00 UTC is already Monday in Jakarta
	jkt, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)
	assert.Equal(t, Dates{From: "2026-03-09", To: "2026-03-15"},
		WeekOf(time.Date(2026, 3, 8, 20, 0, 0, 0, time.UTC), jkt))
}
