// Package timerange holds the half-open instant ranges and inclusive
// calendar-date ranges shared by the ledger, compliance and publish code.
package timerange

import (
	"errors"
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

var (
	ErrInvalidRange = errors.New("range end must not be before its start")
	ErrInvalidDate  = errors.New("invalid date format, use YYYY-MM-DD")
)

// Range is the half-open instant interval [Start, End).
type Range struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether [start, end) intersects r. A nil end means the
// interval is still open.
func (r Range) Overlaps(start time.Time, end *time.Time) bool {
	if !start.Before(r.End) {
		return false
	}
	return end == nil || end.After(r.Start)
}

// Contains reports whether [start, end) lies entirely inside r.
func (r Range) Contains(start, end time.Time) bool {
	return !start.Before(r.Start) && !end.After(r.End)
}

// Widen extends the range by before and after.
func (r Range) Widen(before, after time.Duration) Range {
	return Range{Start: r.Start.Add(-before), End: r.End.Add(after)}
}

// Intersect returns the overlap of [start, end) with r in minutes.
func (r Range) Intersect(start, end time.Time) time.Duration {
	if start.Before(r.Start) {
		start = r.Start
	}
	if end.After(r.End) {
		end = r.End
	}
	if !end.After(start) {
		return 0
	}
	return end.Sub(start)
}

// Dates is an inclusive range of calendar days, e.g. a schedule week.
type Dates struct {
	From string `json:"start_date"` // YYYY-MM-DD
	To   string `json:"end_date"`   // YYYY-MM-DD
}

// ParseDates validates and normalises a date range.
func ParseDates(from, to string) (Dates, error) {
	f, err := time.Parse(DateLayout, from)
	if err != nil {
		return Dates{}, fmt.Errorf("%w: %q", ErrInvalidDate, from)
	}
	t, err := time.Parse(DateLayout, to)
	if err != nil {
		return Dates{}, fmt.Errorf("%w: %q", ErrInvalidDate, to)
	}
	if t.Before(f) {
		return Dates{}, ErrInvalidRange
	}
	return Dates{From: f.Format(DateLayout), To: t.Format(DateLayout)}, nil
}

// In returns [From 00:00, To+1 00:00) in loc.
func (d Dates) In(loc *time.Location) Range {
	f, _ := time.ParseInLocation(DateLayout, d.From, loc)
	t, _ := time.ParseInLocation(DateLayout, d.To, loc)
	return Range{Start: f, End: t.AddDate(0, 0, 1)}
}

// Days lists every date of the range in order.
func (d Dates) Days() []string {
	f, err := time.Parse(DateLayout, d.From)
	if err != nil {
		return nil
	}
	t, err := time.Parse(DateLayout, d.To)
	if err != nil {
		return nil
	}
	var days []string
	for day := f; !day.After(t); day = day.AddDate(0, 0, 1) {
		days = append(days, day.Format(DateLayout))
	}
	return days
}

func (d Dates) String() string {
	return d.From + "/" + d.To
}

// DaysOf returns the local calendar dates touched by [start, end) in loc.
// An instant exactly at midnight ends the previous day.
func DaysOf(start, end time.Time, loc *time.Location) []string {
	if !end.After(start) {
		return []string{start.In(loc).Format(DateLayout)}
	}
	first := StartOfDay(start, loc)
	last := end.Add(-time.Nanosecond)
	var days []string
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		days = append(days, day.Format(DateLayout))
	}
	return days
}

// StartOfDay returns local midnight of the day containing t.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	l := t.In(loc)
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, loc)
}

// WeekOf returns the ISO week (Monday to Sunday) containing t in loc.
func WeekOf(t time.Time, loc *time.Location) Dates {
	day := StartOfDay(t, loc)
	offset := (int(day.Weekday()) + 6) % 7 // days since Monday
	monday := day.AddDate(0, 0, -offset)
	return Dates{
		From: monday.Format(DateLayout),
		To:   monday.AddDate(0, 0, 6).Format(DateLayout),
	}
}
