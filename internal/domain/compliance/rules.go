package compliance

import (
	"sort"
	"time"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/policy"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/timerange"
)

// restRule flags a period that starts less than the minimum rest after the
// previous one closed. The next period may still be active: its start is
// already known.
func restRule(in Input, ivs []interval) []Finding {
	if in.Policy.MinRestMinutes <= 0 {
		return nil
	}
	minRest := time.Duration(in.Policy.MinRestMinutes) * time.Minute

	var out []Finding
	for i := 1; i < len(ivs); i++ {
		prev, next := ivs[i-1], ivs[i]
		if !prev.closed {
			continue
		}
		gap := next.start.Sub(prev.end)
		if gap >= minRest {
			continue
		}
		start, end := prev.end, next.start
		if gap < 0 {
			start, end = next.start, prev.end
			gap = 0
		}
		f := newFinding(in, RuleRestPeriod, SeverityWarning, start, end, []string{prev.id, next.id})
		f.Observed = minutes(gap)
		f.Limit = in.Policy.MinRestMinutes
		f.Overage = f.Limit - f.Observed
		f.Unit = UnitMinutes
		out = append(out, f)
	}
	return out
}

// dayBucket accumulates worked time for one local day or week.
type dayBucket struct {
	start    time.Time
	end      time.Time
	worked   time.Duration
	evidence []string
}

// splitByDay distributes every interval over the local days it touches.
func splitByDay(ivs []interval, loc *time.Location) map[string]*dayBucket {
	days := map[string]*dayBucket{}
	for _, iv := range ivs {
		for day := timerange.StartOfDay(iv.start, loc); day.Before(iv.end); {
			next := time.Date(day.Year(), day.Month(), day.Day()+1, 0, 0, 0, 0, loc)
			worked := timerange.Range{Start: day, End: next}.Intersect(iv.start, iv.end)
			if worked > 0 {
				key := day.Format(timerange.DateLayout)
				b, ok := days[key]
				if !ok {
					b = &dayBucket{start: day, end: next}
					days[key] = b
				}
				b.worked += worked
				b.evidence = appendUnique(b.evidence, iv.id)
			}
			day = next
		}
	}
	return days
}

func sortedKeys(m map[string]*dayBucket) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func capFinding(in Input, t RuleType, fallback Severity, b *dayBucket, limitMinutes int64) (Finding, bool) {
	limit := time.Duration(limitMinutes) * time.Minute
	if b.worked <= limit {
		return Finding{}, false
	}
	f := newFinding(in, t, fallback, b.start, b.end, b.evidence)
	f.Observed = minutes(b.worked)
	f.Limit = limitMinutes
	f.Overage = minutes(b.worked - limit)
	f.Unit = UnitMinutes
	return f, true
}

// dailyRule sums worked time per local calendar day, splitting periods at
// midnight.
func dailyRule(in Input, ivs []interval, loc *time.Location) []Finding {
	if in.Policy.MaxDailyMinutes <= 0 {
		return nil
	}
	days := splitByDay(ivs, loc)

	var out []Finding
	for _, k := range sortedKeys(days) {
		if f, ok := capFinding(in, RuleMaxHoursDaily, SeverityWarning, days[k], in.Policy.MaxDailyMinutes); ok {
			out = append(out, f)
		}
	}
	return out
}

// weeklyRule sums worked time per ISO week (Monday start) in local time.
func weeklyRule(in Input, ivs []interval, loc *time.Location) []Finding {
	if in.Policy.MaxWeeklyMinutes <= 0 {
		return nil
	}
	days := splitByDay(ivs, loc)

	weeks := map[string]*dayBucket{}
	for _, k := range sortedKeys(days) {
		d := days[k]
		offset := (int(d.start.Weekday()) + 6) % 7
		monday := time.Date(d.start.Year(), d.start.Month(), d.start.Day()-offset, 0, 0, 0, 0, loc)
		key := monday.Format(timerange.DateLayout)
		w, ok := weeks[key]
		if !ok {
			w = &dayBucket{
				start: monday,
				end:   time.Date(monday.Year(), monday.Month(), monday.Day()+7, 0, 0, 0, 0, loc),
			}
			weeks[key] = w
		}
		w.worked += d.worked
		for _, id := range d.evidence {
			w.evidence = appendUnique(w.evidence, id)
		}
	}

	var out []Finding
	for _, k := range sortedKeys(weeks) {
		if f, ok := capFinding(in, RuleMaxHoursWeekly, SeverityCritical, weeks[k], in.Policy.MaxWeeklyMinutes); ok {
			out = append(out, f)
		}
	}
	return out
}

// consecutiveDaysRule emits one finding per run of worked days longer than
// the maximum.
func consecutiveDaysRule(in Input, ivs []interval, loc *time.Location) []Finding {
	limit := in.Policy.MaxConsecutiveDays
	if limit <= 0 {
		return nil
	}
	days := splitByDay(ivs, loc)
	keys := sortedKeys(days)

	var out []Finding
	flush := func(run []*dayBucket) {
		if len(run) <= limit {
			return
		}
		var evidence []string
		for _, d := range run {
			for _, id := range d.evidence {
				evidence = appendUnique(evidence, id)
			}
		}
		f := newFinding(in, RuleConsecutiveDays, SeverityCritical, run[0].start, run[len(run)-1].end, evidence)
		f.Observed = int64(len(run))
		f.Limit = int64(limit)
		f.Overage = int64(len(run) - limit)
		f.Unit = UnitDays
		out = append(out, f)
	}

	var run []*dayBucket
	for _, k := range keys {
		d := days[k]
		if len(run) > 0 && !run[len(run)-1].end.Equal(d.start) {
			flush(run)
			run = nil
		}
		run = append(run, d)
	}
	flush(run)
	return out
}

// presenceRule checks every required-presence window that has fully elapsed
// by the evaluation instant and overlaps the range.
func presenceRule(in Input, ivs []interval, loc *time.Location) []Finding {
	if len(in.Policy.PresenceWindows) == 0 {
		return nil
	}

	var out []Finding
	for day := timerange.StartOfDay(in.Range.Start, loc); day.Before(in.Range.End); day = time.Date(day.Year(), day.Month(), day.Day()+1, 0, 0, 0, 0, loc) {
		for _, w := range in.Policy.PresenceWindows {
			start, end, ok := windowOn(day, w, loc)
			if !ok || end.After(in.EvaluatedAt) || !in.Range.Overlaps(start, &end) {
				continue
			}

			covered, evidence := coverage(ivs, start, end)
			need := end.Sub(start)
			if covered >= need {
				continue
			}
			f := newFinding(in, RulePresence, SeverityWarning, start, end, evidence)
			f.Observed = minutes(covered)
			f.Limit = minutes(need)
			f.Overage = f.Limit - f.Observed
			f.Unit = UnitMinutes
			out = append(out, f)
		}
	}
	return out
}

func windowOn(day time.Time, w policy.PresenceWindow, loc *time.Location) (time.Time, time.Time, bool) {
	wd, ok := policy.ParseWeekday(w.Weekday)
	if !ok || day.Weekday() != wd {
		return time.Time{}, time.Time{}, false
	}
	s, err1 := time.Parse("15:04", w.Start)
	e, err2 := time.Parse("15:04", w.End)
	if err1 != nil || err2 != nil {
		return time.Time{}, time.Time{}, false
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), s.Hour(), s.Minute(), 0, 0, loc)
	end := time.Date(day.Year(), day.Month(), day.Day(), e.Hour(), e.Minute(), 0, 0, loc)
	return start, end, end.After(start)
}

// coverage returns how much of [start, end) the union of ivs covers. ivs
// must be sorted by start.
func coverage(ivs []interval, start, end time.Time) (time.Duration, []string) {
	var (
		covered  time.Duration
		cursor   = start
		evidence []string
	)
	for _, iv := range ivs {
		if !iv.end.After(start) || !iv.start.Before(end) {
			continue
		}
		evidence = appendUnique(evidence, iv.id)
		s, e := iv.start, iv.end
		if s.Before(cursor) {
			s = cursor
		}
		if e.After(end) {
			e = end
		}
		if e.After(s) {
			covered += e.Sub(s)
			cursor = e
		}
	}
	return covered, evidence
}

func appendUnique(ids []string, id string) []string {
	for _, v := range ids {
		if v == id {
			return ids
		}
	}
	return append(ids, id)
}
