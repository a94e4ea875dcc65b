package compliance

import (
	"sort"
	"time"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/workperiod"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/digest"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/policy"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/timerange"
)

const findingDomain = "timeledger/finding/v1"

// Input is everything one evaluation may look at. EvaluatedAt is the only
// clock the engine reads.
type Input struct {
	EmployeeID  string
	Range       timerange.Range
	Periods     []workperiod.WorkPeriod
	Exceptions  []Exception
	Policy      policy.Policy
	EvaluatedAt time.Time
}

type Result struct {
	Findings []Finding
	// AppliedExceptionIDs lists, sorted, the exceptions that covered at
	// least one finding.
	AppliedExceptionIDs []string
}

// LookbackDays is how far before a requested range periods must be loaded so
// weekly and consecutive-day rules see whole runs.
func LookbackDays(p policy.Policy) int {
	if p.MaxConsecutiveDays+1 > 7 {
		return p.MaxConsecutiveDays + 1
	}
	return 7
}

// interval is a period resolved against the evaluation instant.
type interval struct {
	id     string
	start  time.Time
	end    time.Time
	closed bool
}

// Evaluate runs every enabled rule over in.Periods and keeps findings whose
// window overlaps in.Range. It is a pure function of its input.
func Evaluate(in Input) Result {
	loc := in.Policy.Location()
	intervals := resolve(in.Periods, in.EvaluatedAt)

	var raw []Finding
	raw = append(raw, restRule(in, intervals)...)
	raw = append(raw, dailyRule(in, intervals, loc)...)
	raw = append(raw, weeklyRule(in, intervals, loc)...)
	raw = append(raw, consecutiveDaysRule(in, intervals, loc)...)
	raw = append(raw, presenceRule(in, intervals, loc)...)

	var (
		res     Result
		applied = map[string]bool{}
	)
	for _, f := range raw {
		if !in.Range.Overlaps(f.WindowStart, &f.WindowEnd) {
			continue
		}
		if ex, ok := coveringException(in.Exceptions, f, in.EvaluatedAt); ok {
			applied[ex.ID] = true
			if !in.Policy.ReportWaived {
				continue
			}
			exID := ex.ID
			f.Severity = SeverityInfo
			f.Waived = true
			f.ExceptionID = &exID
		}
		res.Findings = append(res.Findings, f)
	}

	sort.SliceStable(res.Findings, func(i, j int) bool {
		a, b := res.Findings[i], res.Findings[j]
		if !a.WindowStart.Equal(b.WindowStart) {
			return a.WindowStart.Before(b.WindowStart)
		}
		return a.Type < b.Type
	})
	for id := range applied {
		res.AppliedExceptionIDs = append(res.AppliedExceptionIDs, id)
	}
	sort.Strings(res.AppliedExceptionIDs)
	return res
}

// coveringException picks the earliest-starting covering exception so the
// choice does not depend on input order.
func coveringException(exceptions []Exception, f Finding, at time.Time) (Exception, bool) {
	var (
		best  Exception
		found bool
	)
	for _, e := range exceptions {
		if !e.Covers(f, at) {
			continue
		}
		if !found || e.WindowStart.Before(best.WindowStart) ||
			(e.WindowStart.Equal(best.WindowStart) && e.ID < best.ID) {
			best, found = e, true
		}
	}
	return best, found
}

// resolve sorts periods by start and closes active ones at the evaluation
// instant. Periods with no elapsed time are dropped.
func resolve(periods []workperiod.WorkPeriod, at time.Time) []interval {
	out := make([]interval, 0, len(periods))
	for _, p := range periods {
		iv := interval{
			id:     p.ID,
			start:  p.StartTime,
			end:    p.EndOr(at),
			closed: p.EndTime != nil,
		}
		if !iv.end.After(iv.start) {
			continue
		}
		out = append(out, iv)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].start.Equal(out[j].start) {
			return out[i].start.Before(out[j].start)
		}
		return out[i].id < out[j].id
	})
	return out
}

func newFinding(in Input, t RuleType, fallback Severity, start, end time.Time, evidence []string) Finding {
	return Finding{
		ID:                    FindingID(in.EmployeeID, t, start, end),
		EmployeeID:            in.EmployeeID,
		Type:                  t,
		Severity:              Severity(in.Policy.SeverityFor(string(t), string(fallback))),
		WindowStart:           start,
		WindowEnd:             end,
		EvidenceWorkPeriodIDs: evidence,
	}
}

// FindingID derives the stable id of a finding.
func FindingID(employeeID string, t RuleType, start, end time.Time) string {
	return digest.New(findingDomain).
		Identifier(employeeID).
		String(string(t)).
		Time(start).
		Time(end).
		Hex()
}

func minutes(d time.Duration) int64 {
	return int64(d / time.Minute)
}
