package workperiod

import (
	"sort"
	"time"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/ledger"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/timerange"
)

// Pair replays a verified chain into work periods, matching each clock-in
// with the next clock-out. An unmatched trailing clock-in yields one active
// period.
func Pair(events []ledger.TimeEvent) []WorkPeriod {
	var (
		periods []WorkPeriod
		open    *ledger.TimeEvent
	)
	for i := range events {
		e := events[i]
		switch e.Kind {
		case ledger.KindClockIn:
			if open != nil {
				// A verified chain never holds two open clock-ins; keep the
				// earlier one as an unclosed period rather than dropping it.
				periods = append(periods, activePeriod(*open))
			}
			open = &e
		case ledger.KindClockOut:
			if open == nil {
				continue
			}
			periods = append(periods, closedPeriod(*open, e))
			open = nil
		}
	}
	if open != nil {
		periods = append(periods, activePeriod(*open))
	}
	return periods
}

func activePeriod(in ledger.TimeEvent) WorkPeriod {
	return WorkPeriod{
		ID:             in.ID,
		EmployeeID:     in.EmployeeID,
		ClockInEventID: in.ID,
		StartTime:      in.Timestamp,
		IsActive:       true,
		Source:         SourceLedger,
	}
}

func closedPeriod(in, out ledger.TimeEvent) WorkPeriod {
	outID := out.ID
	end := out.Timestamp
	return WorkPeriod{
		ID:              in.ID,
		EmployeeID:      in.EmployeeID,
		ClockInEventID:  in.ID,
		ClockOutEventID: &outID,
		StartTime:       in.Timestamp,
		EndTime:         &end,
		DurationMinutes: Minutes(in.Timestamp, end),
		Source:          SourceLedger,
	}
}

// Minutes returns the whole minutes between two instants.
func Minutes(start, end time.Time) int64 {
	if !end.After(start) {
		return 0
	}
	return int64(end.Sub(start) / time.Minute)
}

// ApplyCorrections overlays approved corrections in review order. Later
// approvals win. Periods are returned as new values; the input is untouched.
func ApplyCorrections(periods []WorkPeriod, corrections []Correction) []WorkPeriod {
	approved := make([]Correction, 0, len(corrections))
	for _, c := range corrections {
		if c.Status == CorrectionApproved {
			approved = append(approved, c)
		}
	}
	sort.SliceStable(approved, func(i, j int) bool {
		return reviewedAt(approved[i]).Before(reviewedAt(approved[j]))
	})

	byClockIn := make(map[string][]Correction, len(approved))
	for _, c := range approved {
		byClockIn[c.ClockInEventID] = append(byClockIn[c.ClockInEventID], c)
	}

	out := make([]WorkPeriod, len(periods))
	for i, p := range periods {
		p.Overrides = append([]FieldOverride(nil), p.Overrides...)
		for _, c := range byClockIn[p.ClockInEventID] {
			p = applyCorrection(p, c)
		}
		out[i] = p
	}
	return out
}

func applyCorrection(p WorkPeriod, c Correction) WorkPeriod {
	if c.CorrectedStart != nil {
		original := p.StartTime
		p.Overrides = append(p.Overrides, FieldOverride{
			Field:        FieldStartTime,
			Original:     &original,
			Corrected:    *c.CorrectedStart,
			CorrectionID: c.ID,
		})
		p.StartTime = *c.CorrectedStart
	}
	if c.CorrectedEnd != nil {
		p.Overrides = append(p.Overrides, FieldOverride{
			Field:        FieldEndTime,
			Original:     p.EndTime,
			Corrected:    *c.CorrectedEnd,
			CorrectionID: c.ID,
		})
		end := *c.CorrectedEnd
		p.EndTime = &end
		p.IsActive = false
	}
	if p.EndTime != nil {
		p.DurationMinutes = Minutes(p.StartTime, *p.EndTime)
	}
	return p
}

func reviewedAt(c Correction) time.Time {
	if c.ReviewedAt == nil {
		return c.CreatedAt
	}
	return *c.ReviewedAt
}

// Within keeps the periods that overlap r, preserving order.
func Within(periods []WorkPeriod, r timerange.Range) []WorkPeriod {
	var kept []WorkPeriod
	for _, p := range periods {
		if r.Overlaps(p.StartTime, p.EndTime) {
			kept = append(kept, p)
		}
	}
	return kept
}

// Planned projects a future shift as a closed period so rules can judge a
// schedule before anyone clocks in.
func Planned(shiftID, employeeID string, start, end time.Time) WorkPeriod {
	e := end
	return WorkPeriod{
		ID:              shiftID,
		EmployeeID:      employeeID,
		StartTime:       start,
		EndTime:         &e,
		DurationMinutes: Minutes(start, end),
		Source:          SourceSchedule,
	}
}
