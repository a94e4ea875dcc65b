package compliance

import "time"

// RuleType names a compliance rule.
type RuleType string

const (
	RuleRestPeriod      RuleType = "rest_period_insufficient"
	RuleMaxHoursDaily   RuleType = "max_hours_daily_exceeded"
	RuleMaxHoursWeekly  RuleType = "max_hours_weekly_exceeded"
	RuleConsecutiveDays RuleType = "consecutive_days_exceeded"
	RulePresence        RuleType = "presence_requirement"
)

var RuleTypeValues = []string{
	string(RuleRestPeriod),
	string(RuleMaxHoursDaily),
	string(RuleMaxHoursWeekly),
	string(RuleConsecutiveDays),
	string(RulePresence),
}

func (t RuleType) Valid() bool {
	for _, v := range RuleTypeValues {
		if string(t) == v {
			return true
		}
	}
	return false
}

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

var SeverityValues = []string{
	string(SeverityInfo),
	string(SeverityWarning),
	string(SeverityCritical),
}

// Unit is the unit of a finding's observed, limit and overage values.
type Unit string

const (
	UnitMinutes Unit = "minutes"
	UnitDays    Unit = "days"
)

// Finding is one detected rule violation. Findings are derived on every
// evaluation; the same (employee, type, window) always gets the same ID so a
// later run supersedes an earlier one.
type Finding struct {
	ID                    string
	EmployeeID            string
	Type                  RuleType
	Severity              Severity
	WindowStart           time.Time
	WindowEnd             time.Time
	EvidenceWorkPeriodIDs []string
	Observed              int64
	Limit                 int64
	Overage               int64 // amount over a cap, or short of a minimum
	Unit                  Unit
	Waived                bool
	ExceptionID           *string
}

type ExceptionKind string

const (
	// ExceptionWaiver excuses a violation after the fact.
	ExceptionWaiver ExceptionKind = "waiver"
	// ExceptionPreApproval allows a planned violation. It expires unless a
	// publish consumes it within its TTL.
	ExceptionPreApproval ExceptionKind = "pre_approval"
)

var ExceptionKindValues = []string{
	string(ExceptionWaiver),
	string(ExceptionPreApproval),
}

type ExceptionStatus string

const (
	ExceptionPending  ExceptionStatus = "pending"
	ExceptionApproved ExceptionStatus = "approved"
	ExceptionRejected ExceptionStatus = "rejected"
	ExceptionExpired  ExceptionStatus = "expired"
)

var ExceptionStatusValues = []string{
	string(ExceptionPending),
	string(ExceptionApproved),
	string(ExceptionRejected),
	string(ExceptionExpired),
}

// Exception is a manager decision that a rule may be broken for one
// employee inside a window.
type Exception struct {
	ID          string
	EmployeeID  string
	CompanyID   string
	RuleType    RuleType
	Kind        ExceptionKind
	WindowStart time.Time
	WindowEnd   time.Time
	Status      ExceptionStatus
	Reason      string
	RequestedBy string
	ReviewedBy  *string
	ReviewedAt  *time.Time
	ExpiresAt   *time.Time
	ConsumedAt  *time.Time
	CreatedAt   time.Time
}

// ExpiredAt reports whether the exception lapsed by at. Consumed
// pre-approvals keep covering the window they were consumed for.
func (e Exception) ExpiredAt(at time.Time) bool {
	if e.Status == ExceptionExpired {
		return true
	}
	if e.ExpiresAt == nil || e.ConsumedAt != nil {
		return false
	}
	return !at.Before(*e.ExpiresAt)
}

// Covers reports whether e suppresses f at the evaluation instant at.
func (e Exception) Covers(f Finding, at time.Time) bool {
	return e.Status == ExceptionApproved &&
		e.EmployeeID == f.EmployeeID &&
		e.RuleType == f.Type &&
		!e.WindowStart.After(f.WindowStart) &&
		!e.WindowEnd.Before(f.WindowEnd) &&
		!e.ExpiredAt(at)
}

// Summary counts findings for the publish gate. Total excludes waived
// findings.
type Summary struct {
	Total           int              `json:"total"`
	Waived          int              `json:"waived"`
	RestTime        int              `json:"rest_time"`
	MaxHoursDaily   int              `json:"max_hours_daily"`
	MaxHoursWeekly  int              `json:"max_hours_weekly"`
	ConsecutiveDays int              `json:"consecutive_days"`
	Presence        int              `json:"presence"`
	BySeverity      map[Severity]int `json:"by_severity"`
}

// Summarize counts findings. Waived findings only raise Waived.
func Summarize(findings []Finding) Summary {
	s := Summary{BySeverity: map[Severity]int{}}
	for _, f := range findings {
		if f.Waived {
			s.Waived++
			continue
		}
		s.Total++
		s.BySeverity[f.Severity]++
		switch f.Type {
		case RuleRestPeriod:
			s.RestTime++
		case RuleMaxHoursDaily:
			s.MaxHoursDaily++
		case RuleMaxHoursWeekly:
			s.MaxHoursWeekly++
		case RuleConsecutiveDays:
			s.ConsecutiveDays++
		case RulePresence:
			s.Presence++
		}
	}
	return s
}

// Add merges o into s.
func (s Summary) Add(o Summary) Summary {
	out := Summary{
		Total:           s.Total + o.Total,
		Waived:          s.Waived + o.Waived,
		RestTime:        s.RestTime + o.RestTime,
		MaxHoursDaily:   s.MaxHoursDaily + o.MaxHoursDaily,
		MaxHoursWeekly:  s.MaxHoursWeekly + o.MaxHoursWeekly,
		ConsecutiveDays: s.ConsecutiveDays + o.ConsecutiveDays,
		Presence:        s.Presence + o.Presence,
		BySeverity:      map[Severity]int{},
	}
	for k, v := range s.BySeverity {
		out.BySeverity[k] += v
	}
	for k, v := range o.BySeverity {
		out.BySeverity[k] += v
	}
	return out
}

// CountOf returns the per-type count.
func (s Summary) CountOf(t RuleType) int {
	switch t {
	case RuleRestPeriod:
		return s.RestTime
	case RuleMaxHoursDaily:
		return s.MaxHoursDaily
	case RuleMaxHoursWeekly:
		return s.MaxHoursWeekly
	case RuleConsecutiveDays:
		return s.ConsecutiveDays
	case RulePresence:
		return s.Presence
	}
	return 0
}
