package schedule

import "time"

type ShiftStatus string

const (
	ShiftStatusDraft     ShiftStatus = "draft"
	ShiftStatusPublished ShiftStatus = "published"
)

// Shift is one planned work interval. Publishing moves draft shifts to
// published; any later edit returns the shift to draft.
type Shift struct {
	ID          string
	CompanyID   string
	EmployeeID  string
	StartTime   time.Time
	EndTime     time.Time
	Status      ShiftStatus
	PublishedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
