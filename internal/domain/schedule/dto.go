package schedule

import (
	"time"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/validator"
)

const MaxShiftLength = 24 * time.Hour

type CreateShiftRequest struct {
	CompanyID  string    `json:"-"`
	EmployeeID string    `json:"employee_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
}

func (r *CreateShiftRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}
	errs = append(errs, validateInterval(r.StartTime, r.EndTime)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type UpdateShiftRequest struct {
	ID         string     `json:"-"`
	CompanyID  string     `json:"-"`
	EmployeeID *string    `json:"employee_id,omitempty"`
	StartTime  *time.Time `json:"start_time,omitempty"`
	EndTime    *time.Time `json:"end_time,omitempty"`
}

func (r *UpdateShiftRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.EmployeeID != nil && validator.IsEmpty(*r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id must not be empty",
		})
	}
	if r.EmployeeID == nil && r.StartTime == nil && r.EndTime == nil {
		errs = append(errs, validator.ValidationError{
			Field:   "body",
			Message: "at least one of employee_id, start_time, end_time is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Apply returns s with the requested changes. The result still needs its
// interval validated.
func (r *UpdateShiftRequest) Apply(s Shift) Shift {
	if r.EmployeeID != nil {
		s.EmployeeID = *r.EmployeeID
	}
	if r.StartTime != nil {
		s.StartTime = r.StartTime.UTC()
	}
	if r.EndTime != nil {
		s.EndTime = r.EndTime.UTC()
	}
	return s
}

func validateInterval(start, end time.Time) validator.ValidationErrors {
	var errs validator.ValidationErrors
	if start.IsZero() {
		errs = append(errs, validator.ValidationError{Field: "start_time", Message: "start_time is required"})
	}
	if end.IsZero() {
		errs = append(errs, validator.ValidationError{Field: "end_time", Message: "end_time is required"})
	}
	if len(errs) > 0 {
		return errs
	}
	if !end.After(start) {
		errs = append(errs, validator.ValidationError{Field: "end_time", Message: ErrInvalidShiftTime.Error()})
	} else if end.Sub(start) > MaxShiftLength {
		errs = append(errs, validator.ValidationError{Field: "end_time", Message: ErrShiftTooLong.Error()})
	}
	return errs
}

// ValidateInterval checks a merged shift interval.
func ValidateInterval(start, end time.Time) error {
	if errs := validateInterval(start, end); len(errs) > 0 {
		return errs
	}
	return nil
}

type ShiftFilter struct {
	CompanyID  string
	EmployeeID string
	StartDate  string
	EndDate    string
}

func (f *ShiftFilter) Validate() error {
	var errs validator.ValidationErrors

	if _, ok := validator.IsValidDate(f.StartDate); !ok {
		errs = append(errs, validator.ValidationError{Field: "start_date", Message: ErrInvalidDateFormat.Error()})
	}
	if _, ok := validator.IsValidDate(f.EndDate); !ok {
		errs = append(errs, validator.ValidationError{Field: "end_date", Message: ErrInvalidDateFormat.Error()})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ShiftResponse struct {
	ID          string      `json:"id"`
	CompanyID   string      `json:"company_id"`
	EmployeeID  string      `json:"employee_id"`
	StartTime   time.Time   `json:"start_time"`
	EndTime     time.Time   `json:"end_time"`
	Status      ShiftStatus `json:"status"`
	PublishedAt *time.Time  `json:"published_at"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func ToResponse(s Shift) ShiftResponse {
	return ShiftResponse{
		ID:          s.ID,
		CompanyID:   s.CompanyID,
		EmployeeID:  s.EmployeeID,
		StartTime:   s.StartTime,
		EndTime:     s.EndTime,
		Status:      s.Status,
		PublishedAt: s.PublishedAt,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}
