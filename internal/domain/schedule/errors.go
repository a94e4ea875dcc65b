package schedule

import "errors"

var (
	ErrShiftNotFound      = errors.New("shift not found")
	ErrOverlappingShift   = errors.New("employee already has a shift in this interval")
	ErrShiftTooLong       = errors.New("shift must not exceed 24 hours")
	ErrInvalidShiftTime   = errors.New("shift end must be after its start")
	ErrEmployeeIDRequired = errors.New("employee ID is required")
	ErrInvalidDateFormat  = errors.New("invalid date format, use YYYY-MM-DD")
)
