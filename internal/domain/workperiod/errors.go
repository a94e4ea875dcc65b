package workperiod

import "errors"

var (
	ErrEmployeeIDRequired     = errors.New("employee id is required")
	ErrCorrectionNotFound     = errors.New("correction not found")
	ErrCorrectionNotPending   = errors.New("correction is not pending")
	ErrPeriodNotFound         = errors.New("no work period starts at the referenced clock-in event")
	ErrNothingToCorrect       = errors.New("correction must change the start or the end time")
	ErrCorrectionInverted     = errors.New("corrected end must be after the corrected start")
	ErrReasonRequired         = errors.New("correction reason is required")
	ErrClockInEventIDRequired = errors.New("clock_in_event_id is required")
)
