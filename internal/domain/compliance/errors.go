package compliance

import "errors"

var (
	ErrExceptionNotFound   = errors.New("compliance exception not found")
	ErrExceptionNotPending = errors.New("compliance exception is not pending")
	ErrInvalidRuleType     = errors.New("invalid compliance rule type")
	ErrInvalidKind         = errors.New("exception kind must be 'waiver' or 'pre_approval'")
	ErrInvalidWindow       = errors.New("exception window must end after it starts")
	ErrEmployeeIDRequired  = errors.New("employee ID is required")
	ErrCompanyIDRequired   = errors.New("company ID is required")
)
