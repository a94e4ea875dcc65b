package auth

import "errors"

var (
	ErrInvalidToken          = errors.New("invalid or expired token")
	ErrManagerAccessRequired = errors.New("manager or owner role required")
	ErrCompanyIDRequired     = errors.New("token carries no company")
	ErrEmployeeAccessDenied  = errors.New("not allowed to act for this employee")
)
