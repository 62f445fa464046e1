package services

import "errors"

var (
	// ErrInvalidCredentials is returned when a login does not match a user.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrForbidden is returned when the caller does not own the record.
	ErrForbidden = errors.New("forbidden")
)
