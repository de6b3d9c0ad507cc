package service

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrSessionExpired     = errors.New("session expired or displaced")
	ErrAlreadyLoggedIn    = errors.New("user already has an active session")
	ErrTooManyAttempts    = errors.New("too many login attempts")

	ErrMissingFields        = errors.New("required fields are missing")
	ErrInvalidTimeRange     = errors.New("start time must be before end time")
	ErrOutsideBusinessHours = errors.New("booking is outside business hours")

	ErrSelfDelete = errors.New("cannot delete your own account")
)
