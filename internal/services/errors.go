package services

import "errors"

// Errors returned by the services. Handlers map them onto HTTP statuses;
// anything else is an internal failure.
var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("user already exists")
	ErrTaskNotFound       = errors.New("task not found")
)
