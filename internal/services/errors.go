package services

import "errors"

var (
	ErrProfileNotFound = errors.New("Profile not found")
	ErrModelNotFound   = errors.New("Model not found")
	ErrUsernameTaken   = errors.New("Username already taken")
)

// ValidationError is returned when input is rejected before any backend call
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
