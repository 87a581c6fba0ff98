package usecase

import (
	"github.com/pkg/errors"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrNotificationFailed = errors.New("failed to send notification")
	ErrSMSNotConfigured   = errors.New("sms provider is not configured")
)

// ValidationError is returned for input the client has to fix. It matches ErrInvalidInput.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

func invalidInput(message string) error {
	return &ValidationError{Message: message}
}
