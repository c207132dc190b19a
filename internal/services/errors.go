package services

import (
	"errors"
	"fmt"
)

// Callback rejection reasons. Handlers map them to HTTP status codes with errors.Is.
var (
	ErrValidation   = errors.New("invalid request")
	ErrUnauthorized = errors.New("authentication failed")
	ErrNotFound     = errors.New("request not found")
	ErrConflict     = errors.New("request already exists")
)

func validationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func unauthorizedf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnauthorized, fmt.Sprintf(format, args...))
}

// NotificationError describes a failed dispatch. It is logged and never returned to callback callers.
type NotificationError struct {
	RequestID string
	Gateway   string
	Err       error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notify %s via %s: %v", e.RequestID, e.Gateway, e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }
