package category

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("category not found")
	ErrMainNotFound = errors.New("main category not found")
)

// ValidationError is a client error with a user-facing message.
type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...any) error {
	return ValidationError{Message: fmt.Sprintf(format, args...)}
}
