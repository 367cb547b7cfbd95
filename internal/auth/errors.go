package auth

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

var (
	ErrMissingField       = errors.New("missing required field")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrIdentityTaken      = errors.New("username or email already exists")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDeactivated = errors.New("account is deactivated")
	ErrAccountNotFound    = errors.New("user not found or inactive")
	ErrTokenExpired       = errors.New("token has expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenWrongType     = errors.New("invalid token type")
	ErrUnauthorized       = errors.New("authorization header required")
	ErrForbidden          = errors.New("admin access required")

	// ErrDuplicateIdentity is returned by a CredentialStore on a unique violation.
	ErrDuplicateIdentity = errors.New("duplicate identity")
)

// MissingFieldError names the fields that were absent.
type MissingFieldError struct {
	Fields []string
}

func (e MissingFieldError) Error() string {
	if len(e.Fields) == 1 {
		return e.Fields[0] + " is required"
	}
	return strings.Join(e.Fields, ", ") + " are required"
}

func (e MissingFieldError) Unwrap() error {
	return ErrMissingField
}

type WeakPasswordError struct {
	Rule string
}

func (e WeakPasswordError) Error() string {
	return e.Rule
}

type LockedError struct {
	Until     time.Time
	Remaining time.Duration
}

func (e LockedError) Error() string {
	return fmt.Sprintf("Account temporarily locked. Try again in %d minutes", e.RemainingMinutes())
}

func (e LockedError) RemainingMinutes() int {
	return ceilMinutes(e.Remaining)
}

func ceilMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Minutes()))
}
