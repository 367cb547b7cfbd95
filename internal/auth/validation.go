package auth

import (
	"fmt"
	"regexp"
	"unicode"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

const (
	defaultPasswordMinLength = 8
	// bcrypt ignores input past this many bytes and x/crypto rejects it.
	maxPasswordBytes = 72
)

func ValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// ValidatePassword reports the first strength rule the password breaks.
func ValidatePassword(password string, minLength int) error {
	if minLength <= 0 {
		minLength = defaultPasswordMinLength
	}
	if len([]rune(password)) < minLength {
		return WeakPasswordError{Rule: fmt.Sprintf("Password must be at least %d characters long", minLength)}
	}
	if len(password) > maxPasswordBytes {
		return WeakPasswordError{Rule: fmt.Sprintf("Password must be at most %d bytes long", maxPasswordBytes)}
	}

	var upper, lower, digit bool
	for _, c := range password {
		switch {
		case unicode.IsUpper(c):
			upper = true
		case unicode.IsLower(c):
			lower = true
		case unicode.IsDigit(c):
			digit = true
		}
	}

	if !upper {
		return WeakPasswordError{Rule: "Password must contain at least one uppercase letter"}
	}
	if !lower {
		return WeakPasswordError{Rule: "Password must contain at least one lowercase letter"}
	}
	if !digit {
		return WeakPasswordError{Rule: "Password must contain at least one digit"}
	}

	return nil
}
