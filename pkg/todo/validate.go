package todo

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var ErrInvalidInput = errors.New("invalid input")

const (
	ReasonRequired = "required"
	ReasonBlank    = "blank"
	ReasonFormat   = "format"
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s is %s", ErrInvalidInput, e.Field, describe(e.Reason))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

func describe(reason string) string {
	switch reason {
	case ReasonBlank:
		return "blank"
	case ReasonFormat:
		return "malformed"
	default:
		return "missing"
	}
}

// ValidateEmail reports whether s has the local@domain.tld shape. Nothing
// beyond the shape is checked.
func ValidateEmail(s string) bool {
	return emailRegex.MatchString(s)
}

func ValidateTitle(title string) error {
	if title == "" {
		return &ValidationError{Field: ColumnTitle, Reason: ReasonRequired}
	}

	if strings.TrimSpace(title) == "" {
		return &ValidationError{Field: ColumnTitle, Reason: ReasonBlank}
	}

	return nil
}

// ValidateCreate checks the input of a create. Missing fields are reported
// before a malformed email.
func ValidateCreate(title, email string) error {
	if title == "" {
		return &ValidationError{Field: ColumnTitle, Reason: ReasonRequired}
	}

	if email == "" {
		return &ValidationError{Field: ColumnOwnerEmail, Reason: ReasonRequired}
	}

	if !ValidateEmail(email) {
		return &ValidationError{Field: ColumnOwnerEmail, Reason: ReasonFormat}
	}

	return ValidateTitle(title)
}
