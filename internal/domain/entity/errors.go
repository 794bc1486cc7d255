package entity

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain layer operations.
var (
	// ErrNotFound indicates that a requested guild was not found
	ErrNotFound = errors.New("guild not found")

	// ErrInvalidPageRef indicates that a Buildin page reference could not
	// be resolved to a page id
	ErrInvalidPageRef = errors.New("invalid Buildin page reference")
)

// ValidationError represents a validation error with detailed field information.
// It implements the error interface and provides context about which field failed validation.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}
