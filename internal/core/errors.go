package core

import (
	"errors"
	"fmt"
)

var (
	ErrValidation    = errors.New("invalid card data")
	ErrDuplicateName = errors.New("duplicate card name")
	ErrNotFound      = errors.New("card not found")
)

// ValidationError reports a missing or unusable field in raw card data.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// DuplicateNameError returns an error matching ErrDuplicateName for the given card.
func DuplicateNameError(name string) error {
	return fmt.Errorf("a card named '%s' already exists: %w", name, ErrDuplicateName)
}

// NotFoundError returns an error matching ErrNotFound for the given card.
func NotFoundError(name string) error {
	return fmt.Errorf("no card found named '%s': %w", name, ErrNotFound)
}
