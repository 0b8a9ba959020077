package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrItemNotFound is returned when the item does not exist
	ErrItemNotFound = errors.New("item not found")

	// ErrItemStateConflict is returned when a conditional status flip found the
	// item in a different state than expected
	ErrItemStateConflict = errors.New("item is not in the expected state")
)

// NewItemNotFoundError creates a detailed not found error
func NewItemNotFoundError(id uuid.UUID) error {
	return fmt.Errorf("%w: id=%s", ErrItemNotFound, id)
}

// IsNotFoundError checks if error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrItemNotFound)
}

// IsStateConflictError checks if error is a state conflict error
func IsStateConflictError(err error) bool {
	return errors.Is(err, ErrItemStateConflict)
}
