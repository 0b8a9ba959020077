package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrAlreadyReserved is returned when another buyer holds a live reservation
	ErrAlreadyReserved = errors.New("item is already reserved")

	// ErrNotHeld is returned when the caller does not hold the reservation
	ErrNotHeld = errors.New("reservation is not held by caller")

	// ErrItemNotListable is returned when the item is not in a reservable business state
	ErrItemNotListable = errors.New("item is not in a listable state")
)

// NewAlreadyReservedError creates a detailed already-reserved error
func NewAlreadyReservedError(itemID uuid.UUID) error {
	return fmt.Errorf("%w: item_id=%s", ErrAlreadyReserved, itemID)
}

// IsAlreadyReservedError checks if error is an already-reserved error
func IsAlreadyReservedError(err error) bool {
	return errors.Is(err, ErrAlreadyReserved)
}

// IsNotHeldError checks if error is a not-held error
func IsNotHeldError(err error) bool {
	return errors.Is(err, ErrNotHeld)
}
