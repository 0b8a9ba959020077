package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrInsufficientFunds is returned when an append would drive the balance negative
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidKind is returned for an unknown transaction kind
	ErrInvalidKind = errors.New("invalid transaction kind")

	// ErrZeroAmount is returned when the signed amount is zero
	ErrZeroAmount = errors.New("amount must be non-zero")

	// ErrChainConflict is returned when a concurrent append changed the tail
	// between read and write. The caller's view of the chain was stale; the
	// append was not applied.
	ErrChainConflict = errors.New("ledger chain conflict: tail moved")

	// ErrEntryNotFound is returned when a ledger entry does not exist
	ErrEntryNotFound = errors.New("ledger entry not found")

	// ErrChainBroken is returned by integrity verification when a user's
	// chain has a fork, a gap, or a tail balance that disagrees with the
	// signed sum of its entries.
	ErrChainBroken = errors.New("ledger chain integrity violation")
)

// NewInsufficientFundsError creates an error with balance details
func NewInsufficientFundsError(userID uuid.UUID, balance, amount decimal.Decimal) error {
	return fmt.Errorf("%w: user_id=%s, balance=%s, amount=%s", ErrInsufficientFunds, userID, balance, amount)
}

// IsInsufficientFundsError checks if error is an insufficient funds error
func IsInsufficientFundsError(err error) bool {
	return errors.Is(err, ErrInsufficientFunds)
}

// IsChainConflictError checks if error is a chain conflict error
func IsChainConflictError(err error) bool {
	return errors.Is(err, ErrChainConflict)
}

// IsValidationError checks if error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidKind) || errors.Is(err, ErrZeroAmount)
}
