package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrOrderNotFound is returned when an order does not exist
	ErrOrderNotFound = errors.New("order not found")

	// ErrNotBuyer is returned when someone other than the buyer acts on an order
	ErrNotBuyer = errors.New("caller is not the buyer of this order")

	// ErrNotSeller is returned when someone other than the seller acts on an order
	ErrNotSeller = errors.New("caller is not the seller of this order")

	// ErrItemNotReserved is returned when the buyer does not hold the item's reservation
	ErrItemNotReserved = errors.New("item is not reserved by the buyer")

	// ErrInvalidTransition is returned when an order status change is not in the
	// transition table, or a compare-and-set update matched no row.
	ErrInvalidTransition = errors.New("invalid order status transition")

	// ErrRefundAlreadyRequested is returned when an order already has an open refund request
	ErrRefundAlreadyRequested = errors.New("refund already requested for this order")

	// ErrPurchaseFailed wraps a transaction failure after the buyer was already
	// debited. The debit is compensated before this error is returned.
	ErrPurchaseFailed = errors.New("purchase could not be completed")
)

// NewInvalidTransitionError creates an error with transition details
func NewInvalidTransitionError(orderID uuid.UUID, from, to OrderStatus) error {
	return fmt.Errorf("%w: order_id=%s, %s -> %s", ErrInvalidTransition, orderID, from, to)
}

// IsNotFoundError checks if error is an order not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrOrderNotFound)
}

// IsInvalidTransitionError checks if error is an invalid transition error
func IsInvalidTransitionError(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}

// IsAuthorizationError checks if error is an ownership or reservation error
func IsAuthorizationError(err error) bool {
	return errors.Is(err, ErrNotBuyer) || errors.Is(err, ErrNotSeller) || errors.Is(err, ErrItemNotReserved)
}
