package model

import "errors"

var (
	// ErrRefundRequestNotFound is returned when a refund request does not exist
	ErrRefundRequestNotFound = errors.New("refund request not found")

	// ErrRefundStateConflict is returned when a conditional refund transition matched no row
	ErrRefundStateConflict = errors.New("refund request state conflict")

	// ErrRTSNotFound is returned when a return-to-seller record does not exist
	ErrRTSNotFound = errors.New("return-to-seller record not found")

	// ErrRTSStateConflict is returned when a conditional return-to-seller transition matched no row
	ErrRTSStateConflict = errors.New("return-to-seller record state conflict")

	// ErrNotSellerOfOrder is returned when someone other than the seller decides a refund
	ErrNotSellerOfOrder = errors.New("caller is not the seller of the refunded order")
)

// IsNotFoundError checks if error is a returns-domain not-found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrRefundRequestNotFound) || errors.Is(err, ErrRTSNotFound)
}

// IsStateConflictError checks if error is a returns-domain state conflict
func IsStateConflictError(err error) bool {
	return errors.Is(err, ErrRefundStateConflict) || errors.Is(err, ErrRTSStateConflict)
}
