package model

import "errors"

var (
	// ErrWarehouseNotFound is returned when a warehouse does not exist
	ErrWarehouseNotFound = errors.New("warehouse not found")

	// ErrStockRecordNotFound is returned when no stock record exists for an item
	ErrStockRecordNotFound = errors.New("stock record not found")

	// ErrStockStateConflict is returned when a conditional stock flip matched no row
	ErrStockStateConflict = errors.New("stock record state conflict")

	// ErrIntakeNotFound is returned when an intake record does not exist
	ErrIntakeNotFound = errors.New("intake record not found")

	// ErrIntakeStateConflict is returned when a conditional intake transition matched no row
	ErrIntakeStateConflict = errors.New("intake record state conflict")

	// ErrNoWarehouseAvailable is returned when warehouse selection finds no candidate
	ErrNoWarehouseAvailable = errors.New("no warehouse available")
)

// IsStateConflictError checks if error is a stock or intake state conflict
func IsStateConflictError(err error) bool {
	return errors.Is(err, ErrStockStateConflict) || errors.Is(err, ErrIntakeStateConflict)
}

// IsNotFoundError checks if error is any warehouse-domain not-found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrWarehouseNotFound) ||
		errors.Is(err, ErrStockRecordNotFound) ||
		errors.Is(err, ErrIntakeNotFound)
}
