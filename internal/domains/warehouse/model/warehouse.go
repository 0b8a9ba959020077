package model

import (
	"time"

	"github.com/google/uuid"
)

// Warehouse is a platform storage site for consignment items.
type Warehouse struct {
	ID               uuid.UUID `json:"id" db:"id"`
	Name             string    `json:"name" db:"name"`
	FormattedAddress string    `json:"formatted_address" db:"formatted_address"`
	Latitude         float64   `json:"latitude" db:"latitude"`
	Longitude        float64   `json:"longitude" db:"longitude"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// StockStatus tracks whether an item is physically on a shelf.
type StockStatus string

const (
	StockIn  StockStatus = "in"
	StockOut StockStatus = "out"
)

// StockRecord links one item to the warehouse and shelf slot holding it.
// An item has at most one record with status "in" at a time.
type StockRecord struct {
	ID          uuid.UUID   `json:"id" db:"id"`
	ItemID      uuid.UUID   `json:"item_id" db:"item_id"`
	WarehouseID uuid.UUID   `json:"warehouse_id" db:"warehouse_id"`
	Status      StockStatus `json:"status" db:"status"`
	ShelfSlot   string      `json:"shelf_slot" db:"shelf_slot"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

// IntakeStatus is the lifecycle of a seller-to-warehouse pickup.
type IntakeStatus string

const (
	IntakeRequested IntakeStatus = "requested"
	IntakeInTransit IntakeStatus = "in_transit"
	IntakeReceived  IntakeStatus = "received"
)

// IntakeRecord is the owning record of a pickup-service run: a courier
// collects the item from the seller and delivers it to a warehouse.
type IntakeRecord struct {
	ID            uuid.UUID    `json:"id" db:"id"`
	ItemID        uuid.UUID    `json:"item_id" db:"item_id"`
	SellerID      uuid.UUID    `json:"seller_id" db:"seller_id"`
	WarehouseID   uuid.UUID    `json:"warehouse_id" db:"warehouse_id"`
	PickupAddress string       `json:"pickup_address" db:"pickup_address"`
	Status        IntakeStatus `json:"status" db:"status"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at" db:"updated_at"`
}
