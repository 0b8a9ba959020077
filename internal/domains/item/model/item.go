package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemStatus represents the business state of a sellable unit.
type ItemStatus string

const (
	// ItemStatusPendingIntake: consignment item waiting for warehouse pickup
	ItemStatusPendingIntake ItemStatus = "pending_intake"
	// ItemStatusListed: on the shelf, reservable and purchasable
	ItemStatusListed ItemStatus = "listed"
	// ItemStatusSold: a purchase transaction completed for this unit
	ItemStatusSold ItemStatus = "sold"
	// ItemStatusOffShelf: withdrawn by the seller or the platform
	ItemStatusOffShelf ItemStatus = "off_shelf"
)

func (s ItemStatus) IsValid() bool {
	switch s {
	case ItemStatusPendingIntake, ItemStatusListed, ItemStatusSold, ItemStatusOffShelf:
		return true
	}
	return false
}

func (s ItemStatus) String() string {
	return string(s)
}

// Item represents one sellable unit of inventory. Every item is a single
// physical unit, there is no quantity column: exclusivity is enforced by the
// reservation manager and the conditional status flips below.
type Item struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	SellerID      uuid.UUID       `json:"seller_id" db:"seller_id"`
	Title         string          `json:"title" db:"title"`
	Price         decimal.Decimal `json:"price" db:"price"`
	IsConsignment bool            `json:"is_consignment" db:"is_consignment"`
	Status        ItemStatus      `json:"status" db:"status"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// IsListable reports whether the item can be reserved and purchased.
func (i *Item) IsListable() bool {
	return i.Status == ItemStatusListed
}
