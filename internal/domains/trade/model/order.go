package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order record.
type OrderStatus string

const (
	// PENDING_SHIPMENT: consignment sale, warehouse has not shipped yet.
	StatusPendingShipment OrderStatus = "PENDING_SHIPMENT"
	// PENDING_RECEIPT: initial status of a direct sale, or a consignment
	// shipment picked up by the courier.
	StatusPendingReceipt OrderStatus = "PENDING_RECEIPT"
	// DELIVERED: consignment shipment arrived, awaiting buyer confirmation.
	StatusDelivered OrderStatus = "DELIVERED"
	// CONFIRMED: buyer confirmed receipt, seller has been credited.
	StatusConfirmed OrderStatus = "CONFIRMED"

	StatusReturnInitiated         OrderStatus = "RETURN_INITIATED"
	StatusReturnedToWarehouse     OrderStatus = "RETURNED_TO_WAREHOUSE"
	StatusReturnedToSeller        OrderStatus = "RETURNED_TO_SELLER"
	StatusReturnCompleted         OrderStatus = "RETURN_COMPLETED"
	StatusReturnNegotiationFailed OrderStatus = "RETURN_NEGOTIATION_FAILED"
)

// transitions is the full order state machine. Anything not listed is
// forbidden.
var transitions = map[OrderStatus][]OrderStatus{
	// PENDING_SHIPMENT -> DELIVERED covers a shipment whose pickup-side
	// order update was lost; delivery still lands the order exactly once.
	StatusPendingShipment: {StatusPendingReceipt, StatusDelivered, StatusReturnInitiated},
	StatusPendingReceipt:  {StatusDelivered, StatusConfirmed, StatusReturnInitiated},
	StatusDelivered:       {StatusConfirmed, StatusReturnInitiated},
	StatusReturnInitiated: {
		StatusReturnedToWarehouse,
		StatusReturnedToSeller,
		StatusReturnNegotiationFailed,
	},
	StatusReturnedToWarehouse: {StatusReturnCompleted},
	StatusReturnedToSeller:    {StatusReturnCompleted},
}

// CanTransition reports whether from -> to is a legal order transition.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition leaves the status.
func (s OrderStatus) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// IsRefundable reports whether the buyer may still open a refund request.
func (s OrderStatus) IsRefundable() bool {
	return CanTransition(s, StatusReturnInitiated)
}

// OrderRecord is the trade between one buyer and one seller over one item.
type OrderRecord struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	ItemID        uuid.UUID       `json:"item_id" db:"item_id"`
	BuyerID       uuid.UUID       `json:"buyer_id" db:"buyer_id"`
	SellerID      uuid.UUID       `json:"seller_id" db:"seller_id"`
	Price         decimal.Decimal `json:"price" db:"price"`
	IsConsignment bool            `json:"is_consignment" db:"is_consignment"`
	// Buyer collects in person; no delivery leg at all.
	IsSelfPickup bool        `json:"is_self_pickup" db:"is_self_pickup"`
	Status       OrderStatus `json:"status" db:"status"`
	PaymentRef   string      `json:"payment_ref" db:"payment_ref"`
	// Delivery destination; empty for direct (seller-ships) sales.
	DeliveryAddress string     `json:"delivery_address" db:"delivery_address"`
	ConfirmedAt     *time.Time `json:"confirmed_at" db:"confirmed_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}
