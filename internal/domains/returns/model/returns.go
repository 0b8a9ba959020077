package model

import (
	"time"

	"github.com/google/uuid"
)

// RefundStatus is the negotiation state of a refund request.
type RefundStatus string

const (
	RefundPending  RefundStatus = "PENDING"
	RefundApproved RefundStatus = "APPROVED"
	RefundRejected RefundStatus = "REJECTED"
	// RefundReturned: goods arrived back (warehouse or seller), money not
	// yet moved.
	RefundReturned  RefundStatus = "RETURNED"
	RefundCompleted RefundStatus = "COMPLETED"
)

// RefundRequest is the buyer-side owning record of a return negotiation.
type RefundRequest struct {
	ID            uuid.UUID    `json:"id" db:"id"`
	OrderID       uuid.UUID    `json:"order_id" db:"order_id"`
	BuyerID       uuid.UUID    `json:"buyer_id" db:"buyer_id"`
	Reason        string       `json:"reason" db:"reason"`
	PickupAddress string       `json:"pickup_address" db:"pickup_address"`
	Status        RefundStatus `json:"status" db:"status"`
	// Destination warehouse for consignment returns, assigned at approval.
	WarehouseID *uuid.UUID `json:"warehouse_id" db:"warehouse_id"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// IsOpen reports whether the request still blocks a new one for the order.
func (r *RefundRequest) IsOpen() bool {
	return r.Status != RefundRejected && r.Status != RefundCompleted
}

// RTSStatus is the lifecycle of a return-to-seller run.
type RTSStatus string

const (
	RTSCreated  RTSStatus = "CREATED"
	RTSShipped  RTSStatus = "SHIPPED"
	RTSReceived RTSStatus = "RECEIVED"
)

// ReturnToSellerRecord tracks goods going from the warehouse back to the
// seller after a non-consignment refund is approved.
type ReturnToSellerRecord struct {
	ID        uuid.UUID `json:"id" db:"id"`
	OrderID   uuid.UUID `json:"order_id" db:"order_id"`
	SellerID  uuid.UUID `json:"seller_id" db:"seller_id"`
	Status    RTSStatus `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
