package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// TaskType tags which sibling record a courier task updates on pickup and
// delivery. One type, one record kind; there is no polymorphic link.
type TaskType string

const (
	// TypePickupService: seller -> warehouse, linked to an intake record.
	TypePickupService TaskType = "PICKUP_SERVICE"
	// TypeWarehouseShipment: warehouse -> buyer, linked to an order.
	TypeWarehouseShipment TaskType = "WAREHOUSE_SHIPMENT"
	// TypeProductReturn: buyer -> warehouse, linked to a refund request.
	TypeProductReturn TaskType = "PRODUCT_RETURN"
	// TypeReturnToSeller: warehouse -> seller, linked to a return-to-seller
	// record.
	TypeReturnToSeller TaskType = "RETURN_TO_SELLER"
)

func (t TaskType) IsValid() bool {
	switch t {
	case TypePickupService, TypeWarehouseShipment, TypeProductReturn, TypeReturnToSeller:
		return true
	}
	return false
}

// TaskStatus is the courier-side lifecycle.
type TaskStatus string

const (
	StatusPendingAccept  TaskStatus = "PENDING_ACCEPT"
	StatusPendingPickup  TaskStatus = "PENDING_PICKUP"
	StatusPendingReceipt TaskStatus = "PENDING_RECEIPT"
	StatusCompleted      TaskStatus = "COMPLETED"
)

// LogisticsTask is one courier run. CourierID stays nil until a courier
// accepts; every later transition requires the acting courier to be the
// assigned one.
type LogisticsTask struct {
	ID             uuid.UUID `json:"id" db:"id"`
	TaskType       TaskType  `json:"task_type" db:"task_type"`
	ItemID         uuid.UUID `json:"item_id" db:"item_id"`
	LinkedRecordID uuid.UUID `json:"linked_record_id" db:"linked_record_id"`
	SourceAddress  string    `json:"source_address" db:"source_address"`
	TargetAddress  string    `json:"target_address" db:"target_address"`

	CourierID *uuid.UUID `json:"courier_id" db:"courier_id"`
	Status    TaskStatus `json:"status" db:"status"`

	// Photo URLs proving the handover at each end.
	PickupEvidence   pq.StringArray `json:"pickup_evidence" db:"pickup_evidence"`
	DeliveryEvidence pq.StringArray `json:"delivery_evidence" db:"delivery_evidence"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// EvidenceFile is one photo captured by the courier at a handover site.
type EvidenceFile struct {
	Data        []byte
	ContentType string
}

// ListTasksRequest filters the courier task board.
type ListTasksRequest struct {
	TaskType *TaskType `form:"task_type"`
	Page     int       `form:"page"`
	Limit    int       `form:"limit"`
}

// Normalize clamps paging parameters to sane values.
func (r *ListTasksRequest) Normalize() {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.Limit < 1 || r.Limit > 100 {
		r.Limit = 20
	}
}
