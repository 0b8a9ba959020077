package shared

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Asynq task types
const (
	TypeNotifyOrderCreated   = "trade:notify_order_created"
	TypeNotifyOrderConfirmed = "trade:notify_order_confirmed"
	TypeNotifyRefundRequest  = "returns:notify_refund_requested"
	TypeNotifyRefundDecided  = "returns:notify_refund_decided"
	TypeReconcileLedger      = "ledger:reconcile_chains"
)

// Queue names
const (
	QueueHigh    = "high"
	QueueDefault = "default"
	QueueLow     = "low"
)

// OrderEventPayload is shared by the order notification tasks.
type OrderEventPayload struct {
	OrderID  uuid.UUID `json:"order_id"`
	ItemID   uuid.UUID `json:"item_id"`
	BuyerID  uuid.UUID `json:"buyer_id"`
	SellerID uuid.UUID `json:"seller_id"`
}

// RefundEventPayload notifies the seller about a refund request.
type RefundEventPayload struct {
	OrderID         uuid.UUID `json:"order_id"`
	RefundRequestID uuid.UUID `json:"refund_request_id"`
	BuyerID         uuid.UUID `json:"buyer_id"`
	Reason          string    `json:"reason"`
}

// RefundDecisionPayload notifies the buyer about the seller's decision.
type RefundDecisionPayload struct {
	RefundRequestID uuid.UUID `json:"refund_request_id"`
	OrderID         uuid.UUID `json:"order_id"`
	BuyerID         uuid.UUID `json:"buyer_id"`
	Approved        bool      `json:"approved"`
}

// ReconcileLedgerPayload triggers the nightly chain verification sweep.
type ReconcileLedgerPayload struct {
	BatchSize int `json:"batch_size"`
}

// UnmarshalTask decodes an asynq task payload into dest.
func UnmarshalTask(t *asynq.Task, dest interface{}) error {
	if err := json.Unmarshal(t.Payload(), dest); err != nil {
		return fmt.Errorf("failed to unmarshal %s payload: %w", t.Type(), err)
	}
	return nil
}
