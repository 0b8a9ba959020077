package job

import (
	"context"

	"github.com/hibiken/asynq"

	"marketplace-backend/internal/shared"
	"marketplace-backend/pkg/logger"
)

// Notifier delivers a short message to one user.
type Notifier interface {
	Notify(ctx context.Context, userID string, subject, body string) error
}

// NotifyHandler tells the buyer how the seller decided.
type NotifyHandler struct {
	notifier Notifier
}

func NewNotifyHandler(notifier Notifier) *NotifyHandler {
	return &NotifyHandler{notifier: notifier}
}

func (h *NotifyHandler) HandleRefundDecided(ctx context.Context, t *asynq.Task) error {
	var payload shared.RefundDecisionPayload
	if err := shared.UnmarshalTask(t, &payload); err != nil {
		return err
	}

	subject := "Refund request rejected"
	body := "The seller rejected your refund request for order " + payload.OrderID.String() + "."
	if payload.Approved {
		subject = "Refund request approved"
		body = "Your refund for order " + payload.OrderID.String() + " was approved. A courier will collect the item."
	}

	if err := h.notifier.Notify(ctx, payload.BuyerID.String(), subject, body); err != nil {
		return err
	}

	logger.Debug("refund decision notification sent", map[string]interface{}{
		"refund_request_id": payload.RefundRequestID.String(),
		"buyer_id":          payload.BuyerID.String(),
		"approved":          payload.Approved,
	})
	return nil
}
