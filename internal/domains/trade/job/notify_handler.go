package job

import (
	"context"

	"github.com/hibiken/asynq"

	"marketplace-backend/internal/shared"
	"marketplace-backend/pkg/logger"
)

// NotifyHandler fans order lifecycle events out to the parties. Delivery
// channels (push, email) sit behind Notifier so the worker wiring stays the
// same when channels change.
type NotifyHandler struct {
	notifier Notifier
}

// Notifier delivers a short message to one user.
type Notifier interface {
	Notify(ctx context.Context, userID string, subject, body string) error
}

func NewNotifyHandler(notifier Notifier) *NotifyHandler {
	return &NotifyHandler{notifier: notifier}
}

func (h *NotifyHandler) HandleOrderCreated(ctx context.Context, t *asynq.Task) error {
	var payload shared.OrderEventPayload
	if err := shared.UnmarshalTask(t, &payload); err != nil {
		return err
	}

	if err := h.notifier.Notify(ctx, payload.SellerID.String(),
		"Item sold", "Your item has been purchased. Order "+payload.OrderID.String()); err != nil {
		return err
	}

	logger.Debug("order created notification sent", map[string]interface{}{
		"order_id":  payload.OrderID.String(),
		"seller_id": payload.SellerID.String(),
	})
	return nil
}

func (h *NotifyHandler) HandleOrderConfirmed(ctx context.Context, t *asynq.Task) error {
	var payload shared.OrderEventPayload
	if err := shared.UnmarshalTask(t, &payload); err != nil {
		return err
	}

	return h.notifier.Notify(ctx, payload.SellerID.String(),
		"Order confirmed", "The buyer confirmed receipt of order "+payload.OrderID.String()+". Proceeds have been credited to your wallet.")
}

func (h *NotifyHandler) HandleRefundRequested(ctx context.Context, t *asynq.Task) error {
	var payload shared.RefundEventPayload
	if err := shared.UnmarshalTask(t, &payload); err != nil {
		return err
	}

	return h.notifier.Notify(ctx, payload.BuyerID.String(),
		"Refund request received", "Your refund request for order "+payload.OrderID.String()+" is under review.")
}

// LogNotifier is the default Notifier: it only writes a structured log line.
// Real channels plug in behind the same interface.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, userID, subject, body string) error {
	logger.Info("notification", map[string]interface{}{
		"user_id": userID,
		"subject": subject,
		"body":    body,
	})
	return nil
}
