package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidSignature is returned when a webhook signature does not verify
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrInsufficientPlatformBalance is returned by Transfer when the
	// platform settlement account cannot cover the payout. Treated as a hard
	// failure by callers: the surrounding operation rolls back.
	ErrInsufficientPlatformBalance = errors.New("insufficient platform balance")
)

// Gateway is the external payment collaborator. Protocol details live behind
// this interface; the core never retries a gateway failure on its own.
type Gateway interface {
	// CreatePaymentIntent opens a payment intent and returns its reference.
	CreatePaymentIntent(ctx context.Context, amount decimal.Decimal, currency string, metadata map[string]string) (string, error)

	// VerifyAndParseWebhook checks the HMAC signature and decodes the event.
	VerifyAndParseWebhook(payload []byte, signature string) (*WebhookEvent, error)

	// Transfer pays out to an external account from the platform settlement
	// account.
	Transfer(ctx context.Context, destinationAccount string, amount decimal.Decimal, memo string) error
}

// WebhookEvent is a verified, decoded gateway notification.
type WebhookEvent struct {
	EventType  string            `json:"event_type"` // "payment.succeeded", "payment.failed"
	IntentRef  string            `json:"intent_ref"`
	Amount     decimal.Decimal   `json:"amount"`
	Currency   string            `json:"currency"`
	Metadata   map[string]string `json:"metadata"`
	OccurredAt time.Time         `json:"occurred_at"`
}
