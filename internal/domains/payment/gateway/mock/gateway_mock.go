package mock

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"marketplace-backend/internal/domains/payment/gateway"
)

// MockGateway is a deterministic payment gateway for development and tests.
// Webhook signatures use the same HMAC-SHA256 scheme as the sandbox, so the
// verification path is exercised for real.
type MockGateway struct {
	secretKey string

	mu               sync.Mutex
	FailTransfer     error // set to force Transfer failures
	FailCreateIntent error
	TransferCalls    []TransferCall
	CreatedIntents   []string
	intentSeq        int
}

// TransferCall records one payout for assertions.
type TransferCall struct {
	DestinationAccount string
	Amount             decimal.Decimal
	Memo               string
}

func NewMockGateway(secretKey string) *MockGateway {
	return &MockGateway{secretKey: secretKey}
}

func (m *MockGateway) CreatePaymentIntent(_ context.Context, amount decimal.Decimal, currency string, _ map[string]string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailCreateIntent != nil {
		return "", m.FailCreateIntent
	}

	m.intentSeq++
	ref := fmt.Sprintf("MOCK_INTENT_%d_%s%s", m.intentSeq, amount.StringFixed(2), currency)
	m.CreatedIntents = append(m.CreatedIntents, ref)
	return ref, nil
}

func (m *MockGateway) VerifyAndParseWebhook(payload []byte, signature string) (*gateway.WebhookEvent, error) {
	if Sign(payload, m.secretKey) != signature {
		return nil, gateway.ErrInvalidSignature
	}

	var event gateway.WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("failed to decode webhook payload: %w", err)
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	return &event, nil
}

func (m *MockGateway) Transfer(_ context.Context, destinationAccount string, amount decimal.Decimal, memo string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailTransfer != nil {
		return m.FailTransfer
	}

	m.TransferCalls = append(m.TransferCalls, TransferCall{
		DestinationAccount: destinationAccount,
		Amount:             amount,
		Memo:               memo,
	})
	return nil
}

// Sign computes the webhook signature for a payload. Exposed so tests can
// produce valid signed webhooks.
func Sign(payload []byte, secretKey string) string {
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
