package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"marketplace-backend/internal/domains/ledger/model"
)

// ServiceInterface is the ledger store: the only component allowed to move
// user balances. All appends for the same user are serialized.
type ServiceInterface interface {
	// Append adds one balance-affecting entry to the user's chain.
	// Returns model.ErrInsufficientFunds when the signed amount would drive
	// the balance negative and kind is not adjustment.
	Append(ctx context.Context, userID uuid.UUID, kind model.Kind, amount decimal.Decimal, description string) (*model.LedgerEntry, error)

	// CurrentBalance reads the authoritative balance from the chain tail,
	// through the projection cache when warm.
	CurrentBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)

	// EntriesFor pages through a user's history, newest first.
	EntriesFor(ctx context.Context, userID uuid.UUID, filter model.ListEntriesRequest) ([]model.LedgerEntry, int, error)

	// TotalByKind aggregates signed amounts per transaction kind.
	TotalByKind(ctx context.Context, userID uuid.UUID) (map[model.Kind]decimal.Decimal, error)

	// VerifyChain walks a user's chain and checks the one-tail invariant and
	// that the tail balance equals the signed sum of all entries.
	VerifyChain(ctx context.Context, userID uuid.UUID) (*model.ChainReport, error)

	// CreateDepositIntent opens a gateway payment intent for a top-up. The
	// DEPOSIT entry is appended only when the signed webhook confirms.
	CreateDepositIntent(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (string, error)

	// ConfirmDeposit handles a verified gateway webhook event.
	ConfirmDeposit(ctx context.Context, payload []byte, signature string) (*model.LedgerEntry, error)

	// Withdraw pays out to an external account. The gateway transfer and the
	// WITHDRAWAL entry succeed or fail together.
	Withdraw(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, destinationAccount string) (*model.LedgerEntry, error)

	// PayBill debits the user for a platform bill (storage fees, penalties).
	PayBill(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, billRef string) (*model.LedgerEntry, error)
}
