package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"marketplace-backend/internal/domains/ledger/model"
)

// RepositoryInterface is the ledger persistence contract.
//
// Append is the only write. It inserts the new entry and patches the
// previous tail's next_entry_id in one database transaction, conditional on
// that entry still being the tail; a concurrent append for the same user
// surfaces as model.ErrChainConflict and nothing is written.
type RepositoryInterface interface {
	// GetTail returns the newest entry for a user, or (nil, nil) for an
	// empty chain.
	GetTail(ctx context.Context, userID uuid.UUID) (*model.LedgerEntry, error)

	// Append persists entry and links it behind entry.PrevEntryID.
	Append(ctx context.Context, entry *model.LedgerEntry) error

	GetByID(ctx context.Context, id uuid.UUID) (*model.LedgerEntry, error)

	// ListByUser returns a page of the user's entries, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID, filter model.ListEntriesRequest) ([]model.LedgerEntry, int, error)

	// ListChainAsc returns every entry of a user's chain, oldest first.
	// Used by integrity verification.
	ListChainAsc(ctx context.Context, userID uuid.UUID) ([]model.LedgerEntry, error)

	// SumByKind aggregates signed amounts per kind for reporting. Reads the
	// whole chain; has no strict-consistency requirement.
	SumByKind(ctx context.Context, userID uuid.UUID) (map[model.Kind]decimal.Decimal, error)

	// ListUserIDs pages over the distinct users that own a chain, for the
	// reconciliation sweep.
	ListUserIDs(ctx context.Context, limit, offset int) ([]uuid.UUID, error)
}
