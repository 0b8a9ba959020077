package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"marketplace-backend/internal/domains/item/model"
)

// RepositoryInterface is the item persistence contract. Status flips are
// conditional on the current state so concurrent flows cannot double-apply
// a transition.
type RepositoryInterface interface {
	Create(ctx context.Context, item *model.Item) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Item, error)

	// UpdateStatus flips status only when the item currently has
	// expectedStatus; model.ErrItemStateConflict otherwise.
	UpdateStatus(ctx context.Context, id uuid.UUID, expected, next model.ItemStatus) error

	// UpdateStatusWithTx is UpdateStatus inside a caller-owned transaction.
	UpdateStatusWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, expected, next model.ItemStatus) error
}
