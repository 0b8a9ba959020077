package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"marketplace-backend/internal/domains/trade/model"
)

// TransactionManager lets the orchestrator compose repository steps from
// several domains into one database transaction.
type TransactionManager interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
	CommitTx(ctx context.Context, tx pgx.Tx) error
	RollbackTx(ctx context.Context, tx pgx.Tx) error
}

// RepositoryInterface is the order persistence contract. Status changes are
// compare-and-set: the UPDATE is conditional on the current status, so a
// concurrent transition loses cleanly instead of double-applying.
type RepositoryInterface interface {
	TransactionManager

	Create(ctx context.Context, order *model.OrderRecord) error
	CreateWithTx(ctx context.Context, tx pgx.Tx, order *model.OrderRecord) error

	GetByID(ctx context.Context, id uuid.UUID) (*model.OrderRecord, error)
	GetByItemID(ctx context.Context, itemID uuid.UUID) (*model.OrderRecord, error)

	ListByBuyer(ctx context.Context, buyerID uuid.UUID, filter model.ListOrdersRequest) ([]model.OrderRecord, int, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID, filter model.ListOrdersRequest) ([]model.OrderRecord, int, error)

	// UpdateStatus transitions the order only when it currently has the
	// expected status; model.ErrInvalidTransition otherwise.
	UpdateStatus(ctx context.Context, id uuid.UUID, expected, next model.OrderStatus) error
	UpdateStatusWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, expected, next model.OrderStatus) error

	// MarkConfirmed is UpdateStatus to CONFIRMED plus the confirmation
	// timestamp.
	MarkConfirmed(ctx context.Context, id uuid.UUID, expected model.OrderStatus) error
}
