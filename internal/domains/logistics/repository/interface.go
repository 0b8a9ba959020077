package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"marketplace-backend/internal/domains/logistics/model"
)

// TransactionManager lets the logistics service compose a task transition
// with its sibling record updates in one database transaction.
type TransactionManager interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
	CommitTx(ctx context.Context, tx pgx.Tx) error
	RollbackTx(ctx context.Context, tx pgx.Tx) error
}

// RepositoryInterface is the courier task persistence contract.
type RepositoryInterface interface {
	TransactionManager

	Create(ctx context.Context, task *model.LogisticsTask) error
	CreateWithTx(ctx context.Context, tx pgx.Tx, task *model.LogisticsTask) error

	GetByID(ctx context.Context, id uuid.UUID) (*model.LogisticsTask, error)

	// ListAvailable pages over unassigned tasks for the courier board.
	ListAvailable(ctx context.Context, filter model.ListTasksRequest) ([]model.LogisticsTask, int, error)
	ListByCourier(ctx context.Context, courierID uuid.UUID, filter model.ListTasksRequest) ([]model.LogisticsTask, int, error)

	// Accept assigns the task to the courier only if it is still unassigned
	// and pending: a single conditional UPDATE. A lost race surfaces as
	// model.ErrTaskAlreadyAssigned.
	Accept(ctx context.Context, id, courierID uuid.UUID) error

	// RecordPickup moves PENDING_PICKUP -> PENDING_RECEIPT and stores the
	// pickup evidence URLs, conditional on the current status.
	RecordPickup(ctx context.Context, tx pgx.Tx, id uuid.UUID, evidence []string) error

	// RecordDelivery moves PENDING_RECEIPT -> COMPLETED and stores the
	// delivery evidence URLs, conditional on the current status.
	RecordDelivery(ctx context.Context, tx pgx.Tx, id uuid.UUID, evidence []string) error
}
