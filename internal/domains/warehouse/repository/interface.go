package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"marketplace-backend/internal/domains/warehouse/model"
)

// RepositoryInterface is the warehouse persistence contract. Stock and
// intake transitions are conditional on the current state, and the WithTx
// variants let the orchestrator and logistics compose them with other steps.
type RepositoryInterface interface {
	// ===== Warehouses =====

	ListWarehouses(ctx context.Context) ([]model.Warehouse, error)
	GetWarehouse(ctx context.Context, id uuid.UUID) (*model.Warehouse, error)

	// ===== Stock records =====

	CreateStockRecord(ctx context.Context, record *model.StockRecord) error
	CreateStockRecordWithTx(ctx context.Context, tx pgx.Tx, record *model.StockRecord) error

	// GetActiveStockByItem returns the item's stock record with status "in",
	// or model.ErrStockRecordNotFound.
	GetActiveStockByItem(ctx context.Context, itemID uuid.UUID) (*model.StockRecord, error)

	// UpdateStockStatus flips status only when the record currently has
	// expected; model.ErrStockStateConflict otherwise.
	UpdateStockStatus(ctx context.Context, id uuid.UUID, expected, next model.StockStatus) error
	UpdateStockStatusWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, expected, next model.StockStatus) error

	// ===== Intake records =====

	CreateIntake(ctx context.Context, record *model.IntakeRecord) error
	GetIntake(ctx context.Context, id uuid.UUID) (*model.IntakeRecord, error)
	GetIntakeByItem(ctx context.Context, itemID uuid.UUID) (*model.IntakeRecord, error)

	UpdateIntakeStatus(ctx context.Context, id uuid.UUID, expected, next model.IntakeStatus) error
	UpdateIntakeStatusWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, expected, next model.IntakeStatus) error
}
