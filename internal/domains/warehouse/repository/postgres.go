package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"marketplace-backend/internal/domains/warehouse/model"
)

// execer covers both the pool and a transaction.
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// postgresRepository implements RepositoryInterface
type postgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository
func NewRepository(pool *pgxpool.Pool) RepositoryInterface {
	return &postgresRepository{pool: pool}
}

// ===== Warehouses =====

func (r *postgresRepository) ListWarehouses(ctx context.Context) ([]model.Warehouse, error) {
	query := `
		SELECT id, name, formatted_address, latitude, longitude, created_at
		FROM warehouses
		ORDER BY name
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list warehouses: %w", err)
	}
	defer rows.Close()

	var warehouses []model.Warehouse
	for rows.Next() {
		var w model.Warehouse
		if err := rows.Scan(&w.ID, &w.Name, &w.FormattedAddress, &w.Latitude, &w.Longitude, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan warehouse: %w", err)
		}
		warehouses = append(warehouses, w)
	}
	return warehouses, rows.Err()
}

func (r *postgresRepository) GetWarehouse(ctx context.Context, id uuid.UUID) (*model.Warehouse, error) {
	query := `
		SELECT id, name, formatted_address, latitude, longitude, created_at
		FROM warehouses
		WHERE id = $1
	`

	var w model.Warehouse
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&w.ID, &w.Name, &w.FormattedAddress, &w.Latitude, &w.Longitude, &w.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: id=%s", model.ErrWarehouseNotFound, id)
		}
		return nil, fmt.Errorf("failed to get warehouse: %w", err)
	}
	return &w, nil
}

// ===== Stock records =====

func (r *postgresRepository) CreateStockRecord(ctx context.Context, record *model.StockRecord) error {
	return r.createStockRecord(ctx, r.pool, record)
}

func (r *postgresRepository) CreateStockRecordWithTx(ctx context.Context, tx pgx.Tx, record *model.StockRecord) error {
	return r.createStockRecord(ctx, tx, record)
}

func (r *postgresRepository) createStockRecord(ctx context.Context, q execer, record *model.StockRecord) error {
	query := `
		INSERT INTO stock_records (
			id, item_id, warehouse_id, status, shelf_slot, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, NOW(), NOW()
		)
	`

	_, err := q.Exec(ctx, query,
		record.ID,
		record.ItemID,
		record.WarehouseID,
		record.Status,
		record.ShelfSlot,
	)
	if err != nil {
		return fmt.Errorf("failed to insert stock record: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetActiveStockByItem(ctx context.Context, itemID uuid.UUID) (*model.StockRecord, error) {
	query := `
		SELECT id, item_id, warehouse_id, status, shelf_slot, created_at, updated_at
		FROM stock_records
		WHERE item_id = $1 AND status = $2
	`

	var record model.StockRecord
	err := r.pool.QueryRow(ctx, query, itemID, model.StockIn).Scan(
		&record.ID,
		&record.ItemID,
		&record.WarehouseID,
		&record.Status,
		&record.ShelfSlot,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: item_id=%s", model.ErrStockRecordNotFound, itemID)
		}
		return nil, fmt.Errorf("failed to get stock record: %w", err)
	}
	return &record, nil
}

func (r *postgresRepository) UpdateStockStatus(ctx context.Context, id uuid.UUID, expected, next model.StockStatus) error {
	return r.updateStockStatus(ctx, r.pool, id, expected, next)
}

func (r *postgresRepository) UpdateStockStatusWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, expected, next model.StockStatus) error {
	return r.updateStockStatus(ctx, tx, id, expected, next)
}

func (r *postgresRepository) updateStockStatus(ctx context.Context, q execer, id uuid.UUID, expected, next model.StockStatus) error {
	query := `
		UPDATE stock_records
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	result, err := q.Exec(ctx, query, id, expected, next)
	if err != nil {
		return fmt.Errorf("failed to update stock status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: id=%s, expected=%s", model.ErrStockStateConflict, id, expected)
	}
	return nil
}

// ===== Intake records =====

func (r *postgresRepository) CreateIntake(ctx context.Context, record *model.IntakeRecord) error {
	query := `
		INSERT INTO intake_records (
			id, item_id, seller_id, warehouse_id, pickup_address, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, NOW(), NOW()
		)
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		record.ID,
		record.ItemID,
		record.SellerID,
		record.WarehouseID,
		record.PickupAddress,
		record.Status,
	).Scan(&record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert intake record: %w", err)
	}
	return nil
}

const intakeColumns = "id, item_id, seller_id, warehouse_id, pickup_address, status, created_at, updated_at"

func scanIntake(row pgx.Row) (*model.IntakeRecord, error) {
	var record model.IntakeRecord
	err := row.Scan(
		&record.ID,
		&record.ItemID,
		&record.SellerID,
		&record.WarehouseID,
		&record.PickupAddress,
		&record.Status,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *postgresRepository) GetIntake(ctx context.Context, id uuid.UUID) (*model.IntakeRecord, error) {
	query := "SELECT " + intakeColumns + " FROM intake_records WHERE id = $1"

	record, err := scanIntake(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: id=%s", model.ErrIntakeNotFound, id)
		}
		return nil, fmt.Errorf("failed to get intake record: %w", err)
	}
	return record, nil
}

func (r *postgresRepository) GetIntakeByItem(ctx context.Context, itemID uuid.UUID) (*model.IntakeRecord, error) {
	query := "SELECT " + intakeColumns + ` FROM intake_records
		WHERE item_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	record, err := scanIntake(r.pool.QueryRow(ctx, query, itemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: item_id=%s", model.ErrIntakeNotFound, itemID)
		}
		return nil, fmt.Errorf("failed to get intake record by item: %w", err)
	}
	return record, nil
}

func (r *postgresRepository) UpdateIntakeStatus(ctx context.Context, id uuid.UUID, expected, next model.IntakeStatus) error {
	return r.updateIntakeStatus(ctx, r.pool, id, expected, next)
}

func (r *postgresRepository) UpdateIntakeStatusWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, expected, next model.IntakeStatus) error {
	return r.updateIntakeStatus(ctx, tx, id, expected, next)
}

func (r *postgresRepository) updateIntakeStatus(ctx context.Context, q execer, id uuid.UUID, expected, next model.IntakeStatus) error {
	query := `
		UPDATE intake_records
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	result, err := q.Exec(ctx, query, id, expected, next)
	if err != nil {
		return fmt.Errorf("failed to update intake status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: id=%s, expected=%s", model.ErrIntakeStateConflict, id, expected)
	}
	return nil
}
