package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"marketplace-backend/internal/domains/returns/model"
)

// execer covers both the pool and a transaction.
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

const refundColumns = "id, order_id, buyer_id, reason, pickup_address, status, warehouse_id, created_at, updated_at"

// postgresRepository implements RepositoryInterface
type postgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository
func NewRepository(pool *pgxpool.Pool) RepositoryInterface {
	return &postgresRepository{pool: pool}
}

// ===== Refund requests =====

func (r *postgresRepository) CreateRefund(ctx context.Context, request *model.RefundRequest) error {
	query := `
		INSERT INTO refund_requests (
			id, order_id, buyer_id, reason, pickup_address, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, NOW(), NOW()
		)
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		request.ID,
		request.OrderID,
		request.BuyerID,
		request.Reason,
		request.PickupAddress,
		request.Status,
	).Scan(&request.CreatedAt, &request.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert refund request: %w", err)
	}
	return nil
}

func scanRefund(row pgx.Row) (*model.RefundRequest, error) {
	var request model.RefundRequest
	err := row.Scan(
		&request.ID,
		&request.OrderID,
		&request.BuyerID,
		&request.Reason,
		&request.PickupAddress,
		&request.Status,
		&request.WarehouseID,
		&request.CreatedAt,
		&request.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *postgresRepository) GetRefund(ctx context.Context, id uuid.UUID) (*model.RefundRequest, error) {
	query := "SELECT " + refundColumns + " FROM refund_requests WHERE id = $1"

	request, err := scanRefund(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: id=%s", model.ErrRefundRequestNotFound, id)
		}
		return nil, fmt.Errorf("failed to get refund request: %w", err)
	}
	return request, nil
}

func (r *postgresRepository) GetOpenRefundByOrder(ctx context.Context, orderID uuid.UUID) (*model.RefundRequest, error) {
	query := "SELECT " + refundColumns + ` FROM refund_requests
		WHERE order_id = $1 AND status NOT IN ($2, $3)
		ORDER BY created_at DESC
		LIMIT 1`

	request, err := scanRefund(r.pool.QueryRow(ctx, query, orderID, model.RefundRejected, model.RefundCompleted))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: order_id=%s", model.ErrRefundRequestNotFound, orderID)
		}
		return nil, fmt.Errorf("failed to get open refund request: %w", err)
	}
	return request, nil
}

func (r *postgresRepository) ListRefundsBySeller(ctx context.Context, sellerID uuid.UUID, limit, offset int) ([]model.RefundRequest, int, error) {
	// The seller sits on the order, one join away.
	where := `FROM refund_requests rr
		JOIN orders o ON o.id = rr.order_id
		WHERE o.seller_id = $1`

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) "+where, sellerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count refund requests: %w", err)
	}

	query := `SELECT rr.id, rr.order_id, rr.buyer_id, rr.reason, rr.pickup_address,
		rr.status, rr.warehouse_id, rr.created_at, rr.updated_at ` +
		where + " ORDER BY rr.created_at DESC LIMIT $2 OFFSET $3"

	rows, err := r.pool.Query(ctx, query, sellerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list refund requests: %w", err)
	}
	defer rows.Close()

	var requests []model.RefundRequest
	for rows.Next() {
		request, err := scanRefund(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan refund request: %w", err)
		}
		requests = append(requests, *request)
	}
	return requests, total, rows.Err()
}

func (r *postgresRepository) UpdateRefundStatus(ctx context.Context, id uuid.UUID, expected, next model.RefundStatus) error {
	return r.updateRefundStatus(ctx, r.pool, id, expected, next)
}

func (r *postgresRepository) UpdateRefundStatusWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, expected, next model.RefundStatus) error {
	return r.updateRefundStatus(ctx, tx, id, expected, next)
}

func (r *postgresRepository) updateRefundStatus(ctx context.Context, q execer, id uuid.UUID, expected, next model.RefundStatus) error {
	query := `
		UPDATE refund_requests
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	result, err := q.Exec(ctx, query, id, expected, next)
	if err != nil {
		return fmt.Errorf("failed to update refund status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: id=%s, expected=%s", model.ErrRefundStateConflict, id, expected)
	}
	return nil
}

func (r *postgresRepository) SetRefundWarehouse(ctx context.Context, id, warehouseID uuid.UUID) error {
	query := `
		UPDATE refund_requests
		SET warehouse_id = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, warehouseID)
	if err != nil {
		return fmt.Errorf("failed to set refund warehouse: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: id=%s", model.ErrRefundRequestNotFound, id)
	}
	return nil
}

// ===== Return-to-seller records =====

func (r *postgresRepository) CreateRTS(ctx context.Context, record *model.ReturnToSellerRecord) error {
	query := `
		INSERT INTO return_to_seller_records (
			id, order_id, seller_id, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, NOW(), NOW()
		)
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		record.ID,
		record.OrderID,
		record.SellerID,
		record.Status,
	).Scan(&record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert return-to-seller record: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetRTS(ctx context.Context, id uuid.UUID) (*model.ReturnToSellerRecord, error) {
	query := `
		SELECT id, order_id, seller_id, status, created_at, updated_at
		FROM return_to_seller_records
		WHERE id = $1
	`

	var record model.ReturnToSellerRecord
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&record.ID,
		&record.OrderID,
		&record.SellerID,
		&record.Status,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: id=%s", model.ErrRTSNotFound, id)
		}
		return nil, fmt.Errorf("failed to get return-to-seller record: %w", err)
	}
	return &record, nil
}

func (r *postgresRepository) UpdateRTSStatus(ctx context.Context, id uuid.UUID, expected, next model.RTSStatus) error {
	return r.updateRTSStatus(ctx, r.pool, id, expected, next)
}

func (r *postgresRepository) UpdateRTSStatusWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, expected, next model.RTSStatus) error {
	return r.updateRTSStatus(ctx, tx, id, expected, next)
}

func (r *postgresRepository) updateRTSStatus(ctx context.Context, q execer, id uuid.UUID, expected, next model.RTSStatus) error {
	query := `
		UPDATE return_to_seller_records
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	result, err := q.Exec(ctx, query, id, expected, next)
	if err != nil {
		return fmt.Errorf("failed to update return-to-seller status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: id=%s, expected=%s", model.ErrRTSStateConflict, id, expected)
	}
	return nil
}
