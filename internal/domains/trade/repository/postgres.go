package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"marketplace-backend/internal/domains/trade/model"
)

// execer covers both the pool and a transaction.
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

const orderColumns = `id, item_id, buyer_id, seller_id, price, is_consignment,
	is_self_pickup, status, payment_ref, delivery_address, confirmed_at, created_at, updated_at`

// postgresRepository implements RepositoryInterface
type postgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository
func NewRepository(pool *pgxpool.Pool) RepositoryInterface {
	return &postgresRepository{pool: pool}
}

// ===== Transaction management =====

func (r *postgresRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

func (r *postgresRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	return tx.Commit(ctx)
}

func (r *postgresRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	return tx.Rollback(ctx)
}

// ===== Writes =====

func (r *postgresRepository) Create(ctx context.Context, order *model.OrderRecord) error {
	return r.create(ctx, r.pool, order)
}

func (r *postgresRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, order *model.OrderRecord) error {
	return r.create(ctx, tx, order)
}

func (r *postgresRepository) create(ctx context.Context, q execer, order *model.OrderRecord) error {
	query := `
		INSERT INTO orders (
			id, item_id, buyer_id, seller_id, price, is_consignment,
			is_self_pickup, status, payment_ref, delivery_address, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW()
		)
	`

	_, err := q.Exec(ctx, query,
		order.ID,
		order.ItemID,
		order.BuyerID,
		order.SellerID,
		order.Price,
		order.IsConsignment,
		order.IsSelfPickup,
		order.Status,
		order.PaymentRef,
		order.DeliveryAddress,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, id uuid.UUID, expected, next model.OrderStatus) error {
	return r.updateStatus(ctx, r.pool, id, expected, next)
}

func (r *postgresRepository) UpdateStatusWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, expected, next model.OrderStatus) error {
	return r.updateStatus(ctx, tx, id, expected, next)
}

func (r *postgresRepository) updateStatus(ctx context.Context, q execer, id uuid.UUID, expected, next model.OrderStatus) error {
	query := `
		UPDATE orders
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	result, err := q.Exec(ctx, query, id, expected, next)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if result.RowsAffected() == 0 {
		var exists bool
		checkQuery := "SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)"
		if checkErr := r.pool.QueryRow(ctx, checkQuery, id).Scan(&exists); checkErr != nil {
			return fmt.Errorf("failed to check order existence: %w", checkErr)
		}
		if !exists {
			return fmt.Errorf("%w: id=%s", model.ErrOrderNotFound, id)
		}
		return model.NewInvalidTransitionError(id, expected, next)
	}
	return nil
}

func (r *postgresRepository) MarkConfirmed(ctx context.Context, id uuid.UUID, expected model.OrderStatus) error {
	query := `
		UPDATE orders
		SET status = $3, confirmed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	result, err := r.pool.Exec(ctx, query, id, expected, model.StatusConfirmed)
	if err != nil {
		return fmt.Errorf("failed to confirm order: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.NewInvalidTransitionError(id, expected, model.StatusConfirmed)
	}
	return nil
}

// ===== Reads =====

func scanOrder(row pgx.Row) (*model.OrderRecord, error) {
	var order model.OrderRecord
	err := row.Scan(
		&order.ID,
		&order.ItemID,
		&order.BuyerID,
		&order.SellerID,
		&order.Price,
		&order.IsConsignment,
		&order.IsSelfPickup,
		&order.Status,
		&order.PaymentRef,
		&order.DeliveryAddress,
		&order.ConfirmedAt,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.OrderRecord, error) {
	query := "SELECT " + orderColumns + " FROM orders WHERE id = $1"

	order, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: id=%s", model.ErrOrderNotFound, id)
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

func (r *postgresRepository) GetByItemID(ctx context.Context, itemID uuid.UUID) (*model.OrderRecord, error) {
	query := "SELECT " + orderColumns + ` FROM orders
		WHERE item_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, itemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: item_id=%s", model.ErrOrderNotFound, itemID)
		}
		return nil, fmt.Errorf("failed to get order by item: %w", err)
	}
	return order, nil
}

func (r *postgresRepository) ListByBuyer(ctx context.Context, buyerID uuid.UUID, filter model.ListOrdersRequest) ([]model.OrderRecord, int, error) {
	return r.list(ctx, "buyer_id", buyerID, filter)
}

func (r *postgresRepository) ListBySeller(ctx context.Context, sellerID uuid.UUID, filter model.ListOrdersRequest) ([]model.OrderRecord, int, error) {
	return r.list(ctx, "seller_id", sellerID, filter)
}

func (r *postgresRepository) list(ctx context.Context, ownerColumn string, ownerID uuid.UUID, filter model.ListOrdersRequest) ([]model.OrderRecord, int, error) {
	filter.Normalize()

	where := "WHERE " + ownerColumn + " = $1"
	args := []any{ownerID}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM orders " + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	query := fmt.Sprintf(
		"SELECT "+orderColumns+" FROM orders %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		where, len(args)-1, len(args),
	)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []model.OrderRecord
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
	}
	return orders, total, rows.Err()
}
