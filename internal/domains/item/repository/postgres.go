package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"marketplace-backend/internal/domains/item/model"
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

// Create implements Repository.Create
func (r *postgresRepository) Create(ctx context.Context, item *model.Item) error {
	query := `
		INSERT INTO items (
			id, seller_id, title, price, is_consignment, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, NOW(), NOW()
		)
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		item.ID,
		item.SellerID,
		item.Title,
		item.Price,
		item.IsConsignment,
		item.Status,
	).Scan(&item.CreatedAt, &item.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert item: %w", err)
	}

	return nil
}

// GetByID implements Repository.GetByID
func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	query := `
		SELECT id, seller_id, title, price, is_consignment, status, created_at, updated_at
		FROM items
		WHERE id = $1
	`

	var item model.Item
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&item.ID,
		&item.SellerID,
		&item.Title,
		&item.Price,
		&item.IsConsignment,
		&item.Status,
		&item.CreatedAt,
		&item.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NewItemNotFoundError(id)
		}
		return nil, fmt.Errorf("failed to get item by id: %w", err)
	}

	return &item, nil
}

// UpdateStatus implements Repository.UpdateStatus
func (r *postgresRepository) UpdateStatus(ctx context.Context, id uuid.UUID, expected, next model.ItemStatus) error {
	return r.updateStatus(ctx, r.pool, id, expected, next)
}

// UpdateStatusWithTx implements Repository.UpdateStatusWithTx
func (r *postgresRepository) UpdateStatusWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, expected, next model.ItemStatus) error {
	return r.updateStatus(ctx, tx, id, expected, next)
}

func (r *postgresRepository) updateStatus(ctx context.Context, q execer, id uuid.UUID, expected, next model.ItemStatus) error {
	query := `
		UPDATE items
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	result, err := q.Exec(ctx, query, id, expected, next)
	if err != nil {
		return fmt.Errorf("failed to update item status: %w", err)
	}

	if result.RowsAffected() == 0 {
		// No rows affected means either the item does not exist or it is
		// no longer in the expected state.
		var exists bool
		checkQuery := "SELECT EXISTS(SELECT 1 FROM items WHERE id = $1)"
		if checkErr := r.pool.QueryRow(ctx, checkQuery, id).Scan(&exists); checkErr != nil {
			return fmt.Errorf("failed to check item existence: %w", checkErr)
		}

		if !exists {
			return model.NewItemNotFoundError(id)
		}

		return fmt.Errorf("%w: id=%s, expected=%s", model.ErrItemStateConflict, id, expected)
	}

	return nil
}
