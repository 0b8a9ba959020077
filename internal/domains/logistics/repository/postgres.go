package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"

	"marketplace-backend/internal/domains/logistics/model"
)

// execer covers both the pool and a transaction.
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

const taskColumns = `id, task_type, item_id, linked_record_id, source_address, target_address,
	courier_id, status, pickup_evidence, delivery_evidence, created_at, updated_at`

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

func (r *postgresRepository) Create(ctx context.Context, task *model.LogisticsTask) error {
	return r.create(ctx, r.pool, task)
}

func (r *postgresRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, task *model.LogisticsTask) error {
	return r.create(ctx, tx, task)
}

func (r *postgresRepository) create(ctx context.Context, q execer, task *model.LogisticsTask) error {
	query := `
		INSERT INTO logistics_tasks (
			id, task_type, item_id, linked_record_id, source_address, target_address,
			status, pickup_evidence, delivery_evidence, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, '{}', '{}', NOW(), NOW()
		)
	`

	_, err := q.Exec(ctx, query,
		task.ID,
		task.TaskType,
		task.ItemID,
		task.LinkedRecordID,
		task.SourceAddress,
		task.TargetAddress,
		task.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to insert logistics task: %w", err)
	}
	return nil
}

func (r *postgresRepository) Accept(ctx context.Context, id, courierID uuid.UUID) error {
	query := `
		UPDATE logistics_tasks
		SET courier_id = $2, status = $3, updated_at = NOW()
		WHERE id = $1 AND courier_id IS NULL AND status = $4
	`

	result, err := r.pool.Exec(ctx, query, id, courierID, model.StatusPendingPickup, model.StatusPendingAccept)
	if err != nil {
		return fmt.Errorf("failed to accept task: %w", err)
	}
	if result.RowsAffected() == 0 {
		var exists bool
		checkQuery := "SELECT EXISTS(SELECT 1 FROM logistics_tasks WHERE id = $1)"
		if checkErr := r.pool.QueryRow(ctx, checkQuery, id).Scan(&exists); checkErr != nil {
			return fmt.Errorf("failed to check task existence: %w", checkErr)
		}
		if !exists {
			return fmt.Errorf("%w: id=%s", model.ErrTaskNotFound, id)
		}
		return fmt.Errorf("%w: id=%s", model.ErrTaskAlreadyAssigned, id)
	}
	return nil
}

func (r *postgresRepository) RecordPickup(ctx context.Context, tx pgx.Tx, id uuid.UUID, evidence []string) error {
	return r.recordEvidence(ctx, tx, id, "pickup_evidence", evidence, model.StatusPendingPickup, model.StatusPendingReceipt)
}

func (r *postgresRepository) RecordDelivery(ctx context.Context, tx pgx.Tx, id uuid.UUID, evidence []string) error {
	return r.recordEvidence(ctx, tx, id, "delivery_evidence", evidence, model.StatusPendingReceipt, model.StatusCompleted)
}

func (r *postgresRepository) recordEvidence(ctx context.Context, q execer, id uuid.UUID, column string, evidence []string, expected, next model.TaskStatus) error {
	// column is one of two compile-time constants, never user input.
	query := fmt.Sprintf(`
		UPDATE logistics_tasks
		SET status = $3, %s = $4, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`, column)

	result, err := q.Exec(ctx, query, id, expected, next, pq.StringArray(evidence))
	if err != nil {
		return fmt.Errorf("failed to record %s: %w", column, err)
	}
	if result.RowsAffected() == 0 {
		return model.NewTaskStateConflictError(id, expected)
	}
	return nil
}

// ===== Reads =====

func scanTask(row pgx.Row) (*model.LogisticsTask, error) {
	var task model.LogisticsTask
	err := row.Scan(
		&task.ID,
		&task.TaskType,
		&task.ItemID,
		&task.LinkedRecordID,
		&task.SourceAddress,
		&task.TargetAddress,
		&task.CourierID,
		&task.Status,
		&task.PickupEvidence,
		&task.DeliveryEvidence,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.LogisticsTask, error) {
	query := "SELECT " + taskColumns + " FROM logistics_tasks WHERE id = $1"

	task, err := scanTask(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: id=%s", model.ErrTaskNotFound, id)
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

func (r *postgresRepository) ListAvailable(ctx context.Context, filter model.ListTasksRequest) ([]model.LogisticsTask, int, error) {
	return r.list(ctx, "courier_id IS NULL AND status = '"+string(model.StatusPendingAccept)+"'", nil, filter)
}

func (r *postgresRepository) ListByCourier(ctx context.Context, courierID uuid.UUID, filter model.ListTasksRequest) ([]model.LogisticsTask, int, error) {
	return r.list(ctx, "courier_id = $1", []any{courierID}, filter)
}

func (r *postgresRepository) list(ctx context.Context, where string, args []any, filter model.ListTasksRequest) ([]model.LogisticsTask, int, error) {
	filter.Normalize()

	if filter.TaskType != nil {
		args = append(args, *filter.TaskType)
		where += fmt.Sprintf(" AND task_type = $%d", len(args))
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM logistics_tasks WHERE " + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	query := fmt.Sprintf(
		"SELECT "+taskColumns+" FROM logistics_tasks WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		where, len(args)-1, len(args),
	)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.LogisticsTask
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, *task)
	}
	return tasks, total, rows.Err()
}
