package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"marketplace-backend/internal/domains/ledger/model"
	"marketplace-backend/pkg/database"
)

const entryColumns = `
	id, user_id, kind, amount, balance_before, balance_after,
	prev_entry_id, next_entry_id, description, occurred_at
`

// postgresRepository implements RepositoryInterface
type postgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository
func NewRepository(pool *pgxpool.Pool) RepositoryInterface {
	return &postgresRepository{pool: pool}
}

func scanEntry(row pgx.Row) (*model.LedgerEntry, error) {
	var e model.LedgerEntry
	err := row.Scan(
		&e.ID,
		&e.UserID,
		&e.Kind,
		&e.Amount,
		&e.BalanceBefore,
		&e.BalanceAfter,
		&e.PrevEntryID,
		&e.NextEntryID,
		&e.Description,
		&e.OccurredAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// GetTail implements Repository.GetTail
func (r *postgresRepository) GetTail(ctx context.Context, userID uuid.UUID) (*model.LedgerEntry, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM ledger_entries
		WHERE user_id = $1 AND next_entry_id IS NULL
	`, entryColumns)

	entry, err := scanEntry(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // empty chain
		}
		return nil, fmt.Errorf("failed to get tail entry: %w", err)
	}

	return entry, nil
}

// Append implements Repository.Append.
//
// The insert and the tail-pointer patch are one transaction: if either step
// fails, neither is visible. The patch is conditional on the previous entry
// still being the tail (next_entry_id IS NULL), so two appends racing behind
// the same stale tail cannot both link in - the loser gets
// model.ErrChainConflict. A partial unique index on (user_id) WHERE
// next_entry_id IS NULL backs the one-tail-per-user invariant in the schema
// itself.
func (r *postgresRepository) Append(ctx context.Context, entry *model.LedgerEntry) error {
	return database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		insertQuery := `
			INSERT INTO ledger_entries (
				id, user_id, kind, amount, balance_before, balance_after,
				prev_entry_id, next_entry_id, description, occurred_at
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, NULL, $8, $9
			)
		`

		_, err := tx.Exec(ctx, insertQuery,
			entry.ID,
			entry.UserID,
			entry.Kind,
			entry.Amount,
			entry.BalanceBefore,
			entry.BalanceAfter,
			entry.PrevEntryID,
			entry.Description,
			entry.OccurredAt,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation on the tail index
				return model.ErrChainConflict
			}
			return fmt.Errorf("failed to insert ledger entry: %w", err)
		}

		if entry.PrevEntryID == nil {
			return nil // first entry of the chain
		}

		patchQuery := `
			UPDATE ledger_entries
			SET next_entry_id = $2
			WHERE id = $1 AND user_id = $3 AND next_entry_id IS NULL
		`

		result, err := tx.Exec(ctx, patchQuery, *entry.PrevEntryID, entry.ID, entry.UserID)
		if err != nil {
			return fmt.Errorf("failed to patch tail pointer: %w", err)
		}

		if result.RowsAffected() == 0 {
			// The entry we read as tail has been superseded by a concurrent
			// append. Roll back the insert by failing the transaction.
			return model.ErrChainConflict
		}

		return nil
	})
}

// GetByID implements Repository.GetByID
func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.LedgerEntry, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM ledger_entries
		WHERE id = $1
	`, entryColumns)

	entry, err := scanEntry(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: id=%s", model.ErrEntryNotFound, id)
		}
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}

	return entry, nil
}

// ListByUser implements Repository.ListByUser
func (r *postgresRepository) ListByUser(ctx context.Context, userID uuid.UUID, filter model.ListEntriesRequest) ([]model.LedgerEntry, int, error) {
	filter.Normalize()

	queryBuilder := fmt.Sprintf(`
		SELECT %s
		FROM ledger_entries
		WHERE user_id = $1
	`, entryColumns)
	countQuery := "SELECT COUNT(*) FROM ledger_entries WHERE user_id = $1"

	args := []interface{}{userID}
	argCount := 2

	if filter.Kind != nil {
		queryBuilder += fmt.Sprintf(" AND kind = $%d", argCount)
		countQuery += fmt.Sprintf(" AND kind = $%d", argCount)
		args = append(args, *filter.Kind)
		argCount++
	}

	if filter.From != nil {
		queryBuilder += fmt.Sprintf(" AND occurred_at >= $%d", argCount)
		countQuery += fmt.Sprintf(" AND occurred_at >= $%d", argCount)
		args = append(args, *filter.From)
		argCount++
	}

	if filter.To != nil {
		queryBuilder += fmt.Sprintf(" AND occurred_at < $%d", argCount)
		countQuery += fmt.Sprintf(" AND occurred_at < $%d", argCount)
		args = append(args, *filter.To)
		argCount++
	}

	var totalCount int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}

	queryBuilder += " ORDER BY occurred_at DESC, id ASC"
	offset := (filter.Page - 1) * filter.Limit
	queryBuilder += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1)
	args = append(args, filter.Limit, offset)

	rows, err := r.pool.Query(ctx, queryBuilder, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	entries := make([]model.LedgerEntry, 0, filter.Limit)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, *entry)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating ledger entries: %w", err)
	}

	return entries, totalCount, nil
}

// ListChainAsc implements Repository.ListChainAsc
func (r *postgresRepository) ListChainAsc(ctx context.Context, userID uuid.UUID) ([]model.LedgerEntry, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM ledger_entries
		WHERE user_id = $1
		ORDER BY occurred_at ASC, id ASC
	`, entryColumns)

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chain: %w", err)
	}
	defer rows.Close()

	var entries []model.LedgerEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, *entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chain: %w", err)
	}

	return entries, nil
}

// SumByKind implements Repository.SumByKind
func (r *postgresRepository) SumByKind(ctx context.Context, userID uuid.UUID) (map[model.Kind]decimal.Decimal, error) {
	query := `
		SELECT kind, COALESCE(SUM(amount), 0)
		FROM ledger_entries
		WHERE user_id = $1
		GROUP BY kind
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum by kind: %w", err)
	}
	defer rows.Close()

	sums := make(map[model.Kind]decimal.Decimal)
	for rows.Next() {
		var kind model.Kind
		var sum decimal.Decimal
		if err := rows.Scan(&kind, &sum); err != nil {
			return nil, fmt.Errorf("failed to scan kind sum: %w", err)
		}
		sums[kind] = sum
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating kind sums: %w", err)
	}

	return sums, nil
}

// ListUserIDs implements Repository.ListUserIDs
func (r *postgresRepository) ListUserIDs(ctx context.Context, limit, offset int) ([]uuid.UUID, error) {
	query := `
		SELECT DISTINCT user_id
		FROM ledger_entries
		ORDER BY user_id ASC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger users: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger users: %w", err)
	}

	return ids, nil
}
