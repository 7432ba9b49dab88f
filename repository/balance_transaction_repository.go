package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"starsgame/database"
	"starsgame/models"
	"starsgame/service"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// BalanceTransactionRepository implements the BalanceTransactionRepository interface
type BalanceTransactionRepository struct {
	q queryable
}

// NewBalanceTransactionRepository creates a new ledger repository
func NewBalanceTransactionRepository(db *database.DB) *BalanceTransactionRepository {
	return &BalanceTransactionRepository{q: db.Pool}
}

// newBalanceTransactionRepositoryWithTx creates a new ledger repository with a transaction
func newBalanceTransactionRepositoryWithTx(tx queryable) *BalanceTransactionRepository {
	return &BalanceTransactionRepository{q: tx}
}

const balanceTransactionColumns = `id, user_id, type, amount, balance_before, balance_after, meta, idempotency_key, created_at`

// Append inserts a new ledger entry
func (r *BalanceTransactionRepository) Append(ctx context.Context, tx *models.BalanceTransaction) error {
	meta := tx.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction meta: %w", err)
	}

	query := `
		INSERT INTO balance_tx (user_id, type, amount, balance_before, balance_after, meta, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err = r.q.QueryRow(ctx, query,
		tx.UserID,
		tx.Type,
		tx.Amount,
		tx.BalanceBefore,
		tx.BalanceAfter,
		metaJSON,
		tx.IdempotencyKey,
	).Scan(&tx.ID, &tx.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && tx.IdempotencyKey != nil {
		return fmt.Errorf("%w: %s", service.ErrDuplicateKey, *tx.IdempotencyKey)
	}
	if err != nil {
		return fmt.Errorf("failed to append ledger entry for user %d: %w", tx.UserID, err)
	}
	return nil
}

// GetByIdempotencyKey returns the entry recorded under key
func (r *BalanceTransactionRepository) GetByIdempotencyKey(ctx context.Context, key string) (*models.BalanceTransaction, error) {
	query := `SELECT ` + balanceTransactionColumns + ` FROM balance_tx WHERE idempotency_key = $1`

	tx, err := scanBalanceTransaction(r.q.QueryRow(ctx, query, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entry by idempotency key: %w", err)
	}
	return tx, nil
}

// LockIdempotencyKey takes a transaction scoped advisory lock derived from key
func (r *BalanceTransactionRepository) LockIdempotencyKey(ctx context.Context, key string) error {
	if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
		return fmt.Errorf("failed to lock idempotency key: %w", err)
	}
	return nil
}

// GetByUser returns the latest entries for a user, newest first
func (r *BalanceTransactionRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*models.BalanceTransaction, error) {
	query := `
		SELECT ` + balanceTransactionColumns + `
		FROM balance_tx
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT $2
	`
	return r.list(ctx, query, userID, limit)
}

// GetAllByUser returns every entry for a user in write order
func (r *BalanceTransactionRepository) GetAllByUser(ctx context.Context, userID int64) ([]*models.BalanceTransaction, error) {
	query := `
		SELECT ` + balanceTransactionColumns + `
		FROM balance_tx
		WHERE user_id = $1
		ORDER BY id ASC
	`
	return r.list(ctx, query, userID)
}

// GetActiveUserIDs returns the users that wrote ledger entries since the given time
func (r *BalanceTransactionRepository) GetActiveUserIDs(ctx context.Context, since time.Time, limit int) ([]int64, error) {
	query := `
		SELECT DISTINCT user_id
		FROM balance_tx
		WHERE created_at >= $1
		ORDER BY user_id
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get active users: %w", err)
	}
	userIDs, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("failed to collect active users: %w", err)
	}
	return userIDs, nil
}

func (r *BalanceTransactionRepository) list(ctx context.Context, query string, args ...any) ([]*models.BalanceTransaction, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	defer rows.Close()

	var entries []*models.BalanceTransaction
	for rows.Next() {
		tx, err := scanBalanceTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledger: %w", err)
	}
	return entries, nil
}

func scanBalanceTransaction(row pgx.Row) (*models.BalanceTransaction, error) {
	var tx models.BalanceTransaction
	var metaJSON []byte
	err := row.Scan(
		&tx.ID,
		&tx.UserID,
		&tx.Type,
		&tx.Amount,
		&tx.BalanceBefore,
		&tx.BalanceAfter,
		&metaJSON,
		&tx.IdempotencyKey,
		&tx.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &tx.Meta); err != nil {
			return nil, fmt.Errorf("failed to unmarshal transaction meta: %w", err)
		}
	}
	return &tx, nil
}
