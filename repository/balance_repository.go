package repository

import (
	"context"
	"errors"
	"fmt"

	"starsgame/database"
	"starsgame/models"

	"github.com/jackc/pgx/v5"
)

// BalanceRepository implements the BalanceRepository interface
type BalanceRepository struct {
	q queryable
}

// NewBalanceRepository creates a new balance repository
func NewBalanceRepository(db *database.DB) *BalanceRepository {
	return &BalanceRepository{q: db.Pool}
}

// newBalanceRepositoryWithTx creates a new balance repository with a transaction
func newBalanceRepositoryWithTx(tx queryable) *BalanceRepository {
	return &BalanceRepository{q: tx}
}

// Ensure creates an empty balance if the user has none and returns the current row
func (r *BalanceRepository) Ensure(ctx context.Context, userID int64) (*models.Balance, error) {
	query := `
		INSERT INTO balances (user_id, stars)
		VALUES ($1, 0)
		ON CONFLICT (user_id) DO NOTHING
	`
	if _, err := r.q.Exec(ctx, query, userID); err != nil {
		return nil, fmt.Errorf("failed to ensure balance for user %d: %w", userID, err)
	}

	balance, err := r.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if balance == nil {
		return nil, fmt.Errorf("balance for user %d vanished after insert", userID)
	}
	return balance, nil
}

// Get retrieves a balance by user ID
func (r *BalanceRepository) Get(ctx context.Context, userID int64) (*models.Balance, error) {
	query := `
		SELECT user_id, stars, created_at, updated_at
		FROM balances
		WHERE user_id = $1
	`
	return r.getOne(ctx, query, userID)
}

// GetForShare retrieves a balance and blocks writers until the transaction ends
func (r *BalanceRepository) GetForShare(ctx context.Context, userID int64) (*models.Balance, error) {
	query := `
		SELECT user_id, stars, created_at, updated_at
		FROM balances
		WHERE user_id = $1
		FOR SHARE
	`
	return r.getOne(ctx, query, userID)
}

func (r *BalanceRepository) getOne(ctx context.Context, query string, userID int64) (*models.Balance, error) {
	var balance models.Balance
	err := r.q.QueryRow(ctx, query, userID).Scan(
		&balance.UserID,
		&balance.Stars,
		&balance.CreatedAt,
		&balance.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get balance for user %d: %w", userID, err)
	}
	return &balance, nil
}

// Debit subtracts amount in a single conditional statement
func (r *BalanceRepository) Debit(ctx context.Context, userID int64, amount int64) (int64, bool, error) {
	query := `
		UPDATE balances
		SET stars = stars - $2, updated_at = NOW()
		WHERE user_id = $1 AND stars >= $2
		RETURNING stars
	`

	var newBalance int64
	err := r.q.QueryRow(ctx, query, userID, amount).Scan(&newBalance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to debit %d from user %d: %w", amount, userID, err)
	}
	return newBalance, true, nil
}

// Credit adds amount in a single statement
func (r *BalanceRepository) Credit(ctx context.Context, userID int64, amount int64) (int64, bool, error) {
	query := `
		UPDATE balances
		SET stars = stars + $2, updated_at = NOW()
		WHERE user_id = $1
		RETURNING stars
	`

	var newBalance int64
	err := r.q.QueryRow(ctx, query, userID, amount).Scan(&newBalance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to credit %d to user %d: %w", amount, userID, err)
	}
	return newBalance, true, nil
}
