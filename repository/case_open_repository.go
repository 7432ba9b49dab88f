package repository

import (
	"context"
	"errors"
	"fmt"

	"starsgame/database"
	"starsgame/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CaseOpenRepository implements the CaseOpenRepository interface
type CaseOpenRepository struct {
	q queryable
}

// NewCaseOpenRepository creates a new case open audit repository
func NewCaseOpenRepository(db *database.DB) *CaseOpenRepository {
	return &CaseOpenRepository{q: db.Pool}
}

// newCaseOpenRepositoryWithTx creates a new case open audit repository with a transaction
func newCaseOpenRepositoryWithTx(tx queryable) *CaseOpenRepository {
	return &CaseOpenRepository{q: tx}
}

// Create appends an audit record. The caller assigns the ID.
func (r *CaseOpenRepository) Create(ctx context.Context, open *models.CaseOpen) error {
	if open.ID == uuid.Nil {
		open.ID = uuid.New()
	}

	query := `
		INSERT INTO case_opens
		(id, user_id, case_id, case_price, item_id, item_name, item_value, rare, guaranteed, loss_count_before, balance_tx_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at
	`

	err := r.q.QueryRow(ctx, query,
		open.ID.String(),
		open.UserID,
		open.CaseID,
		open.CasePrice,
		open.ItemID,
		open.ItemName,
		open.ItemValue,
		open.Rare,
		open.Guaranteed,
		open.LossCountBefore,
		open.BalanceTxID,
	).Scan(&open.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record case open for user %d: %w", open.UserID, err)
	}
	return nil
}

// GetByID retrieves an audit record
func (r *CaseOpenRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CaseOpen, error) {
	query := `
		SELECT id::text, user_id, case_id, case_price, item_id, item_name, item_value,
		       rare, guaranteed, loss_count_before, balance_tx_id, created_at
		FROM case_opens
		WHERE id = $1
	`

	var open models.CaseOpen
	var rawID string
	err := r.q.QueryRow(ctx, query, id.String()).Scan(
		&rawID,
		&open.UserID,
		&open.CaseID,
		&open.CasePrice,
		&open.ItemID,
		&open.ItemName,
		&open.ItemValue,
		&open.Rare,
		&open.Guaranteed,
		&open.LossCountBefore,
		&open.BalanceTxID,
		&open.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get case open %s: %w", id, err)
	}

	open.ID, err = uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse case open id %q: %w", rawID, err)
	}
	return &open, nil
}
