package repository

import (
	"context"
	"errors"
	"fmt"

	"starsgame/database"
	"starsgame/models"

	"github.com/jackc/pgx/v5"
)

// PityRepository implements the PityRepository interface
type PityRepository struct {
	q queryable
}

// NewPityRepository creates a new pity repository
func NewPityRepository(db *database.DB) *PityRepository {
	return &PityRepository{q: db.Pool}
}

// newPityRepositoryWithTx creates a new pity repository with a transaction
func newPityRepositoryWithTx(tx queryable) *PityRepository {
	return &PityRepository{q: tx}
}

// Get returns the loss count, 0 when the user never opened the case
func (r *PityRepository) Get(ctx context.Context, userID int64, caseID string) (int, error) {
	query := `
		SELECT loss_count
		FROM case_pity_state
		WHERE user_id = $1 AND case_id = $2
	`

	var count int
	err := r.q.QueryRow(ctx, query, userID, caseID).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get pity state for user %d case %s: %w", userID, caseID, err)
	}
	return count, nil
}

// GetForUpdate creates the state if needed and locks it
func (r *PityRepository) GetForUpdate(ctx context.Context, userID int64, caseID string) (*models.PityState, error) {
	insert := `
		INSERT INTO case_pity_state (user_id, case_id, loss_count)
		VALUES ($1, $2, 0)
		ON CONFLICT (user_id, case_id) DO NOTHING
	`
	if _, err := r.q.Exec(ctx, insert, userID, caseID); err != nil {
		return nil, fmt.Errorf("failed to create pity state for user %d case %s: %w", userID, caseID, err)
	}

	query := `
		SELECT user_id, case_id, loss_count, updated_at
		FROM case_pity_state
		WHERE user_id = $1 AND case_id = $2
		FOR UPDATE
	`

	var state models.PityState
	err := r.q.QueryRow(ctx, query, userID, caseID).Scan(
		&state.UserID,
		&state.CaseID,
		&state.LossCount,
		&state.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to lock pity state for user %d case %s: %w", userID, caseID, err)
	}
	return &state, nil
}

// Upsert stores a new loss count
func (r *PityRepository) Upsert(ctx context.Context, userID int64, caseID string, lossCount int) error {
	if lossCount < 0 {
		return fmt.Errorf("loss count must not be negative, got %d", lossCount)
	}

	query := `
		INSERT INTO case_pity_state (user_id, case_id, loss_count, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, case_id)
		DO UPDATE SET loss_count = EXCLUDED.loss_count, updated_at = NOW()
	`
	if _, err := r.q.Exec(ctx, query, userID, caseID, lossCount); err != nil {
		return fmt.Errorf("failed to update pity state for user %d case %s: %w", userID, caseID, err)
	}
	return nil
}
