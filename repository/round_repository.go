package repository

import (
	"context"
	"errors"
	"fmt"

	"starsgame/database"
	"starsgame/models"

	"github.com/jackc/pgx/v5"
)

// rotationLockKey identifies the advisory lock that serializes round rotation
const rotationLockKey int64 = 0x6372617368 // ASCII "crash"

// RoundRepository implements the RoundRepository interface
type RoundRepository struct {
	q queryable
}

// NewRoundRepository creates a new round repository
func NewRoundRepository(db *database.DB) *RoundRepository {
	return &RoundRepository{q: db.Pool}
}

// newRoundRepositoryWithTx creates a new round repository with a transaction
func newRoundRepositoryWithTx(tx queryable) *RoundRepository {
	return &RoundRepository{q: tx}
}

const roundColumns = `id, crash_point, start_time, status, created_at`

// LockRotation takes the rotation lock until the transaction ends
func (r *RoundRepository) LockRotation(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, rotationLockKey); err != nil {
		return fmt.Errorf("failed to take rotation lock: %w", err)
	}
	return nil
}

// GetCurrent returns the round that has not ended yet
func (r *RoundRepository) GetCurrent(ctx context.Context) (*models.Round, error) {
	query := `
		SELECT ` + roundColumns + `
		FROM rounds
		WHERE status <> 'ended'
		ORDER BY id DESC
		LIMIT 1
	`

	round, err := scanRound(r.q.QueryRow(ctx, query))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get current round: %w", err)
	}
	return round, nil
}

// GetByIDForShare returns a round and holds a share lock on it
func (r *RoundRepository) GetByIDForShare(ctx context.Context, id int64) (*models.Round, error) {
	query := `
		SELECT ` + roundColumns + `
		FROM rounds
		WHERE id = $1
		FOR SHARE
	`

	round, err := scanRound(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get round %d: %w", id, err)
	}
	return round, nil
}

// Create inserts a new round
func (r *RoundRepository) Create(ctx context.Context, round *models.Round) error {
	query := `
		INSERT INTO rounds (crash_point, start_time, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query, round.CrashPoint, round.StartTime, round.Status).
		Scan(&round.ID, &round.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create round: %w", err)
	}
	return nil
}

// MarkEnded moves a round to its terminal state
func (r *RoundRepository) MarkEnded(ctx context.Context, id int64) error {
	result, err := r.q.Exec(ctx, `UPDATE rounds SET status = 'ended' WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to end round %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("round %d not found", id)
	}
	return nil
}

// GetRecentEnded returns the latest ended rounds, newest first
func (r *RoundRepository) GetRecentEnded(ctx context.Context, limit int) ([]*models.Round, error) {
	query := `
		SELECT ` + roundColumns + `
		FROM rounds
		WHERE status = 'ended'
		ORDER BY id DESC
		LIMIT $1
	`

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent rounds: %w", err)
	}
	defer rows.Close()

	var rounds []*models.Round
	for rows.Next() {
		round, err := scanRound(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan round: %w", err)
		}
		rounds = append(rounds, round)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rounds: %w", err)
	}
	return rounds, nil
}

func scanRound(row pgx.Row) (*models.Round, error) {
	var round models.Round
	err := row.Scan(
		&round.ID,
		&round.CrashPoint,
		&round.StartTime,
		&round.Status,
		&round.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &round, nil
}
