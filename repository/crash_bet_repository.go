package repository

import (
	"context"
	"errors"
	"fmt"

	"starsgame/database"
	"starsgame/models"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// CrashBetRepository implements the CrashBetRepository interface
type CrashBetRepository struct {
	q queryable
}

// NewCrashBetRepository creates a new crash bet repository
func NewCrashBetRepository(db *database.DB) *CrashBetRepository {
	return &CrashBetRepository{q: db.Pool}
}

// newCrashBetRepositoryWithTx creates a new crash bet repository with a transaction
func newCrashBetRepositoryWithTx(tx queryable) *CrashBetRepository {
	return &CrashBetRepository{q: tx}
}

const crashBetColumns = `id, user_id, round_id, bet_amount, crash_point, start_time, status,
		cashout_point, payout, profit, created_at, settled_at`

// Create inserts a new bet
func (r *CrashBetRepository) Create(ctx context.Context, bet *models.CrashBet) error {
	query := `
		INSERT INTO crash_bets (user_id, round_id, bet_amount, crash_point, start_time, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		bet.UserID,
		bet.RoundID,
		bet.BetAmount,
		bet.CrashPoint,
		bet.StartTime,
		bet.Status,
	).Scan(&bet.ID, &bet.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create crash bet for user %d: %w", bet.UserID, err)
	}
	return nil
}

// GetByID retrieves a bet by ID
func (r *CrashBetRepository) GetByID(ctx context.Context, id int64) (*models.CrashBet, error) {
	query := `SELECT ` + crashBetColumns + ` FROM crash_bets WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetByIDForUpdate retrieves a bet and locks its row
func (r *CrashBetRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.CrashBet, error) {
	query := `SELECT ` + crashBetColumns + ` FROM crash_bets WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, query, id)
}

func (r *CrashBetRepository) getOne(ctx context.Context, query string, id int64) (*models.CrashBet, error) {
	bet, err := scanCrashBet(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get crash bet %d: %w", id, err)
	}
	return bet, nil
}

// Settle stores the terminal state of an active bet
func (r *CrashBetRepository) Settle(ctx context.Context, bet *models.CrashBet) error {
	query := `
		UPDATE crash_bets
		SET status = $2, cashout_point = $3, payout = $4, profit = $5, settled_at = $6
		WHERE id = $1 AND status = 'active'
	`

	var cashoutPoint decimal.NullDecimal
	if bet.CashoutPoint != nil {
		cashoutPoint = decimal.NewNullDecimal(*bet.CashoutPoint)
	}

	result, err := r.q.Exec(ctx, query,
		bet.ID,
		bet.Status,
		cashoutPoint,
		bet.Payout,
		bet.Profit,
		bet.SettledAt,
	)
	if err != nil {
		return fmt.Errorf("failed to settle crash bet %d: %w", bet.ID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("crash bet %d is not active", bet.ID)
	}
	return nil
}

// GetByRound returns the bets of a round, oldest first
func (r *CrashBetRepository) GetByRound(ctx context.Context, roundID int64, limit int) ([]*models.CrashBet, error) {
	query := `
		SELECT ` + crashBetColumns + `
		FROM crash_bets
		WHERE round_id = $1
		ORDER BY id ASC
		LIMIT $2
	`
	return r.list(ctx, query, roundID, limit)
}

// GetExpiredActive locks active bets whose flight reached the crash point by nowMs.
// Rows already locked by a cashout in progress are skipped.
func (r *CrashBetRepository) GetExpiredActive(ctx context.Context, nowMs int64, growthRate float64, limit int) ([]*models.CrashBet, error) {
	query := `
		SELECT ` + crashBetColumns + `
		FROM crash_bets
		WHERE status = 'active'
		  AND start_time + CEIL(LN(crash_point::float8) / $2::float8) <= $1
		ORDER BY id ASC
		LIMIT $3
		FOR UPDATE SKIP LOCKED
	`
	return r.list(ctx, query, nowMs, growthRate, limit)
}

func (r *CrashBetRepository) list(ctx context.Context, query string, args ...any) ([]*models.CrashBet, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query crash bets: %w", err)
	}
	defer rows.Close()

	var bets []*models.CrashBet
	for rows.Next() {
		bet, err := scanCrashBet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan crash bet: %w", err)
		}
		bets = append(bets, bet)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate crash bets: %w", err)
	}
	return bets, nil
}

func scanCrashBet(row pgx.Row) (*models.CrashBet, error) {
	var bet models.CrashBet
	var cashoutPoint decimal.NullDecimal
	err := row.Scan(
		&bet.ID,
		&bet.UserID,
		&bet.RoundID,
		&bet.BetAmount,
		&bet.CrashPoint,
		&bet.StartTime,
		&bet.Status,
		&cashoutPoint,
		&bet.Payout,
		&bet.Profit,
		&bet.CreatedAt,
		&bet.SettledAt,
	)
	if err != nil {
		return nil, err
	}

	if cashoutPoint.Valid {
		bet.CashoutPoint = &cashoutPoint.Decimal
	}
	return &bet, nil
}
