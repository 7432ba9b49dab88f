package repository

import (
	"context"
	"fmt"

	"starsgame/database"
	"starsgame/models"

	"github.com/shopspring/decimal"
)

// ActivityRepository implements the ActivityRepository interface
type ActivityRepository struct {
	q queryable
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *database.DB) *ActivityRepository {
	return &ActivityRepository{q: db.Pool}
}

// newActivityRepositoryWithTx creates a new activity repository with a transaction
func newActivityRepositoryWithTx(tx queryable) *ActivityRepository {
	return &ActivityRepository{q: tx}
}

// GetUserActivity merges crash bets and case openings, newest first.
// The crash point of a bet that is still active is never returned.
func (r *ActivityRepository) GetUserActivity(ctx context.Context, userID int64, limit int) ([]*models.ActivityEntry, error) {
	query := `
		SELECT game, created_at, change, stake, crash_point, cashout_point, case_id, item_name, value
		FROM (
			SELECT 'crash' AS game,
			       created_at,
			       COALESCE(profit, -bet_amount) AS change,
			       bet_amount AS stake,
			       CASE WHEN status = 'active' THEN NULL ELSE crash_point END AS crash_point,
			       cashout_point,
			       NULL::text AS case_id,
			       NULL::text AS item_name,
			       NULL::bigint AS value
			FROM crash_bets
			WHERE user_id = $1
			UNION ALL
			SELECT 'case',
			       created_at,
			       item_value - case_price,
			       case_price,
			       NULL::numeric,
			       NULL::numeric,
			       case_id,
			       item_name,
			       item_value
			FROM case_opens
			WHERE user_id = $1
		) activity
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get activity for user %d: %w", userID, err)
	}
	defer rows.Close()

	var entries []*models.ActivityEntry
	for rows.Next() {
		var (
			entry        models.ActivityEntry
			crashPoint   decimal.NullDecimal
			cashoutPoint decimal.NullDecimal
			caseID       *string
			itemName     *string
			value        *int64
		)
		if err := rows.Scan(
			&entry.Game,
			&entry.CreatedAt,
			&entry.Change,
			&entry.Stake,
			&crashPoint,
			&cashoutPoint,
			&caseID,
			&itemName,
			&value,
		); err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}

		if crashPoint.Valid {
			entry.CrashPoint = &crashPoint.Decimal
		}
		if cashoutPoint.Valid {
			entry.CashoutPoint = &cashoutPoint.Decimal
		}
		if caseID != nil {
			entry.CaseID = *caseID
		}
		if itemName != nil {
			entry.ItemName = *itemName
		}
		if value != nil {
			entry.Value = *value
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activity: %w", err)
	}
	return entries, nil
}

// GetUserTotals sums spending and winnings per game
func (r *ActivityRepository) GetUserTotals(ctx context.Context, userID int64) (*models.ActivityTotals, error) {
	query := `
		SELECT
			COALESCE((SELECT SUM(case_price) FROM case_opens WHERE user_id = $1), 0)::bigint,
			COALESCE((SELECT SUM(item_value) FROM case_opens WHERE user_id = $1), 0)::bigint,
			COALESCE((SELECT SUM(bet_amount) FROM crash_bets WHERE user_id = $1), 0)::bigint,
			COALESCE((SELECT SUM(payout) FROM crash_bets WHERE user_id = $1), 0)::bigint
	`

	var totals models.ActivityTotals
	err := r.q.QueryRow(ctx, query, userID).Scan(
		&totals.CaseSpent,
		&totals.CaseWon,
		&totals.CrashSpent,
		&totals.CrashWon,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get totals for user %d: %w", userID, err)
	}
	return &totals, nil
}
