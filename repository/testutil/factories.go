package testutil

import (
	"context"
	"testing"
	"time"

	"starsgame/database"
	"starsgame/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// CreateTestBalance inserts a balance together with the topup entry that explains it
func CreateTestBalance(t *testing.T, db *database.DB, userID int64, stars int64) {
	ctx := context.Background()

	_, err := db.Exec(ctx, `INSERT INTO balances (user_id, stars) VALUES ($1, $2)`, userID, stars)
	require.NoError(t, err)

	if stars > 0 {
		_, err = db.Exec(ctx, `
			INSERT INTO balance_tx (user_id, type, amount, balance_before, balance_after, meta)
			VALUES ($1, 'topup', $2, 0, $2, '{"seed": true}')
		`, userID, stars)
		require.NoError(t, err)
	}
}

// CreateTestRound builds a pending round starting at startTime
func CreateTestRound(crashPoint string, startTime int64) *models.Round {
	return &models.Round{
		CrashPoint: decimal.RequireFromString(crashPoint),
		StartTime:  startTime,
		Status:     models.RoundStatusPending,
	}
}

// CreateTestCrashBet builds an active bet snapshotting round
func CreateTestCrashBet(userID int64, round *models.Round, amount int64) *models.CrashBet {
	return &models.CrashBet{
		UserID:     userID,
		RoundID:    round.ID,
		BetAmount:  amount,
		CrashPoint: round.CrashPoint,
		StartTime:  round.StartTime,
		Status:     models.CrashBetStatusActive,
	}
}

// CreateTestBalanceTransaction builds a ledger entry
func CreateTestBalanceTransaction(userID int64, txType models.TransactionType, before, amount int64) *models.BalanceTransaction {
	return &models.BalanceTransaction{
		UserID:        userID,
		Type:          txType,
		Amount:        amount,
		BalanceBefore: before,
		BalanceAfter:  before + amount,
		Meta: map[string]any{
			"test": true,
		},
		CreatedAt: time.Now(),
	}
}

// CreateTestCase returns the case used across integration tests
func CreateTestCase() *models.CaseDefinition {
	return &models.CaseDefinition{
		ID:    "starter",
		Name:  "Starter Case",
		Price: 200,
		Items: []models.CaseItem{
			{ID: "a", Name: "Sticker", Value: 80, Weight: 70},
			{ID: "b", Name: "Teddy", Value: 500, Weight: 25},
			{ID: "c", Name: "Diamond Ring", Value: 1500, Weight: 5, Rare: true},
		},
	}
}
