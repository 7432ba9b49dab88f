package repository

import (
	"context"
	"testing"
	"time"

	"starsgame/models"
	"starsgame/repository/testutil"
	"starsgame/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrashBetRepository(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	rounds := NewRoundRepository(testDB.DB)
	repo := NewCrashBetRepository(testDB.DB)
	ctx := context.Background()

	testutil.CreateTestBalance(t, testDB.DB, 20, 1000)

	round := testutil.CreateTestRound("2.50", 1_000_000)
	require.NoError(t, rounds.Create(ctx, round))

	t.Run("create and read back", func(t *testing.T) {
		bet := testutil.CreateTestCrashBet(20, round, 100)
		require.NoError(t, repo.Create(ctx, bet))

		stored, err := repo.GetByID(ctx, bet.ID)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, "2.50", stored.CrashPoint.StringFixed(2))
		assert.Equal(t, models.CrashBetStatusActive, stored.Status)
		assert.Nil(t, stored.CashoutPoint)
		assert.Nil(t, stored.Payout)
		assert.Nil(t, stored.SettledAt)
	})

	t.Run("settle only once", func(t *testing.T) {
		bet := testutil.CreateTestCrashBet(20, round, 100)
		require.NoError(t, repo.Create(ctx, bet))

		point := decimal.RequireFromString("1.82")
		payout, profit := int64(182), int64(82)
		settledAt := time.Now()
		bet.Status = models.CrashBetStatusCashedOut
		bet.CashoutPoint = &point
		bet.Payout = &payout
		bet.Profit = &profit
		bet.SettledAt = &settledAt

		require.NoError(t, repo.Settle(ctx, bet))
		assert.Error(t, repo.Settle(ctx, bet))

		stored, err := repo.GetByID(ctx, bet.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.CashoutPoint)
		assert.Equal(t, "1.82", stored.CashoutPoint.StringFixed(2))
		assert.Equal(t, int64(182), *stored.Payout)
		assert.NotNil(t, stored.SettledAt)
	})

	t.Run("expired active bets", func(t *testing.T) {
		// 2.50 is reached 15 272 ms into the flight
		before, err := repo.GetExpiredActive(ctx, 1_000_000+15_000, service.DefaultGrowthRate, 10)
		require.NoError(t, err)
		assert.Empty(t, before)

		after, err := repo.GetExpiredActive(ctx, 1_000_000+15_300, service.DefaultGrowthRate, 10)
		require.NoError(t, err)
		require.Len(t, after, 1)
		assert.Equal(t, models.CrashBetStatusActive, after[0].Status)
	})

	t.Run("bets of a round", func(t *testing.T) {
		bets, err := repo.GetByRound(ctx, round.ID, 10)
		require.NoError(t, err)
		assert.Len(t, bets, 2)
	})
}
