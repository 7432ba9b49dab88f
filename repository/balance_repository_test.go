package repository

import (
	"context"
	"testing"

	"starsgame/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBalanceRepository(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewBalanceRepository(testDB.DB)
	ctx := context.Background()

	t.Run("missing account", func(t *testing.T) {
		balance, err := repo.Get(ctx, 1)
		require.NoError(t, err)
		assert.Nil(t, balance)

		_, ok, err := repo.Debit(ctx, 1, 10)
		require.NoError(t, err)
		assert.False(t, ok)

		_, ok, err = repo.Credit(ctx, 1, 10)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("ensure is idempotent", func(t *testing.T) {
		first, err := repo.Ensure(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(0), first.Stars)

		_, ok, err := repo.Credit(ctx, 2, 500)
		require.NoError(t, err)
		require.True(t, ok)

		second, err := repo.Ensure(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(500), second.Stars)
	})

	t.Run("debit never goes below zero", func(t *testing.T) {
		testutil.CreateTestBalance(t, testDB.DB, 3, 100)

		newBalance, ok, err := repo.Debit(ctx, 3, 100)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, int64(0), newBalance)

		_, ok, err = repo.Debit(ctx, 3, 1)
		require.NoError(t, err)
		assert.False(t, ok)

		balance, err := repo.Get(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, int64(0), balance.Stars)
	})

	t.Run("zero credit", func(t *testing.T) {
		testutil.CreateTestBalance(t, testDB.DB, 4, 70)

		newBalance, ok, err := repo.Credit(ctx, 4, 0)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, int64(70), newBalance)
	})
}
