package service

import (
	"context"
	"testing"
	"time"

	"starsgame/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityService_UserHistory(t *testing.T) {
	ctx := context.Background()
	mockFactory, _, repos := setupUnitOfWork(ctx)
	service := NewActivityService(mockFactory)

	entries := []*models.ActivityEntry{
		{Game: models.ActivityGameCase, CreatedAt: time.Now(), Change: 300, Stake: 200, CaseID: "starter", ItemName: "Teddy", Value: 500},
		{Game: models.ActivityGameCrash, CreatedAt: time.Now().Add(-time.Minute), Change: -100, Stake: 100},
	}
	repos.Activity.On("GetUserActivity", ctx, int64(42), defaultActivityLimit).Return(entries, nil)
	repos.Activity.On("GetUserTotals", ctx, int64(42)).Return(&models.ActivityTotals{CaseSpent: 200, CaseWon: 500, CrashSpent: 100}, nil)

	activity, err := service.UserHistory(ctx, 42, 0)

	require.NoError(t, err)
	assert.Equal(t, int64(42), activity.UserID)
	assert.Len(t, activity.Entries, 2)
	assert.Equal(t, int64(500), activity.Totals.CaseWon)
	repos.AssertExpectations(t)
}

func TestActivityService_UserHistory_InvalidUser(t *testing.T) {
	service := NewActivityService(new(MockUnitOfWorkFactory))

	_, err := service.UserHistory(context.Background(), 0, 10)

	assert.ErrorIs(t, err, ErrValidation)
}
