package service

import (
	"context"

	"starsgame/models"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 500
)

type activityService struct {
	uowFactory UnitOfWorkFactory
}

// NewActivityService creates a new activity history service
func NewActivityService(uowFactory UnitOfWorkFactory) ActivityService {
	return &activityService{
		uowFactory: uowFactory,
	}
}

func (s *activityService) UserHistory(ctx context.Context, userID int64, limit int) (*models.UserActivity, error) {
	if userID <= 0 {
		return nil, validationError("invalid user id %d", userID)
	}
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	limit = min(limit, maxActivityLimit)

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, storageError("begin transaction", err)
	}
	defer uow.Rollback()

	entries, err := uow.ActivityRepository().GetUserActivity(ctx, userID, limit)
	if err != nil {
		return nil, storageError("get user activity", err)
	}

	totals, err := uow.ActivityRepository().GetUserTotals(ctx, userID)
	if err != nil {
		return nil, storageError("get user totals", err)
	}

	activity := &models.UserActivity{
		UserID:  userID,
		Entries: entries,
	}
	if totals != nil {
		activity.Totals = *totals
	}
	return activity, nil
}
