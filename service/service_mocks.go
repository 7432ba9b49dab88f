package service

import (
	"context"
	"time"

	"starsgame/models"

	"github.com/stretchr/testify/mock"
)

// MockLedgerService is a mock implementation of LedgerService
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) EnsureAccount(ctx context.Context, userID int64) (*models.Balance, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Balance), args.Error(1)
}

func (m *MockLedgerService) GetBalance(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerService) TopUp(ctx context.Context, userID int64, amount int64, idempotencyKey string, meta map[string]any) (*models.TopUpResult, error) {
	args := m.Called(ctx, userID, amount, idempotencyKey, meta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TopUpResult), args.Error(1)
}

func (m *MockLedgerService) History(ctx context.Context, userID int64, limit int) ([]*models.BalanceTransaction, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BalanceTransaction), args.Error(1)
}

func (m *MockLedgerService) Reconcile(ctx context.Context, userID int64) (*models.ReconcileReport, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReconcileReport), args.Error(1)
}

func (m *MockLedgerService) ActiveUsers(ctx context.Context, since time.Time, limit int) ([]int64, error) {
	args := m.Called(ctx, since, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

// MockCrashService is a mock implementation of CrashService
type MockCrashService struct {
	mock.Mock
}

func (m *MockCrashService) Start(ctx context.Context, userID int64, betAmount int64) (*models.CrashStartResult, error) {
	args := m.Called(ctx, userID, betAmount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CrashStartResult), args.Error(1)
}

func (m *MockCrashService) Cashout(ctx context.Context, userID int64, sessionID int64) (*models.CashoutResult, error) {
	args := m.Called(ctx, userID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CashoutResult), args.Error(1)
}

func (m *MockCrashService) SweepExpired(ctx context.Context, limit int) (int, error) {
	args := m.Called(ctx, limit)
	return args.Int(0), args.Error(1)
}

func (m *MockCrashService) Session(ctx context.Context, userID int64, sessionID int64) (*models.RoundBet, error) {
	args := m.Called(ctx, userID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RoundBet), args.Error(1)
}
