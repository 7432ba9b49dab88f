package service

import (
	"context"
	"time"

	"starsgame/events"
	"starsgame/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockBalanceRepository is a mock implementation of BalanceRepository
type MockBalanceRepository struct {
	mock.Mock
}

func (m *MockBalanceRepository) Ensure(ctx context.Context, userID int64) (*models.Balance, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Balance), args.Error(1)
}

func (m *MockBalanceRepository) Get(ctx context.Context, userID int64) (*models.Balance, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Balance), args.Error(1)
}

func (m *MockBalanceRepository) GetForShare(ctx context.Context, userID int64) (*models.Balance, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Balance), args.Error(1)
}

func (m *MockBalanceRepository) Debit(ctx context.Context, userID int64, amount int64) (int64, bool, error) {
	args := m.Called(ctx, userID, amount)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

func (m *MockBalanceRepository) Credit(ctx context.Context, userID int64, amount int64) (int64, bool, error) {
	args := m.Called(ctx, userID, amount)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

// MockBalanceTransactionRepository is a mock implementation of BalanceTransactionRepository
type MockBalanceTransactionRepository struct {
	mock.Mock
}

func (m *MockBalanceTransactionRepository) Append(ctx context.Context, tx *models.BalanceTransaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockBalanceTransactionRepository) GetByIdempotencyKey(ctx context.Context, key string) (*models.BalanceTransaction, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BalanceTransaction), args.Error(1)
}

func (m *MockBalanceTransactionRepository) LockIdempotencyKey(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockBalanceTransactionRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*models.BalanceTransaction, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BalanceTransaction), args.Error(1)
}

func (m *MockBalanceTransactionRepository) GetAllByUser(ctx context.Context, userID int64) ([]*models.BalanceTransaction, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BalanceTransaction), args.Error(1)
}

func (m *MockBalanceTransactionRepository) GetActiveUserIDs(ctx context.Context, since time.Time, limit int) ([]int64, error) {
	args := m.Called(ctx, since, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

// MockRoundRepository is a mock implementation of RoundRepository
type MockRoundRepository struct {
	mock.Mock
}

func (m *MockRoundRepository) LockRotation(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockRoundRepository) GetCurrent(ctx context.Context) (*models.Round, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Round), args.Error(1)
}

func (m *MockRoundRepository) GetByIDForShare(ctx context.Context, id int64) (*models.Round, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Round), args.Error(1)
}

func (m *MockRoundRepository) Create(ctx context.Context, round *models.Round) error {
	args := m.Called(ctx, round)
	return args.Error(0)
}

func (m *MockRoundRepository) MarkEnded(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRoundRepository) GetRecentEnded(ctx context.Context, limit int) ([]*models.Round, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Round), args.Error(1)
}

// MockCrashBetRepository is a mock implementation of CrashBetRepository
type MockCrashBetRepository struct {
	mock.Mock
}

func (m *MockCrashBetRepository) Create(ctx context.Context, bet *models.CrashBet) error {
	args := m.Called(ctx, bet)
	return args.Error(0)
}

func (m *MockCrashBetRepository) GetByID(ctx context.Context, id int64) (*models.CrashBet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CrashBet), args.Error(1)
}

func (m *MockCrashBetRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.CrashBet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CrashBet), args.Error(1)
}

func (m *MockCrashBetRepository) Settle(ctx context.Context, bet *models.CrashBet) error {
	args := m.Called(ctx, bet)
	return args.Error(0)
}

func (m *MockCrashBetRepository) GetByRound(ctx context.Context, roundID int64, limit int) ([]*models.CrashBet, error) {
	args := m.Called(ctx, roundID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CrashBet), args.Error(1)
}

func (m *MockCrashBetRepository) GetExpiredActive(ctx context.Context, nowMs int64, growthRate float64, limit int) ([]*models.CrashBet, error) {
	args := m.Called(ctx, nowMs, growthRate, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CrashBet), args.Error(1)
}

// MockPityRepository is a mock implementation of PityRepository
type MockPityRepository struct {
	mock.Mock
}

func (m *MockPityRepository) Get(ctx context.Context, userID int64, caseID string) (int, error) {
	args := m.Called(ctx, userID, caseID)
	return args.Int(0), args.Error(1)
}

func (m *MockPityRepository) GetForUpdate(ctx context.Context, userID int64, caseID string) (*models.PityState, error) {
	args := m.Called(ctx, userID, caseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PityState), args.Error(1)
}

func (m *MockPityRepository) Upsert(ctx context.Context, userID int64, caseID string, lossCount int) error {
	args := m.Called(ctx, userID, caseID, lossCount)
	return args.Error(0)
}

// MockCaseOpenRepository is a mock implementation of CaseOpenRepository
type MockCaseOpenRepository struct {
	mock.Mock
}

func (m *MockCaseOpenRepository) Create(ctx context.Context, open *models.CaseOpen) error {
	args := m.Called(ctx, open)
	return args.Error(0)
}

func (m *MockCaseOpenRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CaseOpen, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CaseOpen), args.Error(1)
}

// MockInventoryRepository is a mock implementation of InventoryRepository
type MockInventoryRepository struct {
	mock.Mock
}

func (m *MockInventoryRepository) Create(ctx context.Context, entry *models.InventoryEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockInventoryRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*models.InventoryEntry, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.InventoryEntry), args.Error(1)
}

// MockActivityRepository is a mock implementation of ActivityRepository
type MockActivityRepository struct {
	mock.Mock
}

func (m *MockActivityRepository) GetUserActivity(ctx context.Context, userID int64, limit int) ([]*models.ActivityEntry, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ActivityEntry), args.Error(1)
}

func (m *MockActivityRepository) GetUserTotals(ctx context.Context, userID int64) (*models.ActivityTotals, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ActivityTotals), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork.
// Begin, Commit and Rollback are recorded; repositories are plain fields.
type MockUnitOfWork struct {
	mock.Mock

	balanceRepo            BalanceRepository
	balanceTransactionRepo BalanceTransactionRepository
	roundRepo              RoundRepository
	crashBetRepo           CrashBetRepository
	pityRepo               PityRepository
	caseOpenRepo           CaseOpenRepository
	inventoryRepo          InventoryRepository
	activityRepo           ActivityRepository
	eventBus               EventPublisher
}

// MockRepositories groups the repositories handed out by a MockUnitOfWork
type MockRepositories struct {
	Balance            *MockBalanceRepository
	BalanceTransaction *MockBalanceTransactionRepository
	Round              *MockRoundRepository
	CrashBet           *MockCrashBetRepository
	Pity               *MockPityRepository
	CaseOpen           *MockCaseOpenRepository
	Inventory          *MockInventoryRepository
	Activity           *MockActivityRepository
	EventBus           *MockEventPublisher
}

// NewMockRepositories creates a full set of fresh repository mocks
func NewMockRepositories() *MockRepositories {
	return &MockRepositories{
		Balance:            new(MockBalanceRepository),
		BalanceTransaction: new(MockBalanceTransactionRepository),
		Round:              new(MockRoundRepository),
		CrashBet:           new(MockCrashBetRepository),
		Pity:               new(MockPityRepository),
		CaseOpen:           new(MockCaseOpenRepository),
		Inventory:          new(MockInventoryRepository),
		Activity:           new(MockActivityRepository),
		EventBus:           new(MockEventPublisher),
	}
}

// SetRepositories configures the repositories returned by the unit of work
func (m *MockUnitOfWork) SetRepositories(repos *MockRepositories) {
	m.balanceRepo = repos.Balance
	m.balanceTransactionRepo = repos.BalanceTransaction
	m.roundRepo = repos.Round
	m.crashBetRepo = repos.CrashBet
	m.pityRepo = repos.Pity
	m.caseOpenRepo = repos.CaseOpen
	m.inventoryRepo = repos.Inventory
	m.activityRepo = repos.Activity
	m.eventBus = repos.EventBus
}

// AssertExpectations checks every repository mock
func (r *MockRepositories) AssertExpectations(t mock.TestingT) {
	r.Balance.AssertExpectations(t)
	r.BalanceTransaction.AssertExpectations(t)
	r.Round.AssertExpectations(t)
	r.CrashBet.AssertExpectations(t)
	r.Pity.AssertExpectations(t)
	r.CaseOpen.AssertExpectations(t)
	r.Inventory.AssertExpectations(t)
	r.Activity.AssertExpectations(t)
	r.EventBus.AssertExpectations(t)
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) BalanceRepository() BalanceRepository {
	return m.balanceRepo
}

func (m *MockUnitOfWork) BalanceTransactionRepository() BalanceTransactionRepository {
	return m.balanceTransactionRepo
}

func (m *MockUnitOfWork) RoundRepository() RoundRepository {
	return m.roundRepo
}

func (m *MockUnitOfWork) CrashBetRepository() CrashBetRepository {
	return m.crashBetRepo
}

func (m *MockUnitOfWork) PityRepository() PityRepository {
	return m.pityRepo
}

func (m *MockUnitOfWork) CaseOpenRepository() CaseOpenRepository {
	return m.caseOpenRepo
}

func (m *MockUnitOfWork) InventoryRepository() InventoryRepository {
	return m.inventoryRepo
}

func (m *MockUnitOfWork) ActivityRepository() ActivityRepository {
	return m.activityRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.eventBus
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
