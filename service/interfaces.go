package service

import (
	"context"
	"time"

	"starsgame/events"
	"starsgame/models"

	"github.com/google/uuid"
)

// BalanceRepository defines the interface for balance data access
type BalanceRepository interface {
	// Ensure creates a zero balance for the user if none exists and returns it
	Ensure(ctx context.Context, userID int64) (*models.Balance, error)

	// Get returns the user's balance, or nil if the account does not exist
	Get(ctx context.Context, userID int64) (*models.Balance, error)

	// GetForShare returns the balance and blocks concurrent changes until the transaction ends
	GetForShare(ctx context.Context, userID int64) (*models.Balance, error)

	// Debit subtracts amount only if the balance covers it.
	// ok is false when no row qualified (missing account or insufficient funds).
	Debit(ctx context.Context, userID int64, amount int64) (newBalance int64, ok bool, err error)

	// Credit adds amount. ok is false when the account does not exist.
	Credit(ctx context.Context, userID int64, amount int64) (newBalance int64, ok bool, err error)
}

// BalanceTransactionRepository defines the interface for the append-only ledger
type BalanceTransactionRepository interface {
	// Append inserts a ledger entry. A reused idempotency key yields ErrDuplicateKey.
	Append(ctx context.Context, tx *models.BalanceTransaction) error

	// GetByIdempotencyKey returns the entry recorded under key, or nil
	GetByIdempotencyKey(ctx context.Context, key string) (*models.BalanceTransaction, error)

	// LockIdempotencyKey serializes transactions using the same key until they end
	LockIdempotencyKey(ctx context.Context, key string) error

	// GetByUser returns the most recent entries for a user
	GetByUser(ctx context.Context, userID int64, limit int) ([]*models.BalanceTransaction, error)

	// GetAllByUser returns every entry for a user in the order they were written
	GetAllByUser(ctx context.Context, userID int64) ([]*models.BalanceTransaction, error)

	// GetActiveUserIDs returns users with entries written since the given time
	GetActiveUserIDs(ctx context.Context, since time.Time, limit int) ([]int64, error)
}

// RoundRepository defines the interface for crash round data access
type RoundRepository interface {
	// LockRotation serializes round rotation until the transaction ends
	LockRotation(ctx context.Context) error

	// GetCurrent returns the round that has not ended yet, or nil
	GetCurrent(ctx context.Context) (*models.Round, error)

	// GetByIDForShare returns a round and keeps it from being ended concurrently
	GetByIDForShare(ctx context.Context, id int64) (*models.Round, error)

	// Create inserts a new round
	Create(ctx context.Context, round *models.Round) error

	// MarkEnded moves a round to its terminal state
	MarkEnded(ctx context.Context, id int64) error

	// GetRecentEnded returns the latest ended rounds, newest first
	GetRecentEnded(ctx context.Context, limit int) ([]*models.Round, error)
}

// CrashBetRepository defines the interface for crash bet data access
type CrashBetRepository interface {
	// Create inserts a new active bet
	Create(ctx context.Context, bet *models.CrashBet) error

	// GetByID returns a bet, or nil
	GetByID(ctx context.Context, id int64) (*models.CrashBet, error)

	// GetByIDForUpdate returns a bet and locks it until the transaction ends
	GetByIDForUpdate(ctx context.Context, id int64) (*models.CrashBet, error)

	// Settle writes the terminal state of an active bet
	Settle(ctx context.Context, bet *models.CrashBet) error

	// GetByRound returns the bets of a round, oldest first
	GetByRound(ctx context.Context, roundID int64, limit int) ([]*models.CrashBet, error)

	// GetExpiredActive locks active bets whose flight has passed the crash point at nowMs
	GetExpiredActive(ctx context.Context, nowMs int64, growthRate float64, limit int) ([]*models.CrashBet, error)
}

// PityRepository defines the interface for the per-case loss streak
type PityRepository interface {
	// Get returns the loss count, 0 when no state exists yet
	Get(ctx context.Context, userID int64, caseID string) (int, error)

	// GetForUpdate returns the state, creating it if needed, and locks it
	GetForUpdate(ctx context.Context, userID int64, caseID string) (*models.PityState, error)

	// Upsert stores a new loss count
	Upsert(ctx context.Context, userID int64, caseID string, lossCount int) error
}

// CaseOpenRepository defines the interface for the case opening audit log
type CaseOpenRepository interface {
	// Create appends an audit record
	Create(ctx context.Context, open *models.CaseOpen) error

	// GetByID returns an audit record, or nil
	GetByID(ctx context.Context, id uuid.UUID) (*models.CaseOpen, error)
}

// InventoryRepository defines the interface for granting items
type InventoryRepository interface {
	// Create grants an item to a user
	Create(ctx context.Context, entry *models.InventoryEntry) error

	// GetByUser returns the items of a user, newest first
	GetByUser(ctx context.Context, userID int64, limit int) ([]*models.InventoryEntry, error)
}

// ActivityRepository defines read models over both games
type ActivityRepository interface {
	// GetUserActivity returns crash and case activity merged by time, newest first
	GetUserActivity(ctx context.Context, userID int64, limit int) ([]*models.ActivityEntry, error)

	// GetUserTotals sums spending and winnings per game
	GetUserTotals(ctx context.Context, userID int64) (*models.ActivityTotals, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// CaseCatalog provides case definitions
type CaseCatalog interface {
	// Get returns a case by id
	Get(caseID string) (*models.CaseDefinition, bool)

	// List returns all cases
	List() []*models.CaseDefinition
}

// RandomSource yields uniform values in [0, 1)
type RandomSource interface {
	Float64() float64
}

// LedgerService defines the public balance operations
type LedgerService interface {
	// EnsureAccount creates a zero balance for a new user
	EnsureAccount(ctx context.Context, userID int64) (*models.Balance, error)

	// GetBalance returns the current balance
	GetBalance(ctx context.Context, userID int64) (int64, error)

	// TopUp credits stars from an external payment exactly once per idempotency key
	TopUp(ctx context.Context, userID int64, amount int64, idempotencyKey string, meta map[string]any) (*models.TopUpResult, error)

	// History returns the most recent ledger entries
	History(ctx context.Context, userID int64, limit int) ([]*models.BalanceTransaction, error)

	// Reconcile replays the ledger of a user against the stored balance
	Reconcile(ctx context.Context, userID int64) (*models.ReconcileReport, error)

	// ActiveUsers returns users with ledger activity since the given time
	ActiveUsers(ctx context.Context, since time.Time, limit int) ([]int64, error)
}

// RoundService defines the crash round scheduler
type RoundService interface {
	// CurrentRoundOrCreate returns the open round, rotating it when its flight is over
	CurrentRoundOrCreate(ctx context.Context, now time.Time) (*models.Round, error)

	// GetRoundState returns everything a client needs to render the game
	GetRoundState(ctx context.Context, now time.Time) (*models.RoundState, error)
}

// CrashService defines the crash session operations
type CrashService interface {
	// Start places a bet on the round that is accepting bets
	Start(ctx context.Context, userID int64, betAmount int64) (*models.CrashStartResult, error)

	// Cashout settles a bet at the server-side multiplier
	Cashout(ctx context.Context, userID int64, sessionID int64) (*models.CashoutResult, error)

	// SweepExpired busts active bets whose round already crashed
	SweepExpired(ctx context.Context, limit int) (int, error)

	// Session returns the public view of one of the user's bets
	Session(ctx context.Context, userID int64, sessionID int64) (*models.RoundBet, error)
}

// LotteryService defines the case opening operations
type LotteryService interface {
	// Open buys and opens a case
	Open(ctx context.Context, userID int64, caseID string) (*models.OpenResult, error)

	// PityCount returns the current loss streak of a user on a case
	PityCount(ctx context.Context, userID int64, caseID string) (int, error)

	// GetOpen returns the audit record of one of the user's openings
	GetOpen(ctx context.Context, userID int64, openID uuid.UUID) (*models.CaseOpen, error)

	// Inventory returns the items granted to a user, newest first
	Inventory(ctx context.Context, userID int64, limit int) ([]*models.InventoryEntry, error)
}

// ActivityService defines the history report
type ActivityService interface {
	// UserHistory returns the merged crash and case history of a user with totals
	UserHistory(ctx context.Context, userID int64, limit int) (*models.UserActivity, error)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	BalanceRepository() BalanceRepository
	BalanceTransactionRepository() BalanceTransactionRepository
	RoundRepository() RoundRepository
	CrashBetRepository() CrashBetRepository
	PityRepository() PityRepository
	CaseOpenRepository() CaseOpenRepository
	InventoryRepository() InventoryRepository
	ActivityRepository() ActivityRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create creates a new UnitOfWork instance
	Create() UnitOfWork
}
