package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"starsgame/models"

	log "github.com/sirupsen/logrus"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// LedgerResult describes one ledger operation
type LedgerResult struct {
	Entry   *models.BalanceTransaction
	Balance int64
	Applied bool // false when an idempotent credit had already been applied
}

// Debit atomically removes amount stars from a balance and records the entry.
// It must run inside an active unit of work.
func Debit(ctx context.Context, uow UnitOfWork, userID int64, amount int64, txType models.TransactionType, meta map[string]any) (*LedgerResult, error) {
	if amount <= 0 {
		return nil, validationError("debit amount must be positive, got %d", amount)
	}

	newBalance, ok, err := uow.BalanceRepository().Debit(ctx, userID, amount)
	if err != nil {
		return nil, storageError("debit balance", err)
	}
	if !ok {
		balance, err := uow.BalanceRepository().Get(ctx, userID)
		if err != nil {
			return nil, storageError("get balance", err)
		}
		if balance == nil {
			return nil, fmt.Errorf("%w: no account for user %d", ErrNotFound, userID)
		}
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, balance.Stars, amount)
	}

	entry := &models.BalanceTransaction{
		UserID:         userID,
		Type:           txType,
		Amount:         -amount,
		BalanceBefore:  newBalance + amount,
		BalanceAfter:   newBalance,
		Meta:           meta,
		IdempotencyKey: idempotencyKeyFrom(meta),
	}
	if err := RecordBalanceChange(ctx, uow, entry); err != nil {
		return nil, ledgerWriteError(err)
	}

	return &LedgerResult{Entry: entry, Balance: newBalance, Applied: true}, nil
}

// Credit atomically adds amount stars (zero allowed) and records the entry.
// When meta carries an idempotency key that was used before, nothing is
// written and the previous entry is returned with Applied=false.
func Credit(ctx context.Context, uow UnitOfWork, userID int64, amount int64, txType models.TransactionType, meta map[string]any) (*LedgerResult, error) {
	if amount < 0 {
		return nil, validationError("credit amount must not be negative, got %d", amount)
	}

	key := idempotencyKeyFrom(meta)
	if key != nil {
		if err := uow.BalanceTransactionRepository().LockIdempotencyKey(ctx, *key); err != nil {
			return nil, storageError("lock idempotency key", err)
		}
		existing, err := uow.BalanceTransactionRepository().GetByIdempotencyKey(ctx, *key)
		if err != nil {
			return nil, storageError("look up idempotency key", err)
		}
		if existing != nil {
			if existing.UserID != userID {
				return nil, validationError("idempotency key %q belongs to another account", *key)
			}
			balance, err := uow.BalanceRepository().Get(ctx, userID)
			if err != nil {
				return nil, storageError("get balance", err)
			}
			if balance == nil {
				return nil, fmt.Errorf("%w: no account for user %d", ErrNotFound, userID)
			}
			return &LedgerResult{Entry: existing, Balance: balance.Stars, Applied: false}, nil
		}
	}

	newBalance, ok, err := uow.BalanceRepository().Credit(ctx, userID, amount)
	if err != nil {
		return nil, storageError("credit balance", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: no account for user %d", ErrNotFound, userID)
	}

	entry := &models.BalanceTransaction{
		UserID:         userID,
		Type:           txType,
		Amount:         amount,
		BalanceBefore:  newBalance - amount,
		BalanceAfter:   newBalance,
		Meta:           meta,
		IdempotencyKey: key,
	}
	if err := RecordBalanceChange(ctx, uow, entry); err != nil {
		return nil, ledgerWriteError(err)
	}

	return &LedgerResult{Entry: entry, Balance: newBalance, Applied: true}, nil
}

func idempotencyKeyFrom(meta map[string]any) *string {
	if key, ok := meta[models.MetaIdempotencyKey].(string); ok && key != "" {
		return &key
	}
	return nil
}

func ledgerWriteError(err error) error {
	if errors.Is(err, ErrDuplicateKey) {
		return err
	}
	return storageError("record balance change", err)
}

type ledgerService struct {
	uowFactory UnitOfWorkFactory
}

// NewLedgerService creates a new ledger service
func NewLedgerService(uowFactory UnitOfWorkFactory) LedgerService {
	return &ledgerService{
		uowFactory: uowFactory,
	}
}

func (s *ledgerService) EnsureAccount(ctx context.Context, userID int64) (*models.Balance, error) {
	if userID <= 0 {
		return nil, validationError("invalid user id %d", userID)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, storageError("begin transaction", err)
	}
	defer uow.Rollback()

	balance, err := uow.BalanceRepository().Ensure(ctx, userID)
	if err != nil {
		return nil, storageError("ensure account", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, storageError("commit transaction", err)
	}
	return balance, nil
}

func (s *ledgerService) GetBalance(ctx context.Context, userID int64) (int64, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, storageError("begin transaction", err)
	}
	defer uow.Rollback()

	balance, err := uow.BalanceRepository().Get(ctx, userID)
	if err != nil {
		return 0, storageError("get balance", err)
	}
	if balance == nil {
		return 0, fmt.Errorf("%w: no account for user %d", ErrNotFound, userID)
	}
	return balance.Stars, nil
}

func (s *ledgerService) TopUp(ctx context.Context, userID int64, amount int64, idempotencyKey string, meta map[string]any) (*models.TopUpResult, error) {
	if amount <= 0 {
		return nil, validationError("top-up amount must be positive, got %d", amount)
	}
	if idempotencyKey == "" {
		return nil, validationError("top-up requires an idempotency key")
	}

	txMeta := make(map[string]any, len(meta)+1)
	maps.Copy(txMeta, meta)
	txMeta[models.MetaIdempotencyKey] = idempotencyKey

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, storageError("begin transaction", err)
	}
	defer uow.Rollback()

	if _, err := uow.BalanceRepository().Ensure(ctx, userID); err != nil {
		return nil, storageError("ensure account", err)
	}

	result, err := Credit(ctx, uow, userID, amount, models.TransactionTypeTopUp, txMeta)
	if errors.Is(err, ErrDuplicateKey) {
		// A concurrent request won the race; our transaction is aborted
		uow.Rollback()
		return s.existingTopUp(ctx, userID, idempotencyKey)
	}
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, storageError("commit transaction", err)
	}

	log.WithFields(log.Fields{
		"userID":         userID,
		"amount":         amount,
		"idempotencyKey": idempotencyKey,
		"applied":        result.Applied,
		"balance":        result.Balance,
	}).Info("Processed top-up")

	return &models.TopUpResult{
		Balance:       result.Balance,
		Applied:       result.Applied,
		TransactionID: result.Entry.ID,
	}, nil
}

func (s *ledgerService) existingTopUp(ctx context.Context, userID int64, idempotencyKey string) (*models.TopUpResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, storageError("begin transaction", err)
	}
	defer uow.Rollback()

	existing, err := uow.BalanceTransactionRepository().GetByIdempotencyKey(ctx, idempotencyKey)
	if err != nil {
		return nil, storageError("look up idempotency key", err)
	}
	if existing == nil || existing.UserID != userID {
		return nil, validationError("idempotency key %q belongs to another account", idempotencyKey)
	}

	balance, err := uow.BalanceRepository().Get(ctx, userID)
	if err != nil {
		return nil, storageError("get balance", err)
	}
	if balance == nil {
		return nil, fmt.Errorf("%w: no account for user %d", ErrNotFound, userID)
	}

	return &models.TopUpResult{
		Balance:       balance.Stars,
		Applied:       false,
		TransactionID: existing.ID,
	}, nil
}

func (s *ledgerService) History(ctx context.Context, userID int64, limit int) ([]*models.BalanceTransaction, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	limit = min(limit, maxHistoryLimit)

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, storageError("begin transaction", err)
	}
	defer uow.Rollback()

	entries, err := uow.BalanceTransactionRepository().GetByUser(ctx, userID, limit)
	if err != nil {
		return nil, storageError("get ledger history", err)
	}
	return entries, nil
}

func (s *ledgerService) Reconcile(ctx context.Context, userID int64) (*models.ReconcileReport, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, storageError("begin transaction", err)
	}
	defer uow.Rollback()

	// Holding the balance row keeps new entries out while the ledger is read
	balance, err := uow.BalanceRepository().GetForShare(ctx, userID)
	if err != nil {
		return nil, storageError("get balance", err)
	}
	if balance == nil {
		return nil, fmt.Errorf("%w: no account for user %d", ErrNotFound, userID)
	}

	entries, err := uow.BalanceTransactionRepository().GetAllByUser(ctx, userID)
	if err != nil {
		return nil, storageError("get ledger", err)
	}

	report := ReplayLedger(userID, entries)
	report.Stored = balance.Stars
	return report, nil
}

// ReplayLedger rebuilds a balance from its ledger entries, starting from zero
func ReplayLedger(userID int64, entries []*models.BalanceTransaction) *models.ReconcileReport {
	report := &models.ReconcileReport{UserID: userID, Entries: len(entries)}

	var previousAfter int64
	for _, entry := range entries {
		if entry.BalanceBefore != previousAfter {
			report.ChainBreaks++
		}
		report.Replayed += entry.Amount
		previousAfter = entry.BalanceAfter
	}
	return report
}

func (s *ledgerService) ActiveUsers(ctx context.Context, since time.Time, limit int) ([]int64, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, storageError("begin transaction", err)
	}
	defer uow.Rollback()

	userIDs, err := uow.BalanceTransactionRepository().GetActiveUserIDs(ctx, since, limit)
	if err != nil {
		return nil, storageError("get active users", err)
	}
	return userIDs, nil
}
