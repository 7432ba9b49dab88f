package repository

import (
	"context"
	"errors"
	"fmt"

	"starsgame/database"
	"starsgame/events"
	"starsgame/service"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db                     *database.DB
	tx                     pgx.Tx
	ctx                    context.Context
	transactionalBus       *events.TransactionalBus
	balanceRepo            service.BalanceRepository
	balanceTransactionRepo service.BalanceTransactionRepository
	roundRepo              service.RoundRepository
	crashBetRepo           service.CrashBetRepository
	pityRepo               service.PityRepository
	caseOpenRepo           service.CaseOpenRepository
	inventoryRepo          service.InventoryRepository
	activityRepo           service.ActivityRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	// Create repositories with the transaction
	u.balanceRepo = newBalanceRepositoryWithTx(tx)
	u.balanceTransactionRepo = newBalanceTransactionRepositoryWithTx(tx)
	u.roundRepo = newRoundRepositoryWithTx(tx)
	u.crashBetRepo = newCrashBetRepositoryWithTx(tx)
	u.pityRepo = newPityRepositoryWithTx(tx)
	u.caseOpenRepo = newCaseOpenRepositoryWithTx(tx)
	u.inventoryRepo = newInventoryRepositoryWithTx(tx)
	u.activityRepo = newActivityRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	u.tx = nil
	if err != nil {
		u.transactionalBus.Discard()
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	// Flush pending events after successful commit
	u.transactionalBus.Flush(u.ctx)

	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	u.tx = nil

	// Discard pending events on rollback
	u.transactionalBus.Discard()

	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	return nil
}

func notStarted() {
	panic("unit of work not started - call Begin() first")
}

// BalanceRepository returns the balance repository for this unit of work
func (u *unitOfWork) BalanceRepository() service.BalanceRepository {
	if u.balanceRepo == nil {
		notStarted()
	}
	return u.balanceRepo
}

// BalanceTransactionRepository returns the ledger repository for this unit of work
func (u *unitOfWork) BalanceTransactionRepository() service.BalanceTransactionRepository {
	if u.balanceTransactionRepo == nil {
		notStarted()
	}
	return u.balanceTransactionRepo
}

// RoundRepository returns the round repository for this unit of work
func (u *unitOfWork) RoundRepository() service.RoundRepository {
	if u.roundRepo == nil {
		notStarted()
	}
	return u.roundRepo
}

// CrashBetRepository returns the crash bet repository for this unit of work
func (u *unitOfWork) CrashBetRepository() service.CrashBetRepository {
	if u.crashBetRepo == nil {
		notStarted()
	}
	return u.crashBetRepo
}

// PityRepository returns the pity repository for this unit of work
func (u *unitOfWork) PityRepository() service.PityRepository {
	if u.pityRepo == nil {
		notStarted()
	}
	return u.pityRepo
}

// CaseOpenRepository returns the case open audit repository for this unit of work
func (u *unitOfWork) CaseOpenRepository() service.CaseOpenRepository {
	if u.caseOpenRepo == nil {
		notStarted()
	}
	return u.caseOpenRepo
}

// InventoryRepository returns the inventory repository for this unit of work
func (u *unitOfWork) InventoryRepository() service.InventoryRepository {
	if u.inventoryRepo == nil {
		notStarted()
	}
	return u.inventoryRepo
}

// ActivityRepository returns the activity repository for this unit of work
func (u *unitOfWork) ActivityRepository() service.ActivityRepository {
	if u.activityRepo == nil {
		notStarted()
	}
	return u.activityRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalBus == nil {
		notStarted()
	}
	return u.transactionalBus
}
