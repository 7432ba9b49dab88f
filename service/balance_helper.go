package service

import (
	"context"

	"starsgame/events"
	"starsgame/models"
)

// RecordBalanceChange appends a ledger entry and queues a balance change event.
// This is the single entry point for all balance changes in the system.
func RecordBalanceChange(ctx context.Context, uow UnitOfWork, entry *models.BalanceTransaction) error {
	if err := uow.BalanceTransactionRepository().Append(ctx, entry); err != nil {
		return err
	}

	// Flushed only after the transaction commits
	uow.EventBus().Publish(events.BalanceChangeEvent{
		UserID:          entry.UserID,
		TransactionID:   entry.ID,
		OldBalance:      entry.BalanceBefore,
		NewBalance:      entry.BalanceAfter,
		TransactionType: entry.Type,
		ChangeAmount:    entry.Amount,
	})

	return nil
}
