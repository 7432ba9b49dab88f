package service

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned for bad input, before anything is written
	ErrValidation = errors.New("validation failed")

	// ErrInsufficientFunds is returned when a debit exceeds the balance
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrNotFound is returned for an unknown case, round, session or account
	ErrNotFound = errors.New("not found")

	// ErrBettingClosed is returned for a bet placed after the flight started
	ErrBettingClosed = errors.New("betting is closed")

	// ErrAlreadyTerminal marks a session that was settled before.
	// Cashout reports it through CashoutResult.AlreadySettled instead of failing.
	ErrAlreadyTerminal = errors.New("session already settled")

	// ErrStorage wraps any failure of the store. The transaction has been rolled back
	// and the operation can be retried.
	ErrStorage = errors.New("storage error")

	// ErrDuplicateKey is returned by repositories when an idempotency key is reused
	ErrDuplicateKey = errors.New("duplicate idempotency key")
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// storageError wraps a store failure so that callers can match ErrStorage
func storageError(action string, err error) error {
	return fmt.Errorf("%w: failed to %s: %w", ErrStorage, action, err)
}
