package models

import (
	"time"
)

// TransactionType represents the type of balance change
type TransactionType string

const (
	TransactionTypeTopUp    TransactionType = "topup"
	TransactionTypeCrashBet TransactionType = "crash_bet"
	TransactionTypeCrashWin TransactionType = "crash_win"
	TransactionTypeCaseOpen TransactionType = "case_open"
)

// IsCredit reports whether the transaction type adds stars to a balance
func (t TransactionType) IsCredit() bool {
	return t == TransactionTypeTopUp || t == TransactionTypeCrashWin
}

// MetaIdempotencyKey is the meta field carrying the unique key of an externally originated credit
const MetaIdempotencyKey = "idempotency_key"

// Balance is a user's current stars balance
type Balance struct {
	UserID    int64     `db:"user_id"`
	Stars     int64     `db:"stars"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// BalanceTransaction is an immutable ledger entry
type BalanceTransaction struct {
	ID             int64           `db:"id"`
	UserID         int64           `db:"user_id"`
	Type           TransactionType `db:"type"`
	Amount         int64           `db:"amount"` // signed
	BalanceBefore  int64           `db:"balance_before"`
	BalanceAfter   int64           `db:"balance_after"`
	Meta           map[string]any  `db:"meta"`
	IdempotencyKey *string         `db:"idempotency_key"`
	CreatedAt      time.Time       `db:"created_at"`
}

// TopUpResult is returned by an externally originated credit
type TopUpResult struct {
	Balance       int64
	Applied       bool // false when the idempotency key was already used
	TransactionID int64
}

// ReconcileReport compares a stored balance with the replay of its ledger
type ReconcileReport struct {
	UserID      int64
	Stored      int64
	Replayed    int64
	Entries     int
	ChainBreaks int // entries whose balance_before differs from the previous balance_after
}

// Consistent reports whether the ledger fully explains the stored balance
func (r *ReconcileReport) Consistent() bool {
	return r.Stored == r.Replayed && r.ChainBreaks == 0
}
