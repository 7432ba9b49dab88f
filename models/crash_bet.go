package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CrashBetStatus is the state of a user's crash session
type CrashBetStatus string

const (
	CrashBetStatusActive    CrashBetStatus = "active"
	CrashBetStatusCashedOut CrashBetStatus = "cashed_out"
	CrashBetStatusBusted    CrashBetStatus = "busted"
)

// CrashBet is a user's bet against one round. Crash point and start time are
// copied from the round when the bet is placed.
type CrashBet struct {
	ID           int64            `db:"id"`
	UserID       int64            `db:"user_id"`
	RoundID      int64            `db:"round_id"`
	BetAmount    int64            `db:"bet_amount"`
	CrashPoint   decimal.Decimal  `db:"crash_point"`
	StartTime    int64            `db:"start_time"`
	Status       CrashBetStatus   `db:"status"`
	CashoutPoint *decimal.Decimal `db:"cashout_point"`
	Payout       *int64           `db:"payout"`
	Profit       *int64           `db:"profit"`
	CreatedAt    time.Time        `db:"created_at"`
	SettledAt    *time.Time       `db:"settled_at"`
}

// IsTerminal reports whether the bet has been settled
func (b *CrashBet) IsTerminal() bool {
	return b.Status == CrashBetStatusCashedOut || b.Status == CrashBetStatusBusted
}

// CrashStartResult is returned when a bet is placed
type CrashStartResult struct {
	SessionID int64
	RoundID   int64
	Balance   int64
}

// CashoutResult is the outcome of a cashout attempt
type CashoutResult struct {
	SessionID      int64
	Won            bool
	Multiplier     decimal.Decimal // cashout point when won, crash point when busted
	Payout         int64
	Balance        int64
	AlreadySettled bool // the session was terminal before this call
}
