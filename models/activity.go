package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ActivityGame identifies the game an activity entry came from
type ActivityGame string

const (
	ActivityGameCrash ActivityGame = "crash"
	ActivityGameCase  ActivityGame = "case"
)

// ActivityEntry is one line of a user's merged game history
type ActivityEntry struct {
	Game      ActivityGame
	CreatedAt time.Time
	Change    int64 // net effect on the balance
	Stake     int64 // bet amount or case price

	// crash only
	CrashPoint   *decimal.Decimal
	CashoutPoint *decimal.Decimal

	// case only
	CaseID   string
	ItemName string
	Value    int64
}

// ActivityTotals sums a user's spending and winnings per game
type ActivityTotals struct {
	CaseSpent  int64
	CaseWon    int64
	CrashSpent int64
	CrashWon   int64
}

// UserActivity is the history report of a single user
type UserActivity struct {
	UserID  int64
	Entries []*ActivityEntry
	Totals  ActivityTotals
}
