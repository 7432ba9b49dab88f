package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RoundStatus is the lifecycle state of a crash round.
// Only pending and ended are persisted; flying is derived from the clock.
type RoundStatus string

const (
	RoundStatusPending RoundStatus = "pending"
	RoundStatusFlying  RoundStatus = "flying"
	RoundStatusEnded   RoundStatus = "ended"
)

// Round is one flight of the crash game
type Round struct {
	ID         int64           `db:"id"`
	CrashPoint decimal.Decimal `db:"crash_point"`
	StartTime  int64           `db:"start_time"` // epoch ms when the flight starts
	Status     RoundStatus     `db:"status"`
	CreatedAt  time.Time       `db:"created_at"`
}

// RoundPhase is the state of a round at a given instant
type RoundPhase struct {
	Status      RoundStatus
	CountdownMs int64   // pending: time left before the flight starts
	Multiplier  float64 // flying: current multiplier; ended: the crash point
}

// RoundBet is the public view of a bet in the current round.
// It never carries the crash point snapshot.
type RoundBet struct {
	BetID        int64
	UserID       int64
	BetAmount    int64
	Status       CrashBetStatus
	CashoutPoint *decimal.Decimal
	Payout       *int64
}

// RoundState is what clients poll to render the crash game
type RoundState struct {
	RoundID    int64
	StartTime  int64
	ServerTime int64
	Phase      RoundPhase
	History    []decimal.Decimal // crash points of recent ended rounds, newest first
	Bets       []RoundBet
}
