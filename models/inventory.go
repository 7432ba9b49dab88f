package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryEntry is an item granted to a user
type InventoryEntry struct {
	ID         int64     `db:"id"`
	UserID     int64     `db:"user_id"`
	ItemID     string    `db:"item_id"`
	ItemName   string    `db:"item_name"`
	Value      int64     `db:"value"`
	CaseOpenID uuid.UUID `db:"case_open_id"`
	CreatedAt  time.Time `db:"created_at"`
}

// LiveDrop is a public announcement of an opened item
type LiveDrop struct {
	UserID    int64     `json:"user_id"`
	CaseID    string    `json:"case_id"`
	ItemName  string    `json:"item_name"`
	ItemValue int64     `json:"item_value"`
	Rare      bool      `json:"rare"`
	DroppedAt time.Time `json:"dropped_at"`
}

// LiveCashout is a public announcement of a successful crash cashout
type LiveCashout struct {
	UserID     int64           `json:"user_id"`
	RoundID    int64           `json:"round_id"`
	BetAmount  int64           `json:"bet_amount"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Payout     int64           `json:"payout"`
	CashedAt   time.Time       `json:"cashed_at"`
}
