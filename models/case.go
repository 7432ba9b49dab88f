package models

import (
	"time"

	"github.com/google/uuid"
)

// CaseItem is one possible prize of a case
type CaseItem struct {
	ID     string  `yaml:"id" json:"id"`
	Name   string  `yaml:"name" json:"name"`
	Value  int64   `yaml:"value" json:"value"` // in stars
	Weight float64 `yaml:"weight" json:"weight"`
	Rare   bool    `yaml:"rare" json:"rare"`
}

// IsWinFor reports whether the item is worth more than the price paid for the case
func (i CaseItem) IsWinFor(price int64) bool {
	return i.Value > price
}

// CaseDefinition is a purchasable case
type CaseDefinition struct {
	ID    string     `yaml:"id" json:"id"`
	Name  string     `yaml:"name" json:"name"`
	Price int64      `yaml:"price" json:"price"`
	Items []CaseItem `yaml:"items" json:"items"`
}

// CaseOpen is the audit record of one case opening
type CaseOpen struct {
	ID              uuid.UUID `db:"id"`
	UserID          int64     `db:"user_id"`
	CaseID          string    `db:"case_id"`
	CasePrice       int64     `db:"case_price"`
	ItemID          string    `db:"item_id"`
	ItemName        string    `db:"item_name"`
	ItemValue       int64     `db:"item_value"`
	Rare            bool      `db:"rare"`
	Guaranteed      bool      `db:"guaranteed"`
	LossCountBefore int       `db:"loss_count_before"`
	BalanceTxID     int64     `db:"balance_tx_id"`
	CreatedAt       time.Time `db:"created_at"`
}

// OpenResult is returned to the caller of a case opening
type OpenResult struct {
	OpenID     uuid.UUID
	Item       CaseItem
	Balance    int64
	Guaranteed bool
	LossCount  int // loss streak after this opening
}
