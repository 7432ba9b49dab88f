package models

import "time"

// PityState counts consecutive losing openings of one case by one user
type PityState struct {
	UserID    int64     `db:"user_id"`
	CaseID    string    `db:"case_id"`
	LossCount int       `db:"loss_count"`
	UpdatedAt time.Time `db:"updated_at"`
}
