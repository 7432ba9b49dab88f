package repository

import (
	"context"
	"fmt"

	"starsgame/database"
	"starsgame/models"

	"github.com/google/uuid"
)

// InventoryRepository implements the InventoryRepository interface
type InventoryRepository struct {
	q queryable
}

// NewInventoryRepository creates a new inventory repository
func NewInventoryRepository(db *database.DB) *InventoryRepository {
	return &InventoryRepository{q: db.Pool}
}

// newInventoryRepositoryWithTx creates a new inventory repository with a transaction
func newInventoryRepositoryWithTx(tx queryable) *InventoryRepository {
	return &InventoryRepository{q: tx}
}

// Create grants an item to a user
func (r *InventoryRepository) Create(ctx context.Context, entry *models.InventoryEntry) error {
	query := `
		INSERT INTO inventory (user_id, item_id, item_name, value, case_open_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		entry.UserID,
		entry.ItemID,
		entry.ItemName,
		entry.Value,
		entry.CaseOpenID.String(),
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to grant item %s to user %d: %w", entry.ItemID, entry.UserID, err)
	}
	return nil
}

// GetByUser returns the items of a user, newest first
func (r *InventoryRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*models.InventoryEntry, error) {
	query := `
		SELECT id, user_id, item_id, item_name, value, case_open_id::text, created_at
		FROM inventory
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get inventory for user %d: %w", userID, err)
	}
	defer rows.Close()

	var entries []*models.InventoryEntry
	for rows.Next() {
		var entry models.InventoryEntry
		var openID string
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.ItemID,
			&entry.ItemName,
			&entry.Value,
			&openID,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan inventory entry: %w", err)
		}
		if entry.CaseOpenID, err = uuid.Parse(openID); err != nil {
			return nil, fmt.Errorf("failed to parse case open id %q: %w", openID, err)
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate inventory: %w", err)
	}
	return entries, nil
}
