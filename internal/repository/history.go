package repository

import (
	"context"
	"fmt"

	"arch-community-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// HistoryRepository reads the marker status audit trail. Rows are written
// only by MarkerRepository.SetStatus, inside the same transaction as the
// status update; this repository never mutates them.
type HistoryRepository struct {
	db *pgxpool.Pool
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// ListByMarker returns the status transitions of a marker, oldest first.
func (r *HistoryRepository) ListByMarker(ctx context.Context, markerID int64) ([]models.StatusChange, error) {
	query := `
		SELECT id, marker_id, prev_status, new_status, actor_id, created_at
		FROM marker_status_history
		WHERE marker_id = $1
		ORDER BY id
	`
	rows, err := r.db.Query(ctx, query, markerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list status history: %w", err)
	}
	defer rows.Close()

	var changes []models.StatusChange
	for rows.Next() {
		var c models.StatusChange
		if err := rows.Scan(&c.ID, &c.MarkerID, &c.PrevStatus, &c.NewStatus, &c.ActorID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan status change: %w", err)
		}
		changes = append(changes, c)
	}
	return changes, rows.Err()
}
