package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// LikeRepository handles database operations for marker likes
type LikeRepository struct {
	db *pgxpool.Pool
}

// NewLikeRepository creates a new like repository
func NewLikeRepository(db *pgxpool.Pool) *LikeRepository {
	return &LikeRepository{db: db}
}

// Toggle flips the like for a (marker, user) pair and reports the
// resulting state. The insert-then-delete sequence relies on the unique
// index: under two concurrent toggles exactly one insert wins and the
// other call observes the conflict and deletes, which is the serial
// outcome of toggling twice.
func (r *LikeRepository) Toggle(ctx context.Context, markerID, userID int64) (bool, error) {
	query := `
		INSERT INTO marker_likes (marker_id, user_id) VALUES ($1, $2)
		ON CONFLICT (marker_id, user_id) DO NOTHING
	`
	tag, err := r.db.Exec(ctx, query, markerID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to insert like: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	del := `DELETE FROM marker_likes WHERE marker_id = $1 AND user_id = $2`
	if _, err := r.db.Exec(ctx, del, markerID, userID); err != nil {
		return false, fmt.Errorf("failed to delete like: %w", err)
	}
	return false, nil
}

// Exists reports whether the user has liked the marker.
func (r *LikeRepository) Exists(ctx context.Context, markerID, userID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM marker_likes WHERE marker_id = $1 AND user_id = $2)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, markerID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check like: %w", err)
	}
	return exists, nil
}

// Count returns the number of likes on a marker.
func (r *LikeRepository) Count(ctx context.Context, markerID int64) (int64, error) {
	query := `SELECT COUNT(*) FROM marker_likes WHERE marker_id = $1`
	var count int64
	if err := r.db.QueryRow(ctx, query, markerID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count likes: %w", err)
	}
	return count, nil
}
