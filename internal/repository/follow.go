package repository

import (
	"context"
	"errors"
	"fmt"

	"arch-community-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FollowRepository handles database operations for follow edges
type FollowRepository struct {
	db *pgxpool.Pool
}

// NewFollowRepository creates a new follow repository
func NewFollowRepository(db *pgxpool.Pool) *FollowRepository {
	return &FollowRepository{db: db}
}

// Upsert writes the edge for an ordered (follower, followee) pair,
// overwriting any prior status. A single ON CONFLICT statement keeps
// concurrent requests for the same pair from producing duplicates.
func (r *FollowRepository) Upsert(ctx context.Context, followerID, followeeID int64, status string) error {
	query := `
		INSERT INTO follow_edges (follower_id, followee_id, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (follower_id, followee_id) DO UPDATE SET status = EXCLUDED.status
	`
	if _, err := r.db.Exec(ctx, query, followerID, followeeID, status); err != nil {
		return fmt.Errorf("failed to upsert follow edge: %w", err)
	}
	return nil
}

// Delete removes the edge. Deleting an absent edge is a no-op.
func (r *FollowRepository) Delete(ctx context.Context, followerID, followeeID int64) error {
	query := `DELETE FROM follow_edges WHERE follower_id = $1 AND followee_id = $2`
	if _, err := r.db.Exec(ctx, query, followerID, followeeID); err != nil {
		return fmt.Errorf("failed to delete follow edge: %w", err)
	}
	return nil
}

// Status returns the edge status for the pair, or "" when no edge exists.
func (r *FollowRepository) Status(ctx context.Context, followerID, followeeID int64) (string, error) {
	query := `SELECT status FROM follow_edges WHERE follower_id = $1 AND followee_id = $2`
	var status string
	err := r.db.QueryRow(ctx, query, followerID, followeeID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get follow status: %w", err)
	}
	return status, nil
}

// Followers lists the accounts following the given account. Only accepted
// edges appear; pending requests never surface in listings.
func (r *FollowRepository) Followers(ctx context.Context, userID int64) ([]models.UserSummary, error) {
	query := `
		SELECT u.id, u.username, u.email
		FROM accounts u
		JOIN follow_edges f ON u.id = f.follower_id
		WHERE f.followee_id = $1 AND f.status = 'accepted'
	`
	return r.listUsers(ctx, query, userID)
}

// Following lists the accounts the given account follows (accepted only).
func (r *FollowRepository) Following(ctx context.Context, userID int64) ([]models.UserSummary, error) {
	query := `
		SELECT u.id, u.username, u.email
		FROM accounts u
		JOIN follow_edges f ON u.id = f.followee_id
		WHERE f.follower_id = $1 AND f.status = 'accepted'
	`
	return r.listUsers(ctx, query, userID)
}

func (r *FollowRepository) listUsers(ctx context.Context, query string, userID int64) ([]models.UserSummary, error) {
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list follow edges: %w", err)
	}
	defer rows.Close()

	var users []models.UserSummary
	for rows.Next() {
		var u models.UserSummary
		if err := rows.Scan(&u.ID, &u.Username, &u.Email); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
