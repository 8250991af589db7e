package repository

import (
	"context"
	"errors"
	"fmt"

	"arch-community-backend/internal/apperr"
	"arch-community-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProfileRepository handles database operations for profiles
type ProfileRepository struct {
	db *pgxpool.Pool
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Ensure creates the default profile row for an account if it does not
// exist yet. Used both at registration and as the self-healing backfill
// for legacy accounts.
func (r *ProfileRepository) Ensure(ctx context.Context, userID int64) error {
	query := `INSERT INTO profiles (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`
	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to ensure profile: %w", err)
	}
	return nil
}

// Get retrieves the profile for an account.
func (r *ProfileRepository) Get(ctx context.Context, userID int64) (*models.Profile, error) {
	query := `
		SELECT user_id, is_private, hide_posts, hide_following, hide_followers, avatar_url
		FROM profiles
		WHERE user_id = $1
	`
	var p models.Profile
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&p.UserID, &p.IsPrivate, &p.HidePosts, &p.HideFollowing, &p.HideFollowers, &p.AvatarURL,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("profile: %w", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}

// UpdateFlags overwrites the privacy flags of a profile.
func (r *ProfileRepository) UpdateFlags(ctx context.Context, p *models.Profile) error {
	query := `
		UPDATE profiles
		SET is_private = $1, hide_posts = $2, hide_following = $3, hide_followers = $4
		WHERE user_id = $5
	`
	tag, err := r.db.Exec(ctx, query,
		p.IsPrivate, p.HidePosts, p.HideFollowing, p.HideFollowers, p.UserID)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("profile: %w", apperr.ErrNotFound)
	}
	return nil
}

// UpdateAvatar stores the avatar URL for an account.
func (r *ProfileRepository) UpdateAvatar(ctx context.Context, userID int64, avatarURL string) error {
	query := `
		INSERT INTO profiles (user_id, avatar_url) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET avatar_url = EXCLUDED.avatar_url
	`
	if _, err := r.db.Exec(ctx, query, userID, avatarURL); err != nil {
		return fmt.Errorf("failed to update avatar: %w", err)
	}
	return nil
}
