package services

import (
	"context"
	"fmt"

	"arch-community-backend/internal/apperr"
	"arch-community-backend/internal/auth"
	"arch-community-backend/internal/models"
)

// FollowService runs the follow-request state machine: absent → pending →
// accepted, with absent reachable from either via unfollow.
type FollowService struct {
	follows  FollowStore
	users    UserStore
	profiles ProfileStore
}

// NewFollowService creates a new follow service
func NewFollowService(follows FollowStore, users UserStore, profiles ProfileStore) *FollowService {
	return &FollowService{
		follows:  follows,
		users:    users,
		profiles: profiles,
	}
}

// Request issues (or re-issues) a follow request toward a target account.
// The target's is_private flag is read at request time: private targets
// get a pending edge, public targets an accepted one. Re-requesting
// re-applies the same resolution through the upsert instead of erroring.
func (s *FollowService) Request(ctx context.Context, follower auth.Identity, followeeID int64) (string, error) {
	if follower.ID == followeeID {
		return "", fmt.Errorf("cannot follow yourself: %w", apperr.ErrValidation)
	}

	profile, err := s.targetProfile(ctx, followeeID)
	if err != nil {
		return "", err
	}

	status := models.FollowAccepted
	if profile.IsPrivate {
		status = models.FollowPending
	}
	if err := s.follows.Upsert(ctx, follower.ID, followeeID, status); err != nil {
		return "", err
	}
	return status, nil
}

// Unfollow removes the edge in either state. Unfollowing an absent edge
// is a no-op.
func (s *FollowService) Unfollow(ctx context.Context, follower auth.Identity, followeeID int64) error {
	return s.follows.Delete(ctx, follower.ID, followeeID)
}

// StatusOf returns "pending", "accepted" or "" for the caller's edge
// toward the target.
func (s *FollowService) StatusOf(ctx context.Context, follower auth.Identity, followeeID int64) (string, error) {
	return s.follows.Status(ctx, follower.ID, followeeID)
}

// Followers lists accepted followers of the target, subject to the
// target's hide_followers flag.
func (s *FollowService) Followers(ctx context.Context, viewer auth.Identity, targetID int64) ([]models.UserSummary, error) {
	profile, err := s.targetProfile(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if !FollowersVisible(viewer.ID, targetID, profile) {
		return nil, fmt.Errorf("followers hidden: %w", apperr.ErrForbidden)
	}
	return s.follows.Followers(ctx, targetID)
}

// Following lists accepted followees of the target, subject to the
// target's hide_following flag.
func (s *FollowService) Following(ctx context.Context, viewer auth.Identity, targetID int64) ([]models.UserSummary, error) {
	profile, err := s.targetProfile(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if !FollowingVisible(viewer.ID, targetID, profile) {
		return nil, fmt.Errorf("following hidden: %w", apperr.ErrForbidden)
	}
	return s.follows.Following(ctx, targetID)
}

// targetProfile fetches the target's profile, backfilling the row for
// legacy accounts that predate profiles.
func (s *FollowService) targetProfile(ctx context.Context, userID int64) (*models.Profile, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.profiles.Ensure(ctx, userID); err != nil {
		return nil, err
	}
	return s.profiles.Get(ctx, userID)
}
