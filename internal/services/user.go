package services

import (
	"context"
	"fmt"

	"arch-community-backend/internal/apperr"
	"arch-community-backend/internal/auth"
	"arch-community-backend/internal/models"
)

// UserProfile is an account joined with its profile, as returned to
// viewers.
type UserProfile struct {
	models.User
	models.Profile
}

// UpdateAccountInput carries the optional account fields; nil means leave
// unchanged.
type UpdateAccountInput struct {
	Username *string
	Email    *string
	Password *string
}

// UserService handles profile reads, account updates and per-account
// content listings.
type UserService struct {
	users    UserStore
	profiles ProfileStore
	follows  FollowStore
	markers  MarkerStore
}

// NewUserService creates a new user service
func NewUserService(users UserStore, profiles ProfileStore, follows FollowStore, markers MarkerStore) *UserService {
	return &UserService{
		users:    users,
		profiles: profiles,
		follows:  follows,
		markers:  markers,
	}
}

// Get returns an account with its profile. Accounts that predate
// profiles get one backfilled here.
func (s *UserService) Get(ctx context.Context, userID int64) (*UserProfile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.profiles.Ensure(ctx, userID); err != nil {
		return nil, err
	}
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &UserProfile{User: *user, Profile: *profile}, nil
}

// UpdateAccount changes username, email and/or password. Allowed for the
// account owner or an admin.
func (s *UserService) UpdateAccount(ctx context.Context, actor auth.Identity, targetID int64, in UpdateAccountInput) error {
	if err := auth.RequireOwnerOrRole(actor, targetID, models.RoleAdmin); err != nil {
		return err
	}
	if in.Username == nil && in.Email == nil && in.Password == nil {
		return fmt.Errorf("no changes provided: %w", apperr.ErrValidation)
	}

	var passwordHash *string
	if in.Password != nil {
		if *in.Password == "" {
			return fmt.Errorf("password must not be empty: %w", apperr.ErrValidation)
		}
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		passwordHash = &hash
	}
	return s.users.Update(ctx, targetID, in.Username, in.Email, passwordHash)
}

// UpdatePrivacy overwrites the privacy flags. Owner only.
func (s *UserService) UpdatePrivacy(ctx context.Context, actor auth.Identity, targetID int64, flags models.Profile) error {
	if actor.ID != targetID {
		return apperr.ErrForbidden
	}
	if err := s.profiles.Ensure(ctx, targetID); err != nil {
		return err
	}
	flags.UserID = targetID
	return s.profiles.UpdateFlags(ctx, &flags)
}

// SetAvatar stores the avatar URL. Allowed for the owner or an admin.
func (s *UserService) SetAvatar(ctx context.Context, actor auth.Identity, targetID int64, avatarURL string) error {
	if err := auth.RequireOwnerOrRole(actor, targetID, models.RoleAdmin); err != nil {
		return err
	}
	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		return err
	}
	return s.profiles.UpdateAvatar(ctx, targetID, avatarURL)
}

// Markers lists the target account's reports, gated by the visibility
// resolver: the owner always sees them, private accounts require an
// accepted follow edge.
func (s *UserService) Markers(ctx context.Context, viewer auth.Identity, targetID int64) ([]models.Marker, error) {
	target, err := s.Get(ctx, targetID)
	if err != nil {
		return nil, err
	}
	followStatus, err := s.follows.Status(ctx, viewer.ID, targetID)
	if err != nil {
		return nil, err
	}
	if !CanViewPosts(viewer.ID, targetID, &target.Profile, followStatus) {
		return nil, fmt.Errorf("private account: %w", apperr.ErrForbidden)
	}
	return s.markers.ListByReporter(ctx, targetID)
}

// LikedMarkers lists the markers the target account has liked.
func (s *UserService) LikedMarkers(ctx context.Context, targetID int64) ([]models.Marker, error) {
	return s.markers.ListLikedBy(ctx, targetID)
}
