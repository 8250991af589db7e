package services

import (
	"context"
	"errors"
	"fmt"

	"arch-community-backend/internal/apperr"
	"arch-community-backend/internal/auth"
	"arch-community-backend/internal/models"
)

// AuthService handles registration, login and token renewal.
type AuthService struct {
	users    UserStore
	profiles ProfileStore
	tokens   *auth.TokenService
}

// NewAuthService creates a new auth service
func NewAuthService(users UserStore, profiles ProfileStore, tokens *auth.TokenService) *AuthService {
	return &AuthService{
		users:    users,
		profiles: profiles,
		tokens:   tokens,
	}
}

// Register creates a member account with its profile. A taken username
// surfaces as apperr.ErrConflict.
func (s *AuthService) Register(ctx context.Context, username string, email *string, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("username and password are required: %w", apperr.ErrValidation)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleMember,
	}
	if _, err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	if err := s.profiles.Ensure(ctx, user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies the credentials and mints both token classes. An unknown
// username and a wrong password produce the same ErrUnauthorized.
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.User, string, string, error) {
	if username == "" || password == "" {
		return nil, "", "", fmt.Errorf("username and password are required: %w", apperr.ErrValidation)
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, "", "", apperr.ErrUnauthorized
		}
		return nil, "", "", err
	}
	if !auth.VerifyPassword(user.PasswordHash, password) {
		return nil, "", "", apperr.ErrUnauthorized
	}

	access, err := s.tokens.IssueAccess(user.ID, user.Role)
	if err != nil {
		return nil, "", "", err
	}
	refresh, err := s.tokens.IssueRefresh(user.ID, user.PasswordHash)
	if err != nil {
		return nil, "", "", err
	}
	return user, access, refresh, nil
}

// Refresh mints a fresh access token against a refresh token. The role is
// re-read from the store so a role change after the refresh token was
// minted is reflected immediately, and the password fingerprint is checked
// so a password change invalidates every outstanding refresh token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.User, string, error) {
	userID, fingerprint, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, "", apperr.ErrUnauthorized
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, "", apperr.ErrUnauthorized
		}
		return nil, "", err
	}
	if auth.PasswordFingerprint(user.PasswordHash) != fingerprint {
		return nil, "", apperr.ErrUnauthorized
	}

	access, err := s.tokens.IssueAccess(user.ID, user.Role)
	if err != nil {
		return nil, "", err
	}
	return user, access, nil
}
