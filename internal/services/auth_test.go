package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"arch-community-backend/internal/apperr"
	"arch-community-backend/internal/auth"
	"arch-community-backend/internal/models"
)

func newAuthFixture() (*AuthService, *fakeUserStore, *fakeProfileStore, *auth.TokenService) {
	users := newFakeUserStore()
	profiles := newFakeProfileStore()
	tokens := auth.NewTokenService("access", "refresh", 20*time.Minute, 30*24*time.Hour)
	return NewAuthService(users, profiles, tokens), users, profiles, tokens
}

func TestRegisterCreatesAccountWithProfile(t *testing.T) {
	svc, users, profiles, _ := newAuthFixture()
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", nil, "pw")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Role != models.RoleMember {
		t.Fatalf("expected member role, got %q", user.Role)
	}
	if _, err := users.GetByUsername(ctx, "alice"); err != nil {
		t.Fatalf("account missing: %v", err)
	}
	if _, err := profiles.Get(ctx, user.ID); err != nil {
		t.Fatalf("profile missing: %v", err)
	}
}

func TestRegisterDuplicateUsernameConflicts(t *testing.T) {
	svc, _, _, _ := newAuthFixture()
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", nil, "pw"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, "alice", nil, "other"); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestRegisterMissingFields(t *testing.T) {
	svc, _, _, _ := newAuthFixture()

	if _, err := svc.Register(context.Background(), "", nil, "pw"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, err := svc.Register(context.Background(), "bob", nil, ""); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestLoginWrongCredentialsUnauthorized(t *testing.T) {
	svc, _, _, _ := newAuthFixture()
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", nil, "pw"); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, _, _, err := svc.Login(ctx, "alice", "wrong"); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for wrong password, got %v", err)
	}
	// Unknown usernames produce the same failure as wrong passwords.
	if _, _, _, err := svc.Login(ctx, "nobody", "pw"); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for unknown user, got %v", err)
	}
}

func TestRefreshReturnsCurrentRole(t *testing.T) {
	svc, users, _, tokens := newAuthFixture()
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", nil, "pw")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	_, _, refresh, err := svc.Login(ctx, "alice", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	// Promote after the refresh token was minted.
	users.users[user.ID].Role = models.RoleAdmin

	_, access, err := svc.Refresh(ctx, refresh)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	identity, err := tokens.VerifyAccess(access)
	if err != nil {
		t.Fatalf("verify access: %v", err)
	}
	if identity.Role != models.RoleAdmin {
		t.Fatalf("expected refreshed token to carry current role, got %q", identity.Role)
	}
}

func TestRefreshInvalidAfterPasswordChange(t *testing.T) {
	svc, users, _, _ := newAuthFixture()
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", nil, "pw")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	_, _, refresh, err := svc.Login(ctx, "alice", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	newHash, err := auth.HashPassword("rotated")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	users.users[user.ID].PasswordHash = newHash

	if _, _, err := svc.Refresh(ctx, refresh); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized after password change, got %v", err)
	}
}

func TestRefreshGarbageTokenUnauthorized(t *testing.T) {
	svc, _, _, _ := newAuthFixture()

	if _, _, err := svc.Refresh(context.Background(), "not-a-token"); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
