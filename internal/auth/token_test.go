package auth

import (
	"errors"
	"testing"
	"time"

	"arch-community-backend/internal/apperr"
)

func newTestService() *TokenService {
	return NewTokenService("access-secret", "refresh-secret", 20*time.Minute, 30*24*time.Hour)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := newTestService()

	token, err := svc.IssueAccess(42, "admin")
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}

	identity, err := svc.VerifyAccess(token)
	if err != nil {
		t.Fatalf("verify access: %v", err)
	}
	if identity.ID != 42 || identity.Role != "admin" {
		t.Fatalf("unexpected identity: %+v", identity)
	}
}

func TestExpiredAccessTokenRejected(t *testing.T) {
	svc := NewTokenService("access-secret", "refresh-secret", -time.Minute, 30*24*time.Hour)

	token, err := svc.IssueAccess(1, "member")
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}

	if _, err := svc.VerifyAccess(token); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for expired token, got %v", err)
	}
}

func TestTamperedAccessTokenRejected(t *testing.T) {
	svc := newTestService()

	token, err := svc.IssueAccess(1, "member")
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}

	// Flip one byte in the payload.
	raw := []byte(token)
	for i, b := range raw {
		if b == '.' {
			raw[i+1] ^= 0x01
			break
		}
	}

	if _, err := svc.VerifyAccess(string(raw)); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for tampered token, got %v", err)
	}
}

func TestAccessTokenWrongSecretRejected(t *testing.T) {
	svc := newTestService()
	other := NewTokenService("different", "refresh-secret", 20*time.Minute, 30*24*time.Hour)

	token, err := other.IssueAccess(1, "member")
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}
	if _, err := svc.VerifyAccess(token); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for foreign token, got %v", err)
	}
}

func TestRefreshTokenNotValidAsAccess(t *testing.T) {
	svc := newTestService()

	refresh, err := svc.IssueRefresh(7, "hash")
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}
	if _, err := svc.VerifyAccess(refresh); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized when refresh presented as access, got %v", err)
	}
}

func TestRefreshTokenCarriesFingerprint(t *testing.T) {
	svc := newTestService()

	refresh, err := svc.IssueRefresh(7, "bcrypt-hash-v1")
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}

	id, fp, err := svc.VerifyRefresh(refresh)
	if err != nil {
		t.Fatalf("verify refresh: %v", err)
	}
	if id != 7 {
		t.Fatalf("expected id 7, got %d", id)
	}
	if fp != PasswordFingerprint("bcrypt-hash-v1") {
		t.Fatalf("fingerprint mismatch")
	}
	if fp == PasswordFingerprint("bcrypt-hash-v2") {
		t.Fatalf("fingerprint should change with the password hash")
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !VerifyPassword(hash, "s3cret") {
		t.Fatalf("correct password rejected")
	}
	if VerifyPassword(hash, "wrong") {
		t.Fatalf("wrong password accepted")
	}
}
