package auth

import (
	"errors"
	"testing"

	"arch-community-backend/internal/apperr"
)

func TestRequireRole(t *testing.T) {
	admin := Identity{ID: 1, Role: "admin"}
	member := Identity{ID: 2, Role: "member"}

	if err := RequireRole(admin, "admin"); err != nil {
		t.Fatalf("admin should pass: %v", err)
	}
	if err := RequireRole(member, "admin"); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestRequireOwnerOrRole(t *testing.T) {
	owner := Identity{ID: 5, Role: "member"}
	admin := Identity{ID: 1, Role: "admin"}
	stranger := Identity{ID: 9, Role: "member"}

	if err := RequireOwnerOrRole(owner, 5, "admin"); err != nil {
		t.Fatalf("owner should pass: %v", err)
	}
	if err := RequireOwnerOrRole(admin, 5, "admin"); err != nil {
		t.Fatalf("admin should pass: %v", err)
	}
	if err := RequireOwnerOrRole(stranger, 5, "admin"); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
