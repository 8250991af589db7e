package auth

import "arch-community-backend/internal/apperr"

// Identity is the authenticated caller derived from an access token.
type Identity struct {
	ID   int64
	Role string
}

// RequireRole fails with ErrForbidden unless the identity holds the
// given role.
func RequireRole(id Identity, role string) error {
	if id.Role != role {
		return apperr.ErrForbidden
	}
	return nil
}

// RequireOwnerOrRole is the canonical delete/update check: it succeeds if
// the identity owns the resource or holds the given role.
func RequireOwnerOrRole(id Identity, ownerID int64, role string) error {
	if id.ID == ownerID || id.Role == role {
		return nil
	}
	return apperr.ErrForbidden
}
