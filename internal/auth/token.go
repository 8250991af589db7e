// Package auth implements the token service and the authorization guard:
// stateless HS256 access/refresh tokens and the pure role/ownership
// predicates used by every protected operation.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"arch-community-backend/internal/apperr"
)

// AccessClaims is the payload of a short-lived access token: who the
// caller is and what role they held when the token was minted.
type AccessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// RefreshClaims is the payload of a long-lived refresh token. Pwd is a
// fingerprint of the account's password hash at mint time; a password
// change changes the fingerprint and silently invalidates every
// outstanding refresh token without a revocation list.
type RefreshClaims struct {
	Pwd string `json:"pwd"`
	jwt.RegisteredClaims
}

// TokenService mints and verifies both token classes. It is stateless:
// verification needs only the signing secrets, never a store lookup.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewTokenService creates a token service with the given secrets and
// lifetimes.
func NewTokenService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// IssueAccess signs an access token carrying the account id and role.
func (s *TokenService) IssueAccess(userID int64, role string) (string, error) {
	now := time.Now().UTC()
	claims := AccessClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.accessSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// IssueRefresh signs a refresh token bound to the account id and the
// current password hash.
func (s *TokenService) IssueRefresh(userID int64, passwordHash string) (string, error) {
	now := time.Now().UTC()
	claims := RefreshClaims{
		Pwd: PasswordFingerprint(passwordHash),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.refreshSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return signed, nil
}

// VerifyAccess validates an access token and returns the identity it
// encodes. Every failure mode collapses into apperr.ErrUnauthorized so
// callers cannot distinguish expired from forged.
func (s *TokenService) VerifyAccess(tokenString string) (Identity, error) {
	claims := &AccessClaims{}
	if err := s.parse(tokenString, claims, s.accessSecret); err != nil {
		return Identity{}, apperr.ErrUnauthorized
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return Identity{}, apperr.ErrUnauthorized
	}
	return Identity{ID: id, Role: claims.Role}, nil
}

// VerifyRefresh validates a refresh token and returns the account id and
// the password fingerprint it was minted against.
func (s *TokenService) VerifyRefresh(tokenString string) (int64, string, error) {
	claims := &RefreshClaims{}
	if err := s.parse(tokenString, claims, s.refreshSecret); err != nil {
		return 0, "", apperr.ErrUnauthorized
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, "", apperr.ErrUnauthorized
	}
	return id, claims.Pwd, nil
}

func (s *TokenService) parse(tokenString string, claims jwt.Claims, secret []byte) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return err
	}
	if !token.Valid {
		return apperr.ErrUnauthorized
	}
	return nil
}

// PasswordFingerprint derives the short hash-of-hash embedded in refresh
// tokens. Only the first 8 bytes are kept; the claim binds the token to a
// password generation, it is not a credential.
func PasswordFingerprint(passwordHash string) string {
	sum := sha256.Sum256([]byte(passwordHash))
	return hex.EncodeToString(sum[:8])
}
