// Package services carries the business logic of the platform. Services
// depend on the narrow store interfaces below rather than concrete
// repositories, so the state machines can be exercised against in-memory
// fakes in tests while pgx-backed repositories satisfy them in production.
package services

import (
	"context"
	"mime/multipart"

	"arch-community-backend/internal/models"
)

// UserStore persists accounts.
type UserStore interface {
	Create(ctx context.Context, user *models.User) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, id int64, username, email, passwordHash *string) error
	Delete(ctx context.Context, id int64) error
	ListAdmin(ctx context.Context) ([]models.AdminUser, error)
}

// ProfileStore persists profiles and their privacy flags.
type ProfileStore interface {
	Ensure(ctx context.Context, userID int64) error
	Get(ctx context.Context, userID int64) (*models.Profile, error)
	UpdateFlags(ctx context.Context, p *models.Profile) error
	UpdateAvatar(ctx context.Context, userID int64, avatarURL string) error
}

// FollowStore persists directed follow edges. Upsert must be atomic per
// ordered pair.
type FollowStore interface {
	Upsert(ctx context.Context, followerID, followeeID int64, status string) error
	Delete(ctx context.Context, followerID, followeeID int64) error
	Status(ctx context.Context, followerID, followeeID int64) (string, error)
	Followers(ctx context.Context, userID int64) ([]models.UserSummary, error)
	Following(ctx context.Context, userID int64) ([]models.UserSummary, error)
}

// MarkerStore persists markers. SetStatus must write the status and its
// history row atomically and return the previous status.
type MarkerStore interface {
	Create(ctx context.Context, m *models.Marker) error
	GetByID(ctx context.Context, id int64) (*models.Marker, error)
	List(ctx context.Context, f models.MarkerFilters) ([]models.Marker, error)
	ListByReporter(ctx context.Context, reporterID int64) ([]models.Marker, error)
	ListLikedBy(ctx context.Context, userID int64) ([]models.Marker, error)
	ListWithLikes(ctx context.Context, viewerID int64, f models.MarkerFilters) ([]models.MarkerWithLikes, error)
	SetStatus(ctx context.Context, markerID int64, newStatus string, actorID int64) (string, error)
	Delete(ctx context.Context, id int64) error
	Metrics(ctx context.Context) (int64, map[string]int64, error)
	ListAll(ctx context.Context) ([]models.Marker, error)
}

// LikeStore persists marker likes. Toggle must be atomic per pair.
type LikeStore interface {
	Toggle(ctx context.Context, markerID, userID int64) (bool, error)
	Exists(ctx context.Context, markerID, userID int64) (bool, error)
	Count(ctx context.Context, markerID int64) (int64, error)
}

// HistoryStore reads the append-only status audit trail.
type HistoryStore interface {
	ListByMarker(ctx context.Context, markerID int64) ([]models.StatusChange, error)
}

// MediaStore uploads attachments to blob storage and returns their URLs.
type MediaStore interface {
	UploadMarkerMedia(ctx context.Context, files []*multipart.FileHeader) ([]models.Media, error)
	UploadAvatar(ctx context.Context, file *multipart.FileHeader) (string, error)
}
