package services

import (
	"context"
	"fmt"
	"time"

	"arch-community-backend/internal/apperr"
	"arch-community-backend/internal/auth"
	"arch-community-backend/internal/config"
	"arch-community-backend/internal/models"
)

// Event-window markers must not span more than this.
const maxEventWindow = 14 * 24 * time.Hour

// CategoryEvents is the marker category that requires an event window.
const CategoryEvents = "events"

// CreateMarkerInput is the validated input schema for marker creation.
type CreateMarkerInput struct {
	Title       *string
	Description *string
	Category    string
	Subcategory *string
	Latitude    float64
	Longitude   float64
	EventStart  *time.Time
	EventEnd    *time.Time
	Media       []models.Media
}

// MarkerService owns the marker lifecycle: creation validation, the
// status workflow with its audit trail, deletion and likes.
type MarkerService struct {
	markers MarkerStore
	likes   LikeStore
	history HistoryStore
	area    config.ServiceAreaConfig
}

// NewMarkerService creates a new marker service
func NewMarkerService(markers MarkerStore, likes LikeStore, history HistoryStore, area config.ServiceAreaConfig) *MarkerService {
	return &MarkerService{
		markers: markers,
		likes:   likes,
		history: history,
		area:    area,
	}
}

// Create validates and stores a new report. Coordinates must fall inside
// the service area (boundary inclusive); the events category additionally
// requires a start/end window no longer than 14 days. Status is always
// forced to sent.
func (s *MarkerService) Create(ctx context.Context, reporter auth.Identity, in CreateMarkerInput) (*models.Marker, error) {
	if in.Category == "" {
		return nil, fmt.Errorf("category is required: %w", apperr.ErrValidation)
	}
	if !s.insideServiceArea(in.Latitude, in.Longitude) {
		return nil, fmt.Errorf("coordinates outside service area: %w", apperr.ErrValidation)
	}
	if in.Category == CategoryEvents {
		if in.EventStart == nil || in.EventEnd == nil {
			return nil, fmt.Errorf("event window is required: %w", apperr.ErrValidation)
		}
		if !in.EventEnd.After(*in.EventStart) {
			return nil, fmt.Errorf("event end must be after start: %w", apperr.ErrValidation)
		}
		if in.EventEnd.Sub(*in.EventStart) > maxEventWindow {
			return nil, fmt.Errorf("event window exceeds 14 days: %w", apperr.ErrValidation)
		}
	}

	media := in.Media
	if media == nil {
		media = []models.Media{}
	}
	reporterID := reporter.ID
	m := &models.Marker{
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Subcategory: in.Subcategory,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		ReporterID:  &reporterID,
		Status:      models.StatusSent,
		Media:       media,
		EventStart:  in.EventStart,
		EventEnd:    in.EventEnd,
	}
	if err := s.markers.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Get retrieves a single marker.
func (s *MarkerService) Get(ctx context.Context, id int64) (*models.Marker, error) {
	return s.markers.GetByID(ctx, id)
}

// List retrieves markers matching the filters.
func (s *MarkerService) List(ctx context.Context, f models.MarkerFilters) ([]models.Marker, error) {
	return s.markers.List(ctx, f)
}

// ListWithLikes retrieves markers with like aggregates for the viewer.
func (s *MarkerService) ListWithLikes(ctx context.Context, viewer auth.Identity, f models.MarkerFilters) ([]models.MarkerWithLikes, error) {
	return s.markers.ListWithLikes(ctx, viewer.ID, f)
}

// SetStatus moves a marker to a new status and appends the audit row.
// Admin only; any status is reachable from any other. Returns the
// previous status.
func (s *MarkerService) SetStatus(ctx context.Context, actor auth.Identity, markerID int64, status string) (string, error) {
	if err := auth.RequireRole(actor, models.RoleAdmin); err != nil {
		return "", err
	}
	switch status {
	case models.StatusSent, models.StatusProcessing, models.StatusResolved:
	default:
		return "", fmt.Errorf("unknown status %q: %w", status, apperr.ErrValidation)
	}
	return s.markers.SetStatus(ctx, markerID, status, actor.ID)
}

// Delete removes a marker. Allowed for its owner or an admin.
func (s *MarkerService) Delete(ctx context.Context, actor auth.Identity, markerID int64) error {
	m, err := s.markers.GetByID(ctx, markerID)
	if err != nil {
		return err
	}
	ownerID := int64(0) // unowned markers are admin-only
	if m.ReporterID != nil {
		ownerID = *m.ReporterID
	}
	if err := auth.RequireOwnerOrRole(actor, ownerID, models.RoleAdmin); err != nil {
		return err
	}
	return s.markers.Delete(ctx, markerID)
}

// ToggleLike flips the caller's like on a marker and returns the new
// state and count.
func (s *MarkerService) ToggleLike(ctx context.Context, actor auth.Identity, markerID int64) (bool, int64, error) {
	if _, err := s.markers.GetByID(ctx, markerID); err != nil {
		return false, 0, err
	}
	liked, err := s.likes.Toggle(ctx, markerID, actor.ID)
	if err != nil {
		return false, 0, err
	}
	count, err := s.likes.Count(ctx, markerID)
	if err != nil {
		return false, 0, err
	}
	return liked, count, nil
}

// LikeStatus reports whether the caller likes a marker and its count.
func (s *MarkerService) LikeStatus(ctx context.Context, actor auth.Identity, markerID int64) (bool, int64, error) {
	liked, err := s.likes.Exists(ctx, markerID, actor.ID)
	if err != nil {
		return false, 0, err
	}
	count, err := s.likes.Count(ctx, markerID)
	if err != nil {
		return false, 0, err
	}
	return liked, count, nil
}

// History returns a marker's status audit trail. Admin only.
func (s *MarkerService) History(ctx context.Context, actor auth.Identity, markerID int64) ([]models.StatusChange, error) {
	if err := auth.RequireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	if _, err := s.markers.GetByID(ctx, markerID); err != nil {
		return nil, err
	}
	return s.history.ListByMarker(ctx, markerID)
}

// insideServiceArea is boundary inclusive: a marker exactly on the box
// edge is accepted.
func (s *MarkerService) insideServiceArea(lat, lng float64) bool {
	return lat >= s.area.MinLat && lat <= s.area.MaxLat &&
		lng >= s.area.MinLng && lng <= s.area.MaxLng
}
