package services

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"arch-community-backend/internal/apperr"
	"arch-community-backend/internal/auth"
	"arch-community-backend/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	metricsCacheKey = "admin:metrics"
	metricsCacheTTL = 30 * time.Second
)

// Metrics is the admin dashboard aggregate.
type Metrics struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"byStatus"`
}

// AdminService handles user administration, metrics and the CSV export.
// The redis client may be nil; metrics then skip the cache.
type AdminService struct {
	users   UserStore
	markers MarkerStore
	cache   *redis.Client
}

// NewAdminService creates a new admin service
func NewAdminService(users UserStore, markers MarkerStore, cache *redis.Client) *AdminService {
	return &AdminService{
		users:   users,
		markers: markers,
		cache:   cache,
	}
}

// ListUsers returns every account with profile flags and marker counts.
func (s *AdminService) ListUsers(ctx context.Context, actor auth.Identity) ([]models.AdminUser, error) {
	if err := auth.RequireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	return s.users.ListAdmin(ctx)
}

// DeleteUser removes a member account. Admin accounts cannot be deleted
// through any path.
func (s *AdminService) DeleteUser(ctx context.Context, actor auth.Identity, targetID int64) error {
	if err := auth.RequireRole(actor, models.RoleAdmin); err != nil {
		return err
	}
	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return err
	}
	if target.Role == models.RoleAdmin {
		return fmt.Errorf("cannot delete admin: %w", apperr.ErrForbidden)
	}
	return s.users.Delete(ctx, targetID)
}

// MarkerMetrics returns marker totals, served from the redis cache when
// available.
func (s *AdminService) MarkerMetrics(ctx context.Context, actor auth.Identity) (*Metrics, error) {
	if err := auth.RequireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, metricsCacheKey).Bytes(); err == nil {
			var m Metrics
			if err := json.Unmarshal(raw, &m); err == nil {
				return &m, nil
			}
		}
	}

	total, byStatus, err := s.markers.Metrics(ctx)
	if err != nil {
		return nil, err
	}
	m := &Metrics{Total: total, ByStatus: byStatus}

	if s.cache != nil {
		if raw, err := json.Marshal(m); err == nil {
			if err := s.cache.Set(ctx, metricsCacheKey, raw, metricsCacheTTL).Err(); err != nil {
				log.Warn().Err(err).Msg("Failed to cache metrics")
			}
		}
	}
	return m, nil
}

// ExportCSV streams every marker as CSV.
func (s *AdminService) ExportCSV(ctx context.Context, actor auth.Identity, w io.Writer) error {
	if err := auth.RequireRole(actor, models.RoleAdmin); err != nil {
		return err
	}
	markers, err := s.markers.ListAll(ctx)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	header := []string{"id", "title", "description", "category", "subcategory",
		"latitude", "longitude", "reporter_id", "status", "event_start", "event_end", "created_at"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, m := range markers {
		record := []string{
			strconv.FormatInt(m.ID, 10),
			strDeref(m.Title),
			strDeref(m.Description),
			m.Category,
			strDeref(m.Subcategory),
			strconv.FormatFloat(m.Latitude, 'f', -1, 64),
			strconv.FormatFloat(m.Longitude, 'f', -1, 64),
			int64Deref(m.ReporterID),
			m.Status,
			timeDeref(m.EventStart),
			timeDeref(m.EventEnd),
			m.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func strDeref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func int64Deref(n *int64) string {
	if n == nil {
		return ""
	}
	return strconv.FormatInt(*n, 10)
}

func timeDeref(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
