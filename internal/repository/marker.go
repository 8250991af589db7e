package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"arch-community-backend/internal/apperr"
	"arch-community-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MarkerRepository handles database operations for markers
type MarkerRepository struct {
	db *pgxpool.Pool
}

// NewMarkerRepository creates a new marker repository
func NewMarkerRepository(db *pgxpool.Pool) *MarkerRepository {
	return &MarkerRepository{db: db}
}

const markerColumns = `id, title, description, category, subcategory, latitude, longitude,
	reporter_id, status, media, event_start, event_end, created_at`

const markerColumnsM = `m.id, m.title, m.description, m.category, m.subcategory, m.latitude, m.longitude,
	m.reporter_id, m.status, m.media, m.event_start, m.event_end, m.created_at`

// Create inserts a new marker and fills in its id and creation time.
func (r *MarkerRepository) Create(ctx context.Context, m *models.Marker) error {
	media, err := json.Marshal(m.Media)
	if err != nil {
		return fmt.Errorf("failed to encode media: %w", err)
	}
	query := `
		INSERT INTO markers (title, description, category, subcategory, latitude, longitude,
		                     reporter_id, status, media, event_start, event_end)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at
	`
	err = r.db.QueryRow(ctx, query,
		m.Title, m.Description, m.Category, m.Subcategory, m.Latitude, m.Longitude,
		m.ReporterID, m.Status, media, m.EventStart, m.EventEnd,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create marker: %w", err)
	}
	return nil
}

// GetByID retrieves a marker by id
func (r *MarkerRepository) GetByID(ctx context.Context, id int64) (*models.Marker, error) {
	query := `SELECT ` + markerColumns + ` FROM markers WHERE id = $1`
	row := r.db.QueryRow(ctx, query, id)
	m, err := scanMarker(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("marker: %w", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get marker: %w", err)
	}
	return m, nil
}

// List retrieves markers matching the filters, newest first.
func (r *MarkerRepository) List(ctx context.Context, f models.MarkerFilters) ([]models.Marker, error) {
	query := `SELECT ` + markerColumns + ` FROM markers`
	cond, args := filterConditions(f, nil)
	if cond != "" {
		query += " WHERE " + cond
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list markers: %w", err)
	}
	defer rows.Close()
	return collectMarkers(rows)
}

// ListByReporter retrieves a user's markers, newest first.
func (r *MarkerRepository) ListByReporter(ctx context.Context, reporterID int64) ([]models.Marker, error) {
	query := `SELECT ` + markerColumns + ` FROM markers WHERE reporter_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, reporterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list markers: %w", err)
	}
	defer rows.Close()
	return collectMarkers(rows)
}

// ListLikedBy retrieves the markers a user has liked, most recently
// liked first.
func (r *MarkerRepository) ListLikedBy(ctx context.Context, userID int64) ([]models.Marker, error) {
	query := `
		SELECT ` + markerColumnsM + `
		FROM markers m
		JOIN marker_likes ml ON m.id = ml.marker_id
		WHERE ml.user_id = $1
		ORDER BY ml.created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list liked markers: %w", err)
	}
	defer rows.Close()
	return collectMarkers(rows)
}

// ListWithLikes retrieves markers with their like count and whether the
// viewer has liked each one.
func (r *MarkerRepository) ListWithLikes(ctx context.Context, viewerID int64, f models.MarkerFilters) ([]models.MarkerWithLikes, error) {
	query := `
		SELECT ` + markerColumnsM + `,
		       (SELECT COUNT(*) FROM marker_likes ml WHERE ml.marker_id = m.id),
		       EXISTS(SELECT 1 FROM marker_likes ml2 WHERE ml2.marker_id = m.id AND ml2.user_id = $1)
		FROM markers m
	`
	cond, args := filterConditions(f, []any{viewerID})
	if cond != "" {
		query += " WHERE " + cond
	}
	query += " ORDER BY m.created_at DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list markers: %w", err)
	}
	defer rows.Close()

	var markers []models.MarkerWithLikes
	for rows.Next() {
		var m models.MarkerWithLikes
		var media []byte
		if err := rows.Scan(
			&m.ID, &m.Title, &m.Description, &m.Category, &m.Subcategory,
			&m.Latitude, &m.Longitude, &m.ReporterID, &m.Status, &media,
			&m.EventStart, &m.EventEnd, &m.CreatedAt,
			&m.LikesCount, &m.UserLiked,
		); err != nil {
			return nil, fmt.Errorf("failed to scan marker: %w", err)
		}
		if err := decodeMedia(media, &m.Media); err != nil {
			return nil, err
		}
		markers = append(markers, m)
	}
	return markers, rows.Err()
}

// SetStatus writes a new status and appends the audit row in one
// transaction, so a status can never be written without its history row.
// Returns the previous status.
func (r *MarkerRepository) SetStatus(ctx context.Context, markerID int64, newStatus string, actorID int64) (string, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var prev string
	err = tx.QueryRow(ctx, `SELECT status FROM markers WHERE id = $1 FOR UPDATE`, markerID).Scan(&prev)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("marker: %w", apperr.ErrNotFound)
		}
		return "", fmt.Errorf("failed to read marker status: %w", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE markers SET status = $1 WHERE id = $2`, newStatus, markerID); err != nil {
		return "", fmt.Errorf("failed to update marker status: %w", err)
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO marker_status_history (marker_id, prev_status, new_status, actor_id) VALUES ($1, $2, $3, $4)`,
		markerID, prev, newStatus, actorID)
	if err != nil {
		return "", fmt.Errorf("failed to append status history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("failed to commit status change: %w", err)
	}
	return prev, nil
}

// Delete removes a marker. Likes cascade; history rows stay behind as the
// audit trail.
func (r *MarkerRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM markers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete marker: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("marker: %w", apperr.ErrNotFound)
	}
	return nil
}

// Metrics returns the total marker count and the per-status breakdown.
func (r *MarkerRepository) Metrics(ctx context.Context) (int64, map[string]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM markers GROUP BY status`)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to count markers: %w", err)
	}
	defer rows.Close()

	total := int64(0)
	byStatus := map[string]int64{}
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return 0, nil, fmt.Errorf("failed to scan counts: %w", err)
		}
		byStatus[status] = count
		total += count
	}
	return total, byStatus, rows.Err()
}

// ListAll returns every marker, oldest first, for the CSV export.
func (r *MarkerRepository) ListAll(ctx context.Context) ([]models.Marker, error) {
	query := `SELECT ` + markerColumns + ` FROM markers ORDER BY id`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list markers: %w", err)
	}
	defer rows.Close()
	return collectMarkers(rows)
}

func scanMarker(row pgx.Row) (*models.Marker, error) {
	var m models.Marker
	var media []byte
	err := row.Scan(
		&m.ID, &m.Title, &m.Description, &m.Category, &m.Subcategory,
		&m.Latitude, &m.Longitude, &m.ReporterID, &m.Status, &media,
		&m.EventStart, &m.EventEnd, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := decodeMedia(media, &m.Media); err != nil {
		return nil, err
	}
	return &m, nil
}

func collectMarkers(rows pgx.Rows) ([]models.Marker, error) {
	var markers []models.Marker
	for rows.Next() {
		m, err := scanMarker(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan marker: %w", err)
		}
		markers = append(markers, *m)
	}
	return markers, rows.Err()
}

func decodeMedia(raw []byte, out *[]models.Media) error {
	*out = []models.Media{}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode media: %w", err)
	}
	return nil
}

// filterConditions translates MarkerFilters into a SQL condition and
// positional args, continuing the numbering after any leading args.
func filterConditions(f models.MarkerFilters, args []any) (string, []any) {
	cond := ""
	and := func(c string) {
		if cond != "" {
			cond += " AND "
		}
		cond += c
	}
	if len(f.Categories) > 0 {
		args = append(args, f.Categories)
		and(fmt.Sprintf("category = ANY($%d)", len(args)))
	}
	if len(f.Subcategories) > 0 {
		args = append(args, f.Subcategories)
		and(fmt.Sprintf("subcategory = ANY($%d)", len(args)))
	}
	if len(f.Statuses) > 0 {
		args = append(args, f.Statuses)
		and(fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if f.BBox != nil {
		args = append(args, f.BBox.MinLat, f.BBox.MaxLat, f.BBox.MinLng, f.BBox.MaxLng)
		n := len(args)
		and(fmt.Sprintf("latitude BETWEEN $%d AND $%d AND longitude BETWEEN $%d AND $%d",
			n-3, n-2, n-1, n))
	}
	return cond, args
}
