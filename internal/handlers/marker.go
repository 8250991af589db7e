package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"arch-community-backend/internal/apperr"
	"arch-community-backend/internal/middleware"
	"arch-community-backend/internal/models"
	"arch-community-backend/internal/services"

	"github.com/rs/zerolog/log"
)

const maxUploadBytes = 30 << 20

// MarkerHandler handles the marker surface.
type MarkerHandler struct {
	markerService *services.MarkerService
	mediaService  services.MediaStore
}

// NewMarkerHandler creates a new marker handler
func NewMarkerHandler(markerService *services.MarkerService, mediaService services.MediaStore) *MarkerHandler {
	return &MarkerHandler{
		markerService: markerService,
		mediaService:  mediaService,
	}
}

// List handles GET /api/markers
func (h *MarkerHandler) List(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	markers, err := h.markerService.List(r.Context(), filters)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if markers == nil {
		markers = []models.Marker{}
	}
	respondJSON(w, http.StatusOK, markers)
}

// ListWithLikes handles GET /api/markers-with-likes
func (h *MarkerHandler) ListWithLikes(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.GetIdentity(r.Context())
	filters, err := parseFilters(r)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	markers, err := h.markerService.ListWithLikes(r.Context(), identity, filters)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if markers == nil {
		markers = []models.MarkerWithLikes{}
	}
	respondJSON(w, http.StatusOK, markers)
}

// Get handles GET /api/markers/{id}
func (h *MarkerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	marker, err := h.markerService.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, marker)
}

// Create handles POST /api/markers (multipart, media files under "media")
func (h *MarkerHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.GetIdentity(r.Context())

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	lat, err := strconv.ParseFloat(r.FormValue("latitude"), 64)
	if err != nil {
		respondError(w, "invalid latitude", http.StatusBadRequest)
		return
	}
	lng, err := strconv.ParseFloat(r.FormValue("longitude"), 64)
	if err != nil {
		respondError(w, "invalid longitude", http.StatusBadRequest)
		return
	}

	input := services.CreateMarkerInput{
		Title:       optionalField(r, "title"),
		Description: optionalField(r, "description"),
		Category:    r.FormValue("category"),
		Subcategory: optionalField(r, "subcategory"),
		Latitude:    lat,
		Longitude:   lng,
	}
	if input.EventStart, err = optionalTime(r, "event_start"); err != nil {
		respondError(w, "invalid event_start", http.StatusBadRequest)
		return
	}
	if input.EventEnd, err = optionalTime(r, "event_end"); err != nil {
		respondError(w, "invalid event_end", http.StatusBadRequest)
		return
	}

	if r.MultipartForm != nil {
		files := r.MultipartForm.File["media"]
		if len(files) > 0 {
			media, err := h.mediaService.UploadMarkerMedia(r.Context(), files)
			if err != nil {
				log.Error().Err(err).Msg("Failed to upload marker media")
				respondError(w, "failed to store media", http.StatusInternalServerError)
				return
			}
			input.Media = media
		}
	}

	marker, err := h.markerService.Create(r.Context(), identity, input)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.Info().
		Int64("marker_id", marker.ID).
		Int64("reporter_id", identity.ID).
		Str("category", marker.Category).
		Msg("Marker created")
	respondJSON(w, http.StatusCreated, marker)
}

// Delete handles DELETE /api/markers/{id}
func (h *MarkerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.GetIdentity(r.Context())
	id, err := urlID(r)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if err := h.markerService.Delete(r.Context(), identity, id); err != nil {
		respondServiceError(w, err)
		return
	}
	log.Info().Int64("marker_id", id).Int64("actor_id", identity.ID).Msg("Marker deleted")
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type statusRequest struct {
	Status string `json:"status"`
}

// SetStatus handles PATCH /api/markers/{id}/status (admin only)
func (h *MarkerHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.GetIdentity(r.Context())
	id, err := urlID(r)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	prev, err := h.markerService.SetStatus(r.Context(), identity, id, req.Status)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.Info().
		Int64("marker_id", id).
		Str("prev_status", prev).
		Str("new_status", req.Status).
		Int64("actor_id", identity.ID).
		Msg("Marker status changed")
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type likeResponse struct {
	Liked      bool  `json:"liked"`
	LikesCount int64 `json:"likesCount"`
}

// ToggleLike handles POST /api/markers/{id}/like
func (h *MarkerHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.GetIdentity(r.Context())
	id, err := urlID(r)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	liked, count, err := h.markerService.ToggleLike(r.Context(), identity, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, likeResponse{Liked: liked, LikesCount: count})
}

// LikeStatus handles GET /api/markers/{id}/like
func (h *MarkerHandler) LikeStatus(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.GetIdentity(r.Context())
	id, err := urlID(r)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	liked, count, err := h.markerService.LikeStatus(r.Context(), identity, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, likeResponse{Liked: liked, LikesCount: count})
}

// History handles GET /api/markers/{id}/history (admin only)
func (h *MarkerHandler) History(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.GetIdentity(r.Context())
	id, err := urlID(r)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	changes, err := h.markerService.History(r.Context(), identity, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if changes == nil {
		changes = []models.StatusChange{}
	}
	respondJSON(w, http.StatusOK, changes)
}

func parseFilters(r *http.Request) (models.MarkerFilters, error) {
	q := r.URL.Query()
	f := models.MarkerFilters{
		Categories:    splitParam(q.Get("categories")),
		Subcategories: splitParam(q.Get("subcategories")),
		Statuses:      splitParam(q.Get("status")),
	}
	if bbox := q.Get("bbox"); bbox != "" {
		parts := strings.Split(bbox, ",")
		if len(parts) != 4 {
			return f, apperr.ErrValidation
		}
		vals := make([]float64, 4)
		for i, p := range parts {
			v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return f, apperr.ErrValidation
			}
			vals[i] = v
		}
		f.BBox = &models.BBox{MinLat: vals[0], MinLng: vals[1], MaxLat: vals[2], MaxLng: vals[3]}
	}
	return f, nil
}

func splitParam(v string) []string {
	if v == "" {
		return nil
	}
	return strings.Split(v, ",")
}

func optionalField(r *http.Request, name string) *string {
	v := r.FormValue(name)
	if v == "" {
		return nil
	}
	return &v
}

func optionalTime(r *http.Request, name string) (*time.Time, error) {
	v := r.FormValue(name)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
