package handlers

import (
	"context"
	"net/http"

	"arch-community-backend/internal/auth"
	"arch-community-backend/internal/middleware"
	"arch-community-backend/internal/models"
	"arch-community-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// FollowHandler handles the follow surface.
type FollowHandler struct {
	followService *services.FollowService
}

// NewFollowHandler creates a new follow handler
func NewFollowHandler(followService *services.FollowService) *FollowHandler {
	return &FollowHandler{followService: followService}
}

// Request handles POST /api/users/{id}/follow
func (h *FollowHandler) Request(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.GetIdentity(r.Context())
	id, err := urlID(r)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	status, err := h.followService.Request(r.Context(), identity, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.Info().
		Int64("follower_id", identity.ID).
		Int64("followee_id", id).
		Str("status", status).
		Msg("Follow requested")
	respondJSON(w, http.StatusOK, map[string]string{"status": status})
}

// Unfollow handles DELETE /api/users/{id}/follow
func (h *FollowHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.GetIdentity(r.Context())
	id, err := urlID(r)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if err := h.followService.Unfollow(r.Context(), identity, id); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Status handles GET /api/users/{id}/follow-status
func (h *FollowHandler) Status(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.GetIdentity(r.Context())
	id, err := urlID(r)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	status, err := h.followService.StatusOf(r.Context(), identity, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	// null when no edge exists, matching the tri-state wire contract
	var payload *string
	if status != "" {
		payload = &status
	}
	respondJSON(w, http.StatusOK, map[string]*string{"status": payload})
}

// Followers handles GET /api/users/{id}/followers
func (h *FollowHandler) Followers(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.followService.Followers)
}

// Following handles GET /api/users/{id}/following
func (h *FollowHandler) Following(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.followService.Following)
}

func (h *FollowHandler) list(w http.ResponseWriter, r *http.Request,
	fn func(ctx context.Context, viewer auth.Identity, targetID int64) ([]models.UserSummary, error)) {
	identity, _ := middleware.GetIdentity(r.Context())
	id, err := urlID(r)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	users, err := fn(r.Context(), identity, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if users == nil {
		users = []models.UserSummary{}
	}
	respondJSON(w, http.StatusOK, users)
}
