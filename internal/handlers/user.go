package handlers

import (
	"encoding/json"
	"net/http"

	"arch-community-backend/internal/middleware"
	"arch-community-backend/internal/models"
	"arch-community-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// UserHandler handles profile and account routes.
type UserHandler struct {
	userService  *services.UserService
	mediaService services.MediaStore
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService, mediaService services.MediaStore) *UserHandler {
	return &UserHandler{
		userService:  userService,
		mediaService: mediaService,
	}
}

// Get handles GET /api/users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	profile, err := h.userService.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

type updateAccountRequest struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
}

// Update handles PATCH /api/users/{id}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.GetIdentity(r.Context())
	id, err := urlID(r)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	var req updateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	err = h.userService.UpdateAccount(r.Context(), identity, id, services.UpdateAccountInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	log.Info().Int64("user_id", id).Int64("actor_id", identity.ID).Msg("Account updated")
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type privacyRequest struct {
	IsPrivate     bool `json:"is_private"`
	HidePosts     bool `json:"hide_posts"`
	HideFollowing bool `json:"hide_following"`
	HideFollowers bool `json:"hide_followers"`
}

// UpdatePrivacy handles PATCH /api/users/{id}/profile
func (h *UserHandler) UpdatePrivacy(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.GetIdentity(r.Context())
	id, err := urlID(r)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	var req privacyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	err = h.userService.UpdatePrivacy(r.Context(), identity, id, models.Profile{
		IsPrivate:     req.IsPrivate,
		HidePosts:     req.HidePosts,
		HideFollowing: req.HideFollowing,
		HideFollowers: req.HideFollowers,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// SetAvatar handles POST /api/users/{id}/avatar (multipart, field "avatar")
func (h *UserHandler) SetAvatar(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.GetIdentity(r.Context())
	id, err := urlID(r)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	if r.MultipartForm == nil || len(r.MultipartForm.File["avatar"]) == 0 {
		respondError(w, "no file uploaded", http.StatusBadRequest)
		return
	}

	avatarURL, err := h.mediaService.UploadAvatar(r.Context(), r.MultipartForm.File["avatar"][0])
	if err != nil {
		log.Error().Err(err).Int64("user_id", id).Msg("Failed to upload avatar")
		respondError(w, "failed to store avatar", http.StatusInternalServerError)
		return
	}
	if err := h.userService.SetAvatar(r.Context(), identity, id, avatarURL); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"ok": true, "avatarUrl": avatarURL})
}

// Markers handles GET /api/users/{id}/markers
func (h *UserHandler) Markers(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.GetIdentity(r.Context())
	id, err := urlID(r)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	markers, err := h.userService.Markers(r.Context(), identity, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if markers == nil {
		markers = []models.Marker{}
	}
	respondJSON(w, http.StatusOK, markers)
}

// LikedMarkers handles GET /api/users/{id}/likes
func (h *UserHandler) LikedMarkers(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	markers, err := h.userService.LikedMarkers(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if markers == nil {
		markers = []models.Marker{}
	}
	respondJSON(w, http.StatusOK, markers)
}
