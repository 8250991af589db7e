package handlers

import (
	"net/http"

	"arch-community-backend/internal/middleware"
	"arch-community-backend/internal/models"
	"arch-community-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// AdminHandler handles the admin surface.
type AdminHandler struct {
	adminService *services.AdminService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService *services.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// Check handles GET /api/admin/check
func (h *AdminHandler) Check(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.GetIdentity(r.Context())
	respondJSON(w, http.StatusOK, map[string]bool{"isAdmin": identity.Role == models.RoleAdmin})
}

// ListUsers handles GET /api/admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.GetIdentity(r.Context())
	users, err := h.adminService.ListUsers(r.Context(), identity)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if users == nil {
		users = []models.AdminUser{}
	}
	respondJSON(w, http.StatusOK, users)
}

// DeleteUser handles DELETE /api/admin/users/{id}
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.GetIdentity(r.Context())
	id, err := urlID(r)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if err := h.adminService.DeleteUser(r.Context(), identity, id); err != nil {
		respondServiceError(w, err)
		return
	}
	log.Info().Int64("user_id", id).Int64("actor_id", identity.ID).Msg("User deleted")
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Metrics handles GET /api/admin/metrics
func (h *AdminHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.GetIdentity(r.Context())
	metrics, err := h.adminService.MarkerMetrics(r.Context(), identity)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, metrics)
}

// ExportCSV handles GET /api/admin/export.csv
func (h *AdminHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.GetIdentity(r.Context())

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="markers.csv"`)
	if err := h.adminService.ExportCSV(r.Context(), identity, w); err != nil {
		respondServiceError(w, err)
		return
	}
}
