package handlers

import (
	"context"
	"net/http"
	"strings"

	"modelhub-backend/internal/middleware"
	"modelhub-backend/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// ProfileService is the profile lookup surface used by ProfileHandler
type ProfileService interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	GetProfileByUsername(ctx context.Context, username string) (*models.Profile, error)
	UpdatePushToken(ctx context.Context, id, token string) error
}

// ProfileHandler handles profile-related requests
type ProfileHandler struct {
	profiles ProfileService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profiles ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// UpdatePushTokenRequest is the body of PUT /profiles/me/push-token
type UpdatePushTokenRequest struct {
	PushToken string `json:"push_token"`
}

// GetProfile handles GET /api/v1/profiles/{id}
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profiles.GetProfile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondFailure(w, "profile", err)
		return
	}
	respondResult(w, http.StatusOK, "profile", profile)
}

// GetProfileByUsername handles GET /api/v1/profiles/by-username/{username}
func (h *ProfileHandler) GetProfileByUsername(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profiles.GetProfileByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		respondFailure(w, "profile", err)
		return
	}
	respondResult(w, http.StatusOK, "profile", profile)
}

// UpdatePushToken handles PUT /api/v1/profiles/me/push-token
func (h *ProfileHandler) UpdatePushToken(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		respondError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req UpdatePushTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		respondFailure(w, "success", err)
		return
	}

	if err := h.profiles.UpdatePushToken(r.Context(), userID, strings.TrimSpace(req.PushToken)); err != nil {
		respondFailure(w, "success", err)
		return
	}

	log.Info().Str("user_id", userID).Msg("Push token updated")
	respondResult(w, http.StatusOK, "success", true)
}
