package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/chemref-labs/chemref-engine/pkg/auth"
	"github.com/chemref-labs/chemref-engine/pkg/models"
	"github.com/chemref-labs/chemref-engine/pkg/services"
)

// UpdateProfileRequest for PUT /api/profile
type UpdateProfileRequest struct {
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

// ProfileHandler serves the caller's personalization profile. The user id
// comes from the identity middleware, never from the request body.
type ProfileHandler struct {
	profiles services.ProfileService
	logger   *zap.Logger
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(profiles services.ProfileService, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, logger: logger}
}

// RegisterRoutes registers the profile routes on the given mux.
func (h *ProfileHandler) RegisterRoutes(mux *http.ServeMux, identify Identify) {
	mux.HandleFunc("GET /api/profile", identify(h.Get))
	mux.HandleFunc("PUT /api/profile", identify(h.Update))
}

// Get handles GET /api/profile
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	profile, err := h.profiles.Get(r.Context(), userID)
	if err != nil {
		h.respondError(w, err, "get_profile_failed")
		return
	}
	if profile == nil {
		profile = &models.UserProfile{UserID: userID}
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: profile}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/profile
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	profile, err := h.profiles.Save(r.Context(), &models.UserProfile{
		UserID:      auth.UserID(r.Context()),
		DisplayName: req.DisplayName,
		Email:       req.Email,
	})
	if err != nil {
		h.respondError(w, err, "save_profile_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: profile}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *ProfileHandler) respondError(w http.ResponseWriter, err error, fallbackCode string) {
	status, code := statusFor(err)
	if status == http.StatusInternalServerError {
		code = fallbackCode
		h.logger.Error("Profile request failed", zap.Error(err))
	}
	if err := ErrorResponse(w, status, code, err.Error()); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
