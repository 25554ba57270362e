package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/chemref-labs/chemref-engine/pkg/services"
)

// AnalyticsHandler serves the dashboard aggregates.
type AnalyticsHandler struct {
	analytics services.AnalyticsService
	logger    *zap.Logger
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(analytics services.AnalyticsService, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics, logger: logger}
}

// RegisterRoutes registers the analytics routes on the given mux.
func (h *AnalyticsHandler) RegisterRoutes(mux *http.ServeMux, identify Identify) {
	mux.HandleFunc("GET /api/analytics/dashboard", identify(h.Dashboard))
	mux.HandleFunc("GET /api/analytics/hazards", identify(h.Hazards))
	mux.HandleFunc("GET /api/analytics/most-used", identify(h.MostUsed))
	mux.HandleFunc("GET /api/analytics/timeline", identify(h.Timeline))
	mux.HandleFunc("GET /api/analytics/low-stock", identify(h.LowStock))
	mux.HandleFunc("GET /api/analytics/expiring", identify(h.ExpiringSoon))
	mux.HandleFunc("GET /api/analytics/expired", identify(h.Expired))
}

// Dashboard handles GET /api/analytics/dashboard
func (h *AnalyticsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.analytics.Dashboard(r.Context())
	if err != nil {
		h.respondError(w, err, "dashboard_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: dashboard}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Hazards handles GET /api/analytics/hazards
func (h *AnalyticsHandler) Hazards(w http.ResponseWriter, r *http.Request) {
	buckets := h.analytics.HazardDistribution(r.Context())
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: map[string]any{"hazards": buckets}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// MostUsed handles GET /api/analytics/most-used
func (h *AnalyticsHandler) MostUsed(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.analytics.MostUsed(r.Context())
	if err != nil {
		h.respondError(w, err, "most_used_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: map[string]any{"mostUsed": summaries}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Timeline handles GET /api/analytics/timeline
func (h *AnalyticsHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	timeline, err := h.analytics.ActivityTimeline(r.Context())
	if err != nil {
		h.respondError(w, err, "timeline_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: map[string]any{"timeline": timeline}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// LowStock handles GET /api/analytics/low-stock
func (h *AnalyticsHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	records := h.analytics.LowStock(r.Context())
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: map[string]any{"lowStock": records}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ExpiringSoon handles GET /api/analytics/expiring
func (h *AnalyticsHandler) ExpiringSoon(w http.ResponseWriter, r *http.Request) {
	records := h.analytics.ExpiringSoon(r.Context())
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: map[string]any{"expiringSoon": records}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Expired handles GET /api/analytics/expired
func (h *AnalyticsHandler) Expired(w http.ResponseWriter, r *http.Request) {
	records := h.analytics.Expired(r.Context())
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: map[string]any{"expired": records}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *AnalyticsHandler) respondError(w http.ResponseWriter, err error, fallbackCode string) {
	status, code := statusFor(err)
	if status == http.StatusInternalServerError {
		code = fallbackCode
		h.logger.Error("Analytics request failed", zap.Error(err))
	}
	if err := ErrorResponse(w, status, code, err.Error()); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
