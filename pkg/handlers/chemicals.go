package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/chemref-labs/chemref-engine/pkg/models"
	"github.com/chemref-labs/chemref-engine/pkg/reconcile"
	"github.com/chemref-labs/chemref-engine/pkg/services"
)

// ChemicalResponse is one catalog record as served over the API. Extra holds
// source fields outside the schema; they survive the round trip.
type ChemicalResponse struct {
	models.ChemicalRecord
	Extra    map[string]any `json:"extra,omitempty"`
	Favorite bool           `json:"favorite"`
}

// ChemicalListResponse for GET /api/chemicals
type ChemicalListResponse struct {
	Chemicals []ChemicalResponse `json:"chemicals"`
	Total     int                `json:"total"`
}

// ChemicalsHandler handles catalog HTTP requests.
type ChemicalsHandler struct {
	catalog services.CatalogService
	logger  *zap.Logger
}

// NewChemicalsHandler creates a new catalog handler.
func NewChemicalsHandler(catalog services.CatalogService, logger *zap.Logger) *ChemicalsHandler {
	return &ChemicalsHandler{catalog: catalog, logger: logger}
}

// RegisterRoutes registers the catalog routes on the given mux.
func (h *ChemicalsHandler) RegisterRoutes(mux *http.ServeMux, identify Identify) {
	mux.HandleFunc("GET /api/chemicals", identify(h.List))
	mux.HandleFunc("POST /api/chemicals", identify(h.Create))
	mux.HandleFunc("GET /api/chemicals/{id}", identify(h.Get))
	mux.HandleFunc("PUT /api/chemicals/{id}", identify(h.Update))
	mux.HandleFunc("DELETE /api/chemicals/{id}", identify(h.Delete))
	mux.HandleFunc("POST /api/chemicals/{id}/favorite", identify(h.ToggleFavorite))
	mux.HandleFunc("POST /api/chemicals/{id}/view", identify(h.RecordView))
	mux.HandleFunc("GET /api/favorites", identify(h.Favorites))
	mux.HandleFunc("GET /api/recent-views", identify(h.RecentViews))
	mux.HandleFunc("GET /api/compare", identify(h.CompareList))
	mux.HandleFunc("POST /api/compare/{id}", identify(h.AddToCompare))
	mux.HandleFunc("DELETE /api/compare/{id}", identify(h.RemoveFromCompare))
	mux.HandleFunc("POST /api/catalog/reload", identify(h.Reload))
}

func (h *ChemicalsHandler) toResponse(rec models.ChemicalRecord, favorites []string) ChemicalResponse {
	return ChemicalResponse{
		ChemicalRecord: rec,
		Extra:          rec.Extra,
		Favorite:       reconcile.IsFavorite(favorites, rec.Identity),
	}
}

// List handles GET /api/chemicals. Supports tag, hazard, and favorites=true
// query filters.
func (h *ChemicalsHandler) List(w http.ResponseWriter, r *http.Request) {
	records := h.catalog.List(r.Context())
	favorites := h.catalog.Favorites(r.Context())

	tag := r.URL.Query().Get("tag")
	hazard := r.URL.Query().Get("hazard")
	onlyFavorites := r.URL.Query().Get("favorites") == "true"

	out := make([]ChemicalResponse, 0, len(records))
	for _, rec := range records {
		if tag != "" && !rec.HasTag(tag) {
			continue
		}
		if hazard != "" && !hasHazard(&rec, hazard) {
			continue
		}
		if onlyFavorites && !reconcile.IsFavorite(favorites, rec.Identity) {
			continue
		}
		out = append(out, h.toResponse(rec, favorites))
	}

	response := ChemicalListResponse{Chemicals: out, Total: len(out)}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func hasHazard(rec *models.ChemicalRecord, hazard string) bool {
	for _, hz := range rec.Hazards {
		if strings.EqualFold(hz, hazard) {
			return true
		}
	}
	return false
}

// Get handles GET /api/chemicals/{id}
func (h *ChemicalsHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.catalog.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respondError(w, err, "get_chemical_failed")
		return
	}

	response := h.toResponse(rec, h.catalog.Favorites(r.Context()))
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/chemicals. The body is an arbitrary record object;
// unknown fields are preserved.
func (h *ChemicalsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var raw models.RawRecord
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	rec, err := h.catalog.Add(r.Context(), raw)
	if err != nil {
		h.respondError(w, err, "create_chemical_failed")
		return
	}

	response := h.toResponse(rec, h.catalog.Favorites(r.Context()))
	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/chemicals/{id}
func (h *ChemicalsHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, err := h.catalog.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respondError(w, err, "get_chemical_failed")
		return
	}

	var raw models.RawRecord
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil || raw == nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	// Pin the body to the record addressed by the path.
	if _, ok := raw["id"]; !ok {
		raw["id"] = existing.Identity
	}

	rec, err := h.catalog.Update(r.Context(), raw)
	if err != nil {
		h.respondError(w, err, "update_chemical_failed")
		return
	}

	response := h.toResponse(rec, h.catalog.Favorites(r.Context()))
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/chemicals/{id}
func (h *ChemicalsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.respondError(w, err, "delete_chemical_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: map[string]string{"status": "deleted"}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ToggleFavorite handles POST /api/chemicals/{id}/favorite
func (h *ChemicalsHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	favorites, err := h.catalog.ToggleFavorite(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respondError(w, err, "toggle_favorite_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: map[string]any{"favorites": favorites}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Favorites handles GET /api/favorites
func (h *ChemicalsHandler) Favorites(w http.ResponseWriter, r *http.Request) {
	favorites := h.catalog.Favorites(r.Context())
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: map[string]any{"favorites": favorites}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// RecordView handles POST /api/chemicals/{id}/view
func (h *ChemicalsHandler) RecordView(w http.ResponseWriter, r *http.Request) {
	views, err := h.catalog.RecordView(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respondError(w, err, "record_view_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: map[string]any{"recentViews": views}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// RecentViews handles GET /api/recent-views
func (h *ChemicalsHandler) RecentViews(w http.ResponseWriter, r *http.Request) {
	views, err := h.catalog.RecentViews(r.Context())
	if err != nil {
		h.respondError(w, err, "list_recent_views_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: map[string]any{"recentViews": views}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// CompareList handles GET /api/compare
func (h *ChemicalsHandler) CompareList(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.CompareList(r.Context())
	if err != nil {
		h.respondError(w, err, "list_compare_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: map[string]any{"compareList": items}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// AddToCompare handles POST /api/compare/{id}
func (h *ChemicalsHandler) AddToCompare(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.AddToCompare(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respondError(w, err, "add_to_compare_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: map[string]any{"compareList": items}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// RemoveFromCompare handles DELETE /api/compare/{id}
func (h *ChemicalsHandler) RemoveFromCompare(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.RemoveFromCompare(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respondError(w, err, "remove_from_compare_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: map[string]any{"compareList": items}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Reload handles POST /api/catalog/reload. Re-reads the baseline dataset and
// re-runs reconciliation.
func (h *ChemicalsHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Reload(r.Context()); err != nil {
		h.respondError(w, err, "reload_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: map[string]any{
		"total": len(h.catalog.List(r.Context())),
	}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *ChemicalsHandler) respondError(w http.ResponseWriter, err error, fallbackCode string) {
	status, code := statusFor(err)
	if status == http.StatusInternalServerError {
		code = fallbackCode
		h.logger.Error("Catalog request failed", zap.Error(err))
	}
	if err := ErrorResponse(w, status, code, err.Error()); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
