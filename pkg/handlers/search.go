package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/chemref-labs/chemref-engine/pkg/search"
	"github.com/chemref-labs/chemref-engine/pkg/services"
)

// SearchResponse for GET /api/search
type SearchResponse struct {
	Query   string          `json:"query"`
	Results []search.Result `json:"results"`
	Total   int             `json:"total"`
}

// SearchHandler handles fuzzy search HTTP requests.
type SearchHandler struct {
	search services.SearchService
	logger *zap.Logger
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(search services.SearchService, logger *zap.Logger) *SearchHandler {
	return &SearchHandler{search: search, logger: logger}
}

// RegisterRoutes registers the search routes on the given mux.
func (h *SearchHandler) RegisterRoutes(mux *http.ServeMux, identify Identify) {
	mux.HandleFunc("GET /api/search", identify(h.Search))
	mux.HandleFunc("GET /api/search/history", identify(h.History))
	mux.HandleFunc("DELETE /api/search/history", identify(h.ClearHistory))
}

// Search handles GET /api/search?q=
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	results, err := h.search.Search(r.Context(), query)
	if err != nil {
		h.respondError(w, err, "search_failed")
		return
	}

	response := SearchResponse{Query: query, Results: results, Total: len(results)}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// History handles GET /api/search/history
func (h *SearchHandler) History(w http.ResponseWriter, r *http.Request) {
	history, err := h.search.History(r.Context())
	if err != nil {
		h.respondError(w, err, "search_history_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: map[string]any{"history": history}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ClearHistory handles DELETE /api/search/history
func (h *SearchHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.search.ClearHistory(r.Context()); err != nil {
		h.respondError(w, err, "clear_search_history_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: map[string]string{"status": "cleared"}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *SearchHandler) respondError(w http.ResponseWriter, err error, fallbackCode string) {
	status, code := statusFor(err)
	if status == http.StatusInternalServerError {
		code = fallbackCode
		h.logger.Error("Search request failed", zap.Error(err))
	}
	if err := ErrorResponse(w, status, code, err.Error()); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
