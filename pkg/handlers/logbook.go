package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/chemref-labs/chemref-engine/pkg/models"
	"github.com/chemref-labs/chemref-engine/pkg/services"
)

// CreateLogEntryRequest for POST /api/logbook
type CreateLogEntryRequest struct {
	LogType    string         `json:"logType"`
	ChemicalID string         `json:"chemicalId,omitempty"`
	Date       string         `json:"date,omitempty"`
	Fields     map[string]any `json:"fields,omitempty"`
}

// LogbookListResponse for GET /api/logbook
type LogbookListResponse struct {
	Entries []models.LogEntry `json:"entries"`
	Total   int               `json:"total"`
}

// LogbookHandler handles lab logbook HTTP requests.
type LogbookHandler struct {
	logbook services.LogbookService
	logger  *zap.Logger
}

// NewLogbookHandler creates a new logbook handler.
func NewLogbookHandler(logbook services.LogbookService, logger *zap.Logger) *LogbookHandler {
	return &LogbookHandler{logbook: logbook, logger: logger}
}

// RegisterRoutes registers the logbook routes on the given mux. Entries are
// immutable: there is deliberately no update route.
func (h *LogbookHandler) RegisterRoutes(mux *http.ServeMux, identify Identify) {
	mux.HandleFunc("GET /api/logbook", identify(h.List))
	mux.HandleFunc("POST /api/logbook", identify(h.Create))
	mux.HandleFunc("DELETE /api/logbook/{id}", identify(h.Delete))
	mux.HandleFunc("GET /api/logbook/types", identify(h.Types))
	mux.HandleFunc("GET /api/chemicals/{id}/usage", identify(h.UsageHistory))
}

// List handles GET /api/logbook
func (h *LogbookHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.logbook.List(r.Context())
	if err != nil {
		h.respondError(w, err, "list_logbook_failed")
		return
	}

	response := LogbookListResponse{Entries: entries, Total: len(entries)}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/logbook
func (h *LogbookHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateLogEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	entry, err := h.logbook.Create(r.Context(), &models.LogEntry{
		LogType:    req.LogType,
		ChemicalID: req.ChemicalID,
		Date:       req.Date,
		Fields:     req.Fields,
	})
	if err != nil {
		h.respondError(w, err, "create_log_entry_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: entry}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/logbook/{id}
func (h *LogbookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.logbook.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.respondError(w, err, "delete_log_entry_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: map[string]string{"status": "deleted"}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Types handles GET /api/logbook/types. Returns the log type schemas the
// client renders entry forms from.
func (h *LogbookHandler) Types(w http.ResponseWriter, r *http.Request) {
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: map[string]any{
		"logTypes": h.logbook.LogTypes(),
	}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// UsageHistory handles GET /api/chemicals/{id}/usage
func (h *LogbookHandler) UsageHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.logbook.UsageHistory(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respondError(w, err, "usage_history_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: map[string]any{"usage": history}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *LogbookHandler) respondError(w http.ResponseWriter, err error, fallbackCode string) {
	status, code := statusFor(err)
	if status == http.StatusInternalServerError {
		code = fallbackCode
		h.logger.Error("Logbook request failed", zap.Error(err))
	}
	if err := ErrorResponse(w, status, code, err.Error()); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
