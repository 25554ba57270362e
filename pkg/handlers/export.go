package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/chemref-labs/chemref-engine/pkg/services"
)

// ExportHandler serves CSV downloads of the catalog and logbook.
type ExportHandler struct {
	export services.ExportService
	logger *zap.Logger
}

// NewExportHandler creates a new export handler.
func NewExportHandler(export services.ExportService, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{export: export, logger: logger}
}

// RegisterRoutes registers the export routes on the given mux.
func (h *ExportHandler) RegisterRoutes(mux *http.ServeMux, identify Identify) {
	mux.HandleFunc("GET /api/export/chemicals.csv", identify(h.Chemicals))
	mux.HandleFunc("GET /api/export/logbook.csv", identify(h.Logbook))
}

// Chemicals handles GET /api/export/chemicals.csv
func (h *ExportHandler) Chemicals(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="chemicals.csv"`)
	if err := h.export.ChemicalsCSV(r.Context(), w); err != nil {
		// Headers are already sent; all we can do is log.
		h.logger.Error("Failed to stream chemicals CSV", zap.Error(err))
	}
}

// Logbook handles GET /api/export/logbook.csv
func (h *ExportHandler) Logbook(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="logbook.csv"`)
	if err := h.export.LogbookCSV(r.Context(), w); err != nil {
		h.logger.Error("Failed to stream logbook CSV", zap.Error(err))
	}
}
