package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chemref-labs/chemref-engine/pkg/baseline"
	"github.com/chemref-labs/chemref-engine/pkg/config"
	"github.com/chemref-labs/chemref-engine/pkg/database"
	"github.com/chemref-labs/chemref-engine/pkg/registry"
	"github.com/chemref-labs/chemref-engine/pkg/repositories"
	"github.com/chemref-labs/chemref-engine/pkg/services"
)

func newTestServer(t *testing.T) *http.ServeMux {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()

	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.RunMigrations(db, logger))

	records := `[
		{"Chemical Name": "Water", "Formula": "H2O", "CAS": "7732-18-5"},
		{"Chemical Name": "Sodium Chloride", "Formula": "NaCl", "CAS": "7647-14-5"}
	]`
	snapshot := filepath.Join(t.TempDir(), "chemical_data.json")
	require.NoError(t, os.WriteFile(snapshot, []byte(records), 0o644))
	loader := baseline.NewLoader("", snapshot, time.Second, logger)

	catalog, err := services.NewCatalogService(ctx, loader,
		repositories.NewChemicalRepository(db, logger),
		repositories.NewFavoritesRepository(db),
		repositories.NewRecentViewsRepository(db, logger),
		repositories.NewCompareListRepository(db, logger),
		logger)
	require.NoError(t, err)

	reg, err := registry.Load()
	require.NoError(t, err)
	logbook := services.NewLogbookService(
		repositories.NewLogbookRepository(db, logger),
		repositories.NewUsageLogRepository(db),
		catalog, reg, logger)

	searchSvc := services.NewSearchService(catalog, logbook,
		repositories.NewSearchHistoryRepository(db, logger), logger)
	catalog.OnChange(searchSvc.MarkStale)
	logbook.OnChange(searchSvc.MarkStale)

	analyticsSvc := services.NewAnalyticsService(catalog, logbook, logger)
	exportSvc := services.NewExportService(catalog, logbook, logger)
	profileSvc := services.NewProfileService(repositories.NewProfileRepository(db, logger), logger)

	mux := http.NewServeMux()
	identify := Identify(PassthroughIdentity)
	NewHealthHandler(&config.Config{Version: "test", Env: "test"}, logger).RegisterRoutes(mux)
	NewChemicalsHandler(catalog, logger).RegisterRoutes(mux, identify)
	NewLogbookHandler(logbook, logger).RegisterRoutes(mux, identify)
	NewSearchHandler(searchSvc, logger).RegisterRoutes(mux, identify)
	NewAnalyticsHandler(analyticsSvc, logger).RegisterRoutes(mux, identify)
	NewExportHandler(exportSvc, logger).RegisterRoutes(mux, identify)
	NewProfileHandler(profileSvc, logger).RegisterRoutes(mux, identify)
	return mux
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	r := httptest.NewRequest(method, path, reader)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) ApiResponse {
	t.Helper()
	var resp ApiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealthAndPing(t *testing.T) {
	mux := newTestServer(t)

	w := doJSON(t, mux, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())

	w = doJSON(t, mux, http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"chemref-engine"`)
}

func TestChemicals_ListAndGet(t *testing.T) {
	mux := newTestServer(t)

	w := doJSON(t, mux, http.MethodGet, "/api/chemicals", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	assert.Contains(t, w.Body.String(), `"total":2`)

	w = doJSON(t, mux, http.MethodGet, "/api/chemicals/7732-18-5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"Water"`)

	w = doJSON(t, mux, http.MethodGet, "/api/chemicals/unobtainium", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChemicals_CreateConflictAndDelete(t *testing.T) {
	mux := newTestServer(t)

	w := doJSON(t, mux, http.MethodPost, "/api/chemicals", map[string]any{
		"name": "Ethanol", "formula": "C2H5OH", "casNumber": "64-17-5",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, mux, http.MethodPost, "/api/chemicals", map[string]any{"name": "Ethanol"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, mux, http.MethodDelete, "/api/chemicals/64-17-5", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, mux, http.MethodGet, "/api/chemicals/64-17-5", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChemicals_CreateRejectsMarkup(t *testing.T) {
	mux := newTestServer(t)

	w := doJSON(t, mux, http.MethodPost, "/api/chemicals", map[string]any{
		"name": "<script>alert(1)</script>",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unsafe_input")
}

func TestChemicals_Update(t *testing.T) {
	mux := newTestServer(t)

	w := doJSON(t, mux, http.MethodPut, "/api/chemicals/7732-18-5", map[string]any{
		"name": "Water", "description": "Distilled",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"Distilled"`)
	// Baseline formula survives the override merge.
	assert.Contains(t, w.Body.String(), `"H2O"`)
}

func TestChemicals_UpdateNullBody(t *testing.T) {
	mux := newTestServer(t)

	r := httptest.NewRequest(http.MethodPut, "/api/chemicals/7732-18-5", bytes.NewReader([]byte("null")))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_request")
}

func TestChemicals_FavoriteToggleAndFilter(t *testing.T) {
	mux := newTestServer(t)

	w := doJSON(t, mux, http.MethodPost, "/api/chemicals/7732-18-5/favorite", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "7732-18-5")

	w = doJSON(t, mux, http.MethodGet, "/api/chemicals?favorites=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)
	assert.Contains(t, w.Body.String(), `"Water"`)
}

func TestCompare_CapEnforced(t *testing.T) {
	mux := newTestServer(t)

	for _, name := range []string{"Ethanol", "Acetone"} {
		w := doJSON(t, mux, http.MethodPost, "/api/chemicals", map[string]any{"name": name})
		require.Equal(t, http.StatusCreated, w.Code)
	}
	for _, id := range []string{"Water", "Ethanol", "Acetone"} {
		w := doJSON(t, mux, http.MethodPost, "/api/compare/"+id, nil)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doJSON(t, mux, http.MethodPost, "/api/compare/Sodium%20Chloride", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogbook_CreateListDelete(t *testing.T) {
	mux := newTestServer(t)

	w := doJSON(t, mux, http.MethodPost, "/api/logbook", map[string]any{
		"logType":    "experiment",
		"chemicalId": "7732-18-5",
		"fields":     map[string]any{"procedure": "Boil and observe"},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.Data.ID)

	w = doJSON(t, mux, http.MethodGet, "/api/logbook", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)

	w = doJSON(t, mux, http.MethodDelete, "/api/logbook/"+created.Data.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, mux, http.MethodDelete, "/api/logbook/"+created.Data.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLogbook_RejectsUnknownType(t *testing.T) {
	mux := newTestServer(t)

	w := doJSON(t, mux, http.MethodPost, "/api/logbook", map[string]any{
		"logType":    "teleportation",
		"chemicalId": "7732-18-5",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation_error")
}

func TestLogbook_UsageAdjustsInventory(t *testing.T) {
	mux := newTestServer(t)

	w := doJSON(t, mux, http.MethodPost, "/api/chemicals", map[string]any{
		"name": "Ethanol", "casNumber": "64-17-5",
		"inventory": map[string]any{"quantity": 100, "unit": "mL"},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, mux, http.MethodPost, "/api/logbook", map[string]any{
		"logType":    "usage",
		"chemicalId": "64-17-5",
		"fields":     map[string]any{"action": "Used", "quantity": "25"},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, mux, http.MethodGet, "/api/chemicals/64-17-5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"quantity":75`)

	w = doJSON(t, mux, http.MethodGet, "/api/chemicals/64-17-5/usage", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"Used"`)
}

func TestLogbook_Types(t *testing.T) {
	mux := newTestServer(t)

	w := doJSON(t, mux, http.MethodGet, "/api/logbook/types", nil)
	require.Equal(t, http.StatusOK, w.Code)
	for _, name := range []string{"experiment", "disposal", "inventory", "usage", "maintenance", "incident"} {
		assert.Contains(t, w.Body.String(), `"`+name+`"`)
	}
}

func TestSearch_EndpointAndHistory(t *testing.T) {
	mux := newTestServer(t)

	w := doJSON(t, mux, http.MethodGet, "/api/search?q=watr", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"Water"`, "near-miss query still finds the record")

	w = doJSON(t, mux, http.MethodGet, "/api/search/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"watr"`)

	w = doJSON(t, mux, http.MethodDelete, "/api/search/history", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, mux, http.MethodGet, "/api/search/history", nil)
	assert.NotContains(t, w.Body.String(), `"watr"`)
}

func TestSearch_RejectsInjection(t *testing.T) {
	mux := newTestServer(t)

	w := doJSON(t, mux, http.MethodGet, "/api/search?q="+
		"%3Cscript%3Ealert%281%29%3C%2Fscript%3E", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unsafe_input")
}

func TestAnalytics_Dashboard(t *testing.T) {
	mux := newTestServer(t)

	w := doJSON(t, mux, http.MethodGet, "/api/analytics/dashboard", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"totalChemicals":2`)
	assert.Contains(t, w.Body.String(), `"activityTimeline"`)
}

func TestExport_ChemicalsCSV(t *testing.T) {
	mux := newTestServer(t)

	w := doJSON(t, mux, http.MethodGet, "/api/export/chemicals.csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "Water,H2O,7732-18-5")
}

func TestProfile_AnonymousRoundTrip(t *testing.T) {
	mux := newTestServer(t)

	w := doJSON(t, mux, http.MethodGet, "/api/profile", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"anonymous"`)

	w = doJSON(t, mux, http.MethodPut, "/api/profile", map[string]any{
		"displayName": "Ada", "email": "ada@example.com",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"Ada"`)

	w = doJSON(t, mux, http.MethodGet, "/api/profile", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"Ada"`)
}

func TestCatalog_ReloadEndpoint(t *testing.T) {
	mux := newTestServer(t)

	w := doJSON(t, mux, http.MethodPost, "/api/catalog/reload", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":2`)
}
