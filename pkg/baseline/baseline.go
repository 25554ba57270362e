// Package baseline supplies the read-only reference catalog that user data is
// reconciled against. The dataset comes from, in order of preference: a local
// snapshot file, a remote fetch of chemical_data.json, or the bundled
// snapshot shipped inside the binary. Source failures fall back silently to
// the bundled copy; a degraded catalog renders, a missing one does not.
package baseline

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/chemref-labs/chemref-engine/pkg/models"
)

// DatasetFile is the well-known dataset file name appended to the configured
// base URL.
const DatasetFile = "chemical_data.json"

//go:embed data/chemical_data.json
var bundledSnapshot []byte

// Loader retrieves the baseline dataset.
type Loader struct {
	baseURL      string
	snapshotPath string
	client       *http.Client
	logger       *zap.Logger
}

// NewLoader creates a baseline loader. baseURL and snapshotPath may each be
// empty; fetchTimeout bounds the remote request.
func NewLoader(baseURL, snapshotPath string, fetchTimeout time.Duration, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		baseURL:      strings.TrimRight(baseURL, "/"),
		snapshotPath: snapshotPath,
		client:       &http.Client{Timeout: fetchTimeout},
		logger:       logger.Named("baseline"),
	}
}

// Load returns the baseline records. It never returns an error: every source
// failure is logged at Warn and falls through to the bundled snapshot.
func (l *Loader) Load(ctx context.Context) []models.RawRecord {
	if l.snapshotPath != "" {
		if records, err := l.loadFile(); err == nil {
			return records
		} else {
			l.logger.Warn("Local snapshot unavailable, trying next source",
				zap.String("path", l.snapshotPath),
				zap.Error(err))
		}
	}

	if l.baseURL != "" {
		if records, err := l.fetch(ctx); err == nil {
			return records
		} else {
			l.logger.Warn("Baseline fetch failed, using bundled snapshot",
				zap.String("base_url", l.baseURL),
				zap.Error(err))
		}
	}

	records, err := decode(bundledSnapshot)
	if err != nil {
		// The bundled snapshot is compiled in; this only happens if the
		// build shipped a broken file.
		l.logger.Error("Bundled snapshot is invalid", zap.Error(err))
		return nil
	}
	return records
}

func (l *Loader) loadFile() ([]models.RawRecord, error) {
	data, err := os.ReadFile(l.snapshotPath)
	if err != nil {
		return nil, err
	}
	return decode(data)
}

func (l *Loader) fetch(ctx context.Context) ([]models.RawRecord, error) {
	url := l.baseURL + "/" + DatasetFile
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return decode(data)
}

func decode(data []byte) ([]models.RawRecord, error) {
	var records []models.RawRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode dataset: %w", err)
	}
	return records, nil
}
