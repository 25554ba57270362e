package baseline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoad_BundledSnapshot(t *testing.T) {
	l := NewLoader("", "", time.Second, zap.NewNop())

	records := l.Load(context.Background())

	require.NotEmpty(t, records)
	// The bundled snapshot uses the legacy capitalized schema.
	assert.Contains(t, records[0], "Chemical Name")
}

func TestLoad_FetchPreferred(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/"+DatasetFile, r.URL.Path)
		_, _ = w.Write([]byte(`[{"name": "Remote Chemical", "formula": "X"}]`))
	}))
	defer srv.Close()

	l := NewLoader(srv.URL, "", time.Second, zap.NewNop())
	records := l.Load(context.Background())

	require.Len(t, records, 1)
	assert.Equal(t, "Remote Chemical", records[0]["name"])
}

func TestLoad_FetchErrorFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	l := NewLoader(srv.URL, "", time.Second, zap.NewNop())
	records := l.Load(context.Background())

	require.NotEmpty(t, records, "non-success status falls back to bundled snapshot")
	assert.Contains(t, records[0], "Chemical Name")
}

func TestLoad_FetchMalformedFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"this is": "not an array"`))
	}))
	defer srv.Close()

	l := NewLoader(srv.URL, "", time.Second, zap.NewNop())
	records := l.Load(context.Background())

	require.NotEmpty(t, records)
	assert.Contains(t, records[0], "Chemical Name")
}

func TestLoad_UnreachableHostFallsBack(t *testing.T) {
	l := NewLoader("http://127.0.0.1:1", "", 200*time.Millisecond, zap.NewNop())
	records := l.Load(context.Background())
	require.NotEmpty(t, records)
}

func TestLoad_SnapshotFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chemical_data.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name": "Local Chemical"}]`), 0o644))

	l := NewLoader("", path, time.Second, zap.NewNop())
	records := l.Load(context.Background())

	require.Len(t, records, 1)
	assert.Equal(t, "Local Chemical", records[0]["name"])
}

func TestWatch_FiresOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chemical_data.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o644))

	l := NewLoader("", path, time.Second, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 1)
	require.NoError(t, l.Watch(ctx, func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	}))

	// Give the watcher a moment to register before writing.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(`[{"name": "Updated"}]`), 0o644))

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not fire on snapshot change")
	}
}

func TestWatch_NoopWithoutSnapshotPath(t *testing.T) {
	l := NewLoader("", "", time.Second, zap.NewNop())
	assert.NoError(t, l.Watch(context.Background(), func() {
		t.Fatal("onChange must not fire without a snapshot path")
	}))
}
