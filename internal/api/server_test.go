package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestServer_Healthz(t *testing.T) {
	t.Parallel()

	s := NewServer(0, filepath.Join(t.TempDir(), "review.json"), zap.NewNop())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body["status"])
}

func TestServer_ReviewEmptyWhenFileMissing(t *testing.T) {
	t.Parallel()

	s := NewServer(0, filepath.Join(t.TempDir(), "review.json"), zap.NewNop())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/review", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, "[]", rec.Body.String())
}

func TestServer_ReviewServesQueueFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "review.json")
	queue := `[{"url":"https://example.com/a","reason":"marker:captcha"}]`
	require.NoError(t, os.WriteFile(path, []byte(queue), 0o644))

	s := NewServer(0, path, zap.NewNop())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/review", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, queue, rec.Body.String())
}

func TestServer_MetricsEndpoint(t *testing.T) {
	t.Parallel()

	s := NewServer(0, filepath.Join(t.TempDir(), "review.json"), zap.NewNop())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "go_goroutines")
}
