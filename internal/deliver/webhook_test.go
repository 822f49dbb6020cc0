package deliver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mkarwowski/adscout/internal/config"
)

func newTestSender(t *testing.T, url string, maxRetries int) (*Sender, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.WebhookConfig{
		URL:         url,
		Timeout:     5 * time.Second,
		MaxRetries:  maxRetries,
		BackoffBase: time.Millisecond,
	}
	return NewSender(cfg, NewFailStore(dir, zap.NewNop()), zap.NewNop()), dir
}

func failureFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestSender_DeliversJSONPayload(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s, dir := newTestSender(t, srv.URL, 3)
	ok := s.Deliver(context.Background(), "abc123", map[string]string{"title": "RTX 3060"})

	require.True(t, ok)
	require.Equal(t, "RTX 3060", got["title"])
	require.Empty(t, failureFiles(t, dir))
}

func TestSender_SucceedsAfterTransientFailures(t *testing.T) {
	t.Parallel()

	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s, dir := newTestSender(t, srv.URL, 3)
	ok := s.Deliver(context.Background(), "abc123", map[string]string{"k": "v"})

	require.True(t, ok)
	require.Equal(t, 3, attempts)
	require.Empty(t, failureFiles(t, dir))
}

func TestSender_PersistsAfterExhaustion(t *testing.T) {
	t.Parallel()

	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s, dir := newTestSender(t, srv.URL, 3)
	ok := s.Deliver(context.Background(), "abc123", map[string]string{"title": "RTX 3060"})

	require.False(t, ok)
	require.Equal(t, 3, attempts)

	files := failureFiles(t, dir)
	require.Len(t, files, 1)
	require.True(t, strings.HasPrefix(files[0], "failed_"))
	require.Contains(t, files[0], "_abc123.json")

	data, err := os.ReadFile(filepath.Join(dir, files[0]))
	require.NoError(t, err)
	var payload map[string]string
	require.NoError(t, json.Unmarshal(data, &payload))
	require.Equal(t, "RTX 3060", payload["title"])
}

func TestSender_PersistsWhenIDIsAFullURL(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s, dir := newTestSender(t, srv.URL, 2)
	ok := s.Deliver(context.Background(),
		"https://www.olx.pl/d/oferty/some-ad.html", map[string]string{"title": "RTX 3060"})

	require.False(t, ok)
	files := failureFiles(t, dir)
	require.Len(t, files, 1)
	require.True(t, strings.HasPrefix(files[0], "failed_"))
	require.NotContains(t, files[0], "/")
}

func TestFailStore_SanitizeID(t *testing.T) {
	t.Parallel()

	require.Equal(t, "abc123", sanitizeID("abc123"))
	require.Equal(t, "https_www.olx.pl_d_oferty_some-ad.html", sanitizeID("https://www.olx.pl/d/oferty/some-ad.html"))
	require.Equal(t, "unknown", sanitizeID(""))
	require.Equal(t, "unknown", sanitizeID("///"))
	require.LessOrEqual(t, len(sanitizeID(strings.Repeat("x", 500))), 80)
}

func TestSender_UnreachableSinkPersists(t *testing.T) {
	t.Parallel()

	s, dir := newTestSender(t, "http://127.0.0.1:1/hook", 2)
	ok := s.Deliver(context.Background(), "xyz", map[string]string{"k": "v"})

	require.False(t, ok)
	require.Len(t, failureFiles(t, dir), 1)
}
