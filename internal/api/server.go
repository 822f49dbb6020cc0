// Package api serves the operational HTTP surface: health, metrics and the
// manual review queue.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server is the ops HTTP server. It runs beside the crawl session and never
// participates in it.
type Server struct {
	srv        *http.Server
	reviewFile string
	log        *zap.Logger
}

// NewServer builds the ops server on the given port. reviewFile is the
// manual review queue served read-only at /review.
func NewServer(port int, reviewFile string, log *zap.Logger) *Server {
	s := &Server{reviewFile: reviewFile, log: log}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Get("/review", s.handleReview)
	r.Handle("/metrics", promhttp.Handler())

	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("ops server listening", zap.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("ops server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleReview serves the manual review queue. An absent queue file is an
// empty queue, not an error.
func (s *Server) handleReview(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	data, err := os.ReadFile(s.reviewFile)
	if os.IsNotExist(err) {
		_, _ = w.Write([]byte("[]"))
		return
	}
	if err != nil {
		s.log.Error("reading review queue failed", zap.Error(err))
		http.Error(w, `{"error":"review queue unreadable"}`, http.StatusInternalServerError)
		return
	}
	_, _ = w.Write(data)
}
