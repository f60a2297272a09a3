// Package api exposes the read-only HTTP interface for the dashboard
// service: the collected dataset, per-source records, health, and metrics.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/dashboard"
	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/metrics"
	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/store"
)

// Server wires HTTP handlers to the dataset on disk.
type Server struct {
	router    chi.Router
	storePath string
	logger    *zap.Logger
}

// NewServer constructs a Server with middleware and routes. The dataset is
// re-read per request so responses always reflect the latest finished run;
// the file is small and the write side is atomic.
func NewServer(storePath string, logger *zap.Logger) *Server {
	s := &Server{
		storePath: storePath,
		logger:    logger,
	}

	metrics.Init()
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(metrics.Middleware)

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/sources", s.listSources)
		r.Get("/sources/{source}", s.getSource)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	// Ready means the dataset file is readable (or legitimately absent
	// before the first run).
	if _, err := store.Load(s.storePath); err != nil {
		writeError(w, http.StatusServiceUnavailable, "dataset unreadable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) listSources(w http.ResponseWriter, _ *http.Request) {
	st, err := store.Load(s.storePath)
	if err != nil {
		s.logger.Error("dataset load failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load dataset")
		return
	}

	sources := make(map[string]dashboard.SourceRecord)
	for _, key := range st.Keys() {
		if rec, ok := st.Get(key); ok {
			sources[key] = rec
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sources": sources})
}

func (s *Server) getSource(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "source")

	st, err := store.Load(s.storePath)
	if err != nil {
		s.logger.Error("dataset load failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load dataset")
		return
	}

	// Raw preserves fields this build does not model, such as hand-curated
	// annotations on manual sources.
	raw, ok := st.Raw(name)
	if !ok {
		writeError(w, http.StatusNotFound, "source not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"source": name,
		"record": json.RawMessage(raw),
	})
}

type requestIDKey struct{}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", zap.Any("panic", rec))
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
