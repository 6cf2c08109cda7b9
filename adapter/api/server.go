// Package api provides the HTTP API for mood classification and the journal.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/felixgeelhaar/moodlens/pkg/observability"
)

// Server is the HTTP API server.
type Server struct {
	mux       *http.ServeMux
	server    *http.Server
	logger    *slog.Logger
	handler   *JournalHandler
	health    *observability.HealthRegistry
	authToken string
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// AuthToken, when set, is required as a bearer token on /api routes.
	AuthToken string
	Health    *observability.HealthRegistry
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         "0.0.0.0:8080",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewServer creates a new API server.
func NewServer(cfg ServerConfig, handler *JournalHandler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	s := &Server{
		mux:       mux,
		logger:    logger,
		handler:   handler,
		health:    cfg.Health,
		authToken: cfg.AuthToken,
	}

	// Register routes
	s.registerRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// registerRoutes sets up the API routes.
func (s *Server) registerRoutes() {
	// Health check
	s.mux.HandleFunc("GET /health", s.handleHealth)

	// Classification API v1
	s.mux.HandleFunc("POST /api/v1/classify", s.handler.Classify)
	s.mux.HandleFunc("GET /api/v1/helplines", s.handler.ListHelplines)
	s.mux.HandleFunc("GET /api/v1/helplines/{country}", s.handler.GetHelpline)

	// Journal
	s.mux.HandleFunc("GET /api/v1/entries", s.handler.ListEntries)
	s.mux.HandleFunc("POST /api/v1/entries", s.handler.CreateEntry)
	s.mux.HandleFunc("GET /api/v1/entries/{entryID}", s.handler.GetEntry)
	s.mux.HandleFunc("DELETE /api/v1/entries/{entryID}", s.handler.DeleteEntry)
	s.mux.HandleFunc("GET /api/v1/trend", s.handler.GetTrend)
	s.mux.HandleFunc("POST /api/v1/reclassify", s.handler.Reclassify)
}

// Handler returns the routed handler with logging and auth applied.
func (s *Server) Handler() http.Handler {
	return s.withLogging(s.withAuth(s.mux))
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	report := s.health.Check(r.Context())
	status := http.StatusOK
	if report.Status == observability.HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

func (s *Server) withAuth(next http.Handler) http.Handler {
	if s.authToken == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			next.ServeHTTP(w, r)
			return
		}
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
			writeError(w, http.StatusUnauthorized, "Missing or invalid bearer token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withLogging tags each request with a correlation ID. Request bodies are never logged.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := observability.WithCorrelationID(r.Context(), r.Header.Get("X-Correlation-ID"))
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))
		s.logger.InfoContext(ctx, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Start starts the API server.
func (s *Server) Start() error {
	s.logger.Info("starting moodlens API server",
		"addr", s.server.Addr,
	)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down moodlens API server")
	return s.server.Shutdown(ctx)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Log error but can't do much at this point
			slog.Error("failed to encode JSON response", "error", err)
		}
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error":   http.StatusText(status),
		"message": message,
	})
}
