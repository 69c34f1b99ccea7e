// Package api serves the analysis engine over HTTP: a JSON analyze endpoint
// backed by the in-memory TLE store, catalog lookups, and the usual probe and
// metrics routes.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/NSF-Swift/satellite-overhead/internal/auth"
	"github.com/NSF-Swift/satellite-overhead/internal/ephemeris"
	"github.com/NSF-Swift/satellite-overhead/internal/health"
	"github.com/NSF-Swift/satellite-overhead/internal/httputil"
	"github.com/NSF-Swift/satellite-overhead/internal/metrics"
	"github.com/NSF-Swift/satellite-overhead/internal/tle"
)

// Defaults for the analyze endpoint's resource fences.
const (
	DefaultMaxAnalyzeBytes  = 1 << 20
	DefaultAnalyzeTimeout   = 2 * time.Minute
	DefaultMaxAnalysesPerIP = 2
	DefaultMaxAnalysesTotal = 8
)

// Config carries the server's listen address and request-handling knobs.
// Zero values fall back to the defaults above.
type Config struct {
	Addr       string
	Auth       auth.Config
	TrustProxy bool
	EngineKind ephemeris.Kind

	MaxAnalyzeBytes  int64
	AnalyzeTimeout   time.Duration
	MaxAnalysesPerIP int
	MaxAnalysesTotal int
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	store      *tle.Store
	limiter    *analysisLimiter
	cfg        Config
}

// NewServer creates a configured HTTP server around the given catalog store.
func NewServer(cfg Config, store *tle.Store, logger *slog.Logger) *Server {
	if cfg.MaxAnalyzeBytes <= 0 {
		cfg.MaxAnalyzeBytes = DefaultMaxAnalyzeBytes
	}
	if cfg.AnalyzeTimeout <= 0 {
		cfg.AnalyzeTimeout = DefaultAnalyzeTimeout
	}
	if cfg.MaxAnalysesPerIP <= 0 {
		cfg.MaxAnalysesPerIP = DefaultMaxAnalysesPerIP
	}
	if cfg.MaxAnalysesTotal <= 0 {
		cfg.MaxAnalysesTotal = DefaultMaxAnalysesTotal
	}

	s := &Server{
		logger:  logger,
		store:   store,
		limiter: newAnalysisLimiter(cfg.MaxAnalysesPerIP, cfg.MaxAnalysesTotal),
		cfg:     cfg,
	}

	mux := http.NewServeMux()

	// Register routes.
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz(s.catalogReady))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("POST /api/v1/analyze", s.handleAnalyze)
	mux.HandleFunc("GET /api/v1/satellites", s.handleSatelliteList)
	mux.HandleFunc("GET /api/v1/satellites/{norad_id}", s.handleSatelliteByID)

	// Build middleware chain: metrics -> logging -> auth -> mux.
	var handler http.Handler = mux
	handler = auth.Middleware(cfg.Auth)(handler)
	handler = loggingMiddleware(logger, cfg.TrustProxy)(handler)
	handler = metrics.Middleware(handler)

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// catalogReady reports whether a catalog has been published. Analyze requests
// with inline satellites work without one, but a daemon that cannot serve the
// common case is not ready.
func (s *Server) catalogReady() error {
	if s.store.Current().Len() == 0 {
		return fmt.Errorf("no TLE catalog loaded")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// probePath returns true for health/readiness probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(logger *slog.Logger, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			duration := time.Since(start)
			level := slog.LevelInfo
			if probePath(r.URL.Path) {
				level = slog.LevelDebug
			}

			logger.Log(r.Context(), level, "request",
				"component", "api",
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"duration_ms", duration.Milliseconds(),
				"remote_ip", httputil.ClientIP(r, trustProxy),
			)
		})
	}
}
