// Package metrics exposes Prometheus instrumentation for the analysis
// pipeline and the HTTP surface.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sopp_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sopp_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	propagationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sopp_propagation_duration_seconds",
			Help:    "Duration of batched satellite propagation passes.",
			Buckets: prometheus.DefBuckets,
		},
	)

	propagationPointsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sopp_propagation_points_total",
			Help: "Total trajectory points computed by propagation passes.",
		},
	)

	physicsCacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sopp_physics_cache_hits_total",
			Help: "Scalar position lookups served from the master-grid physics cache.",
		},
	)

	physicsCacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sopp_physics_cache_misses_total",
			Help: "Scalar position lookups computed off-grid without the cache.",
		},
	)

	analysisRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sopp_analysis_runs_total",
			Help: "Completed analysis operations by type.",
		},
		[]string{"operation"},
	)

	analysisDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sopp_analysis_duration_seconds",
			Help:    "End-to-end analysis operation duration in seconds.",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"operation"},
	)

	catalogSatellites = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sopp_catalog_satellites",
			Help: "Number of satellites in the in-memory TLE catalog.",
		},
	)

	catalogAgeSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sopp_catalog_age_seconds",
			Help: "Seconds since the in-memory TLE catalog was fetched, -1 when empty.",
		},
	)

	catalogRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sopp_catalog_refresh_total",
			Help: "TLE catalog refresh attempts by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
	prometheus.MustRegister(propagationSeconds)
	prometheus.MustRegister(propagationPointsTotal)
	prometheus.MustRegister(physicsCacheHitsTotal)
	prometheus.MustRegister(physicsCacheMissesTotal)
	prometheus.MustRegister(analysisRunsTotal)
	prometheus.MustRegister(analysisDurationSeconds)
	prometheus.MustRegister(catalogSatellites)
	prometheus.MustRegister(catalogAgeSeconds)
	prometheus.MustRegister(catalogRefreshTotal)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordPropagation records one batched propagation pass.
func RecordPropagation(d time.Duration, points int) {
	propagationSeconds.Observe(d.Seconds())
	propagationPointsTotal.Add(float64(points))
}

// PhysicsCacheHit counts a scalar lookup served from the master-grid cache.
func PhysicsCacheHit() {
	physicsCacheHitsTotal.Inc()
}

// PhysicsCacheMiss counts a scalar lookup computed off-grid.
func PhysicsCacheMiss() {
	physicsCacheMissesTotal.Inc()
}

// RecordAnalysis records one completed analysis operation.
func RecordAnalysis(operation string, d time.Duration) {
	analysisRunsTotal.WithLabelValues(operation).Inc()
	analysisDurationSeconds.WithLabelValues(operation).Observe(d.Seconds())
}

// SetCatalogSize publishes the number of satellites in the live catalog.
func SetCatalogSize(n int) {
	catalogSatellites.Set(float64(n))
}

// SetCatalogAge publishes the catalog age in seconds, -1 when no catalog
// has been loaded.
func SetCatalogAge(seconds float64) {
	catalogAgeSeconds.Set(seconds)
}

// RecordCatalogRefresh counts one refresh attempt. Outcome is one of
// "success", "not_modified", or "error".
func RecordCatalogRefresh(outcome string) {
	catalogRefreshTotal.WithLabelValues(outcome).Inc()
}

// knownRoutes are the exact paths served by the API; anything else collapses
// to "other" so scanners cannot blow up label cardinality.
var knownRoutes = map[string]bool{
	"/":                  true,
	"/healthz":           true,
	"/readyz":            true,
	"/metrics":           true,
	"/api/v1/analyze":    true,
	"/api/v1/satellites": true,
}

func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	// Per-satellite lookups collapse to one label.
	if strings.HasPrefix(path, "/api/v1/satellites/") {
		return "/api/v1/satellites/{norad_id}"
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		route := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}
