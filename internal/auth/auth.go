// Package auth enforces bearer-token authentication on the API surface.
// With no token configured the service runs open, which is the expected
// mode for a workstation or an internal deployment.
package auth

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

// Config holds authentication settings.
type Config struct {
	Enabled bool
	Token   string
}

// publicPaths never require a token: probes, metrics scrapes, and the
// catalog listing (the catalog is republished public orbital data).
var publicPaths = map[string]bool{
	"/healthz": true,
	"/readyz":  true,
	"/metrics": true,
}

// publicPrefixes extend publicPaths to parameterized routes.
var publicPrefixes = []string{
	"/api/v1/satellites",
}

func isPublic(path string) bool {
	if publicPaths[path] {
		return true
	}
	for _, prefix := range publicPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

// Middleware returns a handler wrapper that requires a Bearer token on
// non-public paths when auth is enabled.
func Middleware(cfg Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled || isPublic(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			if !tokenMatches(r.Header.Get("Authorization"), cfg.Token) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// tokenMatches checks an Authorization header against the configured token
// in constant time.
func tokenMatches(header, want string) bool {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(want)) == 1
}
