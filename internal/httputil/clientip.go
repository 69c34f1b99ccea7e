// Package httputil holds small helpers shared by the HTTP surface.
package httputil

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the address a request originated from, used for request
// logging and per-client rate limiting. With trustProxy set, the leftmost
// valid X-Forwarded-For entry wins, then X-Real-IP, then the socket address.
// Enable trustProxy only behind a reverse proxy that rewrites those headers;
// otherwise any client can spoof its identity.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if ip := forwardedClient(r.Header.Get("X-Forwarded-For")); ip != "" {
			return ip
		}
		if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
			return ip.String()
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr without a port, e.g. in hand-built test requests.
		return r.RemoteAddr
	}
	return host
}

// forwardedClient extracts the original client from an X-Forwarded-For value.
// Proxies append to the right, so the leftmost entry is the client. Entries
// that do not parse as an IP are not trusted.
func forwardedClient(xff string) string {
	if xff == "" {
		return ""
	}
	first := xff
	if i := strings.IndexByte(first, ','); i >= 0 {
		first = first[:i]
	}
	ip := net.ParseIP(strings.TrimSpace(first))
	if ip == nil {
		return ""
	}
	return ip.String()
}
