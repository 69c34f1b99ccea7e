package api

import (
	"sync"
)

// analysisLimiter tracks in-flight analyze requests per IP and globally.
// Analysis is CPU-bound for the whole request, so the cap is on concurrency
// rather than request rate.
type analysisLimiter struct {
	mu       sync.Mutex
	active   map[string]int
	total    int
	maxPerIP int
	maxTotal int
}

func newAnalysisLimiter(maxPerIP, maxTotal int) *analysisLimiter {
	return &analysisLimiter{
		active:   make(map[string]int),
		maxPerIP: maxPerIP,
		maxTotal: maxTotal,
	}
}

// acquire attempts to register a new analysis for the given IP.
// Returns false if the IP or global limit has been reached.
func (l *analysisLimiter) acquire(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.total >= l.maxTotal {
		return false
	}
	if l.active[ip] >= l.maxPerIP {
		return false
	}

	l.active[ip]++
	l.total++
	return true
}

// release decrements the in-flight count for the given IP.
func (l *analysisLimiter) release(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.active[ip]--
	l.total--
	if l.active[ip] <= 0 {
		delete(l.active, ip)
	}
}

// count returns the number of in-flight analyses for the given IP.
func (l *analysisLimiter) count(ip string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active[ip]
}
