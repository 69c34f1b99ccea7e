package tle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// DefaultSourceURL is the CelesTrak active-satellite catalog.
const DefaultSourceURL = "https://celestrak.org/NORAD/elements/gp.php?GROUP=active&FORMAT=tle"

// maxFetchBytes caps a catalog response. The full active catalog is about
// 2 MB; anything near this limit is a broken or hostile endpoint.
const maxFetchBytes = 50 << 20

// ErrNotModified reports that the source returned 304 for a conditional
// fetch, meaning the previously fetched catalog is still current.
var ErrNotModified = errors.New("catalog not modified since last fetch")

// Fetcher retrieves raw catalog data over HTTP. Extra URLs supplement the
// primary source (for example a single-satellite query for a tracking
// target); their failures are logged but never fail the fetch.
type Fetcher struct {
	sourceURL string
	extraURLs []string
	client    *http.Client
	logger    *slog.Logger

	mu           sync.Mutex
	lastModified string
}

// NewFetcher builds a Fetcher for the primary source URL plus any extras.
// An empty sourceURL selects the CelesTrak active catalog.
func NewFetcher(sourceURL string, logger *slog.Logger, extraURLs ...string) *Fetcher {
	if sourceURL == "" {
		sourceURL = DefaultSourceURL
	}
	return &Fetcher{
		sourceURL: sourceURL,
		extraURLs: extraURLs,
		client:    &http.Client{Timeout: 30 * time.Second},
		logger:    logger,
	}
}

// SourceURL returns the primary source URL.
func (f *Fetcher) SourceURL() string {
	return f.sourceURL
}

// Fetch retrieves the primary catalog and appends any extra sources.
// The primary request is conditional on the previous Last-Modified value;
// a 304 response yields ErrNotModified.
func (f *Fetcher) Fetch(ctx context.Context) ([]byte, error) {
	f.mu.Lock()
	since := f.lastModified
	f.mu.Unlock()

	data, lastModified, err := f.get(ctx, f.sourceURL, since)
	if err != nil {
		return nil, err
	}
	if lastModified != "" {
		f.mu.Lock()
		f.lastModified = lastModified
		f.mu.Unlock()
	}

	for _, url := range f.extraURLs {
		extra, _, err := f.get(ctx, url, "")
		if err != nil {
			f.logger.Warn("extra catalog source failed", "url", url, "error", err)
			continue
		}
		if len(data) > 0 && data[len(data)-1] != '\n' {
			data = append(data, '\n')
		}
		data = append(data, extra...)
	}

	return data, nil
}

// get performs one GET. A non-empty ifModifiedSince makes it conditional.
func (f *Fetcher) get(ctx context.Context, url, ifModifiedSince string) (data []byte, lastModified string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}
	if ifModifiedSince != "" {
		req.Header.Set("If-Modified-Since", ifModifiedSince)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetching catalog: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		return nil, "", ErrNotModified
	case resp.StatusCode != http.StatusOK:
		return nil, "", fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	data, err = io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("reading catalog body: %w", err)
	}
	if len(data) > maxFetchBytes {
		return nil, "", fmt.Errorf("response from %s exceeds %d byte limit", url, maxFetchBytes)
	}

	return data, resp.Header.Get("Last-Modified"), nil
}
