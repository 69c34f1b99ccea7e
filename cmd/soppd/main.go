// Command soppd serves the analysis HTTP API. It keeps a TLE catalog warm in
// memory, refreshing it from CelesTrak on an interval and caching each fetch
// on disk so a restart can serve requests before the first refresh completes.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/NSF-Swift/satellite-overhead/internal/api"
	"github.com/NSF-Swift/satellite-overhead/internal/auth"
	"github.com/NSF-Swift/satellite-overhead/internal/metrics"
	"github.com/NSF-Swift/satellite-overhead/internal/tle"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevelFromEnv(),
	}))

	authCfg, err := loadAuthConfig(logger)
	if err != nil {
		logger.Error("invalid auth configuration", "error", err)
		os.Exit(1)
	}

	refreshCfg := loadRefreshConfig(logger)
	apiCfg := loadServerConfig(logger, authCfg)

	store := tle.NewStore()
	tleCache := tle.NewCache(refreshCfg.CacheDir, refreshCfg.MaxFiles)

	// Attempt to load a cached catalog on startup.
	data, ts, err := tleCache.LoadLatest()
	if err != nil {
		logger.Info("no cached TLE catalog, starting empty", "error", err)
	} else {
		records, err := tle.Parse(bytes.NewReader(data), logger)
		if err != nil {
			logger.Warn("failed to parse cached TLE catalog", "error", err)
		} else if len(records) > 0 {
			store.Replace(&tle.Catalog{Source: "cache", FetchedAt: ts, Records: records})
			metrics.SetCatalogSize(len(records))
			logger.Info("loaded TLE catalog from cache", "count", len(records), "cached_at", ts.Format(time.RFC3339))
		}
	}

	srv := api.NewServer(apiCfg, store, logger)

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if refreshCfg.Enabled {
		go refreshLoop(ctx, refreshCfg, store, tleCache, logger)
	}

	// Background goroutine to update the catalog age gauge.
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.SetCatalogAge(store.AgeSeconds())
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		logger.Info("starting server", "addr", apiCfg.Addr, "auth_enabled", authCfg.Enabled, "tle_refresh_enabled", refreshCfg.Enabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// refreshConfig controls the background catalog refresh.
type refreshConfig struct {
	Enabled   bool
	SourceURL string
	ExtraURLs []string
	CacheDir  string
	MaxFiles  int
	Interval  time.Duration
}

// refreshLoop fetches the catalog on an interval and publishes each new
// version to the store. When the store starts empty it refreshes immediately
// instead of waiting out the first tick.
func refreshLoop(ctx context.Context, cfg refreshConfig, store *tle.Store, cache *tle.Cache, logger *slog.Logger) {
	fetcher := tle.NewFetcher(cfg.SourceURL, logger, cfg.ExtraURLs...)

	if store.Current().Len() == 0 {
		if err := refreshCatalog(ctx, fetcher, store, cache, logger); err != nil {
			logger.Warn("initial catalog fetch failed", "error", err)
		}
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := refreshCatalog(ctx, fetcher, store, cache, logger); err != nil {
				logger.Warn("catalog refresh failed", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// refreshCatalog performs one fetch-parse-publish cycle. A 304 from the
// source and a fetch that parses to zero records both leave the current
// catalog in place.
func refreshCatalog(ctx context.Context, fetcher *tle.Fetcher, store *tle.Store, cache *tle.Cache, logger *slog.Logger) error {
	data, err := fetcher.Fetch(ctx)
	if errors.Is(err, tle.ErrNotModified) {
		metrics.RecordCatalogRefresh("not_modified")
		logger.Debug("catalog unchanged since last fetch")
		return nil
	}
	if err != nil {
		metrics.RecordCatalogRefresh("error")
		return err
	}

	records, err := tle.Parse(bytes.NewReader(data), logger)
	if err != nil {
		metrics.RecordCatalogRefresh("error")
		return fmt.Errorf("parsing fetched catalog: %w", err)
	}
	if len(records) == 0 {
		metrics.RecordCatalogRefresh("error")
		return fmt.Errorf("fetched catalog from %s contains no records", fetcher.SourceURL())
	}

	fetchedAt := time.Now().UTC()
	store.Replace(&tle.Catalog{Source: fetcher.SourceURL(), FetchedAt: fetchedAt, Records: records})
	metrics.SetCatalogSize(len(records))
	metrics.RecordCatalogRefresh("success")

	if err := cache.Write(data, fetchedAt); err != nil {
		logger.Warn("failed to cache fetched catalog", "error", err)
	}

	logger.Info("TLE catalog refreshed", "source", fetcher.SourceURL(), "count", len(records))
	return nil
}

func loadAuthConfig(logger *slog.Logger) (auth.Config, error) {
	cfg := auth.Config{}

	enabledStr := os.Getenv("SOPP_AUTH_ENABLED")
	if enabledStr != "" {
		enabled, err := strconv.ParseBool(enabledStr)
		if err != nil {
			return cfg, errors.New("SOPP_AUTH_ENABLED must be a boolean value (true/false/1/0)")
		}
		cfg.Enabled = enabled
	}

	if cfg.Enabled {
		cfg.Token = os.Getenv("SOPP_AUTH_TOKEN")
		if cfg.Token == "" {
			return cfg, errors.New("SOPP_AUTH_TOKEN is required when auth is enabled")
		}
		logger.Info("auth enabled")
	}

	return cfg, nil
}

func loadRefreshConfig(logger *slog.Logger) refreshConfig {
	cfg := refreshConfig{
		Enabled:  true,
		CacheDir: "/tmp/sopp/tle",
		MaxFiles: 5,
		Interval: 6 * time.Hour,
	}

	if v := os.Getenv("SOPP_TLE_FETCH_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid SOPP_TLE_FETCH_ENABLED value, defaulting to true", "value", v)
		} else {
			cfg.Enabled = enabled
		}
	}

	if v := os.Getenv("SOPP_TLE_SOURCE_URL"); v != "" {
		cfg.SourceURL = v
	}

	if v := os.Getenv("SOPP_TLE_EXTRA_URLS"); v != "" {
		var urls []string
		for _, u := range strings.Split(v, ",") {
			u = strings.TrimSpace(u)
			if u != "" {
				urls = append(urls, u)
			}
		}
		cfg.ExtraURLs = urls
	}

	if v := os.Getenv("SOPP_TLE_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}

	if v := os.Getenv("SOPP_TLE_CACHE_FILES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid SOPP_TLE_CACHE_FILES value, using default", "value", v, "default", cfg.MaxFiles)
		} else {
			cfg.MaxFiles = n
		}
	}

	if v := os.Getenv("SOPP_TLE_REFRESH_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid SOPP_TLE_REFRESH_SECONDS value, using default", "value", v, "default", int(cfg.Interval.Seconds()))
		} else {
			cfg.Interval = time.Duration(n) * time.Second
		}
	}

	logger.Info("TLE refresh config",
		"enabled", cfg.Enabled,
		"source_url", cfg.SourceURL,
		"extra_urls", cfg.ExtraURLs,
		"cache_dir", cfg.CacheDir,
		"interval_seconds", cfg.Interval.Seconds(),
	)

	return cfg
}

func loadServerConfig(logger *slog.Logger, authCfg auth.Config) api.Config {
	cfg := api.Config{
		Addr: ":8080",
		Auth: authCfg,
	}

	if v := os.Getenv("SOPP_HTTP_ADDR"); v != "" {
		cfg.Addr = v
	}

	if v := os.Getenv("SOPP_TRUST_PROXY"); v != "" {
		trusted, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid SOPP_TRUST_PROXY value, defaulting to false", "value", v)
		} else {
			cfg.TrustProxy = trusted
		}
	}

	if v := os.Getenv("SOPP_MAX_ANALYZE_BYTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid SOPP_MAX_ANALYZE_BYTES value, using default", "value", v, "default", api.DefaultMaxAnalyzeBytes)
		} else {
			cfg.MaxAnalyzeBytes = int64(n)
		}
	}

	if v := os.Getenv("SOPP_ANALYZE_TIMEOUT_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid SOPP_ANALYZE_TIMEOUT_SECONDS value, using default", "value", v, "default", int(api.DefaultAnalyzeTimeout.Seconds()))
		} else {
			cfg.AnalyzeTimeout = time.Duration(n) * time.Second
		}
	}

	if v := os.Getenv("SOPP_MAX_ANALYSES_PER_IP"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid SOPP_MAX_ANALYSES_PER_IP value, using default", "value", v, "default", api.DefaultMaxAnalysesPerIP)
		} else {
			cfg.MaxAnalysesPerIP = n
		}
	}

	if v := os.Getenv("SOPP_MAX_ANALYSES_TOTAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid SOPP_MAX_ANALYSES_TOTAL value, using default", "value", v, "default", api.DefaultMaxAnalysesTotal)
		} else {
			cfg.MaxAnalysesTotal = n
		}
	}

	logger.Info("server config",
		"addr", cfg.Addr,
		"trust_proxy", cfg.TrustProxy,
	)

	return cfg
}

func logLevelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("SOPP_LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
