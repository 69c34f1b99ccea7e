// Command sopp runs satellite visibility and interference analysis for one
// observation, driven by a configuration file. The companion subcommand
// "sopp fetch" downloads a TLE catalog for offline use.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/NSF-Swift/satellite-overhead/internal/config"
	"github.com/NSF-Swift/satellite-overhead/internal/filter"
	"github.com/NSF-Swift/satellite-overhead/internal/metrics"
	"github.com/NSF-Swift/satellite-overhead/internal/model"
	"github.com/NSF-Swift/satellite-overhead/internal/runner"
	"github.com/NSF-Swift/satellite-overhead/internal/tle"
)

func main() {
	args := os.Args[1:]
	if len(args) > 0 && args[0] == "fetch" {
		os.Exit(runFetch(args[1:]))
	}
	os.Exit(run(args))
}

// multiFlag collects a repeatable string flag.
type multiFlag []string

func (m *multiFlag) String() string { return strings.Join(*m, ",") }

func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}

func run(args []string) int {
	fs := flag.NewFlagSet("sopp", flag.ExitOnError)
	configPath := fs.String("config", "", "path to the configuration file (required)")
	tlePath := fs.String("tle", "", "path to the TLE catalog, downloaded when missing (default from config, else satellites.tle)")
	freqPath := fs.String("freq", "", "path to a CSV of transmitter frequencies (default from config)")
	mode := fs.String("mode", "all", "analysis mode: all, horizon, interference, or power")
	format := fs.String("format", "table", "output format: table, json, or csv")
	limit := fs.Int("limit", 0, "limit the number of table rows displayed (0 = no limit)")
	localTime := fs.Bool("local", false, "display table times in the local timezone instead of UTC")
	startStr := fs.String("start", "", "override window start (RFC 3339; zone-less times are read as UTC)")
	endStr := fs.String("end", "", "override window end (RFC 3339; zone-less times are read as UTC)")
	durationMin := fs.Float64("duration", 0, "override window duration in minutes, measured from the start")
	search := fs.String("search", "", "keep only satellites whose name contains this substring")
	var excludes multiFlag
	fs.Var(&excludes, "exclude", "drop satellites whose name contains this substring (repeatable)")
	orbit := fs.String("orbit", "", "keep only one orbit regime: leo, meo, or geo")
	minAlt := fs.Float64("min-alt", -1, "override the minimum altitude in degrees (negative = use config)")
	metricsAddr := fs.String("metrics-addr", "", "expose Prometheus metrics on this address during the run")
	fs.Parse(args)

	logger := newLogger()

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "sopp: -config is required")
		fs.Usage()
		return 2
	}
	switch *format {
	case "table", "json", "csv":
	default:
		fmt.Fprintf(os.Stderr, "sopp: unknown format %q: want table, json, or csv\n", *format)
		return 2
	}
	switch *orbit {
	case "", "leo", "meo", "geo":
	default:
		fmt.Fprintf(os.Stderr, "sopp: unknown orbit regime %q: want leo, meo, or geo\n", *orbit)
		return 2
	}
	runHorizon := *mode == "all" || *mode == "horizon"
	runBeam := *mode == "all" || *mode == "interference"
	runPower := *mode == "power"
	if !runHorizon && !runBeam && !runPower {
		fmt.Fprintf(os.Stderr, "sopp: unknown mode %q: want all, horizon, interference, or power\n", *mode)
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sopp: %v\n", err)
		return 1
	}

	if err := applyTimeOverrides(&cfg, *startStr, *endStr, *durationMin); err != nil {
		fmt.Fprintf(os.Stderr, "sopp: %v\n", err)
		return 1
	}
	if *minAlt >= 0 {
		cfg.Runtime.MinAltitudeDeg = *minAlt
	}

	sats, err := loadSatellites(cfg, *tlePath, *freqPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sopp: %v\n", err)
		return 1
	}

	// Filters run in a fixed order: band overlap first, then the
	// name and orbit narrowing flags.
	preds := []filter.Predicate{filter.FrequencyOverlap(cfg.Reservation.Frequency)}
	if *search != "" {
		preds = append(preds, filter.NameContains(*search))
	}
	for _, ex := range excludes {
		preds = append(preds, filter.NameNotContains(ex))
	}
	if *orbit != "" {
		preds = append(preds, filter.OrbitIs(*orbit))
	}
	sats = filter.Apply(sats, preds...)

	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", metrics.Handler())
		go func() {
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics listener failed", "error", err)
			}
		}()
	}

	engine, err := runner.New(runner.Config{
		Reservation: cfg.Reservation,
		Satellites:  sats,
		Pointing:    cfg.Pointing,
		Runtime:     cfg.Runtime,
		Strategy:    cfg.Strategy,
		Logger:      logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "sopp: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *format == "table" {
		printSummary(os.Stdout, cfg.Reservation, len(sats))
	}

	rep := report{
		RanHorizon: runHorizon,
		RanBeam:    runBeam,
		RanPower:   runPower,
		Limit:      *limit,
		LocalTime:  *localTime,
	}
	t0 := time.Now()
	if runHorizon {
		if rep.Horizon, err = engine.SatellitesAboveHorizon(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "sopp: %v\n", err)
			return 1
		}
	}
	if runBeam {
		if rep.Crossings, err = engine.SatellitesCrossingMainBeam(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "sopp: %v\n", err)
			return 1
		}
	}
	if runPower {
		if rep.Powers, err = engine.InterferencePowers(ctx, cfg.StrategyName); err != nil {
			fmt.Fprintf(os.Stderr, "sopp: %v\n", err)
			return 1
		}
	}
	rep.Elapsed = time.Since(t0)

	switch *format {
	case "json":
		err = writeJSONReport(os.Stdout, rep)
	case "csv":
		err = writeCSVReport(os.Stdout, rep)
	default:
		writeTables(os.Stdout, rep)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "sopp: writing output: %v\n", err)
		return 1
	}
	return 0
}

// applyTimeOverrides rewrites the reservation window from the -start, -end,
// and -duration flags. Duration is measured from the effective start, so
// -duration alone shifts only the end.
func applyTimeOverrides(cfg *config.Configuration, startStr, endStr string, durationMin float64) error {
	if startStr == "" && endStr == "" && durationMin <= 0 {
		return nil
	}
	window := cfg.Reservation.Window
	if startStr != "" {
		t, err := config.ParseTimeUTC(startStr)
		if err != nil {
			return fmt.Errorf("invalid -start: %w", err)
		}
		window.Begin = t
	}
	if endStr != "" {
		t, err := config.ParseTimeUTC(endStr)
		if err != nil {
			return fmt.Errorf("invalid -end: %w", err)
		}
		window.End = t
	}
	if durationMin > 0 {
		window.End = window.Begin.Add(time.Duration(durationMin * float64(time.Minute)))
	}
	cfg.Reservation.Window = window
	return nil
}

// loadSatellites resolves the TLE path, downloads the catalog when the file
// is missing, and attaches transmitter frequencies when a CSV is configured.
func loadSatellites(cfg config.Configuration, tleFlag, freqFlag string, logger *slog.Logger) ([]model.Satellite, error) {
	path := tleFlag
	if path == "" {
		path = cfg.TLEFile
	}
	if path == "" {
		path = "satellites.tle"
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logger.Info("TLE file not found, downloading", "path", path, "url", tle.DefaultSourceURL)
		if err := downloadCatalog(path, tle.DefaultSourceURL, logger); err != nil {
			return nil, fmt.Errorf("downloading TLEs: %w", err)
		}
	}

	sats, err := tle.LoadFile(path, logger)
	if err != nil {
		return nil, err
	}

	freqPath := freqFlag
	if freqPath == "" {
		freqPath = cfg.FrequencyFile
	}
	if freqPath != "" {
		byID, err := tle.LoadFrequencyCSV(freqPath)
		if err != nil {
			return nil, err
		}
		sats = tle.AttachFrequencies(sats, byID)
	}
	return sats, nil
}

func runFetch(args []string) int {
	fs := flag.NewFlagSet("sopp fetch", flag.ExitOnError)
	out := fs.String("out", "satellites.tle", "path to write the catalog")
	url := fs.String("url", tle.DefaultSourceURL, "catalog URL")
	fs.Parse(args)

	if err := downloadCatalog(*out, *url, newLogger()); err != nil {
		fmt.Fprintf(os.Stderr, "sopp: %v\n", err)
		return 1
	}
	fmt.Printf("saved TLEs to %s\n", *out)
	return 0
}

func downloadCatalog(path, url string, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	data, err := tle.NewFetcher(url, logger).Fetch(ctx)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevelFromEnv(),
	}))
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
