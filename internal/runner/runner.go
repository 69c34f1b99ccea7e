// Package runner wires a reservation, a satellite list, and a pointing plan
// into the analysis operations: satellites above the horizon, satellites
// crossing the antenna's main beam, and received interference power.
//
// A Runner builds the master time grid, the ephemeris engine, and the
// antenna trajectory each exactly once and reuses them for every satellite.
// When concurrency is enabled, the satellite list is split into contiguous
// chunks and each chunk worker rebuilds that state from plain task data
// instead of sharing the Runner's cached instances.
package runner

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/NSF-Swift/satellite-overhead/internal/ephemeris"
	"github.com/NSF-Swift/satellite-overhead/internal/grid"
	"github.com/NSF-Swift/satellite-overhead/internal/metrics"
	"github.com/NSF-Swift/satellite-overhead/internal/model"
	"github.com/NSF-Swift/satellite-overhead/internal/pointing"
	"github.com/NSF-Swift/satellite-overhead/internal/strategy"
)

// Config assembles everything a run needs. Reservation and Runtime are
// validated once at construction; strategy-specific requirements (peak gain,
// antenna pattern, pointing) are checked at the point of use.
type Config struct {
	Reservation model.Reservation
	Satellites  []model.Satellite
	Pointing    pointing.Spec
	Runtime     model.RuntimeSettings
	EngineKind  ephemeris.Kind
	Strategy    strategy.Options
	Logger      *slog.Logger
}

// Runner executes analysis operations for one reservation.
type Runner struct {
	cfg    Config
	logger *slog.Logger

	gridOnce sync.Once
	grid     []time.Time

	engineOnce sync.Once
	engine     ephemeris.Engine
	engineErr  error

	antennaOnce sync.Once
	antenna     model.AntennaTrajectory
	antennaErr  error
}

// New validates the configuration and returns a Runner. A zero Runtime is
// replaced with the defaults.
func New(cfg Config) (*Runner, error) {
	if cfg.Runtime == (model.RuntimeSettings{}) {
		cfg.Runtime = model.DefaultRuntimeSettings()
	}
	if err := cfg.Runtime.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Reservation.Validate(); err != nil {
		return nil, err
	}
	if cfg.EngineKind == "" {
		cfg.EngineKind = ephemeris.KindSGP4
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{cfg: cfg, logger: logger}, nil
}

// masterGrid returns the run's shared time grid, generating it on first use.
func (r *Runner) masterGrid() []time.Time {
	r.gridOnce.Do(func() {
		w := r.cfg.Reservation.Window
		r.grid = grid.Generate(w.Begin, w.End, r.cfg.Runtime.TimeResolution)
	})
	return r.grid
}

// ephemerisEngine returns the run's shared engine, building it on first use.
func (r *Runner) ephemerisEngine() (ephemeris.Engine, error) {
	r.engineOnce.Do(func() {
		r.engine, r.engineErr = ephemeris.New(r.cfg.EngineKind, r.masterGrid(), r.cfg.Reservation.Facility, r.logger)
	})
	return r.engine, r.engineErr
}

// antennaTrajectory returns the run's shared antenna trajectory, building it
// on first use.
func (r *Runner) antennaTrajectory() (model.AntennaTrajectory, error) {
	r.antennaOnce.Do(func() {
		if r.cfg.Pointing == nil {
			r.antennaErr = model.ConfigErrorf("no antenna pointing configured")
			return
		}
		r.antenna, r.antennaErr = pointing.Build(r.cfg.Pointing, r.cfg.Reservation.Facility, r.masterGrid())
	})
	return r.antenna, r.antennaErr
}

// SatellitesAboveHorizon computes the visibility trajectories of every
// satellite over the reservation window, concatenated across satellites.
// Satellites that never rise contribute nothing. In the parallel path the
// order across chunks is not guaranteed.
func (r *Runner) SatellitesAboveHorizon(ctx context.Context) ([]model.SatelliteTrajectory, error) {
	start := time.Now()

	var (
		trajs []model.SatelliteTrajectory
		err   error
	)
	if r.cfg.Runtime.Concurrency <= 1 {
		trajs, err = r.aboveHorizonSerial(ctx)
	} else {
		trajs, err = runChunks(ctx, r.chunks(), func(ctx context.Context, sats []model.Satellite) ([]model.SatelliteTrajectory, error) {
			return aboveHorizonChunk(ctx, r.task(sats), r.logger)
		})
	}
	if err != nil {
		return nil, err
	}

	metrics.RecordAnalysis("above_horizon", time.Since(start))
	r.logger.Info("above-horizon analysis complete",
		"satellites", len(r.cfg.Satellites),
		"trajectories", len(trajs),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return trajs, nil
}

func (r *Runner) aboveHorizonSerial(ctx context.Context) ([]model.SatelliteTrajectory, error) {
	eng, err := r.ephemerisEngine()
	if err != nil {
		return nil, err
	}
	return satelliteTrajectories(ctx, eng, r.cfg.Satellites, r.cfg.Runtime.MinAltitudeDeg, r.cfg.Reservation.Window)
}

// SatellitesCrossingMainBeam computes above-horizon trajectories and keeps,
// per trajectory, only the points inside the antenna's main beam. Satellites
// that never cross the beam are omitted. In the parallel path the antenna
// trajectory is built once here and carried to the chunk workers as plain
// data.
func (r *Runner) SatellitesCrossingMainBeam(ctx context.Context) ([]model.InterferenceResult, error) {
	start := time.Now()

	ant, err := r.antennaTrajectory()
	if err != nil {
		return nil, err
	}

	var results []model.InterferenceResult
	if r.cfg.Runtime.Concurrency <= 1 {
		trajs, err := r.aboveHorizonSerial(ctx)
		if err != nil {
			return nil, err
		}
		results, err = applyGeometric(trajs, ant, r.cfg.Reservation)
		if err != nil {
			return nil, err
		}
	} else {
		results, err = runChunks(ctx, r.chunks(), func(ctx context.Context, sats []model.Satellite) ([]model.InterferenceResult, error) {
			return beamCrossingChunk(ctx, r.task(sats), ant, r.logger)
		})
		if err != nil {
			return nil, err
		}
	}

	metrics.RecordAnalysis("main_beam", time.Since(start))
	r.logger.Info("main-beam analysis complete",
		"satellites", len(r.cfg.Satellites),
		"crossings", len(results),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return results, nil
}

// InterferencePowers scores every above-horizon trajectory with the named
// link-budget strategy. Satellites without transmitter data (and no default
// EIRP) are skipped; missing facility inputs for the chosen strategy are
// configuration errors.
func (r *Runner) InterferencePowers(ctx context.Context, strategyName string) ([]model.InterferenceResult, error) {
	start := time.Now()

	s, err := strategy.ForName(strategyName, r.cfg.Strategy)
	if err != nil {
		return nil, err
	}

	// Only the pattern budget consults the antenna's pointing.
	var ant model.AntennaTrajectory
	if strategyName == strategy.NamePatternLinkBudget {
		ant, err = r.antennaTrajectory()
		if err != nil {
			return nil, err
		}
	}

	trajs, err := r.SatellitesAboveHorizon(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]model.InterferenceResult, 0, len(trajs))
	skipped := 0
	for _, traj := range trajs {
		res, err := s.Calculate(traj, ant, r.cfg.Reservation.Facility, r.cfg.Reservation.Frequency)
		if err != nil {
			return nil, err
		}
		if res == nil {
			skipped++
			continue
		}
		results = append(results, *res)
	}

	metrics.RecordAnalysis("interference_power", time.Since(start))
	r.logger.Info("interference power analysis complete",
		"strategy", strategyName,
		"results", len(results),
		"skipped", skipped,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return results, nil
}

// satelliteTrajectories runs the visibility-then-trajectories pipeline for
// each satellite on the given engine and concatenates the results.
func satelliteTrajectories(ctx context.Context, eng ephemeris.Engine, sats []model.Satellite, minAltitudeDeg float64, w model.TimeWindow) ([]model.SatelliteTrajectory, error) {
	var out []model.SatelliteTrajectory
	for _, sat := range sats {
		windows, err := eng.VisibilityWindows(ctx, sat, minAltitudeDeg, w.Begin, w.End)
		if err != nil {
			return nil, err
		}
		trajs, err := eng.Trajectories(ctx, sat, windows)
		if err != nil {
			return nil, err
		}
		out = append(out, trajs...)
	}
	return out, nil
}

// applyGeometric masks each trajectory against the main beam, dropping
// satellites that never cross it.
func applyGeometric(trajs []model.SatelliteTrajectory, ant model.AntennaTrajectory, res model.Reservation) ([]model.InterferenceResult, error) {
	geo := strategy.Geometric{}
	var out []model.InterferenceResult
	for _, traj := range trajs {
		r, err := geo.Calculate(traj, ant, res.Facility, res.Frequency)
		if err != nil {
			return nil, err
		}
		if r == nil {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}
