package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/NSF-Swift/satellite-overhead/internal/httputil"
	"github.com/NSF-Swift/satellite-overhead/internal/model"
	"github.com/NSF-Swift/satellite-overhead/internal/pointing"
	"github.com/NSF-Swift/satellite-overhead/internal/runner"
	"github.com/NSF-Swift/satellite-overhead/internal/strategy"
	"github.com/NSF-Swift/satellite-overhead/internal/tle"
)

// Operation names accepted in an analyze request.
const (
	opAboveHorizon  = "above_horizon"
	opBeamCrossings = "beam_crossings"
	opPower         = "interference_power"
)

type analyzeRequest struct {
	Facility   model.Facility       `json:"facility"`
	Window     model.TimeWindow     `json:"window"`
	Frequency  model.FrequencyRange `json:"frequency"`
	Runtime    *runtimeParams       `json:"runtime"`
	Pointing   *pointingParams      `json:"pointing"`
	Strategy   *strategyParams      `json:"strategy"`
	Satellites []model.Satellite    `json:"satellites"`
	Operations []string             `json:"operations"`
}

type runtimeParams struct {
	TimeResolutionSeconds float64 `json:"time_resolution_seconds"`
	Concurrency           int     `json:"concurrency"`
	MinAltitudeDeg        float64 `json:"min_altitude"`
}

type pointingParams struct {
	Static    *staticParams    `json:"static"`
	Celestial *celestialParams `json:"celestial"`
	Custom    []customPoint    `json:"custom"`
}

type staticParams struct {
	AzimuthDeg  float64 `json:"azimuth"`
	AltitudeDeg float64 `json:"altitude"`
}

type celestialParams struct {
	RightAscension string `json:"right_ascension"`
	Declination    string `json:"declination"`
}

type customPoint struct {
	Time        time.Time `json:"time"`
	AzimuthDeg  float64   `json:"azimuth"`
	AltitudeDeg float64   `json:"altitude"`
}

type strategyParams struct {
	Name           string   `json:"name"`
	DefaultEIRPdBW *float64 `json:"default_eirp_dbw"`
}

// analyzeResponse reports each operation's results. A null field means the
// operation was not requested; an empty array means it ran and found nothing.
type analyzeResponse struct {
	Satellites    int                         `json:"satellites"`
	AboveHorizon  []model.SatelliteTrajectory `json:"above_horizon"`
	BeamCrossings []model.InterferenceResult  `json:"beam_crossings"`
	Powers        []model.InterferenceResult  `json:"interference_powers"`
	ElapsedMs     int64                       `json:"elapsed_ms"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ip := httputil.ClientIP(r, s.cfg.TrustProxy)
	if !s.limiter.acquire(ip) {
		writeError(w, http.StatusTooManyRequests, "too many concurrent analyses")
		return
	}
	defer s.limiter.release(ip)

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxAnalyzeBytes)
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds %d byte limit", maxErr.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	requested, err := requestedOperations(req.Operations)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cfg, err := s.runnerConfig(&req)
	if err != nil {
		writeAnalyzeError(w, err)
		return
	}
	if len(cfg.Satellites) == 0 {
		writeError(w, http.StatusServiceUnavailable, "no satellite catalog loaded and no satellites in request")
		return
	}

	run, err := runner.New(cfg)
	if err != nil {
		writeAnalyzeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.AnalyzeTimeout)
	defer cancel()

	start := time.Now()
	resp := analyzeResponse{Satellites: len(cfg.Satellites)}

	if requested[opAboveHorizon] {
		trajs, err := run.SatellitesAboveHorizon(ctx)
		if err != nil {
			writeAnalyzeError(w, err)
			return
		}
		if trajs == nil {
			trajs = []model.SatelliteTrajectory{}
		}
		resp.AboveHorizon = trajs
	}

	if requested[opBeamCrossings] {
		crossings, err := run.SatellitesCrossingMainBeam(ctx)
		if err != nil {
			writeAnalyzeError(w, err)
			return
		}
		if crossings == nil {
			crossings = []model.InterferenceResult{}
		}
		resp.BeamCrossings = crossings
	}

	if requested[opPower] {
		name := strategy.NameSimpleLinkBudget
		if req.Strategy != nil && req.Strategy.Name != "" {
			name = req.Strategy.Name
		}
		powers, err := run.InterferencePowers(ctx, name)
		if err != nil {
			writeAnalyzeError(w, err)
			return
		}
		if powers == nil {
			powers = []model.InterferenceResult{}
		}
		resp.Powers = powers
	}

	resp.ElapsedMs = time.Since(start).Milliseconds()
	writeJSON(w, http.StatusOK, resp)
}

// requestedOperations resolves the operation list, defaulting to the two
// geometry operations when the request names none.
func requestedOperations(ops []string) (map[string]bool, error) {
	if len(ops) == 0 {
		return map[string]bool{opAboveHorizon: true, opBeamCrossings: true}, nil
	}
	requested := make(map[string]bool, len(ops))
	for _, op := range ops {
		switch op {
		case opAboveHorizon, opBeamCrossings, opPower:
			requested[op] = true
		default:
			return nil, fmt.Errorf("unknown operation %q: want %s, %s, or %s",
				op, opAboveHorizon, opBeamCrossings, opPower)
		}
	}
	return requested, nil
}

// runnerConfig translates the request into a runner configuration. Inline
// satellites take precedence over the store's catalog.
func (s *Server) runnerConfig(req *analyzeRequest) (runner.Config, error) {
	fac := req.Facility
	if fac.BeamwidthDeg == 0 {
		fac.BeamwidthDeg = 3.0
	}

	rt := model.DefaultRuntimeSettings()
	if req.Runtime != nil {
		if req.Runtime.TimeResolutionSeconds != 0 {
			rt.TimeResolution = time.Duration(req.Runtime.TimeResolutionSeconds * float64(time.Second))
		}
		if req.Runtime.Concurrency != 0 {
			rt.Concurrency = req.Runtime.Concurrency
		}
		rt.MinAltitudeDeg = req.Runtime.MinAltitudeDeg
	}

	spec, err := buildPointing(req.Pointing)
	if err != nil {
		return runner.Config{}, err
	}

	sats, err := s.resolveSatellites(req.Satellites)
	if err != nil {
		return runner.Config{}, err
	}

	cfg := runner.Config{
		Reservation: model.Reservation{
			Facility:  fac,
			Window:    req.Window,
			Frequency: req.Frequency,
		},
		Satellites: sats,
		Pointing:   spec,
		Runtime:    rt,
		EngineKind: s.cfg.EngineKind,
		Logger:     s.logger,
	}
	if req.Strategy != nil {
		cfg.Strategy.DefaultEIRPdBW = req.Strategy.DefaultEIRPdBW
	}
	return cfg, nil
}

// buildPointing maps the request's pointing section onto a pointing spec.
// A nil section is allowed; operations that need pointing will then fail
// with a configuration error.
func buildPointing(p *pointingParams) (pointing.Spec, error) {
	if p == nil {
		return nil, nil
	}

	var specs []pointing.Spec
	if p.Static != nil {
		specs = append(specs, pointing.Static{
			AzimuthDeg:  p.Static.AzimuthDeg,
			AltitudeDeg: p.Static.AltitudeDeg,
		})
	}
	if p.Celestial != nil {
		spec, err := pointing.NewCelestial(p.Celestial.RightAscension, p.Celestial.Declination)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	if len(p.Custom) > 0 {
		traj := model.AntennaTrajectory{
			Times:       make([]time.Time, len(p.Custom)),
			AzimuthDeg:  make([]float64, len(p.Custom)),
			AltitudeDeg: make([]float64, len(p.Custom)),
		}
		for i, pt := range p.Custom {
			traj.Times[i] = pt.Time
			traj.AzimuthDeg[i] = pt.AzimuthDeg
			traj.AltitudeDeg[i] = pt.AltitudeDeg
		}
		if err := traj.Validate(); err != nil {
			return nil, err
		}
		specs = append(specs, pointing.Custom{Trajectory: traj})
	}

	switch len(specs) {
	case 0:
		return nil, model.ConfigErrorf("pointing section is empty: provide static, celestial, or custom")
	case 1:
		return specs[0], nil
	default:
		return nil, model.ConfigErrorf("ambiguous pointing: %d variants provided, want exactly one", len(specs))
	}
}

// resolveSatellites validates inline satellites, or falls back to the
// store's current catalog.
func (s *Server) resolveSatellites(inline []model.Satellite) ([]model.Satellite, error) {
	if len(inline) > 0 {
		out := make([]model.Satellite, len(inline))
		for i, sat := range inline {
			normalized, err := tle.NormalizeSatellite(sat)
			if err != nil {
				return nil, model.ConfigErrorf("satellite #%d: %v", i, err)
			}
			out[i] = normalized
		}
		return out, nil
	}
	return s.store.Current().Satellites(), nil
}

func writeAnalyzeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrConfiguration):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "analysis exceeded the server time budget")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
