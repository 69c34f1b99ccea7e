package ephemeris

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/NSF-Swift/satellite-overhead/internal/grid"
	"github.com/NSF-Swift/satellite-overhead/internal/metrics"
	"github.com/NSF-Swift/satellite-overhead/internal/model"
	"github.com/NSF-Swift/satellite-overhead/internal/transform"
)

const (
	// coarseScanStep is the fallback scan resolution for visibility queries
	// that do not overlap the master grid.
	coarseScanStep = 30 * time.Second

	// crossingPrecision bounds the bisection refinement of rise/set instants.
	crossingPrecision = time.Second
)

// sgp4Engine computes sky positions by SGP4 propagation over the master grid.
// The per-instant GMST values and the observer's ECEF position are computed
// once at construction and thereafter only read, so the engine is safe for
// concurrent use.
type sgp4Engine struct {
	times    []time.Time
	gmst     []float64
	observer transform.ObserverPosition
	logger   *slog.Logger
}

func newSGP4Engine(times []time.Time, fac model.Facility, logger *slog.Logger) *sgp4Engine {
	start := time.Now()
	gmst := make([]float64, len(times))
	for i, t := range times {
		gmst[i] = transform.GMST(t)
	}
	e := &sgp4Engine{
		times:    times,
		gmst:     gmst,
		observer: transform.NewObserverPosition(fac.LatitudeDeg, fac.LongitudeDeg, fac.ElevationM),
		logger:   logger,
	}
	logger.Debug("physics cache built",
		"grid_points", len(times),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return e
}

func (e *sgp4Engine) Kind() Kind { return KindSGP4 }

// lookAt propagates the satellite to t and converts to look angles from the
// observer, using a precomputed GMST for the TEME to ECEF rotation.
func (e *sgp4Engine) lookAt(m *sgp4Model, t time.Time, gmst float64) (transform.LookAngles, error) {
	teme, err := m.propagateTEME(t)
	if err != nil {
		return transform.LookAngles{}, err
	}
	ecef := transform.TEMEToECEF(teme, gmst)
	return transform.ECEFToLookAngles(e.observer, ecef.X, ecef.Y, ecef.Z), nil
}

// scanRange selects the scan instants for a visibility query: the in-range
// slice of the master grid when the query overlaps it, otherwise an ad hoc
// coarse grid with GMST computed on the fly.
func (e *sgp4Engine) scanRange(start, end time.Time) ([]time.Time, []float64) {
	lo, hi := grid.Span(e.times, start, end)
	if hi > lo {
		return e.times[lo:hi], e.gmst[lo:hi]
	}
	times := grid.Generate(start, end, coarseScanStep)
	gmst := make([]float64, len(times))
	for i, t := range times {
		gmst[i] = transform.GMST(t)
	}
	return times, gmst
}

// VisibilityWindows scans the satellite's altitude over the in-range grid
// points and refines each threshold crossing by bisection. A satellite
// already above the minimum altitude at the first scan point is treated as
// having risen at start; one still above at the last is treated as setting
// at end. A single scan point (query narrower than the grid resolution)
// therefore degenerates to a point check deciding the whole interval.
func (e *sgp4Engine) VisibilityWindows(ctx context.Context, sat model.Satellite, minAltitudeDeg float64, start, end time.Time) ([]model.TimeWindow, error) {
	if !end.After(start) {
		return nil, nil
	}

	m, err := newSGP4Model(sat)
	if err != nil {
		return nil, err
	}

	scanTimes, scanGMST := e.scanRange(start, end)

	var (
		windows  []model.TimeWindow
		up       bool
		riseAt   time.Time
		havePrev bool
		prevTime time.Time
		valid    int
		failed   int
		lastErr  error
	)

	for i, t := range scanTimes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		la, err := e.lookAt(m, t, scanGMST[i])
		if err != nil {
			failed++
			lastErr = err
			continue
		}
		valid++
		above := la.ElevationDeg >= minAltitudeDeg

		switch {
		case !havePrev:
			if above {
				riseAt = start
				up = true
			}
			havePrev = true
		case above && !up:
			riseAt = e.refineCrossing(m, prevTime, t, minAltitudeDeg, false)
			up = true
		case !above && up:
			setAt := e.refineCrossing(m, prevTime, t, minAltitudeDeg, true)
			windows = append(windows, model.TimeWindow{Begin: riseAt, End: setAt})
			up = false
		}
		prevTime = t
	}

	if valid == 0 {
		return nil, fmt.Errorf("no propagable instants in [%s, %s] for %s: %w",
			start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339), sat.Name, lastErr)
	}
	if failed > 0 {
		e.logger.Debug("visibility scan skipped failing points",
			"satellite", sat.Name,
			"failed", failed,
			"scanned", len(scanTimes),
		)
	}

	if up {
		windows = append(windows, model.TimeWindow{Begin: riseAt, End: end})
	}
	return windows, nil
}

// refineCrossing bisects a threshold crossing between lo and hi, where the
// satellite is above the threshold at exactly one endpoint (loAbove reports
// which). Returns the first instant in the new state, within
// crossingPrecision. Propagation failures stop the refinement at hi.
func (e *sgp4Engine) refineCrossing(m *sgp4Model, lo, hi time.Time, minAltitudeDeg float64, loAbove bool) time.Time {
	for hi.Sub(lo) > crossingPrecision {
		mid := lo.Add(hi.Sub(lo) / 2)
		la, err := e.lookAt(m, mid, transform.GMST(mid))
		if err != nil {
			break
		}
		if (la.ElevationDeg >= minAltitudeDeg) == loAbove {
			lo = mid
		} else {
			hi = mid
		}
	}
	return hi
}

// Trajectories maps each window onto the master grid by binary search, drops
// windows with no overlap, propagates the surviving index ranges in one
// batched pass reusing the cached per-instant GMST, and splits the results
// back into per-window trajectories in input order.
func (e *sgp4Engine) Trajectories(ctx context.Context, sat model.Satellite, windows []model.TimeWindow) ([]model.SatelliteTrajectory, error) {
	type span struct{ lo, hi int }
	spans := make([]span, 0, len(windows))
	total := 0
	for _, w := range windows {
		lo, hi := grid.Span(e.times, w.Begin, w.End)
		if hi <= lo {
			continue
		}
		spans = append(spans, span{lo: lo, hi: hi})
		total += hi - lo
	}
	if len(spans) == 0 {
		return nil, nil
	}

	m, err := newSGP4Model(sat)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	azimuth := make([]float64, 0, total)
	altitude := make([]float64, 0, total)
	distance := make([]float64, 0, total)
	for _, s := range spans {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for i := s.lo; i < s.hi; i++ {
			la, err := e.lookAt(m, e.times[i], e.gmst[i])
			if err != nil {
				return nil, fmt.Errorf("trajectory point at %s: %w", e.times[i].UTC().Format(time.RFC3339), err)
			}
			azimuth = append(azimuth, la.AzimuthDeg)
			altitude = append(altitude, la.ElevationDeg)
			distance = append(distance, la.RangeKm)
		}
	}
	metrics.RecordPropagation(time.Since(start), total)

	out := make([]model.SatelliteTrajectory, 0, len(spans))
	off := 0
	for _, s := range spans {
		n := s.hi - s.lo
		out = append(out, model.SatelliteTrajectory{
			Satellite:   sat,
			Times:       e.times[s.lo:s.hi],
			AzimuthDeg:  azimuth[off : off+n],
			AltitudeDeg: altitude[off : off+n],
			DistanceKm:  distance[off : off+n],
		})
		off += n
	}
	return out, nil
}

// PositionAt computes a scalar position fix. An instant that lands exactly
// on a master grid point reuses the cached GMST; anything else computes it
// ad hoc for the single instant.
func (e *sgp4Engine) PositionAt(sat model.Satellite, t time.Time) (model.Position, error) {
	m, err := newSGP4Model(sat)
	if err != nil {
		return model.Position{}, err
	}

	var gmst float64
	if i, ok := grid.Index(e.times, t); ok {
		gmst = e.gmst[i]
		metrics.PhysicsCacheHit()
	} else {
		gmst = transform.GMST(t)
		metrics.PhysicsCacheMiss()
	}

	la, err := e.lookAt(m, t, gmst)
	if err != nil {
		return model.Position{}, err
	}
	return model.Position{
		AltitudeDeg: la.ElevationDeg,
		AzimuthDeg:  la.AzimuthDeg,
		DistanceKm:  la.RangeKm,
	}, nil
}
