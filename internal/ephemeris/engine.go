// Package ephemeris turns orbital-element data into sky positions relative
// to a ground facility: visibility windows above a minimum altitude, batched
// trajectories sampled on a shared time grid, and scalar position fixes.
//
// An engine is built once per run over the master time grid. Construction
// precomputes the per-instant physics quantities (GMST, observer ECEF) that
// depend only on time, never on the satellite, so every satellite and every
// sub-window reuses them.
package ephemeris

import (
	"context"
	"log/slog"
	"time"

	"github.com/NSF-Swift/satellite-overhead/internal/model"
)

// Kind identifies an ephemeris engine implementation. Parallel workers carry
// the tag across the worker boundary and rebuild the engine on their side
// instead of receiving a live instance.
type Kind string

// KindSGP4 propagates TLE orbital elements with the SGP4 model.
const KindSGP4 Kind = "sgp4"

// Engine computes where satellites appear in a ground facility's sky.
type Engine interface {
	// VisibilityWindows returns the windows within [start, end] during which
	// the satellite's altitude is at or above minAltitudeDeg. A query with
	// end <= start yields no windows and no error.
	VisibilityWindows(ctx context.Context, sat model.Satellite, minAltitudeDeg float64, start, end time.Time) ([]model.TimeWindow, error)

	// Trajectories computes one trajectory per window, sampled on the master
	// grid, in a single batched propagation pass. Windows that do not overlap
	// the grid are dropped, not errors.
	Trajectories(ctx context.Context, sat model.Satellite, windows []model.TimeWindow) ([]model.SatelliteTrajectory, error)

	// PositionAt computes the satellite's sky position at a single instant.
	PositionAt(sat model.Satellite, t time.Time) (model.Position, error)

	// Kind reports the implementation tag.
	Kind() Kind
}

// New builds an engine of the given kind over the master time grid, observing
// from the given facility.
func New(kind Kind, times []time.Time, fac model.Facility, logger *slog.Logger) (Engine, error) {
	switch kind {
	case KindSGP4:
		return newSGP4Engine(times, fac, logger), nil
	default:
		return nil, model.ConfigErrorf("unknown ephemeris engine kind %q", kind)
	}
}
