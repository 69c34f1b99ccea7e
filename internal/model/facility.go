package model

import (
	"encoding/json"

	"gonum.org/v1/gonum/interp"
)

// Facility is the ground station whose observation is being protected.
// PeakGainDbi and Pattern are the two receive-gain tiers: a single worst-case
// boresight gain, or a measured gain-vs-off-axis-angle table. Either, both,
// or neither may be present; each link-budget strategy requires its own.
type Facility struct {
	Name         string          `json:"name,omitempty"`
	LatitudeDeg  float64         `json:"latitude"`
	LongitudeDeg float64         `json:"longitude"`
	ElevationM   float64         `json:"elevation_m"`
	BeamwidthDeg float64         `json:"beamwidth"`
	PeakGainDbi  *float64        `json:"peak_gain_dbi,omitempty"`
	Pattern      *AntennaPattern `json:"antenna_pattern,omitempty"`
}

// BeamRadiusDeg is half the beamwidth: the angular radius of the main beam.
func (f Facility) BeamRadiusDeg() float64 {
	return f.BeamwidthDeg / 2
}

// Validate checks the invariants enforced at configuration build.
func (f Facility) Validate() error {
	if f.BeamwidthDeg <= 0 {
		return ConfigErrorf("facility beamwidth must be positive, got %v", f.BeamwidthDeg)
	}
	if f.LatitudeDeg < -90 || f.LatitudeDeg > 90 {
		return ConfigErrorf("facility latitude %v out of range [-90, 90]", f.LatitudeDeg)
	}
	if f.LongitudeDeg < -180 || f.LongitudeDeg > 180 {
		return ConfigErrorf("facility longitude %v out of range [-180, 180]", f.LongitudeDeg)
	}
	return nil
}

// PatternPoint is one row of an antenna gain table.
type PatternPoint struct {
	AngleDeg float64 `json:"angle"`
	GainDbi  float64 `json:"gain"`
}

// AntennaPattern is a receive-gain table indexed by off-axis angle. The first
// entry must be the boresight (angle 0) and angles must strictly increase.
type AntennaPattern struct {
	points []PatternPoint
	fit    interp.PiecewiseLinear
}

// NewAntennaPattern validates and builds a gain table. At least two points
// are required so the gain is defined away from boresight.
func NewAntennaPattern(points []PatternPoint) (*AntennaPattern, error) {
	if len(points) < 2 {
		return nil, ConfigErrorf("antenna pattern needs at least 2 points, got %d", len(points))
	}
	if points[0].AngleDeg != 0 {
		return nil, ConfigErrorf("antenna pattern must start at boresight (angle 0), got %v", points[0].AngleDeg)
	}
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		if i > 0 && p.AngleDeg <= points[i-1].AngleDeg {
			return nil, ConfigErrorf("antenna pattern angles must strictly increase, got %v after %v", p.AngleDeg, points[i-1].AngleDeg)
		}
		xs[i] = p.AngleDeg
		ys[i] = p.GainDbi
	}

	pat := &AntennaPattern{points: append([]PatternPoint(nil), points...)}
	if err := pat.fit.Fit(xs, ys); err != nil {
		return nil, ConfigErrorf("antenna pattern interpolation: %v", err)
	}
	return pat, nil
}

// GainAt returns the receive gain at the given off-axis angle by linear
// interpolation over the table. Angles beyond the last table entry clamp to
// the last entry; boresight returns the first entry exactly.
func (p *AntennaPattern) GainAt(angleDeg float64) float64 {
	last := p.points[len(p.points)-1].AngleDeg
	if angleDeg <= 0 {
		return p.points[0].GainDbi
	}
	if angleDeg >= last {
		return p.points[len(p.points)-1].GainDbi
	}
	return p.fit.Predict(angleDeg)
}

// Points returns a copy of the table rows.
func (p *AntennaPattern) Points() []PatternPoint {
	return append([]PatternPoint(nil), p.points...)
}

// MarshalJSON encodes the pattern as its point list.
func (p *AntennaPattern) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.points)
}

// UnmarshalJSON decodes and re-validates a point list.
func (p *AntennaPattern) UnmarshalJSON(data []byte) error {
	var points []PatternPoint
	if err := json.Unmarshal(data, &points); err != nil {
		return err
	}
	pat, err := NewAntennaPattern(points)
	if err != nil {
		return err
	}
	*p = *pat
	return nil
}
