package ephemeris

import (
	"fmt"
	"math"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/NSF-Swift/satellite-overhead/internal/model"
	"github.com/NSF-Swift/satellite-overhead/internal/transform"
)

// The SGP4 implementation comes from github.com/joshuaferrara/go-satellite.
//
// Note: Propagate() takes the Satellite by value, so SGP4 error codes raised
// during propagation are not visible to the caller. Failures are detected by
// checking the output for NaN/Inf and unreasonable position magnitudes.

// sgp4Model holds an initialized SGP4 propagation model for one satellite.
type sgp4Model struct {
	sat  satellite.Satellite
	name string
}

// newSGP4Model initializes the SGP4 model from a satellite's TLE lines.
//
// Pre-validates TLE format before passing to the library, because
// go-satellite calls log.Fatal on malformed input (which would kill the
// process).
func newSGP4Model(s model.Satellite) (*sgp4Model, error) {
	if err := validateTLELines(s.TLELine1, s.TLELine2); err != nil {
		return nil, fmt.Errorf("invalid TLE for %s (NORAD %d): %w", s.Name, s.NoradID, err)
	}

	sat := satellite.TLEToSat(s.TLELine1, s.TLELine2, satellite.GravityWGS84)
	if sat.Error != 0 {
		return nil, fmt.Errorf("sgp4 init failed for %s (NORAD %d): code=%d %s", s.Name, s.NoradID, sat.Error, sat.ErrorStr)
	}
	return &sgp4Model{sat: sat, name: s.Name}, nil
}

// validateTLELines performs basic format validation on TLE lines.
func validateTLELines(line1, line2 string) error {
	line1 = strings.TrimSpace(line1)
	line2 = strings.TrimSpace(line2)

	if len(line1) != 69 {
		return fmt.Errorf("line1 length %d, expected 69", len(line1))
	}
	if len(line2) != 69 {
		return fmt.Errorf("line2 length %d, expected 69", len(line2))
	}
	if line1[0] != '1' {
		return fmt.Errorf("line1 must start with '1', got '%c'", line1[0])
	}
	if line2[0] != '2' {
		return fmt.Errorf("line2 must start with '2', got '%c'", line2[0])
	}
	return nil
}

// propagateTEME computes the satellite's TEME position at t.
// Sub-second components are truncated; the SGP4 library works in whole seconds.
func (m *sgp4Model) propagateTEME(t time.Time) (transform.PositionTEME, error) {
	t = t.UTC()
	pos, _ := satellite.Propagate(m.sat, t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())

	if math.IsNaN(pos.X) || math.IsNaN(pos.Y) || math.IsNaN(pos.Z) ||
		math.IsInf(pos.X, 0) || math.IsInf(pos.Y, 0) || math.IsInf(pos.Z, 0) {
		return transform.PositionTEME{}, fmt.Errorf("sgp4 propagation failed for %s: output is NaN/Inf", m.name)
	}

	// Position magnitude should be between ~6200km (decayed) and ~50000km (high orbit).
	mag := math.Sqrt(pos.X*pos.X + pos.Y*pos.Y + pos.Z*pos.Z)
	if mag < 6200.0 || mag > 50000.0 {
		return transform.PositionTEME{}, fmt.Errorf("sgp4 propagation failed for %s: unreasonable position magnitude %.1f km", m.name, mag)
	}

	return transform.PositionTEME{X: pos.X, Y: pos.Y, Z: pos.Z}, nil
}
