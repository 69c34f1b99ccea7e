// Package strategy holds the interchangeable interference checks applied to
// a satellite trajectory: a purely geometric main-beam intersection, a
// worst-case link budget at peak receive gain, and a link budget using the
// facility's measured antenna pattern.
//
// Every strategy consumes the same inputs and emits the same result
// envelope. A nil result with a nil error means the satellite produced no
// interference finding (out of beam, or missing transmitter data); errors
// are reserved for configuration mistakes the caller must fix.
package strategy

import (
	"github.com/NSF-Swift/satellite-overhead/internal/model"
)

// Strategy names accepted by ForName.
const (
	NameGeometric         = "geometric"
	NameSimpleLinkBudget  = "simple-link-budget"
	NamePatternLinkBudget = "pattern-link-budget"
)

// Strategy scores one satellite trajectory against the antenna's pointing.
type Strategy interface {
	Calculate(traj model.SatelliteTrajectory, ant model.AntennaTrajectory, fac model.Facility, freq model.FrequencyRange) (*model.InterferenceResult, error)
	Name() string
}

// Options carries strategy-level settings shared by the link-budget
// strategies.
type Options struct {
	// DefaultEIRPdBW substitutes for satellites without transmitter data.
	// When nil, such satellites yield no result.
	DefaultEIRPdBW *float64
}

// resolveEIRP picks the satellite's own EIRP when present, else the
// configured default.
func (o Options) resolveEIRP(sat model.Satellite) (float64, bool) {
	if eirp, ok := sat.Transmitter.ResolveEIRP(); ok {
		return eirp, true
	}
	if o.DefaultEIRPdBW != nil {
		return *o.DefaultEIRPdBW, true
	}
	return 0, false
}

// ForName builds the named strategy. The name set is closed; anything else
// is a configuration error.
func ForName(name string, opts Options) (Strategy, error) {
	switch name {
	case NameGeometric:
		return Geometric{}, nil
	case NameSimpleLinkBudget:
		return SimpleLinkBudget{opts: opts}, nil
	case NamePatternLinkBudget:
		return PatternLinkBudget{opts: opts}, nil
	default:
		return nil, model.ConfigErrorf("unknown interference strategy %q", name)
	}
}
