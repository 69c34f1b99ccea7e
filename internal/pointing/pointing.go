// Package pointing builds the antenna's az/alt trajectory over the master
// time grid from one of three pointing intents: a fixed direction, a tracked
// celestial target, or a caller-supplied trajectory.
//
// The Spec union is sealed. Dispatch is an exhaustive type switch, so a new
// variant forces every dispatch site to be updated.
package pointing

import (
	"math"
	"time"

	"github.com/NSF-Swift/satellite-overhead/internal/astro"
	"github.com/NSF-Swift/satellite-overhead/internal/model"
)

// Spec is a pointing intent. The only implementations are Static, Celestial,
// and Custom.
type Spec interface {
	isPointing()
}

// Static points the antenna at a fixed az/alt for the whole run.
type Static struct {
	AzimuthDeg  float64
	AltitudeDeg float64
}

// Celestial tracks a fixed celestial target given in equatorial coordinates.
type Celestial struct {
	RightAscensionDeg float64
	DeclinationDeg    float64
}

// Custom uses a caller-supplied trajectory as-is.
type Custom struct {
	Trajectory model.AntennaTrajectory
}

func (Static) isPointing()    {}
func (Celestial) isPointing() {}
func (Custom) isPointing()    {}

// NewCelestial parses sexagesimal right ascension ("5h 35m 17s") and
// declination ("-5d 23m 28s") strings into a Celestial spec.
func NewCelestial(rightAscension, declination string) (Celestial, error) {
	ra, err := astro.ParseRightAscension(rightAscension)
	if err != nil {
		return Celestial{}, model.ConfigErrorf("right ascension: %v", err)
	}
	dec, err := astro.ParseDeclination(declination)
	if err != nil {
		return Celestial{}, model.ConfigErrorf("declination: %v", err)
	}
	return Celestial{RightAscensionDeg: ra, DeclinationDeg: dec}, nil
}

// Build materializes the pointing intent into an antenna trajectory sampled
// on the given time grid. The trajectory is built once per run and reused
// read-only by every satellite's interference check.
func Build(spec Spec, fac model.Facility, times []time.Time) (model.AntennaTrajectory, error) {
	if len(times) == 0 {
		return model.AntennaTrajectory{}, model.ConfigErrorf("empty time grid")
	}

	switch s := spec.(type) {
	case Static:
		az := math.Mod(s.AzimuthDeg, 360)
		if az < 0 {
			az += 360
		}
		traj := model.AntennaTrajectory{
			Times:       times,
			AzimuthDeg:  make([]float64, len(times)),
			AltitudeDeg: make([]float64, len(times)),
		}
		for i := range times {
			traj.AzimuthDeg[i] = az
			traj.AltitudeDeg[i] = s.AltitudeDeg
		}
		return traj, nil

	case Celestial:
		traj := model.AntennaTrajectory{
			Times:       times,
			AzimuthDeg:  make([]float64, len(times)),
			AltitudeDeg: make([]float64, len(times)),
		}
		for i, t := range times {
			az, alt := astro.EquatorialToHorizontal(s.RightAscensionDeg, s.DeclinationDeg, fac.LatitudeDeg, fac.LongitudeDeg, t)
			traj.AzimuthDeg[i] = az
			traj.AltitudeDeg[i] = alt
		}
		return traj, nil

	case Custom:
		if err := s.Trajectory.Validate(); err != nil {
			return model.AntennaTrajectory{}, err
		}
		return s.Trajectory, nil

	default:
		return model.AntennaTrajectory{}, model.ConfigErrorf("unknown pointing spec %T", spec)
	}
}
