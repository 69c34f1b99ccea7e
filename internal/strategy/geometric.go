package strategy

import (
	"github.com/NSF-Swift/satellite-overhead/internal/astro"
	"github.com/NSF-Swift/satellite-overhead/internal/model"
)

// Geometric keeps the trajectory points whose angular separation from the
// antenna boresight is within the beam radius. It reports no quantitative
// level; the masked trajectory itself is the finding.
type Geometric struct{}

func (Geometric) Name() string { return NameGeometric }

func (Geometric) Calculate(traj model.SatelliteTrajectory, ant model.AntennaTrajectory, fac model.Facility, _ model.FrequencyRange) (*model.InterferenceResult, error) {
	if traj.Len() == 0 {
		return nil, nil
	}

	antAz, antAlt, err := ant.StateAt(traj.Times)
	if err != nil {
		return nil, err
	}

	radius := fac.BeamRadiusDeg()
	radiusSq := radius * radius
	sepSq := astro.SeparationSq(traj.AzimuthDeg, traj.AltitudeDeg, antAz, antAlt)

	keep := make([]bool, traj.Len())
	inBeam := false
	for i, s := range sepSq {
		if s <= radiusSq {
			keep[i] = true
			inBeam = true
		}
	}
	if !inBeam {
		return nil, nil
	}

	return &model.InterferenceResult{
		Trajectory: traj.Mask(keep),
		Meta:       map[string]string{"strategy": NameGeometric},
	}, nil
}
