package strategy

import (
	"math"

	"github.com/NSF-Swift/satellite-overhead/internal/astro"
	"github.com/NSF-Swift/satellite-overhead/internal/model"
)

// fspl computes free-space path loss in dB for a distance in meters and a
// frequency in hertz: 20·log10(d) + 20·log10(f) − 147.55.
func fspl(distanceM, frequencyHz float64) float64 {
	return 20*math.Log10(distanceM) + 20*math.Log10(frequencyHz) - 147.55
}

// SimpleLinkBudget scores every trajectory point with the worst-case
// received power, assuming the satellite is always in the antenna's peak
// gain. No beam masking is applied.
type SimpleLinkBudget struct {
	opts Options
}

func (SimpleLinkBudget) Name() string { return NameSimpleLinkBudget }

func (s SimpleLinkBudget) Calculate(traj model.SatelliteTrajectory, _ model.AntennaTrajectory, fac model.Facility, freq model.FrequencyRange) (*model.InterferenceResult, error) {
	if fac.PeakGainDbi == nil {
		return nil, model.ConfigErrorf("facility %s has no peak gain; the simple link budget requires one", fac.Name)
	}
	if freq.FrequencyMHz <= 0 {
		return nil, model.ConfigErrorf("frequency must be positive, got %.3f MHz", freq.FrequencyMHz)
	}
	if traj.Len() == 0 {
		return nil, nil
	}

	eirp, ok := s.opts.resolveEIRP(traj.Satellite)
	if !ok {
		// No transmitter data and no default: a data gap, not an error.
		return nil, nil
	}

	frequencyHz := freq.FrequencyMHz * 1e6
	levels := make([]float64, traj.Len())
	for i := range levels {
		levels[i] = eirp - fspl(traj.DistanceKm[i]*1000, frequencyHz) + *fac.PeakGainDbi
	}

	return &model.InterferenceResult{
		Trajectory: traj,
		Level:      levels,
		Units:      "dBW",
		Meta:       map[string]string{"strategy": NameSimpleLinkBudget},
	}, nil
}

// PatternLinkBudget scores every trajectory point with the received power at
// the antenna's actual gain toward the satellite, looked up from the
// facility's gain pattern at the off-axis angle between satellite and
// boresight.
type PatternLinkBudget struct {
	opts Options
}

func (PatternLinkBudget) Name() string { return NamePatternLinkBudget }

func (p PatternLinkBudget) Calculate(traj model.SatelliteTrajectory, ant model.AntennaTrajectory, fac model.Facility, freq model.FrequencyRange) (*model.InterferenceResult, error) {
	if fac.Pattern == nil {
		return nil, model.ConfigErrorf("facility %s has no antenna pattern; the pattern link budget requires one", fac.Name)
	}
	if freq.FrequencyMHz <= 0 {
		return nil, model.ConfigErrorf("frequency must be positive, got %.3f MHz", freq.FrequencyMHz)
	}
	if traj.Len() == 0 {
		return nil, nil
	}

	eirp, ok := p.opts.resolveEIRP(traj.Satellite)
	if !ok {
		return nil, nil
	}

	antAz, antAlt, err := ant.StateAt(traj.Times)
	if err != nil {
		return nil, err
	}
	offAxis := astro.Separation(traj.AzimuthDeg, traj.AltitudeDeg, antAz, antAlt)

	frequencyHz := freq.FrequencyMHz * 1e6
	levels := make([]float64, traj.Len())
	for i := range levels {
		levels[i] = eirp - fspl(traj.DistanceKm[i]*1000, frequencyHz) + fac.Pattern.GainAt(offAxis[i])
	}

	return &model.InterferenceResult{
		Trajectory: traj,
		Level:      levels,
		Units:      "dBW",
		Meta:       map[string]string{"strategy": NamePatternLinkBudget},
	}, nil
}
