package model

import "time"

// SatelliteTrajectory is a satellite's sky track over one visibility window:
// parallel arrays of equal length with strictly increasing Times. Trajectories
// are immutable once built; Mask derives shorter trajectories without
// touching the source arrays.
type SatelliteTrajectory struct {
	Satellite   Satellite   `json:"satellite"`
	Times       []time.Time `json:"times"`
	AzimuthDeg  []float64   `json:"azimuth"`
	AltitudeDeg []float64   `json:"altitude"`
	DistanceKm  []float64   `json:"distance_km"`
}

// Len returns the number of samples.
func (t SatelliteTrajectory) Len() int {
	return len(t.Times)
}

// OverheadTime returns the window spanned by the trajectory's first and last
// samples. ok is false for an empty trajectory.
func (t SatelliteTrajectory) OverheadTime() (w TimeWindow, ok bool) {
	if len(t.Times) == 0 {
		return TimeWindow{}, false
	}
	return TimeWindow{Begin: t.Times[0], End: t.Times[len(t.Times)-1]}, true
}

// Mask returns a new trajectory holding only the samples where keep is true,
// in original order. keep must have the same length as the trajectory. The
// receiver's arrays are never modified.
func (t SatelliteTrajectory) Mask(keep []bool) SatelliteTrajectory {
	out := SatelliteTrajectory{Satellite: t.Satellite}
	for i := range t.Times {
		if !keep[i] {
			continue
		}
		out.Times = append(out.Times, t.Times[i])
		out.AzimuthDeg = append(out.AzimuthDeg, t.AzimuthDeg[i])
		out.AltitudeDeg = append(out.AltitudeDeg, t.AltitudeDeg[i])
		out.DistanceKm = append(out.DistanceKm, t.DistanceKm[i])
	}
	return out
}

// InterferenceResult is the uniform envelope every strategy returns so they
// stay interchangeable. Level runs parallel to Trajectory.Times; it is empty
// for purely geometric verdicts.
type InterferenceResult struct {
	Trajectory SatelliteTrajectory `json:"trajectory"`
	Level      []float64           `json:"interference_level,omitempty"`
	Units      string              `json:"level_units,omitempty"`
	Meta       map[string]string   `json:"metadata,omitempty"`
}
