package model

import (
	"math"
	"time"

	"gonum.org/v1/gonum/interp"
)

// AntennaTrajectory is the antenna's az/alt pointing over time: parallel
// arrays with strictly increasing Times. It is built once per run and then
// read concurrently by every satellite's interference check, so nothing here
// mutates the receiver.
type AntennaTrajectory struct {
	Times       []time.Time `json:"times"`
	AzimuthDeg  []float64   `json:"azimuth"`
	AltitudeDeg []float64   `json:"altitude"`
}

// Len returns the number of pointing samples.
func (a AntennaTrajectory) Len() int {
	return len(a.Times)
}

// Validate checks the construction invariants for caller-supplied
// trajectories.
func (a AntennaTrajectory) Validate() error {
	if len(a.Times) == 0 {
		return ConfigErrorf("antenna trajectory is empty")
	}
	if len(a.AzimuthDeg) != len(a.Times) || len(a.AltitudeDeg) != len(a.Times) {
		return ConfigErrorf("antenna trajectory arrays disagree on length: %d times, %d azimuths, %d altitudes",
			len(a.Times), len(a.AzimuthDeg), len(a.AltitudeDeg))
	}
	for i := 1; i < len(a.Times); i++ {
		if !a.Times[i].After(a.Times[i-1]) {
			return ConfigErrorf("antenna trajectory times must strictly increase (index %d)", i)
		}
	}
	return nil
}

// StateAt interpolates the pointing at each query time. The azimuth sequence
// is unwrapped onto a continuous angle before interpolation so a track
// crossing the 0°/360° seam does not sweep through the whole compass, then
// re-wrapped into [0,360). Queries outside the trajectory's span hold the
// nearest endpoint state.
func (a AntennaTrajectory) StateAt(times []time.Time) (azimuth, altitude []float64, err error) {
	n := a.Len()
	if n == 0 {
		return nil, nil, ConfigErrorf("antenna trajectory is empty")
	}

	azimuth = make([]float64, len(times))
	altitude = make([]float64, len(times))

	if n == 1 {
		if len(a.AzimuthDeg) != 1 || len(a.AltitudeDeg) != 1 {
			return nil, nil, a.Validate()
		}
		for i := range times {
			azimuth[i] = wrap360(a.AzimuthDeg[0])
			altitude[i] = a.AltitudeDeg[0]
		}
		return azimuth, altitude, nil
	}

	xs := make([]float64, n)
	for i, t := range a.Times {
		xs[i] = epochSeconds(t)
	}

	var azFit, altFit interp.PiecewiseLinear
	if err := azFit.Fit(xs, unwrapDegrees(a.AzimuthDeg)); err != nil {
		return nil, nil, ConfigErrorf("antenna azimuth interpolation: %v", err)
	}
	if err := altFit.Fit(xs, a.AltitudeDeg); err != nil {
		return nil, nil, ConfigErrorf("antenna altitude interpolation: %v", err)
	}

	lo, hi := xs[0], xs[n-1]
	for i, t := range times {
		x := epochSeconds(t)
		if x < lo {
			x = lo
		} else if x > hi {
			x = hi
		}
		azimuth[i] = wrap360(azFit.Predict(x))
		altitude[i] = altFit.Predict(x)
	}
	return azimuth, altitude, nil
}

// epochSeconds converts a time to float seconds since the Unix epoch without
// the precision loss of going through nanoseconds.
func epochSeconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}

// unwrapDegrees lifts a wrapped azimuth sequence onto a continuous angle:
// any step larger than 180° is taken as a seam crossing in the shorter
// direction.
func unwrapDegrees(az []float64) []float64 {
	out := make([]float64, len(az))
	if len(az) == 0 {
		return out
	}
	out[0] = az[0]
	offset := 0.0
	for i := 1; i < len(az); i++ {
		d := az[i] - az[i-1]
		if d > 180 {
			offset -= 360
		} else if d < -180 {
			offset += 360
		}
		out[i] = az[i] + offset
	}
	return out
}

func wrap360(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
