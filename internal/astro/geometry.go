// Package astro provides the angular mathematics behind beam-interference
// checks: great-circle-flavored separation between sky coordinate sets, and
// equatorial-to-horizontal conversion for celestial tracking.
package astro

import "math"

const degToRad = math.Pi / 180

// SeparationSq returns the squared angular separation in degrees² between
// two sky-coordinate sets, element by element. The azimuth difference wraps
// the short way around the compass, and is scaled by the cosine of the mean
// altitude because meridians converge toward the zenith. Near alt 90° the
// scale approaches zero and azimuth differences lose meaning; that is the
// geometry, not a defect. All four slices must have the same length.
func SeparationSq(az1, alt1, az2, alt2 []float64) []float64 {
	out := make([]float64, len(az1))
	for i := range out {
		out[i] = separationSq(az1[i], alt1[i], az2[i], alt2[i])
	}
	return out
}

// Separation returns the elementwise angular separation in degrees.
func Separation(az1, alt1, az2, alt2 []float64) []float64 {
	out := SeparationSq(az1, alt1, az2, alt2)
	for i, v := range out {
		out[i] = math.Sqrt(v)
	}
	return out
}

func separationSq(az1, alt1, az2, alt2 float64) float64 {
	dAlt := alt1 - alt2
	dAz := math.Abs(az1 - az2)
	if 360-dAz < dAz {
		dAz = 360 - dAz
	}
	scaled := dAz * math.Cos((alt1+alt2)/2*degToRad)
	return dAlt*dAlt + scaled*scaled
}
