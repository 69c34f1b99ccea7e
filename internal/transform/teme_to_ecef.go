// Package transform provides the coordinate frame transformations between a
// propagated satellite state and what a ground antenna sees.
//
// SGP4 outputs positions in TEME (True Equator Mean Equinox); ground-station
// look angles need ECEF (Earth-Centered Earth-Fixed). The TEME→ECEF rotation
// depends only on time through GMST, which is why an analysis run precomputes
// GMST once per grid instant and reuses it for every satellite.
//
// Method: Simplified Vallado-style rotation using GMST only (TEME → PEF ≈ ECEF).
// This ignores polar motion and equation of equinoxes, which introduces ~50m error
// at most — far below the beamwidths this system reasons about.
//
// Reference: Vallado, "Fundamentals of Astrodynamics and Applications", Ch. 3.
package transform

import "math"

// PositionTEME is a satellite position in the TEME frame, in km.
// Velocities are not carried: look angles and beam geometry are pure
// position quantities.
type PositionTEME struct {
	X, Y, Z float64
}

// PositionECEF is a satellite position in the ECEF frame, in meters.
type PositionECEF struct {
	X, Y, Z float64
}

// TEMEToECEF rotates a TEME position into ECEF using a precomputed GMST
// angle in radians:
//
//	r_ECEF = R3(θ) · r_TEME
//
// where R3(θ) is a rotation about the Z axis by GMST. Callers evaluating
// many satellites at the same instant compute GMST once and pass it here.
// Output is in meters.
func TEMEToECEF(teme PositionTEME, gmst float64) PositionECEF {
	sinG, cosG := math.Sincos(gmst)
	return PositionECEF{
		X: (teme.X*cosG + teme.Y*sinG) * 1000.0,
		Y: (-teme.X*sinG + teme.Y*cosG) * 1000.0,
		Z: teme.Z * 1000.0,
	}
}
