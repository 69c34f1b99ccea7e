package transform

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// j2000 is the Julian Date of the J2000.0 epoch (January 1, 2000, 12:00:00 TT).
const j2000 = 2451545.0

// JulianDate converts a time.Time (UTC) to Julian Date.
func JulianDate(t time.Time) float64 {
	return julian.TimeToJD(t.UTC())
}

// GMST calculates Greenwich Mean Sidereal Time in radians for a given UTC time.
func GMST(t time.Time) float64 {
	return GMSTFromJulian(JulianDate(t.UTC()))
}

// GMSTFromJulian calculates GMST in radians from a Julian Date. Split out so
// a precomputed per-timestamp Julian Date can be reused: GMST depends only on
// time, never on the satellite being evaluated.
//
// Uses the IAU-82 model as described in Vallado "Fundamentals of Astrodynamics"
// (Eq 3-47):
//
//	θ_GMST = 67310.54841 + (876600h + 8640184.812866)*T + 0.093104*T² - 6.2e-6*T³
//
// where T is Julian centuries of UT1 from J2000.0, result is in seconds of time.
func GMSTFromJulian(jd float64) float64 {
	tUT1 := (jd - j2000) / 36525.0

	// GMST in seconds of time.
	// 876600h = 876600 * 3600 = 3155760000 seconds.
	gmstSec := 67310.54841 +
		(3155760000.0+8640184.812866)*tUT1 +
		0.093104*tUT1*tUT1 -
		6.2e-6*tUT1*tUT1*tUT1

	// Normalize to [0, 86400) seconds, then convert to radians.
	gmstSec = math.Mod(gmstSec, 86400.0)
	if gmstSec < 0 {
		gmstSec += 86400.0
	}
	return gmstSec / 86400.0 * 2.0 * math.Pi
}
