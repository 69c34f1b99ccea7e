package astro

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"

	"github.com/NSF-Swift/satellite-overhead/internal/transform"
)

var (
	raPattern  = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)\s*h(?:\s*(\d+(?:\.\d+)?)\s*m)?(?:\s*(\d+(?:\.\d+)?)\s*s)?\s*$`)
	decPattern = regexp.MustCompile(`^\s*([+-])?\s*(\d+(?:\.\d+)?)\s*d(?:\s*(\d+(?:\.\d+)?)\s*m)?(?:\s*(\d+(?:\.\d+)?)\s*s)?\s*$`)
)

// ParseRightAscension converts an hour-angle string like "5h 35m 17.3s"
// (minutes and seconds optional) to degrees.
func ParseRightAscension(s string) (float64, error) {
	m := raPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("right ascension %q: want a form like \"5h 35m 17s\"", s)
	}
	hours, err := sexagesimal(m[1], m[2], m[3])
	if err != nil {
		return 0, fmt.Errorf("right ascension %q: %w", s, err)
	}
	return hours * 15, nil
}

// ParseDeclination converts a string like "-5d 23m 28s" (minutes and seconds
// optional, sign applies to the whole value) to degrees.
func ParseDeclination(s string) (float64, error) {
	m := decPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("declination %q: want a form like \"-5d 23m 28s\"", s)
	}
	deg, err := sexagesimal(m[2], m[3], m[4])
	if err != nil {
		return 0, fmt.Errorf("declination %q: %w", s, err)
	}
	if m[1] == "-" {
		deg = -deg
	}
	return deg, nil
}

func sexagesimal(whole, minutes, seconds string) (float64, error) {
	v, err := strconv.ParseFloat(whole, 64)
	if err != nil {
		return 0, err
	}
	if minutes != "" {
		mv, err := strconv.ParseFloat(minutes, 64)
		if err != nil {
			return 0, err
		}
		v += mv / 60
	}
	if seconds != "" {
		sv, err := strconv.ParseFloat(seconds, 64)
		if err != nil {
			return 0, err
		}
		v += sv / 3600
	}
	return v, nil
}

// EquatorialToHorizontal converts a fixed celestial target (RA/Dec, degrees)
// to the azimuth/altitude seen from a ground site at time t.
//
// Local sidereal time comes from GMST plus the site longitude; the hour angle
// of the target then gives altitude and azimuth through the standard
// spherical-triangle relations. Azimuth is 0 = North, clockwise.
func EquatorialToHorizontal(raDeg, decDeg, latDeg, lonDeg float64, t time.Time) (azDeg, altDeg float64) {
	gmstDeg := transform.GMST(t) / degToRad
	lst := wrapDeg(gmstDeg + lonDeg)
	ha := wrapDeg(lst-raDeg) * degToRad

	dec := decDeg * degToRad
	lat := latDeg * degToRad

	sinAlt := math.Sin(dec)*math.Sin(lat) + math.Cos(dec)*math.Cos(lat)*math.Cos(ha)
	alt := math.Asin(clamp1(sinAlt))

	az := 0.0
	den := math.Cos(alt) * math.Cos(lat)
	if math.Abs(den) > 1e-12 {
		cosAz := (math.Sin(dec) - math.Sin(alt)*math.Sin(lat)) / den
		az = math.Acos(clamp1(cosAz))
		if math.Sin(ha) > 0 {
			az = 2*math.Pi - az
		}
	}

	return az / degToRad, alt / degToRad
}

func wrapDeg(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

func clamp1(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
