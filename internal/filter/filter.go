// Package filter narrows a satellite list before the analysis runs. Every
// filter is a composable predicate; Apply keeps the satellites that pass all
// of them. Filtering is conservative: a satellite is only removed when its
// data affirmatively rules it out as an interference source.
package filter

import (
	"math"
	"strconv"
	"strings"

	"github.com/NSF-Swift/satellite-overhead/internal/model"
)

// Predicate reports whether a satellite should be kept.
type Predicate func(model.Satellite) bool

// Apply returns the satellites passing every predicate, in input order.
func Apply(sats []model.Satellite, preds ...Predicate) []model.Satellite {
	if len(preds) == 0 {
		return sats
	}
	var out []model.Satellite
next:
	for _, sat := range sats {
		for _, pred := range preds {
			if !pred(sat) {
				continue next
			}
		}
		out = append(out, sat)
	}
	return out
}

// FrequencyOverlap keeps satellites that could transmit inside the
// observation band. Satellites with no transmitter data, or with ranges of
// unknown frequency, are kept: absence of data cannot rule them out. A
// satellite whose every listed range is inactive or provably out of band is
// dropped. A zero observation band disables the filter.
func FrequencyOverlap(band model.FrequencyRange) Predicate {
	return func(sat model.Satellite) bool {
		if band.FrequencyMHz == 0 {
			return true
		}
		if sat.Transmitter == nil || len(sat.Transmitter.Frequencies) == 0 {
			return true
		}

		for _, fr := range sat.Transmitter.Frequencies {
			if strings.EqualFold(fr.Status, "inactive") {
				continue
			}
			if fr.FrequencyMHz == 0 {
				// Active on an unknown band.
				return true
			}
			if fr.Overlaps(band) {
				return true
			}
		}
		// All ranges inactive, or all active ranges known and out of band.
		return false
	}
}

// NameContains keeps satellites whose name contains substr, ignoring case.
func NameContains(substr string) Predicate {
	needle := strings.ToLower(substr)
	return func(sat model.Satellite) bool {
		return strings.Contains(strings.ToLower(sat.Name), needle)
	}
}

// NameNotContains drops satellites whose name contains substr, ignoring case.
func NameNotContains(substr string) Predicate {
	contains := NameContains(substr)
	return func(sat model.Satellite) bool {
		return !contains(sat)
	}
}

// Orbit regime boundaries in revolutions per day. LEO is everything with a
// period under about 128 minutes; GEO sits in a narrow band around one
// revolution per sidereal day; MEO is the region between.
const (
	leoMinRevsPerDay = 11.25
	geoMinRevsPerDay = 0.9
	geoMaxRevsPerDay = 1.1
)

// OrbitRegime keeps satellites whose mean motion falls inside
// [minRevsPerDay, maxRevsPerDay]. Satellites whose mean motion cannot be
// read are dropped: a regime filter cannot classify them.
func OrbitRegime(minRevsPerDay, maxRevsPerDay float64) Predicate {
	return func(sat model.Satellite) bool {
		n, ok := meanMotion(sat.TLELine2)
		if !ok {
			return false
		}
		return n >= minRevsPerDay && n <= maxRevsPerDay
	}
}

// OrbitIs maps the named regime ("leo", "meo", "geo") onto OrbitRegime
// bounds. Unknown names keep nothing.
func OrbitIs(name string) Predicate {
	switch strings.ToLower(name) {
	case "leo":
		return OrbitRegime(leoMinRevsPerDay, math.Inf(1))
	case "meo":
		return OrbitRegime(geoMaxRevsPerDay, leoMinRevsPerDay)
	case "geo":
		return OrbitRegime(geoMinRevsPerDay, geoMaxRevsPerDay)
	default:
		return func(model.Satellite) bool { return false }
	}
}

// meanMotion reads revolutions per day from columns 53-63 of element line 2.
func meanMotion(line2 string) (float64, bool) {
	if len(line2) < 63 {
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(line2[52:63]), 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
