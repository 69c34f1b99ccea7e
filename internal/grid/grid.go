// Package grid generates and indexes the master time grid: the single
// fixed-resolution sequence of instants an entire analysis run shares.
// Per-timestamp physics quantities are cached against this grid, so every
// component that needs instants derives them from here instead of building
// its own timeline.
package grid

import (
	"sort"
	"time"
)

// Generate returns instants spaced resolution apart starting at start. The
// final instant never exceeds end: an uneven duration yields a grid that
// stops short of end. If end is not after start the grid is exactly [start];
// a non-positive resolution degrades the same way (it is rejected upstream
// as a configuration error).
func Generate(start, end time.Time, resolution time.Duration) []time.Time {
	if !end.After(start) || resolution <= 0 {
		return []time.Time{start}
	}

	n := int(end.Sub(start)/resolution) + 1
	times := make([]time.Time, n)
	for i := range times {
		times[i] = start.Add(time.Duration(i) * resolution)
	}
	return times
}

// Index finds t in the grid by binary search. ok is false when t is not
// exactly a grid instant; the returned index is then the insertion point.
func Index(times []time.Time, t time.Time) (int, bool) {
	i := sort.Search(len(times), func(i int) bool { return !times[i].Before(t) })
	if i < len(times) && times[i].Equal(t) {
		return i, true
	}
	return i, false
}

// Span maps a [begin, end] window onto the half-open grid index range
// [lo, hi): lo is the first index at or after begin, hi the first index
// strictly after end. An instant equal to end is inside the span. Windows
// with no grid overlap yield lo >= hi.
func Span(times []time.Time, begin, end time.Time) (lo, hi int) {
	lo = sort.Search(len(times), func(i int) bool { return !times[i].Before(begin) })
	hi = sort.Search(len(times), func(i int) bool { return times[i].After(end) })
	return lo, hi
}
