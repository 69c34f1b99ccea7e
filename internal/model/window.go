package model

import "time"

// TimeWindow is a half-open-in-spirit observation interval. Reservation-level
// windows always satisfy Begin < End (validated at configuration build);
// windows derived from visibility events may be arbitrarily short.
type TimeWindow struct {
	Begin time.Time `json:"begin"`
	End   time.Time `json:"end"`
}

// Duration returns End - Begin.
func (w TimeWindow) Duration() time.Duration {
	return w.End.Sub(w.Begin)
}

// Overlaps reports whether the two windows share any interior instant.
// Windows that merely touch at a boundary do not overlap.
func (w TimeWindow) Overlaps(other TimeWindow) bool {
	return w.Begin.Before(other.End) && other.Begin.Before(w.End)
}
