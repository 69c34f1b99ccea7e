package model

// FrequencyRange is a transmit or observation band centered on FrequencyMHz.
type FrequencyRange struct {
	FrequencyMHz float64 `json:"frequency"`
	BandwidthMHz float64 `json:"bandwidth"`
	Status       string  `json:"status,omitempty"` // regulatory/operational status, informational
}

// Low returns the lower band edge in MHz.
func (f FrequencyRange) Low() float64 {
	return f.FrequencyMHz - f.BandwidthMHz/2
}

// High returns the upper band edge in MHz.
func (f FrequencyRange) High() float64 {
	return f.FrequencyMHz + f.BandwidthMHz/2
}

// Overlaps reports whether the two bands share any frequency. Band edges
// count: ranges that touch exactly at an edge overlap.
func (f FrequencyRange) Overlaps(other FrequencyRange) bool {
	return f.Low() <= other.High() && other.Low() <= f.High()
}
