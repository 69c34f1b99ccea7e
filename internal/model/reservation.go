package model

import "time"

// RuntimeSettings controls how a run samples and parallelizes.
type RuntimeSettings struct {
	TimeResolution time.Duration `json:"time_resolution"`
	Concurrency    int           `json:"concurrency"`
	MinAltitudeDeg float64       `json:"min_altitude"`
}

// DefaultRuntimeSettings returns the defaults: 1s sampling, serial execution,
// visibility down to the horizon.
func DefaultRuntimeSettings() RuntimeSettings {
	return RuntimeSettings{
		TimeResolution: time.Second,
		Concurrency:    1,
		MinAltitudeDeg: 0,
	}
}

// Validate checks the invariants enforced at configuration build.
func (s RuntimeSettings) Validate() error {
	if s.TimeResolution <= 0 {
		return ConfigErrorf("time resolution must be positive, got %v", s.TimeResolution)
	}
	if s.Concurrency < 1 {
		return ConfigErrorf("concurrency level must be at least 1, got %d", s.Concurrency)
	}
	if s.MinAltitudeDeg < 0 {
		return ConfigErrorf("minimum altitude must be non-negative, got %v", s.MinAltitudeDeg)
	}
	return nil
}

// Reservation is one protected observation: where, when, and at which band.
type Reservation struct {
	Facility  Facility       `json:"facility"`
	Window    TimeWindow     `json:"time"`
	Frequency FrequencyRange `json:"frequency"`
}

// Validate checks the invariants enforced at configuration build.
func (r Reservation) Validate() error {
	if !r.Window.Begin.Before(r.Window.End) {
		return ConfigErrorf("reservation window must satisfy begin < end, got begin=%s end=%s",
			r.Window.Begin.Format(time.RFC3339), r.Window.End.Format(time.RFC3339))
	}
	return r.Facility.Validate()
}
