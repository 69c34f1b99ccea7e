package model

import (
	"errors"
	"fmt"
)

// ErrConfiguration marks a setup mistake the caller must fix: missing
// strategy inputs, invalid reservation bounds, non-positive beamwidth or
// resolution, and similar. These failures are fatal and never retried,
// unlike data-sufficiency gaps, which surface as absent results.
var ErrConfiguration = errors.New("configuration error")

// ConfigErrorf builds an error wrapping ErrConfiguration so callers can
// classify it with errors.Is.
func ConfigErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
