// Package model defines the data types shared across the analysis pipeline:
// time windows, sky positions, satellite and antenna trajectories, ground
// facilities, frequency assignments, and the interference-result envelope.
//
// All angles are degrees, distances kilometers, frequencies MHz, and powers
// dBW unless a field name says otherwise. Types here are plain data: they are
// safe to copy across worker boundaries and to serialize as JSON.
package model

// Position is a single sky-relative fix as seen from a ground facility.
type Position struct {
	AltitudeDeg float64 `json:"altitude"`
	AzimuthDeg  float64 `json:"azimuth"`
	DistanceKm  float64 `json:"distance_km,omitempty"` // 0 when unknown
}
