// Package tle loads, parses, caches, and serves two-line element catalogs.
// The CLI only uses the parser and file loaders; the daemon additionally
// wires the fetcher, the disk cache, and the in-memory store.
package tle

import (
	"time"

	"github.com/NSF-Swift/satellite-overhead/internal/model"
)

// Record is one parsed catalog entry: the satellite identity plus the raw
// element lines the propagation layer consumes.
type Record struct {
	Name    string
	NoradID int
	Epoch   time.Time
	Line1   string
	Line2   string
}

// ToSatellite converts the record into the analysis model. Transmitter data
// is not part of a TLE; callers attach it separately.
func (r Record) ToSatellite() model.Satellite {
	return model.Satellite{
		Name:     r.Name,
		NoradID:  r.NoradID,
		TLELine1: r.Line1,
		TLELine2: r.Line2,
	}
}

// Catalog is one complete element set from a single source at a single time.
type Catalog struct {
	Source    string
	FetchedAt time.Time
	Records   []Record
}

// Len returns the number of records.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Records)
}

// EpochRange returns the oldest and newest element epochs in the catalog.
// ok is false for an empty catalog.
func (c *Catalog) EpochRange() (min, max time.Time, ok bool) {
	if c.Len() == 0 {
		return time.Time{}, time.Time{}, false
	}
	min, max = c.Records[0].Epoch, c.Records[0].Epoch
	for _, rec := range c.Records[1:] {
		if rec.Epoch.Before(min) {
			min = rec.Epoch
		}
		if rec.Epoch.After(max) {
			max = rec.Epoch
		}
	}
	return min, max, true
}

// Satellites converts every record into the analysis model.
func (c *Catalog) Satellites() []model.Satellite {
	if c.Len() == 0 {
		return nil
	}
	sats := make([]model.Satellite, len(c.Records))
	for i, rec := range c.Records {
		sats[i] = rec.ToSatellite()
	}
	return sats
}
