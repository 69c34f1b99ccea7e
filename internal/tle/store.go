package tle

import (
	"strings"
	"sync/atomic"
	"time"
)

// snapshot pairs a catalog with its lookup index. Both are immutable once
// published, so readers never need a lock.
type snapshot struct {
	catalog *Catalog
	byID    map[int]int
}

// Store holds the current catalog behind an atomic pointer. Replace swaps in
// a fully built snapshot, so analyze requests racing a refresh see either
// the old catalog or the new one, never a half-indexed state.
type Store struct {
	current atomic.Pointer[snapshot]
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Replace publishes a new catalog, building its NORAD ID index first.
func (s *Store) Replace(c *Catalog) {
	snap := &snapshot{catalog: c}
	if c != nil {
		snap.byID = make(map[int]int, len(c.Records))
		for i, rec := range c.Records {
			snap.byID[rec.NoradID] = i
		}
	}
	s.current.Store(snap)
}

// Current returns the published catalog, or nil before the first Replace.
func (s *Store) Current() *Catalog {
	snap := s.current.Load()
	if snap == nil {
		return nil
	}
	return snap.catalog
}

// ByNoradID looks up a record by catalog number.
func (s *Store) ByNoradID(id int) (Record, bool) {
	snap := s.current.Load()
	if snap == nil || snap.catalog == nil {
		return Record{}, false
	}
	i, ok := snap.byID[id]
	if !ok {
		return Record{}, false
	}
	return snap.catalog.Records[i], true
}

// ByName returns the first record whose name matches, ignoring case.
func (s *Store) ByName(name string) (Record, bool) {
	snap := s.current.Load()
	if snap == nil || snap.catalog == nil {
		return Record{}, false
	}
	for _, rec := range snap.catalog.Records {
		if strings.EqualFold(rec.Name, name) {
			return rec, true
		}
	}
	return Record{}, false
}

// AgeSeconds returns how old the published catalog is, or -1 when none is
// loaded. Exposed as a gauge so operators can alert on stale element sets.
func (s *Store) AgeSeconds() float64 {
	c := s.Current()
	if c == nil {
		return -1
	}
	return time.Since(c.FetchedAt).Seconds()
}
