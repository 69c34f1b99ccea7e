package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

type satelliteSummary struct {
	Name    string    `json:"name"`
	NoradID int       `json:"norad_id"`
	Epoch   time.Time `json:"epoch"`
}

type satelliteListResponse struct {
	Source     string             `json:"source"`
	FetchedAt  time.Time          `json:"fetched_at"`
	Total      int                `json:"total"`
	Count      int                `json:"count"`
	Satellites []satelliteSummary `json:"satellites"`
}

type satelliteDetail struct {
	Name    string    `json:"name"`
	NoradID int       `json:"norad_id"`
	Epoch   time.Time `json:"epoch"`
	Line1   string    `json:"tle_line1"`
	Line2   string    `json:"tle_line2"`
}

// handleSatelliteList returns the current catalog, optionally narrowed by a
// case-insensitive ?search= name substring and truncated by ?limit=.
func (s *Server) handleSatelliteList(w http.ResponseWriter, r *http.Request) {
	catalog := s.store.Current()
	if catalog.Len() == 0 {
		writeError(w, http.StatusServiceUnavailable, "no TLE catalog loaded")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	search := strings.ToLower(r.URL.Query().Get("search"))

	summaries := make([]satelliteSummary, 0, catalog.Len())
	for _, rec := range catalog.Records {
		if search != "" && !strings.Contains(strings.ToLower(rec.Name), search) {
			continue
		}
		summaries = append(summaries, satelliteSummary{
			Name:    rec.Name,
			NoradID: rec.NoradID,
			Epoch:   rec.Epoch,
		})
		if limit > 0 && len(summaries) == limit {
			break
		}
	}

	writeJSON(w, http.StatusOK, satelliteListResponse{
		Source:     catalog.Source,
		FetchedAt:  catalog.FetchedAt,
		Total:      catalog.Len(),
		Count:      len(summaries),
		Satellites: summaries,
	})
}

// handleSatelliteByID returns one catalog record, element lines included.
func (s *Server) handleSatelliteByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("norad_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "norad_id must be an integer")
		return
	}

	rec, ok := s.store.ByNoradID(id)
	if !ok {
		writeError(w, http.StatusNotFound, "satellite not found")
		return
	}

	writeJSON(w, http.StatusOK, satelliteDetail{
		Name:    rec.Name,
		NoradID: rec.NoradID,
		Epoch:   rec.Epoch,
		Line1:   rec.Line1,
		Line2:   rec.Line2,
	})
}
