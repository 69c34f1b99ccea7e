package tle

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/NSF-Swift/satellite-overhead/internal/model"
)

// LoadFile reads a TLE catalog file into model satellites.
func LoadFile(path string, logger *slog.Logger) ([]model.Satellite, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog file: %w", err)
	}
	defer f.Close()

	records, err := Parse(f, logger)
	if err != nil {
		return nil, err
	}
	sats := make([]model.Satellite, len(records))
	for i, rec := range records {
		sats[i] = rec.ToSatellite()
	}
	return sats, nil
}

// LoadFrequencyCSV reads downlink annotations keyed by NORAD ID. The file
// needs a header row with at least ID and Frequency columns; Bandwidth,
// Status, and Name are optional. Rows with an empty or unparsable frequency
// still produce an entry, recording that the satellite transmits on an
// unknown band.
func LoadFrequencyCSV(path string) (map[int][]model.FrequencyRange, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening frequency file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading frequency file header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	idCol, ok := col["id"]
	if !ok {
		return nil, fmt.Errorf("frequency file is missing an ID column")
	}
	freqCol, ok := col["frequency"]
	if !ok {
		return nil, fmt.Errorf("frequency file is missing a Frequency column")
	}
	bandCol, hasBand := col["bandwidth"]
	statusCol, hasStatus := col["status"]

	byID := make(map[int][]model.FrequencyRange)
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("frequency file line %d: %w", line, err)
		}

		id, err := strconv.Atoi(strings.TrimSpace(row[idCol]))
		if err != nil {
			return nil, fmt.Errorf("frequency file line %d: invalid NORAD ID %q", line, row[idCol])
		}

		var fr model.FrequencyRange
		fr.FrequencyMHz, _ = strconv.ParseFloat(strings.TrimSpace(row[freqCol]), 64)
		if hasBand {
			fr.BandwidthMHz, _ = strconv.ParseFloat(strings.TrimSpace(row[bandCol]), 64)
		}
		if hasStatus {
			fr.Status = strings.TrimSpace(row[statusCol])
		}

		byID[id] = append(byID[id], fr)
	}
	return byID, nil
}

// AttachFrequencies returns a copy of sats with transmitter bands attached
// by NORAD ID. Satellites with no annotation keep a nil transmitter, which
// downstream filters and strategies treat as "no data".
func AttachFrequencies(sats []model.Satellite, byID map[int][]model.FrequencyRange) []model.Satellite {
	out := make([]model.Satellite, len(sats))
	for i, sat := range sats {
		out[i] = sat
		if ranges, ok := byID[sat.NoradID]; ok {
			out[i].Transmitter = &model.Transmitter{Frequencies: ranges}
		}
	}
	return out
}
