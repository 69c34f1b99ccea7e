package tle

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/NSF-Swift/satellite-overhead/internal/model"
)

// tleLineLength is the fixed width of both element lines.
const tleLineLength = 69

// Parse reads a TLE catalog from r. Both the 3-line layout (name line
// followed by the element pair) and the bare 2-line layout are accepted;
// unnamed entries get a "NORAD <id>" placeholder name. Malformed entries are
// skipped with a warning so one bad upstream record cannot poison a whole
// catalog refresh.
//
// Element lines are validated here, before anything reaches the SGP4
// initializer, which aborts the process on garbage input.
func Parse(r io.Reader, logger *slog.Logger) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}

	var records []Record
	for i := 0; i < len(lines); {
		name := ""
		if !strings.HasPrefix(lines[i], "1 ") {
			name = strings.TrimSpace(lines[i])
			i++
			if i >= len(lines) {
				logger.Warn("dangling name line at end of catalog", "name", name)
				break
			}
		}
		if i+1 >= len(lines) {
			logger.Warn("catalog ends mid-entry", "line_index", i)
			break
		}

		line1, line2 := lines[i], lines[i+1]
		rec, err := parseEntry(name, line1, line2)
		if err != nil {
			logger.Warn("skipping malformed catalog entry", "name", name, "line_index", i, "error", err)
			i++
			continue
		}

		records = append(records, rec)
		i += 2
	}

	return records, nil
}

// NormalizeSatellite checks that a satellite carries a well-formed element
// pair and fills Name and NoradID from the lines when absent. Inline
// satellites arriving over the API never pass through Parse, so this is
// their gate before the propagation layer sees them.
func NormalizeSatellite(s model.Satellite) (model.Satellite, error) {
	rec, err := parseEntry(s.Name, s.TLELine1, s.TLELine2)
	if err != nil {
		return model.Satellite{}, err
	}
	if s.Name == "" {
		s.Name = rec.Name
	}
	if s.NoradID == 0 {
		s.NoradID = rec.NoradID
	}
	return s, nil
}

// parseEntry validates one element pair and extracts the NORAD ID and epoch.
func parseEntry(name, line1, line2 string) (Record, error) {
	if len(line1) != tleLineLength || len(line2) != tleLineLength {
		return Record{}, fmt.Errorf("element lines must be %d characters, got %d and %d",
			tleLineLength, len(line1), len(line2))
	}
	if !strings.HasPrefix(line1, "1 ") || !strings.HasPrefix(line2, "2 ") {
		return Record{}, fmt.Errorf("element lines must start with '1 ' and '2 '")
	}

	// NORAD catalog number: columns 3-7 of both lines, and they must agree.
	id1 := strings.TrimSpace(line1[2:7])
	id2 := strings.TrimSpace(line2[2:7])
	if id1 != id2 {
		return Record{}, fmt.Errorf("line 1 and line 2 carry different catalog numbers: %q vs %q", id1, id2)
	}
	noradID, err := strconv.Atoi(id1)
	if err != nil {
		return Record{}, fmt.Errorf("invalid NORAD catalog number %q", id1)
	}

	// Epoch: columns 19-32 of line 1, YYDDD.DDDDDDDD.
	epoch, err := parseEpoch(strings.TrimSpace(line1[18:32]))
	if err != nil {
		return Record{}, err
	}

	if name == "" {
		name = fmt.Sprintf("NORAD %d", noradID)
	}
	return Record{
		Name:    name,
		NoradID: noradID,
		Epoch:   epoch,
		Line1:   line1,
		Line2:   line2,
	}, nil
}

// parseEpoch converts a YYDDD.DDDDDDDD epoch string into a UTC time.
// Two-digit years pivot at 57: 57-99 map to the 1900s, 00-56 to the 2000s.
func parseEpoch(s string) (time.Time, error) {
	if len(s) < 5 {
		return time.Time{}, fmt.Errorf("epoch field too short: %q", s)
	}

	year, err := strconv.Atoi(s[:2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch year in %q", s)
	}
	if year >= 57 {
		year += 1900
	} else {
		year += 2000
	}

	dayOfYear, err := strconv.ParseFloat(s[2:], 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch day in %q", s)
	}
	if dayOfYear < 1 || dayOfYear >= 367 {
		return time.Time{}, fmt.Errorf("epoch day %v out of range", dayOfYear)
	}

	// Day 1 is January 1.
	start := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	return start.Add(time.Duration((dayOfYear - 1) * float64(24*time.Hour))), nil
}
