package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/NSF-Swift/satellite-overhead/internal/model"
)

// report carries one run's results plus the display options that shape the
// rendered output. Limit trims table rows only; JSON and CSV always emit
// every event.
type report struct {
	RanHorizon bool
	RanBeam    bool
	RanPower   bool
	Horizon    []model.SatelliteTrajectory
	Crossings  []model.InterferenceResult
	Powers     []model.InterferenceResult
	Elapsed    time.Duration
	Limit      int
	LocalTime  bool
}

func printSummary(w io.Writer, res model.Reservation, satCount int) {
	fmt.Fprintf(w, "Facility:    %s (%.4f, %.4f)\n", res.Facility.Name, res.Facility.LatitudeDeg, res.Facility.LongitudeDeg)
	fmt.Fprintf(w, "Window:      %s to %s\n",
		res.Window.Begin.UTC().Format("2006-01-02 15:04:05"),
		res.Window.End.UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(w, "Frequency:   %.1f MHz (bandwidth %.1f MHz)\n", res.Frequency.FrequencyMHz, res.Frequency.BandwidthMHz)
	fmt.Fprintf(w, "Satellites:  %d\n\n", satCount)
}

func formatTime(t time.Time, local bool) string {
	if local {
		return t.Local().Format("2006-01-02 15:04:05")
	}
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}

// maxAltitude returns the trajectory's highest sample and when it occurs.
// The trajectory must be non-empty.
func maxAltitude(t model.SatelliteTrajectory) (float64, time.Time) {
	best := 0
	for i := range t.AltitudeDeg {
		if t.AltitudeDeg[i] > t.AltitudeDeg[best] {
			best = i
		}
	}
	return t.AltitudeDeg[best], t.Times[best]
}

// peakLevel returns the largest interference sample. ok is false when the
// strategy produced a purely geometric result with no levels.
func peakLevel(r model.InterferenceResult) (float64, bool) {
	if len(r.Level) == 0 {
		return 0, false
	}
	peak := r.Level[0]
	for _, v := range r.Level[1:] {
		if v > peak {
			peak = v
		}
	}
	return peak, true
}

func nonEmpty(trajs []model.SatelliteTrajectory) []model.SatelliteTrajectory {
	out := trajs[:0:0]
	for _, t := range trajs {
		if t.Len() > 0 {
			out = append(out, t)
		}
	}
	return out
}

func nonEmptyResults(results []model.InterferenceResult) []model.InterferenceResult {
	out := results[:0:0]
	for _, r := range results {
		if r.Trajectory.Len() > 0 {
			out = append(out, r)
		}
	}
	return out
}

func writeTables(w io.Writer, rep report) {
	horizon := nonEmpty(rep.Horizon)
	crossings := nonEmptyResults(rep.Crossings)
	powers := nonEmptyResults(rep.Powers)

	if rep.RanHorizon {
		fmt.Fprintf(w, "Satellites above horizon: %d\n", len(horizon))
	}
	if rep.RanBeam {
		fmt.Fprintf(w, "Main beam crossings:      %d\n", len(crossings))
	}
	if rep.RanPower {
		fmt.Fprintf(w, "Interference estimates:   %d\n", len(powers))
	}
	fmt.Fprintf(w, "Computation time:         %.2f seconds\n", rep.Elapsed.Seconds())

	if rep.RanHorizon && len(horizon) > 0 {
		fmt.Fprintf(w, "\nSatellites Above Horizon\n")
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tSatellite\tRise Time\tSet Time\tMax Alt\tTime of Max")
		shown := 0
		for i, t := range horizon {
			if rep.Limit > 0 && shown >= rep.Limit {
				break
			}
			window, _ := t.OverheadTime()
			alt, at := maxAltitude(t)
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.1f°\t%s\n",
				i+1, t.Satellite.Name,
				formatTime(window.Begin, rep.LocalTime),
				formatTime(window.End, rep.LocalTime),
				alt, formatTime(at, rep.LocalTime))
			shown++
		}
		tw.Flush()
		if rest := len(horizon) - shown; rest > 0 {
			fmt.Fprintf(w, "... and %d more\n", rest)
		}
	}

	if rep.RanBeam && len(crossings) > 0 {
		fmt.Fprintf(w, "\nMain Beam Interference Events\n")
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tSatellite\tStart\tEnd\tDuration (s)")
		shown := 0
		for i, r := range crossings {
			if rep.Limit > 0 && shown >= rep.Limit {
				break
			}
			window, _ := r.Trajectory.OverheadTime()
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.1f\n",
				i+1, r.Trajectory.Satellite.Name,
				formatTime(window.Begin, rep.LocalTime),
				formatTime(window.End, rep.LocalTime),
				window.End.Sub(window.Begin).Seconds())
			shown++
		}
		tw.Flush()
		if rest := len(crossings) - shown; rest > 0 {
			fmt.Fprintf(w, "... and %d more\n", rest)
		}
	}

	if rep.RanPower && len(powers) > 0 {
		fmt.Fprintf(w, "\nInterference Power Estimates\n")
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tSatellite\tStart\tEnd\tPeak Level")
		shown := 0
		for i, r := range powers {
			if rep.Limit > 0 && shown >= rep.Limit {
				break
			}
			window, _ := r.Trajectory.OverheadTime()
			level := "n/a"
			if peak, ok := peakLevel(r); ok {
				level = fmt.Sprintf("%.1f %s", peak, r.Units)
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
				i+1, r.Trajectory.Satellite.Name,
				formatTime(window.Begin, rep.LocalTime),
				formatTime(window.End, rep.LocalTime),
				level)
			shown++
		}
		tw.Flush()
		if rest := len(powers) - shown; rest > 0 {
			fmt.Fprintf(w, "... and %d more\n", rest)
		}
	}
}

type passSummary struct {
	Satellite      string  `json:"satellite"`
	SatelliteID    int     `json:"satellite_id"`
	Start          string  `json:"start"`
	End            string  `json:"end"`
	DurationSec    float64 `json:"duration_sec"`
	MaxAltitudeDeg float64 `json:"max_altitude_deg"`
}

type powerSummary struct {
	passSummary
	PeakLevel  float64 `json:"peak_level"`
	LevelUnits string  `json:"level_units"`
}

func summarize(t model.SatelliteTrajectory) passSummary {
	window, _ := t.OverheadTime()
	alt, _ := maxAltitude(t)
	return passSummary{
		Satellite:      t.Satellite.Name,
		SatelliteID:    t.Satellite.NoradID,
		Start:          window.Begin.UTC().Format(time.RFC3339),
		End:            window.End.UTC().Format(time.RFC3339),
		DurationSec:    window.End.Sub(window.Begin).Seconds(),
		MaxAltitudeDeg: alt,
	}
}

func writeJSONReport(w io.Writer, rep report) error {
	out := struct {
		AboveHorizon []passSummary  `json:"above_horizon"`
		Interference []passSummary  `json:"interference"`
		Power        []powerSummary `json:"interference_power,omitempty"`
	}{
		AboveHorizon: []passSummary{},
		Interference: []passSummary{},
	}
	for _, t := range nonEmpty(rep.Horizon) {
		out.AboveHorizon = append(out.AboveHorizon, summarize(t))
	}
	for _, r := range nonEmptyResults(rep.Crossings) {
		out.Interference = append(out.Interference, summarize(r.Trajectory))
	}
	for _, r := range nonEmptyResults(rep.Powers) {
		entry := powerSummary{passSummary: summarize(r.Trajectory), LevelUnits: r.Units}
		entry.PeakLevel, _ = peakLevel(r)
		out.Power = append(out.Power, entry)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeCSVReport(w io.Writer, rep report) error {
	cw := csv.NewWriter(w)
	header := []string{"result", "satellite", "satellite_id", "start", "end", "duration_sec", "max_altitude_deg", "peak_level", "level_units"}
	if err := cw.Write(header); err != nil {
		return err
	}
	row := func(kind string, s passSummary, peak, units string) error {
		return cw.Write([]string{
			kind, s.Satellite, strconv.Itoa(s.SatelliteID),
			s.Start, s.End,
			strconv.FormatFloat(s.DurationSec, 'f', 1, 64),
			strconv.FormatFloat(s.MaxAltitudeDeg, 'f', 1, 64),
			peak, units,
		})
	}
	for _, t := range nonEmpty(rep.Horizon) {
		if err := row("horizon", summarize(t), "", ""); err != nil {
			return err
		}
	}
	for _, r := range nonEmptyResults(rep.Crossings) {
		if err := row("interference", summarize(r.Trajectory), "", ""); err != nil {
			return err
		}
	}
	for _, r := range nonEmptyResults(rep.Powers) {
		peak, units := "", ""
		if v, ok := peakLevel(r); ok {
			peak = strconv.FormatFloat(v, 'f', 2, 64)
			units = r.Units
		}
		if err := row("interference_power", summarize(r.Trajectory), peak, units); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
