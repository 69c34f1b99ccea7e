package ephemeris

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"os"
	"testing"
	"time"

	"github.com/NSF-Swift/satellite-overhead/internal/grid"
	"github.com/NSF-Swift/satellite-overhead/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func testFacility() model.Facility {
	return model.Facility{
		Name:         "HCRO",
		LatitudeDeg:  40.8175,
		LongitudeDeg: -121.4733,
		ElevationM:   986,
		BeamwidthDeg: 3,
	}
}

func TestNewUnknownKind(t *testing.T) {
	times := grid.Generate(time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC), time.Date(2024, 4, 10, 1, 0, 0, 0, time.UTC), time.Minute)

	_, err := New(Kind("laplace"), times, testFacility(), testLogger())
	if err == nil {
		t.Fatal("expected error for unknown engine kind, got nil")
	}
	if !errors.Is(err, model.ErrConfiguration) {
		t.Errorf("error = %v, want ErrConfiguration", err)
	}
}

func TestNewSGP4Kind(t *testing.T) {
	times := grid.Generate(time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC), time.Date(2024, 4, 10, 1, 0, 0, 0, time.UTC), time.Minute)

	eng, err := New(KindSGP4, times, testFacility(), testLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if eng.Kind() != KindSGP4 {
		t.Errorf("Kind() = %q, want %q", eng.Kind(), KindSGP4)
	}
}

// TestVisibilityWindowsISS scans a full day so the ISS is guaranteed to pass
// above the horizon at least once, and checks the structural invariants of
// the returned windows.
func TestVisibilityWindowsISS(t *testing.T) {
	start := time.Date(2024, 4, 9, 12, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	times := grid.Generate(start, end, 30*time.Second)

	eng, err := New(KindSGP4, times, testFacility(), testLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	windows, err := eng.VisibilityWindows(context.Background(), issSatellite(), 0, start, end)
	if err != nil {
		t.Fatalf("VisibilityWindows failed: %v", err)
	}
	if len(windows) == 0 {
		t.Fatal("expected at least one pass over 24h, got none")
	}

	for i, w := range windows {
		if !w.Begin.Before(w.End) {
			t.Errorf("window %d: begin %v not before end %v", i, w.Begin, w.End)
		}
		if w.Begin.Before(start) {
			t.Errorf("window %d: begins %v before query start %v", i, w.Begin, start)
		}
		if w.End.After(end) {
			t.Errorf("window %d: ends %v after query end %v", i, w.End, end)
		}
		if i > 0 && windows[i-1].End.After(w.Begin) {
			t.Errorf("window %d begins %v before window %d ends %v", i, w.Begin, i-1, windows[i-1].End)
		}
	}

	// An ISS pass lasts a few minutes, never longer than ~15.
	for i, w := range windows {
		if w.Duration() > 20*time.Minute {
			t.Errorf("window %d: duration %v implausibly long for a LEO pass", i, w.Duration())
		}
	}
}

// TestVisibilityWindowsAlwaysAbove uses a threshold below any possible
// altitude, so the satellite never crosses it and the whole query interval
// comes back as a single window.
func TestVisibilityWindowsAlwaysAbove(t *testing.T) {
	start := time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	times := grid.Generate(start, end, time.Minute)

	eng, err := New(KindSGP4, times, testFacility(), testLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	windows, err := eng.VisibilityWindows(context.Background(), issSatellite(), -91, start, end)
	if err != nil {
		t.Fatalf("VisibilityWindows failed: %v", err)
	}
	if len(windows) != 1 {
		t.Fatalf("got %d windows, want 1", len(windows))
	}
	if !windows[0].Begin.Equal(start) {
		t.Errorf("window begin = %v, want query start %v", windows[0].Begin, start)
	}
	if !windows[0].End.Equal(end) {
		t.Errorf("window end = %v, want query end %v", windows[0].End, end)
	}
}

// TestVisibilityWindowsNeverAbove uses a threshold above 90 degrees, which
// no altitude can reach.
func TestVisibilityWindowsNeverAbove(t *testing.T) {
	start := time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	times := grid.Generate(start, end, time.Minute)

	eng, err := New(KindSGP4, times, testFacility(), testLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	windows, err := eng.VisibilityWindows(context.Background(), issSatellite(), 91, start, end)
	if err != nil {
		t.Fatalf("VisibilityWindows failed: %v", err)
	}
	if len(windows) != 0 {
		t.Errorf("got %d windows, want 0", len(windows))
	}
}

// TestVisibilityWindowsDegenerateQuery verifies that an empty or inverted
// query interval yields no windows and no error.
func TestVisibilityWindowsDegenerateQuery(t *testing.T) {
	start := time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC)
	times := grid.Generate(start, start.Add(time.Hour), time.Minute)

	eng, err := New(KindSGP4, times, testFacility(), testLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	for _, end := range []time.Time{start, start.Add(-time.Hour)} {
		windows, err := eng.VisibilityWindows(context.Background(), issSatellite(), 0, start, end)
		if err != nil {
			t.Errorf("end=%v: unexpected error %v", end, err)
		}
		if windows != nil {
			t.Errorf("end=%v: got %d windows, want none", end, len(windows))
		}
	}
}

// TestVisibilityWindowsSubResolutionQuery verifies that a query narrower than
// the grid resolution and landing between grid points degenerates to a single
// point check deciding the whole interval.
func TestVisibilityWindowsSubResolutionQuery(t *testing.T) {
	gridStart := time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC)
	times := grid.Generate(gridStart, gridStart.Add(time.Hour), 30*time.Second)

	eng, err := New(KindSGP4, times, testFacility(), testLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	start := gridStart.Add(10*time.Second + 200*time.Millisecond)
	end := start.Add(500 * time.Millisecond)

	windows, err := eng.VisibilityWindows(context.Background(), issSatellite(), -91, start, end)
	if err != nil {
		t.Fatalf("VisibilityWindows failed: %v", err)
	}
	if len(windows) != 1 {
		t.Fatalf("got %d windows, want 1", len(windows))
	}
	if !windows[0].Begin.Equal(start) || !windows[0].End.Equal(end) {
		t.Errorf("window = [%v, %v], want [%v, %v]", windows[0].Begin, windows[0].End, start, end)
	}
}

func TestVisibilityWindowsInvalidTLE(t *testing.T) {
	start := time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC)
	times := grid.Generate(start, start.Add(time.Hour), time.Minute)

	eng, err := New(KindSGP4, times, testFacility(), testLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	bad := model.Satellite{Name: "BROKEN", NoradID: 1, TLELine1: "garbage", TLELine2: "garbage"}
	_, err = eng.VisibilityWindows(context.Background(), bad, 0, start, start.Add(time.Hour))
	if err == nil {
		t.Fatal("expected error for invalid TLE, got nil")
	}
}

// TestTrajectoriesFullSpan computes one trajectory covering the entire grid
// and checks the arrays line up with the master grid.
func TestTrajectoriesFullSpan(t *testing.T) {
	start := time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	times := grid.Generate(start, end, 10*time.Second)

	eng, err := New(KindSGP4, times, testFacility(), testLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	trajs, err := eng.Trajectories(context.Background(), issSatellite(), []model.TimeWindow{{Begin: start, End: end}})
	if err != nil {
		t.Fatalf("Trajectories failed: %v", err)
	}
	if len(trajs) != 1 {
		t.Fatalf("got %d trajectories, want 1", len(trajs))
	}

	traj := trajs[0]
	if traj.Len() != len(times) {
		t.Fatalf("trajectory has %d points, want %d (full grid)", traj.Len(), len(times))
	}
	if !traj.Times[0].Equal(times[0]) || !traj.Times[traj.Len()-1].Equal(times[len(times)-1]) {
		t.Errorf("trajectory times [%v, %v] do not span grid [%v, %v]",
			traj.Times[0], traj.Times[traj.Len()-1], times[0], times[len(times)-1])
	}

	for i := 0; i < traj.Len(); i++ {
		if traj.AltitudeDeg[i] < -90 || traj.AltitudeDeg[i] > 90 {
			t.Errorf("point %d: altitude %.3f out of [-90, 90]", i, traj.AltitudeDeg[i])
		}
		if traj.AzimuthDeg[i] < 0 || traj.AzimuthDeg[i] >= 360 {
			t.Errorf("point %d: azimuth %.3f out of [0, 360)", i, traj.AzimuthDeg[i])
		}
		if traj.DistanceKm[i] <= 0 {
			t.Errorf("point %d: distance %.3f not positive", i, traj.DistanceKm[i])
		}
	}
}

// TestTrajectoriesSplitsWindows verifies that several windows come back as
// separate trajectories, in input order, each mapped onto its grid span.
func TestTrajectoriesSplitsWindows(t *testing.T) {
	start := time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC)
	times := grid.Generate(start, start.Add(time.Hour), 10*time.Second)

	eng, err := New(KindSGP4, times, testFacility(), testLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	windows := []model.TimeWindow{
		{Begin: start, End: start.Add(100 * time.Second)},
		{Begin: start.Add(200 * time.Second), End: start.Add(300 * time.Second)},
	}
	trajs, err := eng.Trajectories(context.Background(), issSatellite(), windows)
	if err != nil {
		t.Fatalf("Trajectories failed: %v", err)
	}
	if len(trajs) != 2 {
		t.Fatalf("got %d trajectories, want 2", len(trajs))
	}

	// 100s at 10s resolution covers 11 grid points, endpoints inclusive.
	for i, traj := range trajs {
		if traj.Len() != 11 {
			t.Errorf("trajectory %d: %d points, want 11", i, traj.Len())
		}
		if !traj.Times[0].Equal(windows[i].Begin) {
			t.Errorf("trajectory %d: first time %v, want window begin %v", i, traj.Times[0], windows[i].Begin)
		}
		if !traj.Times[traj.Len()-1].Equal(windows[i].End) {
			t.Errorf("trajectory %d: last time %v, want window end %v", i, traj.Times[traj.Len()-1], windows[i].End)
		}
	}
}

// TestTrajectoriesDropsOffGridWindows verifies that windows entirely outside
// the master grid produce no trajectory and no error.
func TestTrajectoriesDropsOffGridWindows(t *testing.T) {
	start := time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC)
	times := grid.Generate(start, start.Add(time.Hour), 10*time.Second)

	eng, err := New(KindSGP4, times, testFacility(), testLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	before := model.TimeWindow{Begin: start.Add(-2 * time.Hour), End: start.Add(-time.Hour)}
	inside := model.TimeWindow{Begin: start, End: start.Add(time.Minute)}

	trajs, err := eng.Trajectories(context.Background(), issSatellite(), []model.TimeWindow{before, inside})
	if err != nil {
		t.Fatalf("Trajectories failed: %v", err)
	}
	if len(trajs) != 1 {
		t.Fatalf("got %d trajectories, want 1 (off-grid window dropped)", len(trajs))
	}
	if !trajs[0].Times[0].Equal(start) {
		t.Errorf("surviving trajectory starts at %v, want %v", trajs[0].Times[0], start)
	}

	trajs, err = eng.Trajectories(context.Background(), issSatellite(), []model.TimeWindow{before})
	if err != nil {
		t.Fatalf("Trajectories failed: %v", err)
	}
	if trajs != nil {
		t.Errorf("got %d trajectories for fully off-grid window, want none", len(trajs))
	}

	trajs, err = eng.Trajectories(context.Background(), issSatellite(), nil)
	if err != nil {
		t.Fatalf("Trajectories failed: %v", err)
	}
	if trajs != nil {
		t.Errorf("got %d trajectories for no windows, want none", len(trajs))
	}
}

// TestPositionAtMatchesTrajectory verifies that the scalar cache-hit path and
// the batched path agree at a shared grid instant.
func TestPositionAtMatchesTrajectory(t *testing.T) {
	start := time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	times := grid.Generate(start, end, 10*time.Second)

	eng, err := New(KindSGP4, times, testFacility(), testLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	trajs, err := eng.Trajectories(context.Background(), issSatellite(), []model.TimeWindow{{Begin: start, End: end}})
	if err != nil {
		t.Fatalf("Trajectories failed: %v", err)
	}
	traj := trajs[0]

	const k = 100
	pos, err := eng.PositionAt(issSatellite(), times[k])
	if err != nil {
		t.Fatalf("PositionAt failed: %v", err)
	}

	if math.Abs(pos.AltitudeDeg-traj.AltitudeDeg[k]) > 1e-9 {
		t.Errorf("altitude = %.12f, trajectory has %.12f", pos.AltitudeDeg, traj.AltitudeDeg[k])
	}
	if math.Abs(pos.AzimuthDeg-traj.AzimuthDeg[k]) > 1e-9 {
		t.Errorf("azimuth = %.12f, trajectory has %.12f", pos.AzimuthDeg, traj.AzimuthDeg[k])
	}
	if math.Abs(pos.DistanceKm-traj.DistanceKm[k]) > 1e-9 {
		t.Errorf("distance = %.9f, trajectory has %.9f", pos.DistanceKm, traj.DistanceKm[k])
	}
}

// TestPositionAtOffGrid exercises the cache-miss path for an instant between
// grid points.
func TestPositionAtOffGrid(t *testing.T) {
	start := time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC)
	times := grid.Generate(start, start.Add(time.Hour), 10*time.Second)

	eng, err := New(KindSGP4, times, testFacility(), testLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	pos, err := eng.PositionAt(issSatellite(), start.Add(15*time.Second))
	if err != nil {
		t.Fatalf("PositionAt failed: %v", err)
	}
	if pos.AltitudeDeg < -90 || pos.AltitudeDeg > 90 {
		t.Errorf("altitude %.3f out of [-90, 90]", pos.AltitudeDeg)
	}
	if pos.AzimuthDeg < 0 || pos.AzimuthDeg >= 360 {
		t.Errorf("azimuth %.3f out of [0, 360)", pos.AzimuthDeg)
	}
	if pos.DistanceKm <= 0 {
		t.Errorf("distance %.3f not positive", pos.DistanceKm)
	}
}

// BenchmarkTrajectoriesHour measures one batched pass over an hour-long grid
// at one-second resolution.
func BenchmarkTrajectoriesHour(b *testing.B) {
	start := time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	times := grid.Generate(start, end, time.Second)

	eng, err := New(KindSGP4, times, testFacility(), testLogger())
	if err != nil {
		b.Fatalf("New failed: %v", err)
	}
	windows := []model.TimeWindow{{Begin: start, End: end}}
	sat := issSatellite()
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := eng.Trajectories(ctx, sat, windows); err != nil {
			b.Fatal(err)
		}
	}
}
