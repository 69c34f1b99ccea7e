package strategy

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/NSF-Swift/satellite-overhead/internal/model"
)

func f64(v float64) *float64 { return &v }

func secondTimes(start time.Time, n int) []time.Time {
	times := make([]time.Time, n)
	for i := range times {
		times[i] = start.Add(time.Duration(i) * time.Second)
	}
	return times
}

// beamFacility has a 3 degree beamwidth, so a 1.5 degree beam radius.
func beamFacility() model.Facility {
	return model.Facility{
		Name:         "HCRO",
		LatitudeDeg:  40.8175,
		LongitudeDeg: -121.4733,
		ElevationM:   986,
		BeamwidthDeg: 3,
		PeakGainDbi:  f64(50),
	}
}

// steadyAntenna points at az 180, alt 45 across all of times.
func steadyAntenna(times []time.Time) model.AntennaTrajectory {
	az := make([]float64, len(times))
	alt := make([]float64, len(times))
	for i := range times {
		az[i] = 180
		alt[i] = 45
	}
	return model.AntennaTrajectory{Times: times, AzimuthDeg: az, AltitudeDeg: alt}
}

func synthTrajectory(times []time.Time, az, alt, dist []float64) model.SatelliteTrajectory {
	return model.SatelliteTrajectory{
		Satellite:   model.Satellite{Name: "SYNTH-1", NoradID: 1},
		Times:       times,
		AzimuthDeg:  az,
		AltitudeDeg: alt,
		DistanceKm:  dist,
	}
}

func withEIRP(traj model.SatelliteTrajectory, eirpDbW float64) model.SatelliteTrajectory {
	traj.Satellite.Transmitter = &model.Transmitter{EIRPdBW: f64(eirpDbW)}
	return traj
}

func testPattern(t *testing.T) *model.AntennaPattern {
	t.Helper()
	p, err := model.NewAntennaPattern([]model.PatternPoint{
		{AngleDeg: 0, GainDbi: 50},
		{AngleDeg: 2, GainDbi: 30},
		{AngleDeg: 10, GainDbi: -5},
	})
	if err != nil {
		t.Fatalf("NewAntennaPattern failed: %v", err)
	}
	return p
}

func TestForName(t *testing.T) {
	for _, name := range []string{NameGeometric, NameSimpleLinkBudget, NamePatternLinkBudget} {
		t.Run(name, func(t *testing.T) {
			s, err := ForName(name, Options{})
			if err != nil {
				t.Fatalf("ForName(%q) failed: %v", name, err)
			}
			if s.Name() != name {
				t.Errorf("Name() = %q, want %q", s.Name(), name)
			}
		})
	}

	_, err := ForName("psychic", Options{})
	if err == nil {
		t.Fatal("expected error for unknown strategy name, got nil")
	}
	if !errors.Is(err, model.ErrConfiguration) {
		t.Errorf("error = %v, want ErrConfiguration", err)
	}
}

// TestGeometricMasksInBeamPoints verifies that only the points within the
// beam radius survive, in their original order.
func TestGeometricMasksInBeamPoints(t *testing.T) {
	times := secondTimes(time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC), 5)
	// Separations from the antenna's alt 45: 5, 0, 0.5, 5, 0 degrees.
	traj := synthTrajectory(times,
		[]float64{180, 180, 180, 180, 180},
		[]float64{50, 45, 45.5, 50, 45},
		[]float64{500, 500, 500, 500, 500},
	)

	res, err := Geometric{}.Calculate(traj, steadyAntenna(times), beamFacility(), model.FrequencyRange{})
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	if res == nil {
		t.Fatal("expected a result, got nil")
	}

	wantTimes := []time.Time{times[1], times[2], times[4]}
	if res.Trajectory.Len() != len(wantTimes) {
		t.Fatalf("masked trajectory has %d points, want %d", res.Trajectory.Len(), len(wantTimes))
	}
	for i, want := range wantTimes {
		if !res.Trajectory.Times[i].Equal(want) {
			t.Errorf("point %d: time %v, want %v", i, res.Trajectory.Times[i], want)
		}
	}
	if res.Level != nil {
		t.Errorf("geometric result carries levels %v, want none", res.Level)
	}
	if res.Meta["strategy"] != NameGeometric {
		t.Errorf("meta strategy = %q, want %q", res.Meta["strategy"], NameGeometric)
	}
}

func TestGeometricNoPointsInBeam(t *testing.T) {
	times := secondTimes(time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC), 3)
	traj := synthTrajectory(times,
		[]float64{180, 180, 180},
		[]float64{50, 55, 60},
		[]float64{500, 500, 500},
	)

	res, err := Geometric{}.Calculate(traj, steadyAntenna(times), beamFacility(), model.FrequencyRange{})
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	if res != nil {
		t.Errorf("expected no result for an out-of-beam trajectory, got %d points", res.Trajectory.Len())
	}
}

// TestGeometricBeamEdgeInclusive puts a point exactly on the beam radius;
// the comparison is inclusive, so it qualifies.
func TestGeometricBeamEdgeInclusive(t *testing.T) {
	times := secondTimes(time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC), 1)
	traj := synthTrajectory(times, []float64{180}, []float64{46.5}, []float64{500})

	res, err := Geometric{}.Calculate(traj, steadyAntenna(times), beamFacility(), model.FrequencyRange{})
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	if res == nil {
		t.Fatal("point exactly on the beam edge was not kept")
	}
	if res.Trajectory.Len() != 1 {
		t.Errorf("masked trajectory has %d points, want 1", res.Trajectory.Len())
	}
}

// TestGeometricEnterExitBeam: outside at t0, inside at t1, outside at t2
// yields exactly the single t1 point.
func TestGeometricEnterExitBeam(t *testing.T) {
	times := secondTimes(time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC), 3)
	traj := synthTrajectory(times,
		[]float64{180, 180, 180},
		[]float64{40, 45, 50},
		[]float64{500, 500, 500},
	)

	res, err := Geometric{}.Calculate(traj, steadyAntenna(times), beamFacility(), model.FrequencyRange{})
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	if res == nil {
		t.Fatal("expected a result, got nil")
	}
	if res.Trajectory.Len() != 1 {
		t.Fatalf("masked trajectory has %d points, want exactly 1", res.Trajectory.Len())
	}
	if !res.Trajectory.Times[0].Equal(times[1]) {
		t.Errorf("kept point at %v, want %v", res.Trajectory.Times[0], times[1])
	}
}

// TestGeometricReservationStartsMidPointing: the antenna timeline begins one
// second before the satellite trajectory and tracks it throughout. The first
// reported timestamp must be the trajectory's first time, never earlier.
func TestGeometricReservationStartsMidPointing(t *testing.T) {
	begin := time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC)
	antTimes := secondTimes(begin.Add(-time.Second), 6)
	satTimes := secondTimes(begin, 5)

	traj := synthTrajectory(satTimes,
		[]float64{180, 180, 180, 180, 180},
		[]float64{45, 45, 45, 45, 45},
		[]float64{500, 500, 500, 500, 500},
	)

	res, err := Geometric{}.Calculate(traj, steadyAntenna(antTimes), beamFacility(), model.FrequencyRange{})
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	if res == nil {
		t.Fatal("expected a result, got nil")
	}
	if res.Trajectory.Len() != len(satTimes) {
		t.Fatalf("masked trajectory has %d points, want %d", res.Trajectory.Len(), len(satTimes))
	}
	if !res.Trajectory.Times[0].Equal(begin) {
		t.Errorf("first reported time %v, want the trajectory begin %v", res.Trajectory.Times[0], begin)
	}
	if res.Trajectory.Times[0].Before(begin) {
		t.Errorf("first reported time %v precedes the trajectory begin %v", res.Trajectory.Times[0], begin)
	}
}

// TestGeometricSourceUnchanged verifies masking copies rather than mutating.
func TestGeometricSourceUnchanged(t *testing.T) {
	times := secondTimes(time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC), 3)
	traj := synthTrajectory(times,
		[]float64{180, 180, 180},
		[]float64{40, 45, 50},
		[]float64{500, 600, 700},
	)

	savedAz := append([]float64(nil), traj.AzimuthDeg...)
	savedAlt := append([]float64(nil), traj.AltitudeDeg...)
	savedDist := append([]float64(nil), traj.DistanceKm...)

	if _, err := (Geometric{}).Calculate(traj, steadyAntenna(times), beamFacility(), model.FrequencyRange{}); err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}

	for i := range savedAz {
		if traj.AzimuthDeg[i] != savedAz[i] || traj.AltitudeDeg[i] != savedAlt[i] || traj.DistanceKm[i] != savedDist[i] {
			t.Fatalf("source trajectory mutated at point %d", i)
		}
	}
}

// TestSimpleLinkBudgetKnownValue pins the received power for round numbers:
// 1000 km and 1 GHz give an FSPL of 152.45 dB.
func TestSimpleLinkBudgetKnownValue(t *testing.T) {
	times := secondTimes(time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC), 1)
	traj := withEIRP(synthTrajectory(times, []float64{180}, []float64{45}, []float64{1000}), 30)
	freq := model.FrequencyRange{FrequencyMHz: 1000, BandwidthMHz: 10}

	res, err := (SimpleLinkBudget{}).Calculate(traj, steadyAntenna(times), beamFacility(), freq)
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	if res == nil {
		t.Fatal("expected a result, got nil")
	}
	if res.Units != "dBW" {
		t.Errorf("units = %q, want dBW", res.Units)
	}
	if len(res.Level) != 1 {
		t.Fatalf("got %d levels, want 1", len(res.Level))
	}

	// 30 dBW EIRP - 152.45 dB FSPL + 50 dBi gain.
	want := -72.45
	if math.Abs(res.Level[0]-want) > 1e-6 {
		t.Errorf("level = %.9f dBW, want %.2f", res.Level[0], want)
	}
}

// TestSimpleLinkBudgetDistanceDoubling verifies that doubling the distance
// costs exactly 20·log10(2) dB.
func TestSimpleLinkBudgetDistanceDoubling(t *testing.T) {
	times := secondTimes(time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC), 1)
	freq := model.FrequencyRange{FrequencyMHz: 2250, BandwidthMHz: 20}

	near := withEIRP(synthTrajectory(times, []float64{180}, []float64{45}, []float64{1000}), 30)
	far := withEIRP(synthTrajectory(times, []float64{180}, []float64{45}, []float64{2000}), 30)

	resNear, err := (SimpleLinkBudget{}).Calculate(near, steadyAntenna(times), beamFacility(), freq)
	if err != nil {
		t.Fatalf("Calculate(near) failed: %v", err)
	}
	resFar, err := (SimpleLinkBudget{}).Calculate(far, steadyAntenna(times), beamFacility(), freq)
	if err != nil {
		t.Fatalf("Calculate(far) failed: %v", err)
	}

	got := resNear.Level[0] - resFar.Level[0]
	want := 20 * math.Log10(2)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("doubling distance changed level by %.12f dB, want %.12f", got, want)
	}
}

func TestSimpleLinkBudgetMissingPeakGain(t *testing.T) {
	times := secondTimes(time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC), 1)
	traj := withEIRP(synthTrajectory(times, []float64{180}, []float64{45}, []float64{1000}), 30)
	fac := beamFacility()
	fac.PeakGainDbi = nil

	_, err := (SimpleLinkBudget{}).Calculate(traj, steadyAntenna(times), fac, model.FrequencyRange{FrequencyMHz: 1000})
	if err == nil {
		t.Fatal("expected error for missing peak gain, got nil")
	}
	if !errors.Is(err, model.ErrConfiguration) {
		t.Errorf("error = %v, want ErrConfiguration", err)
	}
}

func TestSimpleLinkBudgetNoTransmitterNoDefault(t *testing.T) {
	times := secondTimes(time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC), 1)
	traj := synthTrajectory(times, []float64{180}, []float64{45}, []float64{1000})

	res, err := (SimpleLinkBudget{}).Calculate(traj, steadyAntenna(times), beamFacility(), model.FrequencyRange{FrequencyMHz: 1000})
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	if res != nil {
		t.Error("expected no result without transmitter data or a default EIRP")
	}
}

func TestSimpleLinkBudgetDefaultEIRP(t *testing.T) {
	times := secondTimes(time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC), 1)
	bare := synthTrajectory(times, []float64{180}, []float64{45}, []float64{1000})
	freq := model.FrequencyRange{FrequencyMHz: 1000}

	s, err := ForName(NameSimpleLinkBudget, Options{DefaultEIRPdBW: f64(30)})
	if err != nil {
		t.Fatalf("ForName failed: %v", err)
	}

	resDefault, err := s.Calculate(bare, steadyAntenna(times), beamFacility(), freq)
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	if resDefault == nil {
		t.Fatal("expected a result using the default EIRP, got nil")
	}

	resOwn, err := s.Calculate(withEIRP(bare, 30), steadyAntenna(times), beamFacility(), freq)
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	if resDefault.Level[0] != resOwn.Level[0] {
		t.Errorf("default EIRP level %.6f differs from explicit EIRP level %.6f", resDefault.Level[0], resOwn.Level[0])
	}

	// The satellite's own figure wins over the default.
	resOverride, err := s.Calculate(withEIRP(bare, 40), steadyAntenna(times), beamFacility(), freq)
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	if got := resOverride.Level[0] - resDefault.Level[0]; math.Abs(got-10) > 1e-9 {
		t.Errorf("own EIRP 10 dB above default raised level by %.6f dB, want 10", got)
	}
}

// TestPatternLinkBudgetBoresight verifies the boresight gain is the pattern's
// first entry exactly.
func TestPatternLinkBudgetBoresight(t *testing.T) {
	times := secondTimes(time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC), 1)
	traj := withEIRP(synthTrajectory(times, []float64{180}, []float64{45}, []float64{1000}), 30)
	fac := beamFacility()
	fac.Pattern = testPattern(t)
	freq := model.FrequencyRange{FrequencyMHz: 1000}

	res, err := (PatternLinkBudget{}).Calculate(traj, steadyAntenna(times), fac, freq)
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	if res == nil {
		t.Fatal("expected a result, got nil")
	}

	// 30 dBW EIRP - 152.45 dB FSPL + 50 dBi boresight gain.
	want := -72.45
	if math.Abs(res.Level[0]-want) > 1e-6 {
		t.Errorf("level = %.9f dBW, want %.2f", res.Level[0], want)
	}
}

// TestPatternLinkBudgetMonotone walks the satellite away from boresight at a
// fixed distance; with a decreasing pattern the levels never increase.
func TestPatternLinkBudgetMonotone(t *testing.T) {
	const n = 9
	times := secondTimes(time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC), n)
	az := make([]float64, n)
	alt := make([]float64, n)
	dist := make([]float64, n)
	for i := 0; i < n; i++ {
		az[i] = 180
		alt[i] = 45 + float64(i) // off-axis angle i degrees
		dist[i] = 1000
	}
	traj := withEIRP(synthTrajectory(times, az, alt, dist), 30)
	fac := beamFacility()
	fac.Pattern = testPattern(t)

	res, err := (PatternLinkBudget{}).Calculate(traj, steadyAntenna(times), fac, model.FrequencyRange{FrequencyMHz: 1000})
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	if res == nil {
		t.Fatal("expected a result, got nil")
	}

	for i := 1; i < n; i++ {
		if res.Level[i] > res.Level[i-1]+1e-12 {
			t.Errorf("level rose from %.6f to %.6f between points %d and %d", res.Level[i-1], res.Level[i], i-1, i)
		}
	}
}

func TestPatternLinkBudgetMissingPattern(t *testing.T) {
	times := secondTimes(time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC), 1)
	traj := withEIRP(synthTrajectory(times, []float64{180}, []float64{45}, []float64{1000}), 30)

	_, err := (PatternLinkBudget{}).Calculate(traj, steadyAntenna(times), beamFacility(), model.FrequencyRange{FrequencyMHz: 1000})
	if err == nil {
		t.Fatal("expected error for missing antenna pattern, got nil")
	}
	if !errors.Is(err, model.ErrConfiguration) {
		t.Errorf("error = %v, want ErrConfiguration", err)
	}
}

func TestLinkBudgetInvalidFrequency(t *testing.T) {
	times := secondTimes(time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC), 1)
	traj := withEIRP(synthTrajectory(times, []float64{180}, []float64{45}, []float64{1000}), 30)
	fac := beamFacility()
	fac.Pattern = testPattern(t)

	strategies := []Strategy{SimpleLinkBudget{}, PatternLinkBudget{}}
	for _, s := range strategies {
		_, err := s.Calculate(traj, steadyAntenna(times), fac, model.FrequencyRange{FrequencyMHz: 0})
		if err == nil {
			t.Errorf("%s: expected error for zero frequency, got nil", s.Name())
			continue
		}
		if !errors.Is(err, model.ErrConfiguration) {
			t.Errorf("%s: error = %v, want ErrConfiguration", s.Name(), err)
		}
	}
}
