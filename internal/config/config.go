// Package config loads a run description from a YAML, JSON, or TOML file.
// Section and key names follow the original JSON layout (camelCase sections,
// snake_case runtime keys), so existing configuration files keep working
// regardless of the format they are written in.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/NSF-Swift/satellite-overhead/internal/model"
	"github.com/NSF-Swift/satellite-overhead/internal/pointing"
	"github.com/NSF-Swift/satellite-overhead/internal/strategy"
)

// Configuration is everything a batch run needs besides the satellite list:
// the reservation, the pointing intent, runtime knobs, and where to find the
// catalog and transmitter files.
type Configuration struct {
	Reservation   model.Reservation
	Pointing      pointing.Spec
	Runtime       model.RuntimeSettings
	Strategy      strategy.Options
	StrategyName  string
	TLEFile       string
	FrequencyFile string
}

// Load reads and validates a configuration file. The format is chosen by
// file extension. Every failure is a configuration error: fatal to the
// caller, never retried.
func Load(path string) (Configuration, error) {
	if _, err := os.Stat(path); err != nil {
		return Configuration{}, model.ConfigErrorf("configuration file not found: %s", path)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Configuration{}, model.ConfigErrorf("reading %s: %v", path, err)
	}

	var cfg Configuration
	var err error

	if cfg.Reservation, err = loadReservation(v); err != nil {
		return Configuration{}, err
	}
	if cfg.Runtime, err = loadRuntime(v); err != nil {
		return Configuration{}, err
	}
	if cfg.Pointing, err = loadPointing(v); err != nil {
		return Configuration{}, err
	}
	loadStrategy(v, &cfg)

	cfg.TLEFile = v.GetString("satellites.tleFile")
	cfg.FrequencyFile = v.GetString("satellites.frequencyFile")

	if err := cfg.Reservation.Validate(); err != nil {
		return Configuration{}, err
	}
	if err := cfg.Runtime.Validate(); err != nil {
		return Configuration{}, err
	}
	return cfg, nil
}

func loadReservation(v *viper.Viper) (model.Reservation, error) {
	fac, err := loadFacility(v)
	if err != nil {
		return model.Reservation{}, err
	}

	if !v.IsSet("reservationWindow") {
		return model.Reservation{}, missingSection("reservationWindow")
	}
	begin, err := requiredTime(v, "reservationWindow", "startTimeUtc")
	if err != nil {
		return model.Reservation{}, err
	}
	end, err := requiredTime(v, "reservationWindow", "endTimeUtc")
	if err != nil {
		return model.Reservation{}, err
	}

	if !v.IsSet("frequencyRange") {
		return model.Reservation{}, missingSection("frequencyRange")
	}
	if !v.IsSet("frequencyRange.frequency") {
		return model.Reservation{}, missingField("frequencyRange", "frequency")
	}
	if !v.IsSet("frequencyRange.bandwidth") {
		return model.Reservation{}, missingField("frequencyRange", "bandwidth")
	}

	return model.Reservation{
		Facility: fac,
		Window:   model.TimeWindow{Begin: begin, End: end},
		Frequency: model.FrequencyRange{
			FrequencyMHz: v.GetFloat64("frequencyRange.frequency"),
			BandwidthMHz: v.GetFloat64("frequencyRange.bandwidth"),
		},
	}, nil
}

func loadFacility(v *viper.Viper) (model.Facility, error) {
	if !v.IsSet("facility") {
		return model.Facility{}, missingSection("facility")
	}
	for _, field := range []string{"latitude", "longitude", "name"} {
		if !v.IsSet("facility." + field) {
			return model.Facility{}, missingField("facility", field)
		}
	}

	fac := model.Facility{
		Name:         v.GetString("facility.name"),
		LatitudeDeg:  v.GetFloat64("facility.latitude"),
		LongitudeDeg: v.GetFloat64("facility.longitude"),
		ElevationM:   v.GetFloat64("facility.elevation"),
		BeamwidthDeg: 3.0,
	}
	if v.IsSet("facility.beamwidth") {
		fac.BeamwidthDeg = v.GetFloat64("facility.beamwidth")
	}
	if v.IsSet("facility.peakGainDbi") {
		gain := v.GetFloat64("facility.peakGainDbi")
		fac.PeakGainDbi = &gain
	}
	if v.IsSet("facility.antennaPattern") {
		var rows []struct {
			Angle float64 `mapstructure:"angle"`
			Gain  float64 `mapstructure:"gain"`
		}
		if err := v.UnmarshalKey("facility.antennaPattern", &rows); err != nil {
			return model.Facility{}, model.ConfigErrorf("facility antennaPattern: %v", err)
		}
		points := make([]model.PatternPoint, len(rows))
		for i, row := range rows {
			points[i] = model.PatternPoint{AngleDeg: row.Angle, GainDbi: row.Gain}
		}
		pattern, err := model.NewAntennaPattern(points)
		if err != nil {
			return model.Facility{}, err
		}
		fac.Pattern = pattern
	}
	return fac, nil
}

func loadRuntime(v *viper.Viper) (model.RuntimeSettings, error) {
	rt := model.DefaultRuntimeSettings()
	if v.IsSet("runtimeSettings.time_resolution_seconds") {
		seconds := v.GetFloat64("runtimeSettings.time_resolution_seconds")
		rt.TimeResolution = time.Duration(seconds * float64(time.Second))
	}
	if v.IsSet("runtimeSettings.concurrency_level") {
		rt.Concurrency = v.GetInt("runtimeSettings.concurrency_level")
	}
	if v.IsSet("runtimeSettings.min_altitude") {
		rt.MinAltitudeDeg = v.GetFloat64("runtimeSettings.min_altitude")
	}
	return rt, nil
}

// loadPointing reads the pointing sections. Exactly one of
// antennaPositionTimes, staticAntennaPosition, or observationTarget must be
// present; a config carrying several is ambiguous and rejected.
func loadPointing(v *viper.Viper) (pointing.Spec, error) {
	var specs []pointing.Spec

	if v.IsSet("antennaPositionTimes") {
		spec, err := loadCustomPointing(v)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}

	if v.IsSet("staticAntennaPosition") {
		if !v.IsSet("staticAntennaPosition.azimuth") {
			return nil, missingField("staticAntennaPosition", "azimuth")
		}
		if !v.IsSet("staticAntennaPosition.altitude") {
			return nil, missingField("staticAntennaPosition", "altitude")
		}
		specs = append(specs, pointing.Static{
			AzimuthDeg:  v.GetFloat64("staticAntennaPosition.azimuth"),
			AltitudeDeg: v.GetFloat64("staticAntennaPosition.altitude"),
		})
	}

	if v.IsSet("observationTarget") {
		if !v.IsSet("observationTarget.rightAscension") {
			return nil, missingField("observationTarget", "rightAscension")
		}
		if !v.IsSet("observationTarget.declination") {
			return nil, missingField("observationTarget", "declination")
		}
		spec, err := pointing.NewCelestial(
			v.GetString("observationTarget.rightAscension"),
			v.GetString("observationTarget.declination"),
		)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}

	switch len(specs) {
	case 0:
		return nil, model.ConfigErrorf("no antenna pointing configured: provide one of antennaPositionTimes, staticAntennaPosition, or observationTarget")
	case 1:
		return specs[0], nil
	default:
		return nil, model.ConfigErrorf("ambiguous antenna pointing: %d pointing sections configured, want exactly one", len(specs))
	}
}

func loadCustomPointing(v *viper.Viper) (pointing.Spec, error) {
	var rows []struct {
		Time     string  `mapstructure:"time"`
		Azimuth  float64 `mapstructure:"azimuth"`
		Altitude float64 `mapstructure:"altitude"`
	}
	if err := v.UnmarshalKey("antennaPositionTimes", &rows); err != nil {
		return nil, model.ConfigErrorf("antennaPositionTimes: %v", err)
	}
	if len(rows) == 0 {
		return nil, model.ConfigErrorf("antennaPositionTimes is empty")
	}

	traj := model.AntennaTrajectory{
		Times:       make([]time.Time, len(rows)),
		AzimuthDeg:  make([]float64, len(rows)),
		AltitudeDeg: make([]float64, len(rows)),
	}
	for i, row := range rows {
		when, err := ParseTimeUTC(row.Time)
		if err != nil {
			return nil, model.ConfigErrorf("antennaPositionTimes item #%d: %v", i, err)
		}
		traj.Times[i] = when
		traj.AzimuthDeg[i] = row.Azimuth
		traj.AltitudeDeg[i] = row.Altitude
	}
	if err := traj.Validate(); err != nil {
		return nil, err
	}
	return pointing.Custom{Trajectory: traj}, nil
}

func loadStrategy(v *viper.Viper, cfg *Configuration) {
	cfg.StrategyName = strategy.NameSimpleLinkBudget
	if v.IsSet("strategy.name") {
		cfg.StrategyName = v.GetString("strategy.name")
	}
	if v.IsSet("strategy.defaultEirpDbw") {
		eirp := v.GetFloat64("strategy.defaultEirpDbw")
		cfg.Strategy.DefaultEIRPdBW = &eirp
	}
}

func missingSection(name string) error {
	return model.ConfigErrorf("missing required section %q", name)
}

func missingField(section, field string) error {
	return model.ConfigErrorf("missing field %q in section %q", field, section)
}

func requiredTime(v *viper.Viper, section, field string) (time.Time, error) {
	key := section + "." + field
	if !v.IsSet(key) {
		return time.Time{}, missingField(section, field)
	}
	when, err := ParseTimeUTC(v.GetString(key))
	if err != nil {
		return time.Time{}, model.ConfigErrorf("invalid date in %s: %v", section, err)
	}
	return when, nil
}

// ParseTimeUTC accepts RFC 3339 timestamps and the common zone-less forms,
// which are read as UTC.
func ParseTimeUTC(s string) (time.Time, error) {
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as a timestamp", s)
}
