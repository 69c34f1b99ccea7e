package model

// Transmitter describes a satellite's downlink as far as interference math
// needs it. EIRP may be stated directly, or derived from transmit power plus
// antenna gain when both are known.
type Transmitter struct {
	EIRPdBW     *float64         `json:"eirp_dbw,omitempty"`
	PowerDbW    *float64         `json:"power_dbw,omitempty"`
	GainDbi     *float64         `json:"gain_dbi,omitempty"`
	Frequencies []FrequencyRange `json:"frequencies,omitempty"`
}

// ResolveEIRP returns the effective isotropic radiated power in dBW.
// An explicit EIRP wins; otherwise power and gain combine; otherwise the
// transmitter carries no usable power figure and ok is false.
func (t *Transmitter) ResolveEIRP() (eirp float64, ok bool) {
	if t == nil {
		return 0, false
	}
	if t.EIRPdBW != nil {
		return *t.EIRPdBW, true
	}
	if t.PowerDbW != nil && t.GainDbi != nil {
		return *t.PowerDbW + *t.GainDbi, true
	}
	return 0, false
}

// Satellite is one catalog entry: a name, the NORAD identifier, the two TLE
// lines the propagation layer consumes, and optional transmitter data. The
// core never interprets the TLE itself.
type Satellite struct {
	Name        string       `json:"name"`
	NoradID     int          `json:"norad_id"`
	TLELine1    string       `json:"tle_line1"`
	TLELine2    string       `json:"tle_line2"`
	Transmitter *Transmitter `json:"transmitter,omitempty"`
}
