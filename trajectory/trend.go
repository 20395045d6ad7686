package trajectory

// Trend is the net direction of a trajectory.
type Trend int

const (
	Flat Trend = iota
	Rising
	Falling
)

func (t Trend) String() string {
	switch t {
	case Rising:
		return "Rising"
	case Falling:
		return "Falling"
	default:
		return "Flat"
	}
}

// MarshalText lets trends appear by name in JSON and YAML output.
func (t Trend) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// ClassifyTrend compares last-first against a JND. Both bounds are strict, so
// a net change of exactly jnd is Flat. There is no smoothing: one outlier at
// either end decides the result.
func ClassifyTrend(first, last, jnd float64) Trend {
	net := last - first
	switch {
	case net > jnd:
		return Rising
	case net < -jnd:
		return Falling
	default:
		return Flat
	}
}

// Trend classifies the series by its first and last points.
func (s TimeSeries) Trend(jnd float64) (Trend, error) {
	if len(s) == 0 {
		return Flat, ErrEmptySeries
	}
	return ClassifyTrend(s[0].Value, s[len(s)-1].Value, jnd), nil
}
