package trajectory

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// TrackSummary condenses one track for reporting.
type TrackSummary struct {
	Track     TrackIndex `json:"track" yaml:"track"`
	Name      string     `json:"name" yaml:"name"`
	Mean      float64    `json:"mean" yaml:"mean"`
	First     float64    `json:"first" yaml:"first"`
	Last      float64    `json:"last" yaml:"last"`
	NetChange float64    `json:"net_change" yaml:"net_change"`
	JND       float64    `json:"jnd" yaml:"jnd"`
	Trend     Trend      `json:"trend" yaml:"trend"`
	Points    int        `json:"points" yaml:"points"`
}

// Summarize computes the mean of the defined (non-NaN) values and the trend
// of s against jnd.
func Summarize(idx TrackIndex, s TimeSeries, jnd float64) (TrackSummary, error) {
	trend, err := s.Trend(jnd)
	if err != nil {
		return TrackSummary{}, err
	}
	first, last := s[0].Value, s[len(s)-1].Value
	return TrackSummary{
		Track:     idx,
		Name:      idx.String(),
		Mean:      NaNMean(s.Values()),
		First:     first,
		Last:      last,
		NetChange: last - first,
		JND:       jnd,
		Trend:     trend,
		Points:    len(s),
	}, nil
}

// NaNMean is the mean of the non-NaN entries, or NaN when there are none.
func NaNMean(values []float64) float64 {
	defined := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			defined = append(defined, v)
		}
	}
	if len(defined) == 0 {
		return math.NaN()
	}
	return stat.Mean(defined, nil)
}
