// Package trajectory turns acoustic contours into time series, differences
// them and classifies their net movement against perceptual thresholds.
package trajectory

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrSeriesTooShort is returned when differencing fewer than 2 points.
	ErrSeriesTooShort = errors.New("trajectory: series needs at least 2 points")
	// ErrNotIncreasing is returned when times repeat or go backwards.
	ErrNotIncreasing = errors.New("trajectory: times must be strictly increasing")
	// ErrLengthMismatch is returned when parallel time and value slices differ in length.
	ErrLengthMismatch = errors.New("trajectory: time and value lengths differ")
	// ErrEmptySeries is returned when a trend is requested for a series with no points.
	ErrEmptySeries = errors.New("trajectory: empty series")
)

// TrackIndex identifies a measured quantity: 0 is pitch, 1..4 are formants.
type TrackIndex int

const (
	Pitch TrackIndex = iota
	F1
	F2
	F3
	F4
)

// MaxFormant is the highest formant number a track can refer to.
const MaxFormant = 4

// AllTracks lists F0..F4 in order.
var AllTracks = []TrackIndex{Pitch, F1, F2, F3, F4}

func (t TrackIndex) String() string {
	return fmt.Sprintf("F%d", int(t))
}

// Valid reports whether t is in 0..MaxFormant.
func (t TrackIndex) Valid() bool {
	return t >= Pitch && int(t) <= MaxFormant
}

// ParseTrack accepts "F0".."F4", "f2" or a bare digit.
func ParseTrack(s string) (TrackIndex, error) {
	if len(s) == 2 && (s[0] == 'F' || s[0] == 'f') {
		s = s[1:]
	}
	if len(s) != 1 || s[0] < '0' || s[0] > '9' {
		return 0, fmt.Errorf("trajectory: unknown track %q", s)
	}
	idx := TrackIndex(s[0] - '0')
	if !idx.Valid() {
		return 0, fmt.Errorf("trajectory: track %d out of range 0..%d", idx, MaxFormant)
	}
	return idx, nil
}

// Point is a single (time, value) sample. Time is in seconds.
type Point struct {
	Time  float64 `json:"t"`
	Value float64 `json:"v"`
}

// TimeSeries is an ordered sequence of points with strictly increasing time.
// Values may be NaN when the engine could not estimate a quantity and the
// caller asked for raw pass-through.
type TimeSeries []Point

// DifferenceSeries holds centred-time deltas derived from a TimeSeries.
type DifferenceSeries []Point

// FromParallel zips parallel time and value slices. A length mismatch is an
// internal invariant breach and is reported as ErrLengthMismatch.
func FromParallel(times, values []float64) (TimeSeries, error) {
	if len(times) != len(values) {
		return nil, fmt.Errorf("%w: %d times, %d values", ErrLengthMismatch, len(times), len(values))
	}
	s := make(TimeSeries, len(times))
	for i := range times {
		s[i] = Point{Time: times[i], Value: values[i]}
	}
	return s, nil
}

// Times returns the time column.
func (s TimeSeries) Times() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Time
	}
	return out
}

// Values returns the value column.
func (s TimeSeries) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Value
	}
	return out
}

// Validate checks the strictly-increasing time invariant.
func (s TimeSeries) Validate() error {
	for i := 1; i < len(s); i++ {
		if !(s[i].Time > s[i-1].Time) {
			return fmt.Errorf("%w: t[%d]=%g after t[%d]=%g", ErrNotIncreasing, i, s[i].Time, i-1, s[i-1].Time)
		}
	}
	return nil
}

// Between returns the points whose time falls in [from, to].
func (s TimeSeries) Between(from, to float64) TimeSeries {
	var out TimeSeries
	for _, p := range s {
		if p.Time >= from && p.Time <= to {
			out = append(out, p)
		}
	}
	return out
}

// Range returns the minimum and maximum defined values. ok is false when the
// series has no defined value.
func (s TimeSeries) Range() (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, p := range s {
		if math.IsNaN(p.Value) {
			continue
		}
		lo = math.Min(lo, p.Value)
		hi = math.Max(hi, p.Value)
		ok = true
	}
	return lo, hi, ok
}

// Times returns the time column.
func (d DifferenceSeries) Times() []float64 {
	return TimeSeries(d).Times()
}

// Values returns the value column.
func (d DifferenceSeries) Values() []float64 {
	return TimeSeries(d).Values()
}

// MaxAbs returns the largest absolute delta, ignoring NaN.
func (d DifferenceSeries) MaxAbs() float64 {
	m := 0.0
	for _, p := range d {
		if v := math.Abs(p.Value); v > m {
			m = v
		}
	}
	return m
}

// Salient returns the deltas whose magnitude exceeds jnd.
func (d DifferenceSeries) Salient(jnd float64) DifferenceSeries {
	var out DifferenceSeries
	for _, p := range d {
		if math.Abs(p.Value) > jnd {
			out = append(out, p)
		}
	}
	return out
}
