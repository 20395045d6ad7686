package trajectory

import (
	"errors"
	"fmt"
	"math"
)

// ErrMissingSource is returned when a requested track has no contour to read.
var ErrMissingSource = errors.New("trajectory: missing contour source")

// Contour is the capability an acoustic engine exposes for one measured
// quantity. Frame indices are 0-based. ValueAtTime returns NaN where the
// quantity is undefined.
type Contour interface {
	FrameCount() int
	TimeOfFrame(i int) float64
	ValueAtTime(t float64) float64
	Timestamps() []float64
}

// FormantContours exposes one Contour per formant number (1..MaxFormant).
type FormantContours interface {
	Formant(n int) Contour
}

// ExtractOptions selects and gates the tracks produced by ExtractTracks.
type ExtractOptions struct {
	// Indices lists the tracks to extract; output order follows it.
	Indices []TrackIndex

	// IntensityFloor gates values by intensity (dB). Zero disables gating;
	// otherwise a value is kept only where intensity >= IntensityFloor and
	// replaced with 0.0 elsewhere.
	IntensityFloor float64

	// SubstituteUndefined replaces NaN values with 0.0.
	SubstituteUndefined bool

	// Grid, when set, supplies the timestamps for every track instead of each
	// track's own analysis grid.
	Grid Contour
}

// ExtractTracks samples pitch and formant contours into TimeSeries, one per
// requested index. It holds no state: identical inputs give identical output.
func ExtractTracks(pitch Contour, formants FormantContours, intensity Contour, opts ExtractOptions) ([]TimeSeries, error) {
	if opts.IntensityFloor != 0 && intensity == nil {
		return nil, fmt.Errorf("%w: intensity required for floor %g dB", ErrMissingSource, opts.IntensityFloor)
	}

	out := make([]TimeSeries, 0, len(opts.Indices))
	for _, idx := range opts.Indices {
		src, err := resolveContour(idx, pitch, formants)
		if err != nil {
			return nil, err
		}

		grid := src
		if opts.Grid != nil {
			grid = opts.Grid
		}

		times := grid.Timestamps()
		series := make(TimeSeries, len(times))
		for i, t := range times {
			series[i] = Point{Time: t, Value: sampleAt(src, intensity, t, opts)}
		}
		out = append(out, series)
	}
	return out, nil
}

func resolveContour(idx TrackIndex, pitch Contour, formants FormantContours) (Contour, error) {
	if !idx.Valid() {
		return nil, fmt.Errorf("trajectory: track %d out of range 0..%d", idx, MaxFormant)
	}
	if idx == Pitch {
		if pitch == nil {
			return nil, fmt.Errorf("%w: pitch", ErrMissingSource)
		}
		return pitch, nil
	}
	if formants == nil {
		return nil, fmt.Errorf("%w: formants", ErrMissingSource)
	}
	c := formants.Formant(int(idx))
	if c == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingSource, idx)
	}
	return c, nil
}

func sampleAt(src, intensity Contour, t float64, opts ExtractOptions) float64 {
	if opts.IntensityFloor != 0 {
		// NaN intensity fails the comparison and is gated off as well.
		if !(intensity.ValueAtTime(t) >= opts.IntensityFloor) {
			return 0
		}
	}
	v := src.ValueAtTime(t)
	if math.IsNaN(v) && opts.SubstituteUndefined {
		return 0
	}
	return v
}

// SampleContour reads every frame of c without gating, for quantities such as
// intensity that are reported alongside the tracks.
func SampleContour(c Contour, substituteUndefined bool) TimeSeries {
	times := c.Timestamps()
	out := make(TimeSeries, len(times))
	for i, t := range times {
		v := c.ValueAtTime(t)
		if math.IsNaN(v) && substituteUndefined {
			v = 0
		}
		out[i] = Point{Time: t, Value: v}
	}
	return out
}
