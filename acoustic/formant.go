package acoustic

import (
	"context"
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-phonetics/algorithms/speech"
	"github.com/RyanBlaney/sonido-phonetics/logging"
	"github.com/RyanBlaney/sonido-phonetics/trajectory"
)

// FormantParams configures ToFormants.
type FormantParams struct {
	TimeStep        float64 `json:"time_step" yaml:"time_step" mapstructure:"time_step"`                         // 0 selects WindowLength / 4
	MaxFormants     int     `json:"max_formants" yaml:"max_formants" mapstructure:"max_formants"`                // peaks kept per frame
	MaxFrequency    float64 `json:"max_frequency" yaml:"max_frequency" mapstructure:"max_frequency"`             // Hz
	WindowLength    float64 `json:"window_length" yaml:"window_length" mapstructure:"window_length"`             // effective length; frames span twice this
	PreEmphasisFrom float64 `json:"pre_emphasis_from" yaml:"pre_emphasis_from" mapstructure:"pre_emphasis_from"` // Hz
}

// DefaultFormantParams returns five formants up to 5500 Hz in 25 ms windows.
func DefaultFormantParams() FormantParams {
	return FormantParams{
		MaxFormants:     5,
		MaxFrequency:    5500,
		WindowLength:    0.025,
		PreEmphasisFrom: 50,
	}
}

// Formants holds per-frame formant frequencies and bandwidths. Frames where
// fewer than n formants were found have NaN for formant n.
type Formants struct {
	grid        frameGrid
	frequencies []*Contour // index n-1 holds formant n
	bandwidths  []*Contour
	Params      FormantParams
}

// Formant returns the frequency contour of formant n (1-based), or nil when
// n is out of range.
func (f *Formants) Formant(n int) trajectory.Contour {
	c := f.FormantContour(n)
	if c == nil {
		return nil
	}
	return c
}

// FormantContour is Formant with the concrete contour type.
func (f *Formants) FormantContour(n int) *Contour {
	if n < 1 || n > len(f.frequencies) {
		return nil
	}
	return f.frequencies[n-1]
}

// Bandwidth returns the bandwidth contour of formant n, or nil.
func (f *Formants) Bandwidth(n int) *Contour {
	if n < 1 || n > len(f.bandwidths) {
		return nil
	}
	return f.bandwidths[n-1]
}

// FrameCount returns the number of analysis frames.
func (f *Formants) FrameCount() int { return f.grid.n }

// Grid returns the F1 contour. Its timestamps are the formant frame times,
// which ExtractOptions.Grid uses to sample every track on one grid.
func (f *Formants) Grid() trajectory.Contour {
	return f.frequencies[0]
}

// ToFormants estimates formants per frame from the LPC spectral envelope.
// The sound is first decimated so that MaxFrequency sits just below Nyquist.
func (s *Sound) ToFormants(ctx context.Context, params FormantParams) (*Formants, error) {
	defaults := DefaultFormantParams()
	if params.MaxFormants <= 0 {
		params.MaxFormants = defaults.MaxFormants
	}
	if params.MaxFrequency <= 0 {
		params.MaxFrequency = defaults.MaxFrequency
	}
	if params.WindowLength <= 0 {
		params.WindowLength = defaults.WindowLength
	}
	if params.TimeStep <= 0 {
		params.TimeStep = params.WindowLength / 4
	}
	if params.MaxFormants < trajectory.MaxFormant {
		return nil, fmt.Errorf("acoustic: at least %d formants are needed, got %d", trajectory.MaxFormant, params.MaxFormants)
	}

	logger := logging.WithContext(ctx).WithFields(logging.Fields{
		"component": "acoustic",
		"function":  "ToFormants",
	})

	physical := 2 * params.WindowLength
	grid, err := newFrameGrid(s, physical, params.TimeStep)
	if err != nil {
		return nil, err
	}

	factor := decimationFactor(s.sampleRate, params.MaxFrequency)
	work, err := s.decimate(factor)
	if err != nil {
		return nil, err
	}

	frameSize := int(math.Round(physical * float64(work.sampleRate)))
	analyzer, err := speech.NewFormantAnalyzer(work.sampleRate, frameSize, speech.FormantParams{
		MaxFormants:     params.MaxFormants,
		MaxFrequency:    params.MaxFrequency,
		MinFrequency:    50,
		PreEmphasisFrom: params.PreEmphasisFrom,
		LPCOrder:        2*params.MaxFormants + 2,
	})
	if err != nil {
		return nil, fmt.Errorf("acoustic: formant analyzer: %w", err)
	}

	out := &Formants{
		grid:        grid,
		frequencies: make([]*Contour, params.MaxFormants),
		bandwidths:  make([]*Contour, params.MaxFormants),
		Params:      params,
	}
	for n := range params.MaxFormants {
		out.frequencies[n] = newContour(grid)
		out.bandwidths[n] = newContour(grid)
	}

	frame := make([]float64, frameSize)
	failed := 0
	for i := range grid.n {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		work.frameAt(grid.time(i), frameSize, frame)

		res, err := analyzer.AnalyzeFormants(frame)
		if err != nil {
			// silent frames have no envelope
			failed++
			res = &speech.FormantResult{}
		}
		for n := range params.MaxFormants {
			freq, bw := math.NaN(), math.NaN()
			if n < len(res.Formants) {
				freq = res.Formants[n].Frequency
				bw = res.Formants[n].Bandwidth
			}
			out.frequencies[n].values[i] = freq
			out.bandwidths[n].values[i] = bw
		}
	}

	logger.Debug("Formant contours computed", logging.Fields{
		"frames":        grid.n,
		"failed_frames": failed,
		"decimation":    factor,
		"lpc_order":     2*params.MaxFormants + 2,
	})

	return out, nil
}
