package acoustic

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/RyanBlaney/sonido-phonetics/algorithms/common"
	"github.com/RyanBlaney/sonido-phonetics/algorithms/spectral"
	"github.com/RyanBlaney/sonido-phonetics/algorithms/windowing"
	"github.com/RyanBlaney/sonido-phonetics/logging"
)

// SpectrogramParams configures ToSpectrogram.
type SpectrogramParams struct {
	WindowLength float64 `json:"window_length" yaml:"window_length" mapstructure:"window_length"` // effective length; frames span twice this
	TimeStep     float64 `json:"time_step" yaml:"time_step" mapstructure:"time_step"`
	MaxFrequency float64 `json:"max_frequency" yaml:"max_frequency" mapstructure:"max_frequency"`
}

// DefaultSpectrogramParams returns the broadband settings used for speech.
func DefaultSpectrogramParams() SpectrogramParams {
	return SpectrogramParams{
		WindowLength: 0.005,
		TimeStep:     0.002,
		MaxFrequency: 5000,
	}
}

// Spectrogram is a power spectral density grid in Pa²/Hz. Power is indexed
// [frame][bin]; Times holds frame centres and Freqs bin frequencies.
type Spectrogram struct {
	Power    [][]float64
	Times    []float64
	Freqs    []float64
	TimeStep float64
	FreqStep float64
	Params   SpectrogramParams
}

// ToSpectrogram computes a Hann-windowed STFT on the shared worker pool.
func (s *Sound) ToSpectrogram(ctx context.Context, params SpectrogramParams) (*Spectrogram, error) {
	defaults := DefaultSpectrogramParams()
	if params.WindowLength <= 0 {
		params.WindowLength = defaults.WindowLength
	}
	if params.TimeStep <= 0 {
		params.TimeStep = defaults.TimeStep
	}
	nyquist := float64(s.sampleRate) / 2
	if params.MaxFrequency <= 0 || params.MaxFrequency > nyquist {
		params.MaxFrequency = nyquist
	}

	physical := 2 * params.WindowLength
	windowSize := int(math.Round(physical * float64(s.sampleRate)))
	hopSize := max(1, int(math.Round(params.TimeStep*float64(s.sampleRate))))
	if windowSize > len(s.samples) {
		return nil, fmt.Errorf("%w: %.4f s < %.4f s", ErrSoundTooShort, s.Duration(), physical)
	}

	win, err := windowing.New(windowing.Hann, windowSize)
	if err != nil {
		return nil, err
	}

	freqStep := float64(s.sampleRate) / float64(common.NextPowerOf2(windowSize))
	maxBins := int(math.Floor(params.MaxFrequency/freqStep)) + 1

	res, err := spectral.NewSTFT().Compute(ctx, s.samples, windowSize, hopSize, s.sampleRate, maxBins, win)
	if err != nil {
		return nil, fmt.Errorf("acoustic: spectrogram: %w", err)
	}

	// one-sided density: 2|X|² / (fs Σw²)
	coeffs := win.GetCoefficients()
	norm := 2 / (float64(s.sampleRate) * floats.Dot(coeffs, coeffs))
	for _, frame := range res.Power {
		floats.Scale(norm, frame)
	}

	times := make([]float64, res.TimeFrames)
	for i, start := range res.FrameStarts {
		times[i] = s.start + (float64(start)+float64(windowSize)/2)/float64(s.sampleRate)
	}
	freqs := make([]float64, res.FreqBins)
	for k := range freqs {
		freqs[k] = float64(k) * res.FreqResolution
	}

	logging.WithContext(ctx).Debug("Spectrogram computed", logging.Fields{
		"component": "acoustic",
		"function":  "ToSpectrogram",
		"frames":    res.TimeFrames,
		"bins":      res.FreqBins,
		"fft_size":  res.FFTSize,
	})

	return &Spectrogram{
		Power:    res.Power,
		Times:    times,
		Freqs:    freqs,
		TimeStep: res.TimeResolution,
		FreqStep: res.FreqResolution,
		Params:   params,
	}, nil
}

// DB converts the power grid to dB re 4e-10 Pa²/Hz. Zero power maps to the
// lowest finite value in the grid so plots stay finite.
func (sg *Spectrogram) DB() [][]float64 {
	const reference = 4e-10

	out := make([][]float64, len(sg.Power))
	lowest := math.Inf(1)
	for i, frame := range sg.Power {
		out[i] = make([]float64, len(frame))
		for k, p := range frame {
			if p <= 0 {
				out[i][k] = math.Inf(-1)
				continue
			}
			out[i][k] = 10 * math.Log10(p/reference)
			lowest = math.Min(lowest, out[i][k])
		}
	}
	if math.IsInf(lowest, 1) {
		lowest = 0
	}
	for _, frame := range out {
		for k, v := range frame {
			if math.IsInf(v, -1) {
				frame[k] = lowest
			}
		}
	}
	return out
}

// MaxDB returns the largest value of DB().
func (sg *Spectrogram) MaxDB() float64 {
	hi := math.Inf(-1)
	for _, frame := range sg.DB() {
		if len(frame) > 0 {
			hi = math.Max(hi, floats.Max(frame))
		}
	}
	return hi
}

// FrameCount returns the number of time frames.
func (sg *Spectrogram) FrameCount() int { return len(sg.Times) }

// BinCount returns the number of frequency bins kept.
func (sg *Spectrogram) BinCount() int { return len(sg.Freqs) }
