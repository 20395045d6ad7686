package tonal

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-phonetics/algorithms/common"
)

// PitchDetectionResult holds the pitch estimate for one frame. Pitch is NaN
// when the frame is unvoiced or silent.
type PitchDetectionResult struct {
	Pitch      float64 `json:"pitch"`      // Hz
	Period     float64 `json:"period"`     // samples
	Confidence float64 `json:"confidence"` // 1 - normalized difference at the chosen lag
	Voiced     bool    `json:"voiced"`
}

// PitchDetectionParams contains parameters for pitch detection
type PitchDetectionParams struct {
	SampleRate int `json:"sample_rate"`
	WindowSize int `json:"window_size"`

	MinFreq float64 `json:"min_freq"` // pitch floor (Hz)
	MaxFreq float64 `json:"max_freq"` // pitch ceiling (Hz)

	YinThreshold     float64 `json:"yin_threshold"`     // absolute threshold on the normalized difference
	SilenceThreshold float64 `json:"silence_threshold"` // frame peak relative to the reference peak
}

// DefaultPitchParams returns speech defaults: a 75-600 Hz range and a
// window of three floor periods.
func DefaultPitchParams(sampleRate int) PitchDetectionParams {
	const floor = 75.0
	return PitchDetectionParams{
		SampleRate:       sampleRate,
		WindowSize:       int(math.Round(3 / floor * float64(sampleRate))),
		MinFreq:          floor,
		MaxFreq:          600,
		YinThreshold:     0.15,
		SilenceThreshold: 0.03,
	}
}

// PitchDetector estimates F0 per frame with YIN.
//
// References:
// - de Cheveigné, A., Kawahara, H. (2002). "YIN, a fundamental frequency estimator for speech and music"
type PitchDetector struct {
	params        PitchDetectionParams
	minTau        int
	maxTau        int
	referencePeak float64
}

// NewPitchDetector validates params and creates a detector.
func NewPitchDetector(params PitchDetectionParams) (*PitchDetector, error) {
	if params.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive")
	}
	if params.MinFreq <= 0 || params.MaxFreq <= params.MinFreq {
		return nil, fmt.Errorf("invalid pitch range %g-%g Hz", params.MinFreq, params.MaxFreq)
	}
	if params.YinThreshold <= 0 {
		params.YinThreshold = 0.15
	}

	minTau := max(2, int(math.Floor(float64(params.SampleRate)/params.MaxFreq)))
	maxTau := int(math.Ceil(float64(params.SampleRate) / params.MinFreq))
	if params.WindowSize < maxTau+2 {
		return nil, fmt.Errorf("window of %d samples cannot hold a %g Hz period", params.WindowSize, params.MinFreq)
	}

	return &PitchDetector{
		params: params,
		minTau: minTau,
		maxTau: maxTau,
	}, nil
}

// WindowSize returns the frame length DetectPitch expects.
func (pd *PitchDetector) WindowSize() int {
	return pd.params.WindowSize
}

// SetReferencePeak sets the level against which SilenceThreshold is judged,
// normally the absolute peak of the whole recording.
func (pd *PitchDetector) SetReferencePeak(peak float64) {
	pd.referencePeak = peak
}

// DetectPitch detects pitch in a single audio frame
func (pd *PitchDetector) DetectPitch(audioFrame []float64) (*PitchDetectionResult, error) {
	if len(audioFrame) != pd.params.WindowSize {
		return nil, fmt.Errorf("audio frame size (%d) doesn't match window size (%d)", len(audioFrame), pd.params.WindowSize)
	}

	unvoiced := &PitchDetectionResult{Pitch: math.NaN(), Period: math.NaN()}

	frame := common.RemoveDC(audioFrame)
	peak := common.PeakAbs(frame)
	if peak == 0 || (pd.referencePeak > 0 && peak < pd.params.SilenceThreshold*pd.referencePeak) {
		return unvoiced, nil
	}

	cmndf := pd.normalizedDifference(frame)

	tau := -1
	for t := pd.minTau; t <= pd.maxTau; t++ {
		if cmndf[t] < pd.params.YinThreshold {
			// walk down to the bottom of this dip
			for t+1 <= pd.maxTau && cmndf[t+1] < cmndf[t] {
				t++
			}
			tau = t
			break
		}
	}
	if tau < 0 {
		return unvoiced, nil
	}

	period, _ := common.ParabolicPeak(cmndf, tau)
	frequency := float64(pd.params.SampleRate) / period
	if frequency < pd.params.MinFreq || frequency > pd.params.MaxFreq {
		return unvoiced, nil
	}

	return &PitchDetectionResult{
		Pitch:      frequency,
		Period:     period,
		Confidence: 1 - cmndf[tau],
		Voiced:     true,
	}, nil
}

// normalizedDifference computes the cumulative mean normalized difference
// function for lags 0..maxTau+1 over an integration span of
// len(frame)-maxTau-1 samples.
func (pd *PitchDetector) normalizedDifference(frame []float64) []float64 {
	span := len(frame) - pd.maxTau - 1
	size := pd.maxTau + 2

	cmndf := make([]float64, size)
	cmndf[0] = 1
	runningSum := 0.0
	for tau := 1; tau < size; tau++ {
		d := 0.0
		for j := range span {
			delta := frame[j] - frame[j+tau]
			d += delta * delta
		}
		runningSum += d
		if runningSum == 0 {
			cmndf[tau] = 1
			continue
		}
		cmndf[tau] = d * float64(tau) / runningSum
	}
	return cmndf
}
