package speech

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-phonetics/algorithms/common"
	"github.com/RyanBlaney/sonido-phonetics/algorithms/filters"
	"github.com/RyanBlaney/sonido-phonetics/algorithms/windowing"
)

// FormantAnalyzer extracts vocal tract resonances (formants) from one speech
// frame by peak-picking the LPC spectral envelope. It is not safe for
// concurrent use.
type FormantAnalyzer struct {
	sampleRate  int
	maxFormants int
	maxFreq     float64
	minFreq     float64
	preEmphasis *filters.PreEmphasis
	nfft        int

	lpcAnalyzer *LPCAnalyzer
	window      *windowing.Window
}

// FormantResult contains formant analysis results for one frame
type FormantResult struct {
	Formants    []FormantData `json:"formants"` // ascending frequency
	LPCOrder    int           `json:"lpc_order"`
	NumFormants int           `json:"num_formants"`
	Stable      bool          `json:"stable"`
}

// FormantData represents a single formant measurement
type FormantData struct {
	Frequency float64 `json:"frequency"` // Hz
	Bandwidth float64 `json:"bandwidth"` // Hz, -3 dB width of the envelope peak
	Amplitude float64 `json:"amplitude"` // envelope magnitude at the peak
}

// FormantParams configures a FormantAnalyzer.
type FormantParams struct {
	MaxFormants     int     // formants to report per frame
	MaxFrequency    float64 // ceiling for formant search (Hz)
	MinFrequency    float64 // floor for formant search (Hz)
	PreEmphasisFrom float64 // pre-emphasis corner frequency (Hz)
	LPCOrder        int     // 0 selects 12 + fs/1000
}

// DefaultFormantParams mirrors the usual adult speech settings.
func DefaultFormantParams() FormantParams {
	return FormantParams{
		MaxFormants:     4,
		MaxFrequency:    5500,
		MinFrequency:    50,
		PreEmphasisFrom: 50,
	}
}

// NewFormantAnalyzer creates a formant analyzer for frames of frameSize
// samples.
func NewFormantAnalyzer(sampleRate, frameSize int, params FormantParams) (*FormantAnalyzer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive")
	}
	if params.MaxFormants <= 0 {
		params.MaxFormants = 4
	}
	nyquist := float64(sampleRate) / 2
	if params.MaxFrequency <= 0 || params.MaxFrequency > nyquist {
		params.MaxFrequency = nyquist
	}

	win, err := windowing.New(windowing.Hamming, frameSize)
	if err != nil {
		return nil, err
	}

	alpha := 0.0
	if params.PreEmphasisFrom > 0 {
		alpha = filters.CoefficientFrom(params.PreEmphasisFrom, sampleRate)
	}
	preEmphasis, err := filters.NewPreEmphasis(alpha)
	if err != nil {
		return nil, err
	}

	return &FormantAnalyzer{
		sampleRate:  sampleRate,
		maxFormants: params.MaxFormants,
		maxFreq:     params.MaxFrequency,
		minFreq:     params.MinFrequency,
		preEmphasis: preEmphasis,
		// ~10 Hz bins before parabolic refinement
		nfft:        common.NextPowerOf2(max(512, sampleRate/10)),
		lpcAnalyzer: NewLPCAnalyzer(sampleRate, params.LPCOrder),
		window:      win,
	}, nil
}

// FrameSize returns the number of samples AnalyzeFormants expects.
func (f *FormantAnalyzer) FrameSize() int {
	return f.window.GetSize()
}

// AnalyzeFormants extracts formants from one frame
func (f *FormantAnalyzer) AnalyzeFormants(frame []float64) (*FormantResult, error) {
	if len(frame) != f.window.GetSize() {
		return nil, fmt.Errorf("frame has %d samples, analyzer expects %d", len(frame), f.window.GetSize())
	}

	processed := f.preprocessSignal(frame)

	lpcResult, err := f.lpcAnalyzer.Analyze(processed)
	if err != nil {
		return nil, fmt.Errorf("LPC analysis failed: %w", err)
	}

	envelope, err := f.lpcAnalyzer.GetSpectralEnvelope(lpcResult.Coefficients, f.nfft)
	if err != nil {
		return nil, fmt.Errorf("formant extraction failed: %w", err)
	}

	formants := f.pickFormants(envelope)
	return &FormantResult{
		Formants:    formants,
		LPCOrder:    lpcResult.Order,
		NumFormants: len(formants),
		Stable:      lpcResult.StabilityCheck,
	}, nil
}

// PreEmphasis returns the filter applied to every frame.
func (f *FormantAnalyzer) PreEmphasis() *filters.PreEmphasis {
	return f.preEmphasis
}

// preprocessSignal applies pre-emphasis and windowing. Frames are
// independent, so the filter state is cleared first.
func (f *FormantAnalyzer) preprocessSignal(frame []float64) []float64 {
	f.preEmphasis.Reset()
	out := f.preEmphasis.ProcessBuffer(frame)

	_ = f.window.ApplyInPlace(out) // sizes checked by AnalyzeFormants
	return out
}

// pickFormants returns up to maxFormants envelope peaks inside
// [minFreq, maxFreq], lowest first.
func (f *FormantAnalyzer) pickFormants(envelope []float64) []FormantData {
	binHz := float64(f.sampleRate) / float64(f.nfft)

	var formants []FormantData
	for i := 1; i < len(envelope)-1 && len(formants) < f.maxFormants; i++ {
		if envelope[i] <= envelope[i-1] || envelope[i] < envelope[i+1] {
			continue
		}

		pos, amp := common.ParabolicPeak(envelope, i)
		freq := pos * binHz
		if freq < f.minFreq || freq > f.maxFreq {
			continue
		}

		formants = append(formants, FormantData{
			Frequency: freq,
			Bandwidth: f.estimateBandwidth(envelope, i, binHz),
			Amplitude: amp,
		})
	}
	return formants
}

// estimateBandwidth measures the width where the envelope stays above the
// peak magnitude divided by sqrt(2).
func (f *FormantAnalyzer) estimateBandwidth(envelope []float64, peakIdx int, binHz float64) float64 {
	threshold := envelope[peakIdx] / math.Sqrt2

	left := peakIdx
	for left > 0 && envelope[left-1] >= threshold {
		left--
	}
	right := peakIdx
	for right < len(envelope)-1 && envelope[right+1] >= threshold {
		right++
	}

	return float64(right-left+1) * binHz
}
