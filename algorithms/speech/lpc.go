package speech

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/floats"

	"github.com/RyanBlaney/sonido-phonetics/algorithms/spectral"
)

// LPCAnalyzer performs Linear Predictive Coding analysis (autocorrelation
// method). LPC models the vocal tract as an all-pole filter, which is what
// formant estimation reads its resonances from.
type LPCAnalyzer struct {
	sampleRate int
	order      int // LPC order (typically 12 + fs/1000)
	fft        *spectral.FFT
}

// LPCResult contains LPC analysis results. Coefficients[0] is 1 and the
// predictor is x[n] ≈ sum_{k>=1} Coefficients[k] * x[n-k].
type LPCResult struct {
	Coefficients    []float64 `json:"coefficients"`
	ReflectionCoeff []float64 `json:"reflection_coeff"`
	Gain            float64   `json:"gain"`
	ResidualEnergy  float64   `json:"residual_energy"`
	Order           int       `json:"order"`
	StabilityCheck  bool      `json:"stability_check"` // all |k| < 1
}

// NewLPCAnalyzer creates a new LPC analyzer
func NewLPCAnalyzer(sampleRate int, order int) *LPCAnalyzer {
	if order <= 0 {
		order = 12 + sampleRate/1000 // Rule of thumb for speech
	}

	return &LPCAnalyzer{
		sampleRate: sampleRate,
		order:      order,
		fft:        spectral.NewFFT(),
	}
}

// Order returns the prediction order.
func (lpc *LPCAnalyzer) Order() int {
	return lpc.order
}

// Analyze performs LPC analysis on the input signal
func (lpc *LPCAnalyzer) Analyze(signal []float64) (*LPCResult, error) {
	if len(signal) < lpc.order*2 {
		return nil, fmt.Errorf("signal too short for LPC analysis of order %d", lpc.order)
	}

	R := make([]float64, lpc.order+1)
	for lag := range R {
		R[lag] = floats.Dot(signal[:len(signal)-lag], signal[lag:])
	}

	coeffs, reflection, residual, err := lpc.levinsonDurbin(R)
	if err != nil {
		return nil, fmt.Errorf("Levinson-Durbin algorithm failed: %w", err)
	}

	stable := true
	for _, k := range reflection {
		if math.Abs(k) >= 1 {
			stable = false
			break
		}
	}

	return &LPCResult{
		Coefficients:    coeffs,
		ReflectionCoeff: reflection,
		Gain:            math.Sqrt(residual),
		ResidualEnergy:  residual,
		Order:           lpc.order,
		StabilityCheck:  stable,
	}, nil
}

// levinsonDurbin solves the normal equations for the autocorrelation R.
func (lpc *LPCAnalyzer) levinsonDurbin(R []float64) ([]float64, []float64, float64, error) {
	p := lpc.order

	if len(R) < p+1 {
		return nil, nil, 0, fmt.Errorf("insufficient autocorrelation values")
	}
	if R[0] == 0 {
		return nil, nil, 0, fmt.Errorf("zero energy signal")
	}

	a := make([]float64, p+1)
	prev := make([]float64, p+1)
	k := make([]float64, p)
	E := R[0]
	a[0] = 1.0

	for i := 1; i <= p; i++ {
		acc := R[i]
		for j := 1; j < i; j++ {
			acc -= a[j] * R[i-j]
		}
		k[i-1] = acc / E

		// the update reads the previous order's coefficients
		copy(prev, a)
		a[i] = k[i-1]
		for j := 1; j < i; j++ {
			a[j] = prev[j] - k[i-1]*prev[i-j]
		}

		E *= 1 - k[i-1]*k[i-1]
		if E <= 0 {
			// perfectly predictable signal; higher orders add nothing
			E = 0
			break
		}
	}

	return a, k, E, nil
}

// GetSpectralEnvelope returns |1/A(e^jw)| on nfft/2+1 bins from DC to
// Nyquist, where A(z) = 1 - sum a_k z^-k.
func (lpc *LPCAnalyzer) GetSpectralEnvelope(coeffs []float64, nfft int) ([]float64, error) {
	if nfft <= 0 {
		nfft = 512
	}
	if len(coeffs) > nfft {
		return nil, fmt.Errorf("nfft %d shorter than %d coefficients", nfft, len(coeffs))
	}

	poly := make([]float64, nfft)
	poly[0] = 1
	for i := 1; i < len(coeffs); i++ {
		poly[i] = -coeffs[i]
	}

	spectrum := lpc.fft.Compute(poly)
	envelope := make([]float64, nfft/2+1)
	for i := range envelope {
		if mag := cmplx.Abs(spectrum[i]); mag > 0 {
			envelope[i] = 1.0 / mag
		}
	}
	return envelope, nil
}
