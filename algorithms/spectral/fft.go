package spectral

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// FFT wraps mjibson/go-dsp, which handles non-power-of-2 sizes.
type FFT struct{}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute returns the complex spectrum of a real signal.
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}
	return fft.FFTReal(x)
}

// PowerSpectrum returns |X[k]|^2 for the non-negative frequency bins of x
// zero-padded to nfft samples.
func (f *FFT) PowerSpectrum(x []float64, nfft int) []float64 {
	if nfft < len(x) {
		nfft = len(x)
	}
	padded := make([]float64, nfft)
	copy(padded, x)

	spectrum := f.Compute(padded)
	bins := nfft/2 + 1
	power := make([]float64, bins)
	for k := range bins {
		a := cmplx.Abs(spectrum[k])
		power[k] = a * a
	}
	return power
}
