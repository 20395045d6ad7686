// Package filters holds the first-order filters applied before spectral
// and LPC analysis.
package filters

import (
	"fmt"
	"math"
)

// PreEmphasis implements a first-order pre-emphasis filter:
//
//	y[n] = x[n] - α*x[n-1]
//
// It lifts the spectrum by 6 dB/octave above the corner frequency so that
// the higher formants carry comparable weight in linear prediction.
type PreEmphasis struct {
	coefficient float64 // α
	lastSample  float64 // x[n-1]
}

// NewPreEmphasis creates a pre-emphasis filter with coefficient α in [0, 1).
func NewPreEmphasis(coefficient float64) (*PreEmphasis, error) {
	if coefficient < 0 || coefficient >= 1 || math.IsNaN(coefficient) {
		return nil, fmt.Errorf("pre-emphasis coefficient must be in [0, 1), got %g", coefficient)
	}
	return &PreEmphasis{coefficient: coefficient}, nil
}

// NewPreEmphasisFrom creates a filter whose boost starts at cornerHz:
// α = exp(-2π·cornerHz/sampleRate). A corner of 0 gives a pass-through filter.
func NewPreEmphasisFrom(cornerHz float64, sampleRate int) (*PreEmphasis, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive")
	}
	if cornerHz < 0 {
		return nil, fmt.Errorf("corner frequency must not be negative, got %g", cornerHz)
	}
	if cornerHz == 0 {
		return &PreEmphasis{}, nil
	}
	return NewPreEmphasis(CoefficientFrom(cornerHz, sampleRate))
}

// CoefficientFrom converts a corner frequency to α.
func CoefficientFrom(cornerHz float64, sampleRate int) float64 {
	return math.Exp(-2 * math.Pi * cornerHz / float64(sampleRate))
}

// Process applies pre-emphasis filtering to a single sample.
func (pe *PreEmphasis) Process(input float64) float64 {
	output := input - pe.coefficient*pe.lastSample
	pe.lastSample = input
	return output
}

// ProcessBuffer applies pre-emphasis to an entire buffer of samples.
func (pe *PreEmphasis) ProcessBuffer(input []float64) []float64 {
	output := make([]float64, len(input))
	for i, sample := range input {
		output[i] = pe.Process(sample)
	}
	return output
}

// Reset clears the filter's internal state.
// Call this when processing discontinuous audio segments.
func (pe *PreEmphasis) Reset() {
	pe.lastSample = 0.0
}

// GetCoefficient returns α.
func (pe *PreEmphasis) GetCoefficient() float64 {
	return pe.coefficient
}

// GetFrequencyResponse returns the magnitude and phase of H(e^jω) at
// frequency.
func (pe *PreEmphasis) GetFrequencyResponse(frequency float64, sampleRate int) (magnitude, phase float64) {
	omega := 2 * math.Pi * frequency / float64(sampleRate)

	// H(e^jω) = 1 - α*e^(-jω)
	real := 1 - pe.coefficient*math.Cos(omega)
	imag := pe.coefficient * math.Sin(omega)

	return math.Hypot(real, imag), math.Atan2(imag, real)
}
