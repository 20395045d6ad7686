package windowing

import (
	"fmt"
	"strings"

	"github.com/mjibson/go-dsp/window"
)

// Type names a window function.
type Type string

const (
	Hann        Type = "hann"
	Hamming     Type = "hamming"
	Blackman    Type = "blackman"
	Rectangular Type = "rectangular"
)

// Window holds precomputed coefficients for a fixed frame size.
type Window struct {
	kind         Type
	coefficients []float64
}

// New creates a window of the given type and size. Coefficients come from
// mjibson/go-dsp/window.
func New(kind Type, size int) (*Window, error) {
	if size <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %d", size)
	}

	var coeffs []float64
	switch Type(strings.ToLower(string(kind))) {
	case Hann, "":
		kind = Hann
		coeffs = window.Hann(size)
	case Hamming:
		coeffs = window.Hamming(size)
	case Blackman:
		coeffs = window.Blackman(size)
	case Rectangular:
		coeffs = window.Rectangular(size)
	default:
		return nil, fmt.Errorf("unknown window type %q", kind)
	}

	return &Window{kind: kind, coefficients: coeffs}, nil
}

// Apply applies the window to a signal (creates new array)
func (w *Window) Apply(signal []float64) []float64 {
	if len(signal) != len(w.coefficients) {
		return nil
	}

	windowed := make([]float64, len(signal))
	for i, c := range w.coefficients {
		windowed[i] = signal[i] * c
	}
	return windowed
}

// ApplyInPlace applies the window to a signal in-place
func (w *Window) ApplyInPlace(signal []float64) error {
	if len(signal) != len(w.coefficients) {
		return fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), len(w.coefficients))
	}

	for i, c := range w.coefficients {
		signal[i] *= c
	}
	return nil
}

// GetCoefficients returns a copy of the window coefficients
func (w *Window) GetCoefficients() []float64 {
	coeffs := make([]float64, len(w.coefficients))
	copy(coeffs, w.coefficients)
	return coeffs
}

// GetSize returns the window size
func (w *Window) GetSize() int {
	return len(w.coefficients)
}

// GetType returns the window type
func (w *Window) GetType() Type {
	return w.kind
}
