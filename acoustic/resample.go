package acoustic

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/RyanBlaney/sonido-phonetics/algorithms/windowing"
)

const decimationTaps = 63

// decimationFactor returns the largest integer factor that keeps maxFreq
// below the new Nyquist frequency and divides the sample rate exactly.
func decimationFactor(sampleRate int, maxFreq float64) int {
	factor := int(math.Floor(float64(sampleRate) / (2 * maxFreq)))
	for factor > 1 && sampleRate%factor != 0 {
		factor--
	}
	return max(1, factor)
}

// decimate low-pass filters s with a Hamming-windowed sinc and keeps every
// factor-th sample.
func (s *Sound) decimate(factor int) (*Sound, error) {
	if factor <= 1 {
		return s, nil
	}

	win, err := windowing.New(windowing.Hamming, decimationTaps)
	if err != nil {
		return nil, err
	}
	taps := win.GetCoefficients()
	cutoff := 0.9 / float64(factor) // fraction of the original Nyquist
	half := decimationTaps / 2
	for i := range taps {
		x := float64(i - half)
		if x == 0 {
			taps[i] *= cutoff
		} else {
			taps[i] *= math.Sin(math.Pi*cutoff*x) / (math.Pi * x)
		}
	}
	floats.Scale(1/floats.Sum(taps), taps)

	padded := make([]float64, len(s.samples)+2*half)
	copy(padded[half:], s.samples)

	n := len(s.samples) / factor
	out := make([]float64, n)
	for i := range out {
		centre := i*factor + half
		out[i] = floats.Dot(taps, padded[centre-half:centre+half+1])
	}

	return &Sound{
		samples:    out,
		sampleRate: s.sampleRate / factor,
		start:      s.start,
	}, nil
}
