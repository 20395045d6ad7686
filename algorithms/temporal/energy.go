package temporal

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-phonetics/algorithms/common"
	"github.com/RyanBlaney/sonido-phonetics/algorithms/windowing"
)

// ReferencePressure is the 0 dB reference for intensity (Pa).
const ReferencePressure = 2e-5

// SilenceDB is reported for frames without energy.
const SilenceDB = -300.0

// Energy computes windowed frame energy and intensity.
type Energy struct {
	frameSize  int
	sampleRate int
	window     *windowing.Window
}

// NewEnergy creates an energy calculator for frames of frameSize samples,
// weighted by a window of the given type.
func NewEnergy(frameSize, sampleRate int, kind windowing.Type) (*Energy, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive")
	}
	win, err := windowing.New(kind, frameSize)
	if err != nil {
		return nil, err
	}
	return &Energy{
		frameSize:  frameSize,
		sampleRate: sampleRate,
		window:     win,
	}, nil
}

// FrameSize returns the number of samples per frame.
func (e *Energy) FrameSize() int {
	return e.frameSize
}

// ComputeIntensity returns the intensity of one frame in dB re 2e-5 Pa.
// The frame mean is removed before the window-weighted mean square is taken.
func (e *Energy) ComputeIntensity(frame []float64) (float64, error) {
	if len(frame) != e.frameSize {
		return 0, fmt.Errorf("frame has %d samples, expected %d", len(frame), e.frameSize)
	}

	ms := common.MeanSquare(common.RemoveDC(frame), e.window.GetCoefficients())
	return ToDB(ms), nil
}

// ComputeShortTimeEnergy calculates RMS energy for frames starting every
// hopSize samples.
func (e *Energy) ComputeShortTimeEnergy(signal []float64, hopSize int) []float64 {
	if len(signal) < e.frameSize || hopSize <= 0 {
		return []float64{}
	}

	numFrames := (len(signal)-e.frameSize)/hopSize + 1
	energies := make([]float64, numFrames)
	for i := range numFrames {
		start := i * hopSize
		energies[i] = math.Sqrt(common.MeanSquare(signal[start:start+e.frameSize], nil))
	}
	return energies
}

// ToDB converts a mean square pressure to dB re ReferencePressure.
func ToDB(meanSquare float64) float64 {
	if meanSquare <= 0 {
		return SilenceDB
	}
	db := 10 * math.Log10(meanSquare/(ReferencePressure*ReferencePressure))
	return math.Max(db, SilenceDB)
}
