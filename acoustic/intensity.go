package acoustic

import (
	"context"
	"math"

	"github.com/RyanBlaney/sonido-phonetics/algorithms/temporal"
	"github.com/RyanBlaney/sonido-phonetics/algorithms/windowing"
	"github.com/RyanBlaney/sonido-phonetics/logging"
)

// IntensityParams configures ToIntensity.
type IntensityParams struct {
	MinimumPitch float64 `json:"minimum_pitch" yaml:"minimum_pitch" mapstructure:"minimum_pitch"` // Hz; window is 3.2 / MinimumPitch
	TimeStep     float64 `json:"time_step" yaml:"time_step" mapstructure:"time_step"`             // 0 selects 0.8 / MinimumPitch
}

// DefaultIntensityParams returns a 100 Hz minimum pitch.
func DefaultIntensityParams() IntensityParams {
	return IntensityParams{MinimumPitch: 100}
}

// Intensity is a contour in dB re 2e-5 Pa.
type Intensity struct {
	*Contour
	Params IntensityParams
}

// ToIntensity computes the windowed mean-square intensity of every frame.
func (s *Sound) ToIntensity(ctx context.Context, params IntensityParams) (*Intensity, error) {
	if params.MinimumPitch <= 0 {
		params.MinimumPitch = 100
	}
	if params.TimeStep <= 0 {
		params.TimeStep = 0.8 / params.MinimumPitch
	}
	window := 3.2 / params.MinimumPitch

	grid, err := newFrameGrid(s, window, params.TimeStep)
	if err != nil {
		return nil, err
	}

	windowSize := int(math.Round(window * float64(s.sampleRate)))
	energy, err := temporal.NewEnergy(windowSize, s.sampleRate, windowing.Hann)
	if err != nil {
		return nil, err
	}

	contour := newContour(grid)
	frame := make([]float64, windowSize)
	for i := range grid.n {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.frameAt(grid.time(i), windowSize, frame)
		db, err := energy.ComputeIntensity(frame)
		if err != nil {
			return nil, err
		}
		contour.values[i] = db
	}

	lo, hi := contour.Range()
	logging.WithContext(ctx).Debug("Intensity contour computed", logging.Fields{
		"component": "acoustic",
		"function":  "ToIntensity",
		"frames":    grid.n,
		"min_db":    lo,
		"max_db":    hi,
	})

	return &Intensity{Contour: contour, Params: params}, nil
}
