package acoustic

import (
	"context"
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-phonetics/algorithms/common"
	"github.com/RyanBlaney/sonido-phonetics/algorithms/tonal"
	"github.com/RyanBlaney/sonido-phonetics/logging"
)

// PitchParams configures ToPitch.
type PitchParams struct {
	TimeStep         float64 `json:"time_step" yaml:"time_step" mapstructure:"time_step"`                         // 0 selects 0.75 / Floor
	Floor            float64 `json:"floor" yaml:"floor" mapstructure:"floor"`                                     // Hz
	Ceiling          float64 `json:"ceiling" yaml:"ceiling" mapstructure:"ceiling"`                               // Hz
	WindowLength     float64 `json:"window_length" yaml:"window_length" mapstructure:"window_length"`             // 0 selects 3 / Floor
	VoicingThreshold float64 `json:"voicing_threshold" yaml:"voicing_threshold" mapstructure:"voicing_threshold"` // YIN absolute threshold
	SilenceThreshold float64 `json:"silence_threshold" yaml:"silence_threshold" mapstructure:"silence_threshold"` // relative to the sound's peak
}

// DefaultPitchParams returns the usual speech settings.
func DefaultPitchParams() PitchParams {
	return PitchParams{
		Floor:            75,
		Ceiling:          600,
		VoicingThreshold: 0.15,
		SilenceThreshold: 0.03,
	}
}

// Pitch is an F0 contour in Hz. Unvoiced and silent frames are NaN.
type Pitch struct {
	*Contour
	Params PitchParams
}

// ToPitch tracks F0 frame by frame with YIN.
func (s *Sound) ToPitch(ctx context.Context, params PitchParams) (*Pitch, error) {
	if params.Floor <= 0 {
		params.Floor = 75
	}
	if params.Ceiling <= params.Floor {
		return nil, fmt.Errorf("acoustic: pitch ceiling %g Hz must exceed floor %g Hz", params.Ceiling, params.Floor)
	}
	if params.WindowLength <= 0 {
		params.WindowLength = 3 / params.Floor
	}
	if params.TimeStep <= 0 {
		params.TimeStep = 0.75 / params.Floor
	}

	logger := logging.WithContext(ctx).WithFields(logging.Fields{
		"component": "acoustic",
		"function":  "ToPitch",
	})

	grid, err := newFrameGrid(s, params.WindowLength, params.TimeStep)
	if err != nil {
		return nil, err
	}

	windowSize := int(math.Round(params.WindowLength * float64(s.sampleRate)))
	detector, err := tonal.NewPitchDetector(tonal.PitchDetectionParams{
		SampleRate:       s.sampleRate,
		WindowSize:       windowSize,
		MinFreq:          params.Floor,
		MaxFreq:          params.Ceiling,
		YinThreshold:     params.VoicingThreshold,
		SilenceThreshold: params.SilenceThreshold,
	})
	if err != nil {
		return nil, fmt.Errorf("acoustic: pitch detector: %w", err)
	}
	detector.SetReferencePeak(common.PeakAbs(s.samples))

	contour := newContour(grid)
	frame := make([]float64, windowSize)
	voiced := 0
	for i := range grid.n {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.frameAt(grid.time(i), windowSize, frame)
		res, err := detector.DetectPitch(frame)
		if err != nil {
			return nil, fmt.Errorf("acoustic: pitch frame %d: %w", i, err)
		}
		contour.values[i] = res.Pitch
		if res.Voiced {
			voiced++
		}
	}

	logger.Debug("Pitch contour computed", logging.Fields{
		"frames": grid.n,
		"voiced": voiced,
		"step":   params.TimeStep,
		"window": params.WindowLength,
	})

	return &Pitch{Contour: contour, Params: params}, nil
}
