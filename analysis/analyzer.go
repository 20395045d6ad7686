// Package analysis runs the full pipeline: decode a recording, measure it
// with the acoustic engine, extract tracks, difference them and summarize
// their trends.
package analysis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/RyanBlaney/sonido-phonetics/acoustic"
	"github.com/RyanBlaney/sonido-phonetics/analysis/config"
	"github.com/RyanBlaney/sonido-phonetics/logging"
	"github.com/RyanBlaney/sonido-phonetics/trajectory"
	"github.com/RyanBlaney/sonido-phonetics/transcode"
)

// Track is one extracted quantity with its differences and summary.
type Track struct {
	Index       trajectory.TrackIndex       `json:"index" yaml:"index"`
	Name        string                      `json:"name" yaml:"name"`
	Series      trajectory.TimeSeries       `json:"series" yaml:"series"`
	Differences trajectory.DifferenceSeries `json:"differences" yaml:"differences"`
	Summary     trajectory.TrackSummary     `json:"summary" yaml:"summary"`
}

// Result is the outcome of one analysis run. The engine objects are kept for
// plotting and are not serialized.
type Result struct {
	Path       string                `json:"path" yaml:"path"`
	Preset     config.Preset         `json:"preset" yaml:"preset"`
	SampleRate int                   `json:"sample_rate" yaml:"sample_rate"`
	Duration   float64               `json:"duration" yaml:"duration"`
	From       float64               `json:"from" yaml:"from"`
	To         float64               `json:"to" yaml:"to"`
	Tracks     []Track               `json:"tracks" yaml:"tracks"`
	Intensity  trajectory.TimeSeries `json:"intensity" yaml:"intensity"`
	Generated  time.Time             `json:"generated_at" yaml:"generated_at"`

	Sound            *acoustic.Sound     `json:"-" yaml:"-"`
	Pitch            *acoustic.Pitch     `json:"-" yaml:"-"`
	Formants         *acoustic.Formants  `json:"-" yaml:"-"`
	IntensityContour *acoustic.Intensity `json:"-" yaml:"-"`
}

// Summaries returns the per-track summaries in track order.
func (r *Result) Summaries() []trajectory.TrackSummary {
	out := make([]trajectory.TrackSummary, len(r.Tracks))
	for i, t := range r.Tracks {
		out[i] = t.Summary
	}
	return out
}

// Track returns the track for idx, if it was extracted.
func (r *Result) Track(idx trajectory.TrackIndex) (*Track, bool) {
	for i := range r.Tracks {
		if r.Tracks[i].Index == idx {
			return &r.Tracks[i], true
		}
	}
	return nil, false
}

// Analyzer runs the pipeline with one configuration.
type Analyzer struct {
	config  *config.AnalysisConfig
	decoder *transcode.Decoder
	logger  logging.Logger
}

// NewAnalyzer validates cfg and creates an analyzer. A nil cfg selects the
// default configuration.
func NewAnalyzer(cfg *config.AnalysisConfig) (*Analyzer, error) {
	if cfg == nil {
		cfg = config.DefaultAnalysisConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	decoderConfig := cfg.Decoder
	return &Analyzer{
		config:  cfg,
		decoder: transcode.NewDecoder(&decoderConfig),
		logger: logging.WithFields(logging.Fields{
			"component": "analyzer",
		}),
	}, nil
}

// Config returns the analyzer's configuration.
func (a *Analyzer) Config() *config.AnalysisConfig {
	return a.config
}

// LoadSound decodes path and applies the configured time window.
func (a *Analyzer) LoadSound(path string) (*acoustic.Sound, error) {
	audioData, err := a.decoder.DecodeFile(path)
	if err != nil {
		return nil, err
	}
	sound, err := acoustic.NewSound(audioData)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if a.config.From > 0 || a.config.To > 0 {
		to := a.config.To
		if to == 0 {
			to = sound.End()
		}
		sound, err = sound.ExtractPart(a.config.From, to)
		if err != nil {
			return nil, err
		}
	}
	return sound, nil
}

// Analyze decodes the WAV file at path and analyzes it.
func (a *Analyzer) Analyze(ctx context.Context, path string) (*Result, error) {
	ctx = logging.ContextWithFields(ctx, logging.Fields{"file": path})
	sound, err := a.LoadSound(path)
	if err != nil {
		return nil, err
	}
	res, err := a.AnalyzeSound(ctx, sound)
	if err != nil {
		return nil, err
	}
	res.Path = path
	return res, nil
}

// AnalyzeSound runs the engine and the trajectory steps on sound.
func (a *Analyzer) AnalyzeSound(ctx context.Context, sound *acoustic.Sound) (*Result, error) {
	logger := a.logger.WithContext(ctx).WithFields(logging.Fields{
		"function": "AnalyzeSound",
		"preset":   a.config.Preset,
	})
	start := time.Now()

	indices, err := a.config.TrackIndices()
	if err != nil {
		return nil, err
	}
	jnd, err := a.config.JNDTable()
	if err != nil {
		return nil, err
	}

	pitch, formants, intensity, err := a.measure(ctx, sound, indices)
	if err != nil {
		logger.Error(err, "Acoustic measurement failed")
		return nil, err
	}

	opts := trajectory.ExtractOptions{
		Indices:             indices,
		IntensityFloor:      a.config.IntensityFloor,
		SubstituteUndefined: a.config.SubstituteUndefined,
	}
	if a.config.FormantGrid {
		opts.Grid = formants.Grid()
	}

	// a nil *Formants must not reach ExtractTracks as a non-nil interface
	var formantSource trajectory.FormantContours
	if formants != nil {
		formantSource = formants
	}
	series, err := trajectory.ExtractTracks(pitch, formantSource, intensity, opts)
	if err != nil {
		return nil, fmt.Errorf("extract tracks: %w", err)
	}

	tracks := make([]Track, len(indices))
	for i, idx := range indices {
		s := series[i]
		if a.config.SmoothingWindow > 1 {
			s = trajectory.Smooth(s, a.config.SmoothingWindow)
		}

		diffs, err := trajectory.Difference(s, trajectory.WithUndefinedNulling(a.config.NullUndefinedDifferences))
		if err != nil {
			return nil, fmt.Errorf("%s differences: %w", idx, err)
		}

		threshold, _ := jnd.Lookup(idx)
		summary, err := trajectory.Summarize(idx, s, threshold)
		if err != nil {
			return nil, fmt.Errorf("%s summary: %w", idx, err)
		}

		tracks[i] = Track{
			Index:       idx,
			Name:        idx.String(),
			Series:      s,
			Differences: diffs,
			Summary:     summary,
		}
	}

	result := &Result{
		Preset:           a.config.Preset,
		SampleRate:       sound.SampleRate(),
		Duration:         sound.Duration(),
		From:             sound.Start(),
		To:               sound.End(),
		Tracks:           tracks,
		Intensity:        trajectory.SampleContour(intensity, false),
		Generated:        time.Now(),
		Sound:            sound,
		Pitch:            pitch,
		Formants:         formants,
		IntensityContour: intensity,
	}

	logger.Info("Analysis complete", logging.Fields{
		"tracks":   len(tracks),
		"duration": sound.Duration(),
		"elapsed":  time.Since(start).String(),
	})
	return result, nil
}

// measure runs the pitch, formant and intensity analyses concurrently.
// Formants are skipped when no formant track or grid needs them.
func (a *Analyzer) measure(ctx context.Context, sound *acoustic.Sound, indices []trajectory.TrackIndex) (*acoustic.Pitch, *acoustic.Formants, *acoustic.Intensity, error) {
	needFormants := a.config.FormantGrid
	for _, idx := range indices {
		if idx != trajectory.Pitch {
			needFormants = true
		}
	}

	var (
		wg        sync.WaitGroup
		pitch     *acoustic.Pitch
		formants  *acoustic.Formants
		intensity *acoustic.Intensity
		errs      [3]error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		pitch, errs[0] = sound.ToPitch(ctx, a.config.Pitch)
	}()
	go func() {
		defer wg.Done()
		intensity, errs[2] = sound.ToIntensity(ctx, a.config.Intensity)
	}()
	if needFormants {
		wg.Add(1)
		go func() {
			defer wg.Done()
			formants, errs[1] = sound.ToFormants(ctx, a.config.Formant)
		}()
	}
	wg.Wait()

	for i, name := range []string{"pitch", "formants", "intensity"} {
		if errs[i] != nil {
			return nil, nil, nil, fmt.Errorf("%s: %w", name, errs[i])
		}
	}
	return pitch, formants, intensity, nil
}
