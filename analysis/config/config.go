// Package config holds the analysis configuration, its presets and the
// viper-backed loader.
package config

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/RyanBlaney/sonido-phonetics/acoustic"
	"github.com/RyanBlaney/sonido-phonetics/trajectory"
	"github.com/RyanBlaney/sonido-phonetics/transcode"
)

// EnvPrefix is prepended to environment overrides, e.g. PHONETRACK_PRESET.
const EnvPrefix = "PHONETRACK"

var ErrUnknownPreset = errors.New("config: unknown preset")

// Preset names a bundle of analysis parameters.
type Preset string

const (
	// PresetFine samples everything every millisecond without gating.
	PresetFine Preset = "fine"
	// PresetCoarse samples every 5 ms on the formant grid and gates at 55 dB.
	PresetCoarse Preset = "coarse"
	// PresetAssignment uses 10 ms pitch and formant steps with a 50 ms pitch
	// window and gates at 55 dB.
	PresetAssignment Preset = "assignment"
)

// Presets lists the known presets.
var Presets = []Preset{PresetFine, PresetCoarse, PresetAssignment}

// AnalysisConfig configures one analysis run.
type AnalysisConfig struct {
	Preset Preset   `json:"preset" yaml:"preset" mapstructure:"preset"`
	Tracks []string `json:"tracks" yaml:"tracks" mapstructure:"tracks"` // F0..F4

	Pitch       acoustic.PitchParams       `json:"pitch" yaml:"pitch" mapstructure:"pitch"`
	Formant     acoustic.FormantParams     `json:"formant" yaml:"formant" mapstructure:"formant"`
	Intensity   acoustic.IntensityParams   `json:"intensity" yaml:"intensity" mapstructure:"intensity"`
	Spectrogram acoustic.SpectrogramParams `json:"spectrogram" yaml:"spectrogram" mapstructure:"spectrogram"`
	Decoder     transcode.DecoderConfig    `json:"decoder" yaml:"decoder" mapstructure:"decoder"`

	// IntensityFloor gates track values (dB); 0 disables gating.
	IntensityFloor float64 `json:"intensity_floor" yaml:"intensity_floor" mapstructure:"intensity_floor"`
	// SubstituteUndefined replaces NaN with 0.0 in extracted tracks.
	SubstituteUndefined bool `json:"substitute_undefined" yaml:"substitute_undefined" mapstructure:"substitute_undefined"`
	// NullUndefinedDifferences zeroes differences touching an undefined value.
	NullUndefinedDifferences bool `json:"null_undefined_differences" yaml:"null_undefined_differences" mapstructure:"null_undefined_differences"`
	// FormantGrid samples every track on the formant frame times.
	FormantGrid bool `json:"formant_grid" yaml:"formant_grid" mapstructure:"formant_grid"`
	// SmoothingWindow applies a centred moving average of this many frames
	// before differencing; 0 or 1 disables it.
	SmoothingWindow int `json:"smoothing_window" yaml:"smoothing_window" mapstructure:"smoothing_window"`

	// JND maps "f0".."f4" to thresholds in Hz; missing keys keep the defaults.
	JND map[string]float64 `json:"jnd" yaml:"jnd" mapstructure:"jnd"`

	// From and To restrict analysis to a time window (seconds); To == 0 means
	// the end of the recording.
	From float64 `json:"from" yaml:"from" mapstructure:"from"`
	To   float64 `json:"to" yaml:"to" mapstructure:"to"`

	// DynamicRange is the spectrogram plotting range below the peak (dB).
	DynamicRange float64 `json:"dynamic_range" yaml:"dynamic_range" mapstructure:"dynamic_range"`
}

// DefaultAnalysisConfig returns the coarse preset.
func DefaultAnalysisConfig() *AnalysisConfig {
	cfg, _ := PresetConfig(PresetCoarse)
	return cfg
}

func baseConfig() *AnalysisConfig {
	jnd := make(map[string]float64)
	for idx, hz := range trajectory.DefaultJND() {
		jnd[jndKey(idx)] = hz
	}
	return &AnalysisConfig{
		Tracks:                   []string{"F0", "F1", "F2", "F3", "F4"},
		Pitch:                    acoustic.DefaultPitchParams(),
		Formant:                  acoustic.DefaultFormantParams(),
		Intensity:                acoustic.DefaultIntensityParams(),
		Spectrogram:              acoustic.DefaultSpectrogramParams(),
		Decoder:                  *transcode.DefaultDecoderConfig(),
		SubstituteUndefined:      true,
		NullUndefinedDifferences: true,
		JND:                      jnd,
		DynamicRange:             70,
	}
}

// PresetConfig returns the configuration for a named preset.
func PresetConfig(preset Preset) (*AnalysisConfig, error) {
	cfg := baseConfig()
	cfg.Preset = preset

	switch Preset(strings.ToLower(string(preset))) {
	case PresetFine:
		cfg.Preset = PresetFine
		cfg.Pitch.TimeStep = 0.001
		cfg.Formant.TimeStep = 0.001
		cfg.Intensity.TimeStep = 0.001
		cfg.Spectrogram.TimeStep = 0.001

	case PresetCoarse, "":
		cfg.Preset = PresetCoarse
		cfg.Pitch.TimeStep = 0.005
		cfg.Formant.TimeStep = 0.005
		cfg.Intensity.TimeStep = 0.005
		cfg.IntensityFloor = 55
		cfg.FormantGrid = true

	case PresetAssignment:
		cfg.Preset = PresetAssignment
		cfg.Pitch.TimeStep = 0.01
		cfg.Pitch.WindowLength = 0.05
		cfg.Formant.TimeStep = 0.01
		cfg.Formant.WindowLength = 0.025
		cfg.Intensity.TimeStep = 0.000951
		cfg.IntensityFloor = 55
		cfg.FormantGrid = true

	default:
		return nil, fmt.Errorf("%w %q (want one of %v)", ErrUnknownPreset, preset, Presets)
	}

	return cfg, nil
}

// Validate checks ranges and that tracks and JND keys name F0..F4.
func (c *AnalysisConfig) Validate() error {
	if _, err := c.TrackIndices(); err != nil {
		return err
	}
	if _, err := c.JNDTable(); err != nil {
		return err
	}
	if c.IntensityFloor < 0 {
		return fmt.Errorf("config: intensity floor must not be negative, got %g", c.IntensityFloor)
	}
	if c.SmoothingWindow < 0 {
		return fmt.Errorf("config: smoothing window must not be negative, got %d", c.SmoothingWindow)
	}
	if c.From < 0 || (c.To != 0 && c.To <= c.From) {
		return fmt.Errorf("config: invalid time window %g..%g", c.From, c.To)
	}
	if c.Pitch.Ceiling <= c.Pitch.Floor {
		return fmt.Errorf("config: pitch ceiling %g must exceed floor %g", c.Pitch.Ceiling, c.Pitch.Floor)
	}
	return nil
}

// TrackIndices parses Tracks. An empty list selects all of F0..F4.
func (c *AnalysisConfig) TrackIndices() ([]trajectory.TrackIndex, error) {
	if len(c.Tracks) == 0 {
		return append([]trajectory.TrackIndex(nil), trajectory.AllTracks...), nil
	}
	out := make([]trajectory.TrackIndex, 0, len(c.Tracks))
	for _, name := range c.Tracks {
		idx, err := trajectory.ParseTrack(strings.TrimSpace(name))
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		out = append(out, idx)
	}
	return out, nil
}

// JNDTable merges the configured thresholds over the defaults.
func (c *AnalysisConfig) JNDTable() (trajectory.JNDTable, error) {
	table := trajectory.DefaultJND()
	for key, hz := range c.JND {
		idx, err := trajectory.ParseTrack(key)
		if err != nil {
			return nil, fmt.Errorf("config: jnd key: %w", err)
		}
		if hz < 0 {
			return nil, fmt.Errorf("config: jnd for %s must not be negative", idx)
		}
		table[idx] = hz
	}
	return table, nil
}

// Dump writes the configuration as YAML.
func (c *AnalysisConfig) Dump(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("config: encode yaml: %w", err)
	}
	return enc.Close()
}

func jndKey(idx trajectory.TrackIndex) string {
	return strings.ToLower(idx.String())
}

// envKeys are the settings that can be overridden from the environment.
var envKeys = []string{
	"preset", "tracks",
	"intensity_floor", "substitute_undefined", "null_undefined_differences",
	"formant_grid", "smoothing_window", "from", "to", "dynamic_range",
	"pitch.time_step", "pitch.floor", "pitch.ceiling", "pitch.window_length",
	"pitch.voicing_threshold", "pitch.silence_threshold",
	"formant.time_step", "formant.max_formants", "formant.max_frequency",
	"formant.window_length", "formant.pre_emphasis_from",
	"intensity.minimum_pitch", "intensity.time_step",
	"spectrogram.window_length", "spectrogram.time_step", "spectrogram.max_frequency",
	"decoder.max_duration",
	"jnd.f0", "jnd.f1", "jnd.f2", "jnd.f3", "jnd.f4",
}

// NewViper returns a viper instance reading PHONETRACK_* variables, with
// nested keys joined by underscores (PHONETRACK_PITCH_FLOOR).
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envKeys {
		_ = v.BindEnv(key) // only fails without a key
	}
	return v
}

// Load reads an optional YAML file plus environment overrides on top of the
// selected preset.
func Load(path string) (*AnalysisConfig, error) {
	return LoadWith(NewViper(), path)
}

// LoadWith is Load on a caller-supplied viper instance, so that command-line
// flags set on v take part.
func LoadWith(v *viper.Viper, path string) (*AnalysisConfig, error) {
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg, err := PresetConfig(Preset(v.GetString("preset")))
	if err != nil {
		return nil, err
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
