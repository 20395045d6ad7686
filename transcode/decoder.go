package transcode

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/RyanBlaney/sonido-phonetics/logging"
)

var (
	// ErrNotWAV is returned for inputs that are not named *.wav.
	ErrNotWAV = errors.New("input is not a WAV file")
	// ErrInvalidWAV is returned when the RIFF/WAVE header cannot be read or
	// describes an unsupported encoding.
	ErrInvalidWAV = errors.New("invalid WAV data")
)

// AudioData represents decoded audio data
type AudioData struct {
	PCM         []float64     `json:"-"` // mono mix in [-1, 1]
	ChannelData [][]float64   `json:"-"` // per-channel samples in [-1, 1]
	SampleRate  int           `json:"sample_rate"`
	Channels    int           `json:"channels"`
	BitDepth    int           `json:"bit_depth"`
	Duration    time.Duration `json:"duration"`
	Timestamp   time.Time     `json:"timestamp"`
	Metadata    *FileMetadata `json:"metadata,omitempty"`
}

// FileMetadata describes where decoded audio came from.
type FileMetadata struct {
	Path      string    `json:"path"`
	Format    string    `json:"format"`
	Size      int64     `json:"size"`
	Modified  time.Time `json:"modified"`
	Truncated bool      `json:"truncated,omitempty"`
}

// DecoderConfig holds decoder configuration
type DecoderConfig struct {
	MaxDuration time.Duration `json:"max_duration" yaml:"max_duration" mapstructure:"max_duration"` // 0 keeps everything
}

// DefaultDecoderConfig returns default decoder configuration
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		MaxDuration: 0, // No limit
	}
}

// Decoder reads PCM WAV files with go-audio/wav.
type Decoder struct {
	config *DecoderConfig
	logger logging.Logger
}

// NewDecoder creates a decoder; a nil config selects the defaults.
func NewDecoder(config *DecoderConfig) *Decoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &Decoder{
		config: config,
		logger: logging.WithFields(logging.Fields{
			"component": "decoder",
		}),
	}
}

// DecodeFile decodes a WAV file from disk.
func (d *Decoder) DecodeFile(filename string) (*AudioData, error) {
	logger := d.logger.WithFields(logging.Fields{
		"function": "DecodeFile",
		"file":     filename,
	})

	if !strings.EqualFold(filepath.Ext(filename), ".wav") {
		return nil, fmt.Errorf("%s: %w", filename, ErrNotWAV)
	}

	info, err := os.Stat(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to stat audio file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory: %w", filename, ErrNotWAV)
	}

	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	audioData, err := d.DecodeReader(f)
	if err != nil {
		logger.Error(err, "Failed to decode WAV file")
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	audioData.Metadata.Path = filename
	audioData.Metadata.Size = info.Size()
	audioData.Metadata.Modified = info.ModTime()

	logger.Debug("Decoded WAV file", logging.Fields{
		"sample_rate": audioData.SampleRate,
		"channels":    audioData.Channels,
		"bit_depth":   audioData.BitDepth,
		"duration":    audioData.Duration.Seconds(),
		"truncated":   audioData.Metadata.Truncated,
	})

	return audioData, nil
}

// DecodeReader decodes WAV data from any seekable reader.
func (d *Decoder) DecodeReader(r io.ReadSeeker) (*AudioData, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrInvalidWAV
	}
	if dec.WavAudioFormat != 1 {
		return nil, fmt.Errorf("unsupported WAV format tag %d: %w", dec.WavAudioFormat, ErrInvalidWAV)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("could not read PCM buffer: %w", err)
	}
	if buf.Format == nil || buf.Format.NumChannels <= 0 || buf.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("missing format chunk: %w", ErrInvalidWAV)
	}

	return d.convert(buf, int(dec.BitDepth)), nil
}

// convert deinterleaves integer PCM into float channels and a mono mix.
func (d *Decoder) convert(buf *audio.IntBuffer, bitDepth int) *AudioData {
	if buf.SourceBitDepth > 0 {
		bitDepth = buf.SourceBitDepth
	}
	channels := buf.Format.NumChannels
	sampleRate := buf.Format.SampleRate

	frames := len(buf.Data) / channels
	truncated := false
	if d.config.MaxDuration > 0 {
		limit := int(d.config.MaxDuration.Seconds() * float64(sampleRate))
		if limit < frames {
			frames = limit
			truncated = true
		}
	}

	scale := float64(int64(1) << (bitDepth - 1))
	offset := 0.0
	if bitDepth == 8 {
		// 8-bit WAV is unsigned
		offset = 128
	}

	channelData := make([][]float64, channels)
	for c := range channelData {
		channelData[c] = make([]float64, frames)
	}
	mono := make([]float64, frames)
	for i := range frames {
		sum := 0.0
		for c := range channels {
			v := (float64(buf.Data[i*channels+c]) - offset) / scale
			channelData[c][i] = v
			sum += v
		}
		mono[i] = sum / float64(channels)
	}

	return &AudioData{
		PCM:         mono,
		ChannelData: channelData,
		SampleRate:  sampleRate,
		Channels:    channels,
		BitDepth:    bitDepth,
		Duration:    time.Duration(float64(frames) / float64(sampleRate) * float64(time.Second)),
		Timestamp:   time.Now(),
		Metadata: &FileMetadata{
			Format:    "wav",
			Truncated: truncated,
		},
	}
}

// GetConfig returns the decoder configuration as a map.
func (d *Decoder) GetConfig() map[string]any {
	return map[string]any{
		"max_duration": d.config.MaxDuration.String(),
	}
}
