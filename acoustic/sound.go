// Package acoustic is the default acoustic engine. It measures pitch,
// formants, intensity and spectrograms on a Sound and exposes each result as
// a frame contour that trajectory can sample.
package acoustic

import (
	"errors"
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-phonetics/transcode"
)

var (
	ErrEmptySound    = errors.New("acoustic: sound has no samples")
	ErrSoundTooShort = errors.New("acoustic: sound shorter than analysis window")
	ErrInvalidRange  = errors.New("acoustic: invalid time range")
)

// Sound is a mono signal with a time domain. Start is the time of the first
// sample, so parts extracted from a longer sound keep their original times.
type Sound struct {
	samples    []float64
	sampleRate int
	start      float64
}

// NewSound wraps the mono mix of decoded audio.
func NewSound(data *transcode.AudioData) (*Sound, error) {
	if data == nil || len(data.PCM) == 0 {
		return nil, ErrEmptySound
	}
	return NewSoundFromSamples(data.PCM, data.SampleRate)
}

// NewSoundFromSamples builds a Sound starting at time 0.
func NewSoundFromSamples(samples []float64, sampleRate int) (*Sound, error) {
	if len(samples) == 0 {
		return nil, ErrEmptySound
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("acoustic: sample rate must be positive, got %d", sampleRate)
	}
	return &Sound{samples: samples, sampleRate: sampleRate}, nil
}

// Samples returns the underlying samples. Callers must not modify them.
func (s *Sound) Samples() []float64 { return s.samples }

// SampleRate returns the sampling frequency in Hz.
func (s *Sound) SampleRate() int { return s.sampleRate }

// Start returns the start of the time domain in seconds.
func (s *Sound) Start() float64 { return s.start }

// End returns the end of the time domain in seconds.
func (s *Sound) End() float64 { return s.start + s.Duration() }

// Duration returns the length of the sound in seconds.
func (s *Sound) Duration() float64 {
	return float64(len(s.samples)) / float64(s.sampleRate)
}

// Xs returns the time of every sample.
func (s *Sound) Xs() []float64 {
	xs := make([]float64, len(s.samples))
	dt := 1 / float64(s.sampleRate)
	for i := range xs {
		xs[i] = s.start + (float64(i)+0.5)*dt
	}
	return xs
}

// ExtractPart returns the samples between from and to (seconds, absolute
// times). The part keeps its times.
func (s *Sound) ExtractPart(from, to float64) (*Sound, error) {
	if math.IsNaN(from) || math.IsNaN(to) || to <= from {
		return nil, fmt.Errorf("%w: %g..%g", ErrInvalidRange, from, to)
	}
	from = math.Max(from, s.start)
	to = math.Min(to, s.End())
	if to <= from {
		return nil, fmt.Errorf("%w: outside %g..%g", ErrInvalidRange, s.start, s.End())
	}

	first := int(math.Round((from - s.start) * float64(s.sampleRate)))
	last := int(math.Round((to - s.start) * float64(s.sampleRate)))
	last = min(last, len(s.samples))
	if last <= first {
		return nil, fmt.Errorf("%w: less than one sample", ErrInvalidRange)
	}

	part := make([]float64, last-first)
	copy(part, s.samples[first:last])
	return &Sound{
		samples:    part,
		sampleRate: s.sampleRate,
		start:      s.start + float64(first)/float64(s.sampleRate),
	}, nil
}

// AudioData converts the sound back into decoded-audio form for encoding.
func (s *Sound) AudioData() *transcode.AudioData {
	return &transcode.AudioData{
		PCM:        s.samples,
		SampleRate: s.sampleRate,
		Channels:   1,
	}
}

// frameAt copies size samples centred on time t, zero-padding where the
// window runs past the sound.
func (s *Sound) frameAt(t float64, size int, dst []float64) {
	first := int(math.Round((t-s.start)*float64(s.sampleRate) - float64(size)/2))
	for i := range size {
		j := first + i
		if j < 0 || j >= len(s.samples) {
			dst[i] = 0
			continue
		}
		dst[i] = s.samples[j]
	}
}
