package acoustic

import (
	"context"
	"errors"
	"math"
	"sort"
	"testing"

	"github.com/RyanBlaney/sonido-phonetics/trajectory"
)

func sineSound(t *testing.T, freq, amp, dur float64, sampleRate int) *Sound {
	t.Helper()
	n := int(dur * float64(sampleRate))
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	s, err := NewSoundFromSamples(samples, sampleRate)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// vowel synthesizes a 100 Hz impulse train through a cascade of resonators.
func vowel(t *testing.T, formants, bandwidths []float64, dur float64, sampleRate int) *Sound {
	t.Helper()
	n := int(dur * float64(sampleRate))
	x := make([]float64, n)
	period := sampleRate / 100
	for i := 0; i < n; i += period {
		x[i] = 1
	}
	for k, f := range formants {
		r := math.Exp(-math.Pi * bandwidths[k] / float64(sampleRate))
		a1 := 2 * r * math.Cos(2*math.Pi*f/float64(sampleRate))
		a2 := -r * r
		y := make([]float64, n)
		for i := range x {
			y[i] = x[i]
			if i >= 1 {
				y[i] += a1 * y[i-1]
			}
			if i >= 2 {
				y[i] += a2 * y[i-2]
			}
		}
		x = y
	}
	peak := 0.0
	for _, v := range x {
		peak = math.Max(peak, math.Abs(v))
	}
	for i := range x {
		x[i] *= 0.5 / peak
	}
	s, err := NewSoundFromSamples(x, sampleRate)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func median(values []float64) float64 {
	defined := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			defined = append(defined, v)
		}
	}
	if len(defined) == 0 {
		return math.NaN()
	}
	sort.Float64s(defined)
	return defined[len(defined)/2]
}

func TestSoundBasics(t *testing.T) {
	s := sineSound(t, 100, 0.5, 1, 8000)
	if s.Duration() != 1 {
		t.Errorf("Duration = %g", s.Duration())
	}
	xs := s.Xs()
	if len(xs) != 8000 || xs[0] != 0.5/8000 {
		t.Errorf("Xs: len %d first %g", len(xs), xs[0])
	}

	part, err := s.ExtractPart(0.25, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if part.Start() != 0.25 || len(part.Samples()) != 2000 {
		t.Errorf("part start %g, %d samples", part.Start(), len(part.Samples()))
	}
	if part.Samples()[0] != s.Samples()[2000] {
		t.Error("part does not begin at the requested sample")
	}

	for _, r := range [][2]float64{{0.5, 0.5}, {0.6, 0.2}, {2, 3}, {math.NaN(), 1}} {
		if _, err := s.ExtractPart(r[0], r[1]); !errors.Is(err, ErrInvalidRange) {
			t.Errorf("ExtractPart(%g, %g) err = %v", r[0], r[1], err)
		}
	}

	if _, err := NewSoundFromSamples(nil, 8000); !errors.Is(err, ErrEmptySound) {
		t.Errorf("empty sound err = %v", err)
	}
	if _, err := NewSound(nil); !errors.Is(err, ErrEmptySound) {
		t.Errorf("nil audio err = %v", err)
	}
}

func TestFrameGrid(t *testing.T) {
	s := sineSound(t, 100, 0.5, 1, 8000)
	g, err := newFrameGrid(s, 0.1, 0.01)
	if err != nil {
		t.Fatal(err)
	}
	if g.n != 91 {
		t.Errorf("frames = %d, want 91", g.n)
	}
	if math.Abs(g.t1-0.05) > 1e-9 {
		t.Errorf("first frame at %g, want 0.05", g.t1)
	}
	// centred: symmetric margins
	if lastEnd := g.time(g.n-1) + 0.05; math.Abs(lastEnd-1) > 1e-9 {
		t.Errorf("last window ends at %g", lastEnd)
	}

	if _, err := newFrameGrid(s, 2, 0.01); !errors.Is(err, ErrSoundTooShort) {
		t.Errorf("long window err = %v", err)
	}
}

func TestContourValueAtTime(t *testing.T) {
	c := &Contour{grid: frameGrid{t1: 0.1, dt: 0.1, n: 4}, values: []float64{100, 200, math.NaN(), 400}}

	tests := []struct {
		t    float64
		want float64
	}{
		{0.1, 100},
		{0.15, 150},
		{0.06, 100}, // within half a step before the first frame
		{0.2, 200},
		{0.4, 400},
		{0.44, 400},
	}
	for _, tt := range tests {
		if got := c.ValueAtTime(tt.t); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ValueAtTime(%g) = %g, want %g", tt.t, got, tt.want)
		}
	}
	for _, at := range []float64{0.0, 0.25, 0.5, math.NaN()} {
		if v := c.ValueAtTime(at); !math.IsNaN(v) {
			t.Errorf("ValueAtTime(%g) = %g, want NaN", at, v)
		}
	}

	lo, hi := c.Range()
	if lo != 100 || hi != 400 {
		t.Errorf("Range = %g, %g", lo, hi)
	}
	var _ trajectory.Contour = c
}

func TestToPitchSine(t *testing.T) {
	s := sineSound(t, 200, 0.5, 0.5, 16000)
	pitch, err := s.ToPitch(context.Background(), DefaultPitchParams())
	if err != nil {
		t.Fatal(err)
	}
	if pitch.FrameCount() == 0 {
		t.Fatal("no frames")
	}
	for i, v := range pitch.Values() {
		if math.Abs(v-200) > 2 {
			t.Fatalf("frame %d pitch = %g, want ~200", i, v)
		}
	}
	if got := pitch.ValueAtTime(0.25); math.Abs(got-200) > 2 {
		t.Errorf("ValueAtTime(0.25) = %g", got)
	}
}

func TestSilenceGivesUndefinedPitch(t *testing.T) {
	s, err := NewSoundFromSamples(make([]float64, 8000), 16000)
	if err != nil {
		t.Fatal(err)
	}
	pitch, err := s.ToPitch(context.Background(), DefaultPitchParams())
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range pitch.Values() {
		if !math.IsNaN(v) {
			t.Fatalf("frame %d pitch = %g, want NaN", i, v)
		}
	}

	tracks, err := trajectory.ExtractTracks(pitch, nil, nil, trajectory.ExtractOptions{
		Indices:             []trajectory.TrackIndex{trajectory.Pitch},
		SubstituteUndefined: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range tracks[0] {
		if p.Value != 0 {
			t.Fatalf("substituted track has %g at %g", p.Value, p.Time)
		}
	}
}

func TestToPitchValidationAndCancel(t *testing.T) {
	s := sineSound(t, 200, 0.5, 0.5, 16000)
	if _, err := s.ToPitch(context.Background(), PitchParams{Floor: 300, Ceiling: 200}); err == nil {
		t.Error("expected error for ceiling below floor")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.ToPitch(ctx, DefaultPitchParams()); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled err = %v", err)
	}
}

func TestToIntensity(t *testing.T) {
	s := sineSound(t, 200, 0.2, 0.5, 16000)
	in, err := s.ToIntensity(context.Background(), DefaultIntensityParams())
	if err != nil {
		t.Fatal(err)
	}
	want := 10 * math.Log10(0.02/4e-10) // A²/2 re (2e-5)²
	for i, v := range in.Values() {
		if math.Abs(v-want) > 0.5 {
			t.Fatalf("frame %d intensity = %g dB, want ~%g", i, v, want)
		}
	}
	if math.Abs(in.TimeStep()-0.008) > 1e-12 {
		t.Errorf("default step = %g, want 0.008", in.TimeStep())
	}
}

func TestToFormantsVowel(t *testing.T) {
	s := vowel(t, []float64{700, 1200, 2600, 3500}, []float64{80, 90, 120, 150}, 0.5, 11025)

	formants, err := s.ToFormants(context.Background(), DefaultFormantParams())
	if err != nil {
		t.Fatal(err)
	}
	if formants.Formant(0) != nil || formants.Formant(6) != nil {
		t.Error("out-of-range formants should be nil")
	}

	checks := []struct {
		n         int
		want, tol float64
	}{
		{1, 700, 80},
		{2, 1200, 120},
	}
	for _, c := range checks {
		got := median(formants.FormantContour(c.n).Values())
		if math.Abs(got-c.want) > c.tol {
			t.Errorf("median F%d = %.0f Hz, want %g ± %g", c.n, got, c.want, c.tol)
		}
	}

	if _, err := s.ToFormants(context.Background(), FormantParams{MaxFormants: 3}); err == nil {
		t.Error("expected error for fewer than four formants")
	}
}

func TestDecimationFactor(t *testing.T) {
	tests := map[int]int{44100: 4, 48000: 4, 22050: 2, 16000: 1, 11025: 1, 8000: 1}
	for sr, want := range tests {
		if got := decimationFactor(sr, 5500); got != want {
			t.Errorf("decimationFactor(%d) = %d, want %d", sr, got, want)
		}
	}

	s := sineSound(t, 300, 0.5, 0.5, 44100)
	d, err := s.decimate(4)
	if err != nil {
		t.Fatal(err)
	}
	if d.SampleRate() != 11025 || len(d.Samples()) != len(s.Samples())/4 {
		t.Errorf("decimated to %d Hz, %d samples", d.SampleRate(), len(d.Samples()))
	}
	// a passband tone keeps its amplitude away from the edges
	mid := d.Samples()[len(d.Samples())/4 : 3*len(d.Samples())/4]
	peak := 0.0
	for _, v := range mid {
		peak = math.Max(peak, math.Abs(v))
	}
	if math.Abs(peak-0.5) > 0.02 {
		t.Errorf("passband peak = %g, want ~0.5", peak)
	}
}

func TestToSpectrogram(t *testing.T) {
	s := sineSound(t, 1000, 0.5, 0.3, 16000)
	sg, err := s.ToSpectrogram(context.Background(), DefaultSpectrogramParams())
	if err != nil {
		t.Fatal(err)
	}
	if sg.FrameCount() == 0 || sg.BinCount() == 0 {
		t.Fatal("empty spectrogram")
	}
	if top := sg.Freqs[len(sg.Freqs)-1]; top > 5000 {
		t.Errorf("top bin %g Hz above max frequency", top)
	}
	for i := 1; i < len(sg.Times); i++ {
		if sg.Times[i] <= sg.Times[i-1] {
			t.Fatal("frame times not increasing")
		}
	}

	db := sg.DB()
	frame := db[len(db)/2]
	peak := 0
	for k := range frame {
		if frame[k] > frame[peak] {
			peak = k
		}
	}
	if math.Abs(sg.Freqs[peak]-1000) > sg.FreqStep {
		t.Errorf("peak at %g Hz, want ~1000", sg.Freqs[peak])
	}
	if sg.MaxDB() < frame[peak]-1e-9 {
		t.Error("MaxDB below a frame peak")
	}
}
