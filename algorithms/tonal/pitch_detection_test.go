package tonal

import (
	"math"
	"testing"
)

func tone(freq float64, sampleRate, n int, amp float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return out
}

func TestDetectPitchSine(t *testing.T) {
	params := DefaultPitchParams(16000)
	pd, err := NewPitchDetector(params)
	if err != nil {
		t.Fatal(err)
	}

	for _, f := range []float64{100, 200, 330} {
		res, err := pd.DetectPitch(tone(f, 16000, pd.WindowSize(), 0.5))
		if err != nil {
			t.Fatal(err)
		}
		if !res.Voiced || math.Abs(res.Pitch-f) > 1 {
			t.Errorf("%g Hz tone: got %+v", f, res)
		}
	}
}

func TestDetectPitchSilence(t *testing.T) {
	pd, err := NewPitchDetector(DefaultPitchParams(16000))
	if err != nil {
		t.Fatal(err)
	}

	res, err := pd.DetectPitch(make([]float64, pd.WindowSize()))
	if err != nil {
		t.Fatal(err)
	}
	if res.Voiced || !math.IsNaN(res.Pitch) {
		t.Errorf("silent frame: %+v", res)
	}

	// quiet relative to the recording peak
	pd.SetReferencePeak(1.0)
	res, _ = pd.DetectPitch(tone(200, 16000, pd.WindowSize(), 0.01))
	if res.Voiced {
		t.Errorf("frame below silence threshold reported voiced: %+v", res)
	}
}

func TestNewPitchDetectorValidation(t *testing.T) {
	bad := []PitchDetectionParams{
		{SampleRate: 0, WindowSize: 640, MinFreq: 75, MaxFreq: 600},
		{SampleRate: 16000, WindowSize: 640, MinFreq: 600, MaxFreq: 75},
		{SampleRate: 16000, WindowSize: 100, MinFreq: 75, MaxFreq: 600},
	}
	for _, p := range bad {
		if _, err := NewPitchDetector(p); err == nil {
			t.Errorf("expected error for %+v", p)
		}
	}

	pd, _ := NewPitchDetector(DefaultPitchParams(16000))
	if _, err := pd.DetectPitch(make([]float64, 10)); err == nil {
		t.Error("expected frame size error")
	}
}
