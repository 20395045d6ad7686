package temporal

import (
	"math"
	"testing"

	"github.com/RyanBlaney/sonido-phonetics/algorithms/windowing"
)

func TestComputeIntensity(t *testing.T) {
	e, err := NewEnergy(400, 16000, windowing.Rectangular)
	if err != nil {
		t.Fatal(err)
	}

	// 0.02 Pa RMS is 60 dB
	frame := make([]float64, 400)
	for i := range frame {
		if i%2 == 0 {
			frame[i] = 0.02
		} else {
			frame[i] = -0.02
		}
	}
	db, err := e.ComputeIntensity(frame)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(db-60) > 1e-9 {
		t.Errorf("intensity = %g dB, want 60", db)
	}

	silent, _ := e.ComputeIntensity(make([]float64, 400))
	if silent != SilenceDB {
		t.Errorf("silence = %g, want %g", silent, SilenceDB)
	}

	// DC offset carries no intensity
	dc := make([]float64, 400)
	for i := range dc {
		dc[i] = 0.5
	}
	if v, _ := e.ComputeIntensity(dc); v != SilenceDB {
		t.Errorf("DC frame = %g dB", v)
	}

	if _, err := e.ComputeIntensity(frame[:10]); err == nil {
		t.Error("expected frame size error")
	}
}

func TestIntensityScalesBy6dBPerDoubling(t *testing.T) {
	e, err := NewEnergy(256, 8000, windowing.Hann)
	if err != nil {
		t.Fatal(err)
	}
	frame := make([]float64, 256)
	for i := range frame {
		frame[i] = 0.1 * math.Sin(2*math.Pi*440*float64(i)/8000)
	}
	quiet, _ := e.ComputeIntensity(frame)
	for i := range frame {
		frame[i] *= 2
	}
	loud, _ := e.ComputeIntensity(frame)
	if math.Abs(loud-quiet-20*math.Log10(2)) > 1e-9 {
		t.Errorf("doubling changed intensity by %g dB", loud-quiet)
	}
}

func TestShortTimeEnergy(t *testing.T) {
	e, err := NewEnergy(4, 8000, windowing.Rectangular)
	if err != nil {
		t.Fatal(err)
	}
	got := e.ComputeShortTimeEnergy([]float64{1, 1, 1, 1, 0, 0, 0, 0}, 4)
	if len(got) != 2 || got[0] != 1 || got[1] != 0 {
		t.Errorf("energies = %v", got)
	}
	if len(e.ComputeShortTimeEnergy([]float64{1}, 4)) != 0 {
		t.Error("short signal should give no frames")
	}
}
