package common

import (
	"math"
	"testing"
)

func TestParabolicPeak(t *testing.T) {
	// y = -(x-2.25)^2 sampled at integers peaks at 2.25
	data := make([]float64, 5)
	for i := range data {
		d := float64(i) - 2.25
		data[i] = -d * d
	}

	x, y := ParabolicPeak(data, 2)
	if math.Abs(x-2.25) > 1e-9 {
		t.Errorf("x = %g, want 2.25", x)
	}
	if math.Abs(y) > 1e-9 {
		t.Errorf("y = %g, want 0", y)
	}

	if x, _ := ParabolicPeak(data, 0); x != 0 {
		t.Errorf("edge index moved to %g", x)
	}
}

func TestMeanSquareAndDC(t *testing.T) {
	data := []float64{1, -1, 1, -1}
	if got := MeanSquare(data, nil); got != 1 {
		t.Errorf("MeanSquare = %g, want 1", got)
	}
	if got := MeanSquare(data, []float64{1, 0, 0, 0}); got != 1 {
		t.Errorf("weighted MeanSquare = %g, want 1", got)
	}

	shifted := RemoveDC([]float64{3, 5})
	if shifted[0] != -1 || shifted[1] != 1 {
		t.Errorf("RemoveDC = %v", shifted)
	}
	if PeakAbs([]float64{0.2, -0.7, 0.5}) != 0.7 {
		t.Error("PeakAbs should pick the negative peak")
	}
}

func TestNextPowerOf2(t *testing.T) {
	for n, want := range map[int]int{1: 1, 3: 4, 512: 512, 513: 1024} {
		if got := NextPowerOf2(n); got != want {
			t.Errorf("NextPowerOf2(%d) = %d, want %d", n, got, want)
		}
	}
}
