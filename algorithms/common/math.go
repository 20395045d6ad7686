package common

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// RemoveDC returns a copy of data with its mean subtracted.
func RemoveDC(data []float64) []float64 {
	out := make([]float64, len(data))
	copy(out, data)
	floats.AddConst(-Mean(data), out)
	return out
}

// MeanSquare calculates the (optionally weighted) mean of squared samples.
// weights may be nil; otherwise it must match data in length.
func MeanSquare(data, weights []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	if weights == nil {
		return floats.Dot(data, data) / float64(len(data))
	}

	num, den := 0.0, 0.0
	for i, v := range data {
		num += weights[i] * v * v
		den += weights[i]
	}
	if den == 0 {
		return 0.0
	}
	return num / den
}

// PeakAbs returns the largest absolute sample value.
func PeakAbs(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return math.Max(math.Abs(floats.Min(data)), math.Abs(floats.Max(data)))
}

// ParabolicPeak refines the extremum at idx by fitting a parabola through it
// and its two neighbours. It returns the fractional index and the
// interpolated value.
func ParabolicPeak(data []float64, idx int) (float64, float64) {
	if idx <= 0 || idx >= len(data)-1 {
		return float64(idx), data[idx]
	}

	y1, y2, y3 := data[idx-1], data[idx], data[idx+1]
	a := (y1 - 2*y2 + y3) / 2
	b := (y3 - y1) / 2
	if a == 0 {
		return float64(idx), y2
	}

	offset := -b / (2 * a)
	return float64(idx) + offset, y2 - b*b/(4*a)
}

// NextPowerOf2 returns the smallest power of two >= n.
func NextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
