package trajectory

// TrailingAverage replaces each value with the mean of itself and up to
// size-1 preceding values.
func TrailingAverage(values []float64, size int) []float64 {
	if size < 1 {
		size = 1
	}
	out := make([]float64, len(values))
	for k := range values {
		sum, n := 0.0, 0
		for j := k; j > k-size && j >= 0; j-- {
			sum += values[j]
			n++
		}
		out[k] = sum / float64(n)
	}
	return out
}

// CenteredAverage replaces each value with the mean of a window centred on
// it. Even sizes are bumped to the next odd size; the window is truncated at
// the edges.
func CenteredAverage(values []float64, size int) []float64 {
	if size < 1 {
		size = 1
	}
	if size%2 == 0 {
		size++
	}
	half := size / 2

	out := make([]float64, len(values))
	for k := range values {
		sum, n := 0.0, 0
		for j := max(0, k-half); j <= min(len(values)-1, k+half); j++ {
			sum += values[j]
			n++
		}
		out[k] = sum / float64(n)
	}
	return out
}

// Smooth applies a centred moving average to the values of s, keeping its
// times. Undefined markers (see Undefined) are left as they are and never
// enter a neighbour's average, so voiced/unvoiced edges stay exact for
// WithUndefinedNulling.
func Smooth(s TimeSeries, size int) TimeSeries {
	if size < 1 {
		size = 1
	}
	if size%2 == 0 {
		size++
	}
	half := size / 2

	out := make(TimeSeries, len(s))
	for k, p := range s {
		out[k] = p
		if Undefined(p.Value) {
			continue
		}
		sum, n := 0.0, 0
		for j := max(0, k-half); j <= min(len(s)-1, k+half); j++ {
			if Undefined(s[j].Value) {
				continue
			}
			sum += s[j].Value
			n++
		}
		out[k].Value = sum / float64(n)
	}
	return out
}
