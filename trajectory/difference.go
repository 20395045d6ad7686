package trajectory

import "math"

type differenceOptions struct {
	nullUndefined bool
}

// DifferenceOption tunes Difference.
type DifferenceOption func(*differenceOptions)

// WithUndefinedNulling controls whether a delta touching an undefined marker
// (0.0 left by substitution, or NaN from raw pass-through) is forced to 0.
// Off by default; enable it to keep voiced/unvoiced boundaries from showing
// up as large jumps.
func WithUndefinedNulling(enabled bool) DifferenceOption {
	return func(o *differenceOptions) {
		o.nullUndefined = enabled
	}
}

// Undefined reports whether v is an undefined marker: NaN, or the exact 0.0
// that zero-substitution leaves behind.
func Undefined(v float64) bool {
	return v == 0 || math.IsNaN(v)
}

// Difference computes the first difference of s. Element k-1 of the result
// sits at the midpoint of s[k-1] and s[k] and holds s[k].Value - s[k-1].Value.
func Difference(s TimeSeries, opts ...DifferenceOption) (DifferenceSeries, error) {
	var o differenceOptions
	for _, opt := range opts {
		opt(&o)
	}

	if len(s) < 2 {
		return nil, ErrSeriesTooShort
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	out := make(DifferenceSeries, len(s)-1)
	for k := 1; k < len(s); k++ {
		prev, cur := s[k-1], s[k]
		delta := cur.Value - prev.Value
		if o.nullUndefined && (Undefined(prev.Value) || Undefined(cur.Value)) {
			delta = 0
		}
		out[k-1] = Point{
			Time:  (prev.Time + cur.Time) / 2,
			Value: delta,
		}
	}
	return out, nil
}

// DifferenceAll differences every series, keeping order.
func DifferenceAll(series []TimeSeries, opts ...DifferenceOption) ([]DifferenceSeries, error) {
	out := make([]DifferenceSeries, len(series))
	for i, s := range series {
		d, err := Difference(s, opts...)
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}
