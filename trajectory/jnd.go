package trajectory

// JNDTable maps a track to the frequency change (Hz) above which a listener
// notices it.
type JNDTable map[TrackIndex]float64

// DefaultJND returns the thresholds used for F0..F4.
func DefaultJND() JNDTable {
	return JNDTable{
		Pitch: 5,
		F1:    60,
		F2:    200,
		F3:    400,
		F4:    650,
	}
}

// Lookup returns the threshold for idx.
func (j JNDTable) Lookup(idx TrackIndex) (float64, bool) {
	v, ok := j[idx]
	return v, ok
}
