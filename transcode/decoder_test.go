package transcode

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTone(t *testing.T, name string, channels [][]float64, sampleRate, bitDepth int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	err := EncodeFile(path, &AudioData{ChannelData: channels, SampleRate: sampleRate}, bitDepth)
	if err != nil {
		t.Fatalf("EncodeFile: %v", err)
	}
	return path
}

func sine(freq float64, sampleRate, n int, amp float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return out
}

func TestDecodeRoundTrip(t *testing.T) {
	left := sine(220, 8000, 8000, 0.5)
	right := make([]float64, len(left))
	for i := range right {
		right[i] = -left[i]
	}

	for _, depth := range []int{16, 24} {
		path := writeTone(t, "stereo.wav", [][]float64{left, right}, 8000, depth)

		got, err := NewDecoder(nil).DecodeFile(path)
		if err != nil {
			t.Fatalf("%d-bit: %v", depth, err)
		}
		if got.SampleRate != 8000 || got.Channels != 2 || got.BitDepth != depth {
			t.Fatalf("%d-bit format = %d Hz, %d ch, %d bit", depth, got.SampleRate, got.Channels, got.BitDepth)
		}
		if got.Duration != time.Second {
			t.Errorf("duration = %v", got.Duration)
		}
		for i := range left {
			if math.Abs(got.ChannelData[0][i]-left[i]) > 1e-3 {
				t.Fatalf("%d-bit sample %d = %g, want %g", depth, i, got.ChannelData[0][i], left[i])
			}
			// channels cancel in the mono mix
			if math.Abs(got.PCM[i]) > 1e-3 {
				t.Fatalf("%d-bit mono sample %d = %g", depth, i, got.PCM[i])
			}
		}
		if got.Metadata.Path != path || got.Metadata.Size == 0 {
			t.Errorf("metadata = %+v", got.Metadata)
		}
	}
}

func TestDecodeMaxDuration(t *testing.T) {
	path := writeTone(t, "long.wav", [][]float64{sine(100, 8000, 16000, 0.3)}, 8000, 16)

	got, err := NewDecoder(&DecoderConfig{MaxDuration: 500 * time.Millisecond}).DecodeFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.PCM) != 4000 || !got.Metadata.Truncated {
		t.Errorf("got %d samples, truncated=%v", len(got.PCM), got.Metadata.Truncated)
	}
}

func TestDecodeErrors(t *testing.T) {
	dir := t.TempDir()

	notWav := filepath.Join(dir, "speech.mp3")
	if err := os.WriteFile(notWav, []byte("ID3"), 0o644); err != nil {
		t.Fatal(err)
	}
	garbage := filepath.Join(dir, "garbage.wav")
	if err := os.WriteFile(garbage, []byte("this is not a riff file at all"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		want error
	}{
		{"wrong extension", notWav, ErrNotWAV},
		{"missing", filepath.Join(dir, "missing.wav"), os.ErrNotExist},
		{"garbage", garbage, ErrInvalidWAV},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewDecoder(nil).DecodeFile(tt.path); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestEncodeValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.wav")
	if err := EncodeFile(path, nil, 16); err == nil {
		t.Error("expected error for nil data")
	}
	if err := EncodeFile(path, &AudioData{PCM: []float64{0}, SampleRate: 8000}, 12); err == nil {
		t.Error("expected error for 12-bit")
	}
	bad := &AudioData{ChannelData: [][]float64{{0, 0}, {0}}, SampleRate: 8000}
	if err := EncodeFile(path, bad, 16); err == nil {
		t.Error("expected error for ragged channels")
	}
}
