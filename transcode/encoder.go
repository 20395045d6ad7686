package transcode

import (
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// EncodeFile writes data as integer PCM WAV. Per-channel samples are used when
// present, otherwise the mono PCM. Samples are clipped to [-1, 1].
func EncodeFile(path string, data *AudioData, bitDepth int) error {
	if data == nil || data.SampleRate <= 0 {
		return fmt.Errorf("nothing to encode")
	}
	switch bitDepth {
	case 16, 24, 32:
	default:
		return fmt.Errorf("unsupported bit depth %d", bitDepth)
	}

	channels := data.ChannelData
	if len(channels) == 0 {
		channels = [][]float64{data.PCM}
	}
	frames := len(channels[0])
	for _, ch := range channels {
		if len(ch) != frames {
			return fmt.Errorf("channels differ in length")
		}
	}

	peak := float64(int64(1)<<(bitDepth-1)) - 1
	ints := make([]int, frames*len(channels))
	for i := range frames {
		for c, ch := range channels {
			v := math.Max(-1, math.Min(1, ch[i]))
			ints[i*len(channels)+c] = int(math.Round(v * peak))
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("output file creation error: %w", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, data.SampleRate, bitDepth, len(channels), 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: len(channels), SampleRate: data.SampleRate},
		Data:           ints,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("data writing error: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize WAV header: %w", err)
	}
	return nil
}
