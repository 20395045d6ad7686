package spectral

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/RyanBlaney/sonido-phonetics/algorithms/common"
	"github.com/RyanBlaney/sonido-phonetics/algorithms/windowing"
	"github.com/RyanBlaney/sonido-phonetics/logging"
)

// STFT provides Short-Time Fourier Transform functionality
type STFT struct {
	fft    *FFT
	logger logging.Logger
}

// STFTResult holds a power spectrogram. Power is indexed [frame][bin].
type STFTResult struct {
	Power          [][]float64 `json:"-"`
	FrameStarts    []int       `json:"frame_starts"` // first sample of every frame
	TimeFrames     int         `json:"time_frames"`
	FreqBins       int         `json:"freq_bins"`
	SampleRate     int         `json:"sample_rate"`
	WindowSize     int         `json:"window_size"`
	FFTSize        int         `json:"fft_size"`
	HopSize        int         `json:"hop_size"`
	FreqResolution float64     `json:"freq_resolution"` // Hz per bin
	TimeResolution float64     `json:"time_resolution"` // seconds per frame
}

// NewSTFT creates a new STFT calculator
func NewSTFT() *STFT {
	return &STFT{
		fft: NewFFT(),
		logger: logging.WithFields(logging.Fields{
			"component": "stft",
		}),
	}
}

// Compute runs the STFT over signal on a worker pool. maxBins limits the
// number of retained frequency bins (0 keeps all of them).
func (s *STFT) Compute(ctx context.Context, signal []float64, windowSize, hopSize, sampleRate, maxBins int, win *windowing.Window) (*STFTResult, error) {
	if len(signal) == 0 {
		return nil, fmt.Errorf("empty signal")
	}
	if windowSize <= 0 {
		return nil, fmt.Errorf("window size must be positive")
	}
	if hopSize <= 0 {
		return nil, fmt.Errorf("hop size must be positive")
	}
	if win != nil && win.GetSize() != windowSize {
		return nil, fmt.Errorf("window has %d coefficients, frame has %d samples", win.GetSize(), windowSize)
	}

	numFrames := (len(signal)-windowSize)/hopSize + 1
	if numFrames <= 0 {
		return nil, fmt.Errorf("signal too short for given window size and hop size")
	}

	nfft := common.NextPowerOf2(windowSize)
	freqBins := nfft/2 + 1
	if maxBins > 0 && maxBins < freqBins {
		freqBins = maxBins
	}

	power := make([][]float64, numFrames)
	starts := make([]int, numFrames)
	for i := range numFrames {
		starts[i] = i * hopSize
	}

	numWorkers := s.getOptimalWorkerCount(numFrames)
	jobs := make(chan int, numFrames)

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			// Reuse frame buffer for this worker
			frame := make([]float64, windowSize)
			for idx := range jobs {
				if ctx.Err() != nil {
					continue
				}
				copy(frame, signal[starts[idx]:starts[idx]+windowSize])
				if win != nil {
					if err := win.ApplyInPlace(frame); err != nil {
						s.logger.Error(err, "Failed to window frame", logging.Fields{"frame": idx})
						continue
					}
				}
				power[idx] = s.fft.PowerSpectrum(frame, nfft)[:freqBins]
			}
		}()
	}

	for idx := range numFrames {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.logger.Debug("STFT computed", logging.Fields{
		"frames":    numFrames,
		"freq_bins": freqBins,
		"workers":   numWorkers,
	})

	return &STFTResult{
		Power:          power,
		FrameStarts:    starts,
		TimeFrames:     numFrames,
		FreqBins:       freqBins,
		SampleRate:     sampleRate,
		WindowSize:     windowSize,
		FFTSize:        nfft,
		HopSize:        hopSize,
		FreqResolution: float64(sampleRate) / float64(nfft),
		TimeResolution: float64(hopSize) / float64(sampleRate),
	}, nil
}

// getOptimalWorkerCount determines the optimal number of workers based on workload
func (s *STFT) getOptimalWorkerCount(numFrames int) int {
	numCPU := runtime.NumCPU()

	// For small workloads, don't over-parallelize
	if numFrames < 100 {
		return max(1, min(numCPU/2, numFrames))
	}
	if numFrames < 1000 {
		return min(numCPU, 8)
	}
	return numCPU
}
