package spectral

import (
	"fmt"
	"math/cmplx"
	"runtime"
	"sync"

	"github.com/pamflow/specpipe/logging"
)

// STFT provides Short-Time Fourier Transform functionality
type STFT struct {
	fft    *FFT
	logger logging.Logger
}

// STFTResult holds the result of STFT analysis.
//
// Complex holds the full two-sided spectrum of each frame (windowSize bins)
// while Magnitude holds the one-sided spectrum (windowSize/2 bins). Keeping
// the full complex frames allows magnitude-domain edits to be folded back
// into the complex representation via the Nyquist mirror.
type STFTResult struct {
	Magnitude  [][]float64    `json:"magnitude"`   // Time x Frequency magnitude matrix (one-sided)
	Complex    [][]complex128 `json:"-"`           // Raw complex spectrogram, full frames (not serialized)
	TimeFrames int            `json:"time_frames"` // Number of time frames
	FreqBins   int            `json:"freq_bins"`   // Number of one-sided frequency bins
	SampleRate float64        `json:"sample_rate"` // Sample rate
	WindowSize int            `json:"window_size"` // FFT window size
	HopSize    int            `json:"hop_size"`    // Hop size between frames
}

// Window interface for windowing functions
type Window interface {
	ApplyInPlace(signal []float64) error
}

// NewSTFT creates a new STFT calculator
func NewSTFT() *STFT {
	return &STFT{
		fft:    NewFFT(),
		logger: logging.GetGlobalLogger(),
	}
}

// Compute computes the STFT with rectangular framing
func (s *STFT) Compute(signal []float64, windowSize, hopSize int, sampleRate float64) (*STFTResult, error) {
	return s.ComputeWithWindow(signal, windowSize, hopSize, sampleRate, nil)
}

// ComputeWithWindow computes the STFT with parallel frame processing and a
// custom window. A nil window means rectangular framing.
func (s *STFT) ComputeWithWindow(signal []float64, windowSize, hopSize int, sampleRate float64, window Window) (*STFTResult, error) {
	if len(signal) == 0 {
		return nil, fmt.Errorf("empty signal")
	}

	if windowSize <= 0 {
		return nil, fmt.Errorf("window size must be positive")
	}

	if hopSize <= 0 {
		return nil, fmt.Errorf("hop size must be positive")
	}

	numFrames := (len(signal)-windowSize)/hopSize + 1
	if numFrames <= 0 {
		return nil, fmt.Errorf("signal too short for given window size and hop size")
	}

	// One-sided bins; the full frame is kept in the complex spectrum.
	freqBins := windowSize / 2

	magnitude := make([][]float64, numFrames)
	complexSpectrum := make([][]complex128, numFrames)

	for i := 0; i < numFrames; i++ {
		magnitude[i] = make([]float64, freqBins)
		complexSpectrum[i] = make([]complex128, windowSize)
	}

	numWorkers := s.getOptimalWorkerCount(numFrames)

	type frameJob struct {
		frameIdx int
		startIdx int
		endIdx   int
	}

	jobs := make(chan frameJob, numFrames)

	var wg sync.WaitGroup

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			// Reuse frame buffer for this worker
			frameBuffer := make([]float64, windowSize)

			for job := range jobs {
				if job.endIdx > len(signal) {
					continue
				}

				copy(frameBuffer, signal[job.startIdx:job.endIdx])

				if window != nil {
					if err := window.ApplyInPlace(frameBuffer); err != nil {
						continue
					}
				}

				fftResult := s.fft.Compute(frameBuffer)

				copy(complexSpectrum[job.frameIdx], fftResult)
				for i := 0; i < freqBins; i++ {
					magnitude[job.frameIdx][i] = cmplx.Abs(fftResult[i])
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for frameIdx := 0; frameIdx < numFrames; frameIdx++ {
			startIdx := frameIdx * hopSize
			endIdx := startIdx + windowSize

			if endIdx <= len(signal) {
				jobs <- frameJob{
					frameIdx: frameIdx,
					startIdx: startIdx,
					endIdx:   endIdx,
				}
			}
		}
	}()

	wg.Wait()

	s.logger.Debug("computed STFT", logging.Fields{
		"frames":      numFrames,
		"freq_bins":   freqBins,
		"window_size": windowSize,
		"hop_size":    hopSize,
	})

	return &STFTResult{
		Magnitude:  magnitude,
		Complex:    complexSpectrum,
		TimeFrames: numFrames,
		FreqBins:   freqBins,
		SampleRate: sampleRate,
		WindowSize: windowSize,
		HopSize:    hopSize,
	}, nil
}

// getOptimalWorkerCount determines the number of workers based on workload
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
