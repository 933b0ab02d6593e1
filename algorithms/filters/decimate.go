package filters

import (
	"fmt"

	"github.com/pamflow/specpipe/algorithms/common"
)

// Decimator resamples wave data to a fixed target sample rate using linear
// interpolation. Classifier models are trained at one sample rate, so input
// audio at any other rate is brought to the target rate before the
// spectrogram is built. No anti-alias filtering is applied; the behavior
// matches the reference preprocessing the models were trained against.
type Decimator struct {
	targetRate float64
}

// NewDecimator creates a decimator for the given target sample rate in Hz
func NewDecimator(targetRate float64) (*Decimator, error) {
	if targetRate <= 0 {
		return nil, fmt.Errorf("target sample rate must be positive, got %f", targetRate)
	}
	return &Decimator{targetRate: targetRate}, nil
}

// Process resamples the signal from sampleRate to the target rate. If the
// rates already match the signal is copied through unchanged.
func (d *Decimator) Process(signal []float64, sampleRate float64) ([]float64, error) {
	if len(signal) == 0 {
		return nil, fmt.Errorf("empty signal")
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %f", sampleRate)
	}

	out := common.ResampleSignal(signal, sampleRate, d.targetRate)
	if len(out) == 0 {
		return nil, fmt.Errorf("signal too short to resample from %g Hz to %g Hz", sampleRate, d.targetRate)
	}
	return out, nil
}

// TargetRate returns the sample rate the decimator resamples to
func (d *Decimator) TargetRate() float64 {
	return d.targetRate
}
