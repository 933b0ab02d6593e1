package filters

import (
	"fmt"
)

// PreEmphasis implements a first-order pre-emphasis filter.
//
// The filter implements the transfer function H(z) = 1 - α*z^-1 with the
// difference equation y[n] = x[n] - α*x[n-1]. It attenuates the low
// frequencies of the wave data before spectrogram construction, flattening
// the spectrum for analysis. Typical coefficients are 0.95-0.98.
type PreEmphasis struct {
	coefficient float64
	lastSample  float64
}

// NewPreEmphasis creates a pre-emphasis filter with the given coefficient α,
// which must lie in (0, 1).
func NewPreEmphasis(coefficient float64) (*PreEmphasis, error) {
	if coefficient <= 0.0 || coefficient >= 1.0 {
		return nil, fmt.Errorf("coefficient must be between 0 and 1, got %f", coefficient)
	}
	return &PreEmphasis{coefficient: coefficient}, nil
}

// Process applies pre-emphasis filtering to a single sample
func (pe *PreEmphasis) Process(input float64) float64 {
	output := input - pe.coefficient*pe.lastSample
	pe.lastSample = input
	return output
}

// ProcessBuffer applies pre-emphasis to an entire buffer of samples
func (pe *PreEmphasis) ProcessBuffer(input []float64) []float64 {
	output := make([]float64, len(input))
	for i, sample := range input {
		output[i] = pe.Process(sample)
	}
	return output
}

// Reset clears the filter's internal state. Call this when processing
// discontinuous audio segments.
func (pe *PreEmphasis) Reset() {
	pe.lastSample = 0.0
}

// GetCoefficient returns the current coefficient
func (pe *PreEmphasis) GetCoefficient() float64 {
	return pe.coefficient
}
