package spectrogram

import (
	"fmt"

	"github.com/pamflow/specpipe/algorithms/spectral"
)

// Source supplies the initial data for a transform chain: a time x frequency
// magnitude matrix paired with its complex representation.
//
// The magnitude matrix is one-sided (fftLen/2 bins per frame) while the
// complex frames hold the full two-sided spectrum (fftLen bins); the upper
// half mirrors the lower around the Nyquist bin.
type Source interface {
	AbsoluteSpectrogram() [][]float64
	ComplexSpectrogram() [][]complex128
	SampleRate() float64
}

// Spectrogram is the standard Source implementation, holding STFT output.
type Spectrogram struct {
	magnitude  [][]float64
	complexArr [][]complex128
	sampleRate float64
}

// NewSpectrogram wraps an STFT result as a transform source
func NewSpectrogram(result *spectral.STFTResult) *Spectrogram {
	return &Spectrogram{
		magnitude:  result.Magnitude,
		complexArr: result.Complex,
		sampleRate: result.SampleRate,
	}
}

// NewSpectrogramFromData builds a source from raw matrices. The complex
// matrix may be nil when phase is not tracked.
func NewSpectrogramFromData(magnitude [][]float64, complexArr [][]complex128, sampleRate float64) (*Spectrogram, error) {
	if err := ValidateMatrix(magnitude); err != nil {
		return nil, err
	}
	return &Spectrogram{
		magnitude:  magnitude,
		complexArr: complexArr,
		sampleRate: sampleRate,
	}, nil
}

// AbsoluteSpectrogram returns the magnitude matrix
func (s *Spectrogram) AbsoluteSpectrogram() [][]float64 {
	return s.magnitude
}

// ComplexSpectrogram returns the complex matrix, or nil if absent
func (s *Spectrogram) ComplexSpectrogram() [][]complex128 {
	return s.complexArr
}

// SampleRate returns the sample rate of the wave data the spectrogram was
// built from
func (s *Spectrogram) SampleRate() float64 {
	return s.sampleRate
}

// ValidateMatrix checks that a matrix is non-empty and rectangular
func ValidateMatrix(m [][]float64) error {
	if len(m) == 0 || len(m[0]) == 0 {
		return fmt.Errorf("matrix must be non-empty")
	}
	width := len(m[0])
	for i, row := range m {
		if len(row) != width {
			return fmt.Errorf("matrix must be rectangular: row %d has %d columns, want %d", i, len(row), width)
		}
	}
	return nil
}

// CopyMatrix returns a deep copy of a matrix
func CopyMatrix(m [][]float64) [][]float64 {
	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = make([]float64, len(row))
		copy(out[i], row)
	}
	return out
}

// CopyComplexMatrix returns a deep copy of a complex matrix
func CopyComplexMatrix(m [][]complex128) [][]complex128 {
	if m == nil {
		return nil
	}
	out := make([][]complex128, len(m))
	for i, row := range m {
		out[i] = make([]complex128, len(row))
		copy(out[i], row)
	}
	return out
}
