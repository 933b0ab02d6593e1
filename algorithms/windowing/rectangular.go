package windowing

import (
	"fmt"
)

// Rectangular represents a rectangular (boxcar) window function. This is the
// default framing for spectrogram construction.
type Rectangular struct {
	size int
}

// NewRectangular creates a new rectangular window
func NewRectangular(size int) *Rectangular {
	return &Rectangular{size: size}
}

// ApplyInPlace applies the window to a signal in-place. For a rectangular
// window the signal is unchanged.
func (r *Rectangular) ApplyInPlace(signal []float64) error {
	if len(signal) != r.size {
		return fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), r.size)
	}
	return nil
}

// GetSize returns the window size
func (r *Rectangular) GetSize() int {
	return r.size
}

// GetType returns the window type
func (r *Rectangular) GetType() string {
	return "rectangular"
}
