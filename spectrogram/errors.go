package spectrogram

import "errors"

var (
	// ErrNotImplemented marks a transform that is declared but has no
	// algorithm. Invoking it is fatal rather than a silent no-op so that
	// missing functionality cannot be masked.
	ErrNotImplemented = errors.New("not implemented")

	// ErrPhaseInterpolation marks the unsupported combination of frequency
	// interpolation with phase maintenance. Resizing the frequency axis has
	// no meaningful counterpart in the complex representation.
	ErrPhaseInterpolation = errors.New("frequency interpolation is not supported while phase is maintained")
)
