package spectrogram

import (
	"fmt"
	"math"

	"github.com/pamflow/specpipe/logging"
)

// SpecTransform is a chainable accumulator over a spectrogram Source. Each
// mutating method replaces the current matrix with a transform output and
// returns the receiver so calls can be chained:
//
//	st := New(spec).DB(true).Normalize(-100, 0).Clamp(0, 1)
//	if err := st.Err(); err != nil { ... }
//
// The first failing operation latches its error; subsequent calls are
// no-ops and Err returns the latched error. A SpecTransform belongs to a
// single pipeline run and must not be shared between goroutines.
type SpecTransform struct {
	source Source

	data        [][]float64
	complexData [][]complex128

	// maintainPhase keeps the complex representation reconciled with the
	// magnitude matrix after each transform, at the cost of extra work.
	maintainPhase bool

	logger logging.Logger
	err    error
}

// Option configures a SpecTransform
type Option func(*SpecTransform)

// WithPhase enables phase maintenance: after every transform the complex
// representation is recomputed from the new magnitude matrix so that an
// inverse transform back to wave data remains possible.
func WithPhase() Option {
	return func(s *SpecTransform) {
		s.maintainPhase = true
	}
}

// WithLogger sets the logger used by the transform chain
func WithLogger(logger logging.Logger) Option {
	return func(s *SpecTransform) {
		s.logger = logger
	}
}

// New creates a transform chain over the given source. The working matrix is
// initialized lazily on the first operation.
func New(source Source, opts ...Option) *SpecTransform {
	s := &SpecTransform{
		source: source,
		logger: logging.GetGlobalLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// init copies the source data into the engine. The working matrix is owned
// exclusively by this SpecTransform; it never aliases the source.
func (s *SpecTransform) init() {
	if s.data != nil {
		return
	}
	s.data = CopyMatrix(s.source.AbsoluteSpectrogram())
	if s.maintainPhase {
		s.complexData = CopyComplexMatrix(s.source.ComplexSpectrogram())
		if s.complexData == nil {
			s.err = fmt.Errorf("phase maintenance requested but source has no complex spectrogram")
		}
	}
}

// apply runs one transform step, replacing the working matrix
func (s *SpecTransform) apply(name string, fn func([][]float64) ([][]float64, error)) *SpecTransform {
	if s.err != nil {
		return s
	}
	s.init()
	if s.err != nil {
		return s
	}

	out, err := fn(s.data)
	if err != nil {
		s.err = fmt.Errorf("%s: %w", name, err)
		return s
	}
	s.data = out

	if s.maintainPhase {
		s.absSpec2Complex()
	}

	s.logger.Debug("applied spectrogram transform", logging.Fields{"transform": name})
	return s
}

// DB converts the matrix to decibels, 10*log10(x) for power or 20*log10(x)
// for amplitude
func (s *SpecTransform) DB(power bool) *SpecTransform {
	return s.apply("db", func(m [][]float64) ([][]float64, error) {
		return DBConvert(m, power), nil
	})
}

// Normalize normalizes between a minimum and reference dB level
func (s *SpecTransform) Normalize(minLevelDB, refLevelDB float64) *SpecTransform {
	return s.apply("normalize", func(m [][]float64) ([][]float64, error) {
		return Normalize(m, minLevelDB, refLevelDB), nil
	})
}

// NormalizeRowSum normalizes by the total row-sum norm
func (s *SpecTransform) NormalizeRowSum() *SpecTransform {
	return s.apply("normalize_row_sum", func(m [][]float64) ([][]float64, error) {
		return NormalizeRowSum(m), nil
	})
}

// NormalizeStd normalizes to a target mean and standard deviation
func (s *SpecTransform) NormalizeStd(mean, std float64) *SpecTransform {
	return s.apply("normalize_std", func(m [][]float64) ([][]float64, error) {
		return NormalizeStd(m, mean, std), nil
	})
}

// ReduceTonalNoiseMean subtracts a running mean from each frame
func (s *SpecTransform) ReduceTonalNoiseMean(timeConstLen int) *SpecTransform {
	return s.apply("reduce_tonal_noise_mean", func(m [][]float64) ([][]float64, error) {
		if timeConstLen <= 0 {
			return nil, fmt.Errorf("time constant length must be positive, got %d", timeConstLen)
		}
		return ReduceTonalNoiseMean(m, timeConstLen), nil
	})
}

// ReduceTonalNoiseMedian subtracts the column-wise median from each column
func (s *SpecTransform) ReduceTonalNoiseMedian() *SpecTransform {
	return s.apply("reduce_tonal_noise_median", func(m [][]float64) ([][]float64, error) {
		return ReduceTonalNoiseMedian(m), nil
	})
}

// MedianFilter thresholds the matrix into a binary image
func (s *SpecTransform) MedianFilter(rowFactor, colFactor float64) *SpecTransform {
	return s.apply("median_filter", func(m [][]float64) ([][]float64, error) {
		return MedianFilter(m, rowFactor, colFactor), nil
	})
}

// Enhance boosts contrast between high and low intensity regions
func (s *SpecTransform) Enhance(enhancementFactor float64) *SpecTransform {
	return s.apply("enhance", func(m [][]float64) ([][]float64, error) {
		return Enhance(m, enhancementFactor), nil
	})
}

// InterpolateFrequency crops and resamples the frequency axis to targetBins
// bins between fMin and fMax. Not supported while phase is maintained; there
// is no consistent complex representation for a resized frequency axis.
func (s *SpecTransform) InterpolateFrequency(fMin, fMax float64, targetBins int) *SpecTransform {
	if s.err != nil {
		return s
	}
	if s.maintainPhase {
		s.err = fmt.Errorf("interpolate_frequency: %w", ErrPhaseInterpolation)
		return s
	}
	return s.apply("interpolate_frequency", func(m [][]float64) ([][]float64, error) {
		return InterpolateFrequency(m, fMin, fMax, targetBins, s.source.SampleRate())
	})
}

// Clamp constrains every element to [minVal, maxVal]
func (s *SpecTransform) Clamp(minVal, maxVal float64) *SpecTransform {
	return s.apply("clamp", func(m [][]float64) ([][]float64, error) {
		return Clamp(m, minVal, maxVal), nil
	})
}

// GaussianBlur smooths the matrix with a 5x5 Gaussian kernel
func (s *SpecTransform) GaussianBlur(sigma float64) *SpecTransform {
	return s.apply("gaussian_blur", func(m [][]float64) ([][]float64, error) {
		return GaussianBlur(m, sigma)
	})
}

// MedianBlur is declared but has no algorithm; it always fails with
// ErrNotImplemented
func (s *SpecTransform) MedianBlur(size int) *SpecTransform {
	return s.apply("median_blur", func(m [][]float64) ([][]float64, error) {
		return MedianBlur(m, size)
	})
}

// absSpec2Complex folds the transformed magnitude matrix back into the
// complex representation. Magnitude bins beyond the one-sided spectrum are
// recovered through the Nyquist mirror (n = 2*rowLen - j - 1), and the real
// part of each bin is recomputed as sqrt(max(0, mag^2 - imag^2)) with the
// imaginary part left unchanged. Exact phase fidelity is lost for transforms
// that do more than monotonic magnitude scaling.
func (s *SpecTransform) absSpec2Complex() {
	for i := range s.complexData {
		rowLen := len(s.data[i])
		for j := range s.complexData[i] {
			n := j
			if j > rowLen-1 {
				n = 2*rowLen - j - 1
			}
			if n < 0 || n > rowLen-1 {
				continue
			}

			im := imag(s.complexData[i][j])
			mag := s.data[i][n]
			newReal := math.Sqrt(math.Max(0, mag*mag-im*im))
			s.complexData[i][j] = complex(newReal, im)
		}
	}
}

// TransformedData returns the current matrix, initializing it from the
// source if no transform has run yet
func (s *SpecTransform) TransformedData() [][]float64 {
	s.init()
	return s.data
}

// SetTransformedData overrides the current matrix
func (s *SpecTransform) SetTransformedData(data [][]float64) {
	s.data = data
}

// Real returns the real part of the complex representation, or nil when
// phase is not tracked
func (s *SpecTransform) Real() [][]float64 {
	if s.complexData == nil {
		return nil
	}
	out := make([][]float64, len(s.complexData))
	for i, row := range s.complexData {
		out[i] = make([]float64, len(row))
		for j, c := range row {
			out[i][j] = real(c)
		}
	}
	return out
}

// Imag returns the imaginary part of the complex representation, or nil when
// phase is not tracked
func (s *SpecTransform) Imag() [][]float64 {
	if s.complexData == nil {
		return nil
	}
	out := make([][]float64, len(s.complexData))
	for i, row := range s.complexData {
		out[i] = make([]float64, len(row))
		for j, c := range row {
			out[i][j] = imag(c)
		}
	}
	return out
}

// MaintainsPhase reports whether the chain keeps the complex representation
// reconciled
func (s *SpecTransform) MaintainsPhase() bool {
	return s.maintainPhase
}

// Source returns the untransformed source spectrogram
func (s *SpecTransform) Source() Source {
	return s.source
}

// Err returns the first error encountered by the chain, if any
func (s *SpecTransform) Err() error {
	return s.err
}
