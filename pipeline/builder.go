package pipeline

import (
	"fmt"

	"github.com/pamflow/specpipe/algorithms/filters"
	"github.com/pamflow/specpipe/algorithms/spectral"
	"github.com/pamflow/specpipe/logging"
	"github.com/pamflow/specpipe/spectrogram"
)

// WaveData is raw audio threaded through the wave-domain stages
type WaveData struct {
	Samples    []float64
	SampleRate float64
}

// waveStage transforms raw audio into raw audio
type waveStage func(*WaveData) (*WaveData, error)

// freqStage applies one engine transform to the frequency-domain
// representation
type freqStage func(*spectrogram.SpecTransform) error

// stage is the executable form of one descriptor: a tagged variant that is
// either wave-domain, frequency-domain, or the single spectrogram transition.
type stage struct {
	desc Descriptor
	wave waveStage
	freq freqStage
}

// Builder converts an ordered descriptor list into an executable Pipeline
type Builder struct {
	descriptors []Descriptor
	window      spectral.Window
	phase       bool
	logger      logging.Logger
}

// NewBuilder creates a pipeline builder for the given descriptor list
func NewBuilder(descriptors []Descriptor) *Builder {
	return &Builder{
		descriptors: descriptors,
		logger:      logging.GetGlobalLogger(),
	}
}

// WithWindow sets the window applied to each frame during spectrogram
// construction. The default is rectangular framing.
func (b *Builder) WithWindow(window spectral.Window) *Builder {
	b.window = window
	return b
}

// WithPhase keeps the complex representation reconciled with the magnitude
// matrix throughout the frequency-domain stages
func (b *Builder) WithPhase() *Builder {
	b.phase = true
	return b
}

// WithLogger sets the logger for the built pipeline
func (b *Builder) WithLogger(logger logging.Logger) *Builder {
	b.logger = logger
	return b
}

// Build validates the descriptor list and produces an executable Pipeline.
// All configuration problems surface here, not at run time: unknown kinds,
// wrong parameter arities, domain-ordering violations (a frequency-domain
// kind before the spectrogram transition or a wave-domain kind after it),
// and the unsupported phase+interpolation combination.
func (b *Builder) Build() (*Pipeline, error) {
	if len(b.descriptors) == 0 {
		return nil, fmt.Errorf("%w: empty descriptor list", ErrConfiguration)
	}

	specIdx := -1
	for i, d := range b.descriptors {
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("descriptor %d: %w", i, err)
		}

		switch {
		case d.Kind == Spectrogram:
			if specIdx >= 0 {
				return nil, fmt.Errorf("%w: descriptor %d: duplicate spectrogram stage", ErrConfiguration, i)
			}
			specIdx = i
		case d.Kind.IsWaveDomain():
			if specIdx >= 0 {
				return nil, fmt.Errorf("%w: descriptor %d: wave-domain stage %s after spectrogram transition", ErrConfiguration, i, d.Kind)
			}
		default:
			if specIdx < 0 {
				return nil, fmt.Errorf("%w: descriptor %d: frequency-domain stage %s before spectrogram transition", ErrConfiguration, i, d.Kind)
			}
		}

		if b.phase && d.Kind == SpecCropInterp {
			return nil, fmt.Errorf("%w: descriptor %d: %w", ErrConfiguration, i, spectrogram.ErrPhaseInterpolation)
		}
	}
	if specIdx < 0 {
		return nil, fmt.Errorf("%w: descriptor list has no spectrogram stage", ErrConfiguration)
	}

	stages := make([]stage, len(b.descriptors))
	for i, d := range b.descriptors {
		s, err := b.buildStage(d)
		if err != nil {
			return nil, fmt.Errorf("descriptor %d: %w", i, err)
		}
		stages[i] = s
	}

	return &Pipeline{
		stages: stages,
		window: b.window,
		phase:  b.phase,
		stft:   spectral.NewSTFT(),
		logger: b.logger,
	}, nil
}

// buildStage maps one descriptor onto its executable form. Parameter range
// problems that are detectable without data are reported here.
func (b *Builder) buildStage(d Descriptor) (stage, error) {
	s := stage{desc: d}

	switch d.Kind {
	case Decimate:
		dec, err := filters.NewDecimator(d.Params[0])
		if err != nil {
			return s, fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
		s.wave = func(w *WaveData) (*WaveData, error) {
			out, err := dec.Process(w.Samples, w.SampleRate)
			if err != nil {
				return nil, err
			}
			return &WaveData{Samples: out, SampleRate: dec.TargetRate()}, nil
		}

	case PreEmphasis:
		coeff := d.Params[0]
		if _, err := filters.NewPreEmphasis(coeff); err != nil {
			return s, fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
		s.wave = func(w *WaveData) (*WaveData, error) {
			// A fresh filter per run; the y[n] = x[n] - a*x[n-1] recurrence
			// holds per-run state that must not leak between runs.
			pe, err := filters.NewPreEmphasis(coeff)
			if err != nil {
				return nil, err
			}
			return &WaveData{Samples: pe.ProcessBuffer(w.Samples), SampleRate: w.SampleRate}, nil
		}

	case Spectrogram:
		fftLen, hop := int(d.Params[0]), int(d.Params[1])
		if fftLen <= 0 || hop <= 0 {
			return s, fmt.Errorf("%w: spectrogram needs positive fft length and hop, got %d/%d", ErrConfiguration, fftLen, hop)
		}
		if sized, ok := b.window.(interface{ GetSize() int }); ok && sized.GetSize() != fftLen {
			return s, fmt.Errorf("%w: window size %d doesn't match fft length %d", ErrConfiguration, sized.GetSize(), fftLen)
		}
		// The transition stage is executed by the Pipeline itself.

	case Spec2DB:
		power := d.Params[0] != 0
		s.freq = func(st *spectrogram.SpecTransform) error {
			return st.DB(power).Err()
		}

	case SpecNormalize:
		minDB, refDB := d.Params[0], d.Params[1]
		if minDB >= 0 {
			return s, fmt.Errorf("%w: specnormalise needs a negative minimum dB level, got %g", ErrConfiguration, minDB)
		}
		s.freq = func(st *spectrogram.SpecTransform) error {
			return st.Normalize(minDB, refDB).Err()
		}

	case SpecNormalizeStd:
		mean, std := d.Params[0], d.Params[1]
		s.freq = func(st *spectrogram.SpecTransform) error {
			return st.NormalizeStd(mean, std).Err()
		}

	case ReduceTonalNoiseMean:
		timeConstLen := int(d.Params[0])
		if timeConstLen <= 0 {
			return s, fmt.Errorf("%w: reduce_tonal_noise_mean needs a positive time constant, got %d", ErrConfiguration, timeConstLen)
		}
		s.freq = func(st *spectrogram.SpecTransform) error {
			return st.ReduceTonalNoiseMean(timeConstLen).Err()
		}

	case ReduceTonalNoiseMedian:
		s.freq = func(st *spectrogram.SpecTransform) error {
			return st.ReduceTonalNoiseMedian().Err()
		}

	case SpecClamp:
		minVal, maxVal := d.Params[0], d.Params[1]
		if minVal > maxVal {
			return s, fmt.Errorf("%w: specclamp minimum %g exceeds maximum %g", ErrConfiguration, minVal, maxVal)
		}
		s.freq = func(st *spectrogram.SpecTransform) error {
			return st.Clamp(minVal, maxVal).Err()
		}

	case SpecCropInterp:
		fMin, fMax, bins := d.Params[0], d.Params[1], int(d.Params[2])
		if fMin >= fMax || bins <= 0 {
			return s, fmt.Errorf("%w: speccropinterp needs fMin < fMax and positive bins, got [%g, %g) x %d", ErrConfiguration, fMin, fMax, bins)
		}
		s.freq = func(st *spectrogram.SpecTransform) error {
			return st.InterpolateFrequency(fMin, fMax, bins).Err()
		}

	case Enhance:
		factor := d.Params[0]
		s.freq = func(st *spectrogram.SpecTransform) error {
			return st.Enhance(factor).Err()
		}

	case GaussianBlur:
		sigma := d.Params[0]
		if sigma <= 0 {
			return s, fmt.Errorf("%w: gaussian_blur needs a positive sigma, got %g", ErrConfiguration, sigma)
		}
		s.freq = func(st *spectrogram.SpecTransform) error {
			return st.GaussianBlur(sigma).Err()
		}

	case MedianFilter:
		rowFactor, colFactor := d.Params[0], d.Params[1]
		s.freq = func(st *spectrogram.SpecTransform) error {
			return st.MedianFilter(rowFactor, colFactor).Err()
		}

	default:
		return s, fmt.Errorf("%w: unknown transform kind %d", ErrConfiguration, int(d.Kind))
	}

	return s, nil
}
