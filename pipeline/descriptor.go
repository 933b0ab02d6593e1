package pipeline

import (
	"fmt"
)

// Kind identifies one transform stage type. The set is closed: every model
// configuration maps onto these kinds and nothing else.
type Kind int

const (
	// Wave-domain kinds. Decimate and PreEmphasis transform raw audio;
	// Spectrogram consumes raw audio and produces the frequency-domain
	// representation every later stage operates on.
	Decimate Kind = iota
	PreEmphasis
	Spectrogram

	// Frequency-domain kinds
	Spec2DB
	SpecNormalize
	SpecNormalizeStd
	ReduceTonalNoiseMean
	ReduceTonalNoiseMedian
	SpecClamp
	SpecCropInterp
	Enhance
	GaussianBlur
	MedianFilter
)

var kindNames = map[Kind]string{
	Decimate:               "decimate",
	PreEmphasis:            "preemphasis",
	Spectrogram:            "spectrogram",
	Spec2DB:                "spec2db",
	SpecNormalize:          "specnormalise",
	SpecNormalizeStd:       "specnormalisestd",
	ReduceTonalNoiseMean:   "reduce_tonal_noise_mean",
	ReduceTonalNoiseMedian: "reduce_tonal_noise_median",
	SpecClamp:              "specclamp",
	SpecCropInterp:         "speccropinterp",
	Enhance:                "enhance",
	GaussianBlur:           "gaussian_blur",
	MedianFilter:           "medianfilter",
}

// kindArities holds the fixed parameter count per kind:
//
//	decimate:                  targetSampleRate
//	preemphasis:               coefficient
//	spectrogram:               fftLength, hopLength
//	spec2db:                   power (0 amplitude, non-zero power)
//	specnormalise:             minLevelDB, refLevelDB
//	specnormalisestd:          mean, std
//	reduce_tonal_noise_mean:   timeConstLen
//	reduce_tonal_noise_median: -
//	specclamp:                 min, max
//	speccropinterp:            fMin, fMax, targetBins
//	enhance:                   factor
//	gaussian_blur:             sigma
//	medianfilter:              rowFactor, colFactor
var kindArities = map[Kind]int{
	Decimate:               1,
	PreEmphasis:            1,
	Spectrogram:            2,
	Spec2DB:                1,
	SpecNormalize:          2,
	SpecNormalizeStd:       2,
	ReduceTonalNoiseMean:   1,
	ReduceTonalNoiseMedian: 0,
	SpecClamp:              2,
	SpecCropInterp:         3,
	Enhance:                1,
	GaussianBlur:           1,
	MedianFilter:           2,
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(k))
}

// IsWaveDomain reports whether the kind operates on raw audio. Spectrogram
// counts as wave-domain: it consumes audio and performs the one transition
// into the frequency domain.
func (k Kind) IsWaveDomain() bool {
	return k == Decimate || k == PreEmphasis || k == Spectrogram
}

// ParseKind resolves a transform name to its Kind. A handful of historical
// spellings from model metadata are accepted as aliases.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}

	switch name {
	case "preemphases", "preemphsis":
		return PreEmphasis, nil
	case "specnormalise_std", "normalisestd":
		return SpecNormalizeStd, nil
	case "gaussianblur", "gaussian_filter":
		return GaussianBlur, nil
	case "median_filter":
		return MedianFilter, nil
	}

	return 0, fmt.Errorf("%w: unknown transform kind %q", ErrConfiguration, name)
}

// Descriptor declares one stage: a kind plus its ordered scalar parameters.
// Descriptors are immutable once constructed; the order of the containing
// list determines execution order and is load-bearing.
type Descriptor struct {
	Kind   Kind      `json:"kind"`
	Params []float64 `json:"params"`
}

// NewDescriptor creates a stage descriptor
func NewDescriptor(kind Kind, params ...float64) Descriptor {
	return Descriptor{Kind: kind, Params: params}
}

// Validate checks the kind is known and the parameter arity matches
func (d Descriptor) Validate() error {
	arity, ok := kindArities[d.Kind]
	if !ok {
		return fmt.Errorf("%w: unknown transform kind %d", ErrConfiguration, int(d.Kind))
	}
	if len(d.Params) != arity {
		return fmt.Errorf("%w: %s takes %d parameter(s), got %d", ErrConfiguration, d.Kind, arity, len(d.Params))
	}
	return nil
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s%v", d.Kind, d.Params)
}
