package pipeline

import (
	"fmt"

	"github.com/pamflow/specpipe/algorithms/spectral"
	"github.com/pamflow/specpipe/logging"
	"github.com/pamflow/specpipe/spectrogram"
)

// Pipeline is an executable, ordered list of stages. It holds no cross-run
// state: running the same pipeline twice on the same input produces
// bit-identical output, and independent runs may execute concurrently.
type Pipeline struct {
	stages []stage
	window spectral.Window
	phase  bool
	stft   *spectral.STFT
	logger logging.Logger
}

// Run feeds raw audio through every stage in order and returns the final
// matrix (time frames x frequency bins).
func (p *Pipeline) Run(samples []float64, sampleRate float64) ([][]float64, error) {
	st, err := p.RunTransform(samples, sampleRate)
	if err != nil {
		return nil, err
	}
	return st.TransformedData(), nil
}

// RunTransform runs the pipeline and returns the finished transform chain,
// giving access to the derived real and imaginary matrices when phase was
// maintained.
//
// Execution is a two-state machine: the wave state threads raw audio through
// decimation and pre-emphasis, the spectrogram stage transitions into the
// frequency state, and the frequency state threads the transform engine
// through the remaining stages. A failing stage aborts the run; no partial
// result is returned.
func (p *Pipeline) RunTransform(samples []float64, sampleRate float64) (*spectrogram.SpecTransform, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("empty input signal")
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %f", sampleRate)
	}

	wave := &WaveData{Samples: samples, SampleRate: sampleRate}
	var st *spectrogram.SpecTransform

	for i, s := range p.stages {
		var err error
		switch {
		case s.desc.Kind == Spectrogram:
			st, err = p.transition(wave, s.desc)
		case s.wave != nil:
			wave, err = s.wave(wave)
		default:
			err = s.freq(st)
		}
		if err != nil {
			return nil, fmt.Errorf("stage %d (%s): %w", i, s.desc.Kind, err)
		}
	}

	p.logger.Debug("pipeline run complete", logging.Fields{
		"stages": len(p.stages),
		"frames": len(st.TransformedData()),
	})

	return st, nil
}

// transition builds the spectrogram from the wave data and opens the
// frequency-domain transform chain.
func (p *Pipeline) transition(wave *WaveData, d Descriptor) (*spectrogram.SpecTransform, error) {
	fftLen, hop := int(d.Params[0]), int(d.Params[1])

	// A nil window means rectangular framing.
	result, err := p.stft.ComputeWithWindow(wave.Samples, fftLen, hop, wave.SampleRate, p.window)
	if err != nil {
		return nil, err
	}

	spec := spectrogram.NewSpectrogram(result)

	opts := []spectrogram.Option{spectrogram.WithLogger(p.logger)}
	if p.phase {
		opts = append(opts, spectrogram.WithPhase())
	}
	return spectrogram.New(spec, opts...), nil
}

// Stages returns the descriptors the pipeline was built from, in execution
// order
func (p *Pipeline) Stages() []Descriptor {
	descs := make([]Descriptor, len(p.stages))
	for i, s := range p.stages {
		descs[i] = s.desc
	}
	return descs
}
