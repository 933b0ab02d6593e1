// specpipe runs a spectrogram transform pipeline over a synthesized test
// sweep and reports the shape and value range of the output matrix. It is a
// smoke-test harness for pipeline configurations: feed it the JSON transform
// description extracted from a model and inspect what the classifier would
// receive.
package main

import (
	"math"

	"github.com/alecthomas/kong"

	"github.com/pamflow/specpipe/algorithms/common"
	"github.com/pamflow/specpipe/logging"
	"github.com/pamflow/specpipe/pipeline"
	"github.com/pamflow/specpipe/pipeline/jsonfile"
)

var cli struct {
	Transforms string  `help:"Path to a JSON transform description. Defaults to a bat-classifier preset." type:"existingfile" optional:""`
	Duration   float64 `help:"Length of the synthesized sweep in seconds." default:"0.05"`
	SampleRate float64 `help:"Sample rate of the synthesized sweep in Hz." default:"256000"`
	FreqStart  float64 `help:"Sweep start frequency in Hz." default:"40000"`
	FreqEnd    float64 `help:"Sweep end frequency in Hz." default:"100000"`
	Verbose    bool    `short:"v" help:"Enable debug logging."`
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("specpipe"),
		kong.Description("Run a spectrogram transform pipeline over a synthesized frequency sweep."))

	logger := logging.NewDefaultLogger()
	if cli.Verbose {
		logger.SetLevel(logging.DebugLevel)
	}
	logging.SetGlobalLogger(logger)

	descriptors, err := loadDescriptors()
	if err != nil {
		logger.Fatal(err, "loading transform description")
	}

	p, err := pipeline.NewBuilder(descriptors).WithLogger(logger).Build()
	if err != nil {
		logger.Fatal(err, "building pipeline")
	}

	samples := sweep(cli.Duration, cli.SampleRate, cli.FreqStart, cli.FreqEnd)

	out, err := p.Run(samples, cli.SampleRate)
	if err != nil {
		logger.Fatal(err, "running pipeline")
	}

	flat := make([]float64, 0, len(out)*len(out[0]))
	for _, row := range out {
		flat = append(flat, row...)
	}

	logger.Info("pipeline output", logging.Fields{
		"time_frames": len(out),
		"freq_bins":   len(out[0]),
		"min":         common.Min(flat),
		"max":         common.Max(flat),
	})

	kctx.Exit(0)
}

func loadDescriptors() ([]pipeline.Descriptor, error) {
	if cli.Transforms != "" {
		return jsonfile.ReadDescriptorFile(cli.Transforms)
	}

	// Preset matching the bat species classifier configuration: 256k
	// training rate, 0.98 pre-emphasis, 256/10 FFT, 40-100 kHz band at 256
	// bins, dB + [-100, 0] normalization, clamped to [0, 1].
	return []pipeline.Descriptor{
		pipeline.NewDescriptor(pipeline.Decimate, 256000),
		pipeline.NewDescriptor(pipeline.PreEmphasis, 0.98),
		pipeline.NewDescriptor(pipeline.Spectrogram, 256, 10),
		pipeline.NewDescriptor(pipeline.Spec2DB, 1),
		pipeline.NewDescriptor(pipeline.SpecNormalize, -100, 0),
		pipeline.NewDescriptor(pipeline.SpecCropInterp, 40000, 100000, 256),
		pipeline.NewDescriptor(pipeline.SpecClamp, 0, 1),
	}, nil
}

// sweep synthesizes a linear frequency sweep between two frequencies
func sweep(duration, sampleRate, f0, f1 float64) []float64 {
	n := int(duration * sampleRate)
	out := make([]float64, n)
	for i := range out {
		t := float64(i) / sampleRate
		f := f0 + (f1-f0)*t/(2*duration)
		out[i] = math.Sin(2 * math.Pi * f * t)
	}
	return out
}
