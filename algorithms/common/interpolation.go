package common

// Linear interpolation helpers used by the wave-domain stages.

// InterpolateAt evaluates data at a fractional index using linear
// interpolation, clamping out-of-range indices to the endpoints.
func InterpolateAt(data []float64, index float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	if index <= 0 {
		return data[0]
	}
	if index >= float64(len(data)-1) {
		return data[len(data)-1]
	}

	i := int(index)
	frac := index - float64(i)
	return data[i] + frac*(data[i+1]-data[i])
}

// ResampleSignal resamples a signal from originalRate to targetRate using
// linear interpolation. The output length is len(signal)*targetRate/originalRate.
func ResampleSignal(signal []float64, originalRate, targetRate float64) []float64 {
	if len(signal) == 0 || originalRate <= 0 || targetRate <= 0 {
		return signal
	}
	if originalRate == targetRate {
		out := make([]float64, len(signal))
		copy(out, signal)
		return out
	}

	ratio := originalRate / targetRate
	newLength := int(float64(len(signal)) / ratio)
	if newLength <= 0 {
		return []float64{}
	}

	resampled := make([]float64, newLength)
	for i := range resampled {
		resampled[i] = InterpolateAt(signal, float64(i)*ratio)
	}

	return resampled
}

// NearestNeighbour resamples a 1D array of evenly spaced values to a new
// length, picking for each output bin the input bin at floor(j*len/newLen).
// This is a resize rather than a bandlimited resample; aliasing is accepted.
func NearestNeighbour(data []float64, newLength int) []float64 {
	if newLength <= 0 || len(data) == 0 {
		return []float64{}
	}

	out := make([]float64, newLength)
	ratio := float64(len(data)) / float64(newLength)
	for j := range out {
		px := int(float64(j) * ratio)
		if px >= len(data) {
			px = len(data) - 1
		}
		out[j] = data[px]
	}

	return out
}
