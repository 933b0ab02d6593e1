package spectrogram

import (
	"fmt"
	"math"

	"github.com/pamflow/specpipe/algorithms/common"
)

// Pure matrix transforms. Each function allocates a new output matrix and
// leaves its input untouched. Rows are time frames, columns frequency bins.

// DBConvert converts a magnitude matrix to decibels, 10*log10(x) for power
// or 20*log10(x) for amplitude.
//
// Zero or negative input produces -Inf/NaN; callers that cannot accept
// non-finite values must clamp first. Suppressing them here would hide
// upstream defects.
func DBConvert(m [][]float64, power bool) [][]float64 {
	coeff := 20.0
	if power {
		coeff = 10.0
	}

	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			out[i][j] = coeff * math.Log10(v)
		}
	}
	return out
}

// Normalize normalizes a dB matrix between a minimum and a reference level:
//
//	out = 2*((x - refLevelDB - minLevelDB) / -minLevelDB) - 1.1407
//
// The 1.1407 offset compensates for the FFT scaling difference against the
// reference preprocessing the classifier models were trained with. It must
// not be re-derived; models depend on the exact value.
func Normalize(m [][]float64, minLevelDB, refLevelDB float64) [][]float64 {
	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			out[i][j] = 2*((v-refLevelDB-minLevelDB)/-minLevelDB) - 1.1407
		}
	}
	return out
}

// NormalizeRowSum divides every element by the square root of the summed
// squares of all elements. A matrix with zero norm is returned unchanged.
func NormalizeRowSum(m [][]float64) [][]float64 {
	tot := 0.0
	for _, row := range m {
		for _, v := range row {
			tot += v * v
		}
	}
	tot = math.Sqrt(tot)

	out := CopyMatrix(m)
	if tot == 0 {
		return out
	}
	for i, row := range out {
		for j := range row {
			out[i][j] /= tot
		}
	}
	return out
}

// NormalizeStd normalizes the matrix to a specified mean and standard
// deviation. A matrix with zero standard deviation cannot be normalized and
// is returned unchanged.
func NormalizeStd(m [][]float64, mean, std float64) [][]float64 {
	flat := flatten(m)
	origMean := common.Mean(flat)
	origStd := common.StandardDeviation(flat)

	out := CopyMatrix(m)
	if origStd == 0 {
		return out
	}
	for i, row := range out {
		for j := range row {
			out[i][j] = (out[i][j]-origMean)/origStd*std + mean
		}
	}
	return out
}

// ReduceTonalNoiseMean reduces continuous tonal noise, e.g. ship engine hum,
// by subtracting from each frame a running mean computed per the formula in
// Baumgartner & Mussoline, JASA 129, 2889 (2011); doi: 10.1121/1.3562166.
//
// The running mean is seeded with the column-wise mean of the whole matrix
// and updated frame by frame; the recurrence is inherently sequential over
// rows.
func ReduceTonalNoiseMean(m [][]float64, timeConstLen int) [][]float64 {
	eps := 1 - math.Exp(math.Log(0.15)/float64(timeConstLen))

	rMean := columnMeans(m)

	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			out[i][j] = v - rMean[j]
		}
		for j, v := range row {
			rMean[j] = (1-eps)*rMean[j] + eps*v
		}
	}
	return out
}

// ReduceTonalNoiseMedian subtracts from every column that column's median
// across all rows.
func ReduceTonalNoiseMedian(m [][]float64) [][]float64 {
	median := columnMedians(m)

	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			out[i][j] = v - median[j]
		}
	}
	return out
}

// MedianFilter discards pixels that are lower than the median threshold. The
// output is a binary matrix with 1 for every pixel exceeding both the
// row-wise and column-wise median thresholds and 0 elsewhere.
//
// Adapted from Kahl et al. (2017), http://ceur-ws.org/Vol-1866/paper_143.pdf.
// Each pixel is compared against its own row's median and its own column's
// median, scaled by the respective factor.
func MedianFilter(m [][]float64, rowFactor, colFactor float64) [][]float64 {
	rowMedian := rowMedians(m)
	colMedian := columnMedians(m)

	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			if v > rowMedian[i]*rowFactor && v > colMedian[j]*colFactor {
				out[i][j] = 1
			}
		}
	}
	return out
}

// Enhance boosts the contrast between regions of high and low intensity
// while preserving the range of pixel values. Each pixel is multiplied by
//
//	f(x) = 1 / (exp(-(x - median - std) / width) + 1)
//
// where width = std/enhancementFactor. f is a smooth step from 0 to 1; the
// smaller the width the sharper the transition. A factor <= 0 is the
// identity.
func Enhance(m [][]float64, enhancementFactor float64) [][]float64 {
	if enhancementFactor <= 0 {
		return CopyMatrix(m)
	}

	flat := flatten(m)
	med := common.Median(flat)
	std := common.StandardDeviation(flat)
	width := std / enhancementFactor

	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			scaling := 1.0 / (math.Exp(-(v-med-std)/width) + 1.0)
			out[i][j] = v * scaling
		}
	}
	return out
}

// InterpolateFrequency crops the frequency axis of a full-range spectrogram
// to [fMin, fMax) and nearest-neighbour resamples the result to exactly
// targetBins columns. This is a resize, not a bandlimited resample; aliasing
// is accepted for speed.
func InterpolateFrequency(m [][]float64, fMin, fMax float64, targetBins int, sampleRate float64) ([][]float64, error) {
	if targetBins <= 0 {
		return nil, fmt.Errorf("target bins must be positive, got %d", targetBins)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %f", sampleRate)
	}
	nyquist := sampleRate / 2
	if fMin < 0 || fMax > nyquist || fMin >= fMax {
		return nil, fmt.Errorf("frequency bounds [%g, %g) must satisfy 0 <= fMin < fMax <= %g", fMin, fMax, nyquist)
	}

	fftLen := len(m[0])

	minIndex := int(math.Max(0, float64(fftLen)*(fMin/nyquist)))
	maxIndex := int(math.Min(float64(fftLen-1), float64(fftLen)*(fMax/nyquist)))
	if maxIndex <= minIndex {
		// Degenerate band narrower than one bin; keep a single-bin slice so
		// the output still has targetBins columns.
		maxIndex = minIndex + 1
	}

	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = common.NearestNeighbour(row[minIndex:maxIndex], targetBins)
	}
	return out, nil
}

// Clamp constrains every element to [minVal, maxVal]
func Clamp(m [][]float64, minVal, maxVal float64) [][]float64 {
	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			out[i][j] = common.Clamp(v, minVal, maxVal)
		}
	}
	return out
}

// gaussianKernelSize is fixed; the reference preprocessing always blurs with
// a 5x5 kernel regardless of sigma.
const gaussianKernelSize = 5

// GaussianBlur smooths the matrix with a normalized 5x5 Gaussian kernel.
// Out-of-range indices are clamped to the nearest edge pixel rather than
// zero-padded or wrapped.
func GaussianBlur(m [][]float64, sigma float64) ([][]float64, error) {
	if sigma <= 0 {
		return nil, fmt.Errorf("sigma must be positive, got %f", sigma)
	}

	kernel := GaussianKernel(sigma)
	radius := gaussianKernelSize / 2

	rows := len(m)
	cols := len(m[0])

	out := make([][]float64, rows)
	for i := range out {
		out[i] = make([]float64, cols)
		for j := range out[i] {
			acc := 0.0
			for kx := 0; kx < gaussianKernelSize; kx++ {
				for ky := 0; ky < gaussianKernelSize; ky++ {
					acc += kernel[kx][ky] * m[bound(i+kx-radius, rows)][bound(j+ky-radius, cols)]
				}
			}
			out[i][j] = acc
		}
	}
	return out, nil
}

// GaussianKernel generates the normalized 5x5 kernel for a sigma value
func GaussianKernel(sigma float64) [][]float64 {
	kernel := make([][]float64, gaussianKernelSize)
	mean := float64(gaussianKernelSize / 2)

	sum := 0.0
	for x := 0; x < gaussianKernelSize; x++ {
		kernel[x] = make([]float64, gaussianKernelSize)
		for y := 0; y < gaussianKernelSize; y++ {
			dx := (float64(x) - mean) / sigma
			dy := (float64(y) - mean) / sigma
			kernel[x][y] = math.Exp(-0.5*(dx*dx+dy*dy)) / (2 * math.Pi * sigma * sigma)
			sum += kernel[x][y]
		}
	}

	for x := 0; x < gaussianKernelSize; x++ {
		for y := 0; y < gaussianKernelSize; y++ {
			kernel[x][y] /= sum
		}
	}

	return kernel
}

// MedianBlur is the isolated-spot smoothing stage of the reference
// preprocessing. The algorithm was never specified there, so this surfaces
// ErrNotImplemented instead of silently passing data through.
func MedianBlur(m [][]float64, size int) ([][]float64, error) {
	return nil, fmt.Errorf("median blur: %w", ErrNotImplemented)
}

func bound(value, endIndex int) int {
	if value < 0 {
		return 0
	}
	if value < endIndex {
		return value
	}
	return endIndex - 1
}

func flatten(m [][]float64) []float64 {
	flat := make([]float64, 0, len(m)*len(m[0]))
	for _, row := range m {
		flat = append(flat, row...)
	}
	return flat
}

func columnMeans(m [][]float64) []float64 {
	means := make([]float64, len(m[0]))
	for _, row := range m {
		for j, v := range row {
			means[j] += v
		}
	}
	for j := range means {
		means[j] /= float64(len(m))
	}
	return means
}

func columnMedians(m [][]float64) []float64 {
	medians := make([]float64, len(m[0]))
	col := make([]float64, len(m))
	for j := range medians {
		for i, row := range m {
			col[i] = row[j]
		}
		medians[j] = common.Median(col)
	}
	return medians
}

func rowMedians(m [][]float64) []float64 {
	medians := make([]float64, len(m))
	for i, row := range m {
		medians[i] = common.Median(row)
	}
	return medians
}
