package spectrogram

import (
	"math"
	"testing"

	"github.com/pamflow/specpipe/algorithms/common"
)

const tolerance = 1e-9

func almostEqual(a, b, tol float64) bool {
	if math.IsInf(a, -1) && math.IsInf(b, -1) {
		return true
	}
	if math.IsInf(a, 1) && math.IsInf(b, 1) {
		return true
	}
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return math.Abs(a-b) <= tol
}

func matricesEqual(a, b [][]float64, tol float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for j := range a[i] {
			if !almostEqual(a[i][j], b[i][j], tol) {
				return false
			}
		}
	}
	return true
}

func onesMatrix(rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
		for j := range m[i] {
			m[i][j] = 1.0
		}
	}
	return m
}

func rampMatrix(rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
		for j := range m[i] {
			m[i][j] = float64(i*cols+j) + 1.0
		}
	}
	return m
}

func TestDBConvert_AllOnesIsZero(t *testing.T) {
	m := onesMatrix(10, 16)
	out := DBConvert(m, true)

	for i, row := range out {
		for j, v := range row {
			if v != 0 {
				t.Fatalf("out[%d][%d]: got %g, want 0", i, j, v)
			}
		}
	}
}

func TestDBConvert_RoundTrip(t *testing.T) {
	m := rampMatrix(4, 8)

	for _, power := range []bool{true, false} {
		coeff := 20.0
		if power {
			coeff = 10.0
		}
		out := DBConvert(m, power)
		for i, row := range out {
			for j, v := range row {
				recovered := math.Pow(10, v/coeff)
				if !almostEqual(recovered, m[i][j], 1e-9*m[i][j]) {
					t.Errorf("power=%v out[%d][%d]: recovered %g, want %g", power, i, j, recovered, m[i][j])
				}
			}
		}
	}
}

func TestDBConvert_NonPositiveInput(t *testing.T) {
	out := DBConvert([][]float64{{0, -1}}, true)

	if !math.IsInf(out[0][0], -1) {
		t.Errorf("log of zero: got %g, want -Inf", out[0][0])
	}
	if !math.IsNaN(out[0][1]) {
		t.Errorf("log of negative: got %g, want NaN", out[0][1])
	}
}

func TestNormalize_CompensationOffset(t *testing.T) {
	// x = ref + min makes the ratio term zero, exposing the raw offset.
	m := [][]float64{{-100}}
	out := Normalize(m, -100, 0)

	if !almostEqual(out[0][0], -1.1407, tolerance) {
		t.Errorf("got %g, want -1.1407", out[0][0])
	}
}

func TestNormalize_Formula(t *testing.T) {
	tests := []struct {
		name       string
		value      float64
		minLevelDB float64
		refLevelDB float64
		want       float64
	}{
		{"zero_at_min", -100, -100, 0, 2*0 - 1.1407},
		{"full_scale", 0, -100, 0, 2*1 - 1.1407},
		{"with_ref", -20, -80, 20, 2*((-20.0-20.0+80.0)/80.0) - 1.1407},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Normalize([][]float64{{tt.value}}, tt.minLevelDB, tt.refLevelDB)
			if !almostEqual(out[0][0], tt.want, tolerance) {
				t.Errorf("got %g, want %g", out[0][0], tt.want)
			}
		})
	}
}

func TestNormalizeRowSum_UnitNorm(t *testing.T) {
	m := rampMatrix(3, 4)
	out := NormalizeRowSum(m)

	tot := 0.0
	for _, row := range out {
		for _, v := range row {
			tot += v * v
		}
	}
	if !almostEqual(tot, 1.0, tolerance) {
		t.Errorf("squared norm: got %g, want 1", tot)
	}
}

func TestNormalizeRowSum_ZeroNormIdentity(t *testing.T) {
	m := [][]float64{{0, 0}, {0, 0}}
	out := NormalizeRowSum(m)

	if !matricesEqual(out, m, 0) {
		t.Errorf("zero-norm matrix changed: got %v", out)
	}
}

func TestNormalizeStd_TargetMoments(t *testing.T) {
	tests := []struct {
		name string
		mean float64
		std  float64
	}{
		{"standard", 0, 1},
		{"shifted", 5, 2.5},
	}

	m := rampMatrix(4, 4)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := NormalizeStd(m, tt.mean, tt.std)

			flat := make([]float64, 0, 16)
			for _, row := range out {
				flat = append(flat, row...)
			}

			if got := common.Mean(flat); !almostEqual(got, tt.mean, 1e-9) {
				t.Errorf("mean: got %g, want %g", got, tt.mean)
			}
			if got := common.StandardDeviation(flat); !almostEqual(got, tt.std, 1e-9) {
				t.Errorf("std: got %g, want %g", got, tt.std)
			}
		})
	}
}

func TestNormalizeStd_ZeroStdIdentity(t *testing.T) {
	m := [][]float64{{3, 3}, {3, 3}}
	out := NormalizeStd(m, 0, 1)

	if !matricesEqual(out, m, 0) {
		t.Errorf("zero-std matrix changed: got %v", out)
	}
}

func TestReduceTonalNoiseMean_ConstantInput(t *testing.T) {
	// The running mean of a constant matrix equals every row, so the output
	// is all zeros.
	m := onesMatrix(5, 3)
	out := ReduceTonalNoiseMean(m, 4)

	for i, row := range out {
		for j, v := range row {
			if v != 0 {
				t.Fatalf("out[%d][%d]: got %g, want 0", i, j, v)
			}
		}
	}
}

func TestReduceTonalNoiseMean_Recurrence(t *testing.T) {
	m := [][]float64{{1}, {3}}
	timeConstLen := 2
	eps := 1 - math.Exp(math.Log(0.15)/float64(timeConstLen))

	// rMean starts at the column mean (2); row 0 subtracts it, then the
	// mean is updated before row 1.
	want0 := 1.0 - 2.0
	rMean := (1-eps)*2.0 + eps*1.0
	want1 := 3.0 - rMean

	out := ReduceTonalNoiseMean(m, timeConstLen)
	if !almostEqual(out[0][0], want0, tolerance) {
		t.Errorf("out[0][0]: got %g, want %g", out[0][0], want0)
	}
	if !almostEqual(out[1][0], want1, tolerance) {
		t.Errorf("out[1][0]: got %g, want %g", out[1][0], want1)
	}
}

func TestReduceTonalNoiseMedian(t *testing.T) {
	m := [][]float64{{1, 10}, {3, 20}, {5, 30}}
	out := ReduceTonalNoiseMedian(m)

	want := [][]float64{{-2, -10}, {0, 0}, {2, 10}}
	if !matricesEqual(out, want, tolerance) {
		t.Errorf("got %v, want %v", out, want)
	}
}

func TestMedianFilter_ReferenceExample(t *testing.T) {
	m := [][]float64{
		{1, 4, 5},
		{3, 5, 1},
		{1, 0, 9},
	}
	want := [][]float64{
		{0, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}

	out := MedianFilter(m, 1, 1)
	if !matricesEqual(out, want, 0) {
		t.Errorf("got %v, want %v", out, want)
	}
}

func TestMedianFilter_Binary(t *testing.T) {
	m := rampMatrix(5, 5)
	out := MedianFilter(m, 0.5, 0.5)

	for i, row := range out {
		for j, v := range row {
			if v != 0 && v != 1 {
				t.Fatalf("out[%d][%d]: got %g, want 0 or 1", i, j, v)
			}
		}
	}
}

func TestEnhance_NonPositiveFactorIdentity(t *testing.T) {
	m := rampMatrix(3, 3)

	for _, factor := range []float64{0, -1} {
		out := Enhance(m, factor)
		if !matricesEqual(out, m, 0) {
			t.Errorf("factor %g: matrix changed: got %v", factor, out)
		}
	}
}

func TestEnhance_Formula(t *testing.T) {
	m := rampMatrix(3, 3)
	factor := 1.0

	flat := make([]float64, 0, 9)
	for _, row := range m {
		flat = append(flat, row...)
	}
	med := common.Median(flat)
	std := common.StandardDeviation(flat)
	width := std / factor

	out := Enhance(m, factor)
	for i, row := range m {
		for j, v := range row {
			scaling := 1.0 / (math.Exp(-(v-med-std)/width) + 1.0)
			if !almostEqual(out[i][j], v*scaling, tolerance) {
				t.Errorf("out[%d][%d]: got %g, want %g", i, j, out[i][j], v*scaling)
			}
		}
	}
}

func TestInterpolateFrequency_TargetBins(t *testing.T) {
	tests := []struct {
		name       string
		fMin, fMax float64
		targetBins int
	}{
		{"upsample", 40000, 100000, 256},
		{"downsample", 0, 128000, 16},
		{"single_bin_output", 10000, 90000, 1},
		{"narrow_band", 1000, 1001, 8},
	}

	m := rampMatrix(6, 128)
	sampleRate := 256000.0

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := InterpolateFrequency(m, tt.fMin, tt.fMax, tt.targetBins, sampleRate)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(out) != len(m) {
				t.Fatalf("rows: got %d, want %d", len(out), len(m))
			}
			for i, row := range out {
				if len(row) != tt.targetBins {
					t.Errorf("row %d: got %d bins, want %d", i, len(row), tt.targetBins)
				}
			}
		})
	}
}

func TestInterpolateFrequency_CropValues(t *testing.T) {
	// With fMin at half Nyquist and targetBins equal to the remaining bins,
	// the output is exactly the upper half of each row.
	m := rampMatrix(2, 8)
	out, err := InterpolateFrequency(m, 64000, 128000, 4, 256000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, row := range out {
		// maxIndex clamps to fftLen-1, so the crop is bins [4, 7).
		want := common.NearestNeighbour(m[i][4:7], 4)
		for j := range row {
			if row[j] != want[j] {
				t.Errorf("row %d: got %v, want %v", i, row, want)
				break
			}
		}
	}
}

func TestInterpolateFrequency_InvalidBounds(t *testing.T) {
	m := rampMatrix(2, 8)

	tests := []struct {
		name       string
		fMin, fMax float64
		targetBins int
	}{
		{"reversed", 100, 50, 4},
		{"negative_min", -1, 100, 4},
		{"above_nyquist", 0, 200000, 4},
		{"zero_bins", 0, 1000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := InterpolateFrequency(m, tt.fMin, tt.fMax, tt.targetBins, 256000); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestClamp_RangeAndIdempotence(t *testing.T) {
	m := [][]float64{{-5, 0.5, 10}, {0, 1, -0.1}}

	out := Clamp(m, 0, 1)
	for i, row := range out {
		for j, v := range row {
			if v < 0 || v > 1 {
				t.Fatalf("out[%d][%d]: %g outside [0, 1]", i, j, v)
			}
		}
	}

	again := Clamp(out, 0, 1)
	if !matricesEqual(again, out, 0) {
		t.Errorf("clamp is not idempotent: %v != %v", again, out)
	}
}

func TestGaussianKernel_SumsToOne(t *testing.T) {
	for _, sigma := range []float64{0.5, 1, 5, 100} {
		kernel := GaussianKernel(sigma)

		sum := 0.0
		for _, row := range kernel {
			sum += row[0] + row[1] + row[2] + row[3] + row[4]
		}
		if !almostEqual(sum, 1.0, tolerance) {
			t.Errorf("sigma %g: kernel sum %g, want 1", sigma, sum)
		}
	}
}

func TestGaussianKernel_LargeSigmaIsBox(t *testing.T) {
	kernel := GaussianKernel(1e6)

	for x, row := range kernel {
		for y, v := range row {
			if !almostEqual(v, 1.0/25.0, 1e-9) {
				t.Errorf("kernel[%d][%d]: got %g, want %g", x, y, v, 1.0/25.0)
			}
		}
	}
}

func TestGaussianBlur_PreservesConstant(t *testing.T) {
	// Edge clamping means a constant image convolves to itself.
	m := onesMatrix(6, 6)
	out, err := GaussianBlur(m, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !matricesEqual(out, m, tolerance) {
		t.Errorf("constant image changed: got %v", out)
	}
}

func TestGaussianBlur_InvalidSigma(t *testing.T) {
	if _, err := GaussianBlur(onesMatrix(3, 3), 0); err == nil {
		t.Error("expected error for sigma 0, got nil")
	}
}

func TestMedianBlur_NotImplemented(t *testing.T) {
	_, err := MedianBlur(onesMatrix(3, 3), 3)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestTransforms_DoNotMutateInput(t *testing.T) {
	m := rampMatrix(4, 8)
	snapshot := CopyMatrix(m)

	DBConvert(m, true)
	Normalize(m, -100, 0)
	NormalizeRowSum(m)
	NormalizeStd(m, 0, 1)
	ReduceTonalNoiseMean(m, 3)
	ReduceTonalNoiseMedian(m)
	MedianFilter(m, 1, 1)
	Enhance(m, 1)
	Clamp(m, 0, 1)
	if _, err := InterpolateFrequency(m, 1000, 100000, 16, 256000); err != nil {
		t.Fatalf("interpolate: %v", err)
	}
	if _, err := GaussianBlur(m, 2); err != nil {
		t.Fatalf("blur: %v", err)
	}

	if !matricesEqual(m, snapshot, 0) {
		t.Error("input matrix was mutated")
	}
}
