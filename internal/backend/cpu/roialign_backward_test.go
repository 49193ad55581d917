package cpu

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/diff/fd"

	"github.com/fovea-ml/fovea/internal/parallel"
	"github.com/fovea-ml/fovea/internal/tensor"
)

func onesGradOutput(t *testing.T, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	data := make([]float32, shape.NumElements())
	for i := range data {
		data[i] = 1
	}
	grad, err := tensor.FromSlice(shape, data, tensor.CPU)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}
	return grad
}

// TestRoIAlignBackward_MassConserved: with gradOutput filled with ones and all
// samples inside the map, every bin distributes exactly 1 unit of gradient
// (bilinear weights sum to 1 per sample, samples average to 1 per bin), so the
// total scattered mass is R*C*pooledH*pooledW.
func TestRoIAlignBackward_MassConserved(t *testing.T) {
	backend := New()

	rois := roisFromFloat32(t, [][5]float32{{0, 0, 0, 3, 3}})
	gradOutput := onesGradOutput(t, tensor.Shape{1, 1, 2, 2})

	gradInput := backend.RoIAlignBackward(gradOutput, rois, 1.0, 1.0, 2, 2, 1, 1, 4, 4, 2)

	if !gradInput.Shape().Equal(tensor.Shape{1, 1, 4, 4}) {
		t.Fatalf("gradInput shape = %v, want [1 1 4 4]", gradInput.Shape())
	}

	var sum float64
	for _, v := range gradInput.AsFloat32() {
		sum += float64(v)
	}
	if math.Abs(sum-4.0) > 1e-5 {
		t.Errorf("total gradient mass = %v, want 4.0 (one unit per bin)", sum)
	}
}

// TestRoIAlignBackward_SinglePointScatter pins the smallest case by hand: a
// degenerate region clamps to a 1x1 box, its single 1x1-pooled sample lands on
// the lattice point (1, 1), and the whole incoming gradient lands on that cell.
func TestRoIAlignBackward_SinglePointScatter(t *testing.T) {
	backend := New()

	rois := roisFromFloat32(t, [][5]float32{{0, 0.5, 0.5, 0.5, 0.5}})
	gradOutput, err := tensor.FromSlice(tensor.Shape{1, 1, 1, 1}, []float32{3}, tensor.CPU)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}

	gradInput := backend.RoIAlignBackward(gradOutput, rois, 1.0, 1.0, 1, 1, 1, 1, 4, 4, 1)

	data := gradInput.AsFloat32()
	for i, v := range data {
		want := float32(0)
		if i == 1*4+1 {
			want = 3
		}
		if math.Abs(float64(v-want)) > 1e-6 {
			t.Errorf("gradInput[%d] = %v, want %v", i, v, want)
		}
	}
}

// TestRoIAlignBackward_OffMapRegionZeroGradient: a region whose samples all
// fall outside [-1, dim] must leave the gradient buffer untouched.
func TestRoIAlignBackward_OffMapRegionZeroGradient(t *testing.T) {
	backend := New()

	rois := roisFromFloat32(t, [][5]float32{{0, -10, -10, -5, -5}})
	gradOutput := onesGradOutput(t, tensor.Shape{1, 1, 2, 2})

	gradInput := backend.RoIAlignBackward(gradOutput, rois, 1.0, 1.0, 2, 2, 1, 1, 4, 4, 2)

	for i, v := range gradInput.AsFloat32() {
		if v != 0 {
			t.Errorf("gradInput[%d] = %v for an off-map region, want 0", i, v)
		}
	}
}

// TestRoIAlignBackward_OverlapAccumulates: two identical regions scatter into
// the same cells; the result must be the accumulated double, never the value
// of whichever region wrote last.
func TestRoIAlignBackward_OverlapAccumulates(t *testing.T) {
	backend := New()

	single := roisFromFloat32(t, [][5]float32{{0, 0.3, 0.7, 2.9, 3.0}})
	double := roisFromFloat32(t, [][5]float32{
		{0, 0.3, 0.7, 2.9, 3.0},
		{0, 0.3, 0.7, 2.9, 3.0},
	})

	gradSingle := backend.RoIAlignBackward(onesGradOutput(t, tensor.Shape{1, 1, 2, 2}), single, 1.0, 1.0, 2, 2, 1, 1, 4, 4, 2)
	gradDouble := backend.RoIAlignBackward(onesGradOutput(t, tensor.Shape{2, 1, 2, 2}), double, 1.0, 1.0, 2, 2, 1, 1, 4, 4, 2)

	singleData := gradSingle.AsFloat32()
	doubleData := gradDouble.AsFloat32()
	for i := range singleData {
		if math.Abs(float64(doubleData[i]-2*singleData[i])) > 1e-5 {
			t.Errorf("gradInput[%d]: duplicated region gave %v, want %v", i, doubleData[i], 2*singleData[i])
		}
	}
}

// TestRoIAlignBackward_MatchesNumericalGradient checks the analytic gradient
// against central finite differences of the forward pass. RoIAlign is linear
// in the feature map, so the two agree to rounding error.
func TestRoIAlignBackward_MatchesNumericalGradient(t *testing.T) {
	backend := New()
	backend.SetParallel(parallel.Sequential())

	const H, W = 5, 6
	roiRows := []float64{
		0, 0.7, 0.4, 4.2, 3.6,
		0, 1.5, 2.0, 5.3, 4.1,
	}
	rois, err := tensor.FromSlice(tensor.Shape{2, 5}, roiRows, tensor.CPU)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}

	// Scalar objective: sum of all pooled outputs. Its gradient w.r.t. the
	// feature map is exactly backward's result for gradOutput filled with 1.
	pooledSum := func(x []float64) float64 {
		input, ferr := tensor.FromSlice(tensor.Shape{1, 1, H, W}, x, tensor.CPU)
		if ferr != nil {
			t.Fatalf("FromSlice failed: %v", ferr)
		}
		out := backend.RoIAlign(input, rois, 1.0, 1.0, 2, 2, 2)
		var sum float64
		for _, v := range out.AsFloat64() {
			sum += v
		}
		return sum
	}

	x := make([]float64, H*W)
	for i := range x {
		x[i] = math.Sin(float64(i) * 0.7)
	}
	numerical := fd.Gradient(nil, pooledSum, x, &fd.Settings{Formula: fd.Central})

	gradOutput := make([]float64, 2*1*2*2)
	for i := range gradOutput {
		gradOutput[i] = 1
	}
	gradOut, err := tensor.FromSlice(tensor.Shape{2, 1, 2, 2}, gradOutput, tensor.CPU)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}
	analytic := backend.RoIAlignBackward(gradOut, rois, 1.0, 1.0, 2, 2, 1, 1, H, W, 2).AsFloat64()

	for i := range analytic {
		if math.Abs(analytic[i]-numerical[i]) > 1e-6 {
			t.Errorf("gradInput[%d]: analytic %v vs numerical %v", i, analytic[i], numerical[i])
		}
	}
}

// TestRoIAlignBackward_AdaptiveGridMatchesForward: with samplingRatio <= 0,
// backward must rederive the same per-region adaptive grid as forward; the
// finite-difference check catches any divergence in grid counts.
func TestRoIAlignBackward_AdaptiveGridMatchesForward(t *testing.T) {
	backend := New()
	backend.SetParallel(parallel.Sequential())

	const H, W = 6, 8
	rois, err := tensor.FromSlice(tensor.Shape{1, 5}, []float64{0, 0, 0, 5, 3}, tensor.CPU)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}

	pooledSum := func(x []float64) float64 {
		input, ferr := tensor.FromSlice(tensor.Shape{1, 1, H, W}, x, tensor.CPU)
		if ferr != nil {
			t.Fatalf("FromSlice failed: %v", ferr)
		}
		out := backend.RoIAlign(input, rois, 1.0, 1.0, 2, 2, 0)
		var sum float64
		for _, v := range out.AsFloat64() {
			sum += v
		}
		return sum
	}

	x := make([]float64, H*W)
	for i := range x {
		x[i] = float64((i*31)%17) / 5
	}
	numerical := fd.Gradient(nil, pooledSum, x, &fd.Settings{Formula: fd.Central})

	gradOutput := []float64{1, 1, 1, 1}
	gradOut, err := tensor.FromSlice(tensor.Shape{1, 1, 2, 2}, gradOutput, tensor.CPU)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}
	analytic := backend.RoIAlignBackward(gradOut, rois, 1.0, 1.0, 2, 2, 1, 1, H, W, 0).AsFloat64()

	for i := range analytic {
		if math.Abs(analytic[i]-numerical[i]) > 1e-6 {
			t.Errorf("gradInput[%d]: analytic %v vs numerical %v", i, analytic[i], numerical[i])
		}
	}
}

// TestRoIAlignBackward_MultiBatchRouting: each region must scatter into its
// own batch slice only.
func TestRoIAlignBackward_MultiBatchRouting(t *testing.T) {
	backend := New()

	rois := roisFromFloat32(t, [][5]float32{
		{0, 0, 0, 3, 3},
		{1, 0, 0, 3, 3},
	})
	gradOutput := onesGradOutput(t, tensor.Shape{2, 2, 2, 2})

	gradInput := backend.RoIAlignBackward(gradOutput, rois, 1.0, 1.0, 2, 2, 2, 2, 4, 4, 2)

	data := gradInput.AsFloat32()
	planeSize := 4 * 4
	for n := 0; n < 2; n++ {
		for c := 0; c < 2; c++ {
			var sum float64
			plane := data[(n*2+c)*planeSize : (n*2+c+1)*planeSize]
			for _, v := range plane {
				sum += float64(v)
			}
			// One region per batch, ones gradient, 2x2 bins: 4 units per plane.
			if math.Abs(sum-4.0) > 1e-5 {
				t.Errorf("batch %d channel %d gradient mass = %v, want 4.0", n, c, sum)
			}
		}
	}
}

// TestRoIAlignBackward_Deterministic: channel-partitioned workers write
// disjoint planes, so the parallel schedule reproduces sequential execution
// bit for bit.
func TestRoIAlignBackward_Deterministic(t *testing.T) {
	parallelBackend := New()
	sequentialBackend := New()
	sequentialBackend.SetParallel(parallel.Sequential())

	gradData := make([]float32, 4*8*3*3)
	for i := range gradData {
		gradData[i] = float32((i*2654435761)%101) / 9
	}
	gradOutput, err := tensor.FromSlice(tensor.Shape{4, 8, 3, 3}, gradData, tensor.CPU)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}

	rois := roisFromFloat32(t, [][5]float32{
		{0, 0.4, 0.4, 6.6, 6.6},
		{0, 2.1, 1.3, 7.0, 5.5},
		{1, 0.0, 0.0, 7.0, 7.0},
		{1, 3.3, 3.3, 4.4, 6.1},
	})

	first := parallelBackend.RoIAlignBackward(gradOutput, rois, 1.0, 1.0, 3, 3, 2, 8, 8, 8, 2)
	second := parallelBackend.RoIAlignBackward(gradOutput, rois, 1.0, 1.0, 3, 3, 2, 8, 8, 8, 2)
	sequential := sequentialBackend.RoIAlignBackward(gradOutput, rois, 1.0, 1.0, 3, 3, 2, 8, 8, 8, 2)

	firstData := first.AsFloat32()
	secondData := second.AsFloat32()
	sequentialData := sequential.AsFloat32()
	for i := range firstData {
		if firstData[i] != secondData[i] {
			t.Errorf("gradInput[%d]: repeated call differs: %v vs %v", i, firstData[i], secondData[i])
		}
		if firstData[i] != sequentialData[i] {
			t.Errorf("gradInput[%d]: parallel %v vs sequential %v", i, firstData[i], sequentialData[i])
		}
	}
}

// TestRoIAlignBackward_Float64 mirrors the mass-conservation check through
// the float64 kernel.
func TestRoIAlignBackward_Float64(t *testing.T) {
	backend := New()

	rois, err := tensor.FromSlice(tensor.Shape{1, 5}, []float64{0, 0, 0, 3, 3}, tensor.CPU)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}
	gradData := []float64{1, 1, 1, 1}
	gradOutput, err := tensor.FromSlice(tensor.Shape{1, 1, 2, 2}, gradData, tensor.CPU)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}

	gradInput := backend.RoIAlignBackward(gradOutput, rois, 1.0, 1.0, 2, 2, 1, 1, 4, 4, 2)

	var sum float64
	for _, v := range gradInput.AsFloat64() {
		sum += v
	}
	if math.Abs(sum-4.0) > 1e-12 {
		t.Errorf("total gradient mass = %v, want 4.0", sum)
	}
}

func TestRoIAlignBackward_InvalidShapesPanic(t *testing.T) {
	backend := New()
	rois := roisFromFloat32(t, [][5]float32{{0, 0, 0, 3, 3}})

	assertPanics := func(name string, f func()) {
		defer func() {
			if recover() == nil {
				t.Errorf("%s: expected panic", name)
			}
		}()
		f()
	}

	bad3d, _ := tensor.NewRaw(tensor.Shape{1, 2, 2}, tensor.Float32, tensor.CPU)
	assertPanics("3D gradOutput", func() {
		backend.RoIAlignBackward(bad3d, rois, 1, 1, 2, 2, 1, 1, 4, 4, 2)
	})

	mismatched, _ := tensor.NewRaw(tensor.Shape{1, 1, 3, 3}, tensor.Float32, tensor.CPU)
	assertPanics("pooled-size mismatch", func() {
		backend.RoIAlignBackward(mismatched, rois, 1, 1, 2, 2, 1, 1, 4, 4, 2)
	})

	wrongRegions, _ := tensor.NewRaw(tensor.Shape{2, 1, 2, 2}, tensor.Float32, tensor.CPU)
	assertPanics("region-count mismatch", func() {
		backend.RoIAlignBackward(wrongRegions, rois, 1, 1, 2, 2, 1, 1, 4, 4, 2)
	})
}

func BenchmarkRoIAlignBackward(b *testing.B) {
	gradData := make([]float32, 32*64*7*7)
	for i := range gradData {
		gradData[i] = float32(i%97) / 7
	}
	gradOutput, _ := tensor.FromSlice(tensor.Shape{32, 64, 7, 7}, gradData, tensor.CPU)

	roiRows := make([]float32, 0, 32*5)
	for i := 0; i < 32; i++ {
		f := float32(i)
		roiRows = append(roiRows, 0, f/2, f/3, f/2+20, f/3+15)
	}
	rois, _ := tensor.FromSlice(tensor.Shape{32, 5}, roiRows, tensor.CPU)

	b.Run("parallel", func(b *testing.B) {
		backend := New()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			backend.RoIAlignBackward(gradOutput, rois, 0.25, 0.25, 7, 7, 1, 64, 56, 56, 2)
		}
	})

	b.Run("sequential", func(b *testing.B) {
		backend := New()
		backend.SetParallel(parallel.Sequential())
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			backend.RoIAlignBackward(gradOutput, rois, 0.25, 0.25, 7, 7, 1, 64, 56, 56, 2)
		}
	})
}
