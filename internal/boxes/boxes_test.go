package boxes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformBox(t *testing.T) {
	ltwh := [4]float64{10, 20, 4, 6}

	assert.Equal(t, [4]float64{10, 20, 14, 26}, TransformBox(ltwh, LTWH, LTRB))
	assert.Equal(t, [4]float64{12, 23, 4, 6}, TransformBox(ltwh, LTWH, XYWH))
	assert.Equal(t, [4]float64{10, 20, 4, 6}, TransformBox([4]float64{10, 20, 14, 26}, LTRB, LTWH))
	assert.Equal(t, [4]float64{12, 23, 4, 6}, TransformBox([4]float64{10, 20, 14, 26}, LTRB, XYWH))
	assert.Equal(t, [4]float64{10, 20, 14, 26}, TransformBox([4]float64{12, 23, 4, 6}, XYWH, LTRB))
	assert.Equal(t, [4]float64{10, 20, 4, 6}, TransformBox([4]float64{12, 23, 4, 6}, XYWH, LTWH))
}

func TestTransformBox_RoundTrips(t *testing.T) {
	box := [4]float64{-3.5, 2.25, 7, 1.5}
	formats := []Format{LTWH, LTRB, XYWH}
	for _, from := range formats {
		for _, to := range formats {
			back := TransformBox(TransformBox(box, from, to), to, from)
			for k := 0; k < 4; k++ {
				assert.InDelta(t, box[k], back[k], 1e-12, "round trip %v -> %v", from, to)
			}
		}
	}
}

func TestTransform_Batch(t *testing.T) {
	batch := []float64{
		0, 0, 2, 2,
		10, 20, 4, 6,
	}
	got := Transform(batch, LTWH, LTRB)
	assert.Equal(t, []float64{0, 0, 2, 2, 10, 20, 14, 26}, got)

	// The input batch stays untouched.
	assert.Equal(t, []float64{0, 0, 2, 2, 10, 20, 4, 6}, batch)
}

func TestTransform_SameFormatReturnsInput(t *testing.T) {
	batch := []float64{1, 2, 3, 4}
	got := Transform(batch, LTRB, LTRB)
	require.Len(t, got, 4)
	assert.Same(t, &batch[0], &got[0])
}

func TestTransform_BadBatchPanics(t *testing.T) {
	assert.Panics(t, func() { Transform([]float64{1, 2, 3}, LTWH, LTRB) })
	assert.Panics(t, func() { Transform([]float64{1, 2, 3, 4}, Format(9), LTRB) })
}

func TestScale(t *testing.T) {
	batch := []float64{10, 20, 4, 6}

	assert.Equal(t, []float64{5, 10, 2, 3}, Scale(batch, 0.5, 0.5, LTWH))
	assert.Equal(t, []float64{20, 10, 8, 3}, Scale(batch, 2, 0.5, LTRB))
	assert.Equal(t, []float64{10, 20, 4, 6}, batch)
}

func TestScale_MatchesTransformedScale(t *testing.T) {
	// Scaling commutes with format conversion.
	batch := []float64{3, 4, 10, 8}
	direct := Scale(batch, 1.5, 0.25, LTRB)
	viaLtwh := Transform(Scale(Transform(batch, LTRB, LTWH), 1.5, 0.25, LTWH), LTWH, LTRB)
	for i := range direct {
		assert.InDelta(t, direct[i], viaLtwh[i], 1e-12)
	}
}

func TestIoU(t *testing.T) {
	a := [4]float64{0, 0, 2, 2}

	assert.InDelta(t, 1.0, IoU(a, a), 1e-12)
	assert.InDelta(t, 0.0, IoU(a, [4]float64{3, 3, 5, 5}), 1e-12)
	// Touching edges do not overlap.
	assert.InDelta(t, 0.0, IoU(a, [4]float64{2, 0, 4, 2}), 1e-12)
	// Half overlap: inter 2, union 6.
	assert.InDelta(t, 1.0/3.0, IoU(a, [4]float64{1, 0, 3, 2}), 1e-12)
}

func TestIoU_DegenerateBoxes(t *testing.T) {
	point := [4]float64{1, 1, 1, 1}
	assert.Equal(t, 0.0, IoU(point, point))
	assert.Equal(t, 0.0, IoU(point, [4]float64{0, 0, 2, 2}))
	assert.False(t, IoU(point, point) != IoU(point, point), "IoU must not produce NaN")
}

func TestIoUOneToMany(t *testing.T) {
	a := [4]float64{0, 0, 2, 2}
	bs := []float64{
		0, 0, 2, 2,
		1, 0, 3, 2,
		5, 5, 6, 6,
	}
	got := IoUOneToMany(a, bs)
	require.Len(t, got, 3)
	assert.InDelta(t, 1.0, got[0], 1e-12)
	assert.InDelta(t, 1.0/3.0, got[1], 1e-12)
	assert.InDelta(t, 0.0, got[2], 1e-12)
}

func TestIoUPairwise(t *testing.T) {
	as := []float64{
		0, 0, 2, 2,
		4, 4, 6, 6,
	}
	bs := []float64{
		0, 0, 2, 2,
		4, 4, 6, 6,
		0, 0, 6, 6,
	}
	got := IoUPairwise(as, bs)
	require.Len(t, got, 2)

	for i, row := range got {
		a := [4]float64{as[i*4], as[i*4+1], as[i*4+2], as[i*4+3]}
		expected := IoUOneToMany(a, bs)
		assert.Equal(t, expected, row)
	}
	assert.InDelta(t, 1.0, got[0][0], 1e-12)
	assert.InDelta(t, 0.0, got[0][1], 1e-12)
	assert.InDelta(t, 4.0/36.0, got[1][2], 1e-12)
}
