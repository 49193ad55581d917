package boxes

import "math"

// Area returns the signed area of an LTRB box.
func Area(b [4]float64) float64 {
	return (b[2] - b[0]) * (b[3] - b[1])
}

// IoU returns the intersection-over-union of two LTRB boxes.
// Boxes that do not overlap, or whose union is degenerate, yield 0.
func IoU(a, b [4]float64) float64 {
	xi1 := math.Max(a[0], b[0])
	yi1 := math.Max(a[1], b[1])
	xi2 := math.Min(a[2], b[2])
	yi2 := math.Min(a[3], b[3])

	xdiff := xi2 - xi1
	ydiff := yi2 - yi1
	if xdiff <= 0 || ydiff <= 0 {
		return 0
	}

	inter := xdiff * ydiff
	union := Area(a) + Area(b) - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// IoUOneToMany returns the IoU of one LTRB box against each box of a batch.
func IoUOneToMany(a [4]float64, bs []float64) []float64 {
	validateBatch(bs)
	out := make([]float64, len(bs)/4)
	for i := range out {
		o := i * 4
		out[i] = IoU(a, [4]float64{bs[o], bs[o+1], bs[o+2], bs[o+3]})
	}
	return out
}

// IoUPairwise returns the N x M matrix of IoUs between two LTRB batches,
// row i holding the IoUs of as box i against every bs box.
func IoUPairwise(as, bs []float64) [][]float64 {
	validateBatch(as)
	out := make([][]float64, len(as)/4)
	for i := range out {
		o := i * 4
		out[i] = IoUOneToMany([4]float64{as[o], as[o+1], as[o+2], as[o+3]}, bs)
	}
	return out
}
