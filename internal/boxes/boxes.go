// Package boxes provides bounding-box format conversions, scaling, and
// intersection-over-union metrics for detection pipelines.
//
// Batches are flat float64 slices of length 4*N, one box per 4-element
// window. Single boxes are [4]float64 values.
package boxes

import "fmt"

// Format identifies the coordinate layout of a 4-element box.
type Format int

// Supported box formats.
const (
	// LTWH is (left, top, width, height).
	LTWH Format = iota
	// LTRB is (left, top, right, bottom).
	LTRB
	// XYWH is (center x, center y, width, height).
	XYWH
)

// String returns a human-readable format name.
func (f Format) String() string {
	switch f {
	case LTWH:
		return "LTWH"
	case LTRB:
		return "LTRB"
	case XYWH:
		return "XYWH"
	default:
		return "Unknown"
	}
}

func (f Format) validate() {
	if f != LTWH && f != LTRB && f != XYWH {
		panic(fmt.Sprintf("boxes: unknown format %d", int(f)))
	}
}

func validateBatch(boxes []float64) {
	if len(boxes)%4 != 0 {
		panic(fmt.Sprintf("boxes: batch length %d is not a multiple of 4", len(boxes)))
	}
}

// TransformBox converts a single box between coordinate formats.
func TransformBox(box [4]float64, from, to Format) [4]float64 {
	from.validate()
	to.validate()
	if from == to {
		return box
	}

	// Normalize through LTRB: every pairwise conversion is two cheap steps.
	ltrb := box
	switch from {
	case LTWH:
		ltrb = [4]float64{box[0], box[1], box[0] + box[2], box[1] + box[3]}
	case XYWH:
		hw := box[2] / 2
		hh := box[3] / 2
		ltrb = [4]float64{box[0] - hw, box[1] - hh, box[0] + hw, box[1] + hh}
	}

	switch to {
	case LTWH:
		return [4]float64{ltrb[0], ltrb[1], ltrb[2] - ltrb[0], ltrb[3] - ltrb[1]}
	case XYWH:
		return [4]float64{(ltrb[0] + ltrb[2]) / 2, (ltrb[1] + ltrb[3]) / 2, ltrb[2] - ltrb[0], ltrb[3] - ltrb[1]}
	default:
		return ltrb
	}
}

// Transform converts a batch of boxes between coordinate formats.
// The result is a new slice, except that from == to returns the input
// unchanged.
func Transform(boxes []float64, from, to Format) []float64 {
	from.validate()
	to.validate()
	validateBatch(boxes)
	if from == to {
		return boxes
	}

	out := make([]float64, len(boxes))
	for o := 0; o < len(boxes); o += 4 {
		box := TransformBox([4]float64{boxes[o], boxes[o+1], boxes[o+2], boxes[o+3]}, from, to)
		copy(out[o:o+4], box[:])
	}
	return out
}

// Scale multiplies a batch of boxes by per-axis factors, returning a new
// slice. In all three formats the columns alternate x-axis and y-axis
// quantities (positions and extents scale the same way), so columns 0 and 2
// take factorX, columns 1 and 3 take factorY.
func Scale(boxes []float64, factorX, factorY float64, format Format) []float64 {
	format.validate()
	validateBatch(boxes)

	out := make([]float64, len(boxes))
	for o := 0; o < len(boxes); o += 4 {
		out[o] = boxes[o] * factorX
		out[o+1] = boxes[o+1] * factorY
		out[o+2] = boxes[o+2] * factorX
		out[o+3] = boxes[o+3] * factorY
	}
	return out
}
