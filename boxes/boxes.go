// Copyright 2025 Fovea ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package boxes provides bounding-box format conversions, scaling, and
// intersection-over-union metrics.
//
// Batches are flat float64 slices of length 4*N, one box per 4-element
// window; single boxes are [4]float64 values. IoU operates on LTRB
// coordinates.
package boxes

import (
	"github.com/fovea-ml/fovea/internal/boxes"
)

// Format identifies the coordinate layout of a 4-element box.
type Format = boxes.Format

// Supported box formats.
const (
	// LTWH is (left, top, width, height).
	LTWH Format = boxes.LTWH
	// LTRB is (left, top, right, bottom).
	LTRB Format = boxes.LTRB
	// XYWH is (center x, center y, width, height).
	XYWH Format = boxes.XYWH
)

// TransformBox converts a single box between coordinate formats.
func TransformBox(box [4]float64, from, to Format) [4]float64 {
	return boxes.TransformBox(box, from, to)
}

// Transform converts a batch of boxes between coordinate formats.
// The result is a new slice, except that from == to returns the input
// unchanged.
func Transform(batch []float64, from, to Format) []float64 {
	return boxes.Transform(batch, from, to)
}

// Scale multiplies a batch of boxes by per-axis factors, returning a new
// slice.
func Scale(batch []float64, factorX, factorY float64, format Format) []float64 {
	return boxes.Scale(batch, factorX, factorY, format)
}

// Area returns the signed area of an LTRB box.
func Area(b [4]float64) float64 {
	return boxes.Area(b)
}

// IoU returns the intersection-over-union of two LTRB boxes.
// Boxes that do not overlap, or whose union is degenerate, yield 0.
func IoU(a, b [4]float64) float64 {
	return boxes.IoU(a, b)
}

// IoUOneToMany returns the IoU of one LTRB box against each box of a batch.
func IoUOneToMany(a [4]float64, bs []float64) []float64 {
	return boxes.IoUOneToMany(a, bs)
}

// IoUPairwise returns the N x M matrix of IoUs between two LTRB batches.
func IoUPairwise(as, bs []float64) [][]float64 {
	return boxes.IoUPairwise(as, bs)
}
