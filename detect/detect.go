// Copyright 2025 Fovea ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package detect provides post-processing for detector outputs: non-maximum
// suppression, soft-NMS rescoring, and average-precision metrics.
//
// Suppression takes LTRB boxes as flat float64 slices of length 4*N with a
// parallel score slice. Metrics consume Detection and GroundTruth records
// grouped by image and class.
package detect

import (
	"github.com/fovea-ml/fovea/internal/detect"
)

// Detection is one scored prediction attributed to an image and a class.
// Box is LTRB in continuous coordinates.
type Detection = detect.Detection

// GroundTruth is one annotated object.
type GroundTruth = detect.GroundTruth

// SoftMethod selects the score-decay rule for SoftNMS.
type SoftMethod = detect.SoftMethod

// Soft-NMS decay rules.
const (
	// SoftLinear multiplies overlapping scores by (1 - iou) once the
	// overlap reaches the threshold.
	SoftLinear SoftMethod = detect.SoftLinear
	// SoftGaussian multiplies every score by exp(-iou^2 / sigma).
	SoftGaussian SoftMethod = detect.SoftGaussian
)

// NMS performs greedy non-maximum suppression: walk boxes in descending
// score order, keep each box not yet suppressed, and suppress every
// lower-scored box overlapping it by more than iouThreshold. Overlap uses
// the inclusive pixel convention.
//
// Returns the kept indices into boxes/scores, highest score first.
func NMS(boxes, scores []float64, iouThreshold float64) []int {
	return detect.NMS(boxes, scores, iouThreshold)
}

// SoftNMS rescores boxes instead of dropping them outright; boxes whose
// decayed score falls below scoreFloor leave the candidate set. sigma is
// only used by SoftGaussian and must be positive.
//
// Returns the selected indices in selection order and their rescored
// values; the input scores are not modified.
func SoftNMS(boxes, scores []float64, iouThreshold, sigma, scoreFloor float64, method SoftMethod) ([]int, []float64) {
	return detect.SoftNMS(boxes, scores, iouThreshold, sigma, scoreFloor, method)
}

// MatchDetections flags each detection, in descending score order, as true
// positive or false positive against the ground truths of its image and
// class at the given IoU threshold.
func MatchDetections(dets []Detection, gts []GroundTruth, iouThreshold float64) []bool {
	return detect.MatchDetections(dets, gts, iouThreshold)
}

// AveragePrecision computes all-points interpolated average precision from
// per-detection true-positive flags in descending score order.
func AveragePrecision(matches []bool, numGroundTruth int) float64 {
	return detect.AveragePrecision(matches, numGroundTruth)
}

// MeanAveragePrecision averages per-class AP at the given IoU threshold.
// Classes are taken from the ground truths; a class without any detection
// contributes 0.
func MeanAveragePrecision(dets []Detection, gts []GroundTruth, iouThreshold float64) float64 {
	return detect.MeanAveragePrecision(dets, gts, iouThreshold)
}
