// Copyright 2025 Fovea ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package roialign provides differentiable region-of-interest pooling.
//
// Forward pools each region of a feature map into a fixed-size grid of
// bilinearly sampled averages; Backward scatters pooled-output gradients
// back onto the feature map. Both dispatch by the operands' device tag:
// CPU-resident tensors run on the host engine, WebGPU-resident tensors on
// the GPU engine (Windows builds; other builds return ErrNotCompiled).
//
// Example:
//
//	input, _ := tensor.FromSlice(tensor.Shape{1, 256, 64, 64}, features, tensor.CPU)
//	rois, _ := tensor.FromSlice(tensor.Shape{128, 5}, regions, tensor.CPU)
//
//	pooled, err := roialign.Forward(input, rois, 0.25, 0.25, 7, 7, 2)
package roialign

import (
	"github.com/fovea-ml/fovea/internal/roialign"
	"github.com/fovea-ml/fovea/tensor"
)

// ErrNotCompiled reports that a tensor was routed to the accelerator but the
// running binary was built without the WebGPU engine. Test for it with
// errors.Is.
var ErrNotCompiled = roialign.ErrNotCompiled

// Forward pools each region of interest in input into a fixed pooledHeight x
// pooledWidth grid of bilinearly sampled averages.
//
// input is [batch, channels, height, width]; rois is [numRois, 5] with rows
// (batchIndex, x1, y1, x2, y2) in image coordinates, converted to feature
// space by (scaleH, scaleW). A non-positive samplingRatio selects an
// adaptive per-bin sample count of ceil(binSize) per axis. The result is
// [numRois, channels, pooledHeight, pooledWidth] on input's device.
func Forward(input, rois *tensor.RawTensor, scaleH, scaleW float64, pooledHeight, pooledWidth, samplingRatio int) (*tensor.RawTensor, error) {
	return roialign.Forward(input, rois, scaleH, scaleW, pooledHeight, pooledWidth, samplingRatio)
}

// Backward scatters pooled-output gradients back onto the feature map,
// producing the gradient w.r.t. the forward input.
//
// gradOutput is [numRois, channels, pooledHeight, pooledWidth]; rois must be
// the forward call's rows, and the remaining arguments must repeat the
// forward call's geometry plus the feature-map extents. The result is
// [batchSize, channels, height, width] on gradOutput's device.
func Backward(gradOutput, rois *tensor.RawTensor, scaleH, scaleW float64, pooledHeight, pooledWidth, batchSize, channels, height, width, samplingRatio int) (*tensor.RawTensor, error) {
	return roialign.Backward(gradOutput, rois, scaleH, scaleW, pooledHeight, pooledWidth, batchSize, channels, height, width, samplingRatio)
}
