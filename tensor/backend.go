// Copyright 2025 Fovea ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

// Backend defines the interface that all region-pooling engines implement.
// Engines handle the actual computation; the roialign package dispatches to
// one by device tag.
//
// Implementations:
//   - backend/cpu: pure Go with a worker pool
//   - backend/webgpu: GPU compute shaders via WebGPU (Windows builds)
//
// Example:
//
//	import (
//	    "github.com/fovea-ml/fovea/backend/cpu"
//	    "github.com/fovea-ml/fovea/tensor"
//	)
//
//	engine := cpu.New()
//	pooled := engine.RoIAlign(input, rois, 0.25, 0.25, 7, 7, 2)
type Backend interface {
	// RoIAlign pools each region of interest in input into a fixed
	// pooledHeight x pooledWidth grid of bilinearly sampled averages.
	// input is [N,C,H,W], rois is [R,5]; the result is [R,C,PH,PW].
	RoIAlign(input, rois *RawTensor, scaleH, scaleW float64, pooledHeight, pooledWidth, samplingRatio int) *RawTensor

	// RoIAlignBackward scatters pooled-output gradients back onto the
	// feature map. gradOutput is [R,C,PH,PW], rois the forward rows; the
	// result is [batchSize, channels, height, width].
	RoIAlignBackward(gradOutput, rois *RawTensor, scaleH, scaleW float64, pooledHeight, pooledWidth, batchSize, channels, height, width, samplingRatio int) *RawTensor

	// Name returns a human-readable engine name.
	Name() string

	// Device returns the device tag this engine serves.
	Device() Device
}
