// Package roialign routes region-pooling calls to the engine matching the
// operand tensors' device placement.
//
// CPU-resident tensors run on the shared host engine. WebGPU-resident
// tensors run on the accelerator engine, lazily initialized on first use;
// builds without the accelerator return ErrNotCompiled instead.
package roialign

import (
	"fmt"

	"github.com/fovea-ml/fovea/internal/backend/cpu"
	"github.com/fovea-ml/fovea/internal/tensor"
)

// hostEngine serves every CPU-resident call. The engine is stateless apart
// from its worker-pool config, so one shared instance is enough.
var hostEngine = cpu.New()

// Forward pools each region of interest in input into a fixed pooledHeight x
// pooledWidth grid of bilinearly sampled averages.
//
// input is [batch, channels, height, width]; rois is [numRois, 5] with rows
// (batchIndex, x1, y1, x2, y2) in image coordinates, converted to feature
// space by (scaleH, scaleW). A non-positive samplingRatio selects an
// adaptive per-bin sample count. The result is [numRois, channels,
// pooledHeight, pooledWidth] on input's device.
//
// input and rois must share a device; dispatch follows input's tag.
func Forward(input, rois *tensor.RawTensor, scaleH, scaleW float64, pooledHeight, pooledWidth, samplingRatio int) (*tensor.RawTensor, error) {
	if input.Device() != rois.Device() {
		return nil, fmt.Errorf("roialign: input on %v but rois on %v", input.Device(), rois.Device())
	}
	engine, err := engineFor(input.Device())
	if err != nil {
		return nil, fmt.Errorf("roialign: %w", err)
	}
	return engine.RoIAlign(input, rois, scaleH, scaleW, pooledHeight, pooledWidth, samplingRatio), nil
}

// Backward scatters pooled-output gradients back onto the feature map,
// producing the gradient w.r.t. the forward input.
//
// gradOutput is [numRois, channels, pooledHeight, pooledWidth]; rois must be
// the forward call's rows. The feature-map extents are passed explicitly
// since backward never reads feature values. The result is [batchSize,
// channels, height, width] on gradOutput's device.
func Backward(gradOutput, rois *tensor.RawTensor, scaleH, scaleW float64, pooledHeight, pooledWidth, batchSize, channels, height, width, samplingRatio int) (*tensor.RawTensor, error) {
	if gradOutput.Device() != rois.Device() {
		return nil, fmt.Errorf("roialign: gradOutput on %v but rois on %v", gradOutput.Device(), rois.Device())
	}
	engine, err := engineFor(gradOutput.Device())
	if err != nil {
		return nil, fmt.Errorf("roialign: %w", err)
	}
	return engine.RoIAlignBackward(gradOutput, rois, scaleH, scaleW, pooledHeight, pooledWidth, batchSize, channels, height, width, samplingRatio), nil
}

// engineFor maps a device tag to its pooling engine.
func engineFor(device tensor.Device) (tensor.Backend, error) {
	switch device {
	case tensor.WebGPU:
		return accelEngine()
	default:
		return hostEngine, nil
	}
}
