//go:build windows

package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/fovea-ml/fovea/internal/tensor"
	"github.com/go-webgpu/webgpu/wgpu"
)

// RoIAlignBackward computes the gradient w.r.t. the feature map for RoIAlign,
// on the GPU.
//
// Shapes match the CPU engine: gradOutput [R,C,PH,PW], rois [R,5], result
// [batchSize, channels, height, width]. The accelerator supports float32
// only.
//
// Unlike the CPU engine, which partitions scatter-adds by channel, the GPU
// runs one thread per incoming-gradient element and accumulates through
// compare-exchange loops, so gradients from overlapping regions sum in
// nondeterministic order.
func (b *Backend) RoIAlignBackward(gradOutput, rois *tensor.RawTensor, scaleH, scaleW float64, pooledHeight, pooledWidth, batchSize, channels, height, width, samplingRatio int) *tensor.RawTensor {
	result, err := b.runRoIAlignBackward(gradOutput, rois, scaleH, scaleW, pooledHeight, pooledWidth, batchSize, channels, height, width, samplingRatio)
	if err != nil {
		panic("webgpu: RoIAlignBackward: " + err.Error())
	}
	return result
}

// runRoIAlignBackward executes the region-pooling backward pass on GPU.
// One shader thread scatters one incoming-gradient element.
func (b *Backend) runRoIAlignBackward(gradOutput, rois *tensor.RawTensor, scaleH, scaleW float64, pooledHeight, pooledWidth, batchSize, channels, height, width, samplingRatio int) (*tensor.RawTensor, error) {
	// Validate inputs
	if gradOutput.DType() != tensor.Float32 {
		return nil, fmt.Errorf("webgpu: only float32 is supported, got %s", gradOutput.DType())
	}
	if rois.DType() != tensor.Float32 {
		return nil, fmt.Errorf("webgpu: only float32 is supported, got rois %s", rois.DType())
	}
	roisShape := rois.Shape()
	if len(roisShape) != 2 || roisShape[1] != 5 {
		return nil, fmt.Errorf("webgpu: expected rois [R,5], got %v", roisShape)
	}
	R := roisShape[0]
	expected := tensor.Shape{R, channels, pooledHeight, pooledWidth}
	if !gradOutput.Shape().Equal(expected) {
		return nil, fmt.Errorf("webgpu: gradOutput shape %v does not match %v", gradOutput.Shape(), expected)
	}
	if batchSize <= 0 || channels <= 0 || height <= 0 || width <= 0 {
		return nil, fmt.Errorf("webgpu: invalid feature-map size [%d,%d,%d,%d]", batchSize, channels, height, width)
	}

	total := R * channels * pooledHeight * pooledWidth

	// Compile shader
	shader := b.compileShader("roialign_backward", roiAlignBackwardShader)

	// Get or create pipeline
	pipeline := b.getOrCreatePipeline("roialign_backward", shader)

	// Create GPU buffers
	bufferGradOutput := b.createBuffer(gradOutput.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferGradOutput.Release()

	bufferRois := b.createBuffer(rois.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferRois.Release()

	// The gradient buffer starts zeroed; uploading a fresh zero slice gives
	// the scatter loop a clean accumulation base.
	gradSize := batchSize * channels * height * width * 4 // float32 = 4 bytes
	bufferGradInput := b.createBuffer(make([]byte, gradSize), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc|wgpu.BufferUsageCopyDst)
	defer bufferGradInput.Release()

	// Create uniform buffer for params (10 fields, padded to 48 bytes)
	params := make([]byte, 48)
	//nolint:gosec // G115: Safe conversions, shape dimensions are non-negative
	binary.LittleEndian.PutUint32(params[0:4], uint32(channels))
	//nolint:gosec // G115: Safe conversions, shape dimensions are non-negative
	binary.LittleEndian.PutUint32(params[4:8], uint32(height))
	//nolint:gosec // G115: Safe conversions, shape dimensions are non-negative
	binary.LittleEndian.PutUint32(params[8:12], uint32(width))
	//nolint:gosec // G115: Safe conversions, pooled sizes are positive
	binary.LittleEndian.PutUint32(params[12:16], uint32(pooledHeight))
	//nolint:gosec // G115: Safe conversions, pooled sizes are positive
	binary.LittleEndian.PutUint32(params[16:20], uint32(pooledWidth))
	//nolint:gosec // G115: Safe conversions, shape dimensions are non-negative
	binary.LittleEndian.PutUint32(params[20:24], uint32(R))
	// sampling_ratio is an i32 slot; non-positive values select adaptive counts.
	//nolint:gosec // G115: i32 bit pattern is intentional
	binary.LittleEndian.PutUint32(params[24:28], uint32(int32(samplingRatio)))
	//nolint:gosec // G115: Safe conversion, total is non-negative
	binary.LittleEndian.PutUint32(params[28:32], uint32(total))
	binary.LittleEndian.PutUint32(params[32:36], math.Float32bits(float32(scaleH)))
	binary.LittleEndian.PutUint32(params[36:40], math.Float32bits(float32(scaleW)))
	bufferParams := b.createUniformBuffer(params)
	defer bufferParams.Release()

	// Get bind group layout and create bind group
	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	//nolint:gosec // G115: Safe conversions, buffer sizes are non-negative
	bindGroup := b.device.CreateBindGroupSimple(bindGroupLayout, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufferGradOutput, 0, uint64(gradOutput.ByteSize())),
		wgpu.BufferBindingEntry(1, bufferRois, 0, uint64(rois.ByteSize())),
		wgpu.BufferBindingEntry(2, bufferGradInput, 0, uint64(gradSize)),
		wgpu.BufferBindingEntry(3, bufferParams, 0, 48),
	})
	defer bindGroup.Release()

	// Execute compute pass
	encoder := b.device.CreateCommandEncoder(nil)
	computePass := encoder.BeginComputePass(nil)

	computePass.SetPipeline(pipeline)
	computePass.SetBindGroup(0, bindGroup, nil)

	// Calculate workgroup count: ceil(total / workgroupSize)
	//nolint:gosec // G115: Safe conversion, workgroup count is non-negative
	workgroups := uint32((total + workgroupSize - 1) / workgroupSize)
	computePass.DispatchWorkgroups(workgroups, 1, 1)
	computePass.End()

	cmdBuffer := encoder.Finish(nil)
	b.queue.Submit(cmdBuffer)

	// Read result back from GPU
	//nolint:gosec // G115: Safe conversion, gradSize is non-negative
	resultData, err := b.readBuffer(bufferGradInput, uint64(gradSize))
	if err != nil {
		return nil, err
	}

	// Create result tensor
	result, err := tensor.NewRaw(tensor.Shape{batchSize, channels, height, width}, tensor.Float32, tensor.WebGPU)
	if err != nil {
		return nil, err
	}

	copy(result.Data(), resultData)
	return result, nil
}
