//go:build windows

package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/fovea-ml/fovea/internal/tensor"
	"github.com/go-webgpu/webgpu/wgpu"
)

// RoIAlign pools each region of interest into a fixed pooledHeight x
// pooledWidth grid of bilinearly sampled averages, on the GPU.
//
// Shapes and sampling rules match the CPU engine: input [N,C,H,W], rois
// [R,5] with rows (batchIndex, x1, y1, x2, y2), output [R,C,PH,PW]. The
// accelerator supports float32 only.
func (b *Backend) RoIAlign(input, rois *tensor.RawTensor, scaleH, scaleW float64, pooledHeight, pooledWidth, samplingRatio int) *tensor.RawTensor {
	result, err := b.runRoIAlign(input, rois, scaleH, scaleW, pooledHeight, pooledWidth, samplingRatio)
	if err != nil {
		panic("webgpu: RoIAlign: " + err.Error())
	}
	return result
}

// runRoIAlign executes the region-pooling forward pass on GPU.
// One shader thread computes one output element.
func (b *Backend) runRoIAlign(input, rois *tensor.RawTensor, scaleH, scaleW float64, pooledHeight, pooledWidth, samplingRatio int) (*tensor.RawTensor, error) {
	// Validate inputs
	if input.DType() != tensor.Float32 {
		return nil, fmt.Errorf("webgpu: only float32 is supported, got %s", input.DType())
	}
	if rois.DType() != tensor.Float32 {
		return nil, fmt.Errorf("webgpu: only float32 is supported, got rois %s", rois.DType())
	}
	inputShape := input.Shape()
	if len(inputShape) != 4 {
		return nil, fmt.Errorf("webgpu: expected 4D input [N,C,H,W], got %v", inputShape)
	}
	roisShape := rois.Shape()
	if len(roisShape) != 2 || roisShape[1] != 5 {
		return nil, fmt.Errorf("webgpu: expected rois [R,5], got %v", roisShape)
	}
	if pooledHeight <= 0 || pooledWidth <= 0 {
		return nil, fmt.Errorf("webgpu: invalid pooled size %dx%d", pooledHeight, pooledWidth)
	}

	C := inputShape[1]
	H := inputShape[2]
	W := inputShape[3]
	R := roisShape[0]
	total := R * C * pooledHeight * pooledWidth

	// Compile shader
	shader := b.compileShader("roialign", roiAlignShader)

	// Get or create pipeline
	pipeline := b.getOrCreatePipeline("roialign", shader)

	// Create GPU buffers
	bufferInput := b.createBuffer(input.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferInput.Release()

	bufferRois := b.createBuffer(rois.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferRois.Release()

	//nolint:gosec // G115: Safe conversion, element counts are non-negative
	resultSize := uint64(total * 4) // float32 = 4 bytes
	bufferResult := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		Size:  resultSize,
	})
	defer bufferResult.Release()

	// Create uniform buffer for params (10 fields, padded to 48 bytes)
	params := make([]byte, 48)
	//nolint:gosec // G115: Safe conversions, shape dimensions are non-negative
	binary.LittleEndian.PutUint32(params[0:4], uint32(C))
	//nolint:gosec // G115: Safe conversions, shape dimensions are non-negative
	binary.LittleEndian.PutUint32(params[4:8], uint32(H))
	//nolint:gosec // G115: Safe conversions, shape dimensions are non-negative
	binary.LittleEndian.PutUint32(params[8:12], uint32(W))
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
	//nolint:gosec // G115: Safe conversions, ByteSize() returns non-negative int
	bindGroup := b.device.CreateBindGroupSimple(bindGroupLayout, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufferInput, 0, uint64(input.ByteSize())),
		wgpu.BufferBindingEntry(1, bufferRois, 0, uint64(rois.ByteSize())),
		wgpu.BufferBindingEntry(2, bufferResult, 0, resultSize),
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
	resultData, err := b.readBuffer(bufferResult, resultSize)
	if err != nil {
		return nil, err
	}

	// Create result tensor
	result, err := tensor.NewRaw(tensor.Shape{R, C, pooledHeight, pooledWidth}, tensor.Float32, tensor.WebGPU)
	if err != nil {
		return nil, err
	}

	copy(result.Data(), resultData)
	return result, nil
}
