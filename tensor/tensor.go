// Copyright 2025 Fovea ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for the tensor core of the Fovea
// detection library.
//
// The package defines the types shared by every pooling engine:
//   - RawTensor: dense row-major buffer with shape, dtype, and device tag
//   - Backend: interface for device-specific region-pooling engines
//   - Shape, DataType, Device: core type definitions
//
// Example:
//
//	input, _ := tensor.FromSlice(tensor.Shape{1, 256, 64, 64}, features, tensor.CPU)
//	rois, _ := tensor.FromSlice(tensor.Shape{128, 5}, regions, tensor.CPU)
//	pooled, _ := roialign.Forward(input, rois, 0.25, 0.25, 7, 7, 2)
package tensor

import (
	"github.com/fovea-ml/fovea/internal/tensor"
)

// Type aliases for public API

// DType is a constraint for tensor element types.
// Supported types: float32, float64.
type DType = tensor.DType

// DataType represents the underlying data type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
)

// Device represents the device where tensor data resides.
type Device = tensor.Device

// Device constants.
const (
	CPU    Device = tensor.CPU
	WebGPU Device = tensor.WebGPU
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// NewRaw creates a RawTensor with the given shape, element type, and device.
// Memory is allocated zero-initialized.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}

// FromSlice creates a RawTensor with the given shape and copies data into
// it. The element type is inferred from T; len(data) must match the shape.
func FromSlice[T DType](shape Shape, data []T, device Device) (*RawTensor, error) {
	return tensor.FromSlice(shape, data, device)
}
