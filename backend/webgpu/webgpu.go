//go:build windows

// Copyright 2025 Fovea ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the GPU accelerator engine for region pooling.
//
// The engine compiles WGSL compute shaders through wgpu-native: forward
// pooling runs one thread per output element, backward scattering one
// thread per incoming-gradient element with atomic accumulation. Only
// float32 tensors are supported on the accelerator.
//
// Example:
//
//	import (
//	    "github.com/fovea-ml/fovea/backend/webgpu"
//	)
//
//	func main() {
//	    gpu, err := webgpu.New()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer gpu.Release()
//
//	    pooled := gpu.RoIAlign(input, rois, 0.25, 0.25, 7, 7, 2)
//	}
package webgpu

import (
	internalwebgpu "github.com/fovea-ml/fovea/internal/backend/webgpu"
	"github.com/fovea-ml/fovea/tensor"
)

// Backend represents the WebGPU engine implementation for GPU-accelerated
// region pooling.
type Backend = internalwebgpu.Backend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new WebGPU engine.
//
// This function initializes the WebGPU device and returns an engine ready
// for pooling calls. Call Release() when done to free GPU resources.
//
// Returns an error if WebGPU initialization fails (e.g., no compatible GPU).
func New() (*Backend, error) {
	return internalwebgpu.New()
}

// IsAvailable checks if WebGPU is available on the current system.
//
// It attempts to initialize a WebGPU adapter to verify that a compatible
// GPU and drivers are present, which is useful for graceful fallback to
// CPU-resident tensors.
//
// Example:
//
//	if webgpu.IsAvailable() {
//	    input = input.To(tensor.WebGPU)
//	    rois = rois.To(tensor.WebGPU)
//	}
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
