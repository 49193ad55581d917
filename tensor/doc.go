// Copyright 2025 Fovea ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides dense tensors for the Fovea detection library.
//
// # Overview
//
// Tensors are the data carriers of region pooling. This package provides:
//   - RawTensor: dense row-major buffers with reference counting
//   - Device tags (CPU, WebGPU) that drive engine dispatch
//   - Float32 and Float64 element types
//
// # Basic Usage
//
//	import (
//	    "github.com/fovea-ml/fovea/roialign"
//	    "github.com/fovea-ml/fovea/tensor"
//	)
//
//	func main() {
//	    // A [batch, channels, height, width] feature map.
//	    input, _ := tensor.FromSlice(tensor.Shape{1, 3, 64, 64}, features, tensor.CPU)
//
//	    // Regions as (batchIndex, x1, y1, x2, y2) rows.
//	    rois, _ := tensor.FromSlice(tensor.Shape{8, 5}, regions, tensor.CPU)
//
//	    pooled, err := roialign.Forward(input, rois, 0.25, 0.25, 7, 7, 2)
//	    ...
//	}
//
// # Memory Model
//
// Buffers are reference counted. Clone() shares storage and bumps the
// count; Release() drops a reference and frees storage at zero. To()
// returns a view of the same storage tagged for another device; engines
// upload on use.
//
// # Thread Safety
//
// Reference counting is atomic. Concurrent reads of one tensor are safe;
// concurrent writes are the caller's responsibility.
package tensor
