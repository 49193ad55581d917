// Copyright 2025 Fovea ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure Go host engine for region pooling.
//
// # Overview
//
// This package implements the CPU engine with:
//   - Pure Go implementation (no CGO)
//   - Float32 and Float64 support
//   - A worker pool over independent (region, channel) tasks
//   - Deterministic results regardless of worker count
//
// # Basic Usage
//
//	import (
//	    "github.com/fovea-ml/fovea/backend/cpu"
//	    "github.com/fovea-ml/fovea/tensor"
//	)
//
//	func main() {
//	    engine := cpu.New()
//
//	    pooled := engine.RoIAlign(input, rois, 0.25, 0.25, 7, 7, 2)
//	    grads := engine.RoIAlignBackward(gradOutput, rois, 0.25, 0.25, 7, 7, 1, 256, 64, 64, 2)
//	}
//
// # Determinism
//
// Forward tasks write disjoint output planes; backward tasks are partitioned
// by channel so concurrent scatter-adds never share a cell. Both passes
// produce bitwise-identical results whether run sequentially or on the
// worker pool.
//
// For GPU acceleration, see the webgpu package.
package cpu
