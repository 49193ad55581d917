// Copyright 2025 Fovea ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/fovea-ml/fovea/internal/backend/cpu"
	"github.com/fovea-ml/fovea/tensor"
)

// Backend represents the CPU engine implementation.
//
// The CPU engine runs region pooling in pure Go, spreading independent
// (region, channel) tasks over a worker pool.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new CPU engine with default worker-pool settings.
//
// Example:
//
//	import (
//	    "github.com/fovea-ml/fovea/backend/cpu"
//	    "github.com/fovea-ml/fovea/tensor"
//	)
//
//	func main() {
//	    engine := cpu.New()
//	    pooled := engine.RoIAlign(input, rois, 0.25, 0.25, 7, 7, 2)
//	}
func New() *Backend {
	return internalcpu.New()
}
