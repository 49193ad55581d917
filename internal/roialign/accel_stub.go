//go:build !windows

package roialign

import "github.com/fovea-ml/fovea/internal/tensor"

// accelEngine reports the missing accelerator. Builds without the WebGPU
// engine cannot serve WebGPU-resident tensors.
func accelEngine() (tensor.Backend, error) {
	return nil, ErrNotCompiled
}
