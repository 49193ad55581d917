//go:build windows

package roialign

import (
	"fmt"
	"sync"

	"github.com/fovea-ml/fovea/internal/backend/webgpu"
	"github.com/fovea-ml/fovea/internal/tensor"
)

var (
	accelOnce sync.Once
	accel     *webgpu.Backend
	accelErr  error
)

// accelEngine initializes the WebGPU engine on first use and shares it
// across all later accelerator-resident calls. Initialization failure is
// sticky: a machine without a usable adapter fails every call the same way.
func accelEngine() (tensor.Backend, error) {
	accelOnce.Do(func() {
		accel, accelErr = webgpu.New()
	})
	if accelErr != nil {
		return nil, fmt.Errorf("webgpu unavailable: %w", accelErr)
	}
	return accel, nil
}
