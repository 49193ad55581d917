// Package cpu implements the host execution engine for region pooling.
package cpu

import (
	"github.com/fovea-ml/fovea/internal/parallel"
	"github.com/fovea-ml/fovea/internal/tensor"
)

// CPUBackend executes region-pooling operations on the host processor,
// optionally spreading independent tasks over a worker pool.
type CPUBackend struct {
	device tensor.Device
	pool   parallel.Config
}

// New creates a new CPU backend with default worker-pool settings.
func New() *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
		pool:   parallel.DefaultConfig(),
	}
}

// SetParallel overrides the worker-pool configuration.
// parallel.Sequential() forces single-goroutine execution.
func (cpu *CPUBackend) SetParallel(cfg parallel.Config) {
	cpu.pool = cfg
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}
