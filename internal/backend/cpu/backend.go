// Package cpu implements the CPU backend with chunk-parallel elementwise kernels.
package cpu

import (
	"github.com/cinder-ml/cinder/internal/parallel"
	"github.com/cinder-ml/cinder/internal/tensor"
)

// Verify that CPUBackend implements Backend.
var _ tensor.Backend = (*CPUBackend)(nil)

// CPUBackend implements tensor operations on CPU.
// Long buffers are split across worker goroutines; the split never changes
// per-element results, so callers may treat every kernel as atomic.
type CPUBackend struct {
	device   tensor.Device
	parallel parallel.Config
}

// New creates a new CPU backend.
func New() *CPUBackend {
	return &CPUBackend{
		device:   tensor.CPU,
		parallel: parallel.DefaultConfig(),
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// SupportsForeach reports that the CPU backend can batch elementwise kernels
// across heterogeneous buffer lists. The CPU backend executes eagerly and
// never captures an operation graph.
func (cpu *CPUBackend) SupportsForeach() bool {
	return true
}
