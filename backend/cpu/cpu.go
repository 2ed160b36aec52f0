// Copyright 2025 Cinder ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu exposes the CPU compute backend of the Cinder ML framework.
package cpu

import (
	internalcpu "github.com/cinder-ml/cinder/internal/backend/cpu"
)

// Backend represents the CPU backend implementation.
//
// The CPU backend executes eagerly and supports batched (foreach) dispatch
// across heterogeneous buffer lists.
type Backend = internalcpu.CPUBackend

// New creates a new CPU backend.
//
// Example:
//
//	backend := cpu.New()
//	t := tensor.Zeros[float32](tensor.Shape{3, 4}, backend)
func New() *Backend {
	return internalcpu.New()
}
