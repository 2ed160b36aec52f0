// Copyright 2025 Cinder ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff exposes the gradient-recording tape of the Cinder ML framework.
package autodiff

import (
	"github.com/cinder-ml/cinder/internal/autodiff"
)

// GradientTape carries the ambient "record gradients" flag consulted during
// forward passes. Optimizers flip it on around a loss closure and restore the
// previous value on every exit path.
type GradientTape = autodiff.GradientTape

// NewGradientTape creates a new gradient tape with recording disabled.
func NewGradientTape() *GradientTape {
	return autodiff.NewGradientTape()
}
