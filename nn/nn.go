// Copyright 2025 Cinder ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn exposes the trainable-parameter type of the Cinder ML framework.
package nn

import (
	"github.com/cinder-ml/cinder/internal/nn"
	"github.com/cinder-ml/cinder/internal/tensor"
)

// Parameter represents a trainable parameter in a neural network.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a new trainable parameter.
//
// Example:
//
//	weight := nn.NewParameter("linear1.weight", weightTensor)
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}
