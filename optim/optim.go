// Copyright 2025 Cinder ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"io"

	"github.com/cinder-ml/cinder/internal/nn"
	"github.com/cinder-ml/cinder/internal/optim"
	"github.com/cinder-ml/cinder/internal/tensor"
)

// Optimizer interface defines the common interface for all optimizers.
type Optimizer = optim.Optimizer

// Closure recomputes the model and returns the current loss value.
type Closure = optim.Closure

// Engine selects the execution strategy used to apply a group's updates.
type Engine = optim.Engine

// Available engines.
const (
	EngineAuto    = optim.EngineAuto
	EngineScalar  = optim.EngineScalar
	EngineForeach = optim.EngineForeach
)

// Common errors.
var (
	ErrInvalidArgument      = optim.ErrInvalidArgument
	ErrUnsupportedOperation = optim.ErrUnsupportedOperation
	ErrIncompatibleMode     = optim.ErrIncompatibleMode
)

// RMSprop

// RMSprop represents the RMSprop optimizer.
type RMSprop[B tensor.Backend] = optim.RMSprop[B]

// Options holds the hyperparameters of one RMSprop parameter group.
type Options = optim.Options

// Group pairs an ordered parameter list with one hyperparameter set.
type Group[B tensor.Backend] = optim.Group[B]

// DefaultOptions returns the conventional RMSprop hyperparameters.
func DefaultOptions() Options {
	return optim.DefaultOptions()
}

// NewRMSprop creates an RMSprop optimizer with a single parameter group.
//
// Example:
//
//	backend := cpu.New()
//	optimizer, err := optim.NewRMSprop(
//	    model.Parameters(),
//	    optim.Options{LR: 0.01, Alpha: 0.99, Eps: 1e-8, Momentum: 0.9},
//	    backend,
//	)
func NewRMSprop[B tensor.Backend](params []*nn.Parameter[B], opts Options, backend B) (*RMSprop[B], error) {
	return optim.NewRMSprop(params, opts, backend)
}

// LoadOptions reads per-group hyperparameter sets from YAML.
func LoadOptions(r io.Reader) ([]Options, error) {
	return optim.LoadOptions(r)
}

// SGD (Stochastic Gradient Descent)

// SGD represents the SGD optimizer with optional momentum.
type SGD[B tensor.Backend] = optim.SGD[B]

// SGDOptions contains configuration for the SGD optimizer.
type SGDOptions = optim.SGDOptions

// NewSGD creates a new SGD optimizer.
//
// Example:
//
//	optimizer, err := optim.NewSGD(
//	    model.Parameters(),
//	    optim.SGDOptions{LR: 0.01, Momentum: 0.9},
//	    backend,
//	)
func NewSGD[B tensor.Backend](params []*nn.Parameter[B], opts SGDOptions, backend B) (*SGD[B], error) {
	return optim.NewSGD(params, opts, backend)
}
