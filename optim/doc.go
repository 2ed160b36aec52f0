// Copyright 2025 Cinder ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimization algorithms for training neural networks.
//
// # Overview
//
// This package contains:
//   - RMSprop: adaptive learning rate with optional momentum and centering
//   - SGD: Stochastic Gradient Descent with momentum
//   - Optimizer interface for custom optimizers
//
// # Basic Usage
//
//	import (
//	    "github.com/cinder-ml/cinder/backend/cpu"
//	    "github.com/cinder-ml/cinder/optim"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    optimizer, err := optim.NewRMSprop(params, optim.DefaultOptions(), backend)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    for epoch := range epochs {
//	        optimizer.ZeroGrad()
//	        computeGradients(model, batch)
//	        if _, err := optimizer.Step(nil); err != nil {
//	            log.Fatal(err)
//	        }
//	    }
//	}
//
// # RMSprop
//
// RMSprop divides the gradient by a running root-mean-square of recent
// gradients. Options control the smoothing constant (Alpha), the stability
// term (Eps), weight decay, momentum and the centered variant:
//
//	optimizer, err := optim.NewRMSprop(params, optim.Options{
//	    LR:       0.01,
//	    Alpha:    0.99,
//	    Eps:      1e-8,
//	    Momentum: 0.9,
//	    Centered: true,
//	}, backend)
//
// Each step can run in one of two execution strategies: the scalar engine
// updates one parameter at a time, the foreach engine applies every formula
// step across the whole batch of same-group parameters at once. Both produce
// identical results; foreach is opt-in via Options.Engine.
//
// # Parameter Groups
//
// Parameters can be split into groups with independent hyperparameters:
//
//	optimizer, _ := optim.NewRMSprop(bodyParams, optim.DefaultOptions(), backend)
//	err := optimizer.AddGroup(optim.Group[*cpu.Backend]{
//	    Params:  headParams,
//	    Options: optim.Options{LR: 0.001, Alpha: 0.99, Eps: 1e-8},
//	})
//
// Group hyperparameters can also be loaded from YAML with LoadOptions.
//
// # Step Closures
//
// Step optionally takes a closure that re-evaluates the model and returns the
// loss. The closure runs exactly once, before any parameter is mutated, with
// gradient recording enabled for its duration:
//
//	loss, err := optimizer.Step(func() (float32, error) {
//	    return model.Forward(batch)
//	})
//
// # Checkpointing
//
// StateDict and LoadStateDict expose the per-parameter accumulators for
// persistence; the serialization package stores them in .cndr files.
package optim
