// Package optim implements optimization algorithms for training neural networks.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - RMSprop: adaptive learning rate with optional momentum and centering
//   - SGD: Stochastic Gradient Descent with momentum
//
// Design inspired by PyTorch's torch.optim but adapted for Go with type safety.
//
// Example usage:
//
//	optimizer, err := optim.NewRMSprop(model.Parameters(), optim.DefaultOptions(), backend)
//	if err != nil {
//	    return err
//	}
//
//	for epoch := range epochs {
//	    optimizer.ZeroGrad()
//	    computeGradients(model, data)
//	    if _, err := optimizer.Step(nil); err != nil {
//	        return err
//	    }
//	}
package optim

// Closure recomputes the model and returns the current loss value.
// A closure passed to Step is invoked exactly once, before any parameter is
// mutated, with gradient recording enabled for its duration only.
type Closure func() (float32, error)

// Optimizer is the base interface for all optimization algorithms.
//
// Optimizers update model parameters based on computed gradients to
// minimize the loss function during training.
type Optimizer interface {
	// Step performs a single optimization step, mutating parameters and
	// accumulator state in place. The optional closure is evaluated first and
	// its loss returned; with a nil closure the returned loss is zero.
	Step(closure Closure) (float32, error)

	// ZeroGrad clears all parameter gradients.
	//
	// This should be called before each backward pass to prevent
	// gradient accumulation from previous iterations.
	ZeroGrad()

	// GetLR returns the current learning rate.
	//
	// Useful for monitoring and learning rate scheduling.
	GetLR() float32
}
