package optim

import (
	"fmt"

	"github.com/cinder-ml/cinder/internal/autodiff"
	"github.com/cinder-ml/cinder/internal/nn"
	"github.com/cinder-ml/cinder/internal/tensor"
)

// SGD implements Stochastic Gradient Descent with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
//
// Momentum helps accelerate SGD in relevant directions and dampens oscillations.
type SGD[B tensor.Backend] struct {
	params     []*nn.Parameter[B]
	opts       SGDOptions
	velocities map[*nn.Parameter[B]]*tensor.RawTensor
	backend    B
	tape       *autodiff.GradientTape
}

// SGDOptions holds configuration for the SGD optimizer.
// Values are taken literally; zero momentum disables the velocity buffer.
type SGDOptions struct {
	LR          float32 `yaml:"lr"`           // Learning rate
	Momentum    float32 `yaml:"momentum"`     // Momentum factor
	WeightDecay float32 `yaml:"weight_decay"` // L2 penalty added to the gradient
}

// validate rejects hyperparameters outside their legal range.
func (o SGDOptions) validate() error {
	switch {
	case o.LR < 0:
		return fmt.Errorf("%w: learning rate %g", ErrInvalidArgument, o.LR)
	case o.Momentum < 0:
		return fmt.Errorf("%w: momentum %g", ErrInvalidArgument, o.Momentum)
	case o.WeightDecay < 0:
		return fmt.Errorf("%w: weight decay %g", ErrInvalidArgument, o.WeightDecay)
	}
	return nil
}

// NewSGD creates a new SGD optimizer.
func NewSGD[B tensor.Backend](params []*nn.Parameter[B], opts SGDOptions, backend B) (*SGD[B], error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &SGD[B]{
		params:     params,
		opts:       opts,
		velocities: make(map[*nn.Parameter[B]]*tensor.RawTensor),
		backend:    backend,
	}, nil
}

// SetTape attaches the gradient tape toggled around step closures.
func (s *SGD[B]) SetTape(t *autodiff.GradientTape) {
	s.tape = t
}

// Step performs a single optimization step.
//
// Parameters with no gradient are skipped; sparse gradients abort the call
// with ErrUnsupportedOperation.
func (s *SGD[B]) Step(closure Closure) (float32, error) {
	var loss float32
	if closure != nil {
		var err error
		if loss, err = s.evalClosure(closure); err != nil {
			return 0, err
		}
	}

	for _, p := range s.params {
		grad := p.Grad()
		if grad == nil {
			continue
		}
		if grad.IsSparse() {
			return loss, fmt.Errorf("%w: SGD does not support sparse gradients (parameter %q)",
				ErrUnsupportedOperation, p.Name())
		}

		var velocity *tensor.RawTensor
		if s.opts.Momentum > 0 {
			var exists bool
			if velocity, exists = s.velocities[p]; !exists {
				velocity = tensor.ZerosLike(p.Tensor().Raw())
				s.velocities[p] = velocity
			}
		}
		sgdStep(p.Tensor().Raw(), grad, velocity, s.opts)
	}
	return loss, nil
}

func (s *SGD[B]) evalClosure(closure Closure) (float32, error) {
	if s.tape != nil {
		defer s.tape.EnableGrad()()
	}
	return closure()
}

// sgdStep applies the update to one parameter with a fused per-element loop.
func sgdStep(param, grad, velocity *tensor.RawTensor, opts SGDOptions) {
	switch param.DType() {
	case tensor.Float32:
		p := param.AsFloat32()
		g := grad.AsFloat32()
		var v []float32
		if velocity != nil {
			v = velocity.AsFloat32()
		}
		for i := range p {
			gi := g[i]
			if opts.WeightDecay != 0 {
				gi += opts.WeightDecay * p[i]
			}
			if v != nil {
				v[i] = opts.Momentum*v[i] + gi
				p[i] -= opts.LR * v[i]
			} else {
				p[i] -= opts.LR * gi
			}
		}
	case tensor.Float64:
		p := param.AsFloat64()
		g := grad.AsFloat64()
		var v []float64
		if velocity != nil {
			v = velocity.AsFloat64()
		}
		lr := float64(opts.LR)
		momentum := float64(opts.Momentum)
		weightDecay := float64(opts.WeightDecay)
		for i := range p {
			gi := g[i]
			if opts.WeightDecay != 0 {
				gi += weightDecay * p[i]
			}
			if v != nil {
				v[i] = momentum*v[i] + gi
				p[i] -= lr * v[i]
			} else {
				p[i] -= lr * gi
			}
		}
	default:
		panic(fmt.Sprintf("sgd: unsupported dtype %s", param.DType()))
	}
}

// ZeroGrad clears gradients for all parameters.
func (s *SGD[B]) ZeroGrad() {
	for _, p := range s.params {
		p.ZeroGrad()
	}
}

// GetLR returns the current learning rate.
func (s *SGD[B]) GetLR() float32 {
	return s.opts.LR
}

// SetLR updates the learning rate.
//
// Useful for learning rate scheduling during training.
func (s *SGD[B]) SetLR(lr float32) {
	s.opts.LR = lr
}

// StateDict returns the optimizer state for serialization.
//
// For SGD with momentum this exports velocity buffers keyed "velocity.{i}".
// Without momentum, returns an empty map.
func (s *SGD[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	if s.opts.Momentum == 0 {
		return stateDict
	}

	for i, p := range s.params {
		velocity, exists := s.velocities[p]
		if !exists {
			continue // No velocity yet (hasn't been used in training)
		}
		stateDict[fmt.Sprintf("velocity.%d", i)] = velocity
	}
	return stateDict
}

// LoadStateDict loads optimizer state from serialization.
//
// Restores velocity buffers for SGD with momentum. If momentum is 0,
// ignores the provided state (no velocities needed).
//
// Returns an error if velocity shapes don't match parameter shapes.
func (s *SGD[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if s.opts.Momentum == 0 {
		return nil
	}

	velocities := make(map[*nn.Parameter[B]]*tensor.RawTensor)
	for i, p := range s.params {
		velocity, exists := stateDict[fmt.Sprintf("velocity.%d", i)]
		if !exists {
			continue // Will be initialized on first step
		}
		if !velocity.Shape().Equal(p.Tensor().Shape()) {
			return fmt.Errorf("velocity shape mismatch for parameter %d: expected %v, got %v",
				i, p.Tensor().Shape(), velocity.Shape())
		}
		velocities[p] = velocity
	}

	s.velocities = velocities
	return nil
}

// Verify interface conformance.
var (
	_ Optimizer = (*RMSprop[*tensor.MockBackend])(nil)
	_ Optimizer = (*SGD[*tensor.MockBackend])(nil)
)
