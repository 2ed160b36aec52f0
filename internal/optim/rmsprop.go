package optim

import (
	"fmt"

	"github.com/cinder-ml/cinder/internal/autodiff"
	"github.com/cinder-ml/cinder/internal/nn"
	"github.com/cinder-ml/cinder/internal/tensor"
)

// Options holds the hyperparameters of one RMSprop parameter group.
//
// All values are taken literally: a zero learning rate means "do not move",
// not "use the default". Start from DefaultOptions for the usual settings.
type Options struct {
	LR          float32 `yaml:"lr"`           // Learning rate
	Alpha       float32 `yaml:"alpha"`        // Smoothing constant for the running averages
	Eps         float32 `yaml:"eps"`          // Term added to the denominator for numerical stability
	WeightDecay float32 `yaml:"weight_decay"` // L2 penalty added to the gradient
	Momentum    float32 `yaml:"momentum"`     // Momentum factor (0 disables the momentum buffer)
	Centered    bool    `yaml:"centered"`     // Normalize by a variance estimate instead of the raw second moment
	Engine      Engine  `yaml:"engine"`       // Update execution strategy
}

// DefaultOptions returns the conventional RMSprop hyperparameters.
func DefaultOptions() Options {
	return Options{
		LR:    1e-2,
		Alpha: 0.99,
		Eps:   1e-8,
	}
}

// validate rejects hyperparameters outside their legal range.
// Zero is a legal value for every numeric field.
func (o Options) validate() error {
	switch {
	case o.LR < 0:
		return fmt.Errorf("%w: learning rate %g", ErrInvalidArgument, o.LR)
	case o.Eps < 0:
		return fmt.Errorf("%w: epsilon %g", ErrInvalidArgument, o.Eps)
	case o.Momentum < 0:
		return fmt.Errorf("%w: momentum %g", ErrInvalidArgument, o.Momentum)
	case o.WeightDecay < 0:
		return fmt.Errorf("%w: weight decay %g", ErrInvalidArgument, o.WeightDecay)
	case o.Alpha < 0:
		return fmt.Errorf("%w: alpha %g", ErrInvalidArgument, o.Alpha)
	}
	return nil
}

// Group pairs an ordered parameter list with one hyperparameter set.
type Group[B tensor.Backend] struct {
	Params  []*nn.Parameter[B]
	Options Options
}

// rmspropState holds the per-parameter accumulators.
//
// Created lazily on the first step that processes the parameter; the buffers
// are then mutated in place on every later step and never reallocated.
type rmspropState struct {
	step        int64             // Number of updates applied to this parameter
	squareAvg   *tensor.RawTensor // Running average of the squared gradient
	gradAvg     *tensor.RawTensor // Running average of the gradient (centered groups only)
	momentumBuf *tensor.RawTensor // Momentum buffer (momentum > 0 only)
}

// RMSprop implements the RMSprop optimizer.
//
// Update rule, per parameter p with gradient g:
//
//	g          ← g + weight_decay * p                  (if weight_decay ≠ 0)
//	square_avg ← alpha * square_avg + (1-alpha) * g²
//	grad_avg   ← alpha * grad_avg + (1-alpha) * g      (if centered)
//	avg        ← sqrt(square_avg - grad_avg²) + eps    (if centered)
//	avg        ← sqrt(square_avg) + eps                (otherwise)
//	buf        ← momentum * buf + g / avg              (if momentum > 0)
//	p          ← p - lr * buf                          (if momentum > 0)
//	p          ← p - lr * g / avg                      (otherwise)
//
// The square root is taken before epsilon is added, so the effective learning
// rate is lr / (sqrt(v) + eps).
//
// For further details see the lecture notes by G. Hinton
// (https://www.cs.toronto.edu/~tijmen/csc321/slides/lecture_slides_lec6.pdf)
// and, for the centered variant, "Generating Sequences With Recurrent Neural
// Networks" (https://arxiv.org/pdf/1308.0850v5.pdf).
//
// Step processes groups and parameters strictly sequentially. Concurrent Step
// calls over overlapping parameter sets are undefined behavior; callers must
// serialize them.
type RMSprop[B tensor.Backend] struct {
	groups  []Group[B]
	state   map[*nn.Parameter[B]]*rmspropState
	backend B
	tape    *autodiff.GradientTape
}

// NewRMSprop creates an RMSprop optimizer with a single parameter group.
//
// Returns ErrInvalidArgument if any hyperparameter is negative, and
// ErrIncompatibleMode if opts selects EngineForeach on a backend that forbids
// batched dispatch.
func NewRMSprop[B tensor.Backend](params []*nn.Parameter[B], opts Options, backend B) (*RMSprop[B], error) {
	r := &RMSprop[B]{
		state:   make(map[*nn.Parameter[B]]*rmspropState),
		backend: backend,
	}
	if err := r.AddGroup(Group[B]{Params: params, Options: opts}); err != nil {
		return nil, err
	}
	return r, nil
}

// AddGroup appends a parameter group with its own hyperparameter set.
func (r *RMSprop[B]) AddGroup(g Group[B]) error {
	if err := g.Options.validate(); err != nil {
		return err
	}
	if g.Options.Engine.resolve() == EngineForeach && !r.backend.SupportsForeach() {
		return fmt.Errorf("%w: backend %s cannot batch updates across parameters",
			ErrIncompatibleMode, r.backend.Name())
	}
	r.groups = append(r.groups, g)
	return nil
}

// Groups returns the optimizer's parameter groups in registration order.
func (r *RMSprop[B]) Groups() []Group[B] {
	return r.groups
}

// SetTape attaches the gradient tape toggled around step closures.
// Without a tape the closure is invoked as-is.
func (r *RMSprop[B]) SetTape(t *autodiff.GradientTape) {
	r.tape = t
}

// Step performs a single optimization step.
//
// If a closure is supplied it is evaluated first, once, with gradient
// recording enabled for the duration of the call; its loss is returned.
// Parameters without a gradient are skipped. A sparse gradient aborts the
// call with ErrUnsupportedOperation; parameters already processed earlier in
// the same call remain updated (no rollback).
func (r *RMSprop[B]) Step(closure Closure) (float32, error) {
	var loss float32
	if closure != nil {
		var err error
		if loss, err = r.evalClosure(closure); err != nil {
			return 0, err
		}
	}

	for gi := range r.groups {
		if err := r.stepGroup(&r.groups[gi]); err != nil {
			return loss, err
		}
	}
	return loss, nil
}

// evalClosure runs the closure inside the gradient-recording scope.
// The previous recording state is restored on every exit path.
func (r *RMSprop[B]) evalClosure(closure Closure) (float32, error) {
	if r.tape != nil {
		defer r.tape.EnableGrad()()
	}
	return closure()
}

// stepGroup gathers the group's buffers into aligned batches and dispatches
// them to the selected engine.
func (r *RMSprop[B]) stepGroup(g *Group[B]) error {
	opts := g.Options
	if opts.Engine.resolve() == EngineForeach && !r.backend.SupportsForeach() {
		// Refuse before any state is created or advanced for this group.
		return fmt.Errorf("%w: backend %s cannot batch updates across parameters",
			ErrIncompatibleMode, r.backend.Name())
	}

	var bt batch
	for _, p := range g.Params {
		grad := p.Grad()
		if grad == nil {
			continue // Parameter didn't participate in the forward pass, skip
		}
		if grad.IsSparse() {
			return fmt.Errorf("%w: RMSprop does not support sparse gradients (parameter %q)",
				ErrUnsupportedOperation, p.Name())
		}

		st := r.getOrInit(p, opts)
		st.step++

		bt.params = append(bt.params, p.Tensor().Raw())
		bt.grads = append(bt.grads, grad)
		bt.squareAvgs = append(bt.squareAvgs, st.squareAvg)
		if opts.Centered {
			bt.gradAvgs = append(bt.gradAvgs, st.gradAvg)
		}
		if opts.Momentum > 0 {
			bt.momentumBufs = append(bt.momentumBufs, st.momentumBuf)
		}
	}

	return rmspropUpdate(r.backend, bt, opts)
}

// getOrInit returns the parameter's state entry, creating it on first use.
//
// square_avg always exists once the entry does; grad_avg and momentum_buf are
// allocated at the same moment iff the group enables them. Existing buffers
// are never overwritten.
func (r *RMSprop[B]) getOrInit(p *nn.Parameter[B], opts Options) *rmspropState {
	if st, ok := r.state[p]; ok {
		return st
	}

	raw := p.Tensor().Raw()
	st := &rmspropState{squareAvg: tensor.ZerosLike(raw)}
	if opts.Momentum > 0 {
		st.momentumBuf = tensor.ZerosLike(raw)
	}
	if opts.Centered {
		st.gradAvg = tensor.ZerosLike(raw)
	}
	r.state[p] = st
	return st
}

// ZeroGrad clears gradients for all parameters in all groups.
func (r *RMSprop[B]) ZeroGrad() {
	for _, g := range r.groups {
		for _, p := range g.Params {
			p.ZeroGrad()
		}
	}
}

// GetLR returns the learning rate of the first parameter group.
func (r *RMSprop[B]) GetLR() float32 {
	return r.groups[0].Options.LR
}

// SetLR updates the learning rate of every parameter group.
//
// Useful for learning rate scheduling during training.
func (r *RMSprop[B]) SetLR(lr float32) {
	for gi := range r.groups {
		r.groups[gi].Options.LR = lr
	}
}
