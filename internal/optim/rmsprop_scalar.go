package optim

import (
	"fmt"
	"math"

	"github.com/cinder-ml/cinder/internal/tensor"
)

// batch carries aligned, non-owning views into caller-owned buffers for one
// parameter group. gradAvgs is populated iff the group is centered,
// momentumBufs iff momentum > 0; the other slices are always aligned 1:1.
type batch struct {
	params       []*tensor.RawTensor
	grads        []*tensor.RawTensor
	squareAvgs   []*tensor.RawTensor
	gradAvgs     []*tensor.RawTensor
	momentumBufs []*tensor.RawTensor
}

// rmspropUpdate applies one RMSprop step to the batch with the engine the
// options select. Both engines realize the identical formula in the identical
// operation order; they differ only in whether each formula step spans one
// parameter's buffers or the whole batch.
func rmspropUpdate[B tensor.Backend](b B, bt batch, opts Options) error {
	switch opts.Engine.resolve() {
	case EngineScalar:
		singleTensorRMSprop(bt, opts)
		return nil
	case EngineForeach:
		if !b.SupportsForeach() {
			return fmt.Errorf("%w: backend %s cannot batch updates across parameters",
				ErrIncompatibleMode, b.Name())
		}
		multiTensorRMSprop(b, bt, opts)
		return nil
	default:
		return fmt.Errorf("%w: unknown engine %d", ErrInvalidArgument, opts.Engine)
	}
}

// singleTensorRMSprop applies the update formula one parameter at a time,
// sequentially over the batch, with a fused per-element loop.
func singleTensorRMSprop(bt batch, opts Options) {
	for i := range bt.params {
		var gradAvg, momentumBuf *tensor.RawTensor
		if opts.Centered {
			gradAvg = bt.gradAvgs[i]
		}
		if opts.Momentum > 0 {
			momentumBuf = bt.momentumBufs[i]
		}

		p := bt.params[i]
		switch p.DType() {
		case tensor.Float32:
			scalarStepF32(p, bt.grads[i], bt.squareAvgs[i], gradAvg, momentumBuf, opts)
		case tensor.Float64:
			scalarStepF64(p, bt.grads[i], bt.squareAvgs[i], gradAvg, momentumBuf, opts)
		default:
			panic(fmt.Sprintf("rmsprop: unsupported dtype %s", p.DType()))
		}
	}
}

func scalarStepF32(param, grad, squareAvg, gradAvg, momentumBuf *tensor.RawTensor, opts Options) {
	p := param.AsFloat32()
	g := grad.AsFloat32()
	sa := squareAvg.AsFloat32()

	var ga, buf []float32
	if gradAvg != nil {
		ga = gradAvg.AsFloat32()
	}
	if momentumBuf != nil {
		buf = momentumBuf.AsFloat32()
	}

	lr := opts.LR
	alpha := opts.Alpha
	oneMinusAlpha := 1 - opts.Alpha
	eps := opts.Eps

	for i := range p {
		// The gradient is read, never written: weight decay works on a
		// transient per-element value.
		gi := g[i]
		if opts.WeightDecay != 0 {
			gi += opts.WeightDecay * p[i]
		}

		sa[i] = alpha*sa[i] + oneMinusAlpha*gi*gi

		var avg float32
		if ga != nil {
			ga[i] = alpha*ga[i] + oneMinusAlpha*gi
			avg = float32(math.Sqrt(float64(sa[i]-ga[i]*ga[i]))) + eps
		} else {
			avg = float32(math.Sqrt(float64(sa[i]))) + eps
		}

		if buf != nil {
			buf[i] = opts.Momentum*buf[i] + gi/avg
			p[i] -= lr * buf[i]
		} else {
			p[i] -= lr * gi / avg
		}
	}
}

func scalarStepF64(param, grad, squareAvg, gradAvg, momentumBuf *tensor.RawTensor, opts Options) {
	p := param.AsFloat64()
	g := grad.AsFloat64()
	sa := squareAvg.AsFloat64()

	var ga, buf []float64
	if gradAvg != nil {
		ga = gradAvg.AsFloat64()
	}
	if momentumBuf != nil {
		buf = momentumBuf.AsFloat64()
	}

	// Hyperparameters are float32; widen them once so both dtypes and both
	// engines see the same constants.
	lr := float64(opts.LR)
	alpha := float64(opts.Alpha)
	oneMinusAlpha := float64(1 - opts.Alpha)
	eps := float64(opts.Eps)
	weightDecay := float64(opts.WeightDecay)
	momentum := float64(opts.Momentum)

	for i := range p {
		gi := g[i]
		if opts.WeightDecay != 0 {
			gi += weightDecay * p[i]
		}

		sa[i] = alpha*sa[i] + oneMinusAlpha*gi*gi

		var avg float64
		if ga != nil {
			ga[i] = alpha*ga[i] + oneMinusAlpha*gi
			avg = math.Sqrt(sa[i]-ga[i]*ga[i]) + eps
		} else {
			avg = math.Sqrt(sa[i]) + eps
		}

		if buf != nil {
			buf[i] = momentum*buf[i] + gi/avg
			p[i] -= lr * buf[i]
		} else {
			p[i] -= lr * gi / avg
		}
	}
}
