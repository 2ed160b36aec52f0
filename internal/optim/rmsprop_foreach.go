package optim

import "github.com/cinder-ml/cinder/internal/tensor"

// multiTensorRMSprop applies each step of the update formula across the whole
// batch at once: one backend kernel spans all buffers of a kind before the
// next formula step runs. The step ordering matches singleTensorRMSprop
// exactly, so the two engines never drift apart numerically.
func multiTensorRMSprop[B tensor.Backend](b B, bt batch, opts Options) {
	if len(bt.params) == 0 {
		return
	}

	grads := bt.grads
	if opts.WeightDecay != 0 {
		// Work on a temporary copy so the caller's gradient buffers stay intact.
		grads = copyAll(grads)
		b.ForeachAdd(grads, bt.params, float64(opts.WeightDecay))
	}

	// Compute 1-alpha in float32 first so the constant matches the scalar
	// engine's bit for bit.
	oneMinusAlpha := float64(1 - opts.Alpha)

	b.ForeachMulScalar(bt.squareAvgs, float64(opts.Alpha))
	b.ForeachAddcmul(bt.squareAvgs, grads, grads, oneMinusAlpha)

	var avgs []*tensor.RawTensor
	if opts.Centered {
		b.ForeachMulScalar(bt.gradAvgs, float64(opts.Alpha))
		b.ForeachAdd(bt.gradAvgs, grads, oneMinusAlpha)
		avgs = copyAll(bt.squareAvgs)
		b.ForeachAddcmul(avgs, bt.gradAvgs, bt.gradAvgs, -1)
	} else {
		avgs = copyAll(bt.squareAvgs)
	}
	b.ForeachSqrt(avgs)
	b.ForeachAddScalar(avgs, float64(opts.Eps))

	if opts.Momentum > 0 {
		b.ForeachMulScalar(bt.momentumBufs, float64(opts.Momentum))
		b.ForeachAddcdiv(bt.momentumBufs, grads, avgs, 1)
		b.ForeachAdd(bt.params, bt.momentumBufs, float64(-opts.LR))
	} else {
		b.ForeachAddcdiv(bt.params, grads, avgs, float64(-opts.LR))
	}
}

// copyAll deep-copies a buffer list so in-place kernels can run on scratch
// space. The originals are left untouched.
func copyAll(xs []*tensor.RawTensor) []*tensor.RawTensor {
	out := make([]*tensor.RawTensor, len(xs))
	for i, x := range xs {
		out[i] = x.Copy()
	}
	return out
}
