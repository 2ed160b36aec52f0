package optim

import (
	"fmt"

	"github.com/cinder-ml/cinder/internal/nn"
	"github.com/cinder-ml/cinder/internal/tensor"
)

// State dict keys are "{buffer}.{index}" where index counts parameters across
// all groups in registration order. Step counters travel as 0-d int64 tensors
// so a state dict stays a plain name-to-tensor map.
const (
	stateKeyStep        = "step"
	stateKeySquareAvg   = "square_avg"
	stateKeyGradAvg     = "grad_avg"
	stateKeyMomentumBuf = "momentum_buffer"
)

// StateDict returns the optimizer state for serialization.
//
// Parameters that have not been stepped yet have no entries; they will be
// lazily initialized again after a restore.
func (r *RMSprop[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)

	idx := 0
	for _, g := range r.groups {
		for _, p := range g.Params {
			st, exists := r.state[p]
			if exists {
				stateDict[fmt.Sprintf("%s.%d", stateKeyStep, idx)] = stepTensor(st.step, p.Tensor().Device())
				stateDict[fmt.Sprintf("%s.%d", stateKeySquareAvg, idx)] = st.squareAvg
				if st.gradAvg != nil {
					stateDict[fmt.Sprintf("%s.%d", stateKeyGradAvg, idx)] = st.gradAvg
				}
				if st.momentumBuf != nil {
					stateDict[fmt.Sprintf("%s.%d", stateKeyMomentumBuf, idx)] = st.momentumBuf
				}
			}
			idx++
		}
	}

	return stateDict
}

// LoadStateDict loads optimizer state from serialization.
//
// Restored entries must satisfy the accumulator invariants: shapes match the
// parameter, grad_avg present iff the group is centered, momentum_buffer
// present iff momentum > 0. Parameters without entries stay uninitialized and
// are lazily created on their next step.
func (r *RMSprop[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	state := make(map[*nn.Parameter[B]]*rmspropState)

	idx := 0
	for _, g := range r.groups {
		for _, p := range g.Params {
			sq, exists := stateDict[fmt.Sprintf("%s.%d", stateKeySquareAvg, idx)]
			if !exists {
				idx++
				continue // Will be initialized on first step
			}

			st := &rmspropState{squareAvg: sq}
			if err := checkStateShape(stateKeySquareAvg, idx, sq, p); err != nil {
				return err
			}

			if stepRaw, ok := stateDict[fmt.Sprintf("%s.%d", stateKeyStep, idx)]; ok {
				st.step = stepRaw.AsInt64()[0]
			}

			gradAvg, hasGradAvg := stateDict[fmt.Sprintf("%s.%d", stateKeyGradAvg, idx)]
			if hasGradAvg != g.Options.Centered {
				return fmt.Errorf("grad_avg presence mismatch for parameter %d: centered=%v, have=%v",
					idx, g.Options.Centered, hasGradAvg)
			}
			if hasGradAvg {
				if err := checkStateShape(stateKeyGradAvg, idx, gradAvg, p); err != nil {
					return err
				}
				st.gradAvg = gradAvg
			}

			buf, hasBuf := stateDict[fmt.Sprintf("%s.%d", stateKeyMomentumBuf, idx)]
			if hasBuf != (g.Options.Momentum > 0) {
				return fmt.Errorf("momentum_buffer presence mismatch for parameter %d: momentum=%g, have=%v",
					idx, g.Options.Momentum, hasBuf)
			}
			if hasBuf {
				if err := checkStateShape(stateKeyMomentumBuf, idx, buf, p); err != nil {
					return err
				}
				st.momentumBuf = buf
			}

			state[p] = st
			idx++
		}
	}

	r.state = state
	return nil
}

// checkStateShape validates a restored accumulator against its parameter.
func checkStateShape[B tensor.Backend](key string, idx int, raw *tensor.RawTensor, p *nn.Parameter[B]) error {
	want := p.Tensor().Raw()
	if !raw.Shape().Equal(want.Shape()) {
		return fmt.Errorf("%s shape mismatch for parameter %d: expected %v, got %v",
			key, idx, want.Shape(), raw.Shape())
	}
	if raw.DType() != want.DType() {
		return fmt.Errorf("%s dtype mismatch for parameter %d: expected %s, got %s",
			key, idx, want.DType(), raw.DType())
	}
	return nil
}

// stepTensor wraps a step counter in a 0-d int64 tensor.
func stepTensor(step int64, device tensor.Device) *tensor.RawTensor {
	raw, err := tensor.NewRaw(tensor.Shape{}, tensor.Int64, device)
	if err != nil {
		panic(err) // A scalar shape is always valid
	}
	raw.AsInt64()[0] = step
	return raw
}
