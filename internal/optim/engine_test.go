package optim

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/cinder-ml/cinder/internal/backend/cpu"
	"github.com/cinder-ml/cinder/internal/tensor"
)

// makeBatch builds an aligned batch of n float32 parameters with deterministic
// pseudo-random contents, plus zeroed accumulators per the options.
func makeBatch(t *testing.T, n int, opts Options, rng *rand.Rand) batch {
	t.Helper()

	var bt batch
	for i := 0; i < n; i++ {
		shape := tensor.Shape{2 + i, 3}
		param := randomRaw(t, shape, rng)
		grad := randomRaw(t, shape, rng)

		bt.params = append(bt.params, param)
		bt.grads = append(bt.grads, grad)
		bt.squareAvgs = append(bt.squareAvgs, tensor.ZerosLike(param))
		if opts.Centered {
			bt.gradAvgs = append(bt.gradAvgs, tensor.ZerosLike(param))
		}
		if opts.Momentum > 0 {
			bt.momentumBufs = append(bt.momentumBufs, tensor.ZerosLike(param))
		}
	}
	return bt
}

func randomRaw(t *testing.T, shape tensor.Shape, rng *rand.Rand) *tensor.RawTensor {
	t.Helper()

	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw: %v", err)
	}
	data := raw.AsFloat32()
	for i := range data {
		data[i] = float32(rng.NormFloat64())
	}
	return raw
}

// cloneBatch deep-copies every buffer so two engines can run from identical
// initial state.
func cloneBatch(bt batch) batch {
	return batch{
		params:       copyAll(bt.params),
		grads:        copyAll(bt.grads),
		squareAvgs:   copyAll(bt.squareAvgs),
		gradAvgs:     copyAll(bt.gradAvgs),
		momentumBufs: copyAll(bt.momentumBufs),
	}
}

func maxDiff(t *testing.T, a, b []*tensor.RawTensor) float64 {
	t.Helper()

	var worst float64
	for i := range a {
		ad, bd := a[i].AsFloat32(), b[i].AsFloat32()
		for j := range ad {
			diff := math.Abs(float64(ad[j]) - float64(bd[j]))
			if diff > worst {
				worst = diff
			}
		}
	}
	return worst
}

// TestScalarForeachEquivalence runs both engines from identical initial state
// over several steps and configurations; parameters and accumulators must
// agree within floating tolerance.
func TestScalarForeachEquivalence(t *testing.T) {
	configs := map[string]Options{
		"plain":             {LR: 0.01, Alpha: 0.99, Eps: 1e-8},
		"momentum":          {LR: 0.01, Alpha: 0.99, Eps: 1e-8, Momentum: 0.9},
		"centered":          {LR: 0.01, Alpha: 0.99, Eps: 1e-8, Centered: true},
		"weight_decay":      {LR: 0.01, Alpha: 0.99, Eps: 1e-8, WeightDecay: 0.1},
		"centered_momentum": {LR: 0.01, Alpha: 0.9, Eps: 1e-6, Momentum: 0.5, Centered: true, WeightDecay: 0.01},
	}

	backend := cpu.New()
	const tolerance = 1e-6

	for name, opts := range configs {
		t.Run(name, func(t *testing.T) {
			rng := rand.New(rand.NewSource(42))
			scalarBatch := makeBatch(t, 4, opts, rng)
			foreachBatch := cloneBatch(scalarBatch)

			for step := 0; step < 5; step++ {
				singleTensorRMSprop(scalarBatch, opts)
				multiTensorRMSprop(backend, foreachBatch, opts)
			}

			if diff := maxDiff(t, scalarBatch.params, foreachBatch.params); diff > tolerance {
				t.Errorf("params diverged by %g", diff)
			}
			if diff := maxDiff(t, scalarBatch.squareAvgs, foreachBatch.squareAvgs); diff > tolerance {
				t.Errorf("square_avgs diverged by %g", diff)
			}
			if opts.Centered {
				if diff := maxDiff(t, scalarBatch.gradAvgs, foreachBatch.gradAvgs); diff > tolerance {
					t.Errorf("grad_avgs diverged by %g", diff)
				}
			}
			if opts.Momentum > 0 {
				if diff := maxDiff(t, scalarBatch.momentumBufs, foreachBatch.momentumBufs); diff > tolerance {
					t.Errorf("momentum buffers diverged by %g", diff)
				}
			}
		})
	}
}

// TestForeachEmptyBatch verifies that the batched engine is a no-op on an
// empty batch.
func TestForeachEmptyBatch(t *testing.T) {
	multiTensorRMSprop(cpu.New(), batch{}, Options{LR: 0.01, Alpha: 0.99, Eps: 1e-8})
}

// TestForeachLeavesGradientsIntact verifies the weight-decay path works on a
// temporary gradient copy in both engines.
func TestForeachLeavesGradientsIntact(t *testing.T) {
	opts := Options{LR: 0.01, Alpha: 0.99, Eps: 1e-8, WeightDecay: 0.5}
	rng := rand.New(rand.NewSource(7))

	bt := makeBatch(t, 3, opts, rng)
	before := copyAll(bt.grads)

	multiTensorRMSprop(cpu.New(), bt, opts)
	if diff := maxDiff(t, bt.grads, before); diff != 0 {
		t.Errorf("foreach engine mutated caller gradients (max diff %g)", diff)
	}

	bt2 := makeBatch(t, 3, opts, rng)
	before2 := copyAll(bt2.grads)

	singleTensorRMSprop(bt2, opts)
	if diff := maxDiff(t, bt2.grads, before2); diff != 0 {
		t.Errorf("scalar engine mutated caller gradients (max diff %g)", diff)
	}
}

// TestUpdateDispatchIncompatibleMode verifies that selecting the foreach
// engine on a backend without batched dispatch fails before mutating anything.
func TestUpdateDispatchIncompatibleMode(t *testing.T) {
	capture := tensor.NewCaptureMockBackend()
	opts := Options{LR: 0.01, Alpha: 0.99, Eps: 1e-8, Engine: EngineForeach}

	rng := rand.New(rand.NewSource(1))
	bt := makeBatch(t, 2, opts, rng)
	before := copyAll(bt.params)

	err := rmspropUpdate(capture, bt, opts)
	if !errors.Is(err, ErrIncompatibleMode) {
		t.Fatalf("expected ErrIncompatibleMode, got %v", err)
	}
	if diff := maxDiff(t, bt.params, before); diff != 0 {
		t.Errorf("parameters mutated despite dispatch failure (max diff %g)", diff)
	}
}

// TestEngineResolve checks the placeholder selection policy: auto resolves to
// the scalar engine, explicit choices stand.
func TestEngineResolve(t *testing.T) {
	if got := EngineAuto.resolve(); got != EngineScalar {
		t.Errorf("EngineAuto resolved to %s, want scalar", got)
	}
	if got := EngineForeach.resolve(); got != EngineForeach {
		t.Errorf("EngineForeach resolved to %s, want foreach", got)
	}
	if got := EngineScalar.resolve(); got != EngineScalar {
		t.Errorf("EngineScalar resolved to %s, want scalar", got)
	}
}
