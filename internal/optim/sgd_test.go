package optim_test

import (
	"errors"
	"testing"

	"github.com/cinder-ml/cinder/internal/backend/cpu"
	"github.com/cinder-ml/cinder/internal/nn"
	"github.com/cinder-ml/cinder/internal/optim"
	"github.com/cinder-ml/cinder/internal/tensor"
)

func TestSGDBasicUpdate(t *testing.T) {
	backend := cpu.New()
	p := newParam(t, backend, "w", 2.0)

	opt, err := optim.NewSGD([]*nn.Parameter[*cpu.CPUBackend]{p},
		optim.SGDOptions{LR: 0.1}, backend)
	if err != nil {
		t.Fatalf("NewSGD: %v", err)
	}

	setGrad(t, p, 1.0)
	if _, err := opt.Step(nil); err != nil {
		t.Fatalf("Step: %v", err)
	}

	// 2.0 - 0.1 * 1.0
	if got := p.Tensor().At(0); !floatEqual(got, 1.9, 1e-6) {
		t.Errorf("param = %v, want 1.9", got)
	}
}

func TestSGDMomentum(t *testing.T) {
	backend := cpu.New()
	p := newParam(t, backend, "w", 1.0)

	opt, err := optim.NewSGD([]*nn.Parameter[*cpu.CPUBackend]{p},
		optim.SGDOptions{LR: 0.1, Momentum: 0.9}, backend)
	if err != nil {
		t.Fatalf("NewSGD: %v", err)
	}

	// Step 1: velocity = 1.0, param = 1.0 - 0.1 = 0.9.
	setGrad(t, p, 1.0)
	if _, err := opt.Step(nil); err != nil {
		t.Fatalf("Step 1: %v", err)
	}
	if got := p.Tensor().At(0); !floatEqual(got, 0.9, 1e-6) {
		t.Errorf("after step 1: %v, want 0.9", got)
	}

	// Step 2: velocity = 0.9 + 1.0 = 1.9, param = 0.9 - 0.19 = 0.71.
	setGrad(t, p, 1.0)
	if _, err := opt.Step(nil); err != nil {
		t.Fatalf("Step 2: %v", err)
	}
	if got := p.Tensor().At(0); !floatEqual(got, 0.71, 1e-6) {
		t.Errorf("after step 2: %v, want 0.71", got)
	}
}

func TestSGDInvalidOptions(t *testing.T) {
	backend := cpu.New()
	params := []*nn.Parameter[*cpu.CPUBackend]{newParam(t, backend, "w", 1.0)}

	for _, opts := range []optim.SGDOptions{
		{LR: -0.1},
		{LR: 0.1, Momentum: -0.5},
		{LR: 0.1, WeightDecay: -1},
	} {
		if _, err := optim.NewSGD(params, opts, backend); !errors.Is(err, optim.ErrInvalidArgument) {
			t.Errorf("options %+v: expected ErrInvalidArgument, got %v", opts, err)
		}
	}
}

func TestSGDSparseGradient(t *testing.T) {
	backend := cpu.New()
	p := newParam(t, backend, "w", 1.0)

	opt, err := optim.NewSGD([]*nn.Parameter[*cpu.CPUBackend]{p},
		optim.SGDOptions{LR: 0.1}, backend)
	if err != nil {
		t.Fatalf("NewSGD: %v", err)
	}

	sg, err := tensor.NewSparseCOO(tensor.Shape{1}, tensor.Float32, tensor.CPU, []int64{0})
	if err != nil {
		t.Fatalf("NewSparseCOO: %v", err)
	}
	p.SetGrad(sg)

	if _, err := opt.Step(nil); !errors.Is(err, optim.ErrUnsupportedOperation) {
		t.Fatalf("expected ErrUnsupportedOperation, got %v", err)
	}
}

// TestSGDConvergence minimizes (x-3)^2 from zero.
func TestSGDConvergence(t *testing.T) {
	backend := cpu.New()
	p := newParam(t, backend, "x", 0.0)

	opt, err := optim.NewSGD([]*nn.Parameter[*cpu.CPUBackend]{p},
		optim.SGDOptions{LR: 0.1, Momentum: 0.9}, backend)
	if err != nil {
		t.Fatalf("NewSGD: %v", err)
	}

	for i := 0; i < 200; i++ {
		x := p.Tensor().At(0)
		setGrad(t, p, 2*(x-3))
		if _, err := opt.Step(nil); err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
	}

	if got := p.Tensor().At(0); !floatEqual(got, 3.0, 0.01) {
		t.Errorf("did not converge: x = %v, want ~3.0", got)
	}
}

func TestSGDStateDictRoundTrip(t *testing.T) {
	backend := cpu.New()
	opts := optim.SGDOptions{LR: 0.1, Momentum: 0.9}

	p := newParam(t, backend, "w", 1.0)
	opt, err := optim.NewSGD([]*nn.Parameter[*cpu.CPUBackend]{p}, opts, backend)
	if err != nil {
		t.Fatalf("NewSGD: %v", err)
	}

	setGrad(t, p, 1.0)
	if _, err := opt.Step(nil); err != nil {
		t.Fatalf("Step: %v", err)
	}

	sd := opt.StateDict()
	if _, ok := sd["velocity.0"]; !ok {
		t.Fatal("velocity missing from state dict")
	}

	restored, err := optim.NewSGD([]*nn.Parameter[*cpu.CPUBackend]{p}, opts, backend)
	if err != nil {
		t.Fatalf("NewSGD restore: %v", err)
	}
	if err := restored.LoadStateDict(sd); err != nil {
		t.Fatalf("LoadStateDict: %v", err)
	}

	// Both optimizers now share history; one more identical step from each
	// must move twin parameters identically.
	q := newParam(t, backend, "w", p.Tensor().At(0))
	twin, err := optim.NewSGD([]*nn.Parameter[*cpu.CPUBackend]{q}, opts, backend)
	if err != nil {
		t.Fatalf("NewSGD twin: %v", err)
	}
	if err := twin.LoadStateDict(copyStateDict(sd)); err != nil {
		t.Fatalf("twin LoadStateDict: %v", err)
	}

	setGrad(t, p, 1.0)
	setGrad(t, q, 1.0)
	if _, err := restored.Step(nil); err != nil {
		t.Fatalf("restored Step: %v", err)
	}
	if _, err := twin.Step(nil); err != nil {
		t.Fatalf("twin Step: %v", err)
	}
	if p.Tensor().At(0) != q.Tensor().At(0) {
		t.Errorf("restored %v vs twin %v", p.Tensor().At(0), q.Tensor().At(0))
	}
}
