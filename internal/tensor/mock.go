package tensor

import (
	"fmt"
	"math"
)

// Verify that MockBackend implements Backend.
var _ Backend = (*MockBackend)(nil)

// MockBackend is a simple backend for testing.
// It implements all operations naively for correctness verification.
type MockBackend struct {
	forbidForeach bool
}

// NewMockBackend creates a new MockBackend.
func NewMockBackend() *MockBackend {
	return &MockBackend{}
}

// NewCaptureMockBackend creates a MockBackend that refuses heterogeneous
// foreach dispatch, imitating an ahead-of-time captured execution context.
func NewCaptureMockBackend() *MockBackend {
	return &MockBackend{forbidForeach: true}
}

// Name returns the backend name.
func (m *MockBackend) Name() string {
	if m.forbidForeach {
		return "mock-capture"
	}
	return "mock"
}

// Device returns the device type.
func (m *MockBackend) Device() Device {
	return CPU
}

// SupportsForeach reports whether batched dispatch is allowed.
func (m *MockBackend) SupportsForeach() bool {
	return !m.forbidForeach
}

// ForeachMulScalar computes x = x * s for every buffer in xs.
func (m *MockBackend) ForeachMulScalar(xs []*RawTensor, s float64) {
	for _, x := range xs {
		m.apply(x, func(v float64) float64 { return v * s })
	}
}

// ForeachAddScalar computes x = x + s for every buffer in xs.
func (m *MockBackend) ForeachAddScalar(xs []*RawTensor, s float64) {
	for _, x := range xs {
		m.apply(x, func(v float64) float64 { return v + s })
	}
}

// ForeachAdd computes x = x + s*y pairwise.
func (m *MockBackend) ForeachAdd(xs, ys []*RawTensor, s float64) {
	for i, x := range xs {
		m.combine(x, ys[i], func(v, y float64) float64 { return v + s*y })
	}
}

// ForeachAddcmul computes x = x + (s*a)*b pairwise.
func (m *MockBackend) ForeachAddcmul(xs, as, bs []*RawTensor, s float64) {
	for i, x := range xs {
		a, b := as[i], bs[i]
		m.combine2(x, a, b, func(v, av, bv float64) float64 { return v + (s*av)*bv })
	}
}

// ForeachAddcdiv computes x = x + (s*a)/b pairwise.
func (m *MockBackend) ForeachAddcdiv(xs, as, bs []*RawTensor, s float64) {
	for i, x := range xs {
		a, b := as[i], bs[i]
		m.combine2(x, a, b, func(v, av, bv float64) float64 { return v + (s*av)/bv })
	}
}

// ForeachSqrt computes x = sqrt(x) for every buffer in xs.
func (m *MockBackend) ForeachSqrt(xs []*RawTensor) {
	for _, x := range xs {
		m.apply(x, math.Sqrt)
	}
}

// apply mutates every stored value of x with op, converting through float64.
func (m *MockBackend) apply(x *RawTensor, op func(float64) float64) {
	switch x.DType() {
	case Float32:
		data := x.AsFloat32()
		for i, v := range data {
			data[i] = float32(op(float64(v)))
		}
	case Float64:
		data := x.AsFloat64()
		for i, v := range data {
			data[i] = op(v)
		}
	default:
		panic(fmt.Sprintf("mock: unsupported dtype %s", x.DType()))
	}
}

// combine mutates x elementwise from a second aligned buffer.
func (m *MockBackend) combine(x, y *RawTensor, op func(v, y float64) float64) {
	switch x.DType() {
	case Float32:
		xd, yd := x.AsFloat32(), y.AsFloat32()
		for i := range xd {
			xd[i] = float32(op(float64(xd[i]), float64(yd[i])))
		}
	case Float64:
		xd, yd := x.AsFloat64(), y.AsFloat64()
		for i := range xd {
			xd[i] = op(xd[i], yd[i])
		}
	default:
		panic(fmt.Sprintf("mock: unsupported dtype %s", x.DType()))
	}
}

// combine2 mutates x elementwise from two aligned buffers.
func (m *MockBackend) combine2(x, a, b *RawTensor, op func(v, a, b float64) float64) {
	switch x.DType() {
	case Float32:
		xd, ad, bd := x.AsFloat32(), a.AsFloat32(), b.AsFloat32()
		for i := range xd {
			xd[i] = float32(op(float64(xd[i]), float64(ad[i]), float64(bd[i])))
		}
	case Float64:
		xd, ad, bd := x.AsFloat64(), a.AsFloat64(), b.AsFloat64()
		for i := range xd {
			xd[i] = op(xd[i], ad[i], bd[i])
		}
	default:
		panic(fmt.Sprintf("mock: unsupported dtype %s", x.DType()))
	}
}
