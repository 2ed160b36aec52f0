package cpu

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/cinder-ml/cinder/internal/parallel"
	"github.com/cinder-ml/cinder/internal/tensor"
)

// The Foreach* kernels apply one elementwise operation across a whole list of
// buffers before the caller moves on to the next operation. Scalar arguments
// arrive as float64 and are narrowed once per buffer; every float32 kernel
// keeps the exact operand association of its per-parameter counterpart so both
// execution strategies produce bit-identical results.

// ForeachMulScalar computes x = x * s for every buffer in xs.
func (cpu *CPUBackend) ForeachMulScalar(xs []*tensor.RawTensor, s float64) {
	for _, x := range xs {
		switch x.DType() {
		case tensor.Float32:
			data := x.AsFloat32()
			sv := float32(s)
			parallel.ForChunks(len(data), func(lo, hi int) {
				for i := lo; i < hi; i++ {
					data[i] *= sv
				}
			}, cpu.parallel)
		case tensor.Float64:
			data := x.AsFloat64()
			parallel.ForChunks(len(data), func(lo, hi int) {
				floats.Scale(s, data[lo:hi])
			}, cpu.parallel)
		default:
			panic(fmt.Sprintf("foreach_mul_scalar: unsupported dtype %s", x.DType()))
		}
	}
}

// ForeachAddScalar computes x = x + s for every buffer in xs.
func (cpu *CPUBackend) ForeachAddScalar(xs []*tensor.RawTensor, s float64) {
	for _, x := range xs {
		switch x.DType() {
		case tensor.Float32:
			data := x.AsFloat32()
			sv := float32(s)
			parallel.ForChunks(len(data), func(lo, hi int) {
				for i := lo; i < hi; i++ {
					data[i] += sv
				}
			}, cpu.parallel)
		case tensor.Float64:
			data := x.AsFloat64()
			parallel.ForChunks(len(data), func(lo, hi int) {
				floats.AddConst(s, data[lo:hi])
			}, cpu.parallel)
		default:
			panic(fmt.Sprintf("foreach_add_scalar: unsupported dtype %s", x.DType()))
		}
	}
}

// ForeachAdd computes x = x + s*y pairwise over (xs, ys).
func (cpu *CPUBackend) ForeachAdd(xs, ys []*tensor.RawTensor, s float64) {
	if len(xs) != len(ys) {
		panic(fmt.Sprintf("foreach_add: list length mismatch %d vs %d", len(xs), len(ys)))
	}
	for k, x := range xs {
		y := ys[k]
		switch x.DType() {
		case tensor.Float32:
			xd, yd := x.AsFloat32(), y.AsFloat32()
			sv := float32(s)
			parallel.ForChunks(len(xd), func(lo, hi int) {
				for i := lo; i < hi; i++ {
					xd[i] += sv * yd[i]
				}
			}, cpu.parallel)
		case tensor.Float64:
			xd, yd := x.AsFloat64(), y.AsFloat64()
			parallel.ForChunks(len(xd), func(lo, hi int) {
				floats.AddScaled(xd[lo:hi], s, yd[lo:hi])
			}, cpu.parallel)
		default:
			panic(fmt.Sprintf("foreach_add: unsupported dtype %s", x.DType()))
		}
	}
}

// ForeachAddcmul computes x = x + (s*a)*b pairwise over (xs, as, bs).
func (cpu *CPUBackend) ForeachAddcmul(xs, as, bs []*tensor.RawTensor, s float64) {
	if len(xs) != len(as) || len(xs) != len(bs) {
		panic(fmt.Sprintf("foreach_addcmul: list length mismatch %d/%d/%d", len(xs), len(as), len(bs)))
	}
	for k, x := range xs {
		a, b := as[k], bs[k]
		switch x.DType() {
		case tensor.Float32:
			xd, ad, bd := x.AsFloat32(), a.AsFloat32(), b.AsFloat32()
			sv := float32(s)
			parallel.ForChunks(len(xd), func(lo, hi int) {
				for i := lo; i < hi; i++ {
					xd[i] += sv * ad[i] * bd[i]
				}
			}, cpu.parallel)
		case tensor.Float64:
			xd, ad, bd := x.AsFloat64(), a.AsFloat64(), b.AsFloat64()
			parallel.ForChunks(len(xd), func(lo, hi int) {
				for i := lo; i < hi; i++ {
					xd[i] += s * ad[i] * bd[i]
				}
			}, cpu.parallel)
		default:
			panic(fmt.Sprintf("foreach_addcmul: unsupported dtype %s", x.DType()))
		}
	}
}

// ForeachAddcdiv computes x = x + (s*a)/b pairwise over (xs, as, bs).
func (cpu *CPUBackend) ForeachAddcdiv(xs, as, bs []*tensor.RawTensor, s float64) {
	if len(xs) != len(as) || len(xs) != len(bs) {
		panic(fmt.Sprintf("foreach_addcdiv: list length mismatch %d/%d/%d", len(xs), len(as), len(bs)))
	}
	for k, x := range xs {
		a, b := as[k], bs[k]
		switch x.DType() {
		case tensor.Float32:
			xd, ad, bd := x.AsFloat32(), a.AsFloat32(), b.AsFloat32()
			sv := float32(s)
			parallel.ForChunks(len(xd), func(lo, hi int) {
				for i := lo; i < hi; i++ {
					xd[i] += sv * ad[i] / bd[i]
				}
			}, cpu.parallel)
		case tensor.Float64:
			xd, ad, bd := x.AsFloat64(), a.AsFloat64(), b.AsFloat64()
			parallel.ForChunks(len(xd), func(lo, hi int) {
				for i := lo; i < hi; i++ {
					xd[i] += s * ad[i] / bd[i]
				}
			}, cpu.parallel)
		default:
			panic(fmt.Sprintf("foreach_addcdiv: unsupported dtype %s", x.DType()))
		}
	}
}

// ForeachSqrt computes x = sqrt(x) for every buffer in xs.
func (cpu *CPUBackend) ForeachSqrt(xs []*tensor.RawTensor) {
	for _, x := range xs {
		switch x.DType() {
		case tensor.Float32:
			data := x.AsFloat32()
			parallel.ForChunks(len(data), func(lo, hi int) {
				for i := lo; i < hi; i++ {
					data[i] = float32(math.Sqrt(float64(data[i])))
				}
			}, cpu.parallel)
		case tensor.Float64:
			data := x.AsFloat64()
			parallel.ForChunks(len(data), func(lo, hi int) {
				for i := lo; i < hi; i++ {
					data[i] = math.Sqrt(data[i])
				}
			}, cpu.parallel)
		default:
			panic(fmt.Sprintf("foreach_sqrt: unsupported dtype %s", x.DType()))
		}
	}
}
