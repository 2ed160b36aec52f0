package tensor

// Backend defines the interface that all compute backends must implement.
// Backends handle the actual computation for tensor operations.
//
// The Foreach* family applies one elementwise kernel across a whole list of
// buffers at a time instead of looping buffer by buffer. Lists passed to a
// single call must be equally long and positionally aligned; buffers may have
// arbitrary (mutually different) shapes. All Foreach* operations mutate their
// first list in place and treat the remaining lists as read-only.
//
// Implementations:
//   - CPU: Pure Go loops, gonum-accelerated float64 kernels
//   - Mock: Naive reference implementation for tests
type Backend interface {
	// SupportsForeach reports whether the backend can dispatch one kernel
	// across a heterogeneous list of buffers. Backends that capture or trace
	// a static operation graph ahead of time return false.
	SupportsForeach() bool

	// ForeachMulScalar computes x = x * s for every buffer x in xs.
	ForeachMulScalar(xs []*RawTensor, s float64)

	// ForeachAddScalar computes x = x + s for every buffer x in xs.
	ForeachAddScalar(xs []*RawTensor, s float64)

	// ForeachAdd computes x = x + s*y pairwise over (xs, ys).
	ForeachAdd(xs, ys []*RawTensor, s float64)

	// ForeachAddcmul computes x = x + (s*a)*b pairwise over (xs, as, bs).
	ForeachAddcmul(xs, as, bs []*RawTensor, s float64)

	// ForeachAddcdiv computes x = x + (s*a)/b pairwise over (xs, as, bs).
	ForeachAddcdiv(xs, as, bs []*RawTensor, s float64)

	// ForeachSqrt computes x = sqrt(x) for every buffer x in xs.
	ForeachSqrt(xs []*RawTensor)

	// Metadata
	Name() string
	Device() Device
}
