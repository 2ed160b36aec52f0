package tensor

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"
)

// Device represents the compute device for tensor operations.
type Device int

// Supported compute devices.
const (
	CPU Device = iota
	CUDA
	WebGPU
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	case CUDA:
		return "CUDA"
	case WebGPU:
		return "WebGPU"
	default:
		return "Unknown"
	}
}

// Layout describes how a tensor's elements are stored.
type Layout int

// Supported storage layouts.
const (
	// Dense stores every element contiguously in row-major order.
	Dense Layout = iota
	// SparseCOO stores only nonzero values plus their flat element offsets.
	SparseCOO
)

// String returns a human-readable layout name.
func (l Layout) String() string {
	switch l {
	case Dense:
		return "dense"
	case SparseCOO:
		return "sparse_coo"
	default:
		return "unknown"
	}
}

// tensorBuffer is a reference-counted shared buffer for Copy-on-Write semantics.
// This enables cheap cloning and inplace optimizations when refCount == 1.
type tensorBuffer struct {
	data     []byte
	refCount atomic.Int32
	mu       sync.Mutex // For safe deallocation
}

// newTensorBuffer creates a new reference-counted buffer with refCount = 1.
func newTensorBuffer(size int) *tensorBuffer {
	buf := &tensorBuffer{
		data: make([]byte, size),
	}
	buf.refCount.Store(1)
	return buf
}

// addRef increments the reference count (for Clone operations).
func (tb *tensorBuffer) addRef() {
	tb.refCount.Add(1)
}

// release decrements the reference count and deallocates if it reaches 0.
func (tb *tensorBuffer) release() {
	if tb.refCount.Add(-1) == 0 {
		tb.mu.Lock()
		defer tb.mu.Unlock()
		tb.data = nil
	}
}

// isUnique returns true if this buffer has only one reference (enables inplace ops).
func (tb *tensorBuffer) isUnique() bool {
	return tb.refCount.Load() == 1
}

// RawTensor is the low-level tensor representation.
// It uses reference-counted shared buffers for Copy-on-Write semantics.
//
// Dense tensors store shape.NumElements() values. SparseCOO tensors store one
// value per entry of indices; the rest of the logical tensor is implicit zero.
type RawTensor struct {
	buffer  *tensorBuffer // Shared reference-counted buffer
	shape   Shape         // Tensor dimensions
	stride  []int         // Memory strides (row-major, dense only)
	dtype   DataType      // Runtime type information
	device  Device        // Compute device
	offset  int           // Offset for slicing/views
	layout  Layout        // Storage layout
	indices []int64       // Flat element offsets (SparseCOO only)
}

// NewRaw creates a new dense RawTensor with the given shape and type.
// Memory is allocated zero-initialized.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}

	numElements := shape.NumElements()
	byteSize := numElements * dtype.Size()

	return &RawTensor{
		buffer: newTensorBuffer(byteSize),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
		device: device,
		offset: 0,
		layout: Dense,
	}, nil
}

// NewSparseCOO creates a sparse RawTensor in coordinate format.
// indices holds the flat (row-major) offset of each stored value; the value
// buffer is allocated zero-initialized with one slot per index.
func NewSparseCOO(shape Shape, dtype DataType, device Device, indices []int64) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	limit := int64(shape.NumElements())
	for i, idx := range indices {
		if idx < 0 || idx >= limit {
			return nil, fmt.Errorf("sparse index %d out of range at position %d (tensor has %d elements)", idx, i, limit)
		}
	}

	return &RawTensor{
		buffer:  newTensorBuffer(len(indices) * dtype.Size()),
		shape:   shape.Clone(),
		dtype:   dtype,
		device:  device,
		layout:  SparseCOO,
		indices: append([]int64(nil), indices...),
	}, nil
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Strides returns the tensor's memory strides.
func (r *RawTensor) Strides() []int {
	return r.stride
}

// DType returns the tensor's data type.
func (r *RawTensor) DType() DataType {
	return r.dtype
}

// Device returns the tensor's compute device.
func (r *RawTensor) Device() Device {
	return r.device
}

// Layout returns the tensor's storage layout.
func (r *RawTensor) Layout() Layout {
	return r.layout
}

// IsSparse reports whether the tensor uses a sparse storage layout.
func (r *RawTensor) IsSparse() bool {
	return r.layout != Dense
}

// Indices returns the flat element offsets of a SparseCOO tensor.
// Returns nil for dense tensors.
func (r *RawTensor) Indices() []int64 {
	return r.indices
}

// NumElements returns the total number of logical elements.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// NumStored returns the number of physically stored values.
// Equal to NumElements for dense tensors, len(Indices) for sparse ones.
func (r *RawTensor) NumStored() int {
	if r.layout == SparseCOO {
		return len(r.indices)
	}
	return r.shape.NumElements()
}

// ByteSize returns the total memory size in bytes.
func (r *RawTensor) ByteSize() int {
	return r.NumStored() * r.dtype.Size()
}

// Data returns the raw byte slice.
// WARNING: Direct access to underlying memory. Use with caution.
func (r *RawTensor) Data() []byte {
	return r.buffer.data[r.offset:]
}

// AsFloat32 interprets the stored values as []float32.
// Panics if the tensor's dtype is not Float32.
func (r *RawTensor) AsFloat32() []float32 {
	if r.dtype != Float32 {
		panic(fmt.Sprintf("tensor dtype is %s, not float32", r.dtype))
	}
	data := r.buffer.data[r.offset:]
	//nolint:gosec // unsafe.Slice for zero-copy performance, bounds checked by NumStored()
	return unsafe.Slice((*float32)(unsafe.Pointer(&data[0])), r.NumStored())
}

// AsFloat64 interprets the stored values as []float64.
// Panics if the tensor's dtype is not Float64.
func (r *RawTensor) AsFloat64() []float64 {
	if r.dtype != Float64 {
		panic(fmt.Sprintf("tensor dtype is %s, not float64", r.dtype))
	}
	data := r.buffer.data[r.offset:]
	//nolint:gosec // unsafe.Slice for zero-copy performance, bounds checked by NumStored()
	return unsafe.Slice((*float64)(unsafe.Pointer(&data[0])), r.NumStored())
}

// AsInt32 interprets the stored values as []int32.
// Panics if the tensor's dtype is not Int32.
func (r *RawTensor) AsInt32() []int32 {
	if r.dtype != Int32 {
		panic(fmt.Sprintf("tensor dtype is %s, not int32", r.dtype))
	}
	data := r.buffer.data[r.offset:]
	//nolint:gosec // unsafe.Slice for zero-copy performance, bounds checked by NumStored()
	return unsafe.Slice((*int32)(unsafe.Pointer(&data[0])), r.NumStored())
}

// AsInt64 interprets the stored values as []int64.
// Panics if the tensor's dtype is not Int64.
func (r *RawTensor) AsInt64() []int64 {
	if r.dtype != Int64 {
		panic(fmt.Sprintf("tensor dtype is %s, not int64", r.dtype))
	}
	data := r.buffer.data[r.offset:]
	//nolint:gosec // unsafe.Slice for zero-copy performance, bounds checked by NumStored()
	return unsafe.Slice((*int64)(unsafe.Pointer(&data[0])), r.NumStored())
}

// Clone creates a shallow copy of the RawTensor (shares buffer with reference counting).
// The buffer is reference-counted and will be copied only when modified (copy-on-write).
func (r *RawTensor) Clone() *RawTensor {
	r.buffer.addRef() // Increment reference count
	return &RawTensor{
		buffer:  r.buffer, // Share the same buffer
		shape:   r.shape.Clone(),
		stride:  append([]int(nil), r.stride...),
		dtype:   r.dtype,
		device:  r.device,
		offset:  r.offset,
		layout:  r.layout,
		indices: r.indices,
	}
}

// Copy creates a deep copy of the RawTensor with its own freshly allocated buffer.
// Mutations of the copy never affect the original.
func (r *RawTensor) Copy() *RawTensor {
	buf := newTensorBuffer(r.ByteSize())
	copy(buf.data, r.buffer.data[r.offset:r.offset+r.ByteSize()])
	return &RawTensor{
		buffer:  buf,
		shape:   r.shape.Clone(),
		stride:  append([]int(nil), r.stride...),
		dtype:   r.dtype,
		device:  r.device,
		offset:  0,
		layout:  r.layout,
		indices: append([]int64(nil), r.indices...),
	}
}

// Release decrements the reference count and deallocates if it reaches 0.
func (r *RawTensor) Release() {
	r.buffer.release()
}

// IsUnique returns true if this tensor is the only reference to the buffer.
// When true, backends can perform inplace operations for better performance.
func (r *RawTensor) IsUnique() bool {
	return r.buffer.isUnique()
}
