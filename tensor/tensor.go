// Copyright 2025 Cinder ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor exposes the core tensor types of the Cinder ML framework.
package tensor

import (
	"github.com/cinder-ml/cinder/internal/tensor"
)

// Shape represents the dimensions of a tensor.
type Shape = tensor.Shape

// DataType represents runtime type information for tensors.
type DataType = tensor.DataType

// Supported data types.
const (
	Float32 = tensor.Float32
	Float64 = tensor.Float64
	Int32   = tensor.Int32
	Int64   = tensor.Int64
)

// Device represents the compute device for tensor operations.
type Device = tensor.Device

// Supported compute devices.
const (
	CPU    = tensor.CPU
	CUDA   = tensor.CUDA
	WebGPU = tensor.WebGPU
)

// Layout describes how a tensor's elements are stored.
type Layout = tensor.Layout

// Supported storage layouts.
const (
	Dense     = tensor.Dense
	SparseCOO = tensor.SparseCOO
)

// RawTensor is the low-level tensor representation.
//
// RawTensor provides:
//   - Shape and type information via Shape(), DType(), Device()
//   - Type-safe data access via AsFloat32(), AsInt64(), etc.
//   - Copy-on-Write semantics via Clone(), deep copies via Copy()
//   - Dense and sparse-COO storage layouts
//
// Most users should use the high-level Tensor[T, B] type instead.
type RawTensor = tensor.RawTensor

// Tensor is a generic tensor with element type T and backend B.
type Tensor[T tensor.DType, B tensor.Backend] = tensor.Tensor[T, B]

// Backend defines the interface that all compute backends must implement.
type Backend = tensor.Backend

// NewRaw creates a new dense RawTensor with the given shape and type.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}

// NewSparseCOO creates a sparse RawTensor in coordinate format.
func NewSparseCOO(shape Shape, dtype DataType, device Device, indices []int64) (*RawTensor, error) {
	return tensor.NewSparseCOO(shape, dtype, device, indices)
}

// New creates a Tensor from a RawTensor and backend.
func New[T tensor.DType, B tensor.Backend](raw *RawTensor, b B) *Tensor[T, B] {
	return tensor.New[T, B](raw, b)
}

// FromSlice creates a tensor from a Go slice.
func FromSlice[T tensor.DType, B tensor.Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	return tensor.FromSlice[T, B](data, shape, b)
}

// Zeros creates a tensor filled with zeros.
func Zeros[T tensor.DType, B tensor.Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Zeros[T, B](shape, b)
}

// Full creates a tensor filled with a specific value.
func Full[T tensor.DType, B tensor.Backend](shape Shape, value T, b B) *Tensor[T, B] {
	return tensor.Full[T, B](shape, value, b)
}

// ZerosLike creates a dense zero-filled RawTensor shaped like the reference.
func ZerosLike(r *RawTensor) *RawTensor {
	return tensor.ZerosLike(r)
}
