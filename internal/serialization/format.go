// Package serialization implements the .cndr checkpoint format for optimizer state.
//
// Layout:
//
//	[4]  magic "CNDR"
//	[4]  format version (uint32, little endian)
//	[8]  header size (uint64, little endian)
//	[..] header JSON
//	[..] zero padding to 64-byte alignment
//	[..] tensor data, concatenated in header order
//
// The header carries a SHA-256 checksum of the data section; readers refuse
// files whose payload does not match it.
package serialization

import (
	"time"

	"github.com/cinder-ml/cinder/internal/tensor"
)

// Format constants.
const (
	MagicBytes      = "CNDR"
	FormatVersion   = 1
	HeaderAlignment = 64        // Align tensor data to 64 bytes
	MaxHeaderSize   = 16 << 20  // Refuse absurd headers before allocating
	MaxDataSize     = 1 << 40   // Refuse absurd data sections
	fixedPrefixSize = 4 + 4 + 8 // Magic + version + header size
)

// Header is the JSON header of a .cndr file.
type Header struct {
	FormatVersion int               `json:"format_version"`     // Version of the .cndr format
	CinderVersion string            `json:"cinder_version"`     // Version of Cinder that created this file
	Optimizer     string            `json:"optimizer"`          // Optimizer type ("RMSprop", "SGD", ...)
	CreatedAt     time.Time         `json:"created_at"`         // When the file was created
	Tensors       []TensorMeta      `json:"tensors"`            // Tensor metadata, in data order
	Checksum      string            `json:"checksum"`           // Hex SHA-256 of the data section
	Metadata      map[string]string `json:"metadata,omitempty"` // Custom metadata
}

// TensorMeta describes one tensor in a .cndr file.
type TensorMeta struct {
	Name   string `json:"name"`   // State key (e.g., "square_avg.0")
	DType  string `json:"dtype"`  // Data type (e.g., "float32")
	Shape  []int  `json:"shape"`  // Tensor shape
	Offset int64  `json:"offset"` // Offset in the data section
	Size   int64  `json:"size"`   // Size in bytes
}

// dtypeToString converts tensor.DataType to its serialized name.
func dtypeToString(dt tensor.DataType) string {
	return dt.String()
}

// stringToDtype converts a serialized name back to tensor.DataType.
func stringToDtype(s string) (tensor.DataType, bool) {
	switch s {
	case "float32":
		return tensor.Float32, true
	case "float64":
		return tensor.Float64, true
	case "int32":
		return tensor.Int32, true
	case "int64":
		return tensor.Int64, true
	default:
		return 0, false
	}
}

// padding returns the number of zero bytes between the header and the data
// section for a given header length.
func padding(headerLen int) int {
	pos := fixedPrefixSize + headerLen
	return (HeaderAlignment - (pos % HeaderAlignment)) % HeaderAlignment
}
