package serialization

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"

	"github.com/cinder-ml/cinder/internal/tensor"
)

// Read deserializes a state dictionary from r.
//
// The payload is validated against the header before any tensor is built:
// bounds, overlaps, dtypes, shape/size consistency and the SHA-256 checksum.
// Restored tensors live on the CPU device.
func Read(r io.Reader) (map[string]*tensor.RawTensor, *Header, error) {
	magic := make([]byte, len(MagicBytes))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, nil, fmt.Errorf("failed to read magic bytes: %w", err)
	}
	if string(magic) != MagicBytes {
		return nil, nil, fmt.Errorf("%w: got %q", ErrInvalidMagic, magic)
	}

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, nil, fmt.Errorf("failed to read version: %w", err)
	}
	if version != FormatVersion {
		return nil, nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	var headerSize uint64
	if err := binary.Read(r, binary.LittleEndian, &headerSize); err != nil {
		return nil, nil, fmt.Errorf("failed to read header size: %w", err)
	}
	if headerSize > MaxHeaderSize {
		return nil, nil, fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, headerSize)
	}

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerJSON); err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}
	var header Header
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal header: %w", err)
	}

	if pad := padding(int(headerSize)); pad > 0 {
		if _, err := io.CopyN(io.Discard, r, int64(pad)); err != nil {
			return nil, nil, fmt.Errorf("failed to skip padding: %w", err)
		}
	}

	dataSize, err := validateLayout(header.Tensors)
	if err != nil {
		return nil, nil, err
	}

	data := make([]byte, dataSize)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, nil, fmt.Errorf("failed to read tensor data: %w", err)
	}
	if err := ValidateChecksum(ComputeChecksum(data), header.Checksum); err != nil {
		return nil, nil, err
	}

	stateDict := make(map[string]*tensor.RawTensor, len(header.Tensors))
	for _, meta := range header.Tensors {
		dtype, ok := stringToDtype(meta.DType)
		if !ok {
			return nil, nil, fmt.Errorf("%w: tensor %s has dtype %q", ErrUnknownDType, meta.Name, meta.DType)
		}
		raw, err := tensor.NewRaw(tensor.Shape(meta.Shape), dtype, tensor.CPU)
		if err != nil {
			return nil, nil, fmt.Errorf("tensor %s: %w", meta.Name, err)
		}
		if int64(raw.ByteSize()) != meta.Size {
			return nil, nil, fmt.Errorf("%w: tensor %s declares %d bytes for shape %v %s",
				ErrSizeMismatch, meta.Name, meta.Size, meta.Shape, meta.DType)
		}
		copy(raw.Data(), data[meta.Offset:meta.Offset+meta.Size])
		stateDict[meta.Name] = raw
	}
	return stateDict, &header, nil
}

// Load reads a state dictionary from a .cndr file at path.
func Load(path string) (map[string]*tensor.RawTensor, *Header, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for checkpointing
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return Read(file)
}

// validateLayout checks tensor metadata for negative ranges, overlaps and
// gaps, and returns the total data section size.
//
// Writers emit tensors contiguously in offset order, so any gap or overlap
// means the file was corrupted or hand-edited.
func validateLayout(tensors []TensorMeta) (int64, error) {
	var expectedOffset int64
	var total int64
	for _, meta := range tensors {
		if meta.Offset < 0 || meta.Size < 0 {
			return 0, fmt.Errorf("%w: tensor %s (offset=%d, size=%d)",
				ErrNegativeOffset, meta.Name, meta.Offset, meta.Size)
		}
		if meta.Offset != expectedOffset {
			return 0, fmt.Errorf("%w: tensor %s at offset %d, expected %d",
				ErrOffsetOverlap, meta.Name, meta.Offset, expectedOffset)
		}
		expectedOffset += meta.Size
		total += meta.Size
		if total > MaxDataSize {
			return 0, fmt.Errorf("%w: tensor %s", ErrOutOfBounds, meta.Name)
		}
	}
	return total, nil
}
