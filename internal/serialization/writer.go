package serialization

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	json "github.com/goccy/go-json"

	"github.com/cinder-ml/cinder/internal/tensor"
)

const cinderVersion = "0.3.1" // Current Cinder version

// Write serializes a state dictionary to w in .cndr format.
//
// Tensors are written in sorted key order so identical state dicts produce
// identical files. Sparse tensors are not serializable.
func Write(w io.Writer, stateDict map[string]*tensor.RawTensor, optimizer string, metadata map[string]string) error {
	names := make([]string, 0, len(stateDict))
	for name := range stateDict {
		names = append(names, name)
	}
	sort.Strings(names)

	// Lay out the data section and collect it for checksumming.
	header := Header{
		FormatVersion: FormatVersion,
		CinderVersion: cinderVersion,
		Optimizer:     optimizer,
		CreatedAt:     time.Now().UTC(),
		Tensors:       make([]TensorMeta, 0, len(stateDict)),
		Metadata:      metadata,
	}

	var data []byte
	var offset int64
	for _, name := range names {
		raw := stateDict[name]
		if raw.IsSparse() {
			return fmt.Errorf("tensor %s: sparse tensors cannot be serialized", name)
		}
		size := int64(raw.ByteSize())
		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   name,
			DType:  dtypeToString(raw.DType()),
			Shape:  []int(raw.Shape()),
			Offset: offset,
			Size:   size,
		})
		data = append(data, raw.Data()[:size]...)
		offset += size
	}
	header.Checksum = ComputeChecksum(data)

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	if _, err := io.WriteString(w, MagicBytes); err != nil {
		return fmt.Errorf("failed to write magic bytes: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(FormatVersion)); err != nil {
		return fmt.Errorf("failed to write version: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return fmt.Errorf("failed to write header size: %w", err)
	}
	if _, err := w.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if pad := padding(len(headerJSON)); pad > 0 {
		if _, err := w.Write(make([]byte, pad)); err != nil {
			return fmt.Errorf("failed to write padding: %w", err)
		}
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}
	return nil
}

// Save writes a state dictionary to a .cndr file at path.
func Save(path string, stateDict map[string]*tensor.RawTensor, optimizer string, metadata map[string]string) error {
	//nolint:gosec // G304: File path comes from user input, which is expected for checkpointing
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := Write(file, stateDict, optimizer, metadata); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
