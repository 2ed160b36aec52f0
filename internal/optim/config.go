package optim

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// optionsFile mirrors the on-disk layout of a group configuration:
//
//	groups:
//	  - lr: 0.01
//	    alpha: 0.99
//	    eps: 1e-8
//	    momentum: 0.9
//	    centered: true
//	    engine: foreach
//	  - lr: 0.001
type optionsFile struct {
	Groups []Options `yaml:"groups"`
}

// LoadOptions reads per-group hyperparameter sets from YAML.
//
// Unknown fields are rejected, and every group is validated with the same
// rules as construction, so a config error surfaces before any optimizer is
// built from it.
func LoadOptions(r io.Reader) ([]Options, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file optionsFile
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty group configuration", ErrInvalidArgument)
		}
		return nil, fmt.Errorf("failed to decode group configuration: %w", err)
	}
	if len(file.Groups) == 0 {
		return nil, fmt.Errorf("%w: group configuration defines no groups", ErrInvalidArgument)
	}

	for i, opts := range file.Groups {
		if err := opts.validate(); err != nil {
			return nil, fmt.Errorf("group %d: %w", i, err)
		}
	}
	return file.Groups, nil
}
