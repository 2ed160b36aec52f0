package optim

import "errors"

// Common errors.
var (
	// ErrInvalidArgument reports a hyperparameter outside its legal range.
	// Raised at construction time; the optimizer is left unusable.
	ErrInvalidArgument = errors.New("invalid hyperparameter")

	// ErrUnsupportedOperation reports a gradient representation the optimizer
	// cannot consume. Raised during Step; parameters updated earlier in the
	// same call stay updated.
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrIncompatibleMode reports an engine selection the execution context
	// forbids, such as batched dispatch on a graph-capturing backend.
	ErrIncompatibleMode = errors.New("incompatible execution mode")
)
