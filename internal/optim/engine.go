package optim

import "fmt"

// Engine selects the execution strategy used to apply a group's updates.
type Engine int

// Available engines.
const (
	// EngineAuto lets the optimizer choose. It currently resolves to
	// EngineScalar; batched execution stays opt-in.
	EngineAuto Engine = iota

	// EngineScalar applies the update formula one parameter at a time.
	EngineScalar

	// EngineForeach applies each step of the update formula across the whole
	// batch of same-group parameters at once. Requires a backend that permits
	// heterogeneous batched dispatch.
	EngineForeach
)

// String returns a human-readable engine name.
func (e Engine) String() string {
	switch e {
	case EngineAuto:
		return "auto"
	case EngineScalar:
		return "scalar"
	case EngineForeach:
		return "foreach"
	default:
		return "unknown"
	}
}

// resolve maps EngineAuto to the current default strategy.
func (e Engine) resolve() Engine {
	if e == EngineAuto {
		return EngineScalar
	}
	return e
}

// UnmarshalYAML decodes an engine name from configuration files.
// Accepts "auto" (or empty), "scalar" and "foreach".
func (e *Engine) UnmarshalYAML(unmarshal func(any) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return err
	}
	switch name {
	case "", "auto":
		*e = EngineAuto
	case "scalar":
		*e = EngineScalar
	case "foreach":
		*e = EngineForeach
	default:
		return fmt.Errorf("%w: unknown engine %q", ErrInvalidArgument, name)
	}
	return nil
}

// MarshalYAML encodes the engine as its name.
func (e Engine) MarshalYAML() (any, error) {
	return e.String(), nil
}
