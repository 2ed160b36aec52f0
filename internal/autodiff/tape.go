// Package autodiff holds the gradient-recording state shared by training code.
package autodiff

// GradientTape carries the ambient "record gradients" flag consulted during
// forward passes. Optimizers flip it on around a loss closure and restore the
// previous value on every exit path.
type GradientTape struct {
	recording bool
}

// NewGradientTape creates a new gradient tape with recording disabled.
func NewGradientTape() *GradientTape {
	return &GradientTape{}
}

// StartRecording enables gradient recording.
func (t *GradientTape) StartRecording() {
	t.recording = true
}

// StopRecording disables gradient recording.
func (t *GradientTape) StopRecording() {
	t.recording = false
}

// IsRecording returns true if the tape is currently recording.
func (t *GradientTape) IsRecording() bool {
	return t.recording
}

// EnableGrad turns recording on and returns a restore function that reinstates
// the previous state. Call it with defer so the flag is restored on normal
// return, error return and panic alike:
//
//	defer tape.EnableGrad()()
//	loss, err := closure()
func (t *GradientTape) EnableGrad() (restore func()) {
	prev := t.recording
	t.recording = true
	return func() { t.recording = prev }
}
