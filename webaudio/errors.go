package webaudio

import (
	"errors"
	"fmt"
)

// Error taxonomy. Lower-level errors are wrapped under one of these, so
// callers can test for both the category and the specific cause.
var (
	// ErrConfiguration reports an invalid parameter or a bad HRTF dataset.
	ErrConfiguration = errors.New("webaudio: configuration error")
	// ErrGraph reports a rejected connect: cycle, channel mismatch or a
	// removed node.
	ErrGraph = errors.New("webaudio: graph error")
	// ErrInvalidState reports a lifecycle call in the wrong state.
	ErrInvalidState = errors.New("webaudio: invalid state")
	// ErrDecode reports malformed or unsupported audio data.
	ErrDecode = errors.New("webaudio: decode error")
	// ErrProcessing reports a fault inside a node during rendering.
	ErrProcessing = errors.New("webaudio: processing error")
)

func configError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

func stateError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}

func graphError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrGraph, fmt.Sprintf(format, args...))
}

// ProcessingError describes a node fault caught by the render engine. The
// node produced silence for the quantum starting at Frame.
type ProcessingError struct {
	Node  string
	Type  NodeType
	Frame int64
	Time  float64
	Cause error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("webaudio: processing error in %s %s at frame %d: %v", e.Type, e.Node, e.Frame, e.Cause)
}

// Unwrap returns ErrProcessing and the cause.
func (e *ProcessingError) Unwrap() []error {
	return []error{ErrProcessing, e.Cause}
}

// panicError wraps a recovered panic value.
type panicError struct {
	value any
}

func (p panicError) Error() string {
	return fmt.Sprintf("panic: %v", p.value)
}
