// Package app hosts the renderer: it owns the terminal, the world, and the
// asset store, and drives ticks at a fixed rate.
package app

import (
	"errors"
	"fmt"
)

var (
	// ErrQuit signals a normal exit. Drivers return it to stop the runner.
	ErrQuit = errors.New("quit requested")

	// ErrAlreadyRunning indicates Run was called on a running runner.
	ErrAlreadyRunning = errors.New("runner already running")

	// ErrNotRunning indicates an operation that needs a running runner.
	ErrNotRunning = errors.New("runner not running")

	// ErrUnknownDevice indicates a device name the host cannot build.
	ErrUnknownDevice = errors.New("unknown device")
)

// InitError reports a component that failed to start.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return "init " + e.Component + ": " + e.Err.Error()
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// OperationError reports a failed operation on a named target.
type OperationError struct {
	Op     string // e.g. "load", "reload"
	Target string // e.g. a file path or asset name
	Err    error
}

// NewOperationError creates an OperationError.
func NewOperationError(op, target string, err error) *OperationError {
	return &OperationError{Op: op, Target: target, Err: err}
}

func (e *OperationError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Op
	if e.Target != "" {
		msg = fmt.Sprintf("%s %s", e.Op, e.Target)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// RecoveredPanicError wraps a panic raised by a driver callback.
type RecoveredPanicError struct {
	Value any
	Stack string
}

func (e *RecoveredPanicError) Error() string {
	if e.Stack != "" {
		return fmt.Sprintf("panic: %v\n%s", e.Value, e.Stack)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// ErrorList collects independent failures. Not safe for concurrent use.
type ErrorList struct {
	errors []error
}

// Add appends err unless it is nil.
func (e *ErrorList) Add(err error) {
	if err != nil {
		e.errors = append(e.errors, err)
	}
}

// Len returns the number of errors.
func (e *ErrorList) Len() int {
	return len(e.errors)
}

// Errors returns a copy of the collected errors.
func (e *ErrorList) Errors() []error {
	if e == nil || len(e.errors) == 0 {
		return nil
	}
	out := make([]error, len(e.errors))
	copy(out, e.errors)
	return out
}

func (e *ErrorList) Error() string {
	switch {
	case e == nil || len(e.errors) == 0:
		return ""
	case len(e.errors) == 1:
		return e.errors[0].Error()
	default:
		return fmt.Sprintf("%d errors: first: %v", len(e.errors), e.errors[0])
	}
}

// Unwrap exposes every collected error to errors.Is and errors.As.
func (e *ErrorList) Unwrap() []error {
	return e.Errors()
}

// AsError returns nil for an empty list.
func (e *ErrorList) AsError() error {
	if e == nil || len(e.errors) == 0 {
		return nil
	}
	return e
}
