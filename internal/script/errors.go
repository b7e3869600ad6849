package script

import (
	"errors"
	"fmt"
)

var (
	// ErrStateClosed is returned when calling into a closed script.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrTimeout is returned when a callback runs past its deadline.
	ErrTimeout = errors.New("lua execution timeout")
)

// ScriptError reports a failure inside a script, naming the chunk or
// callback that raised it.
type ScriptError struct {
	Where string
	Err   error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("script %s: %v", e.Where, e.Err)
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}
