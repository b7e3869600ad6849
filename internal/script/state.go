package script

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// DefaultTimeout bounds every chunk and callback.
const DefaultTimeout = time.Second

// State is a sandboxed Lua interpreter. Like the LState it wraps, it must
// be used from one goroutine.
type State struct {
	L       *lua.LState
	timeout time.Duration
	closed  bool
}

// NewState creates a state with only the safe standard libraries. A
// non-positive timeout selects DefaultTimeout.
func NewState(timeout time.Duration) *State {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(L)
	return &State{L: L, timeout: timeout}
}

func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	// io, os, debug, package and channel are never opened. These base
	// functions would let a script read files or compile new chunks.
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// LoadFile runs a script file.
func (s *State) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return &ScriptError{Where: path, Err: err}
	}
	defer f.Close()
	return s.Load(path, f)
}

// Load compiles and runs a chunk. name appears in error messages.
func (s *State) Load(name string, src io.Reader) error {
	if s.closed {
		return ErrStateClosed
	}
	fn, err := s.L.Load(src, name)
	if err != nil {
		return &ScriptError{Where: name, Err: err}
	}
	_, err = s.call(name, fn)
	return err
}

// CallGlobal calls a global function if the script defined one. ok is
// false when the global is not a function.
func (s *State) CallGlobal(name string, args ...lua.LValue) (results []lua.LValue, ok bool, err error) {
	if s.closed {
		return nil, false, ErrStateClosed
	}
	fn := s.L.GetGlobal(name)
	if fn.Type() != lua.LTFunction {
		return nil, false, nil
	}
	results, err = s.call(name, fn, args...)
	return results, true, err
}

func (s *State) call(where string, fn lua.LValue, args ...lua.LValue) ([]lua.LValue, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	s.L.SetContext(ctx)
	defer s.L.RemoveContext()

	top := s.L.GetTop()
	s.L.Push(fn)
	for _, arg := range args {
		s.L.Push(arg)
	}

	if err := s.pcall(len(args)); err != nil {
		s.L.SetTop(top)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %s", ErrTimeout, s.timeout)
		}
		return nil, &ScriptError{Where: where, Err: err}
	}

	n := s.L.GetTop() - top
	if n <= 0 {
		return nil, nil
	}
	results := make([]lua.LValue, n)
	for i := range results {
		results[i] = s.L.Get(top + i + 1)
	}
	s.L.SetTop(top)
	return results, nil
}

func (s *State) pcall(nargs int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return s.L.PCall(nargs, lua.MultRet, nil)
}

// Close releases the interpreter. Safe to call more than once.
func (s *State) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.L.Close()
}
