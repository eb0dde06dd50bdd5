package shader

import (
	"errors"
	"fmt"

	"github.com/gogpu/ggedit/internal/gpucore"
)

// ErrUnknownProgram is returned when a named program does not exist.
var ErrUnknownProgram = errors.New("shader: unknown program")

// CompileError reports a program rejected by the compiler or the device.
// The program is unusable; callers fall back to [Library.Fallback].
type CompileError struct {
	Program string
	Stage   gpucore.Stage
	Message string
	Err     error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("shader: compile %s (%s stage): %s", e.Program, e.Stage, e.Message)
}

func (e *CompileError) Unwrap() error { return e.Err }

// UnknownUniformWarning reports a write to a uniform that the program does
// not declare. It is never returned from SetUniform; it is logged once and
// kept for inspection.
type UnknownUniformWarning struct {
	Program string
	Uniform string
}

func (w *UnknownUniformWarning) Error() string {
	return fmt.Sprintf("shader: program %s has no uniform %q", w.Program, w.Uniform)
}
