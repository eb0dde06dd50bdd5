package ggedit

import (
	"errors"
	"fmt"

	"github.com/gogpu/ggedit/internal/shader"
	"github.com/gogpu/ggedit/internal/texture"
)

var (
	// ErrFrameActive is returned by BeginFrame while a frame is open.
	ErrFrameActive = errors.New("ggedit: frame already in progress")

	// ErrNoFrame is returned by frame calls after EndFrame or Discard.
	ErrNoFrame = errors.New("ggedit: no frame in progress")

	// ErrClosed is returned by a renderer after Close.
	ErrClosed = errors.New("ggedit: renderer closed")

	// ErrNoTexture is returned when a textured drawable has no texture.
	ErrNoTexture = errors.New("ggedit: drawable has no texture")

	// ErrConfigFormat is returned by LoadConfig for unknown file extensions.
	ErrConfigFormat = errors.New("ggedit: unsupported config format")

	// ErrInvalidConfig is returned for configurations that fail validation.
	ErrInvalidConfig = errors.New("ggedit: invalid config")
)

// CompileError reports a shader stage rejected by the compiler or device.
// The program is unusable; batches fall back to the default program of
// their vertex format.
type CompileError = shader.CompileError

// UnknownUniformWarning is logged once per program and uniform name when
// a write targets a uniform the program does not declare.
type UnknownUniformWarning = shader.UnknownUniformWarning

// UploadError reports a failed texture upload. Batches referencing the
// texture are dropped until the next successful upload.
type UploadError = texture.UploadError

// UnbalancedTransformError reports a transform stack whose depth does not
// match what the caller expected.
type UnbalancedTransformError struct {
	// Depth is the stack depth when the violation was detected,
	// Expected the depth it should have had.
	Depth    int
	Expected int
}

func (e *UnbalancedTransformError) Error() string {
	if e.Depth < e.Expected {
		return fmt.Sprintf("ggedit: transform stack underflow: depth %d, want %d", e.Depth, e.Expected)
	}
	return fmt.Sprintf("ggedit: unbalanced transform stack: depth %d, want %d", e.Depth, e.Expected)
}
