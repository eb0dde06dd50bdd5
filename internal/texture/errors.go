package texture

import (
	"errors"
	"fmt"
)

var (
	// ErrAtlasFull is returned when the atlas reached its maximum size and
	// cannot fit a glyph.
	ErrAtlasFull = errors.New("texture: glyph atlas is full")

	// ErrReleased is returned when using a released binding.
	ErrReleased = errors.New("texture: binding has been released")

	// ErrNotUploaded is returned when binding a texture with no storage.
	ErrNotUploaded = errors.New("texture: binding has no uploaded storage")
)

// UploadError reports a failed texture upload. The binding keeps the
// error until the next successful upload; batches referencing it are
// dropped by the compositor.
type UploadError struct {
	Texture string
	Width   int
	Height  int
	Err     error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("texture: upload %s (%dx%d): %v", e.Texture, e.Width, e.Height, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }
