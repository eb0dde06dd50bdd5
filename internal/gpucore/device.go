package gpucore

import "github.com/gogpu/ggedit/core"

// MaxTextureUnits is the number of texture units a program can sample.
const MaxTextureUnits = 4

// Device abstracts over the GPU backends the rendering core runs on.
//
// The surface is deliberately stateful: the current program, bound textures
// and blend mode persist between draws inside a pass, so callers can skip
// redundant binds. Every draw happens inside BeginPass/EndPass and renders
// into the pass target texture.
//
// Resource lifecycle:
//   - Resources are created via Create* methods
//   - Resources must be explicitly destroyed via Destroy* methods
//   - IDs become invalid after destruction and are never reused
type Device interface {
	// Name returns a short backend name for diagnostics.
	Name() string

	// MaxTextureSize returns the largest supported texture side in texels.
	MaxTextureSize() int

	// === Programs ===

	// CreateProgram links a vertex+fragment program. Source validation
	// happens before this call; an error here means the device rejected
	// the program.
	CreateProgram(desc *ProgramDescriptor) (ProgramID, error)

	// DestroyProgram releases a program.
	DestroyProgram(id ProgramID)

	// SetUniform writes a uniform value into the program's storage.
	// The write is visible to every later draw with that program.
	SetUniform(id ProgramID, name string, v UniformValue) error

	// === Textures ===

	// CreateTexture allocates a texture with undefined contents.
	CreateTexture(desc *TextureDescriptor) (TextureID, error)

	// DestroyTexture releases a texture.
	DestroyTexture(id TextureID)

	// WriteTexture replaces the full texture image.
	WriteTexture(id TextureID, data []byte) error

	// WriteTextureRegion replaces a sub-rectangle of the texture image.
	// data is tightly packed w*h pixels.
	WriteTextureRegion(id TextureID, x, y, w, h int, data []byte) error

	// ReadTexture downloads the full texture image, tightly packed.
	ReadTexture(id TextureID) ([]byte, error)

	// === Passes ===

	// BeginPass starts rendering into target.
	BeginPass(target TextureID, load LoadOp, clear core.RGBA) error

	// UseProgram makes id the current program.
	UseProgram(id ProgramID) error

	// BindTexture binds a texture to a unit.
	BindTexture(unit int, id TextureID) error

	// SetBlend selects the blend mode for subsequent draws.
	SetBlend(mode BlendMode)

	// Draw renders a triangle list in the current program's vertex format.
	Draw(vertices []float32) error

	// EndPass finishes the pass. Devices that record commands submit them
	// here and wait for completion.
	EndPass() error

	// Stats returns the cumulative work counters.
	Stats() PassStats

	// Destroy releases every resource owned by the device.
	Destroy()
}
