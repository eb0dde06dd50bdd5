package gpucore

import "fmt"

// Resource IDs
//
// These opaque IDs represent device resources. Each device implementation
// maintains a mapping between IDs and actual backend resources.

// ProgramID is an opaque handle to a linked vertex+fragment program.
type ProgramID uint64

// TextureID is an opaque handle to a texture.
type TextureID uint64

// InvalidID is the zero value, representing an invalid/null resource.
const InvalidID = 0

// TextureFormat represents the pixel format of a texture.
type TextureFormat uint8

const (
	// TextureFormatRGBA8 is straight-alpha RGBA with 8 bits per channel.
	TextureFormatRGBA8 TextureFormat = iota

	// TextureFormatR8 is single-channel 8-bit format, used for glyph coverage.
	TextureFormatR8
)

// String returns a human-readable name for the format.
func (f TextureFormat) String() string {
	switch f {
	case TextureFormatRGBA8:
		return "RGBA8"
	case TextureFormatR8:
		return "R8"
	default:
		return fmt.Sprintf("Unknown(%d)", f)
	}
}

// BytesPerPixel returns the number of bytes per pixel for the format.
func (f TextureFormat) BytesPerPixel() int {
	if f == TextureFormatR8 {
		return 1
	}
	return 4
}

// FormatForChannels maps a channel count (1, 3 or 4) to a texture format.
// Three-channel input is expanded to RGBA8 by [ExpandRGB].
func FormatForChannels(channels int) (TextureFormat, error) {
	switch channels {
	case 1:
		return TextureFormatR8, nil
	case 3, 4:
		return TextureFormatRGBA8, nil
	}
	return 0, fmt.Errorf("%w: %d channels", ErrUnsupportedFormat, channels)
}

// ExpandRGB converts tightly packed RGB pixels to opaque RGBA.
func ExpandRGB(rgb []byte) []byte {
	out := make([]byte, len(rgb)/3*4)
	for i, j := 0, 0; i+2 < len(rgb); i, j = i+3, j+4 {
		out[j] = rgb[i]
		out[j+1] = rgb[i+1]
		out[j+2] = rgb[i+2]
		out[j+3] = 255
	}
	return out
}

// FilterMode selects texel filtering.
type FilterMode uint8

const (
	// FilterNearest samples the closest texel.
	FilterNearest FilterMode = iota
	// FilterLinear interpolates the four closest texels.
	FilterLinear
)

// WrapMode selects how coordinates outside [0, 1] are resolved.
type WrapMode uint8

const (
	// WrapClamp clamps to the edge texel.
	WrapClamp WrapMode = iota
	// WrapRepeat tiles the texture.
	WrapRepeat
)

// TextureDescriptor describes a texture to create.
type TextureDescriptor struct {
	Label  string
	Width  int
	Height int
	Format TextureFormat
	Filter FilterMode
	Wrap   WrapMode

	// RenderTarget marks textures that passes render into.
	RenderTarget bool
}

// Size returns the byte size of the full texture image.
func (d *TextureDescriptor) Size() int {
	return d.Width * d.Height * d.Format.BytesPerPixel()
}

// BlendMode selects how fragment output combines with the target.
type BlendMode uint8

const (
	// BlendSourceOver is standard straight-alpha compositing:
	// rgb = src*srcA + dst*(1-srcA), a = srcA + dstA*(1-srcA).
	BlendSourceOver BlendMode = iota

	// BlendReplace writes the fragment output unchanged.
	BlendReplace
)

// String returns the blend mode name.
func (m BlendMode) String() string {
	if m == BlendReplace {
		return "replace"
	}
	return "source-over"
}

// LoadOp selects what a pass does with the target's previous contents.
type LoadOp uint8

const (
	// LoadClear clears the target to the pass clear color.
	LoadClear LoadOp = iota
	// LoadKeep preserves the target contents.
	LoadKeep
)

// Stage identifies a shader stage.
type Stage uint8

const (
	StageVertex Stage = iota
	StageFragment
)

// String returns the stage name.
func (s Stage) String() string {
	if s == StageFragment {
		return "fragment"
	}
	return "vertex"
}

// UniformInfo describes one named uniform reflected from a program.
// Offset is the byte offset inside the stage's uniform block; it is
// unused for texture uniforms.
type UniformInfo struct {
	Name   string
	Type   UniformType
	Stage  Stage
	Offset int
}

// ProgramDescriptor describes a program to create.
type ProgramDescriptor struct {
	Label string

	// Kernel names the built-in program behaviour. Devices that cannot
	// execute shader source (the software device) dispatch on it.
	Kernel string

	Format         VertexFormat
	VertexSource   string
	FragmentSource string

	Uniforms []UniformInfo

	// VertexBlockSize and FragmentBlockSize are the byte sizes of the
	// stage uniform blocks, zero when a stage declares none.
	VertexBlockSize   int
	FragmentBlockSize int
}

// Uniform returns the reflected uniform with the given name.
func (d *ProgramDescriptor) Uniform(name string) (UniformInfo, bool) {
	for _, u := range d.Uniforms {
		if u.Name == name {
			return u, true
		}
	}
	return UniformInfo{}, false
}

// SamplesTexture reports whether the fragment stage samples inputTexture.
func (d *ProgramDescriptor) SamplesTexture() bool {
	u, ok := d.Uniform("inputTexture")
	return ok && u.Type == UniformTexture
}

// PassStats counts device work, used by tests and frame diagnostics.
type PassStats struct {
	Passes        int
	Draws         int
	UniformWrites int
	ProgramBinds  int
	TextureBinds  int
	Uploads       int
}

// Kernel names of the built-in programs. Devices that cannot execute
// shader source dispatch on these.
const (
	KernelTexture       = "texture"
	KernelTintedTexture = "tinted_texture"
	KernelFlatColor     = "flat_color"
	KernelGlyph         = "glyph"
	KernelTint          = "effect_tint"
	KernelBlur          = "effect_blur"
)
