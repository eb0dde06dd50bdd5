package shader

import (
	_ "embed"

	"github.com/gogpu/ggedit/internal/gpucore"
	"github.com/gogpu/ggedit/internal/vertex"
)

//go:embed wgsl/texture_vs.wgsl
var textureVS string

//go:embed wgsl/texture_fs.wgsl
var textureFS string

//go:embed wgsl/tinted_vs.wgsl
var tintedVS string

//go:embed wgsl/tinted_fs.wgsl
var tintedFS string

//go:embed wgsl/flat_vs.wgsl
var flatVS string

//go:embed wgsl/flat_fs.wgsl
var flatFS string

//go:embed wgsl/glyph_vs.wgsl
var glyphVS string

//go:embed wgsl/glyph_fs.wgsl
var glyphFS string

//go:embed wgsl/tint_fs.wgsl
var tintFS string

//go:embed wgsl/blur_fs.wgsl
var blurFS string

// Names of the built-in effect programs.
const (
	ProgramIdentity = "effect_identity"
	ProgramTint     = "effect_tint"
	ProgramBlur     = "effect_blur"
)

// Source is the full description of a program before compilation.
type Source struct {
	Name     string
	Kernel   string
	Format   gpucore.VertexFormat
	Vertex   string
	Fragment string
}

// Key identifies a program by its source pair.
type Key struct {
	Vertex, Fragment string
}

// Key returns the source pair identity.
func (s Source) Key() Key {
	return Key{Vertex: s.Vertex, Fragment: s.Fragment}
}

// Builtins returns the built-in program sources. The identity effect
// shares its source pair with the plain texture program.
func Builtins() []Source {
	return []Source{
		{Name: vertex.ProgramTexture, Kernel: gpucore.KernelTexture, Format: gpucore.FormatPositionTexcoord, Vertex: textureVS, Fragment: textureFS},
		{Name: vertex.ProgramTintedTexture, Kernel: gpucore.KernelTintedTexture, Format: gpucore.FormatPositionTexcoordColor, Vertex: tintedVS, Fragment: tintedFS},
		{Name: vertex.ProgramFlatColor, Kernel: gpucore.KernelFlatColor, Format: gpucore.FormatPositionColor, Vertex: flatVS, Fragment: flatFS},
		{Name: vertex.ProgramGlyph, Kernel: gpucore.KernelGlyph, Format: gpucore.FormatPositionTexcoordColor, Vertex: glyphVS, Fragment: glyphFS},
		{Name: ProgramIdentity, Kernel: gpucore.KernelTexture, Format: gpucore.FormatPositionTexcoord, Vertex: textureVS, Fragment: textureFS},
		{Name: ProgramTint, Kernel: gpucore.KernelTint, Format: gpucore.FormatPositionTexcoord, Vertex: textureVS, Fragment: tintFS},
		{Name: ProgramBlur, Kernel: gpucore.KernelBlur, Format: gpucore.FormatPositionTexcoord, Vertex: textureVS, Fragment: blurFS},
	}
}

// EffectVertexSource returns the vertex stage shared by all effect passes.
// Custom effect files supply only a fragment stage.
func EffectVertexSource() string {
	return textureVS
}
