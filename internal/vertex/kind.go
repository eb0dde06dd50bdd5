package vertex

import (
	"fmt"

	"github.com/gogpu/ggedit/internal/gpucore"
)

// Kind is the closed set of vertex layout kinds.
type Kind uint8

const (
	PlainTexture Kind = iota
	TintedTexture
	FlatColor
	GlyphMask
)

// Default program names, one per kind.
const (
	ProgramTexture       = "texture"
	ProgramTintedTexture = "tinted_texture"
	ProgramFlatColor     = "flat_color"
	ProgramGlyph         = "glyph"
)

// Kinds returns every layout kind in declaration order.
func Kinds() []Kind {
	return []Kind{PlainTexture, TintedTexture, FlatColor, GlyphMask}
}

// Format returns the attribute format of the kind.
func (k Kind) Format() gpucore.VertexFormat {
	switch k {
	case PlainTexture:
		return gpucore.FormatPositionTexcoord
	case FlatColor:
		return gpucore.FormatPositionColor
	default:
		return gpucore.FormatPositionTexcoordColor
	}
}

// Program returns the name of the kind's default program.
func (k Kind) Program() string {
	switch k {
	case PlainTexture:
		return ProgramTexture
	case TintedTexture:
		return ProgramTintedTexture
	case FlatColor:
		return ProgramFlatColor
	default:
		return ProgramGlyph
	}
}

// Textured reports whether batches of this kind need a texture.
func (k Kind) Textured() bool {
	return k != FlatColor
}

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case PlainTexture:
		return "plain-texture"
	case TintedTexture:
		return "tinted-texture"
	case FlatColor:
		return "flat-color"
	case GlyphMask:
		return "glyph-mask"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}
