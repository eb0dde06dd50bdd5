// Package effect runs full-screen post-processing passes over a
// composited frame.
package effect

import (
	"fmt"

	"github.com/gogpu/ggedit/core"
	"github.com/gogpu/ggedit/internal/gpucore"
	"github.com/gogpu/ggedit/internal/shader"
)

// Kind selects the program of a pass.
type Kind uint8

const (
	Identity Kind = iota
	Tint
	Blur
	Custom
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Identity:
		return "identity"
	case Tint:
		return "tint"
	case Blur:
		return "blur"
	case Custom:
		return "custom"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Axis is the direction of a blur pass.
type Axis uint8

const (
	Horizontal Axis = iota
	Vertical
)

// String returns the axis name.
func (a Axis) String() string {
	if a == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// Pass is one full-screen effect pass.
type Pass struct {
	Kind Kind

	// Offset is added to every sampled pixel by a tint pass. Its alpha is
	// ignored.
	Offset core.RGBA

	// Axis and Radius parameterize a blur pass. Radius scales the tap
	// spacing in texels.
	Axis   Axis
	Radius float32

	// Program names the custom effect program and Uniforms holds its
	// parameters.
	Program  string
	Uniforms map[string]gpucore.UniformValue
}

// IdentityPass copies its input.
func IdentityPass() Pass {
	return Pass{Kind: Identity}
}

// TintPass adds offset to every pixel, clamped to the unorm range.
func TintPass(offset core.RGBA) Pass {
	return Pass{Kind: Tint, Offset: offset}
}

// BlurPass blurs along one axis.
func BlurPass(axis Axis, radius float32) Pass {
	return Pass{Kind: Blur, Axis: axis, Radius: radius}
}

// GaussianBlur returns the horizontal and vertical passes of a full blur.
func GaussianBlur(radius float32) []Pass {
	return []Pass{BlurPass(Horizontal, radius), BlurPass(Vertical, radius)}
}

// CustomPass runs the named custom effect program.
func CustomPass(program string, uniforms map[string]gpucore.UniformValue) Pass {
	return Pass{Kind: Custom, Program: program, Uniforms: uniforms}
}

// ProgramName returns the library name of the pass program.
func (p Pass) ProgramName() string {
	switch p.Kind {
	case Tint:
		return shader.ProgramTint
	case Blur:
		return shader.ProgramBlur
	case Custom:
		return p.Program
	default:
		return shader.ProgramIdentity
	}
}

// String describes the pass.
func (p Pass) String() string {
	switch p.Kind {
	case Blur:
		return fmt.Sprintf("blur(%s, %g)", p.Axis, p.Radius)
	case Custom:
		return "custom(" + p.Program + ")"
	default:
		return p.Kind.String()
	}
}

// uniforms returns the pass parameters for an input of the given size.
func (p Pass) uniforms(width, height int) map[string]gpucore.UniformValue {
	switch p.Kind {
	case Tint:
		return map[string]gpucore.UniformValue{
			"offset": gpucore.Vec4(p.Offset.R, p.Offset.G, p.Offset.B, 0),
		}
	case Blur:
		r := p.Radius
		if r <= 0 {
			r = 1
		}
		d := gpucore.Vec2(r/float32(width), 0)
		if p.Axis == Vertical {
			d = gpucore.Vec2(0, r/float32(height))
		}
		return map[string]gpucore.UniformValue{"direction": d}
	case Custom:
		return p.Uniforms
	}
	return nil
}
