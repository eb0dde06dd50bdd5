package gpucore

import (
	"fmt"

	"github.com/gogpu/ggedit/core"
)

// UniformType is the type of a named uniform.
type UniformType uint8

const (
	UniformFloat UniformType = iota
	UniformVec2
	UniformVec3
	UniformVec4
	UniformMat4
	UniformInt

	// UniformTexture is a sampled texture; its value is a texture unit.
	UniformTexture
)

// String returns the WGSL spelling of the type.
func (t UniformType) String() string {
	switch t {
	case UniformFloat:
		return "f32"
	case UniformVec2:
		return "vec2<f32>"
	case UniformVec3:
		return "vec3<f32>"
	case UniformVec4:
		return "vec4<f32>"
	case UniformMat4:
		return "mat4x4<f32>"
	case UniformInt:
		return "i32"
	case UniformTexture:
		return "texture_2d<f32>"
	default:
		return fmt.Sprintf("UniformType(%d)", t)
	}
}

// Components returns the number of scalar components.
func (t UniformType) Components() int {
	switch t {
	case UniformVec2:
		return 2
	case UniformVec3:
		return 3
	case UniformVec4:
		return 4
	case UniformMat4:
		return 16
	case UniformTexture:
		return 0
	default:
		return 1
	}
}

// Size returns the byte size inside a uniform block.
func (t UniformType) Size() int {
	return t.Components() * 4
}

// Align returns the WGSL uniform address space alignment.
func (t UniformType) Align() int {
	switch t {
	case UniformVec2:
		return 8
	case UniformVec3, UniformVec4, UniformMat4:
		return 16
	default:
		return 4
	}
}

// UniformValue is a typed uniform value. It is comparable, which is what
// program-side caches rely on.
type UniformValue struct {
	Type UniformType
	Data [16]float32
}

// Float returns a scalar value.
func Float(v float32) UniformValue {
	return UniformValue{Type: UniformFloat, Data: [16]float32{v}}
}

// Vec2 returns a two-component value.
func Vec2(x, y float32) UniformValue {
	return UniformValue{Type: UniformVec2, Data: [16]float32{x, y}}
}

// Vec3 returns a three-component value.
func Vec3(x, y, z float32) UniformValue {
	return UniformValue{Type: UniformVec3, Data: [16]float32{x, y, z}}
}

// Vec4 returns a four-component value.
func Vec4(x, y, z, w float32) UniformValue {
	return UniformValue{Type: UniformVec4, Data: [16]float32{x, y, z, w}}
}

// ColorValue returns a color as a vec4.
func ColorValue(c core.RGBA) UniformValue {
	return Vec4(c.R, c.G, c.B, c.A)
}

// Mat4 returns a matrix value.
func Mat4(m core.Matrix) UniformValue {
	return UniformValue{Type: UniformMat4, Data: m}
}

// Int returns an integer value.
func Int(v int32) UniformValue {
	return UniformValue{Type: UniformInt, Data: [16]float32{float32(v)}}
}

// TextureUnit returns a sampler value selecting a texture unit.
func TextureUnit(unit int) UniformValue {
	return UniformValue{Type: UniformTexture, Data: [16]float32{float32(unit)}}
}

// Matrix returns the value as a matrix.
func (v UniformValue) Matrix() core.Matrix {
	return core.Matrix(v.Data)
}

// Unit returns the texture unit of a texture value.
func (v UniformValue) Unit() int {
	return int(v.Data[0])
}

// Compatible reports whether a value can be written to a uniform of type t.
func (v UniformValue) Compatible(t UniformType) bool {
	return v.Type == t
}
