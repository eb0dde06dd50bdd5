package gpucore

import "fmt"

// VertexFormat identifies one of the fixed vertex attribute layouts.
// Every format stores float32 components, tightly packed.
type VertexFormat uint8

const (
	// FormatPositionTexcoord is {pos vec2 @0, uv vec2 @1}.
	FormatPositionTexcoord VertexFormat = iota

	// FormatPositionTexcoordColor is {pos vec2 @0, uv vec2 @1, color vec3 @2}.
	FormatPositionTexcoordColor

	// FormatPositionColor is {pos vec2 @0, color vec4 @1}.
	FormatPositionColor
)

// Attribute describes one vertex attribute.
type Attribute struct {
	Name       string
	Location   uint32
	Components int
	// Offset is measured in float32 components from the start of the vertex.
	Offset int
}

var vertexAttributes = [...][]Attribute{
	FormatPositionTexcoord: {
		{Name: "position", Location: 0, Components: 2, Offset: 0},
		{Name: "texcoord", Location: 1, Components: 2, Offset: 2},
	},
	FormatPositionTexcoordColor: {
		{Name: "position", Location: 0, Components: 2, Offset: 0},
		{Name: "texcoord", Location: 1, Components: 2, Offset: 2},
		{Name: "color", Location: 2, Components: 3, Offset: 4},
	},
	FormatPositionColor: {
		{Name: "position", Location: 0, Components: 2, Offset: 0},
		{Name: "color", Location: 1, Components: 4, Offset: 2},
	},
}

// Attributes returns the attribute schema of the format.
func (f VertexFormat) Attributes() []Attribute {
	if int(f) >= len(vertexAttributes) {
		return nil
	}
	return vertexAttributes[f]
}

// Components returns the number of float32 values per vertex.
func (f VertexFormat) Components() int {
	n := 0
	for _, a := range f.Attributes() {
		n += a.Components
	}
	return n
}

// Stride returns the vertex size in bytes.
func (f VertexFormat) Stride() int {
	return f.Components() * 4
}

// VertexCount returns how many whole vertices a float stream holds.
func (f VertexFormat) VertexCount(data []float32) int {
	c := f.Components()
	if c == 0 {
		return 0
	}
	return len(data) / c
}

// String returns the format name.
func (f VertexFormat) String() string {
	switch f {
	case FormatPositionTexcoord:
		return "PositionTexcoord"
	case FormatPositionTexcoordColor:
		return "PositionTexcoordColor"
	case FormatPositionColor:
		return "PositionColor"
	default:
		return fmt.Sprintf("VertexFormat(%d)", f)
	}
}
