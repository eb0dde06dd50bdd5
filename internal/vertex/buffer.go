package vertex

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/ggedit/core"
	"github.com/gogpu/ggedit/internal/gpucore"
)

// VerticesPerQuad is the vertex count of one quad (two triangles).
const VerticesPerQuad = 6

// Buffer accumulates vertices of a single format.
type Buffer struct {
	format gpucore.VertexFormat
	data   []float32
}

// NewBuffer creates an empty buffer for the given format.
func NewBuffer(format gpucore.VertexFormat) *Buffer {
	return &Buffer{format: format}
}

// Format returns the buffer's vertex format.
func (b *Buffer) Format() gpucore.VertexFormat { return b.format }

// Len returns the number of vertices.
func (b *Buffer) Len() int { return b.format.VertexCount(b.data) }

// Data returns the raw float stream. The slice is owned by the buffer.
func (b *Buffer) Data() []float32 { return b.data }

// Reset drops all vertices, keeping capacity.
func (b *Buffer) Reset() { b.data = b.data[:0] }

// Take returns the float stream and leaves the buffer empty.
func (b *Buffer) Take() []float32 {
	d := b.data
	b.data = nil
	return d
}

// AppendQuad appends two triangles covering dst. uv is the texture
// rectangle mapped onto dst and is ignored by PositionColor; color is
// ignored by PositionTexcoord and its alpha by PositionTexcoordColor.
func (b *Buffer) AppendQuad(dst, uv core.Rect, color core.RGBA) {
	x0, y0, x1, y1 := dst.X, dst.Y, dst.Right(), dst.Bottom()
	u0, v0, u1, v1 := uv.X, uv.Y, uv.Right(), uv.Bottom()

	b.vertex(x0, y0, u0, v0, color)
	b.vertex(x1, y0, u1, v0, color)
	b.vertex(x1, y1, u1, v1, color)

	b.vertex(x1, y1, u1, v1, color)
	b.vertex(x0, y1, u0, v1, color)
	b.vertex(x0, y0, u0, v0, color)
}

// AppendOutline appends the outline of r as four quads of the given width,
// drawn inside r.
func (b *Buffer) AppendOutline(r core.Rect, width float32, color core.RGBA) {
	if r.Empty() || width <= 0 {
		return
	}
	if 2*width >= r.W || 2*width >= r.H {
		b.AppendQuad(r, core.Rect{}, color)
		return
	}
	b.AppendQuad(core.R(r.X, r.Y, r.W, width), core.Rect{}, color)
	b.AppendQuad(core.R(r.X, r.Bottom()-width, r.W, width), core.Rect{}, color)
	b.AppendQuad(core.R(r.X, r.Y+width, width, r.H-2*width), core.Rect{}, color)
	b.AppendQuad(core.R(r.Right()-width, r.Y+width, width, r.H-2*width), core.Rect{}, color)
}

func (b *Buffer) vertex(x, y, u, v float32, c core.RGBA) {
	switch b.format {
	case gpucore.FormatPositionTexcoord:
		b.data = append(b.data, x, y, u, v)
	case gpucore.FormatPositionTexcoordColor:
		b.data = append(b.data, x, y, u, v, c.R, c.G, c.B)
	case gpucore.FormatPositionColor:
		b.data = append(b.data, x, y, c.R, c.G, c.B, c.A)
	}
}

// NormalizeUV converts a texel-space source rectangle into [0, 1] texture
// coordinates for a texture of the given size.
func NormalizeUV(src core.Rect, width, height int) core.Rect {
	if width <= 0 || height <= 0 {
		return core.Rect{}
	}
	w, h := float32(width), float32(height)
	return core.Rect{X: src.X / w, Y: src.Y / h, W: src.W / w, H: src.H / h}
}

// FullUV covers the whole texture.
var FullUV = core.Rect{W: 1, H: 1}

// Bytes packs a float stream as little-endian bytes for upload.
func Bytes(data []float32) []byte {
	out := make([]byte, len(data)*4)
	for i, f := range data {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out
}
