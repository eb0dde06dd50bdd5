package ggedit

import (
	"fmt"

	"github.com/gogpu/ggedit/core"
	"github.com/gogpu/ggedit/internal/batch"
	"github.com/gogpu/ggedit/internal/gpucore"
	"github.com/gogpu/ggedit/internal/texture"
	"github.com/gogpu/ggedit/internal/vertex"
)

// Texture is an image or render target on the renderer's device.
type Texture = texture.Binding

// Sampling holds texture filter and wrap modes.
type Sampling = texture.Sampling

// Texture sampling modes.
const (
	FilterNearest = gpucore.FilterNearest
	FilterLinear  = gpucore.FilterLinear
	WrapClamp     = gpucore.WrapClamp
	WrapRepeat    = gpucore.WrapRepeat
)

// Alignment places a glyph run relative to its origin.
type Alignment = texture.Alignment

// Glyph run alignments.
const (
	AlignTop    = texture.AlignTop
	AlignBottom = texture.AlignBottom
)

// Drawable is one element of a frame's ordered draw list: ImageQuad,
// FlatShape, GlyphRun or ToolPreview.
//
// Each drawable carries its own transform, applied inside the frame's
// current transform. A zero Transform means identity.
type Drawable interface {
	// batches converts the drawable into draw batches under the frame's
	// current transform. Zero vertices yield no batch.
	batches(f *Frame) ([]*batch.Batch, error)
}

func local(m core.Matrix) core.Matrix {
	if m == (core.Matrix{}) {
		return core.Identity()
	}
	return m
}

// ImageQuad draws a texture region.
type ImageQuad struct {
	Texture *Texture

	// Dst is the destination rectangle. A zero width or height is taken
	// from the source size times Scale.
	Dst core.Rect

	// Src is the source rectangle in texels, zero for the whole texture.
	Src core.Rect

	// Scale sizes Dst from Src when Dst has no size; zero means 1.
	Scale float32

	// Tint modulates the image color when Tinted is set, as used for
	// selection highlighting.
	Tint   core.RGBA
	Tinted bool

	Transform core.Matrix
}

func (q ImageQuad) batches(f *Frame) ([]*batch.Batch, error) {
	if q.Texture == nil {
		return nil, ErrNoTexture
	}
	b := f.r.imageBatch(q, f.transform(q.Transform))
	if b == nil {
		return nil, nil
	}
	return []*batch.Batch{b}, nil
}

// geometry returns the destination and normalized source rectangles for
// the texture's current size.
func (q ImageQuad) geometry() (dst, uv core.Rect) {
	tex := q.Texture.Resolve()
	w, h := tex.Width(), tex.Height()
	src := q.Src
	if src.Empty() {
		src = core.R(0, 0, float32(w), float32(h))
	}
	dst = q.Dst
	if dst.Empty() {
		scale := q.Scale
		if scale == 0 {
			scale = 1
		}
		dst.W, dst.H = src.W*scale, src.H*scale
	}
	return dst, vertex.NormalizeUV(src, w, h)
}

func (r *Renderer) imageBatch(q ImageQuad, transform core.Matrix) *batch.Batch {
	kind := vertex.PlainTexture
	if q.Tinted {
		kind = vertex.TintedTexture
	}
	dst, uv := q.geometry()
	buf := vertex.NewBuffer(kind.Format())
	buf.AppendQuad(dst, uv, q.Tint)
	b := r.builder.Build("image:"+q.Texture.Label(), kind, buf.Take(), q.Texture, transform)
	if b == nil {
		return nil
	}
	return b.OnRebuild(func() *batch.Batch {
		return r.imageBatch(q, transform)
	})
}

// FlatShape draws solid rectangles, filled or as outlines.
type FlatShape struct {
	Rects []core.Rect
	Color core.RGBA

	// Outline draws each rectangle as a border of this width inside the
	// rectangle. Zero fills.
	Outline float32

	Transform core.Matrix
}

func (s FlatShape) batches(f *Frame) ([]*batch.Batch, error) {
	buf := vertex.NewBuffer(gpucore.FormatPositionColor)
	for _, r := range s.Rects {
		if s.Outline > 0 {
			buf.AppendOutline(r, s.Outline, s.Color)
		} else if !r.Empty() {
			buf.AppendQuad(r, core.Rect{}, s.Color)
		}
	}
	b := f.r.builder.Build("shape", vertex.FlatColor, buf.Take(), nil, f.transform(s.Transform))
	if b == nil {
		return nil, nil
	}
	return []*batch.Batch{b}, nil
}

// GlyphRun draws text from the renderer's glyph atlas. Long runs are split
// into batches of at most batch.MaxGlyphsPerBatch glyphs.
type GlyphRun struct {
	Text   string
	Origin core.Point
	Color  core.RGBA
	Align  Alignment

	Transform core.Matrix
}

func (g GlyphRun) batches(f *Frame) ([]*batch.Batch, error) {
	atlas := f.r.atlas
	quads, err := atlas.Layout(g.Text, g.Origin, g.Align)
	if err != nil {
		return nil, fmt.Errorf("ggedit: glyph run %q: %w", g.Text, err)
	}
	buf := vertex.NewBuffer(gpucore.FormatPositionTexcoordColor)
	for _, q := range quads {
		buf.AppendQuad(q.Dst, q.UV, g.Color)
	}
	transform := f.transform(g.Transform)
	tex := atlas.Binding()
	var out []*batch.Batch
	for i, chunk := range batch.SplitQuads(buf.Take(), gpucore.FormatPositionTexcoordColor, batch.MaxGlyphsPerBatch) {
		if b := f.r.builder.Build(fmt.Sprintf("glyphs:%d", i), vertex.GlyphMask, chunk, tex, transform); b != nil {
			out = append(out, b)
		}
	}
	return out, nil
}

// ToolPreview draws a tool overlay: an optional translucent fill and an
// outline, drawn in one batch.
type ToolPreview struct {
	Bounds core.Rect

	// Fill is drawn under the outline when its alpha is non-zero.
	Fill core.RGBA

	Color core.RGBA

	// Width is the outline width, 1 when zero.
	Width float32

	Transform core.Matrix
}

func (p ToolPreview) batches(f *Frame) ([]*batch.Batch, error) {
	width := p.Width
	if width == 0 {
		width = 1
	}
	buf := vertex.NewBuffer(gpucore.FormatPositionColor)
	if p.Fill.A > 0 && !p.Bounds.Empty() {
		buf.AppendQuad(p.Bounds, core.Rect{}, p.Fill)
	}
	buf.AppendOutline(p.Bounds, width, p.Color)
	b := f.r.builder.Build("tool-preview", vertex.FlatColor, buf.Take(), nil, f.transform(p.Transform))
	if b == nil {
		return nil, nil
	}
	return []*batch.Batch{b}, nil
}
