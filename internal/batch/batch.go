// Package batch groups vertices with the program and texture needed to
// render them in one draw call.
package batch

import (
	"fmt"

	"github.com/gogpu/ggedit/core"
	"github.com/gogpu/ggedit/internal/gpucore"
	"github.com/gogpu/ggedit/internal/shader"
	"github.com/gogpu/ggedit/internal/texture"
	"github.com/gogpu/ggedit/internal/vertex"
)

// MaxGlyphsPerBatch bounds the glyph quads of one text batch. Longer runs
// are split into several batches.
const MaxGlyphsPerBatch = 200

// Batch is a vertex list plus the program and texture that render it.
// Batches are immutable once built.
type Batch struct {
	label      string
	kind       vertex.Kind
	vertices   []float32
	program    *shader.Program
	texture    *texture.Binding
	generation uint64
	transform  core.Matrix
	rebuild    func() *Batch
}

// Label returns the debug label.
func (b *Batch) Label() string { return b.label }

// Kind returns the vertex layout kind.
func (b *Batch) Kind() vertex.Kind { return b.kind }

// Vertices returns the interleaved vertex data.
func (b *Batch) Vertices() []float32 { return b.vertices }

// VertexCount returns the number of vertices.
func (b *Batch) VertexCount() int { return b.kind.Format().VertexCount(b.vertices) }

// Program returns the program the batch renders with.
func (b *Batch) Program() *shader.Program { return b.program }

// Texture returns the sampled texture, nil for flat-color batches.
func (b *Batch) Texture() *texture.Binding { return b.texture }

// Generation returns the texture generation the batch was built against.
func (b *Batch) Generation() uint64 { return b.generation }

// Transform returns the clip-space transform of the batch.
func (b *Batch) Transform() core.Matrix { return b.transform }

// Valid reports whether the texture still holds the upload the batch was
// built against. A binding redirected by atlas growth stays valid: its
// texel coordinates carry over to the new texture.
func (b *Batch) Valid() bool {
	return b.texture == nil || b.texture.Generation() == b.generation
}

// OnRebuild sets the function that rebuilds the batch from its source
// drawable when it goes stale.
func (b *Batch) OnRebuild(fn func() *Batch) *Batch {
	b.rebuild = fn
	return b
}

// Rebuild returns a fresh batch from the rebuild hook. It returns false
// when the batch has no hook or the hook yields nothing.
func (b *Batch) Rebuild() (*Batch, bool) {
	if b.rebuild == nil {
		return nil, false
	}
	nb := b.rebuild()
	return nb, nb != nil
}

func (b *Batch) String() string {
	return fmt.Sprintf("Batch(%s %s, %d vertices)", b.label, b.kind, b.VertexCount())
}

// Builder creates batches with the library's program for each kind.
type Builder struct {
	lib *shader.Library
}

// NewBuilder creates a builder over lib.
func NewBuilder(lib *shader.Library) *Builder {
	return &Builder{lib: lib}
}

// Build creates a batch with the default program of kind. It returns nil
// when vertices hold no complete vertex; such a batch must never reach
// the compositor.
func (bu *Builder) Build(label string, kind vertex.Kind, vertices []float32, tex *texture.Binding, transform core.Matrix) *Batch {
	return bu.BuildWith(label, kind, kind.Program(), vertices, tex, transform)
}

// BuildWith is Build with an explicit program name. Unknown or failed
// programs resolve to the fallback for the kind's vertex format.
func (bu *Builder) BuildWith(label string, kind vertex.Kind, program string, vertices []float32, tex *texture.Binding, transform core.Matrix) *Batch {
	format := kind.Format()
	n := format.VertexCount(vertices)
	if n == 0 {
		return nil
	}
	b := &Batch{
		label:     label,
		kind:      kind,
		vertices:  vertices[:n*format.Components()],
		program:   bu.lib.Resolve(program, format),
		transform: transform,
	}
	if kind.Textured() && tex != nil {
		b.texture = tex
		b.generation = tex.Generation()
	}
	return b
}

// SplitQuads cuts a quad list into chunks of at most maxQuads quads.
func SplitQuads(vertices []float32, format gpucore.VertexFormat, maxQuads int) [][]float32 {
	per := vertex.VerticesPerQuad * format.Components()
	if maxQuads <= 0 || len(vertices) == 0 {
		return nil
	}
	step := maxQuads * per
	var out [][]float32
	for len(vertices) > step {
		out = append(out, vertices[:step:step])
		vertices = vertices[step:]
	}
	return append(out, vertices)
}
