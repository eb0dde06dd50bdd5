package vertex

import (
	"testing"

	"github.com/gogpu/ggedit/core"
	"github.com/gogpu/ggedit/internal/gpucore"
)

func TestKindFormats(t *testing.T) {
	tests := []struct {
		kind     Kind
		format   gpucore.VertexFormat
		program  string
		textured bool
	}{
		{PlainTexture, gpucore.FormatPositionTexcoord, ProgramTexture, true},
		{TintedTexture, gpucore.FormatPositionTexcoordColor, ProgramTintedTexture, true},
		{FlatColor, gpucore.FormatPositionColor, ProgramFlatColor, false},
		{GlyphMask, gpucore.FormatPositionTexcoordColor, ProgramGlyph, true},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if got := tt.kind.Format(); got != tt.format {
				t.Errorf("Format() = %v, want %v", got, tt.format)
			}
			if got := tt.kind.Program(); got != tt.program {
				t.Errorf("Program() = %q, want %q", got, tt.program)
			}
			if got := tt.kind.Textured(); got != tt.textured {
				t.Errorf("Textured() = %v, want %v", got, tt.textured)
			}
		})
	}
}

func TestAttributeLocations(t *testing.T) {
	for _, f := range []gpucore.VertexFormat{
		gpucore.FormatPositionTexcoord,
		gpucore.FormatPositionTexcoordColor,
		gpucore.FormatPositionColor,
	} {
		attrs := f.Attributes()
		if attrs[0].Name != "position" || attrs[0].Location != 0 {
			t.Errorf("%v: first attribute = %+v, want position at location 0", f, attrs[0])
		}
		for _, a := range attrs {
			switch a.Name {
			case "texcoord":
				if a.Location != 1 {
					t.Errorf("%v: texcoord at location %d, want 1", f, a.Location)
				}
			case "color":
				if a.Location != 1 && a.Location != 2 {
					t.Errorf("%v: color at location %d, want 1 or 2", f, a.Location)
				}
			}
		}
	}

	if got := gpucore.FormatPositionTexcoordColor.Stride(); got != 28 {
		t.Errorf("PositionTexcoordColor stride = %d, want 28", got)
	}
}

func TestAppendQuad(t *testing.T) {
	tests := []struct {
		format gpucore.VertexFormat
		floats int
	}{
		{gpucore.FormatPositionTexcoord, 4 * VerticesPerQuad},
		{gpucore.FormatPositionTexcoordColor, 7 * VerticesPerQuad},
		{gpucore.FormatPositionColor, 6 * VerticesPerQuad},
	}
	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			b := NewBuffer(tt.format)
			b.AppendQuad(core.R(10, 20, 30, 40), FullUV, core.RGB(1, 0, 0))
			if b.Len() != VerticesPerQuad {
				t.Errorf("Len() = %d, want %d", b.Len(), VerticesPerQuad)
			}
			if len(b.Data()) != tt.floats {
				t.Errorf("len(Data()) = %d, want %d", len(b.Data()), tt.floats)
			}
			d := b.Data()
			if d[0] != 10 || d[1] != 20 {
				t.Errorf("first vertex position = (%v, %v), want (10, 20)", d[0], d[1])
			}
		})
	}
}

func TestAppendOutline(t *testing.T) {
	b := NewBuffer(gpucore.FormatPositionColor)
	b.AppendOutline(core.R(0, 0, 10, 10), 1, core.White)
	if got := b.Len(); got != 4*VerticesPerQuad {
		t.Errorf("outline vertices = %d, want %d", got, 4*VerticesPerQuad)
	}

	b.Reset()
	b.AppendOutline(core.R(0, 0, 10, 10), 0, core.White)
	if b.Len() != 0 {
		t.Errorf("zero-width outline produced %d vertices", b.Len())
	}
}

func TestNormalizeUV(t *testing.T) {
	got := NormalizeUV(core.R(16, 8, 32, 16), 64, 32)
	want := core.R(0.25, 0.25, 0.5, 0.5)
	if got != want {
		t.Errorf("NormalizeUV = %+v, want %+v", got, want)
	}
}
