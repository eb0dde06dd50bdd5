package shader

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/ggedit/core"
	"github.com/gogpu/ggedit/internal/gpucore"
	"github.com/gogpu/ggedit/internal/soft"
	"github.com/gogpu/ggedit/internal/vertex"
)

func newTestLibrary(t *testing.T) (*Library, *soft.Device) {
	t.Helper()
	dev := soft.New()
	lib, err := NewLibrary(dev)
	if err != nil {
		t.Fatalf("NewLibrary failed: %v", err)
	}
	t.Cleanup(lib.Destroy)
	return lib, dev
}

func TestBuiltinsCompile(t *testing.T) {
	lib, _ := newTestLibrary(t)

	for _, src := range Builtins() {
		t.Run(src.Name, func(t *testing.T) {
			p, ok := lib.Program(src.Name)
			if !ok {
				t.Fatalf("program %s not registered", src.Name)
			}
			if !p.HasUniform("transform") {
				t.Error("vertex stage has no transform uniform")
			}
			wantsTexture := strings.Contains(src.Fragment, "textureSample")
			if p.SamplesTexture() != wantsTexture {
				t.Errorf("SamplesTexture() = %v, want %v", p.SamplesTexture(), wantsTexture)
			}
		})
	}
}

func TestBuiltinSourcesContainInterface(t *testing.T) {
	for _, src := range Builtins() {
		t.Run(src.Name, func(t *testing.T) {
			for _, req := range []string{"@vertex", "vs_main", "transform", "@location(0) position"} {
				if !strings.Contains(src.Vertex, req) {
					t.Errorf("vertex stage missing %q", req)
				}
			}
			if !strings.Contains(src.Fragment, "@fragment") || !strings.Contains(src.Fragment, "fs_main") {
				t.Error("fragment stage missing fs_main entry point")
			}
		})
	}
}

func TestIdentityEffectSharesTextureProgram(t *testing.T) {
	lib, _ := newTestLibrary(t)

	tex, _ := lib.Program(vertex.ProgramTexture)
	id, _ := lib.Program(ProgramIdentity)
	if tex != id {
		t.Error("identical source pairs produced two programs")
	}
}

func TestSetUniformIdempotent(t *testing.T) {
	lib, dev := newTestLibrary(t)
	p := lib.ForKind(vertex.FlatColor)

	base := dev.Stats().UniformWrites
	m := gpucore.Mat4(core.Translate(3, 4))

	if err := p.SetUniform("transform", m); err != nil {
		t.Fatalf("SetUniform failed: %v", err)
	}
	if err := p.SetUniform("transform", m); err != nil {
		t.Fatalf("SetUniform failed: %v", err)
	}
	if got := dev.Stats().UniformWrites - base; got != 1 {
		t.Errorf("device writes after two identical SetUniform = %d, want 1", got)
	}

	if err := p.SetUniform("transform", gpucore.Mat4(core.Translate(5, 6))); err != nil {
		t.Fatalf("SetUniform failed: %v", err)
	}
	if got := dev.Stats().UniformWrites - base; got != 2 {
		t.Errorf("device writes after a changed value = %d, want 2", got)
	}
	if v, _ := p.Cached("transform"); v.Matrix() != core.Translate(5, 6) {
		t.Error("cache does not hold the last written value")
	}
}

func TestSetUniformUnknownIsWarning(t *testing.T) {
	lib, dev := newTestLibrary(t)
	p := lib.ForKind(vertex.FlatColor)
	base := dev.Stats().UniformWrites

	for i := 0; i < 3; i++ {
		if err := p.SetUniform("texcoordScale", gpucore.Float(2)); err != nil {
			t.Fatalf("SetUniform(unknown) returned error: %v", err)
		}
	}
	if got := dev.Stats().UniformWrites - base; got != 0 {
		t.Errorf("unknown uniform reached the device %d times", got)
	}
	w := p.Warnings()
	if len(w) != 1 || w[0].Uniform != "texcoordScale" {
		t.Errorf("Warnings() = %v, want one warning for texcoordScale", w)
	}
}

func TestSetUniformTypeMismatch(t *testing.T) {
	lib, _ := newTestLibrary(t)
	p := lib.ForKind(vertex.FlatColor)

	err := p.SetUniform("transform", gpucore.Float(1))
	if !errors.Is(err, gpucore.ErrUniformType) {
		t.Errorf("SetUniform with wrong type = %v, want ErrUniformType", err)
	}
}

func TestUniformLayout(t *testing.T) {
	lib, _ := newTestLibrary(t)

	tests := []struct {
		program string
		uniform string
		typ     gpucore.UniformType
		stage   gpucore.Stage
		offset  int
	}{
		{vertex.ProgramGlyph, "transform", gpucore.UniformMat4, gpucore.StageVertex, 0},
		{vertex.ProgramGlyph, "atlasSize", gpucore.UniformVec2, gpucore.StageVertex, 64},
		{ProgramTint, "offset", gpucore.UniformVec4, gpucore.StageFragment, 0},
		{ProgramBlur, "direction", gpucore.UniformVec2, gpucore.StageFragment, 0},
		{vertex.ProgramTexture, "inputTexture", gpucore.UniformTexture, gpucore.StageFragment, 0},
	}
	for _, tt := range tests {
		t.Run(tt.program+"."+tt.uniform, func(t *testing.T) {
			p, _ := lib.Program(tt.program)
			var found *gpucore.UniformInfo
			for _, u := range p.Uniforms() {
				if u.Name == tt.uniform {
					u := u
					found = &u
				}
			}
			if found == nil {
				t.Fatalf("uniform %s not reflected", tt.uniform)
			}
			if found.Type != tt.typ || found.Stage != tt.stage || found.Offset != tt.offset {
				t.Errorf("got %+v, want type %v stage %v offset %d", *found, tt.typ, tt.stage, tt.offset)
			}
		})
	}
}

func TestReflectRejectsBrokenInterface(t *testing.T) {
	accept := func(gpucore.Stage, string) error { return nil }

	tests := []struct {
		name     string
		vertex   string
		fragment string
		format   gpucore.VertexFormat
		stage    gpucore.Stage
		msg      string
	}{
		{
			name:     "no transform",
			vertex:   strings.Replace(textureVS, "transform: mat4x4<f32>", "model: mat4x4<f32>", 1),
			fragment: textureFS,
			format:   gpucore.FormatPositionTexcoord,
			stage:    gpucore.StageVertex,
			msg:      "transform",
		},
		{
			name:     "wrong format",
			vertex:   textureVS,
			fragment: textureFS,
			format:   gpucore.FormatPositionColor,
			stage:    gpucore.StageVertex,
			msg:      "@location(1)",
		},
		{
			name:     "texture not named inputTexture",
			vertex:   textureVS,
			fragment: strings.ReplaceAll(textureFS, "inputTexture", "image"),
			format:   gpucore.FormatPositionTexcoord,
			stage:    gpucore.StageFragment,
			msg:      "inputTexture",
		},
		{
			name:     "no fs_main",
			vertex:   textureVS,
			fragment: strings.ReplaceAll(textureFS, "fs_main", "main"),
			format:   gpucore.FormatPositionTexcoord,
			stage:    gpucore.StageFragment,
			msg:      "fs_main",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compile(soft.New(), Source{
				Name: "broken", Kernel: gpucore.KernelTexture, Format: tt.format,
				Vertex: tt.vertex, Fragment: tt.fragment,
			}, accept)
			var ce *CompileError
			if !errors.As(err, &ce) {
				t.Fatalf("compile = %v, want *CompileError", err)
			}
			if ce.Stage != tt.stage {
				t.Errorf("Stage = %v, want %v", ce.Stage, tt.stage)
			}
			if !strings.Contains(ce.Message, tt.msg) {
				t.Errorf("Message = %q, want it to mention %q", ce.Message, tt.msg)
			}
		})
	}
}

func TestCompileSyntaxErrorFallsBack(t *testing.T) {
	lib, _ := newTestLibrary(t)

	src := Source{
		Name:     "broken_flat",
		Kernel:   gpucore.KernelFlatColor,
		Format:   gpucore.FormatPositionColor,
		Vertex:   flatVS,
		Fragment: "@fragment fn fs_main( -> @location(0) vec4<f32> { return; }",
	}
	_, err := lib.Compile(src)
	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("Compile = %v, want *CompileError", err)
	}
	if ce.Stage != gpucore.StageFragment {
		t.Errorf("Stage = %v, want fragment", ce.Stage)
	}

	if p := lib.Resolve("broken_flat", gpucore.FormatPositionColor); p != lib.ForKind(vertex.FlatColor) {
		t.Errorf("Resolve returned %s, want the flat color fallback", p.Name())
	}

	if d := lib.Diagnostics(); len(d) != 1 {
		t.Fatalf("first failure produced %d diagnostics, want 1", len(d))
	}
	_, _ = lib.Compile(src)
	if d := lib.Diagnostics(); len(d) != 0 {
		t.Errorf("repeated identical failure produced %d diagnostics, want 0", len(d))
	}
}

func TestFallbackPerFormat(t *testing.T) {
	lib, _ := newTestLibrary(t)

	tests := []struct {
		format gpucore.VertexFormat
		want   string
	}{
		{gpucore.FormatPositionTexcoord, vertex.ProgramTexture},
		{gpucore.FormatPositionTexcoordColor, vertex.ProgramTintedTexture},
		{gpucore.FormatPositionColor, vertex.ProgramFlatColor},
	}
	for _, tt := range tests {
		p := lib.Fallback(tt.format)
		if p.Format() != tt.format {
			t.Errorf("Fallback(%v) consumes %v", tt.format, p.Format())
		}
		if want, _ := lib.Program(tt.want); p != want {
			t.Errorf("Fallback(%v) = %s, want %s", tt.format, p.Name(), tt.want)
		}
	}
}
