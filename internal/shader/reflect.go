package shader

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/gogpu/ggedit/internal/gpucore"
)

// Fixed bindings of the shader interface.
const (
	bindingVertexUniforms   = 0
	bindingFragmentUniforms = 1
	bindingTexture          = 2
	bindingSampler          = 3
)

var (
	lineCommentRe = regexp.MustCompile(`//[^\n]*`)
	structRe      = regexp.MustCompile(`(?s)struct\s+(\w+)\s*\{(.*?)\}`)
	fieldRe       = regexp.MustCompile(`^\s*((?:@\w+(?:\([^)]*\))?\s*)*)(\w+)\s*:\s*([\w<>]+)\s*$`)
	locationRe    = regexp.MustCompile(`@location\((\d+)\)`)
	uniformVarRe  = regexp.MustCompile(`@binding\((\d+)\)\s*var<uniform>\s+(\w+)\s*:\s*(\w+)\s*;`)
	textureVarRe  = regexp.MustCompile(`@binding\((\d+)\)\s*var\s+(\w+)\s*:\s*texture_2d<f32>\s*;`)
	samplerVarRe  = regexp.MustCompile(`@binding\((\d+)\)\s*var\s+(\w+)\s*:\s*sampler\s*;`)
	vertexMainRe  = regexp.MustCompile(`@vertex\s+fn\s+vs_main\s*\(\s*\w+\s*:\s*(\w+)\s*\)`)
	fragmentMain  = regexp.MustCompile(`@fragment\s+fn\s+fs_main\s*\(`)
)

var wgslTypes = map[string]gpucore.UniformType{
	"f32":         gpucore.UniformFloat,
	"vec2<f32>":   gpucore.UniformVec2,
	"vec3<f32>":   gpucore.UniformVec3,
	"vec4<f32>":   gpucore.UniformVec4,
	"mat4x4<f32>": gpucore.UniformMat4,
	"i32":         gpucore.UniformInt,
}

type wgslField struct {
	name  string
	typ   string
	attrs string
}

// reflection is what the core needs to know about a compiled program.
type reflection struct {
	uniforms          []gpucore.UniformInfo
	vertexBlockSize   int
	fragmentBlockSize int
}

// reflectProgram extracts uniforms and checks the fixed shader interface.
// Failures are returned as messages tagged with the offending stage.
func reflectProgram(vs, fs string, format gpucore.VertexFormat) (reflection, gpucore.Stage, error) {
	var r reflection
	vs = lineCommentRe.ReplaceAllString(vs, "")
	fs = lineCommentRe.ReplaceAllString(fs, "")

	vsStructs := parseStructs(vs)
	m := vertexMainRe.FindStringSubmatch(vs)
	if m == nil {
		return r, gpucore.StageVertex, fmt.Errorf("missing @vertex fn vs_main(in: <struct>)")
	}
	input, ok := vsStructs[m[1]]
	if !ok {
		return r, gpucore.StageVertex, fmt.Errorf("vertex input struct %s not found", m[1])
	}
	if err := checkVertexInput(input, format); err != nil {
		return r, gpucore.StageVertex, err
	}

	vu, vsize, err := reflectBlock(vs, vsStructs, gpucore.StageVertex, bindingVertexUniforms)
	if err != nil {
		return r, gpucore.StageVertex, err
	}
	if !hasUniform(vu, "transform", gpucore.UniformMat4) {
		return r, gpucore.StageVertex, fmt.Errorf("vertex stage declares no mat4x4<f32> transform uniform")
	}

	if !fragmentMain.MatchString(fs) {
		return r, gpucore.StageFragment, fmt.Errorf("missing @fragment fn fs_main")
	}
	fu, fsize, err := reflectBlock(fs, parseStructs(fs), gpucore.StageFragment, bindingFragmentUniforms)
	if err != nil {
		return r, gpucore.StageFragment, err
	}
	tu, err := reflectTexture(fs)
	if err != nil {
		return r, gpucore.StageFragment, err
	}

	r.uniforms = append(append(vu, fu...), tu...)
	r.vertexBlockSize = vsize
	r.fragmentBlockSize = fsize
	return r, 0, nil
}

func parseStructs(src string) map[string][]wgslField {
	out := make(map[string][]wgslField)
	for _, m := range structRe.FindAllStringSubmatch(src, -1) {
		var fields []wgslField
		for _, part := range strings.Split(m[2], ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			f := fieldRe.FindStringSubmatch(part)
			if f == nil {
				continue
			}
			fields = append(fields, wgslField{attrs: f[1], name: f[2], typ: f[3]})
		}
		out[m[1]] = fields
	}
	return out
}

func checkVertexInput(fields []wgslField, format gpucore.VertexFormat) error {
	for _, a := range format.Attributes() {
		want := "f32"
		if a.Components > 1 {
			want = fmt.Sprintf("vec%d<f32>", a.Components)
		}
		found := false
		for _, f := range fields {
			lm := locationRe.FindStringSubmatch(f.attrs)
			if lm == nil {
				continue
			}
			loc, _ := strconv.Atoi(lm[1])
			if uint32(loc) != a.Location {
				continue
			}
			if f.typ != want {
				return fmt.Errorf("vertex input @location(%d) is %s, format %s needs %s", loc, f.typ, format, want)
			}
			found = true
		}
		if !found {
			return fmt.Errorf("vertex input has no @location(%d) for %s", a.Location, a.Name)
		}
	}
	return nil
}

// reflectBlock lays out the uniform block of one stage using WGSL uniform
// address space rules.
func reflectBlock(src string, structs map[string][]wgslField, stage gpucore.Stage, binding int) ([]gpucore.UniformInfo, int, error) {
	matches := uniformVarRe.FindAllStringSubmatch(src, -1)
	if len(matches) == 0 {
		return nil, 0, nil
	}
	if len(matches) > 1 {
		return nil, 0, fmt.Errorf("%s stage declares %d uniform blocks, want one", stage, len(matches))
	}
	m := matches[0]
	if b, _ := strconv.Atoi(m[1]); b != binding {
		return nil, 0, fmt.Errorf("%s uniform block at @binding(%d), want @binding(%d)", stage, b, binding)
	}
	fields, ok := structs[m[3]]
	if !ok {
		return nil, 0, fmt.Errorf("uniform struct %s not found", m[3])
	}

	var infos []gpucore.UniformInfo
	offset := 0
	for _, f := range fields {
		t, ok := wgslTypes[f.typ]
		if !ok {
			return nil, 0, fmt.Errorf("uniform %s has unsupported type %s", f.name, f.typ)
		}
		offset = alignUp(offset, t.Align())
		infos = append(infos, gpucore.UniformInfo{Name: f.name, Type: t, Stage: stage, Offset: offset})
		offset += t.Size()
	}
	return infos, alignUp(offset, 16), nil
}

func reflectTexture(fs string) ([]gpucore.UniformInfo, error) {
	textures := textureVarRe.FindAllStringSubmatch(fs, -1)
	if len(textures) == 0 {
		return nil, nil
	}
	if len(textures) > 1 {
		return nil, fmt.Errorf("fragment stage declares %d textures, want at most one", len(textures))
	}
	t := textures[0]
	if t[2] != "inputTexture" {
		return nil, fmt.Errorf("sampled texture is named %s, want inputTexture", t[2])
	}
	if b, _ := strconv.Atoi(t[1]); b != bindingTexture {
		return nil, fmt.Errorf("inputTexture at @binding(%d), want @binding(%d)", b, bindingTexture)
	}
	s := samplerVarRe.FindStringSubmatch(fs)
	if s == nil {
		return nil, fmt.Errorf("inputTexture has no sampler")
	}
	if b, _ := strconv.Atoi(s[1]); b != bindingSampler {
		return nil, fmt.Errorf("sampler at @binding(%d), want @binding(%d)", b, bindingSampler)
	}
	return []gpucore.UniformInfo{{Name: "inputTexture", Type: gpucore.UniformTexture, Stage: gpucore.StageFragment}}, nil
}

func hasUniform(infos []gpucore.UniformInfo, name string, t gpucore.UniformType) bool {
	for _, u := range infos {
		if u.Name == name && u.Type == t {
			return true
		}
	}
	return false
}

func alignUp(v, a int) int {
	return (v + a - 1) / a * a
}
