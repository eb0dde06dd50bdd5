package shader

import (
	"fmt"

	"github.com/gogpu/naga"

	"github.com/gogpu/ggedit/internal/gpucore"
)

// Validator checks one shader stage before the device sees it.
type Validator func(stage gpucore.Stage, source string) error

// NagaValidator compiles the stage with naga and discards the output.
func NagaValidator(_ gpucore.Stage, source string) error {
	_, err := naga.Compile(source)
	return err
}

// Program is a linked vertex+fragment shader pair with a uniform cache.
type Program struct {
	dev  gpucore.Device
	id   gpucore.ProgramID
	desc gpucore.ProgramDescriptor
	key  Key

	uniforms map[string]gpucore.UniformInfo
	cache    map[string]gpucore.UniformValue
	warnings map[string]*UnknownUniformWarning
}

// Compile validates both stages with naga, reflects the uniform table and
// links the program on the device. Any failure is a *CompileError.
func Compile(dev gpucore.Device, src Source) (*Program, error) {
	return compile(dev, src, NagaValidator)
}

func compile(dev gpucore.Device, src Source, validate Validator) (*Program, error) {
	if validate != nil {
		if err := validate(gpucore.StageVertex, src.Vertex); err != nil {
			return nil, &CompileError{Program: src.Name, Stage: gpucore.StageVertex, Message: err.Error(), Err: err}
		}
		if err := validate(gpucore.StageFragment, src.Fragment); err != nil {
			return nil, &CompileError{Program: src.Name, Stage: gpucore.StageFragment, Message: err.Error(), Err: err}
		}
	}

	refl, stage, err := reflectProgram(src.Vertex, src.Fragment, src.Format)
	if err != nil {
		return nil, &CompileError{Program: src.Name, Stage: stage, Message: err.Error(), Err: err}
	}

	desc := gpucore.ProgramDescriptor{
		Label:             src.Name,
		Kernel:            src.Kernel,
		Format:            src.Format,
		VertexSource:      src.Vertex,
		FragmentSource:    src.Fragment,
		Uniforms:          refl.uniforms,
		VertexBlockSize:   refl.vertexBlockSize,
		FragmentBlockSize: refl.fragmentBlockSize,
	}
	id, err := dev.CreateProgram(&desc)
	if err != nil {
		return nil, &CompileError{Program: src.Name, Stage: gpucore.StageFragment, Message: err.Error(), Err: err}
	}

	p := &Program{
		dev:      dev,
		id:       id,
		desc:     desc,
		key:      src.Key(),
		uniforms: make(map[string]gpucore.UniformInfo, len(refl.uniforms)),
		cache:    make(map[string]gpucore.UniformValue),
		warnings: make(map[string]*UnknownUniformWarning),
	}
	for _, u := range refl.uniforms {
		p.uniforms[u.Name] = u
	}
	gpucore.Logger().Debug("shader: program linked",
		"program", src.Name, "format", src.Format, "uniforms", len(refl.uniforms))
	return p, nil
}

// ID returns the device program handle.
func (p *Program) ID() gpucore.ProgramID { return p.id }

// Name returns the program label.
func (p *Program) Name() string { return p.desc.Label }

// Key returns the source pair identity.
func (p *Program) Key() Key { return p.key }

// Format returns the vertex format the program consumes.
func (p *Program) Format() gpucore.VertexFormat { return p.desc.Format }

// SamplesTexture reports whether the fragment stage samples inputTexture.
func (p *Program) SamplesTexture() bool { return p.desc.SamplesTexture() }

// HasUniform reports whether the program declares the named uniform.
func (p *Program) HasUniform(name string) bool {
	_, ok := p.uniforms[name]
	return ok
}

// Uniforms returns the reflected uniform table.
func (p *Program) Uniforms() []gpucore.UniformInfo { return p.desc.Uniforms }

// SetUniform writes a uniform through the cache. Unknown names are a
// no-op, logged once per name. An unchanged value never reaches the
// device; a changed value is written immediately.
func (p *Program) SetUniform(name string, v gpucore.UniformValue) error {
	info, ok := p.uniforms[name]
	if !ok {
		if _, seen := p.warnings[name]; !seen {
			w := &UnknownUniformWarning{Program: p.desc.Label, Uniform: name}
			p.warnings[name] = w
			gpucore.Logger().Warn(w.Error())
		}
		return nil
	}
	if !v.Compatible(info.Type) {
		return fmt.Errorf("shader: %s.%s: %w: got %s, want %s",
			p.desc.Label, name, gpucore.ErrUniformType, v.Type, info.Type)
	}
	if cached, ok := p.cache[name]; ok && cached == v {
		return nil
	}
	if err := p.dev.SetUniform(p.id, name, v); err != nil {
		return fmt.Errorf("shader: set %s.%s: %w", p.desc.Label, name, err)
	}
	p.cache[name] = v
	return nil
}

// Cached returns the last value written to the device for name.
func (p *Program) Cached(name string) (gpucore.UniformValue, bool) {
	v, ok := p.cache[name]
	return v, ok
}

// Warnings returns one warning per unknown uniform written so far.
func (p *Program) Warnings() []*UnknownUniformWarning {
	out := make([]*UnknownUniformWarning, 0, len(p.warnings))
	for _, w := range p.warnings {
		out = append(out, w)
	}
	return out
}

// Bind makes the program current on its device.
func (p *Program) Bind() error {
	return p.dev.UseProgram(p.id)
}

// Destroy releases the device program. The program must not be used after.
func (p *Program) Destroy() {
	if p.id != gpucore.InvalidID {
		p.dev.DestroyProgram(p.id)
		p.id = gpucore.InvalidID
	}
}
