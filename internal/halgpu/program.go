package halgpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/ggedit/internal/gpucore"
)

// Bind group slots shared by every program.
const (
	bindingVertexBlock   = 0
	bindingFragmentBlock = 1
	bindingTexture       = 2
	bindingSampler       = 3
)

// program holds the compiled stages of one gpucore program and its
// render pipelines, created on first use per blend mode.
type program struct {
	desc gpucore.ProgramDescriptor

	vertexModule   hal.ShaderModule
	fragmentModule hal.ShaderModule
	bindLayout     hal.BindGroupLayout
	pipeLayout     hal.PipelineLayout
	pipelines      map[gpucore.BlendMode]hal.RenderPipeline

	uniforms map[string]gpucore.UniformInfo
	unit     int

	// CPU copies of the uniform blocks, snapshotted by every draw.
	vertexBlock   []byte
	fragmentBlock []byte
}

// CreateProgram compiles both stages and the bind group layout.
func (d *Device) CreateProgram(desc *gpucore.ProgramDescriptor) (gpucore.ProgramID, error) {
	p := &program{
		desc:          *desc,
		pipelines:     make(map[gpucore.BlendMode]hal.RenderPipeline, 2),
		uniforms:      make(map[string]gpucore.UniformInfo, len(desc.Uniforms)),
		vertexBlock:   make([]byte, desc.VertexBlockSize),
		fragmentBlock: make([]byte, desc.FragmentBlockSize),
	}
	for _, u := range desc.Uniforms {
		p.uniforms[u.Name] = u
	}
	if err := d.compile(p); err != nil {
		d.destroyProgram(p)
		return gpucore.InvalidID, fmt.Errorf("halgpu: program %s: %w", desc.Label, err)
	}
	id := gpucore.ProgramID(d.newID())
	d.programs[id] = p
	return id, nil
}

func (d *Device) compile(p *program) error {
	var err error
	p.vertexModule, err = d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  p.desc.Label + "_vs",
		Source: hal.ShaderSource{WGSL: p.desc.VertexSource},
	})
	if err != nil {
		return fmt.Errorf("compile vertex stage: %w", err)
	}
	p.fragmentModule, err = d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  p.desc.Label + "_fs",
		Source: hal.ShaderSource{WGSL: p.desc.FragmentSource},
	})
	if err != nil {
		return fmt.Errorf("compile fragment stage: %w", err)
	}

	p.bindLayout, err = d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   p.desc.Label + "_layout",
		Entries: layoutEntries(&p.desc),
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}
	p.pipeLayout, err = d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            p.desc.Label + "_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	return nil
}

func layoutEntries(desc *gpucore.ProgramDescriptor) []gputypes.BindGroupLayoutEntry {
	var entries []gputypes.BindGroupLayoutEntry
	if desc.VertexBlockSize > 0 {
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    bindingVertexBlock,
			Visibility: gputypes.ShaderStageVertex,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
		})
	}
	if desc.FragmentBlockSize > 0 {
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    bindingFragmentBlock,
			Visibility: gputypes.ShaderStageFragment,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
		})
	}
	if desc.SamplesTexture() {
		entries = append(entries,
			gputypes.BindGroupLayoutEntry{
				Binding:    bindingTexture,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			gputypes.BindGroupLayoutEntry{
				Binding:    bindingSampler,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		)
	}
	return entries
}

// vertexLayout maps a gpucore vertex format to one interleaved buffer.
func vertexLayout(format gpucore.VertexFormat) []gputypes.VertexBufferLayout {
	attrs := format.Attributes()
	out := make([]gputypes.VertexAttribute, 0, len(attrs))
	for _, a := range attrs {
		var f gputypes.VertexFormat
		switch a.Components {
		case 2:
			f = gputypes.VertexFormatFloat32x2
		case 3:
			f = gputypes.VertexFormatFloat32x3
		default:
			f = gputypes.VertexFormatFloat32x4
		}
		out = append(out, gputypes.VertexAttribute{
			Format:         f,
			Offset:         uint64(a.Offset * 4),
			ShaderLocation: uint32(a.Location),
		})
	}
	return []gputypes.VertexBufferLayout{{
		ArrayStride: uint64(format.Stride()),
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes:  out,
	}}
}

// sourceOver is straight-alpha source-over: rgb blends by source alpha,
// alpha accumulates as a + dstA*(1-a).
var sourceOver = gputypes.BlendState{
	Color: gputypes.BlendComponent{
		SrcFactor: gputypes.BlendFactorSrcAlpha,
		DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
		Operation: gputypes.BlendOperationAdd,
	},
	Alpha: gputypes.BlendComponent{
		SrcFactor: gputypes.BlendFactorOne,
		DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
		Operation: gputypes.BlendOperationAdd,
	},
}

// pipeline returns the render pipeline of p for a blend mode, creating it
// on first use.
func (d *Device) pipeline(p *program, mode gpucore.BlendMode) (hal.RenderPipeline, error) {
	if rp, ok := p.pipelines[mode]; ok {
		return rp, nil
	}
	var blend *gputypes.BlendState
	if mode == gpucore.BlendSourceOver {
		b := sourceOver
		blend = &b
	}
	rp, err := d.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  fmt.Sprintf("%s_%s", p.desc.Label, mode),
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.vertexModule,
			EntryPoint: "vs_main",
			Buffers:    vertexLayout(p.desc.Format),
		},
		Fragment: &hal.FragmentState{
			Module:     p.fragmentModule,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{{
				Format:    gputypes.TextureFormatRGBA8Unorm,
				Blend:     blend,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("halgpu: create pipeline %s: %w", p.desc.Label, err)
	}
	p.pipelines[mode] = rp
	return rp, nil
}

// DestroyProgram releases a program and its pipelines.
func (d *Device) DestroyProgram(id gpucore.ProgramID) {
	p, ok := d.programs[id]
	if !ok {
		return
	}
	delete(d.programs, id)
	if d.pass != nil && d.pass.program == p {
		d.pass.program = nil
	}
	d.destroyProgram(p)
}

func (d *Device) destroyProgram(p *program) {
	for mode, rp := range p.pipelines {
		d.device.DestroyRenderPipeline(rp)
		delete(p.pipelines, mode)
	}
	if p.pipeLayout != nil {
		d.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.bindLayout != nil {
		d.device.DestroyBindGroupLayout(p.bindLayout)
		p.bindLayout = nil
	}
	if p.fragmentModule != nil {
		d.device.DestroyShaderModule(p.fragmentModule)
		p.fragmentModule = nil
	}
	if p.vertexModule != nil {
		d.device.DestroyShaderModule(p.vertexModule)
		p.vertexModule = nil
	}
}

// SetUniform packs a value into the program's uniform block.
func (d *Device) SetUniform(id gpucore.ProgramID, name string, v gpucore.UniformValue) error {
	p, ok := d.programs[id]
	if !ok {
		return gpucore.ErrUnknownProgram
	}
	info, ok := p.uniforms[name]
	if !ok {
		return fmt.Errorf("%w %q", gpucore.ErrUnknownUniform, name)
	}
	if !v.Compatible(info.Type) {
		return gpucore.ErrUniformType
	}
	d.stats.UniformWrites++
	if info.Type == gpucore.UniformTexture {
		p.unit = v.Unit()
		return nil
	}
	block := p.vertexBlock
	if info.Stage == gpucore.StageFragment {
		block = p.fragmentBlock
	}
	packUniform(block[info.Offset:info.Offset+info.Type.Size()], v)
	return nil
}

func packUniform(dst []byte, v gpucore.UniformValue) {
	if v.Type == gpucore.UniformInt {
		binary.LittleEndian.PutUint32(dst, uint32(int32(v.Data[0])))
		return
	}
	for i := 0; i < v.Type.Components(); i++ {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v.Data[i]))
	}
}
