package halgpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/ggedit/core"
	"github.com/gogpu/ggedit/internal/gpucore"
)

// pass records draws between BeginPass and EndPass. WebGPU queue writes
// land before the command buffer runs, so every draw keeps its own copy
// of the vertices and both uniform blocks.
type pass struct {
	target  *texture
	load    gpucore.LoadOp
	clear   core.RGBA
	program *program
	units   [gpucore.MaxTextureUnits]*texture
	blend   gpucore.BlendMode
	draws   []drawCmd
}

type drawCmd struct {
	program       *program
	blend         gpucore.BlendMode
	texture       *texture
	vertices      []byte
	count         uint32
	vertexBlock   []byte
	fragmentBlock []byte
}

// BeginPass starts recording into target.
func (d *Device) BeginPass(target gpucore.TextureID, load gpucore.LoadOp, clear core.RGBA) error {
	if d.pass != nil {
		return gpucore.ErrPassActive
	}
	t, ok := d.textures[target]
	if !ok {
		return fmt.Errorf("halgpu: pass target: %w", gpucore.ErrUnknownTexture)
	}
	d.pass = &pass{target: t, load: load, clear: clear}
	d.stats.Passes++
	return nil
}

// UseProgram makes id the current program.
func (d *Device) UseProgram(id gpucore.ProgramID) error {
	if d.pass == nil {
		return gpucore.ErrNoPass
	}
	p, ok := d.programs[id]
	if !ok {
		return gpucore.ErrUnknownProgram
	}
	d.pass.program = p
	d.stats.ProgramBinds++
	return nil
}

// BindTexture binds a texture to a unit. InvalidID unbinds.
func (d *Device) BindTexture(unit int, id gpucore.TextureID) error {
	if d.pass == nil {
		return gpucore.ErrNoPass
	}
	if unit < 0 || unit >= gpucore.MaxTextureUnits {
		return gpucore.ErrTextureUnit
	}
	if id == gpucore.InvalidID {
		d.pass.units[unit] = nil
		return nil
	}
	t, ok := d.textures[id]
	if !ok {
		return gpucore.ErrUnknownTexture
	}
	d.pass.units[unit] = t
	d.stats.TextureBinds++
	return nil
}

// SetBlend selects the blend mode for subsequent draws.
func (d *Device) SetBlend(mode gpucore.BlendMode) {
	if d.pass != nil {
		d.pass.blend = mode
	}
}

// Draw records a triangle list with the current program state.
func (d *Device) Draw(vertices []float32) error {
	if d.pass == nil {
		return gpucore.ErrNoPass
	}
	p := d.pass.program
	if p == nil {
		return gpucore.ErrNoProgram
	}
	comps := p.desc.Format.Components()
	if len(vertices)%(comps*3) != 0 {
		return fmt.Errorf("halgpu: draw: %d floats is not a whole number of %s triangles", len(vertices), p.desc.Format)
	}
	cmd := drawCmd{
		program:       p,
		blend:         d.pass.blend,
		vertices:      floatBytes(vertices),
		count:         uint32(len(vertices) / comps),
		vertexBlock:   append([]byte(nil), p.vertexBlock...),
		fragmentBlock: append([]byte(nil), p.fragmentBlock...),
	}
	if p.desc.SamplesTexture() {
		if p.unit < 0 || p.unit >= gpucore.MaxTextureUnits || d.pass.units[p.unit] == nil {
			return fmt.Errorf("halgpu: draw with %s: no texture on unit %d", p.desc.Label, p.unit)
		}
		cmd.texture = d.pass.units[p.unit]
	}
	d.stats.Draws++
	if cmd.count > 0 {
		d.pass.draws = append(d.pass.draws, cmd)
	}
	return nil
}

func floatBytes(v []float32) []byte {
	out := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out
}

// transient collects the per-pass buffers and bind groups released after
// the GPU finishes.
type transient struct {
	buffers []hal.Buffer
	groups  []hal.BindGroup
}

func (d *Device) release(tr *transient) {
	for _, g := range tr.groups {
		d.device.DestroyBindGroup(g)
	}
	for _, b := range tr.buffers {
		d.device.DestroyBuffer(b)
	}
}

// EndPass encodes the recorded draws into one render pass, submits it
// and waits for completion.
func (d *Device) EndPass() error {
	if d.pass == nil {
		return gpucore.ErrNoPass
	}
	ps := d.pass
	d.pass = nil

	var tr transient
	defer d.release(&tr)

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "pass_encoder"})
	if err != nil {
		return fmt.Errorf("halgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("pass"); err != nil {
		return fmt.Errorf("halgpu: begin encoding: %w", err)
	}

	loadOp := gputypes.LoadOpClear
	if ps.load == gpucore.LoadKeep {
		loadOp = gputypes.LoadOpLoad
	}
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: ps.target.desc.Label + "_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:    ps.target.view,
			LoadOp:  loadOp,
			StoreOp: gputypes.StoreOpStore,
			ClearValue: gputypes.Color{
				R: float64(ps.clear.R), G: float64(ps.clear.G),
				B: float64(ps.clear.B), A: float64(ps.clear.A),
			},
		}},
	})

	for i := range ps.draws {
		if err := d.encodeDraw(rp, &ps.draws[i], &tr); err != nil {
			rp.End()
			encoder.DiscardEncoding()
			return err
		}
	}
	rp.End()
	return d.submit(encoder)
}

func (d *Device) encodeDraw(rp hal.RenderPassEncoder, cmd *drawCmd, tr *transient) error {
	pipeline, err := d.pipeline(cmd.program, cmd.blend)
	if err != nil {
		return err
	}
	vb, err := d.upload("vertices", cmd.vertices, gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst, tr)
	if err != nil {
		return err
	}

	var entries []gputypes.BindGroupEntry
	if len(cmd.vertexBlock) > 0 {
		ub, err := d.upload("vertex_uniforms", cmd.vertexBlock, gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst, tr)
		if err != nil {
			return err
		}
		entries = append(entries, gputypes.BindGroupEntry{
			Binding:  bindingVertexBlock,
			Resource: gputypes.BufferBinding{Buffer: ub.NativeHandle(), Offset: 0, Size: uint64(len(cmd.vertexBlock))},
		})
	}
	if len(cmd.fragmentBlock) > 0 {
		ub, err := d.upload("fragment_uniforms", cmd.fragmentBlock, gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst, tr)
		if err != nil {
			return err
		}
		entries = append(entries, gputypes.BindGroupEntry{
			Binding:  bindingFragmentBlock,
			Resource: gputypes.BufferBinding{Buffer: ub.NativeHandle(), Offset: 0, Size: uint64(len(cmd.fragmentBlock))},
		})
	}
	if cmd.texture != nil {
		entries = append(entries,
			gputypes.BindGroupEntry{
				Binding:  bindingTexture,
				Resource: gputypes.TextureViewBinding{TextureView: cmd.texture.view.NativeHandle()},
			},
			gputypes.BindGroupEntry{
				Binding:  bindingSampler,
				Resource: gputypes.SamplerBinding{Sampler: cmd.texture.sampler.NativeHandle()},
			},
		)
	}

	var group hal.BindGroup
	if len(entries) > 0 {
		group, err = d.device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:   cmd.program.desc.Label + "_bind_group",
			Layout:  cmd.program.bindLayout,
			Entries: entries,
		})
		if err != nil {
			return fmt.Errorf("halgpu: create bind group %s: %w", cmd.program.desc.Label, err)
		}
		tr.groups = append(tr.groups, group)
	}

	rp.SetPipeline(pipeline)
	if group != nil {
		rp.SetBindGroup(0, group, nil)
	}
	rp.SetVertexBuffer(0, vb, 0)
	rp.Draw(cmd.count, 1, 0, 0)
	return nil
}

// upload creates a buffer holding data, padded to a multiple of four bytes.
func (d *Device) upload(label string, data []byte, usage gputypes.BufferUsage, tr *transient) (hal.Buffer, error) {
	size := uint64(len(data)+3) &^ 3
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("halgpu: create %s buffer: %w", label, err)
	}
	tr.buffers = append(tr.buffers, buf)
	d.queue.WriteBuffer(buf, 0, data)
	return buf, nil
}
