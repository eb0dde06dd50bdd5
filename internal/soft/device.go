package soft

import (
	"fmt"

	"github.com/gogpu/ggedit/core"
	"github.com/gogpu/ggedit/internal/gpucore"
)

// DefaultMaxTextureSize is the largest texture side accepted by default.
const DefaultMaxTextureSize = 8192

// Option configures a Device.
type Option func(*Device)

// WithMemoryLimit caps the total bytes of live textures. Allocations past
// the cap fail with gpucore.ErrOutOfMemory. Zero means unlimited.
func WithMemoryLimit(bytes int) Option {
	return func(d *Device) {
		d.memLimit = bytes
	}
}

// WithMaxTextureSize sets the largest accepted texture side.
func WithMaxTextureSize(n int) Option {
	return func(d *Device) {
		d.maxTexture = n
	}
}

type program struct {
	desc     gpucore.ProgramDescriptor
	kernel   kernel
	uniforms map[string]gpucore.UniformValue
}

type texture struct {
	desc gpucore.TextureDescriptor
	data []byte
}

type pass struct {
	target  *texture
	program *program
	units   [gpucore.MaxTextureUnits]*texture
	blend   gpucore.BlendMode
}

// Device is a CPU implementation of gpucore.Device.
type Device struct {
	nextID     uint64
	programs   map[gpucore.ProgramID]*program
	textures   map[gpucore.TextureID]*texture
	memUsed    int
	memLimit   int
	maxTexture int

	pass  *pass
	stats gpucore.PassStats
}

var _ gpucore.Device = (*Device)(nil)

// New creates a software device.
func New(opts ...Option) *Device {
	d := &Device{
		programs:   make(map[gpucore.ProgramID]*program),
		textures:   make(map[gpucore.TextureID]*texture),
		maxTexture: DefaultMaxTextureSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name returns "soft".
func (d *Device) Name() string { return "soft" }

// MaxTextureSize returns the largest accepted texture side.
func (d *Device) MaxTextureSize() int { return d.maxTexture }

// Stats returns the cumulative work counters.
func (d *Device) Stats() gpucore.PassStats { return d.stats }

// ResetStats zeroes the work counters.
func (d *Device) ResetStats() { d.stats = gpucore.PassStats{} }

// MemoryUsed returns the bytes held by live textures.
func (d *Device) MemoryUsed() int { return d.memUsed }

// TextureCount returns the number of live textures.
func (d *Device) TextureCount() int { return len(d.textures) }

func (d *Device) newID() uint64 {
	d.nextID++
	return d.nextID
}

// CreateProgram links a program whose kernel is one of the built-ins.
func (d *Device) CreateProgram(desc *gpucore.ProgramDescriptor) (gpucore.ProgramID, error) {
	k, ok := kernels[desc.Kernel]
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("soft: program %s: %w %q", desc.Label, gpucore.ErrUnsupportedKernel, desc.Kernel)
	}
	if k.format != desc.Format {
		return gpucore.InvalidID, fmt.Errorf("soft: program %s: kernel %s consumes %s, not %s",
			desc.Label, desc.Kernel, k.format, desc.Format)
	}
	p := &program{
		desc:     *desc,
		kernel:   k,
		uniforms: make(map[string]gpucore.UniformValue, len(desc.Uniforms)),
	}
	for _, u := range desc.Uniforms {
		p.uniforms[u.Name] = gpucore.UniformValue{Type: u.Type}
	}
	id := gpucore.ProgramID(d.newID())
	d.programs[id] = p
	return id, nil
}

// DestroyProgram releases a program.
func (d *Device) DestroyProgram(id gpucore.ProgramID) {
	if d.pass != nil && d.pass.program == d.programs[id] {
		d.pass.program = nil
	}
	delete(d.programs, id)
}

// SetUniform stores a uniform value in the program.
func (d *Device) SetUniform(id gpucore.ProgramID, name string, v gpucore.UniformValue) error {
	p, ok := d.programs[id]
	if !ok {
		return gpucore.ErrUnknownProgram
	}
	cur, ok := p.uniforms[name]
	if !ok {
		return fmt.Errorf("%w %q", gpucore.ErrUnknownUniform, name)
	}
	if !v.Compatible(cur.Type) {
		return gpucore.ErrUniformType
	}
	p.uniforms[name] = v
	d.stats.UniformWrites++
	return nil
}

// CreateTexture allocates a zeroed texture.
func (d *Device) CreateTexture(desc *gpucore.TextureDescriptor) (gpucore.TextureID, error) {
	if desc.Width <= 0 || desc.Height <= 0 || desc.Width > d.maxTexture || desc.Height > d.maxTexture {
		return gpucore.InvalidID, fmt.Errorf("soft: texture %s: invalid size %dx%d", desc.Label, desc.Width, desc.Height)
	}
	size := desc.Size()
	if d.memLimit > 0 && d.memUsed+size > d.memLimit {
		return gpucore.InvalidID, fmt.Errorf("soft: texture %s (%d bytes): %w", desc.Label, size, gpucore.ErrOutOfMemory)
	}
	d.memUsed += size
	id := gpucore.TextureID(d.newID())
	d.textures[id] = &texture{desc: *desc, data: make([]byte, size)}
	return id, nil
}

// DestroyTexture releases a texture.
func (d *Device) DestroyTexture(id gpucore.TextureID) {
	t, ok := d.textures[id]
	if !ok {
		return
	}
	d.memUsed -= len(t.data)
	delete(d.textures, id)
	if d.pass != nil {
		for i, u := range d.pass.units {
			if u == t {
				d.pass.units[i] = nil
			}
		}
	}
}

// WriteTexture replaces the texture image.
func (d *Device) WriteTexture(id gpucore.TextureID, data []byte) error {
	t, ok := d.textures[id]
	if !ok {
		return gpucore.ErrUnknownTexture
	}
	if len(data) != len(t.data) {
		return fmt.Errorf("%w: got %d bytes, want %d", gpucore.ErrDataSize, len(data), len(t.data))
	}
	copy(t.data, data)
	d.stats.Uploads++
	return nil
}

// WriteTextureRegion replaces a sub-rectangle of the texture image.
func (d *Device) WriteTextureRegion(id gpucore.TextureID, x, y, w, h int, data []byte) error {
	t, ok := d.textures[id]
	if !ok {
		return gpucore.ErrUnknownTexture
	}
	if x < 0 || y < 0 || w < 0 || h < 0 || x+w > t.desc.Width || y+h > t.desc.Height {
		return fmt.Errorf("soft: region %d,%d %dx%d outside %dx%d texture", x, y, w, h, t.desc.Width, t.desc.Height)
	}
	bpp := t.desc.Format.BytesPerPixel()
	if len(data) != w*h*bpp {
		return fmt.Errorf("%w: got %d bytes, want %d", gpucore.ErrDataSize, len(data), w*h*bpp)
	}
	stride := t.desc.Width * bpp
	for row := 0; row < h; row++ {
		copy(t.data[(y+row)*stride+x*bpp:], data[row*w*bpp:(row+1)*w*bpp])
	}
	d.stats.Uploads++
	return nil
}

// ReadTexture returns a copy of the texture image.
func (d *Device) ReadTexture(id gpucore.TextureID) ([]byte, error) {
	t, ok := d.textures[id]
	if !ok {
		return nil, gpucore.ErrUnknownTexture
	}
	out := make([]byte, len(t.data))
	copy(out, t.data)
	return out, nil
}

// BeginPass starts rendering into target.
func (d *Device) BeginPass(target gpucore.TextureID, load gpucore.LoadOp, clear core.RGBA) error {
	if d.pass != nil {
		return gpucore.ErrPassActive
	}
	t, ok := d.textures[target]
	if !ok {
		return fmt.Errorf("soft: pass target: %w", gpucore.ErrUnknownTexture)
	}
	if load == gpucore.LoadClear {
		fill(t, clear)
	}
	d.pass = &pass{target: t}
	d.stats.Passes++
	return nil
}

func fill(t *texture, c core.RGBA) {
	if t.desc.Format == gpucore.TextureFormatR8 {
		v := core.ToByte(c.R)
		for i := range t.data {
			t.data[i] = v
		}
		return
	}
	px := [4]byte{core.ToByte(c.R), core.ToByte(c.G), core.ToByte(c.B), core.ToByte(c.A)}
	for i := 0; i < len(t.data); i += 4 {
		copy(t.data[i:i+4], px[:])
	}
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

// SetBlend selects the blend mode.
func (d *Device) SetBlend(mode gpucore.BlendMode) {
	if d.pass != nil {
		d.pass.blend = mode
	}
}

// Draw rasterizes a triangle list with the current program.
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
		return fmt.Errorf("soft: draw: %d floats is not a whole number of %s triangles", len(vertices), p.desc.Format)
	}
	d.stats.Draws++

	var src *texture
	if p.desc.SamplesTexture() {
		unit := p.uniforms["inputTexture"].Unit()
		if unit < 0 || unit >= gpucore.MaxTextureUnits || d.pass.units[unit] == nil {
			return fmt.Errorf("soft: draw with %s: no texture on unit %d", p.desc.Label, unit)
		}
		src = d.pass.units[unit]
	}

	r := rasterizer{
		target:  d.pass.target,
		program: p,
		src:     src,
		blend:   d.pass.blend,
	}
	stride := comps * 3
	for i := 0; i+stride <= len(vertices); i += stride {
		r.triangle(vertices[i:i+stride], comps)
	}
	return nil
}

// EndPass finishes the pass.
func (d *Device) EndPass() error {
	if d.pass == nil {
		return gpucore.ErrNoPass
	}
	d.pass = nil
	return nil
}

// Destroy releases every resource.
func (d *Device) Destroy() {
	d.programs = make(map[gpucore.ProgramID]*program)
	d.textures = make(map[gpucore.TextureID]*texture)
	d.memUsed = 0
	d.pass = nil
}
