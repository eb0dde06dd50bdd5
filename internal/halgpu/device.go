package halgpu

import (
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Register the Vulkan backend for NewStandalone.
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/ggedit/internal/gpucore"
)

// DefaultMaxTextureSize is the WebGPU default 2D texture limit.
const DefaultMaxTextureSize = 8192

// fenceTimeout bounds the wait for a submitted pass or readback.
const fenceTimeout = 5 * time.Second

// copyPitchAlignment is the row alignment of texture-to-buffer copies.
const copyPitchAlignment = 256

// ErrNoAdapter is returned by NewStandalone when no GPU is found.
var ErrNoAdapter = errors.New("halgpu: no GPU adapter found")

// Option configures a Device.
type Option func(*Device)

// WithMaxTextureSize sets the largest accepted texture side.
func WithMaxTextureSize(n int) Option {
	return func(d *Device) {
		d.maxTexture = n
	}
}

type texture struct {
	desc    gpucore.TextureDescriptor
	tex     hal.Texture
	view    hal.TextureView
	sampler hal.Sampler
}

// Device is a gpucore.Device backed by a hal device and queue.
//
// Device is not safe for concurrent use.
type Device struct {
	device hal.Device
	queue  hal.Queue

	// instance is set when the device was opened by NewStandalone and
	// must be destroyed with it.
	instance hal.Instance
	owned    bool
	name     string

	maxTexture int
	nextID     uint64
	programs   map[gpucore.ProgramID]*program
	textures   map[gpucore.TextureID]*texture

	pass  *pass
	stats gpucore.PassStats
}

var _ gpucore.Device = (*Device)(nil)

// New wraps an open hal device and queue. The caller keeps ownership of
// both.
func New(device hal.Device, queue hal.Queue, opts ...Option) *Device {
	d := &Device{
		device:     device,
		queue:      queue,
		name:       "hal",
		maxTexture: DefaultMaxTextureSize,
		programs:   make(map[gpucore.ProgramID]*program),
		textures:   make(map[gpucore.TextureID]*texture),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewFromProvider shares the GPU device of a host application. The
// provider must also expose HalDevice() and HalQueue() returning the hal
// device and queue.
func NewFromProvider(provider gpucontext.DeviceProvider, opts ...Option) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	if provider == nil {
		return nil, fmt.Errorf("halgpu: nil device provider")
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("halgpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("halgpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("halgpu: provider HalQueue is not hal.Queue")
	}
	d := New(device, queue, opts...)
	d.name = "hal-shared"
	return d, nil
}

// NewStandalone opens its own device on the Vulkan backend, preferring a
// discrete or integrated GPU.
func NewStandalone(opts ...Option) (*Device, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("halgpu: vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("halgpu: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("halgpu: open device: %w", err)
	}
	d := New(openDev.Device, openDev.Queue, opts...)
	d.instance = instance
	d.owned = true
	d.name = "hal-vulkan"
	gpucore.Logger().Info("halgpu: device opened", "adapter", selected.Info.Name)
	return d, nil
}

// Name returns the backend name.
func (d *Device) Name() string { return d.name }

// MaxTextureSize returns the largest accepted texture side.
func (d *Device) MaxTextureSize() int { return d.maxTexture }

// Stats returns the cumulative work counters.
func (d *Device) Stats() gpucore.PassStats { return d.stats }

func (d *Device) newID() uint64 {
	d.nextID++
	return d.nextID
}

// === Textures ===

func halTextureFormat(f gpucore.TextureFormat) gputypes.TextureFormat {
	if f == gpucore.TextureFormatR8 {
		return gputypes.TextureFormatR8Unorm
	}
	return gputypes.TextureFormatRGBA8Unorm
}

// CreateTexture allocates a texture, its view and its sampler.
func (d *Device) CreateTexture(desc *gpucore.TextureDescriptor) (gpucore.TextureID, error) {
	if desc.Width <= 0 || desc.Height <= 0 || desc.Width > d.maxTexture || desc.Height > d.maxTexture {
		return gpucore.InvalidID, fmt.Errorf("halgpu: texture %s: invalid size %dx%d", desc.Label, desc.Width, desc.Height)
	}
	format := halTextureFormat(desc.Format)
	usage := gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst | gputypes.TextureUsageCopySrc
	if desc.RenderTarget {
		usage |= gputypes.TextureUsageRenderAttachment
	}
	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         desc.Label,
		Size:          hal.Extent3D{Width: uint32(desc.Width), Height: uint32(desc.Height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("halgpu: create texture %s: %w: %w", desc.Label, gpucore.ErrOutOfMemory, err)
	}
	view, err := d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         desc.Label + "_view",
		Format:        format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		d.device.DestroyTexture(tex)
		return gpucore.InvalidID, fmt.Errorf("halgpu: create texture view %s: %w", desc.Label, err)
	}

	filter := gputypes.FilterModeNearest
	if desc.Filter == gpucore.FilterLinear {
		filter = gputypes.FilterModeLinear
	}
	address := gputypes.AddressModeClampToEdge
	if desc.Wrap == gpucore.WrapRepeat {
		address = gputypes.AddressModeRepeat
	}
	sampler, err := d.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        desc.Label + "_sampler",
		AddressModeU: address,
		AddressModeV: address,
		AddressModeW: address,
		MagFilter:    filter,
		MinFilter:    filter,
		MipmapFilter: gputypes.FilterModeNearest,
	})
	if err != nil {
		d.device.DestroyTextureView(view)
		d.device.DestroyTexture(tex)
		return gpucore.InvalidID, fmt.Errorf("halgpu: create sampler %s: %w", desc.Label, err)
	}

	id := gpucore.TextureID(d.newID())
	d.textures[id] = &texture{desc: *desc, tex: tex, view: view, sampler: sampler}
	return id, nil
}

// DestroyTexture releases a texture.
func (d *Device) DestroyTexture(id gpucore.TextureID) {
	t, ok := d.textures[id]
	if !ok {
		return
	}
	delete(d.textures, id)
	if d.pass != nil {
		for i, u := range d.pass.units {
			if u == t {
				d.pass.units[i] = nil
			}
		}
	}
	d.device.DestroySampler(t.sampler)
	d.device.DestroyTextureView(t.view)
	d.device.DestroyTexture(t.tex)
}

// WriteTexture replaces the texture image.
func (d *Device) WriteTexture(id gpucore.TextureID, data []byte) error {
	t, ok := d.textures[id]
	if !ok {
		return gpucore.ErrUnknownTexture
	}
	return d.WriteTextureRegion(id, 0, 0, t.desc.Width, t.desc.Height, data)
}

// WriteTextureRegion replaces a sub-rectangle of the texture image.
func (d *Device) WriteTextureRegion(id gpucore.TextureID, x, y, w, h int, data []byte) error {
	t, ok := d.textures[id]
	if !ok {
		return gpucore.ErrUnknownTexture
	}
	if x < 0 || y < 0 || w <= 0 || h <= 0 || x+w > t.desc.Width || y+h > t.desc.Height {
		return fmt.Errorf("halgpu: region %d,%d %dx%d outside %dx%d texture", x, y, w, h, t.desc.Width, t.desc.Height)
	}
	bpp := t.desc.Format.BytesPerPixel()
	if len(data) != w*h*bpp {
		return fmt.Errorf("%w: got %d bytes, want %d", gpucore.ErrDataSize, len(data), w*h*bpp)
	}
	d.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  t.tex,
			MipLevel: 0,
			Origin:   hal.Origin3D{X: uint32(x), Y: uint32(y), Z: 0},
		},
		data,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(w * bpp),
			RowsPerImage: uint32(h),
		},
		&hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
	)
	d.stats.Uploads++
	return nil
}

// ReadTexture copies the texture into a staging buffer and reads it back,
// stripping the row padding of the copy.
func (d *Device) ReadTexture(id gpucore.TextureID) ([]byte, error) {
	t, ok := d.textures[id]
	if !ok {
		return nil, gpucore.ErrUnknownTexture
	}
	w, h := uint32(t.desc.Width), uint32(t.desc.Height)
	bytesPerRow := w * uint32(t.desc.Format.BytesPerPixel())
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	size := uint64(alignedBytesPerRow) * uint64(h)

	staging, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: t.desc.Label + "_readback",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("halgpu: create staging buffer: %w", err)
	}
	defer d.device.DestroyBuffer(staging)

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "readback_encoder"})
	if err != nil {
		return nil, fmt.Errorf("halgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("readback"); err != nil {
		return nil, fmt.Errorf("halgpu: begin encoding: %w", err)
	}
	oldUsage := gputypes.TextureUsageTextureBinding
	if t.desc.RenderTarget {
		oldUsage = gputypes.TextureUsageRenderAttachment
	}
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.tex,
		Usage:   hal.TextureUsageTransition{OldUsage: oldUsage, NewUsage: gputypes.TextureUsageCopySrc},
	}})
	encoder.CopyTextureToBuffer(t.tex, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: t.tex, MipLevel: 0},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.tex,
		Usage:   hal.TextureUsageTransition{OldUsage: gputypes.TextureUsageCopySrc, NewUsage: oldUsage},
	}})
	if err := d.submit(encoder); err != nil {
		return nil, err
	}

	readback := make([]byte, size)
	if err := d.queue.ReadBuffer(staging, 0, readback); err != nil {
		return nil, fmt.Errorf("halgpu: readback: %w", err)
	}
	if alignedBytesPerRow == bytesPerRow {
		return readback, nil
	}
	tight := make([]byte, int(bytesPerRow)*int(h))
	for row := 0; row < int(h); row++ {
		src := row * int(alignedBytesPerRow)
		copy(tight[row*int(bytesPerRow):(row+1)*int(bytesPerRow)], readback[src:src+int(bytesPerRow)])
	}
	return tight, nil
}

// submit ends encoding, submits the command buffer and waits for it.
func (d *Device) submit(encoder hal.CommandEncoder) error {
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("halgpu: end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	fence, err := d.device.CreateFence()
	if err != nil {
		return fmt.Errorf("halgpu: create fence: %w", err)
	}
	defer d.device.DestroyFence(fence)

	if err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("halgpu: submit: %w", err)
	}
	ok, err := d.device.Wait(fence, 1, fenceTimeout)
	if err != nil {
		return fmt.Errorf("halgpu: wait for GPU: %w", err)
	}
	if !ok {
		return fmt.Errorf("halgpu: GPU timeout after %v", fenceTimeout)
	}
	return nil
}

// Destroy releases every resource. A device opened by NewStandalone is
// closed as well.
func (d *Device) Destroy() {
	for id := range d.programs {
		d.DestroyProgram(id)
	}
	for id := range d.textures {
		d.DestroyTexture(id)
	}
	d.pass = nil
	if d.owned {
		d.device.Destroy()
		if d.instance != nil {
			d.instance.Destroy()
		}
		d.owned = false
	}
}
