package texture

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/gogpu/ggedit/internal/gpucore"
)

// Sampling holds the sampling parameters of a binding.
type Sampling struct {
	Filter gpucore.FilterMode
	Wrap   gpucore.WrapMode
}

// Binding owns a device texture handle.
//
// Binding is not safe for concurrent use; it belongs to the render
// goroutine like the device it wraps.
type Binding struct {
	dev      gpucore.Device
	label    string
	sampling Sampling
	target   bool

	id     gpucore.TextureID
	width  int
	height int
	format gpucore.TextureFormat

	generation uint64
	err        error
	released   bool

	// next is set when the binding was replaced, see Resolve.
	next *Binding
}

// NewBinding creates a binding with no storage.
func NewBinding(dev gpucore.Device, label string, sampling Sampling) *Binding {
	return &Binding{dev: dev, label: label, sampling: sampling}
}

// NewRenderTarget creates an RGBA8 binding that passes can render into.
func NewRenderTarget(dev gpucore.Device, label string, width, height int) (*Binding, error) {
	b := &Binding{dev: dev, label: label, target: true}
	if err := b.allocate(width, height, gpucore.TextureFormatRGBA8); err != nil {
		return nil, err
	}
	b.generation++
	return b, nil
}

// Label returns the debug label.
func (b *Binding) Label() string { return b.label }

// ID returns the device texture handle.
func (b *Binding) ID() gpucore.TextureID { return b.id }

// Width returns the texture width in texels.
func (b *Binding) Width() int { return b.width }

// Height returns the texture height in texels.
func (b *Binding) Height() int { return b.height }

// Format returns the pixel format.
func (b *Binding) Format() gpucore.TextureFormat { return b.format }

// Sampling returns the sampling parameters.
func (b *Binding) Sampling() Sampling { return b.sampling }

// Generation returns the upload generation. It advances on every full
// upload and never on region updates.
func (b *Binding) Generation() uint64 { return b.generation }

// Err returns the error of the last failed upload, nil after a success.
func (b *Binding) Err() error { return b.err }

// Resolve follows redirects to the binding currently holding this
// texture's contents.
func (b *Binding) Resolve() *Binding {
	for b.next != nil {
		b = b.next
	}
	return b
}

// Redirected reports whether the binding was replaced by another one.
func (b *Binding) Redirected() bool { return b.next != nil }

func (b *Binding) allocate(width, height int, format gpucore.TextureFormat) error {
	if b.id != gpucore.InvalidID && b.width == width && b.height == height && b.format == format {
		return nil
	}
	if b.id != gpucore.InvalidID {
		b.dev.DestroyTexture(b.id)
		b.id = gpucore.InvalidID
	}
	id, err := b.dev.CreateTexture(&gpucore.TextureDescriptor{
		Label:        b.label,
		Width:        width,
		Height:       height,
		Format:       format,
		Filter:       b.sampling.Filter,
		Wrap:         b.sampling.Wrap,
		RenderTarget: b.target,
	})
	if err != nil {
		b.width, b.height = 0, 0
		b.err = &UploadError{Texture: b.label, Width: width, Height: height, Err: err}
		return b.err
	}
	b.id = id
	b.width, b.height, b.format = width, height, format
	return nil
}

// Upload replaces the texture storage with pixels and bumps the generation.
// On failure the binding holds an *UploadError and no usable storage.
func (b *Binding) Upload(pixels []byte, width, height int, format gpucore.TextureFormat) error {
	if b.released {
		return ErrReleased
	}
	if want := width * height * format.BytesPerPixel(); len(pixels) != want {
		b.err = &UploadError{Texture: b.label, Width: width, Height: height,
			Err: fmt.Errorf("%w: got %d bytes, want %d", gpucore.ErrDataSize, len(pixels), want)}
		return b.err
	}
	if err := b.allocate(width, height, format); err != nil {
		return err
	}
	if err := b.dev.WriteTexture(b.id, pixels); err != nil {
		b.err = &UploadError{Texture: b.label, Width: width, Height: height, Err: err}
		return b.err
	}
	b.err = nil
	b.generation++
	gpucore.Logger().Debug("texture: uploaded", "texture", b.label,
		"size", fmt.Sprintf("%dx%d", width, height), "format", format, "generation", b.generation)
	return nil
}

// UploadChannels uploads tightly packed pixels with 1, 3 or 4 channels.
// Three-channel data is expanded to opaque RGBA.
func (b *Binding) UploadChannels(pixels []byte, width, height, channels int) error {
	format, err := gpucore.FormatForChannels(channels)
	if err != nil {
		b.err = &UploadError{Texture: b.label, Width: width, Height: height, Err: err}
		return b.err
	}
	if channels == 3 {
		pixels = gpucore.ExpandRGB(pixels)
	}
	return b.Upload(pixels, width, height, format)
}

// UploadImage uploads any image as straight-alpha RGBA8.
func (b *Binding) UploadImage(img image.Image) error {
	bounds := img.Bounds()
	rgba, ok := img.(*image.NRGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || bounds.Min != (image.Point{}) {
		rgba = image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}
	return b.Upload(rgba.Pix, bounds.Dx(), bounds.Dy(), gpucore.TextureFormatRGBA8)
}

// UpdateRegion writes a sub-rectangle without bumping the generation.
// It is for content that only ever fills unused texels. A failed write
// returns an *UploadError but leaves the binding usable: the texels
// already written are intact.
func (b *Binding) UpdateRegion(x, y, width, height int, pixels []byte) error {
	if b.released {
		return ErrReleased
	}
	if b.id == gpucore.InvalidID {
		return ErrNotUploaded
	}
	if err := b.dev.WriteTextureRegion(b.id, x, y, width, height, pixels); err != nil {
		return &UploadError{Texture: b.label, Width: width, Height: height, Err: err}
	}
	return nil
}

// Bind binds the current contents to a texture unit, following redirects.
func (b *Binding) Bind(unit int) error {
	r := b.Resolve()
	if r.released {
		return ErrReleased
	}
	if r.err != nil {
		return r.err
	}
	if r.id == gpucore.InvalidID {
		return ErrNotUploaded
	}
	return r.dev.BindTexture(unit, r.id)
}

// Download reads the texture contents back from the device.
func (b *Binding) Download() ([]byte, error) {
	r := b.Resolve()
	if r.id == gpucore.InvalidID {
		return nil, ErrNotUploaded
	}
	return r.dev.ReadTexture(r.id)
}

// redirect points this binding at its replacement and frees its storage.
func (b *Binding) redirect(to *Binding) {
	b.next = to
	if b.id != gpucore.InvalidID {
		b.dev.DestroyTexture(b.id)
		b.id = gpucore.InvalidID
	}
}

// Release frees the device texture.
func (b *Binding) Release() {
	if b.id != gpucore.InvalidID {
		b.dev.DestroyTexture(b.id)
		b.id = gpucore.InvalidID
	}
	b.released = true
}
