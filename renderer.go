package ggedit

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/font"

	"github.com/gogpu/ggedit/core"
	"github.com/gogpu/ggedit/internal/batch"
	"github.com/gogpu/ggedit/internal/compositor"
	"github.com/gogpu/ggedit/internal/effect"
	"github.com/gogpu/ggedit/internal/gpucore"
	"github.com/gogpu/ggedit/internal/shader"
	"github.com/gogpu/ggedit/internal/texture"
)

// FrameStatus reports the outcome of one frame for diagnostic display.
type FrameStatus struct {
	// Rendered is false when the frame could not be composited at all.
	Rendered bool

	Batches int
	Draws   int
	Dropped int
	Rebuilt int

	EffectPasses    int
	EffectFallbacks int

	// Reloaded lists the custom effects recompiled at frame start.
	Reloaded []string

	// Errors holds the contained failures of the frame: dropped batches,
	// failed commands, drawables that produced no batch, stack violations.
	Errors []error

	// Diagnostics holds one message per new shader compile failure.
	Diagnostics []string
}

// Err joins Errors.
func (s FrameStatus) Err() error { return errors.Join(s.Errors...) }

// Presenter receives every finished frame.
type Presenter interface {
	Present(frame *image.RGBA) error
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(frame *image.RGBA) error

// Present calls f.
func (f PresenterFunc) Present(frame *image.RGBA) error { return f(frame) }

// Renderer turns ordered drawables into composited frames.
//
// A Renderer belongs to one goroutine, the one owning its device. Other
// goroutines submit requests through Commands.
type Renderer struct {
	cfg        Config
	background core.RGBA

	dev        Device
	ownsDevice bool

	lib     *shader.Library
	builder *batch.Builder
	comp    *compositor.Compositor
	chain   *effect.Chain
	effects *Effects
	atlas   *texture.GlyphAtlas
	watcher *shader.Watcher

	target *texture.Binding
	output *texture.Binding

	stack     TransformStack
	queue     CommandQueue
	presenter Presenter
	frame     *Frame
	textures  []*texture.Binding
	closed    bool
}

// NewRenderer creates a renderer. Without WithDevice it opens the device
// named by Config.Backend and closes it in Close.
func NewRenderer(opts ...Option) (*Renderer, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	cfg := o.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	bg, _ := cfg.BackgroundColor()

	r := &Renderer{
		cfg:        cfg,
		background: bg,
		dev:        o.device,
		effects:    NewEffects(),
		presenter:  o.presenter,
	}
	if r.dev == nil {
		dev, err := newDevice(cfg)
		if err != nil {
			return nil, fmt.Errorf("ggedit: create device: %w", err)
		}
		r.dev = dev
		r.ownsDevice = true
	}
	if err := r.init(o.face); err != nil {
		r.Close()
		return nil, err
	}
	Logger().Debug("ggedit: renderer created",
		"device", r.dev.Name(), "width", cfg.Width, "height", cfg.Height)
	return r, nil
}

func (r *Renderer) init(face font.Face) error {
	lib, err := shader.NewLibrary(r.dev)
	if err != nil {
		return fmt.Errorf("ggedit: %w", err)
	}
	r.lib = lib
	r.builder = batch.NewBuilder(lib)
	r.comp = compositor.New(r.dev)
	r.chain = effect.NewChain(r.dev, lib)

	r.atlas, err = texture.NewGlyphAtlas(r.dev, face,
		texture.WithAtlasSize(r.cfg.AtlasSize),
		texture.WithMaxAtlasSize(r.cfg.MaxAtlasSize))
	if err != nil {
		return fmt.Errorf("ggedit: glyph atlas: %w", err)
	}
	if err := r.newTarget(r.cfg.Width, r.cfg.Height); err != nil {
		return err
	}

	if r.cfg.EffectDir == "" {
		return nil
	}
	names, err := lib.LoadEffectDir(r.cfg.EffectDir)
	if err != nil {
		return fmt.Errorf("ggedit: %w", err)
	}
	Logger().Info("ggedit: custom effects loaded", "dir", r.cfg.EffectDir, "effects", names)
	if r.cfg.WatchEffects {
		w, err := shader.NewWatcher(lib.EffectFiles(), r.cfg.ReloadDebounce())
		if err != nil {
			return fmt.Errorf("ggedit: watch effects: %w", err)
		}
		w.Start()
		r.watcher = w
	}
	return nil
}

func (r *Renderer) newTarget(width, height int) error {
	t, err := texture.NewRenderTarget(r.dev, "frame", width, height)
	if err != nil {
		return fmt.Errorf("ggedit: frame target: %w", err)
	}
	if r.target != nil {
		r.target.Release()
	}
	r.target = t
	r.output = t
	r.cfg.Width, r.cfg.Height = width, height
	r.stack.SetBase(core.Ortho(0, float32(width), float32(height), 0, -1, 1))
	return nil
}

// Config returns the active settings.
func (r *Renderer) Config() Config { return r.cfg }

// Device returns the device the renderer draws on.
func (r *Renderer) Device() Device { return r.dev }

// Effects returns the effect activation state.
func (r *Renderer) Effects() *Effects { return r.effects }

// Commands returns the queue drained at the start of every frame.
func (r *Renderer) Commands() *CommandQueue { return &r.queue }

// Transforms returns the transform stack. Its base maps frame pixels,
// origin top-left, to clip space.
func (r *Renderer) Transforms() *TransformStack { return &r.stack }

// Size returns the frame size.
func (r *Renderer) Size() (width, height int) { return r.cfg.Width, r.cfg.Height }

// LineHeight returns the line height of glyph runs.
func (r *Renderer) LineHeight() float32 { return r.atlas.LineHeight() }

// MeasureText returns the advance width of the widest line of text.
func (r *Renderer) MeasureText(text string) float32 { return r.atlas.MeasureText(text) }

// PreloadGlyphs rasterizes the glyphs of text into the atlas ahead of use.
func (r *Renderer) PreloadGlyphs(text string) error { return r.atlas.Preload(text) }

// NewTexture creates an empty texture. The renderer releases it in Close.
func (r *Renderer) NewTexture(label string, s Sampling) *Texture {
	t := texture.NewBinding(r.dev, label, s)
	r.textures = append(r.textures, t)
	return t
}

// LoadImage creates a texture holding img. On upload failure the texture
// is still returned, in its error state.
func (r *Renderer) LoadImage(label string, img image.Image, s Sampling) (*Texture, error) {
	t := r.NewTexture(label, s)
	if err := t.UploadImage(img); err != nil {
		return t, err
	}
	return t, nil
}

// Resize changes the frame size. It fails while a frame is in progress.
func (r *Renderer) Resize(width, height int) error {
	if r.frame != nil {
		return ErrFrameActive
	}
	if width == r.cfg.Width && height == r.cfg.Height {
		return nil
	}
	cfg := r.cfg
	cfg.Width, cfg.Height = width, height
	if err := cfg.Validate(); err != nil {
		return err
	}
	return r.newTarget(width, height)
}

// Frame collects the drawables of one frame. It is valid from BeginFrame
// to EndFrame or Discard.
type Frame struct {
	r          *Renderer
	startDepth int
	errors     []error
	reloaded   []string
	done       bool

	// underflow is the first Pop that had no matching Push in this frame.
	underflow *UnbalancedTransformError
}

// BeginFrame starts a frame. Queued commands run first, then changed
// custom effects are recompiled.
func (r *Renderer) BeginFrame() (*Frame, error) {
	if r.closed {
		return nil, ErrClosed
	}
	if r.frame != nil {
		return nil, ErrFrameActive
	}
	f := &Frame{r: r}
	f.errors = append(f.errors, r.queue.drain(r)...)
	if r.watcher != nil {
		f.reloaded = r.lib.ReloadPending(r.watcher)
	}
	f.startDepth = r.stack.Depth()
	r.frame = f
	return f, nil
}

// Push composes m onto the current transform.
func (f *Frame) Push(m core.Matrix) { f.r.stack.Push(m) }

// Pop restores the transform saved by the matching Push. A Pop without a
// Push in this frame leaves the stack alone and fails the frame the same
// way an unbalanced depth does at EndFrame.
func (f *Frame) Pop() error {
	if depth := f.r.stack.Depth(); depth <= f.startDepth {
		err := &UnbalancedTransformError{Depth: depth - f.startDepth, Expected: 1}
		if f.underflow == nil {
			f.underflow = err
		}
		return err
	}
	return f.r.stack.Pop()
}

func (f *Frame) transform(m core.Matrix) core.Matrix {
	return f.r.stack.Current().Multiply(local(m))
}

// Draw converts drawables into batches and queues them in order. A
// drawable that fails is left out of the frame and its error recorded; the
// remaining drawables are still queued. Draw returns the joined errors.
func (f *Frame) Draw(drawables ...Drawable) error {
	if f.done {
		return ErrNoFrame
	}
	var errs []error
	for _, d := range drawables {
		if d == nil {
			continue
		}
		bs, err := d.batches(f)
		if err != nil {
			err = fmt.Errorf("ggedit: %T: %w", d, err)
			Logger().Warn("ggedit: drawable skipped", "err", err)
			f.errors = append(f.errors, err)
			errs = append(errs, err)
			continue
		}
		for _, b := range bs {
			f.r.comp.Submit(b)
		}
	}
	return errors.Join(errs...)
}

// Discard drops the frame: queued batches are thrown away and transforms
// pushed during the frame are popped. The previous frame stays current.
func (f *Frame) Discard() {
	if f.done {
		return
	}
	f.done = true
	f.r.comp.Discard()
	f.r.restoreDepth(f.startDepth)
	f.r.frame = nil
}

func (r *Renderer) restoreDepth(depth int) {
	if r.stack.Depth() >= depth {
		r.stack.truncate(depth)
		return
	}
	r.stack.Reset()
}

// EndFrame composites the queued batches, runs the active effects and
// presents the result.
//
// A transform stack left at a different depth than at BeginFrame, or a Pop
// without a matching Push, panics with *UnbalancedTransformError when
// Config.Debug is set. Otherwise the stack is reset and the error is logged
// and reported in the status.
func (r *Renderer) EndFrame() (FrameStatus, error) {
	f := r.frame
	if f == nil {
		return FrameStatus{}, ErrNoFrame
	}
	r.frame = nil
	f.done = true

	status := FrameStatus{Reloaded: f.reloaded, Errors: f.errors}
	var unbalanced *UnbalancedTransformError
	if depth := r.stack.Depth(); depth != f.startDepth {
		unbalanced = &UnbalancedTransformError{Depth: depth, Expected: f.startDepth}
	} else if f.underflow != nil {
		unbalanced = f.underflow
	}
	if err := unbalanced; err != nil {
		r.restoreDepth(f.startDepth)
		if r.cfg.Debug {
			r.comp.Discard()
			panic(err)
		}
		Logger().Error("ggedit: transform stack reset", "err", err)
		status.Errors = append(status.Errors, err)
	}

	fs, err := r.comp.Flush(r.target, gpucore.LoadClear, r.background)
	status.Batches = fs.Batches
	status.Draws = fs.Draws
	status.Dropped = fs.Dropped
	status.Rebuilt = fs.Rebuilt
	status.Errors = append(status.Errors, r.comp.Errors()...)
	if err != nil {
		status.Errors = append(status.Errors, err)
		status.Diagnostics = r.lib.Diagnostics()
		return status, err
	}

	r.chain.Set(r.effects.Passes()...)
	out, es, err := r.chain.Apply(r.target)
	status.EffectPasses = es.Passes
	status.EffectFallbacks = es.Fallbacks
	if err != nil {
		Logger().Warn("ggedit: effect chain failed, presenting unfiltered frame", "err", err)
		status.Errors = append(status.Errors, err)
		out = r.target
	}
	r.output = out
	status.Rendered = true
	status.Diagnostics = r.lib.Diagnostics()

	if r.presenter != nil {
		img, err := r.ReadPixels()
		if err == nil {
			err = r.presenter.Present(img)
		}
		if err != nil {
			err = fmt.Errorf("ggedit: present: %w", err)
			status.Errors = append(status.Errors, err)
			return status, err
		}
	}
	return status, nil
}

// RenderFrame renders drawables in order as one frame.
func (r *Renderer) RenderFrame(drawables ...Drawable) (FrameStatus, error) {
	f, err := r.BeginFrame()
	if err != nil {
		return FrameStatus{}, err
	}
	_ = f.Draw(drawables...)
	return r.EndFrame()
}

// ReadPixels returns the last finished frame.
func (r *Renderer) ReadPixels() (*image.RGBA, error) {
	if r.closed {
		return nil, ErrClosed
	}
	data, err := r.output.Download()
	if err != nil {
		return nil, fmt.Errorf("ggedit: read frame: %w", err)
	}
	img := image.NewRGBA(image.Rect(0, 0, r.output.Width(), r.output.Height()))
	for i := 0; i+3 < len(data) && i+3 < len(img.Pix); i += 4 {
		a := uint32(data[i+3])
		img.Pix[i+0] = uint8(uint32(data[i+0]) * a / 255)
		img.Pix[i+1] = uint8(uint32(data[i+1]) * a / 255)
		img.Pix[i+2] = uint8(uint32(data[i+2]) * a / 255)
		img.Pix[i+3] = uint8(a)
	}
	return img, nil
}

// Close releases every resource, and the device when the renderer
// opened it.
func (r *Renderer) Close() {
	if r.closed {
		return
	}
	r.closed = true
	r.frame = nil
	if r.watcher != nil {
		r.watcher.Stop()
	}
	if r.comp != nil {
		r.comp.Discard()
	}
	if r.chain != nil {
		r.chain.Release()
	}
	for _, t := range r.textures {
		t.Release()
	}
	r.textures = nil
	if r.target != nil {
		r.target.Release()
	}
	if r.atlas != nil {
		r.atlas.Release()
	}
	if r.lib != nil {
		r.lib.Destroy()
	}
	if r.ownsDevice {
		r.dev.Destroy()
	}
}
