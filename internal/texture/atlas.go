package texture

import (
	"fmt"
	"image"
	"unicode"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/norm"

	"github.com/gogpu/ggedit/core"
	"github.com/gogpu/ggedit/internal/cache"
	"github.com/gogpu/ggedit/internal/gpucore"
)

// Atlas defaults.
const (
	DefaultAtlasSize    = 256
	DefaultAtlasPadding = 1

	// DefaultLayoutCacheSize bounds the number of remembered text layouts.
	DefaultLayoutCacheSize = 512
)

// Alignment selects which edge of the text line sits on the layout origin.
type Alignment uint8

const (
	// AlignTop places the line below the origin.
	AlignTop Alignment = iota
	// AlignBottom places the baseline on the origin.
	AlignBottom
)

// String returns the alignment name.
func (a Alignment) String() string {
	if a == AlignBottom {
		return "bottom"
	}
	return "top"
}

// Glyph is a rasterized character packed into the atlas.
type Glyph struct {
	Rune   rune
	Region Region

	// BearingX is the offset from the pen position to the left edge of
	// the bitmap, BearingTop the height of the bitmap top above the baseline.
	BearingX   float32
	BearingTop float32
	Advance    float32
}

// Quad places one glyph: Dst in layout space, UV in atlas texels.
type Quad struct {
	Rune rune
	Dst  core.Rect
	UV   core.Rect
}

// AtlasOption configures a GlyphAtlas.
type AtlasOption func(*atlasConfig)

type atlasConfig struct {
	size    int
	maxSize int
	padding int
	layouts int
}

// WithAtlasSize sets the initial side of the square atlas texture.
func WithAtlasSize(n int) AtlasOption {
	return func(c *atlasConfig) { c.size = n }
}

// WithMaxAtlasSize caps atlas growth. It defaults to the device maximum.
func WithMaxAtlasSize(n int) AtlasOption {
	return func(c *atlasConfig) { c.maxSize = n }
}

// WithLayoutCacheSize sets how many text layouts are remembered.
func WithLayoutCacheSize(n int) AtlasOption {
	return func(c *atlasConfig) { c.layouts = n }
}

// WithAtlasPadding sets the texel gap between packed glyphs.
func WithAtlasPadding(n int) AtlasOption {
	return func(c *atlasConfig) { c.padding = n }
}

// GlyphAtlas packs glyph coverage bitmaps into a single R8 texture.
//
// The atlas is append-only: glyphs are rasterized on first use and never
// evicted. When it runs out of space it doubles in size, copying every
// packed glyph to the same texel position in a new texture, and redirects
// the previous binding to the new one. Glyph regions stay valid across
// growth because texture coordinates are in texels.
type GlyphAtlas struct {
	face    font.Face
	dev     gpucore.Device
	padding int
	maxSize int

	alloc   *ShelfAllocator
	shadow  []byte
	width   int
	height  int
	binding *Binding
	growths int

	glyphs  map[rune]Glyph
	layouts *cache.LRU[layoutKey, []Quad]

	lineHeight float32
	ascent     float32
}

// NewGlyphAtlas creates an atlas for face. A nil face selects
// basicfont.Face7x13.
func NewGlyphAtlas(dev gpucore.Device, face font.Face, opts ...AtlasOption) (*GlyphAtlas, error) {
	cfg := atlasConfig{size: DefaultAtlasSize, maxSize: dev.MaxTextureSize(), padding: DefaultAtlasPadding, layouts: DefaultLayoutCacheSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.maxSize > dev.MaxTextureSize() {
		cfg.maxSize = dev.MaxTextureSize()
	}
	if cfg.size <= 0 || cfg.size > cfg.maxSize {
		return nil, fmt.Errorf("texture: invalid atlas size %d (max %d)", cfg.size, cfg.maxSize)
	}
	if face == nil {
		face = basicfont.Face7x13
	}
	m := face.Metrics()
	a := &GlyphAtlas{
		face:       face,
		dev:        dev,
		padding:    cfg.padding,
		maxSize:    cfg.maxSize,
		alloc:      NewShelfAllocator(cfg.size, cfg.size, cfg.padding),
		width:      cfg.size,
		height:     cfg.size,
		shadow:     make([]byte, cfg.size*cfg.size),
		glyphs:     make(map[rune]Glyph),
		layouts:    cache.New[layoutKey, []Quad](cfg.layouts),
		lineHeight: fixedToFloat(m.Height),
		ascent:     fixedToFloat(m.Ascent),
	}
	b, err := a.newBinding()
	if err != nil {
		return nil, err
	}
	a.binding = b
	return a, nil
}

func (a *GlyphAtlas) newBinding() (*Binding, error) {
	b := NewBinding(a.dev, fmt.Sprintf("glyph-atlas-%d", a.growths),
		Sampling{Filter: gpucore.FilterLinear, Wrap: gpucore.WrapClamp})
	if err := b.Upload(a.shadow, a.width, a.height, gpucore.TextureFormatR8); err != nil {
		return nil, err
	}
	return b, nil
}

// Binding returns the binding holding the atlas texture. After growth
// the bindings returned earlier resolve to it.
func (a *GlyphAtlas) Binding() *Binding { return a.binding }

// Size returns the atlas texture size in texels.
func (a *GlyphAtlas) Size() (width, height int) { return a.width, a.height }

// LineHeight returns the distance between consecutive baselines.
func (a *GlyphAtlas) LineHeight() float32 { return a.lineHeight }

// Ascent returns the height of the tallest glyphs above the baseline.
func (a *GlyphAtlas) Ascent() float32 { return a.ascent }

// GlyphCount returns the number of cached glyphs.
func (a *GlyphAtlas) GlyphCount() int { return len(a.glyphs) }

// Growths returns how many times the atlas was reallocated.
func (a *GlyphAtlas) Growths() int { return a.growths }

// Utilization returns the fraction of atlas area in use.
func (a *GlyphAtlas) Utilization() float64 { return a.alloc.Utilization() }

// Glyph returns the glyph for r, rasterizing and packing it when missing.
func (a *GlyphAtlas) Glyph(r rune) (Glyph, error) {
	if g, ok := a.glyphs[r]; ok {
		return g, nil
	}
	dr, mask, maskp, advance, _ := a.face.Glyph(fixed.Point26_6{}, r)
	g := Glyph{
		Rune:       r,
		BearingX:   float32(dr.Min.X),
		BearingTop: float32(-dr.Min.Y),
		Advance:    fixedToFloat(advance),
	}
	if mask == nil || dr.Empty() || unicode.IsSpace(r) {
		a.glyphs[r] = g
		return g, nil
	}

	w, h := dr.Dx(), dr.Dy()
	region, err := a.place(w, h)
	if err != nil {
		return Glyph{}, fmt.Errorf("texture: glyph %q: %w", r, err)
	}
	pixels := coverage(mask, maskp, w, h)
	for y := 0; y < h; y++ {
		copy(a.shadow[(region.Y+y)*a.width+region.X:], pixels[y*w:(y+1)*w])
	}
	if err := a.binding.UpdateRegion(region.X, region.Y, w, h, pixels); err != nil {
		return Glyph{}, err
	}
	g.Region = region
	a.glyphs[r] = g
	return g, nil
}

// place allocates space, growing the atlas until the glyph fits.
func (a *GlyphAtlas) place(w, h int) (Region, error) {
	for {
		if r := a.alloc.Allocate(w, h); r.IsValid() {
			return r, nil
		}
		if err := a.grow(); err != nil {
			return Region{}, err
		}
	}
}

func (a *GlyphAtlas) grow() error {
	if a.width >= a.maxSize && a.height >= a.maxSize {
		return ErrAtlasFull
	}
	nw, nh := min(a.width*2, a.maxSize), min(a.height*2, a.maxSize)
	shadow := make([]byte, nw*nh)
	for y := 0; y < a.height; y++ {
		copy(shadow[y*nw:], a.shadow[y*a.width:(y+1)*a.width])
	}
	ow, oh, oshadow := a.width, a.height, a.shadow
	a.shadow, a.width, a.height = shadow, nw, nh
	a.growths++

	b, err := a.newBinding()
	if err != nil {
		a.shadow, a.width, a.height = oshadow, ow, oh
		a.growths--
		return err
	}
	a.binding.redirect(b)
	a.binding = b
	a.alloc.Grow(nw, nh)
	gpucore.Logger().Info("texture: glyph atlas grown",
		"from", fmt.Sprintf("%dx%d", ow, oh), "to", fmt.Sprintf("%dx%d", nw, nh), "glyphs", len(a.glyphs))
	return nil
}

// Preload packs every glyph of text.
func (a *GlyphAtlas) Preload(text string) error {
	for _, r := range norm.NFC.String(text) {
		if _, err := a.Glyph(r); err != nil {
			return err
		}
	}
	return nil
}

type layoutKey struct {
	text  string
	align Alignment
}

// Layout positions the glyphs of text starting at origin. Lines are
// separated by '\n'. Whitespace advances the pen without producing a quad.
//
// Layouts are remembered relative to the origin. Glyphs are never evicted
// and keep their texel position across growth, so a remembered layout
// stays valid for the life of the atlas.
func (a *GlyphAtlas) Layout(text string, origin core.Point, align Alignment) ([]Quad, error) {
	key := layoutKey{text: text, align: align}
	rel, ok := a.layouts.Get(key)
	if !ok {
		var err error
		rel, err = a.layout(text, align)
		if err != nil {
			return offsetQuads(rel, origin), err
		}
		a.layouts.Put(key, rel)
	}
	return offsetQuads(rel, origin), nil
}

// LayoutCacheStats returns the counters of the layout cache.
func (a *GlyphAtlas) LayoutCacheStats() cache.Stats { return a.layouts.Stats() }

func (a *GlyphAtlas) layout(text string, align Alignment) ([]Quad, error) {
	var baseline float32
	if align == AlignTop {
		baseline = a.lineHeight
	}
	var pen float32
	quads := make([]Quad, 0, len(text))
	for _, r := range norm.NFC.String(text) {
		if r == '\n' {
			pen = 0
			baseline += a.lineHeight
			continue
		}
		g, err := a.Glyph(r)
		if err != nil {
			return quads, err
		}
		if g.Region.IsValid() {
			quads = append(quads, Quad{
				Rune: r,
				Dst:  core.R(pen+g.BearingX, baseline-g.BearingTop, float32(g.Region.Width), float32(g.Region.Height)),
				UV:   core.R(float32(g.Region.X), float32(g.Region.Y), float32(g.Region.Width), float32(g.Region.Height)),
			})
		}
		pen += g.Advance
	}
	return quads, nil
}

func offsetQuads(rel []Quad, origin core.Point) []Quad {
	out := make([]Quad, len(rel))
	for i, q := range rel {
		q.Dst.X += origin.X
		q.Dst.Y += origin.Y
		out[i] = q
	}
	return out
}

// MeasureText returns the advance width of the widest line of text.
// It does not touch the atlas.
func (a *GlyphAtlas) MeasureText(text string) float32 {
	var width, line float32
	for _, r := range norm.NFC.String(text) {
		if r == '\n' {
			width = max(width, line)
			line = 0
			continue
		}
		if g, ok := a.glyphs[r]; ok {
			line += g.Advance
			continue
		}
		adv, _ := a.face.GlyphAdvance(r)
		line += fixedToFloat(adv)
	}
	return max(width, line)
}

// Release frees the atlas texture.
func (a *GlyphAtlas) Release() {
	a.binding.Release()
}

func coverage(mask image.Image, maskp image.Point, w, h int) []byte {
	out := make([]byte, w*h)
	if alpha, ok := mask.(*image.Alpha); ok {
		for y := 0; y < h; y++ {
			off := alpha.PixOffset(maskp.X, maskp.Y+y)
			copy(out[y*w:(y+1)*w], alpha.Pix[off:off+w])
		}
		return out
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			_, _, _, ca := mask.At(maskp.X+x, maskp.Y+y).RGBA()
			out[y*w+x] = uint8(ca >> 8)
		}
	}
	return out
}

func fixedToFloat(v fixed.Int26_6) float32 {
	return float32(v) / 64
}
