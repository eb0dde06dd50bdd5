package compositor

import (
	"errors"
	"testing"

	"github.com/gogpu/ggedit/core"
	"github.com/gogpu/ggedit/internal/batch"
	"github.com/gogpu/ggedit/internal/gpucore"
	"github.com/gogpu/ggedit/internal/shader"
	"github.com/gogpu/ggedit/internal/soft"
	"github.com/gogpu/ggedit/internal/texture"
	"github.com/gogpu/ggedit/internal/vertex"
)

type fixture struct {
	dev    *soft.Device
	lib    *shader.Library
	build  *batch.Builder
	comp   *Compositor
	target *texture.Binding
	proj   core.Matrix
}

func newFixture(t *testing.T, w, h int, opts ...soft.Option) *fixture {
	t.Helper()
	dev := soft.New(opts...)
	lib, err := shader.NewLibrary(dev)
	if err != nil {
		t.Fatalf("NewLibrary: %v", err)
	}
	t.Cleanup(lib.Destroy)
	target, err := texture.NewRenderTarget(dev, "frame", w, h)
	if err != nil {
		t.Fatalf("NewRenderTarget: %v", err)
	}
	return &fixture{
		dev:    dev,
		lib:    lib,
		build:  batch.NewBuilder(lib),
		comp:   New(dev),
		target: target,
		proj:   core.Ortho(0, float32(w), float32(h), 0, -1, 1),
	}
}

func (f *fixture) rect(r core.Rect, c core.RGBA) *batch.Batch {
	buf := vertex.NewBuffer(gpucore.FormatPositionColor)
	buf.AppendQuad(r, core.Rect{}, c)
	return f.build.Build("rect", vertex.FlatColor, buf.Data(), nil, f.proj)
}

func (f *fixture) image(r core.Rect, tex *texture.Binding) *batch.Batch {
	buf := vertex.NewBuffer(gpucore.FormatPositionTexcoord)
	buf.AppendQuad(r, vertex.FullUV, core.White)
	return f.build.Build("image", vertex.PlainTexture, buf.Data(), tex, f.proj)
}

func (f *fixture) pixels(t *testing.T) []byte {
	t.Helper()
	data, err := f.target.Download()
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	return data
}

func (f *fixture) flush(t *testing.T, clear core.RGBA) FlushStats {
	t.Helper()
	stats, err := f.comp.Flush(f.target, gpucore.LoadClear, clear)
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	return stats
}

func uploadSolid(t *testing.T, dev gpucore.Device, w, h int, px [4]byte) *texture.Binding {
	t.Helper()
	data := make([]byte, 0, w*h*4)
	for i := 0; i < w*h; i++ {
		data = append(data, px[:]...)
	}
	b := texture.NewBinding(dev, "solid", texture.Sampling{})
	if err := b.Upload(data, w, h, gpucore.TextureFormatRGBA8); err != nil {
		t.Fatal(err)
	}
	return b
}

func TestRedQuadCoversCanvas(t *testing.T) {
	f := newFixture(t, 8, 8)
	f.comp.Submit(f.rect(core.R(0, 0, 8, 8), core.RGB(1, 0, 0)))
	stats := f.flush(t, core.Black)

	if stats.Draws != 1 || stats.Dropped != 0 {
		t.Errorf("stats = %+v", stats)
	}
	data := f.pixels(t)
	for i := 0; i < len(data); i += 4 {
		if data[i] != 255 || data[i+1] != 0 || data[i+2] != 0 || data[i+3] != 255 {
			t.Fatalf("pixel %d = %v, want opaque red", i/4, data[i:i+4])
		}
	}
}

func TestPaintOrder(t *testing.T) {
	f := newFixture(t, 4, 4)
	f.comp.Submit(f.rect(core.R(0, 0, 4, 4), core.RGB(1, 0, 0)))
	f.comp.Submit(f.rect(core.R(0, 0, 2, 4), core.RGB(0, 0, 1)))
	f.flush(t, core.Black)

	data := f.pixels(t)
	if data[2] != 255 || data[0] != 0 {
		t.Errorf("left pixel = %v, want blue on top", data[0:4])
	}
	if right := data[3*4 : 3*4+4]; right[0] != 255 || right[2] != 0 {
		t.Errorf("right pixel = %v, want red", right)
	}
}

func TestSourceOverBlend(t *testing.T) {
	f := newFixture(t, 2, 2)
	f.comp.Submit(f.rect(core.R(0, 0, 2, 2), core.RGBA2(1, 1, 1, 0.5)))
	f.flush(t, core.Black)

	data := f.pixels(t)
	if data[0] < 127 || data[0] > 128 || data[3] != 255 {
		t.Errorf("pixel = %v, want half white over opaque black", data[0:4])
	}
}

func TestStateChangeMinimization(t *testing.T) {
	f := newFixture(t, 4, 4)
	tex := uploadSolid(t, f.dev, 2, 2, [4]byte{0, 255, 0, 255})
	other := uploadSolid(t, f.dev, 2, 2, [4]byte{0, 0, 255, 255})

	f.comp.Submit(f.image(core.R(0, 0, 2, 2), tex))
	f.comp.Submit(f.image(core.R(2, 0, 2, 2), tex))
	f.comp.Submit(f.image(core.R(0, 2, 2, 2), other))
	f.comp.Submit(f.rect(core.R(2, 2, 2, 2), core.White))
	f.comp.Submit(f.image(core.R(2, 2, 1, 1), other))
	stats := f.flush(t, core.Black)

	want := FlushStats{Batches: 5, Draws: 5, ProgramBinds: 3, TextureBinds: 2}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
	if f.comp.Pending() != 0 {
		t.Errorf("Pending = %d after flush", f.comp.Pending())
	}
}

func TestFailedUploadDropsOnlyThatBatch(t *testing.T) {
	f := newFixture(t, 4, 4, soft.WithMemoryLimit(4*4*4+64))
	bad := texture.NewBinding(f.dev, "huge", texture.Sampling{})
	if err := bad.Upload(make([]byte, 64*64*4), 64, 64, gpucore.TextureFormatRGBA8); err == nil {
		t.Fatal("upload beyond the memory limit succeeded")
	}

	f.comp.Submit(f.rect(core.R(0, 0, 4, 4), core.RGB(1, 0, 0)))
	f.comp.Submit(f.image(core.R(0, 0, 4, 4), bad))
	f.comp.Submit(f.rect(core.R(0, 0, 2, 2), core.RGB(0, 1, 0)))
	stats := f.flush(t, core.Black)

	if stats.Draws != 2 || stats.Dropped != 1 {
		t.Errorf("stats = %+v, want 2 draws and 1 dropped", stats)
	}
	errs := f.comp.Errors()
	if len(errs) != 1 {
		t.Fatalf("Errors = %v, want one", errs)
	}
	var ue *texture.UploadError
	if !errors.As(errs[0], &ue) {
		t.Errorf("error = %v, want *UploadError", errs[0])
	}
	if data := f.pixels(t); data[4*4*3] != 255 {
		t.Errorf("pixel (0,3) = %v, want the red layer", data[4*4*3:4*4*3+4])
	}
}

func TestStaleBatch(t *testing.T) {
	f := newFixture(t, 4, 4)
	tex := uploadSolid(t, f.dev, 2, 2, [4]byte{255, 255, 255, 255})
	stale := f.image(core.R(0, 0, 4, 4), tex)
	hooked := f.image(core.R(0, 0, 4, 4), tex).OnRebuild(func() *batch.Batch {
		return f.image(core.R(0, 0, 4, 4), tex)
	})
	if err := tex.Upload(make([]byte, 4*4*4), 4, 4, gpucore.TextureFormatRGBA8); err != nil {
		t.Fatal(err)
	}

	f.comp.Submit(stale)
	f.comp.Submit(hooked)
	stats := f.flush(t, core.Black)

	if stats.Dropped != 1 || stats.Rebuilt != 1 || stats.Draws != 1 {
		t.Errorf("stats = %+v", stats)
	}
	errs := f.comp.Errors()
	if len(errs) != 1 || !errors.Is(errs[0], ErrStaleBatch) {
		t.Errorf("Errors = %v, want ErrStaleBatch", errs)
	}
}

func TestGlyphZeroCoverageIsTransparent(t *testing.T) {
	f := newFixture(t, 4, 4)
	mask := texture.NewBinding(f.dev, "mask", texture.Sampling{})
	if err := mask.Upload(make([]byte, 8*8), 8, 8, gpucore.TextureFormatR8); err != nil {
		t.Fatal(err)
	}
	for _, color := range []core.RGBA{core.RGB(1, 0, 0), core.White, core.RGB(0.2, 0.9, 0.4)} {
		buf := vertex.NewBuffer(gpucore.FormatPositionTexcoordColor)
		buf.AppendQuad(core.R(0, 0, 4, 4), core.R(0, 0, 8, 8), color)
		f.comp.Submit(f.build.Build("text", vertex.GlyphMask, buf.Data(), mask, f.proj))
		f.flush(t, core.Transparent)

		for i, v := range f.pixels(t) {
			if v != 0 {
				t.Fatalf("color %v: byte %d = %d, want transparent output", color, i, v)
			}
		}
	}
}

func TestGlyphRunFromAtlas(t *testing.T) {
	f := newFixture(t, 32, 16)
	atlas, err := texture.NewGlyphAtlas(f.dev, nil, texture.WithAtlasSize(16))
	if err != nil {
		t.Fatal(err)
	}
	quads, err := atlas.Layout("AB", core.Pt(2, 0), texture.AlignTop)
	if err != nil {
		t.Fatal(err)
	}
	buf := vertex.NewBuffer(gpucore.FormatPositionTexcoordColor)
	for _, q := range quads {
		buf.AppendQuad(q.Dst, q.UV, core.White)
	}
	// Built against the first atlas texture, which is replaced by growth.
	b := f.build.Build("text", vertex.GlyphMask, buf.Data(), atlas.Binding(), f.proj)
	if err := atlas.Preload("CDE"); err != nil {
		t.Fatal(err)
	}
	if atlas.Growths() == 0 {
		t.Fatal("atlas did not grow")
	}

	f.comp.Submit(b)
	stats := f.flush(t, core.Transparent)
	if stats.Draws != 1 {
		t.Fatalf("stats = %+v, errors %v", stats, f.comp.Errors())
	}
	var ink int
	data := f.pixels(t)
	for i := 3; i < len(data); i += 4 {
		if data[i] != 0 {
			ink++
		}
	}
	if ink == 0 {
		t.Error("no glyph coverage reached the frame")
	}
}

func TestDiscard(t *testing.T) {
	f := newFixture(t, 2, 2)
	f.comp.Submit(f.rect(core.R(0, 0, 2, 2), core.White))
	f.comp.Submit(nil)
	if f.comp.Pending() != 1 {
		t.Fatalf("Pending = %d, want 1", f.comp.Pending())
	}
	f.comp.Discard()
	stats := f.flush(t, core.Black)
	if stats.Draws != 0 {
		t.Errorf("discarded batch was drawn: %+v", stats)
	}
}
