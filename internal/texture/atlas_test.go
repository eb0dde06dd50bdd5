package texture

import (
	"errors"
	"testing"

	"github.com/gogpu/ggedit/core"
	"github.com/gogpu/ggedit/internal/soft"
)

func TestAtlasGlyphMetrics(t *testing.T) {
	atlas, err := NewGlyphAtlas(soft.New(), nil)
	if err != nil {
		t.Fatal(err)
	}
	g, err := atlas.Glyph('A')
	if err != nil {
		t.Fatal(err)
	}
	if g.Region.Width != 6 || g.Region.Height != 13 {
		t.Errorf("region = %v, want 6x13", g.Region)
	}
	if g.BearingTop != 11 || g.BearingX != 0 || g.Advance != 7 {
		t.Errorf("metrics = %+v", g)
	}
	if atlas.LineHeight() != 13 {
		t.Errorf("LineHeight = %v, want 13", atlas.LineHeight())
	}

	// Cached glyphs are not packed twice.
	if _, err := atlas.Glyph('A'); err != nil {
		t.Fatal(err)
	}
	if atlas.GlyphCount() != 1 {
		t.Errorf("GlyphCount = %d, want 1", atlas.GlyphCount())
	}

	var ink int
	data, _ := atlas.Binding().Download()
	w, _ := atlas.Size()
	for y := g.Region.Y; y < g.Region.Y+g.Region.Height; y++ {
		for x := g.Region.X; x < g.Region.X+g.Region.Width; x++ {
			if data[y*w+x] != 0 {
				ink++
			}
		}
	}
	if ink == 0 {
		t.Error("glyph coverage not uploaded")
	}
}

func TestAtlasGrowKeepsRegions(t *testing.T) {
	dev := soft.New()
	atlas, err := NewGlyphAtlas(dev, nil, WithAtlasSize(16))
	if err != nil {
		t.Fatal(err)
	}
	if err := atlas.Preload("AB"); err != nil {
		t.Fatal(err)
	}
	first := atlas.Binding()
	a, _ := atlas.Glyph('A')
	before, _ := first.Download()
	gen := first.Generation()

	if err := atlas.Preload("C"); err != nil {
		t.Fatal(err)
	}
	if atlas.Growths() != 1 {
		t.Fatalf("Growths = %d, want 1", atlas.Growths())
	}
	if w, h := atlas.Size(); w != 32 || h != 32 {
		t.Errorf("Size = %dx%d, want 32x32", w, h)
	}
	if first.Generation() != gen {
		t.Error("old binding generation changed")
	}
	if !first.Redirected() || first.Resolve() != atlas.Binding() {
		t.Error("old binding does not resolve to the grown atlas")
	}
	if a2, _ := atlas.Glyph('A'); a2.Region != a.Region {
		t.Errorf("region moved: %v -> %v", a.Region, a2.Region)
	}

	after, err := first.Download()
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range "AB" {
		g, _ := atlas.Glyph(r)
		reg := g.Region
		for y := reg.Y; y < reg.Y+reg.Height; y++ {
			for x := reg.X; x < reg.X+reg.Width; x++ {
				if before[y*16+x] != after[y*32+x] {
					t.Fatalf("glyph %q texel (%d,%d) = %d, want %d", r, x, y, after[y*32+x], before[y*16+x])
				}
			}
		}
	}
	if dev.TextureCount() != 1 {
		t.Errorf("TextureCount = %d, want 1", dev.TextureCount())
	}
}

func TestAtlasFull(t *testing.T) {
	atlas, err := NewGlyphAtlas(soft.New(), nil, WithAtlasSize(16), WithMaxAtlasSize(16))
	if err != nil {
		t.Fatal(err)
	}
	if err := atlas.Preload("ABC"); !errors.Is(err, ErrAtlasFull) {
		t.Errorf("Preload error = %v, want ErrAtlasFull", err)
	}
	if atlas.GlyphCount() != 2 {
		t.Errorf("GlyphCount = %d, want 2", atlas.GlyphCount())
	}
}

func TestAtlasLayout(t *testing.T) {
	atlas, err := NewGlyphAtlas(soft.New(), nil)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name  string
		text  string
		align Alignment
		want  []core.Rect
	}{
		{"bottom", "AB", AlignBottom, []core.Rect{core.R(10, 9, 6, 13), core.R(17, 9, 6, 13)}},
		{"top", "A", AlignTop, []core.Rect{core.R(10, 22, 6, 13)}},
		{"space", "A B", AlignBottom, []core.Rect{core.R(10, 9, 6, 13), core.R(24, 9, 6, 13)}},
		{"newline", "A\nB", AlignBottom, []core.Rect{core.R(10, 9, 6, 13), core.R(10, 22, 6, 13)}},
		{"empty", "", AlignTop, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quads, err := atlas.Layout(tt.text, core.Pt(10, 20), tt.align)
			if err != nil {
				t.Fatal(err)
			}
			if len(quads) != len(tt.want) {
				t.Fatalf("got %d quads, want %d", len(quads), len(tt.want))
			}
			for i, q := range quads {
				if q.Dst != tt.want[i] {
					t.Errorf("quad %d Dst = %+v, want %+v", i, q.Dst, tt.want[i])
				}
				g, _ := atlas.Glyph(q.Rune)
				if q.UV.X != float32(g.Region.X) || q.UV.W != float32(g.Region.Width) {
					t.Errorf("quad %d UV = %+v, region %v", i, q.UV, g.Region)
				}
			}
		})
	}
}

func TestMeasureText(t *testing.T) {
	atlas, err := NewGlyphAtlas(soft.New(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := atlas.MeasureText("AB\nABC"); got != 21 {
		t.Errorf("MeasureText = %v, want 21", got)
	}
	if atlas.GlyphCount() != 0 {
		t.Errorf("MeasureText packed %d glyphs", atlas.GlyphCount())
	}
}

func TestAtlasLayoutCache(t *testing.T) {
	atlas, err := NewGlyphAtlas(soft.New(), nil, WithLayoutCacheSize(1))
	if err != nil {
		t.Fatal(err)
	}
	first, _ := atlas.Layout("AB", core.Pt(0, 0), AlignBottom)
	moved, _ := atlas.Layout("AB", core.Pt(5, 7), AlignBottom)
	if s := atlas.LayoutCacheStats(); s.Hits != 1 || s.Misses != 1 {
		t.Errorf("stats after repeat = %+v, want 1 hit 1 miss", s)
	}
	for i := range first {
		want := first[i].Dst
		want.X += 5
		want.Y += 7
		if moved[i].Dst != want {
			t.Errorf("quad %d Dst = %+v, want %+v", i, moved[i].Dst, want)
		}
	}
	moved[0].Dst.X = -1
	again, _ := atlas.Layout("AB", core.Pt(0, 0), AlignBottom)
	if again[0].Dst != first[0].Dst {
		t.Error("caller modification leaked into the cached layout")
	}

	atlas.Layout("C", core.Pt(0, 0), AlignBottom)
	if s := atlas.LayoutCacheStats(); s.Evictions != 1 || s.Len != 1 {
		t.Errorf("stats after overflow = %+v, want 1 eviction 1 entry", s)
	}
}
