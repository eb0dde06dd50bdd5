// Package texture owns device textures for the rendering core.
//
// A [Binding] wraps one device texture with its dimensions, pixel format,
// sampling parameters and a generation counter that advances on every full
// upload, so that anything built against an older upload can tell it is
// stale.
//
// A [GlyphAtlas] packs glyph coverage bitmaps into an R8 binding. It is
// append-only: glyphs are never evicted, and a full atlas is replaced by a
// larger one that keeps every glyph at the same texel position. The old
// binding is redirected to the new one, see [Binding.Resolve].
package texture
