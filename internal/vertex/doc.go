// Package vertex implements the vertex layouts of the rendering core.
//
// A drawable element is classified into one of four layout kinds, each
// carrying its attribute format and the name of its default program:
//
//	PlainTexture   PositionTexcoord       image quads
//	TintedTexture  PositionTexcoordColor  color-modulated image quads
//	FlatColor      PositionColor          filled shapes and outlines
//	GlyphMask      PositionTexcoordColor  text: rgb * sampled coverage
//
// Quads are emitted as two triangles (six vertices).
package vertex
