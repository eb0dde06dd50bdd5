// Package ggedit is the rendering and compositing core of an interactive
// 2D image editor.
//
// # Overview
//
// The application decides what to draw: an ordered list of drawables and
// the effects it wants active. ggedit decides how. Every drawable is
// classified by vertex layout and shader program, turned into draw batches
// under the current transform, composited in paint order into the frame
// target and run through the active effect chain. One image per frame goes
// to the Presenter.
//
// # Quick Start
//
//	r, err := ggedit.NewRenderer()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
//	photo, _ := r.LoadImage("photo", img, ggedit.Sampling{})
//	status, err := r.RenderFrame(
//	    ggedit.ImageQuad{Texture: photo, Dst: core.R(0, 0, 640, 480)},
//	    ggedit.GlyphRun{Text: "hello", Origin: core.Pt(8, 8), Color: core.White},
//	    ggedit.ToolPreview{Bounds: core.R(100, 100, 200, 120), Color: core.RGB(0, 0.5, 1)},
//	)
//
// # Drawables
//
//   - ImageQuad: a texture region, optionally tinted (selection highlight)
//   - FlatShape: solid rectangles, filled or outlined
//   - GlyphRun: text from the glyph atlas, coverage-masked
//   - ToolPreview: a tool overlay with fill and outline
//
// # Effects
//
// Effects is a two-state machine per effect name. Active effects form an
// ordered chain of full-screen passes (tint, separable blur, identity or a
// custom WGSL fragment stage). Order matters: tint then blur differs from
// blur then tint.
//
// # Errors
//
// Failures are contained where they happen. A batch whose texture failed
// to upload is dropped and the frame goes on; a program that fails to
// compile is replaced by the fallback program of its vertex format; an
// unbalanced transform stack panics when Config.Debug is set and is reset
// otherwise. FrameStatus reports all of it.
//
// # Coordinate System
//
// Frame pixels, origin at the top-left, X right, Y down.
//
// # Threading
//
// A Renderer and its device belong to one goroutine. Other goroutines
// queue requests with Renderer.Commands; they run at the next BeginFrame.
package ggedit
