// Package soft implements gpucore.Device on the CPU.
//
// The software device is the reference executor of the rendering core: it
// rasterizes triangle lists at pixel centers with a top-left fill rule on a
// 1/256 subpixel grid, interpolates vertex attributes, runs a Go kernel
// per built-in program and blends the result into the pass target. It
// cannot run arbitrary WGSL, so programs whose kernel it does not know are
// rejected at creation, which callers treat like a compile failure.
//
// Besides backing tests with pixel-exact results, it counts every pass,
// draw, bind and uniform write, which is how state-change minimization is
// verified.
package soft
