// Package shader manages the WGSL programs of the rendering core.
//
// A [Program] is a linked vertex+fragment pair identified by its two
// sources. It owns a uniform cache so that a write only reaches the device
// when the value changes, and it tolerates writes to uniforms its stages do
// not declare (logged once as an [UnknownUniformWarning]).
//
// Shader interface contract:
//   - position is @location(0); texcoord @location(1) when present;
//     color @location(1) or @location(2) depending on the vertex format
//   - every vertex stage declares a mat4x4<f32> uniform named transform
//     in the block at @binding(0)
//   - fragment uniforms live in the block at @binding(1)
//   - a fragment stage that samples declares texture_2d<f32> inputTexture
//     at @binding(2) and its sampler at @binding(3)
//
// [Library] owns the built-in programs, hands out fallbacks for programs
// that fail to compile, and hot-reloads custom effect shaders.
package shader
