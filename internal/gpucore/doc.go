// Package gpucore defines the device abstraction the rendering core draws
// through.
//
// A [Device] exposes a small, stateful command surface modelled on the way
// an editor drives its graphics context: programs with named uniforms,
// textures addressed by opaque IDs, render passes into a target texture,
// and one draw call per vertex stream. Two implementations exist:
// internal/soft (a CPU reference executor) and internal/halgpu (gogpu/wgpu
// HAL).
//
// All Device methods must be called from the goroutine that owns the
// device.
package gpucore
