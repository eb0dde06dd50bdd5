// Package halgpu implements gpucore.Device on gogpu/wgpu/hal.
//
// Draw state follows the stateful gpucore model: the device keeps the
// current program, texture units, blend mode and uniform values, and
// snapshots them into a recorded command on every Draw. EndPass encodes
// the recorded commands into one render pass, submits it and waits on a
// fence, so that a pass is complete when EndPass returns.
//
// Each program owns one uniform block per stage. The vertex block is at
// @group(0) @binding(0), the fragment block at @binding(1), and sampling
// programs read inputTexture at @binding(2) with its sampler at
// @binding(3).
package halgpu
