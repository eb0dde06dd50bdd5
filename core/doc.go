// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package core provides the value types shared by every layer of the
// ggedit rendering core: the 4x4 transform matrix, colors, points and
// rectangles.
//
// The types are GPU-facing: components are float32 and matrices are stored
// column-major, so they can be written to vertex and uniform buffers
// without conversion.
//
// # Coordinate spaces
//
// Canvas space has its origin at the top-left corner with y growing
// downwards, matching image memory layout. [Ortho] builds the projection
// from canvas space to clip space:
//
//	proj := core.Ortho(0, float32(w), float32(h), 0, -1, 1)
package core
