package soft

import (
	"math"

	"github.com/gogpu/ggedit/core"
	"github.com/gogpu/ggedit/internal/gpucore"
)

// subpixel is the fixed-point scale of snapped vertex positions.
const subpixel = 256

type rasterizer struct {
	target  *texture
	program *program
	src     *texture
	blend   gpucore.BlendMode
}

type snapped struct {
	x, y int64
}

// triangle rasterizes one triangle given as three packed vertices.
func (r *rasterizer) triangle(data []float32, comps int) {
	var v [3]varying
	var s [3]snapped
	w, h := r.target.desc.Width, r.target.desc.Height
	for i := 0; i < 3; i++ {
		v[i] = r.program.kernel.vertex(r.program, data[i*comps:(i+1)*comps])
		cw := v[i].clip[3]
		if cw == 0 {
			return
		}
		ndcX := v[i].clip[0] / cw
		ndcY := v[i].clip[1] / cw
		px := (float64(ndcX) + 1) / 2 * float64(w)
		py := (1 - float64(ndcY)) / 2 * float64(h)
		s[i] = snapped{x: int64(math.Round(px * subpixel)), y: int64(math.Round(py * subpixel))}
	}

	area := orient(s[0], s[1], s[2])
	if area == 0 {
		return
	}
	if area < 0 {
		s[1], s[2] = s[2], s[1]
		v[1], v[2] = v[2], v[1]
		area = -area
	}

	minX := max(floorDiv(min(s[0].x, s[1].x, s[2].x)), 0)
	minY := max(floorDiv(min(s[0].y, s[1].y, s[2].y)), 0)
	maxX := min(floorDiv(max(s[0].x, s[1].x, s[2].x)), int64(w-1))
	maxY := min(floorDiv(max(s[0].y, s[1].y, s[2].y)), int64(h-1))

	tl0 := topLeft(s[1], s[2])
	tl1 := topLeft(s[2], s[0])
	tl2 := topLeft(s[0], s[1])

	inv := 1 / float64(area)
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			p := snapped{x: x*subpixel + subpixel/2, y: y*subpixel + subpixel/2}
			w0 := orient(s[1], s[2], p)
			w1 := orient(s[2], s[0], p)
			w2 := orient(s[0], s[1], p)
			if !inside(w0, tl0) || !inside(w1, tl1) || !inside(w2, tl2) {
				continue
			}
			b0 := float32(float64(w0) * inv)
			b1 := float32(float64(w1) * inv)
			b2 := float32(float64(w2) * inv)
			in := interpolate(&v, b0, b1, b2)
			out := r.program.kernel.fragment(r.program, r.src, &in)
			r.write(int(x), int(y), out)
		}
	}
}

func interpolate(v *[3]varying, b0, b1, b2 float32) varying {
	var out varying
	for i := range out.uv {
		out.uv[i] = v[0].uv[i]*b0 + v[1].uv[i]*b1 + v[2].uv[i]*b2
	}
	for i := range out.color {
		out.color[i] = v[0].color[i]*b0 + v[1].color[i]*b1 + v[2].color[i]*b2
	}
	return out
}

// write blends a fragment into the target.
func (r *rasterizer) write(x, y int, src [4]float32) {
	t := r.target
	if t.desc.Format == gpucore.TextureFormatR8 {
		i := y*t.desc.Width + x
		if r.blend == gpucore.BlendReplace {
			t.data[i] = core.ToByte(src[0])
			return
		}
		dst := float32(t.data[i]) / 255
		a := clamp01(src[3])
		t.data[i] = core.ToByte(src[0]*a + dst*(1-a))
		return
	}

	i := (y*t.desc.Width + x) * 4
	px := t.data[i : i+4 : i+4]
	if r.blend == gpucore.BlendReplace {
		for c := 0; c < 4; c++ {
			px[c] = core.ToByte(src[c])
		}
		return
	}
	a := clamp01(src[3])
	if a == 0 {
		return
	}
	for c := 0; c < 3; c++ {
		dst := float32(px[c]) / 255
		px[c] = core.ToByte(src[c]*a + dst*(1-a))
	}
	dstA := float32(px[3]) / 255
	px[3] = core.ToByte(a + dstA*(1-a))
}

// orient is twice the signed area of (a, b, p).
func orient(a, b, p snapped) int64 {
	return (b.x-a.x)*(p.y-a.y) - (b.y-a.y)*(p.x-a.x)
}

// topLeft reports whether the edge a->b owns pixel centers lying exactly
// on it. Exactly one of a->b and b->a does, so shared edges of adjacent
// triangles are filled once.
func topLeft(a, b snapped) bool {
	dy := b.y - a.y
	return dy < 0 || (dy == 0 && b.x-a.x > 0)
}

func inside(w int64, tl bool) bool {
	return w > 0 || (w == 0 && tl)
}

func floorDiv(v int64) int64 {
	if v >= 0 {
		return v / subpixel
	}
	return -((-v + subpixel - 1) / subpixel)
}
