package soft

import (
	"math"

	"github.com/gogpu/ggedit/internal/gpucore"
)

// varying holds one vertex after the vertex stage.
type varying struct {
	clip  [4]float32
	uv    [2]float32
	color [4]float32
}

// kernel is the CPU rendition of one built-in program.
type kernel struct {
	format   gpucore.VertexFormat
	vertex   func(p *program, in []float32) varying
	fragment func(p *program, src *texture, v *varying) [4]float32
}

// Binomial blur weights, center first: 70 56 28 8 1 over 256.
var blurWeights = [5]float32{70.0 / 256, 56.0 / 256, 28.0 / 256, 8.0 / 256, 1.0 / 256}

var kernels = map[string]kernel{
	gpucore.KernelTexture: {
		format: gpucore.FormatPositionTexcoord,
		vertex: transformVertex,
		fragment: func(p *program, src *texture, v *varying) [4]float32 {
			return src.sample(v.uv[0], v.uv[1])
		},
	},
	gpucore.KernelTintedTexture: {
		format: gpucore.FormatPositionTexcoordColor,
		vertex: transformVertex,
		fragment: func(p *program, src *texture, v *varying) [4]float32 {
			t := src.sample(v.uv[0], v.uv[1])
			return [4]float32{t[0] * v.color[0], t[1] * v.color[1], t[2] * v.color[2], t[3]}
		},
	},
	gpucore.KernelFlatColor: {
		format: gpucore.FormatPositionColor,
		vertex: transformVertex,
		fragment: func(p *program, src *texture, v *varying) [4]float32 {
			return v.color
		},
	},
	gpucore.KernelGlyph: {
		format: gpucore.FormatPositionTexcoordColor,
		vertex: func(p *program, in []float32) varying {
			v := transformVertex(p, in)
			size := p.uniforms["atlasSize"].Data
			if size[0] != 0 && size[1] != 0 {
				v.uv[0] /= size[0]
				v.uv[1] /= size[1]
			}
			return v
		},
		fragment: func(p *program, src *texture, v *varying) [4]float32 {
			coverage := src.sample(v.uv[0], v.uv[1])[0]
			return [4]float32{v.color[0], v.color[1], v.color[2], coverage}
		},
	},
	gpucore.KernelTint: {
		format: gpucore.FormatPositionTexcoord,
		vertex: transformVertex,
		fragment: func(p *program, src *texture, v *varying) [4]float32 {
			t := src.sample(v.uv[0], v.uv[1])
			off := p.uniforms["offset"].Data
			for i := range t {
				t[i] = clamp01(t[i] + off[i])
			}
			return t
		},
	},
	gpucore.KernelBlur: {
		format: gpucore.FormatPositionTexcoord,
		vertex: transformVertex,
		fragment: func(p *program, src *texture, v *varying) [4]float32 {
			dir := p.uniforms["direction"].Data
			var sum [4]float32
			for k := -4; k <= 4; k++ {
				w := blurWeights[abs(k)]
				t := src.sample(v.uv[0]+float32(k)*dir[0], v.uv[1]+float32(k)*dir[1])
				for i := range sum {
					sum[i] += t[i] * w
				}
			}
			return sum
		},
	},
}

// transformVertex applies the transform uniform to the position and
// forwards the remaining attributes.
func transformVertex(p *program, in []float32) varying {
	m := p.uniforms["transform"].Matrix()
	x, y := in[0], in[1]
	var v varying
	v.clip = [4]float32{
		m[0]*x + m[4]*y + m[12],
		m[1]*x + m[5]*y + m[13],
		m[2]*x + m[6]*y + m[14],
		m[3]*x + m[7]*y + m[15],
	}
	switch p.desc.Format {
	case gpucore.FormatPositionTexcoord:
		v.uv = [2]float32{in[2], in[3]}
		v.color = [4]float32{1, 1, 1, 1}
	case gpucore.FormatPositionTexcoordColor:
		v.uv = [2]float32{in[2], in[3]}
		v.color = [4]float32{in[4], in[5], in[6], 1}
	case gpucore.FormatPositionColor:
		v.color = [4]float32{in[2], in[3], in[4], in[5]}
	}
	return v
}

// sample reads the texture at normalized coordinates. R8 textures sample
// as (r, 0, 0, 1).
func (t *texture) sample(u, v float32) [4]float32 {
	if t.desc.Filter == gpucore.FilterLinear {
		return t.sampleLinear(u, v)
	}
	x := int(math.Floor(float64(u) * float64(t.desc.Width)))
	y := int(math.Floor(float64(v) * float64(t.desc.Height)))
	return t.texel(x, y)
}

func (t *texture) sampleLinear(u, v float32) [4]float32 {
	fx := float64(u)*float64(t.desc.Width) - 0.5
	fy := float64(v)*float64(t.desc.Height) - 0.5
	x0, y0 := math.Floor(fx), math.Floor(fy)
	ax, ay := float32(fx-x0), float32(fy-y0)
	ix, iy := int(x0), int(y0)

	t00 := t.texel(ix, iy)
	t10 := t.texel(ix+1, iy)
	t01 := t.texel(ix, iy+1)
	t11 := t.texel(ix+1, iy+1)
	var out [4]float32
	for i := range out {
		top := t00[i] + (t10[i]-t00[i])*ax
		bottom := t01[i] + (t11[i]-t01[i])*ax
		out[i] = top + (bottom-top)*ay
	}
	return out
}

func (t *texture) texel(x, y int) [4]float32 {
	w, h := t.desc.Width, t.desc.Height
	if t.desc.Wrap == gpucore.WrapRepeat {
		x = ((x % w) + w) % w
		y = ((y % h) + h) % h
	} else {
		x = min(max(x, 0), w-1)
		y = min(max(y, 0), h-1)
	}
	if t.desc.Format == gpucore.TextureFormatR8 {
		return [4]float32{float32(t.data[y*w+x]) / 255, 0, 0, 1}
	}
	i := (y*w + x) * 4
	return [4]float32{
		float32(t.data[i]) / 255,
		float32(t.data[i+1]) / 255,
		float32(t.data[i+2]) / 255,
		float32(t.data[i+3]) / 255,
	}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
