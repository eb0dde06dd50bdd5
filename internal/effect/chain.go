package effect

import (
	"fmt"
	"sort"

	"github.com/gogpu/ggedit/core"
	"github.com/gogpu/ggedit/internal/gpucore"
	"github.com/gogpu/ggedit/internal/shader"
	"github.com/gogpu/ggedit/internal/texture"
	"github.com/gogpu/ggedit/internal/vertex"
)

// fullScreen is the unit quad every pass draws, mapped to the whole
// target by fullScreenTransform.
var (
	fullScreen          = quad()
	fullScreenTransform = core.Ortho(0, 1, 1, 0, -1, 1)
)

func quad() []float32 {
	buf := vertex.NewBuffer(gpucore.FormatPositionTexcoord)
	buf.AppendQuad(core.R(0, 0, 1, 1), vertex.FullUV, core.White)
	return buf.Take()
}

// Stats counts the work of one Apply.
type Stats struct {
	Passes    int
	Fallbacks int
}

// Chain applies effect passes in declared order, ping-ponging between two
// render targets of the input size.
type Chain struct {
	dev     gpucore.Device
	lib     *shader.Library
	passes  []Pass
	targets [2]*texture.Binding
}

// NewChain creates an empty chain.
func NewChain(dev gpucore.Device, lib *shader.Library, passes ...Pass) *Chain {
	return &Chain{dev: dev, lib: lib, passes: passes}
}

// Set replaces the passes.
func (c *Chain) Set(passes ...Pass) {
	c.passes = append(c.passes[:0], passes...)
}

// Append adds passes at the end of the chain.
func (c *Chain) Append(passes ...Pass) {
	c.passes = append(c.passes, passes...)
}

// Passes returns the passes in order.
func (c *Chain) Passes() []Pass { return c.passes }

// Len returns the number of passes.
func (c *Chain) Len() int { return len(c.passes) }

// Apply runs every pass, each reading the previous output. An empty chain
// returns input unchanged without rendering. The returned binding belongs
// to the chain and is overwritten by the next Apply.
func (c *Chain) Apply(input *texture.Binding) (*texture.Binding, Stats, error) {
	var stats Stats
	if len(c.passes) == 0 {
		return input, stats, nil
	}
	input = input.Resolve()
	if err := c.ensureTargets(input.Width(), input.Height()); err != nil {
		return input, stats, err
	}

	src := input
	for i, p := range c.passes {
		dst := c.targets[i%2]
		prog, ok := c.lib.Program(p.ProgramName())
		if !ok || prog.Format() != gpucore.FormatPositionTexcoord {
			prog = c.lib.Fallback(gpucore.FormatPositionTexcoord)
			stats.Fallbacks++
			p = IdentityPass()
		}
		if err := c.run(prog, p, src, dst); err != nil {
			return input, stats, fmt.Errorf("effect: pass %d %s: %w", i, c.passes[i], err)
		}
		stats.Passes++
		src = dst
	}
	return src, stats, nil
}

func (c *Chain) run(prog *shader.Program, p Pass, src, dst *texture.Binding) error {
	if err := c.dev.BeginPass(dst.ID(), gpucore.LoadClear, core.Transparent); err != nil {
		return err
	}
	err := c.draw(prog, p, src)
	if endErr := c.dev.EndPass(); err == nil {
		err = endErr
	}
	return err
}

func (c *Chain) draw(prog *shader.Program, p Pass, src *texture.Binding) error {
	c.dev.SetBlend(gpucore.BlendReplace)
	if err := prog.Bind(); err != nil {
		return err
	}
	if err := prog.SetUniform("transform", gpucore.Mat4(fullScreenTransform)); err != nil {
		return err
	}
	if err := prog.SetUniform("inputTexture", gpucore.TextureUnit(0)); err != nil {
		return err
	}
	params := p.uniforms(src.Width(), src.Height())
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := prog.SetUniform(name, params[name]); err != nil {
			return err
		}
	}
	if err := c.dev.BindTexture(0, src.ID()); err != nil {
		return err
	}
	return c.dev.Draw(fullScreen)
}

func (c *Chain) ensureTargets(width, height int) error {
	for i, t := range c.targets {
		if t != nil && t.Width() == width && t.Height() == height {
			continue
		}
		if t != nil {
			t.Release()
		}
		nt, err := texture.NewRenderTarget(c.dev, fmt.Sprintf("effect-%d", i), width, height)
		if err != nil {
			c.targets[i] = nil
			return err
		}
		c.targets[i] = nt
	}
	return nil
}

// Release frees the ping-pong targets.
func (c *Chain) Release() {
	for i, t := range c.targets {
		if t != nil {
			t.Release()
			c.targets[i] = nil
		}
	}
}
