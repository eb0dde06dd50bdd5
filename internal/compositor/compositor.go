// Package compositor draws batches into a render target in submission
// order, skipping redundant program and texture binds.
package compositor

import (
	"errors"
	"fmt"

	"github.com/gogpu/ggedit/core"
	"github.com/gogpu/ggedit/internal/batch"
	"github.com/gogpu/ggedit/internal/gpucore"
	"github.com/gogpu/ggedit/internal/shader"
	"github.com/gogpu/ggedit/internal/texture"
)

// ErrStaleBatch is recorded for a batch whose texture was re-uploaded
// after it was built and that has no way to rebuild itself.
var ErrStaleBatch = errors.New("compositor: batch texture changed since build")

// textureUnit is the unit every sampling program reads inputTexture from.
const textureUnit = 0

// FlushStats counts the work of one flush.
type FlushStats struct {
	Batches      int
	Draws        int
	ProgramBinds int
	TextureBinds int
	Dropped      int
	Rebuilt      int
}

// Add accumulates other into s.
func (s *FlushStats) Add(other FlushStats) {
	s.Batches += other.Batches
	s.Draws += other.Draws
	s.ProgramBinds += other.ProgramBinds
	s.TextureBinds += other.TextureBinds
	s.Dropped += other.Dropped
	s.Rebuilt += other.Rebuilt
}

// Compositor queues batches for one frame.
//
// It performs no sorting: paint order is submission order. A batch that
// cannot be drawn is dropped with a recorded error and the flush goes on.
type Compositor struct {
	dev    gpucore.Device
	queue  []*batch.Batch
	errors []error
}

// New creates a compositor drawing on dev.
func New(dev gpucore.Device) *Compositor {
	return &Compositor{dev: dev}
}

// Submit appends b to the queue. Nil batches are ignored.
func (c *Compositor) Submit(b *batch.Batch) {
	if b == nil {
		return
	}
	c.queue = append(c.queue, b)
}

// Pending returns the number of queued batches.
func (c *Compositor) Pending() int { return len(c.queue) }

// Discard drops every queued batch without drawing.
func (c *Compositor) Discard() {
	clear(c.queue)
	c.queue = c.queue[:0]
}

// Errors drains the errors recorded for dropped batches.
func (c *Compositor) Errors() []error {
	errs := c.errors
	c.errors = nil
	return errs
}

func (c *Compositor) drop(stats *FlushStats, b *batch.Batch, err error) {
	stats.Dropped++
	err = fmt.Errorf("compositor: batch %s dropped: %w", b.Label(), err)
	c.errors = append(c.errors, err)
	gpucore.Logger().Warn("compositor: batch dropped", "batch", b.Label(), "kind", b.Kind(), "err", err)
}

// Flush draws the queued batches into target in FIFO order and empties
// the queue. Only pass-level failures are returned; per-batch failures
// are recorded, see Errors.
func (c *Compositor) Flush(target *texture.Binding, load gpucore.LoadOp, clearColor core.RGBA) (FlushStats, error) {
	queue := c.queue
	defer c.Discard()

	var stats FlushStats
	stats.Batches = len(queue)
	if err := c.dev.BeginPass(target.Resolve().ID(), load, clearColor); err != nil {
		return stats, fmt.Errorf("compositor: begin pass: %w", err)
	}
	c.dev.SetBlend(gpucore.BlendSourceOver)

	var (
		program *shader.Program
		bound   = gpucore.TextureID(gpucore.InvalidID)
	)
	for _, b := range queue {
		if !b.Valid() {
			nb, ok := b.Rebuild()
			if !ok || !nb.Valid() {
				c.drop(&stats, b, ErrStaleBatch)
				continue
			}
			b = nb
			stats.Rebuilt++
		}

		var tex *texture.Binding
		if b.Texture() != nil {
			tex = b.Texture().Resolve()
			if err := tex.Err(); err != nil {
				c.drop(&stats, b, err)
				continue
			}
			if tex.ID() == gpucore.InvalidID {
				c.drop(&stats, b, texture.ErrNotUploaded)
				continue
			}
		}

		p := b.Program()
		if p != program {
			if err := p.Bind(); err != nil {
				program = nil
				c.drop(&stats, b, err)
				continue
			}
			program = p
			stats.ProgramBinds++
		}
		if err := c.setUniforms(p, b, tex); err != nil {
			c.drop(&stats, b, err)
			continue
		}
		if tex != nil && p.SamplesTexture() && tex.ID() != bound {
			if err := c.dev.BindTexture(textureUnit, tex.ID()); err != nil {
				c.drop(&stats, b, err)
				continue
			}
			bound = tex.ID()
			stats.TextureBinds++
		}
		if err := c.dev.Draw(b.Vertices()); err != nil {
			c.drop(&stats, b, err)
			continue
		}
		stats.Draws++
	}

	if err := c.dev.EndPass(); err != nil {
		return stats, fmt.Errorf("compositor: end pass: %w", err)
	}
	return stats, nil
}

func (c *Compositor) setUniforms(p *shader.Program, b *batch.Batch, tex *texture.Binding) error {
	if err := p.SetUniform("transform", gpucore.Mat4(b.Transform())); err != nil {
		return err
	}
	if tex == nil {
		return nil
	}
	if p.HasUniform("atlasSize") {
		if err := p.SetUniform("atlasSize", gpucore.Vec2(float32(tex.Width()), float32(tex.Height()))); err != nil {
			return err
		}
	}
	if p.SamplesTexture() {
		return p.SetUniform("inputTexture", gpucore.TextureUnit(textureUnit))
	}
	return nil
}
