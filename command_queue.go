package ggedit

import (
	"fmt"
	"image"
	"sync"
)

// Command is an application request executed on the render goroutine at
// the start of the next frame.
type Command func(r *Renderer) error

// CommandQueue hands requests from any goroutine to the render goroutine.
// Commands run in push order.
type CommandQueue struct {
	mu       sync.Mutex
	commands []Command
}

// Push appends a command.
func (q *CommandQueue) Push(c Command) {
	if c == nil {
		return
	}
	q.mu.Lock()
	q.commands = append(q.commands, c)
	q.mu.Unlock()
}

// Len returns the number of queued commands.
func (q *CommandQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.commands)
}

// drain runs every queued command. A failing command does not stop the
// ones after it.
func (q *CommandQueue) drain(r *Renderer) []error {
	q.mu.Lock()
	cmds := q.commands
	q.commands = nil
	q.mu.Unlock()

	var errs []error
	for _, c := range cmds {
		if err := c(r); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// ActivateEffect returns a command activating an effect.
func ActivateEffect(name, tool string, passes ...EffectPass) Command {
	return func(r *Renderer) error {
		return r.Effects().Activate(name, tool, passes...)
	}
}

// DeactivateEffect returns a command deactivating an effect.
func DeactivateEffect(name string) Command {
	return func(r *Renderer) error {
		r.Effects().Deactivate(name)
		return nil
	}
}

// DeactivateTool returns a command deactivating the effects of a tool.
func DeactivateTool(tool string) Command {
	return func(r *Renderer) error {
		r.Effects().DeactivateTool(tool)
		return nil
	}
}

// UploadImage returns a command replacing the contents of tex with img.
func UploadImage(tex *Texture, img image.Image) Command {
	return func(r *Renderer) error {
		if tex == nil {
			return ErrNoTexture
		}
		if err := tex.UploadImage(img); err != nil {
			return fmt.Errorf("ggedit: upload %s: %w", tex.Label(), err)
		}
		return nil
	}
}

// Resize returns a command resizing the frame.
func Resize(width, height int) Command {
	return func(r *Renderer) error {
		return r.Resize(width, height)
	}
}
