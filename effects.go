package ggedit

import (
	"fmt"

	"github.com/gogpu/ggedit/core"
	"github.com/gogpu/ggedit/internal/effect"
	"github.com/gogpu/ggedit/internal/gpucore"
)

// EffectPass is one full-screen post-processing pass.
type EffectPass = effect.Pass

// Blur axes.
const (
	Horizontal = effect.Horizontal
	Vertical   = effect.Vertical
)

// Tint returns an additive tint: every channel becomes min(1, in + offset).
// The alpha of offset is ignored.
func Tint(offset core.RGBA) []EffectPass {
	return []EffectPass{effect.TintPass(offset)}
}

// Blur returns the separable 9-tap blur, horizontal then vertical. radius
// scales the tap spacing in pixels.
func Blur(radius float32) []EffectPass {
	return effect.GaussianBlur(radius)
}

// DirectionalBlur returns a single blur pass along axis.
func DirectionalBlur(axis effect.Axis, radius float32) []EffectPass {
	return []EffectPass{effect.BlurPass(axis, radius)}
}

// CustomEffect returns a pass running the custom effect program loaded from
// the configured effect directory. params are written as f32 uniforms.
func CustomEffect(program string, params map[string]float32) []EffectPass {
	uniforms := make(map[string]gpucore.UniformValue, len(params))
	for name, v := range params {
		uniforms[name] = gpucore.Float(v)
	}
	return []EffectPass{effect.CustomPass(program, uniforms)}
}

// EffectState is the activation state of a named effect.
type EffectState uint8

const (
	EffectInactive EffectState = iota
	EffectActive
)

// String returns the state name.
func (s EffectState) String() string {
	if s == EffectActive {
		return "active"
	}
	return "inactive"
}

type activeEffect struct {
	name   string
	tool   string
	passes []EffectPass
}

// Effects tracks which effects are active and in what order. An effect is
// either inactive or active; active effects form an ordered chain, newest
// last.
//
// Effects is not safe for concurrent use. Requests from other goroutines
// go through the renderer's CommandQueue.
type Effects struct {
	active []activeEffect
}

// NewEffects creates an empty effect set.
func NewEffects() *Effects {
	return &Effects{}
}

func (e *Effects) index(name string) int {
	for i := range e.active {
		if e.active[i].name == name {
			return i
		}
	}
	return -1
}

// Activate moves name to the active state at the end of the chain, owned by
// tool. Activating an already active effect replaces its passes and keeps
// its position.
func (e *Effects) Activate(name, tool string, passes ...EffectPass) error {
	if name == "" {
		return fmt.Errorf("ggedit: activate effect: empty name")
	}
	if len(passes) == 0 {
		return fmt.Errorf("ggedit: activate effect %s: no passes", name)
	}
	passes = append([]EffectPass(nil), passes...)
	if i := e.index(name); i >= 0 {
		e.active[i].tool = tool
		e.active[i].passes = passes
		return nil
	}
	e.active = append(e.active, activeEffect{name: name, tool: tool, passes: passes})
	Logger().Debug("ggedit: effect activated", "name", name, "tool", tool, "passes", len(passes))
	return nil
}

// Deactivate moves name to the inactive state. It reports whether the
// effect was active.
func (e *Effects) Deactivate(name string) bool {
	i := e.index(name)
	if i < 0 {
		return false
	}
	e.active = append(e.active[:i], e.active[i+1:]...)
	Logger().Debug("ggedit: effect deactivated", "name", name)
	return true
}

// DeactivateTool deactivates every effect owned by tool, for when the tool
// is no longer selected. It returns the number of effects deactivated.
// Effects activated without a tool have no owner and are never matched.
func (e *Effects) DeactivateTool(tool string) int {
	if tool == "" {
		return 0
	}
	kept := e.active[:0]
	n := 0
	for _, a := range e.active {
		if a.tool == tool {
			n++
			continue
		}
		kept = append(kept, a)
	}
	e.active = kept
	return n
}

// State returns the state of name.
func (e *Effects) State(name string) EffectState {
	if e.index(name) >= 0 {
		return EffectActive
	}
	return EffectInactive
}

// Active returns the active effect names in chain order.
func (e *Effects) Active() []string {
	out := make([]string, len(e.active))
	for i, a := range e.active {
		out[i] = a.name
	}
	return out
}

// Len returns the number of active effects.
func (e *Effects) Len() int { return len(e.active) }

// Passes flattens the active effects into the pass chain.
func (e *Effects) Passes() []EffectPass {
	var out []EffectPass
	for _, a := range e.active {
		out = append(out, a.passes...)
	}
	return out
}
