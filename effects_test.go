package ggedit

import (
	"reflect"
	"testing"

	"github.com/gogpu/ggedit/core"
	"github.com/gogpu/ggedit/internal/effect"
	"github.com/gogpu/ggedit/internal/soft"
)

func TestEffectsStateMachine(t *testing.T) {
	e := NewEffects()
	if e.State("tint") != EffectInactive {
		t.Fatal("new effect not inactive")
	}
	if err := e.Activate("tint", "select", Tint(core.RGB(0.1, 0, 0))...); err != nil {
		t.Fatal(err)
	}
	if e.State("tint") != EffectActive {
		t.Error("Activate did not move tint to active")
	}
	if !e.Deactivate("tint") {
		t.Error("Deactivate of active effect reported false")
	}
	if e.Deactivate("tint") {
		t.Error("Deactivate of inactive effect reported true")
	}
	if e.State("tint") != EffectInactive {
		t.Error("Deactivate did not move tint to inactive")
	}
}

func TestEffectsKeepActivationOrder(t *testing.T) {
	e := NewEffects()
	_ = e.Activate("blur", "filters", Blur(2)...)
	_ = e.Activate("tint", "select", Tint(core.RGB(0, 0.2, 0))...)

	got := e.Passes()
	want := []effect.Kind{effect.Blur, effect.Blur, effect.Tint}
	if len(got) != len(want) {
		t.Fatalf("passes = %v", got)
	}
	for i, p := range got {
		if p.Kind != want[i] {
			t.Errorf("pass %d = %s, want %s", i, p.Kind, want[i])
		}
	}
	if got[0].Axis != Horizontal || got[1].Axis != Vertical {
		t.Error("blur passes not horizontal then vertical")
	}

	// Re-activation updates parameters in place.
	_ = e.Activate("blur", "filters", Blur(4)...)
	if !reflect.DeepEqual(e.Active(), []string{"blur", "tint"}) {
		t.Errorf("order after re-activation = %v", e.Active())
	}
	if e.Passes()[0].Radius != 4 {
		t.Errorf("radius after re-activation = %v, want 4", e.Passes()[0].Radius)
	}
}

func TestDeactivateTool(t *testing.T) {
	e := NewEffects()
	_ = e.Activate("a", "brush", Tint(core.White)...)
	_ = e.Activate("b", "select", Tint(core.White)...)
	_ = e.Activate("c", "brush", Blur(1)...)

	if n := e.DeactivateTool("brush"); n != 2 {
		t.Errorf("DeactivateTool = %d, want 2", n)
	}
	if !reflect.DeepEqual(e.Active(), []string{"b"}) {
		t.Errorf("active = %v, want [b]", e.Active())
	}
	if n := e.DeactivateTool("brush"); n != 0 {
		t.Errorf("second DeactivateTool = %d, want 0", n)
	}
}

func TestDeactivateToolIgnoresUnowned(t *testing.T) {
	e := NewEffects()
	_ = e.Activate("a", "", Tint(core.White)...)
	_ = e.Activate("b", "brush", Tint(core.White)...)

	if n := e.DeactivateTool(""); n != 0 {
		t.Errorf("DeactivateTool(\"\") = %d, want 0", n)
	}
	if !reflect.DeepEqual(e.Active(), []string{"a", "b"}) {
		t.Errorf("active = %v, want [a b]", e.Active())
	}
}

func TestActivateRejectsEmpty(t *testing.T) {
	e := NewEffects()
	if err := e.Activate("", "t", Tint(core.White)...); err == nil {
		t.Error("empty name accepted")
	}
	if err := e.Activate("x", "t"); err == nil {
		t.Error("effect without passes accepted")
	}
	if e.Len() != 0 {
		t.Errorf("Len = %d, want 0", e.Len())
	}
}

func TestEffectOrderChangesResult(t *testing.T) {
	render := func(names ...string) uint8 {
		r := newTestRenderer(t, 16, 16, "#000000", soft.New())
		for _, n := range names {
			switch n {
			case "tint":
				_ = r.Effects().Activate(n, "t", Tint(core.RGB(0.5, 0, 0))...)
			case "blur":
				_ = r.Effects().Activate(n, "t", Blur(1)...)
			}
		}
		_, img := mustFrame(t, r, FlatShape{Rects: []core.Rect{core.R(8, 0, 8, 16)}, Color: core.RGB(1, 0, 0)})
		return img.RGBAAt(5, 8).R
	}
	if a, b := render("tint", "blur"), render("blur", "tint"); a == b {
		t.Errorf("tint-then-blur and blur-then-tint both gave %d", a)
	}
}
