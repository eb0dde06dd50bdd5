package ggedit

import "github.com/gogpu/ggedit/core"

// TransformStack composes nested transforms. The top is always the product
// of every pushed matrix in push order; Pop restores the saved value, never
// an inverse, so round trips are exact.
//
// The zero value is an empty stack whose current transform is the identity.
type TransformStack struct {
	base  core.Matrix
	saved []core.Matrix
	cur   core.Matrix
	init  bool
}

// NewTransformStack creates a stack whose bottom transform is base.
func NewTransformStack(base core.Matrix) *TransformStack {
	return &TransformStack{base: base, cur: base, init: true}
}

func (s *TransformStack) ensure() {
	if !s.init {
		s.base = core.Identity()
		s.cur = s.base
		s.init = true
	}
}

// Push saves the current transform and replaces it with Current() * m,
// so m applies before every enclosing transform.
func (s *TransformStack) Push(m core.Matrix) {
	s.ensure()
	s.saved = append(s.saved, s.cur)
	s.cur = s.cur.Multiply(m)
}

// Pop restores the transform saved by the matching Push.
func (s *TransformStack) Pop() error {
	s.ensure()
	if len(s.saved) == 0 {
		return &UnbalancedTransformError{Depth: 0, Expected: 1}
	}
	n := len(s.saved) - 1
	s.cur = s.saved[n]
	s.saved = s.saved[:n]
	return nil
}

// Current returns the composed transform.
func (s *TransformStack) Current() core.Matrix {
	s.ensure()
	return s.cur
}

// Depth returns the number of unmatched pushes.
func (s *TransformStack) Depth() int { return len(s.saved) }

// Reset drops every pushed transform.
func (s *TransformStack) Reset() {
	s.ensure()
	s.saved = s.saved[:0]
	s.cur = s.base
}

// SetBase replaces the bottom transform. Pushed transforms are dropped.
func (s *TransformStack) SetBase(base core.Matrix) {
	s.base = base
	s.init = true
	s.Reset()
}

// truncate pops down to depth.
func (s *TransformStack) truncate(depth int) {
	for len(s.saved) > depth {
		_ = s.Pop()
	}
}
