package interp

import (
	"typeguess/internal/dataflow"
)

// memState maps variables to the type facts known at one program point.
// A variable without an entry is only known to be an instance of its
// declared type.
type memState struct {
	h           dataflow.Subtyping
	facts       map[*dataflow.Variable]dataflow.Constraint
	unreachable bool
}

func newState(h dataflow.Subtyping) *memState {
	return &memState{h: h, facts: make(map[*dataflow.Variable]dataflow.Constraint)}
}

func deadState(h dataflow.Subtyping) *memState {
	s := newState(h)
	s.unreachable = true
	return s
}

func (s *memState) Constraint(v dataflow.Value) dataflow.Constraint {
	switch x := v.(type) {
	case *dataflow.Variable:
		if c, ok := s.facts[x]; ok {
			return c
		}
		return dataflow.InstanceOf(x.Type)
	case dataflow.Temp:
		return dataflow.InstanceOf(x.Type)
	}
	return dataflow.Top()
}

func (s *memState) clone() *memState {
	c := &memState{h: s.h, facts: make(map[*dataflow.Variable]dataflow.Constraint, len(s.facts)), unreachable: s.unreachable}
	for k, v := range s.facts {
		c.facts[k] = v
	}
	return c
}

// set replaces everything known about v.
func (s *memState) set(v *dataflow.Variable, c dataflow.Constraint) {
	s.facts[v] = c
}

// narrow adds c to what is known about v. Untracked temporaries cannot be
// narrowed. A contradiction makes the state unreachable.
func (s *memState) narrow(v dataflow.Value, c dataflow.Constraint) {
	x, ok := v.(*dataflow.Variable)
	if !ok {
		return
	}
	m := s.Constraint(x).Meet(c, s.h)
	if m.IsBottom() {
		s.unreachable = true
		return
	}
	s.facts[x] = m
}

// flush forgets facts about every variable matching drop.
func (s *memState) flush(drop func(*dataflow.Variable) bool) {
	for v := range s.facts {
		if drop(v) {
			delete(s.facts, v)
		}
	}
}

// join merges two states reaching the same point.
func join(a, b *memState) *memState {
	if a.unreachable {
		return b.clone()
	}
	if b.unreachable {
		return a.clone()
	}
	out := newState(a.h)
	for v := range a.facts {
		out.facts[v] = a.Constraint(v).Join(b.Constraint(v), a.h)
	}
	for v := range b.facts {
		if _, done := out.facts[v]; !done {
			out.facts[v] = a.Constraint(v).Join(b.Constraint(v), a.h)
		}
	}
	return out
}

func (s *memState) equal(o *memState) bool {
	if s.unreachable || o.unreachable {
		return s.unreachable == o.unreachable
	}
	for v := range s.facts {
		if !s.Constraint(v).Equal(o.Constraint(v)) {
			return false
		}
	}
	for v := range o.facts {
		if !s.Constraint(v).Equal(o.Constraint(v)) {
			return false
		}
	}
	return true
}
