package dataflow

import (
	"strings"

	"typeguess/internal/typesys"
)

// Subtyping is the part of the type system the constraint lattice needs.
type Subtyping interface {
	IsSubtype(sub, sup typesys.Type) bool
}

// Constraint is a conjunction of type facts about one value: "is an
// instance of T" and "is not an instance of U". The zero value is top (no
// facts). Constraints are immutable; Join and Meet return new values.
type Constraint struct {
	instanceOf    []typesys.Type
	notInstanceOf []typesys.Type
	bottom        bool
}

// Top returns the constraint with no facts.
func Top() Constraint { return Constraint{} }

// Bottom returns the unsatisfiable constraint.
func Bottom() Constraint { return Constraint{bottom: true} }

// InstanceOf returns the constraint "instance of t". Primitive and nil
// types carry no reference facts and yield top.
func InstanceOf(t typesys.Type) Constraint {
	if t == nil || !typesys.IsReference(t) {
		return Top()
	}
	return Constraint{instanceOf: typesys.Components(typesys.Erase(t))}
}

// NotInstanceOf returns the constraint "not an instance of t".
func NotInstanceOf(t typesys.Type) Constraint {
	if t == nil || !typesys.IsReference(t) {
		return Top()
	}
	return Constraint{notInstanceOf: []typesys.Type{typesys.Erase(t)}}
}

// IsTop reports whether c carries no facts.
func (c Constraint) IsTop() bool {
	return !c.bottom && len(c.instanceOf) == 0 && len(c.notInstanceOf) == 0
}

// IsBottom reports whether c is unsatisfiable.
func (c Constraint) IsBottom() bool { return c.bottom }

// InstanceOfTypes returns the positive facts, most specific first in the
// order they were established.
func (c Constraint) InstanceOfTypes() []typesys.Type {
	return append([]typesys.Type(nil), c.instanceOf...)
}

// NotInstanceOfTypes returns the negative facts.
func (c Constraint) NotInstanceOfTypes() []typesys.Type {
	return append([]typesys.Type(nil), c.notInstanceOf...)
}

// Meet is the conjunction of c and o. Positive facts implied by a more
// specific positive fact are dropped. The result is bottom when a value
// would have to be both an instance and not an instance of a type.
func (c Constraint) Meet(o Constraint, h Subtyping) Constraint {
	if c.bottom || o.bottom {
		return Bottom()
	}
	pos := mostSpecific(append(c.InstanceOfTypes(), o.instanceOf...), h)
	neg := mostGeneral(append(c.NotInstanceOfTypes(), o.notInstanceOf...), h)
	for _, p := range pos {
		for _, n := range neg {
			if h.IsSubtype(p, n) {
				return Bottom()
			}
		}
	}
	return Constraint{instanceOf: pos, notInstanceOf: neg}
}

// Join is the disjunction of c and o: it keeps only the facts that hold on
// both sides.
func (c Constraint) Join(o Constraint, h Subtyping) Constraint {
	if c.bottom {
		return o
	}
	if o.bottom {
		return c
	}
	var pos []typesys.Type
	for _, a := range c.instanceOf {
		if impliedPositive(a, o.instanceOf, h) {
			pos = append(pos, a)
		}
	}
	for _, b := range o.instanceOf {
		if impliedPositive(b, c.instanceOf, h) {
			pos = append(pos, b)
		}
	}
	var neg []typesys.Type
	for _, a := range c.notInstanceOf {
		if impliedNegative(a, o.notInstanceOf, h) {
			neg = append(neg, a)
		}
	}
	for _, b := range o.notInstanceOf {
		if impliedNegative(b, c.notInstanceOf, h) {
			neg = append(neg, b)
		}
	}
	return Constraint{instanceOf: mostSpecific(pos, h), notInstanceOf: mostGeneral(neg, h)}
}

// Equal reports whether c and o hold the same facts.
func (c Constraint) Equal(o Constraint) bool {
	if c.bottom || o.bottom {
		return c.bottom == o.bottom
	}
	return sameSet(c.instanceOf, o.instanceOf) && sameSet(c.notInstanceOf, o.notInstanceOf)
}

func (c Constraint) String() string {
	if c.bottom {
		return "⊥"
	}
	if c.IsTop() {
		return "⊤"
	}
	var parts []string
	for _, t := range c.instanceOf {
		parts = append(parts, "instanceof "+t.String())
	}
	for _, t := range c.notInstanceOf {
		parts = append(parts, "!instanceof "+t.String())
	}
	return strings.Join(parts, " && ")
}

// "x instanceof t" holds whenever x is an instance of some subtype of t.
func impliedPositive(t typesys.Type, facts []typesys.Type, h Subtyping) bool {
	for _, f := range facts {
		if h.IsSubtype(f, t) {
			return true
		}
	}
	return false
}

// "x not instanceof t" holds whenever x is not an instance of a supertype
// of t.
func impliedNegative(t typesys.Type, facts []typesys.Type, h Subtyping) bool {
	for _, f := range facts {
		if h.IsSubtype(t, f) {
			return true
		}
	}
	return false
}

// mostSpecific drops duplicates and any type that is a supertype of
// another type in the list, keeping first-seen order.
func mostSpecific(ts []typesys.Type, h Subtyping) []typesys.Type {
	var out []typesys.Type
	for i, t := range ts {
		redundant := false
		for j, u := range ts {
			if i == j {
				continue
			}
			if typesys.Equal(t, u) {
				if j < i {
					redundant = true
				}
			} else if h.IsSubtype(u, t) {
				redundant = true
			}
			if redundant {
				break
			}
		}
		if !redundant {
			out = append(out, t)
		}
	}
	return out
}

// mostGeneral drops duplicates and any type that is a subtype of another
// type in the list.
func mostGeneral(ts []typesys.Type, h Subtyping) []typesys.Type {
	var out []typesys.Type
	for i, t := range ts {
		redundant := false
		for j, u := range ts {
			if i == j {
				continue
			}
			if typesys.Equal(t, u) {
				if j < i {
					redundant = true
				}
			} else if h.IsSubtype(t, u) {
				redundant = true
			}
			if redundant {
				break
			}
		}
		if !redundant {
			out = append(out, t)
		}
	}
	return out
}

func sameSet(a, b []typesys.Type) bool {
	if len(a) != len(b) {
		return false
	}
	for _, x := range a {
		found := false
		for _, y := range b {
			if typesys.Equal(x, y) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
