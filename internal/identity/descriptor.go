// Package identity decides when two expression occurrences denote the same
// analysis site. Each expression projects to a Descriptor whose hash
// depends only on its shape: references hash by the referenced name, calls
// by the called method name and everything else by node kind. Equality
// additionally requires deep structural equivalence of the two trees.
package identity

import (
	"strconv"

	"github.com/cespare/xxhash/v2"

	"typeguess/internal/srctree"
)

// Descriptor is the shape projection of one expression. The concrete
// variants are RefDescriptor, CallDescriptor and ShapeDescriptor.
type Descriptor interface {
	// Expr is the expression the descriptor was taken from.
	Expr() srctree.Expr
	// Hash is stable for a given projection.
	Hash() uint64
	// Same reports whether other is a Descriptor for an equivalent
	// expression.
	Same(other any) bool
	String() string

	projection() string
}

// RefDescriptor describes a reference to a named variable or field.
type RefDescriptor struct {
	expr srctree.Expr
	Name string
}

// CallDescriptor describes a method call.
type CallDescriptor struct {
	expr   srctree.Expr
	Method string
}

// ShapeDescriptor describes any other expression by its node kind.
type ShapeDescriptor struct {
	expr srctree.Expr
	Kind srctree.Kind
}

// Of returns the descriptor of e.
func Of(e srctree.Expr) Descriptor {
	switch x := e.(type) {
	case *srctree.Ident:
		return RefDescriptor{expr: e, Name: x.Name}
	case *srctree.FieldAccess:
		return RefDescriptor{expr: e, Name: x.Name}
	case *srctree.Call:
		return CallDescriptor{expr: e, Method: x.Name}
	}
	return ShapeDescriptor{expr: e, Kind: e.Kind()}
}

func (d RefDescriptor) Expr() srctree.Expr   { return d.expr }
func (d CallDescriptor) Expr() srctree.Expr  { return d.expr }
func (d ShapeDescriptor) Expr() srctree.Expr { return d.expr }

func (d RefDescriptor) projection() string   { return "ref:" + d.Name }
func (d CallDescriptor) projection() string  { return "call:" + d.Method }
func (d ShapeDescriptor) projection() string { return "kind:" + strconv.Itoa(int(d.Kind)) }

func (d RefDescriptor) String() string   { return d.Name }
func (d CallDescriptor) String() string  { return d.Method + "(...)" }
func (d ShapeDescriptor) String() string { return "<" + d.Kind.String() + ">" }

func (d RefDescriptor) Hash() uint64   { return hashOf(d) }
func (d CallDescriptor) Hash() uint64  { return hashOf(d) }
func (d ShapeDescriptor) Hash() uint64 { return hashOf(d) }

func (d RefDescriptor) Same(other any) bool   { return same(d, other) }
func (d CallDescriptor) Same(other any) bool  { return same(d, other) }
func (d ShapeDescriptor) Same(other any) bool { return same(d, other) }

func hashOf(d Descriptor) uint64 {
	return xxhash.Sum64String(d.projection())
}

func same(d Descriptor, other any) bool {
	o, ok := other.(Descriptor)
	if !ok || d.projection() != o.projection() {
		return false
	}
	return srctree.Equivalent(d.Expr(), o.Expr())
}

// Hash returns the shape hash of e.
func Hash(e srctree.Expr) uint64 {
	return Of(e).Hash()
}

// Equal reports whether a and b denote the same analysis site: same shape
// projection and structurally equivalent trees.
func Equal(a, b srctree.Expr) bool {
	return Of(a).Same(Of(b))
}
