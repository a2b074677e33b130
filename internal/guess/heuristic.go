package guess

import (
	"typeguess/internal/identity"
	"typeguess/internal/srctree"
	"typeguess/internal/typesys"
)

// verdict is the outcome of the heuristic pass.
type verdict int

const (
	// resolved: the pass found one type and the dataflow run is not needed.
	resolved verdict = iota
	// noInfo: nothing was learned and nothing suggests the interpreter would
	// learn more.
	noInfo
	// escalate: the flow is too involved for the pass; run the interpreter.
	escalate
)

func (v verdict) String() string {
	switch v {
	case resolved:
		return "resolved"
	case noInfo:
		return "no_info"
	}
	return "escalate"
}

// affectingElements lists, in pre-order, every expression and local
// variable declaration in block. It is the sequence the heuristic pass
// walks and is cached per block.
func affectingElements(block *srctree.Block) []srctree.Node {
	var out []srctree.Node
	srctree.Inspect(block, func(n srctree.Node) bool {
		switch x := n.(type) {
		case srctree.Expr:
			out = append(out, n)
		case *srctree.Var:
			if x.VarKind == srctree.LocalVar {
				out = append(out, n)
			}
		}
		return true
	})
	return out
}

// heuristic is the cheap pass over a block. It records the erased types
// assigned to the target, and flags escalation when the target is
// assigned more than one type or is inspected with a cast, instanceof or
// getClass() before the place.
type heuristic struct {
	place            srctree.Expr
	honorAssignments bool
	same             func(a, b srctree.Expr) bool

	specific typesys.Type
	declared bool
	needDfa  bool
}

func runHeuristic(elements []srctree.Node, place srctree.Expr, honorAssignments bool, same func(a, b srctree.Expr) bool) (verdict, typesys.Type) {
	h := &heuristic{place: place, honorAssignments: honorAssignments, same: same}
	for _, n := range elements {
		h.visit(n)
		if n == place || h.needDfa {
			break
		}
	}
	switch {
	case h.dfaNeeded():
		return escalate, nil
	case h.specific == nil:
		return noInfo, nil
	}
	return resolved, h.specific
}

func (h *heuristic) visit(n srctree.Node) {
	switch x := n.(type) {
	case *srctree.Var:
		if isReferenceTo(h.place, x) {
			h.declared = true
			if x.Init != nil {
				h.assigned(x.Init)
			}
		}
	case *srctree.Assign:
		if x.Op == "=" && h.same(x.LHS, h.place) {
			h.assigned(x.RHS)
		}
	case *srctree.Cast:
		if h.same(x.X, h.place) {
			h.needDfa = true
		}
	case *srctree.InstanceOf:
		if h.same(x.X, h.place) {
			h.needDfa = true
		}
	case *srctree.Call:
		if x.Name == "getClass" && len(x.Args) == 0 {
			if q := effectiveQualifier(x); q != nil && h.same(q, h.place) {
				h.needDfa = true
			}
		}
	}
}

// assigned records the erased, boxed type of a value stored into the
// target. A value with no usable type, or a second distinct type, calls
// for the interpreter.
func (h *heuristic) assigned(rhs srctree.Expr) {
	if !h.honorAssignments {
		return
	}
	t := rhs.Type()
	if t == nil || t == typesys.Null {
		h.needDfa = true
		return
	}
	t = typesys.Erase(typesys.Box(t))
	switch {
	case h.specific == nil:
		h.specific = t
	case !typesys.Equal(h.specific, t):
		h.needDfa = true
	}
}

// dfaNeeded decides escalation. A local declared in the block has had
// every assignment seen; otherwise the recorded type only helps when the
// interpreter can confirm it is more specific than the static type.
func (h *heuristic) dfaNeeded() bool {
	if h.needDfa {
		return true
	}
	if h.declared || h.specific == nil {
		return false
	}
	return !typesys.Equal(h.specific, typesys.Erase(h.place.Type()))
}

// isReferenceTo reports whether e is a plain name bound to v.
func isReferenceTo(e srctree.Expr, v *srctree.Var) bool {
	id, ok := srctree.SkipParens(e).(*srctree.Ident)
	return ok && id.Var == v
}

// effectiveQualifier returns the receiver of a call, with an implicit
// this for unqualified calls.
func effectiveQualifier(c *srctree.Call) srctree.Expr {
	if c.Recv != nil {
		return c.Recv
	}
	if c.Method != nil && c.Method.Static {
		return nil
	}
	return implicitThis
}

var implicitThis srctree.Expr = &srctree.This{}

// sameSite returns the comparison the passes use: identity equality with
// the hash consistency check.
func sameSite(c *identity.Checker) func(a, b srctree.Expr) bool {
	return func(a, b srctree.Expr) bool {
		if a == nil || b == nil {
			return false
		}
		return c.Equal(srctree.SkipParens(a), srctree.SkipParens(b))
	}
}
