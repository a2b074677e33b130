package guess

import (
	"context"

	"typeguess/internal/patterns"
	"typeguess/internal/srctree"
	"typeguess/internal/typesys"
)

// Flags select what the usage walk looks at for one variable.
type Flags uint8

const (
	// CheckUsage applies the method pattern table to every reference.
	CheckUsage Flags = 1 << iota
	// CheckDown follows references passed as call arguments into the
	// callee's parameter.
	CheckDown
	// CheckUp follows a parameter back to the arguments at its method's
	// call sites.
	CheckUp
)

// Default propagation limits. The visited set alone guarantees
// termination; these bound the work on wide or deep call graphs.
const (
	DefaultMaxDepth   = 8
	DefaultMaxVisited = 256
)

// propagator collects element types for one direction of the walk.
type propagator struct {
	ctx        context.Context
	patterns   *patterns.Table
	ignored    srctree.Range
	maxDepth   int
	maxVisited int

	found   *CandidateSet
	visited map[*srctree.Var]bool
	capped  bool
}

func (p *propagator) walk(v *srctree.Var, file *srctree.File, flags Flags, depth int) error {
	if err := p.ctx.Err(); err != nil {
		return err
	}
	if p.visited[v] {
		return nil
	}
	if depth > p.maxDepth || len(p.visited) >= p.maxVisited {
		p.capped = true
		return nil
	}
	p.visited[v] = true
	if file == nil {
		return nil
	}

	if flags&(CheckUsage|CheckDown) != 0 {
		for _, ref := range file.References(v) {
			if flags&CheckUsage != 0 {
				for _, t := range p.fromReference(ref, file) {
					if typesys.IsReference(t) {
						p.found.Add(t)
					}
				}
			}
			if flags&CheckDown != 0 {
				if err := p.down(ref, flags, depth); err != nil {
					return err
				}
			}
		}
	}

	if flags&CheckUp != 0 && v.VarKind == srctree.ParamVar {
		if err := p.up(v, file, flags, depth); err != nil {
			return err
		}
	}
	return nil
}

// down recurses into the callee parameter that receives ref.
func (p *propagator) down(ref srctree.Expr, flags Flags, depth int) error {
	call, ok := ref.Parent().(*srctree.Call)
	if !ok || call.Method == nil {
		return nil
	}
	i := srctree.ArgIndex(call, ref)
	if i < 0 || i >= len(call.Method.Params) {
		return nil
	}
	param := call.Method.Params[i]
	return p.walk(param, srctree.FileOf(call.Method), flags|CheckUsage, depth+1)
}

// up recurses into the variables passed for parameter v at each call site
// of its method in file.
func (p *propagator) up(v *srctree.Var, file *srctree.File, flags Flags, depth int) error {
	m, ok := v.Parent().(*srctree.Method)
	if !ok {
		return nil
	}
	i := srctree.ParamIndex(m, v)
	for _, call := range file.CallSites(m) {
		if i < 0 || i >= len(call.Args) {
			continue
		}
		if target := srctree.Binding(call.Args[i]); target != nil {
			if err := p.walk(target, file, flags|CheckUsage, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

// fromReference applies the pattern table to a reference used as the
// receiver of a call. Argument patterns yield the argument's type. Return
// patterns yield the type the result is cast to, either directly or
// through one local variable holding the result.
func (p *propagator) fromReference(ref srctree.Expr, file *srctree.File) []typesys.Type {
	call, ok := ref.Parent().(*srctree.Call)
	if !ok || call.Recv != ref {
		return nil
	}
	pat, ok := p.patterns.Find(call.Name, len(call.Args))
	if !ok {
		return nil
	}
	if !pat.FromReturn() {
		if t := call.Args[pat.Slot].Type(); t != nil {
			return []typesys.Type{t}
		}
		return nil
	}

	if p.ignores(call) {
		return nil
	}
	parent := srctree.ParentSkippingParens(call)
	if c, ok := parent.(*srctree.Cast); ok {
		return []typesys.Type{c.To}
	}
	if holder := resultHolder(call, parent); holder != nil {
		var out []typesys.Type
		for _, use := range file.References(holder) {
			if c, ok := srctree.ParentSkippingParens(use).(*srctree.Cast); ok && !p.ignores(c) {
				out = append(out, c.To)
			}
		}
		return out
	}
	return nil
}

// resultHolder returns the local variable a call result is stored in by
// its declaration or a plain assignment.
func resultHolder(call srctree.Expr, parent srctree.Node) *srctree.Var {
	switch x := parent.(type) {
	case *srctree.Var:
		if x.VarKind == srctree.LocalVar && srctree.SkipParens(x.Init) == call {
			return x
		}
	case *srctree.Assign:
		if x.Op == "=" && srctree.SkipParens(x.RHS) == call {
			if v := srctree.Binding(x.LHS); v != nil && v.VarKind == srctree.LocalVar {
				return v
			}
		}
	}
	return nil
}

func (p *propagator) ignores(n srctree.Node) bool {
	return p.ignored.Contains(srctree.RangeOf(n))
}
