package srctree

import (
	"typeguess/internal/typesys"
)

// Children returns the direct children of each node kind in source order.

func (f *File) Children() []Node {
	out := make([]Node, 0, len(f.Classes)+1)
	for _, c := range f.Classes {
		out = append(out, c)
	}
	if f.Fragment != nil {
		out = append(out, f.Fragment)
	}
	return out
}

func (c *Class) Children() []Node {
	out := make([]Node, 0, len(c.Fields)+len(c.Methods)+len(c.Initializers))
	for _, v := range c.Fields {
		out = append(out, v)
	}
	for _, b := range c.Initializers {
		out = append(out, b)
	}
	for _, m := range c.Methods {
		out = append(out, m)
	}
	sortByPos(out)
	return out
}

func (m *Method) Children() []Node {
	out := make([]Node, 0, len(m.Params)+1)
	for _, p := range m.Params {
		out = append(out, p)
	}
	if m.Body != nil {
		out = append(out, m.Body)
	}
	return out
}

func (v *Var) Children() []Node { return exprs(v.Init) }

func (b *Block) Children() []Node { return stmts(b.Stmts) }

func (d *DeclStmt) Children() []Node {
	out := make([]Node, len(d.Vars))
	for i, v := range d.Vars {
		out[i] = v
	}
	return out
}

func (s *ExprStmt) Children() []Node { return exprs(s.X) }

func (s *If) Children() []Node {
	out := exprs(s.Cond)
	if s.Then != nil {
		out = append(out, s.Then)
	}
	if s.Else != nil {
		out = append(out, s.Else)
	}
	return out
}

func (s *Loop) Children() []Node {
	out := stmts(s.Init)
	out = append(out, exprs(s.Iter, s.Cond)...)
	if s.Body != nil {
		out = append(out, s.Body)
	}
	return append(out, exprs(s.Update...)...)
}

func (s *Return) Children() []Node { return exprs(s.X) }

func (s *OtherStmt) Children() []Node {
	out := exprs(s.Exprs...)
	out = append(out, stmts(s.Stmts)...)
	sortByPos(out)
	return out
}

func (e *Ident) Children() []Node       { return nil }
func (e *FieldAccess) Children() []Node { return exprs(e.X) }

func (e *Call) Children() []Node {
	out := exprs(e.Recv)
	return append(out, exprs(e.Args...)...)
}

func (e *New) Children() []Node        { return exprs(e.Args...) }
func (e *Cast) Children() []Node       { return exprs(e.X) }
func (e *InstanceOf) Children() []Node { return exprs(e.X) }
func (e *Assign) Children() []Node     { return exprs(e.LHS, e.RHS) }
func (e *Literal) Children() []Node    { return nil }
func (e *Binary) Children() []Node     { return exprs(e.X, e.Y) }
func (e *Unary) Children() []Node      { return exprs(e.X) }
func (e *Conditional) Children() []Node {
	return exprs(e.Cond, e.Then, e.Else)
}
func (e *Paren) Children() []Node   { return exprs(e.X) }
func (e *This) Children() []Node    { return nil }
func (e *Index) Children() []Node   { return exprs(e.X, e.Index) }
func (e *Opaque) Children() []Node  { return exprs(e.Parts...) }

func exprs(list ...Expr) []Node {
	out := make([]Node, 0, len(list))
	for _, e := range list {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

func stmts(list []Stmt) []Node {
	out := make([]Node, 0, len(list))
	for _, s := range list {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// sortByPos orders nodes by start offset; insertion sort keeps equal
// offsets (unpositioned trees) in their original order.
func sortByPos(nodes []Node) {
	for i := 1; i < len(nodes); i++ {
		for j := i; j > 0 && nodes[j].Pos() < nodes[j-1].Pos(); j-- {
			nodes[j], nodes[j-1] = nodes[j-1], nodes[j]
		}
	}
}

// Inspect traverses the tree rooted at n in pre-order, calling f for each
// node. If f returns false the children of that node are skipped.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	for _, c := range n.Children() {
		Inspect(c, f)
	}
}

// Link sets parent pointers below root. When root carries no span the
// whole tree is given synthetic pre-order offsets, so that trees built in
// code still have a textual order and nested ranges.
func Link(root Node) {
	synth := root.End() == 0
	next := 0
	var walk func(n, parent Node)
	walk = func(n, parent Node) {
		b := n.base()
		b.parent = parent
		if synth {
			b.pos = next
			next++
		}
		for _, c := range n.Children() {
			walk(c, n)
		}
		if synth {
			b.end = next
			next++
		}
	}
	walk(root, nil)
}

// FileOf returns the file containing n, or nil for a detached node.
func FileOf(n Node) *File {
	for ; n != nil; n = n.Parent() {
		if f, ok := n.(*File); ok {
			return f
		}
	}
	return nil
}

// EnclosingMethod returns the nearest method containing n.
func EnclosingMethod(n Node) *Method {
	for ; n != nil; n = n.Parent() {
		if m, ok := n.(*Method); ok {
			return m
		}
	}
	return nil
}

// EnclosingClass returns the nearest class containing n.
func EnclosingClass(n Node) *Class {
	for ; n != nil; n = n.Parent() {
		if c, ok := n.(*Class); ok {
			return c
		}
	}
	return nil
}

// SkipParens strips any parentheses around e.
func SkipParens(e Expr) Expr {
	for {
		p, ok := e.(*Paren)
		if !ok {
			return e
		}
		e = p.X
	}
}

// ParentSkippingParens returns the first ancestor of e that is not a
// parenthesized expression.
func ParentSkippingParens(e Expr) Node {
	p := e.Parent()
	for {
		if _, ok := p.(*Paren); !ok {
			return p
		}
		p = p.Parent()
	}
}

// ArgIndex returns the position of arg in call's argument list, or -1.
func ArgIndex(call *Call, arg Expr) int {
	for i, a := range call.Args {
		if a == arg {
			return i
		}
	}
	return -1
}

// ParamIndex returns the position of v among m's parameters, or -1.
func ParamIndex(m *Method, v *Var) int {
	for i, p := range m.Params {
		if p == v {
			return i
		}
	}
	return -1
}

// Binding returns the variable an expression refers to: the bound
// variable of an identifier or field access, or nil.
func Binding(e Expr) *Var {
	switch x := SkipParens(e).(type) {
	case *Ident:
		return x.Var
	case *FieldAccess:
		return x.Var
	}
	return nil
}

// ExprAt returns the innermost expression whose span contains offset.
func ExprAt(root Node, offset int) Expr {
	var found Expr
	Inspect(root, func(n Node) bool {
		if offset < n.Pos() || offset >= n.End() {
			return false
		}
		if e, ok := n.(Expr); ok {
			found = e
		}
		return true
	})
	return found
}

// Equivalent reports whether two expressions are structurally the same:
// same kinds, names, bindings, types of casts and literals, and
// recursively equivalent operands. It is the textual-equality check used
// to decide that two occurrences denote the same analysis site.
func Equivalent(a, b Expr) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a == b {
		return true
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case *Ident:
		y := b.(*Ident)
		return x.Name == y.Name && x.Var == y.Var && x.TypeRef == y.TypeRef
	case *FieldAccess:
		y := b.(*FieldAccess)
		return x.Name == y.Name && x.Var == y.Var && Equivalent(x.X, y.X)
	case *Call:
		y := b.(*Call)
		if x.Name != y.Name || len(x.Args) != len(y.Args) || !Equivalent(x.Recv, y.Recv) {
			return false
		}
		return equivalentList(x.Args, y.Args)
	case *New:
		y := b.(*New)
		return typesys.Equal(x.Type(), y.Type()) && equivalentList(x.Args, y.Args)
	case *Cast:
		y := b.(*Cast)
		return typesys.Equal(x.To, y.To) && Equivalent(x.X, y.X)
	case *InstanceOf:
		y := b.(*InstanceOf)
		return typesys.Equal(x.Of, y.Of) && Equivalent(x.X, y.X)
	case *Assign:
		y := b.(*Assign)
		return x.Op == y.Op && Equivalent(x.LHS, y.LHS) && Equivalent(x.RHS, y.RHS)
	case *Literal:
		y := b.(*Literal)
		return x.Text == y.Text && typesys.Equal(x.Type(), y.Type())
	case *Binary:
		y := b.(*Binary)
		return x.Op == y.Op && Equivalent(x.X, y.X) && Equivalent(x.Y, y.Y)
	case *Unary:
		y := b.(*Unary)
		return x.Op == y.Op && x.Postfix == y.Postfix && Equivalent(x.X, y.X)
	case *Conditional:
		y := b.(*Conditional)
		return Equivalent(x.Cond, y.Cond) && Equivalent(x.Then, y.Then) && Equivalent(x.Else, y.Else)
	case *Paren:
		return Equivalent(x.X, b.(*Paren).X)
	case *This:
		return true
	case *Index:
		y := b.(*Index)
		return Equivalent(x.X, y.X) && Equivalent(x.Index, y.Index)
	case *Opaque:
		y := b.(*Opaque)
		return x.Text == y.Text && equivalentList(x.Parts, y.Parts)
	}
	return false
}

func equivalentList(a, b []Expr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equivalent(a[i], b[i]) {
			return false
		}
	}
	return true
}
