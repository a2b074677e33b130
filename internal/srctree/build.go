package srctree

import (
	"strconv"

	"typeguess/internal/typesys"
)

// Constructors for building trees in code. None of them link the tree;
// call Link on the root (usually via NewFile or NewFragment) when done.

// NewFile returns a linked compilation unit holding classes.
func NewFile(path, pkg string, classes ...*Class) *File {
	f := &File{Path: path, Package: pkg, Classes: classes}
	Link(f)
	return f
}

// NewFragment returns a linked file whose statements form a detached
// snippet with no enclosing class.
func NewFragment(path string, stmts ...Stmt) *File {
	f := &File{Path: path, Fragment: NewBlock(stmts...)}
	Link(f)
	return f
}

// NewClass declares a class holding members, which may be *Var fields,
// *Method methods or *Block initializers.
func NewClass(name string, members ...Node) *Class {
	c := &Class{Name: name}
	for _, m := range members {
		switch x := m.(type) {
		case *Var:
			x.VarKind = FieldVar
			c.Fields = append(c.Fields, x)
		case *Method:
			c.Methods = append(c.Methods, x)
		case *Block:
			c.Initializers = append(c.Initializers, x)
		}
	}
	return c
}

// NewMethod declares a method with a body.
func NewMethod(name string, result typesys.Type, params []*Var, body ...Stmt) *Method {
	for _, p := range params {
		p.VarKind = ParamVar
	}
	return &Method{Name: name, Result: result, Params: params, Body: NewBlock(body...)}
}

// NewParam declares a method parameter.
func NewParam(name string, t typesys.Type) *Var {
	return &Var{Name: name, VarKind: ParamVar, Declared: t}
}

// NewLocal declares a local variable; init may be nil.
func NewLocal(name string, t typesys.Type, init Expr) *Var {
	return &Var{Name: name, VarKind: LocalVar, Declared: t, Init: init}
}

// NewField declares a field; init may be nil.
func NewField(name string, t typesys.Type, init Expr) *Var {
	return &Var{Name: name, VarKind: FieldVar, Declared: t, Init: init}
}

// Declare wraps local variables in a declaration statement.
func Declare(vars ...*Var) *DeclStmt {
	return &DeclStmt{Vars: vars}
}

// Ref returns a name bound to v, typed by v's declared type.
func Ref(v *Var) *Ident {
	e := &Ident{Name: v.Name, Var: v}
	e.typ = v.Declared
	return e
}

// Name returns an unbound name with the given static type.
func Name(name string, t typesys.Type) *Ident {
	e := &Ident{Name: name}
	e.typ = t
	return e
}

// Select returns x.v for a field v.
func Select(x Expr, v *Var) *FieldAccess {
	e := &FieldAccess{X: x, Name: v.Name, Var: v}
	e.typ = v.Declared
	return e
}

// CallOn returns an unresolved call recv.name(args) with a result type.
func CallOn(recv Expr, name string, result typesys.Type, args ...Expr) *Call {
	e := &Call{Recv: recv, Name: name, Args: args}
	e.typ = result
	return e
}

// CallMethod returns a call resolved to m.
func CallMethod(recv Expr, m *Method, args ...Expr) *Call {
	e := &Call{Recv: recv, Name: m.Name, Args: args, Method: m}
	e.typ = m.Result
	return e
}

// NewObject returns new T(args).
func NewObject(t typesys.Type, args ...Expr) *New {
	e := &New{Args: args}
	e.typ = t
	return e
}

// CastTo returns (t) x.
func CastTo(t typesys.Type, x Expr) *Cast {
	e := &Cast{To: t, X: x}
	e.typ = t
	return e
}

// IsInstance returns x instanceof t.
func IsInstance(x Expr, t typesys.Type) *InstanceOf {
	e := &InstanceOf{X: x, Of: t}
	e.typ = typesys.Boolean
	return e
}

// AssignTo returns lhs = rhs.
func AssignTo(lhs, rhs Expr) *Assign {
	e := &Assign{LHS: lhs, Op: "=", RHS: rhs}
	e.typ = lhs.Type()
	return e
}

// StringLit returns a string literal.
func StringLit(s string) *Literal {
	e := &Literal{Text: strconv.Quote(s)}
	e.typ = typesys.ClassOf("String")
	return e
}

// IntLit returns an int literal.
func IntLit(n int) *Literal {
	e := &Literal{Text: strconv.Itoa(n)}
	e.typ = typesys.Int
	return e
}

// NullLit returns the null literal.
func NullLit() *Literal {
	e := &Literal{Text: "null"}
	e.typ = typesys.Null
	return e
}

// Parens returns (x).
func Parens(x Expr) *Paren {
	e := &Paren{X: x}
	e.typ = x.Type()
	return e
}

// Not returns !x.
func Not(x Expr) *Unary {
	e := &Unary{Op: "!", X: x}
	e.typ = typesys.Boolean
	return e
}

// And returns x && y.
func And(x, y Expr) *Binary {
	e := &Binary{Op: "&&", X: x, Y: y}
	e.typ = typesys.Boolean
	return e
}

// Or returns x || y.
func Or(x, y Expr) *Binary {
	e := &Binary{Op: "||", X: x, Y: y}
	e.typ = typesys.Boolean
	return e
}

// Eval wraps x in an expression statement.
func Eval(x Expr) *ExprStmt {
	return &ExprStmt{X: x}
}

// IfThen returns if (cond) then else els; els may be nil.
func IfThen(cond Expr, then, els Stmt) *If {
	return &If{Cond: cond, Then: then, Else: els}
}

// While returns while (cond) body.
func While(cond Expr, body Stmt) *Loop {
	return &Loop{Cond: cond, Body: body}
}

// NewBlock groups statements.
func NewBlock(stmts ...Stmt) *Block {
	return &Block{Stmts: stmts}
}

// ReturnValue returns a return statement; x may be nil.
func ReturnValue(x Expr) *Return {
	return &Return{X: x}
}
