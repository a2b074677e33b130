// Package srctree is an immutable syntax tree for a Java-like language with
// resolved bindings and static types. Trees are built by a front end (or by
// the constructors in build.go), linked once with Link, and never mutated
// afterwards, so any number of readers may share them.
package srctree

import (
	"sync"

	"typeguess/internal/typesys"
)

// Kind tags each node variant.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindFile
	KindClass
	KindMethod
	KindVar
	KindBlock
	KindDeclStmt
	KindExprStmt
	KindIf
	KindLoop
	KindReturn
	KindOtherStmt
	KindIdent
	KindFieldAccess
	KindCall
	KindNew
	KindCast
	KindInstanceOf
	KindAssign
	KindLiteral
	KindBinary
	KindUnary
	KindConditional
	KindParen
	KindThis
	KindIndex
	KindOpaque
)

var kindNames = [...]string{
	KindInvalid:     "invalid",
	KindFile:        "file",
	KindClass:       "class",
	KindMethod:      "method",
	KindVar:         "var",
	KindBlock:       "block",
	KindDeclStmt:    "decl",
	KindExprStmt:    "exprstmt",
	KindIf:          "if",
	KindLoop:        "loop",
	KindReturn:      "return",
	KindOtherStmt:   "stmt",
	KindIdent:       "ident",
	KindFieldAccess: "field",
	KindCall:        "call",
	KindNew:         "new",
	KindCast:        "cast",
	KindInstanceOf:  "instanceof",
	KindAssign:      "assign",
	KindLiteral:     "literal",
	KindBinary:      "binary",
	KindUnary:       "unary",
	KindConditional: "conditional",
	KindParen:       "paren",
	KindThis:        "this",
	KindIndex:       "index",
	KindOpaque:      "opaque",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Range is a half-open span of source offsets.
type Range struct {
	Start, End int
}

// Empty reports whether r covers nothing.
func (r Range) Empty() bool { return r.End <= r.Start }

// Contains reports whether o lies entirely within r.
func (r Range) Contains(o Range) bool {
	return !r.Empty() && r.Start <= o.Start && o.End <= r.End
}

// RangeOf returns the span of n.
func RangeOf(n Node) Range { return Range{Start: n.Pos(), End: n.End()} }

// Node is implemented by every tree node.
type Node interface {
	Kind() Kind
	Pos() int
	End() int
	Parent() Node
	Children() []Node
	base() *nodeBase
}

// Expr is a node with a static type.
type Expr interface {
	Node
	// Type is the static type, or nil when it could not be resolved.
	Type() typesys.Type
	exprNode()
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

type nodeBase struct {
	pos, end int
	parent   Node
}

func (b *nodeBase) Pos() int        { return b.pos }
func (b *nodeBase) End() int        { return b.end }
func (b *nodeBase) Parent() Node    { return b.parent }
func (b *nodeBase) base() *nodeBase { return b }

// SetSpan records the source span of a node. Front ends call it while
// building; it must not be called once the tree is shared.
func SetSpan(n Node, pos, end int) {
	b := n.base()
	b.pos, b.end = pos, end
}

type exprBase struct {
	nodeBase
	typ typesys.Type
}

func (e *exprBase) Type() typesys.Type { return e.typ }
func (*exprBase) exprNode()            {}

// SetType records the static type of an expression during construction.
func SetType(e Expr, t typesys.Type) {
	if x, ok := e.(interface{ exprBaseRef() *exprBase }); ok {
		x.exprBaseRef().typ = t
	}
}

func (e *exprBase) exprBaseRef() *exprBase { return e }

type stmtBase struct{ nodeBase }

func (*stmtBase) stmtNode() {}

// File is one compilation unit.
type File struct {
	nodeBase
	Path    string
	Package string
	Source  []byte
	Classes []*Class
	// Fragment holds top-level statements of a detached snippet. It is nil
	// for ordinary compilation units.
	Fragment *Block

	indexOnce sync.Once
	index     *fileIndex
}

// Class is a class or interface declaration.
type Class struct {
	nodeBase
	Name         string
	Super        string
	Interfaces   []string
	TypeParams   []string
	Interface    bool
	Abstract     bool
	Anonymous    bool
	Visibility   string
	Fields       []*Var
	Methods      []*Method
	Initializers []*Block
}

// Method is a method or constructor.
type Method struct {
	nodeBase
	Name        string
	Params      []*Var
	Result      typesys.Type
	Body        *Block
	Static      bool
	Constructor bool
}

// VarKind says where a variable is declared.
type VarKind uint8

const (
	LocalVar VarKind = iota
	ParamVar
	FieldVar
)

func (k VarKind) String() string {
	switch k {
	case LocalVar:
		return "local"
	case ParamVar:
		return "parameter"
	case FieldVar:
		return "field"
	}
	return "unknown"
}

// Var declares a local variable, parameter or field.
type Var struct {
	nodeBase
	Name     string
	VarKind  VarKind
	Declared typesys.Type
	Init     Expr
	Static   bool
}

// Block is a brace-delimited statement list.
type Block struct {
	stmtBase
	Stmts []Stmt
}

// DeclStmt declares one or more local variables.
type DeclStmt struct {
	stmtBase
	Vars []*Var
}

// ExprStmt evaluates an expression for its effect.
type ExprStmt struct {
	stmtBase
	X Expr
}

// If is a conditional statement; Else may be nil.
type If struct {
	stmtBase
	Cond Expr
	Then Stmt
	Else Stmt
}

// Loop covers while, do, for and for-each loops. Iter is the iterated
// expression of a for-each loop.
type Loop struct {
	stmtBase
	Init   []Stmt
	Cond   Expr
	Iter   Expr
	Update []Expr
	Body   Stmt
}

// Return leaves the enclosing method; X may be nil.
type Return struct {
	stmtBase
	X Expr
}

// OtherStmt is any statement without dedicated support (try, switch,
// throw, ...). Its expressions and nested statements are kept in source
// order.
type OtherStmt struct {
	stmtBase
	Label string
	Exprs []Expr
	Stmts []Stmt
}

// Ident is a simple name. Var is the variable it binds to, if any.
// TypeRef marks names that denote a class (static member qualifiers).
type Ident struct {
	exprBase
	Name    string
	Var     *Var
	TypeRef bool
}

// FieldAccess is a qualified name X.Name.
type FieldAccess struct {
	exprBase
	X    Expr
	Name string
	Var  *Var
}

// Call is a method invocation; Recv is nil for unqualified calls.
type Call struct {
	exprBase
	Recv   Expr
	Name   string
	Args   []Expr
	Method *Method
}

// New is an object creation expression; its type is the created class.
type New struct {
	exprBase
	Args []Expr
}

// Cast is (To) X.
type Cast struct {
	exprBase
	To typesys.Type
	X  Expr
}

// InstanceOf is X instanceof Of.
type InstanceOf struct {
	exprBase
	X  Expr
	Of typesys.Type
}

// Assign is LHS Op RHS with Op "=" or a compound operator.
type Assign struct {
	exprBase
	LHS Expr
	Op  string
	RHS Expr
}

// Literal is a constant written in source.
type Literal struct {
	exprBase
	Text string
}

// Binary is X Op Y.
type Binary struct {
	exprBase
	Op   string
	X, Y Expr
}

// Unary is Op X (prefix) or X Op (postfix).
type Unary struct {
	exprBase
	Op      string
	X       Expr
	Postfix bool
}

// Conditional is Cond ? Then : Else.
type Conditional struct {
	exprBase
	Cond, Then, Else Expr
}

// Paren is (X).
type Paren struct {
	exprBase
	X Expr
}

// This is the receiver reference.
type This struct {
	exprBase
}

// Index is X[Index].
type Index struct {
	exprBase
	X, Index Expr
}

// Opaque stands for an expression without dedicated support (lambdas,
// array initializers, ...). Parts are its evaluated subexpressions.
type Opaque struct {
	exprBase
	Text  string
	Parts []Expr
}

func (*File) Kind() Kind        { return KindFile }
func (*Class) Kind() Kind       { return KindClass }
func (*Method) Kind() Kind      { return KindMethod }
func (*Var) Kind() Kind         { return KindVar }
func (*Block) Kind() Kind       { return KindBlock }
func (*DeclStmt) Kind() Kind    { return KindDeclStmt }
func (*ExprStmt) Kind() Kind    { return KindExprStmt }
func (*If) Kind() Kind          { return KindIf }
func (*Loop) Kind() Kind        { return KindLoop }
func (*Return) Kind() Kind      { return KindReturn }
func (*OtherStmt) Kind() Kind   { return KindOtherStmt }
func (*Ident) Kind() Kind       { return KindIdent }
func (*FieldAccess) Kind() Kind { return KindFieldAccess }
func (*Call) Kind() Kind        { return KindCall }
func (*New) Kind() Kind         { return KindNew }
func (*Cast) Kind() Kind        { return KindCast }
func (*InstanceOf) Kind() Kind  { return KindInstanceOf }
func (*Assign) Kind() Kind      { return KindAssign }
func (*Literal) Kind() Kind     { return KindLiteral }
func (*Binary) Kind() Kind      { return KindBinary }
func (*Unary) Kind() Kind       { return KindUnary }
func (*Conditional) Kind() Kind { return KindConditional }
func (*Paren) Kind() Kind       { return KindParen }
func (*This) Kind() Kind        { return KindThis }
func (*Index) Kind() Kind       { return KindIndex }
func (*Opaque) Kind() Kind      { return KindOpaque }
