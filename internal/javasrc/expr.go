//go:build cgo

package javasrc

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"typeguess/internal/srctree"
	"typeguess/internal/typesys"
)

var expressionTypes = map[string]bool{
	"identifier":                     true,
	"this":                           true,
	"super":                          true,
	"field_access":                   true,
	"method_invocation":              true,
	"object_creation_expression":     true,
	"cast_expression":                true,
	"instanceof_expression":          true,
	"assignment_expression":          true,
	"binary_expression":              true,
	"unary_expression":               true,
	"update_expression":              true,
	"ternary_expression":             true,
	"parenthesized_expression":       true,
	"array_access":                   true,
	"array_creation_expression":      true,
	"array_initializer":              true,
	"lambda_expression":              true,
	"method_reference":               true,
	"class_literal":                  true,
	"switch_expression":              true,
	"string_literal":                 true,
	"text_block":                     true,
	"character_literal":              true,
	"decimal_integer_literal":        true,
	"hex_integer_literal":            true,
	"octal_integer_literal":          true,
	"binary_integer_literal":         true,
	"decimal_floating_point_literal": true,
	"hex_floating_point_literal":     true,
	"true":                           true,
	"false":                          true,
	"null_literal":                   true,
}

func isExpression(n *sitter.Node) bool {
	return expressionTypes[n.Type()]
}

func typed[E srctree.Expr](e E, t typesys.Type) E {
	if t == nil {
		t = objectType
	}
	srctree.SetType(e, t)
	return e
}

func (u *unit) expr(n *sitter.Node) srctree.Expr {
	if n == nil {
		x := &srctree.Opaque{}
		return typed(x, objectType)
	}
	e := u.lowerExpr(n)
	u.span(e, n)
	return e
}

func (u *unit) lowerExpr(n *sitter.Node) srctree.Expr {
	switch n.Type() {
	case "identifier":
		return u.ident(n)
	case "this":
		return typed(&srctree.This{}, u.thisType())
	case "super":
		t := objectType
		if u.class != nil && u.class.Super != "" {
			t = typesys.ClassOf(u.class.Super)
		}
		return typed(&srctree.This{}, t)
	case "field_access":
		return u.fieldAccess(n)
	case "method_invocation":
		return u.call(n)
	case "object_creation_expression":
		return u.newObject(n)
	case "cast_expression":
		to := u.typeOf(n.ChildByFieldName("type"))
		if to == nil {
			to = objectType
		}
		return typed(&srctree.Cast{To: to, X: u.expr(n.ChildByFieldName("value"))}, to)
	case "instanceof_expression":
		return u.instanceOf(n)
	case "assignment_expression":
		lhs := u.expr(n.ChildByFieldName("left"))
		rhs := u.expr(n.ChildByFieldName("right"))
		u.inferDiamond(rhs, lhs.Type())
		op := u.text(n.ChildByFieldName("operator"))
		return typed(&srctree.Assign{LHS: lhs, Op: op, RHS: rhs}, lhs.Type())
	case "binary_expression":
		x := u.expr(n.ChildByFieldName("left"))
		y := u.expr(n.ChildByFieldName("right"))
		op := u.text(n.ChildByFieldName("operator"))
		return typed(&srctree.Binary{Op: op, X: x, Y: y}, binaryType(op, x.Type(), y.Type()))
	case "unary_expression":
		op := u.text(n.ChildByFieldName("operator"))
		x := u.expr(n.ChildByFieldName("operand"))
		t := typesys.Type(typesys.Boolean)
		if op != "!" {
			t = promote(unbox(x.Type()), typesys.Int)
		}
		return typed(&srctree.Unary{Op: op, X: x}, t)
	case "update_expression":
		return u.update(n)
	case "ternary_expression":
		c := &srctree.Conditional{
			Cond: u.expr(n.ChildByFieldName("condition")),
			Then: u.expr(n.ChildByFieldName("consequence")),
			Else: u.expr(n.ChildByFieldName("alternative")),
		}
		return typed(c, lub(c.Then.Type(), c.Else.Type()))
	case "parenthesized_expression":
		x := u.expr(firstNamed(n))
		return typed(&srctree.Paren{X: x}, x.Type())
	case "array_access":
		x := u.expr(n.ChildByFieldName("array"))
		i := u.expr(n.ChildByFieldName("index"))
		var t typesys.Type = objectType
		if a, ok := x.Type().(*typesys.Array); ok {
			t = a.Elem
		}
		return typed(&srctree.Index{X: x, Index: i}, t)
	case "array_creation_expression":
		return u.newArray(n)
	case "class_literal":
		return typed(&srctree.Literal{Text: u.text(n)}, typesys.ClassOf("Class"))
	case "string_literal", "text_block":
		return typed(&srctree.Literal{Text: u.text(n)}, typesys.ClassOf("String"))
	case "character_literal":
		return typed(&srctree.Literal{Text: u.text(n)}, typesys.Char)
	case "decimal_integer_literal", "hex_integer_literal", "octal_integer_literal", "binary_integer_literal":
		text := u.text(n)
		t := typesys.Int
		if strings.HasSuffix(text, "L") || strings.HasSuffix(text, "l") {
			t = typesys.Long
		}
		return typed(&srctree.Literal{Text: text}, t)
	case "decimal_floating_point_literal", "hex_floating_point_literal":
		text := u.text(n)
		t := typesys.Double
		if strings.HasSuffix(text, "f") || strings.HasSuffix(text, "F") {
			t = typesys.Float
		}
		return typed(&srctree.Literal{Text: text}, t)
	case "true", "false":
		return typed(&srctree.Literal{Text: n.Type()}, typesys.Boolean)
	case "null_literal":
		return typed(&srctree.Literal{Text: "null"}, typesys.Null)
	}
	return typed(&srctree.Opaque{Text: u.text(n)}, objectType)
}

func (u *unit) ident(n *sitter.Node) srctree.Expr {
	name := u.text(n)
	if v := u.lookup(name); v != nil {
		return typed(&srctree.Ident{Name: name, Var: v}, v.Declared)
	}
	if u.l.isClass(name) {
		return typed(&srctree.Ident{Name: name, TypeRef: true}, typesys.ClassOf(name))
	}
	return typed(&srctree.Ident{Name: name}, objectType)
}

func className(t typesys.Type) string {
	if c, ok := t.(*typesys.Class); ok {
		return c.Name
	}
	return ""
}

func (u *unit) fieldAccess(n *sitter.Node) srctree.Expr {
	x := u.expr(n.ChildByFieldName("object"))
	name := u.text(n.ChildByFieldName("field"))
	fa := &srctree.FieldAccess{X: x, Name: name}
	if _, ok := x.Type().(*typesys.Array); ok && name == "length" {
		return typed(fa, typesys.Int)
	}
	if v := u.l.field(className(x.Type()), name); v != nil {
		fa.Var = v
		return typed(fa, v.Declared)
	}
	return typed(fa, objectType)
}

func (u *unit) args(n *sitter.Node) []srctree.Expr {
	var out []srctree.Expr
	for _, a := range named(n) {
		out = append(out, u.expr(a))
	}
	return out
}

func (u *unit) call(n *sitter.Node) srctree.Expr {
	c := &srctree.Call{Name: u.text(n.ChildByFieldName("name"))}
	recvType := u.thisType()
	if obj := n.ChildByFieldName("object"); obj != nil {
		c.Recv = u.expr(obj)
		recvType = c.Recv.Type()
	}
	c.Args = u.args(n.ChildByFieldName("arguments"))
	c.Method = u.l.method(className(recvType), c.Name, len(c.Args))

	t := u.l.types.MethodReturn(recvType, c.Name, len(c.Args))
	if t == nil && c.Method != nil {
		t = c.Method.Result
	}
	return typed(c, t)
}

func (u *unit) newObject(n *sitter.Node) srctree.Expr {
	typeNode := n.ChildByFieldName("type")
	t := u.typeOf(typeNode)
	if t == nil {
		t = objectType
	}
	e := &srctree.New{Args: u.args(n.ChildByFieldName("arguments"))}
	if body := childOfType(n, "class_body"); body != nil {
		c := u.anonClass(t, body)
		return typed(e, typesys.ClassOf(c.Name))
	}
	if strings.HasSuffix(strings.Join(strings.Fields(u.text(typeNode)), ""), "<>") {
		u.diamond[e] = true
	}
	return typed(e, t)
}

func (u *unit) newArray(n *sitter.Node) srctree.Expr {
	t := u.typeOf(n.ChildByFieldName("type"))
	if t == nil {
		t = objectType
	}
	o := &srctree.Opaque{Text: u.text(n)}
	for _, c := range named(n) {
		switch c.Type() {
		case "dimensions_expr":
			t = &typesys.Array{Elem: t}
			if x := firstNamed(c); x != nil {
				o.Parts = append(o.Parts, u.expr(x))
			}
		case "dimensions":
			t = withDims(t, c, u)
		case "array_initializer":
			for _, el := range named(c) {
				o.Parts = append(o.Parts, u.expr(el))
			}
		}
	}
	return typed(o, t)
}

// instanceOf lowers x instanceof T, binding the pattern variable of
// x instanceof T t in the current scope.
func (u *unit) instanceOf(n *sitter.Node) srctree.Expr {
	x := u.expr(n.ChildByFieldName("left"))
	right := n.ChildByFieldName("right")
	if right == nil {
		right = n.ChildByFieldName("pattern")
	}
	var of typesys.Type
	if right != nil && right.Type() == "type_pattern" {
		for _, c := range named(right) {
			if c.Type() == "identifier" {
				u.bindPattern(c, of)
			} else if of == nil {
				of = u.typeOf(c)
			}
		}
	} else {
		of = u.typeOf(right)
	}
	if of == nil {
		of = objectType
	}
	if name := n.ChildByFieldName("name"); name != nil {
		u.bindPattern(name, of)
	}
	return typed(&srctree.InstanceOf{X: x, Of: of}, typesys.Boolean)
}

func (u *unit) bindPattern(name *sitter.Node, t typesys.Type) {
	if t == nil {
		t = objectType
	}
	v := &srctree.Var{Name: u.text(name), VarKind: srctree.LocalVar, Declared: t}
	u.span(v, name)
	u.bind(v)
}

func (u *unit) update(n *sitter.Node) srctree.Expr {
	var x srctree.Expr
	op, postfix := "", false
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c == nil {
			continue
		}
		switch c.Type() {
		case "++", "--":
			op = c.Type()
			postfix = x != nil
		default:
			if c.IsNamed() {
				x = u.expr(c)
			}
		}
	}
	if x == nil {
		x = u.expr(nil)
	}
	return typed(&srctree.Unary{Op: op, X: x, Postfix: postfix}, x.Type())
}

var unboxed = map[string]typesys.Primitive{
	"Boolean":   typesys.Boolean,
	"Byte":      typesys.Byte,
	"Character": typesys.Char,
	"Short":     typesys.Short,
	"Integer":   typesys.Int,
	"Long":      typesys.Long,
	"Float":     typesys.Float,
	"Double":    typesys.Double,
}

func unbox(t typesys.Type) typesys.Type {
	if c, ok := t.(*typesys.Class); ok {
		if p, ok := unboxed[c.Name]; ok {
			return p
		}
	}
	return t
}

func isString(t typesys.Type) bool {
	return className(t) == "String"
}

// promote applies binary numeric promotion.
func promote(a, b typesys.Type) typesys.Type {
	for _, p := range []typesys.Primitive{typesys.Double, typesys.Float, typesys.Long} {
		if a == p || b == p {
			return p
		}
	}
	return typesys.Int
}

func binaryType(op string, a, b typesys.Type) typesys.Type {
	switch op {
	case "&&", "||", "==", "!=", "<", ">", "<=", ">=":
		return typesys.Boolean
	case "+":
		if isString(a) || isString(b) {
			return typesys.ClassOf("String")
		}
	case "<<", ">>", ">>>":
		return promote(unbox(a), typesys.Int)
	}
	ua, ub := unbox(a), unbox(b)
	if ua == typesys.Boolean && ub == typesys.Boolean {
		return typesys.Boolean
	}
	return promote(ua, ub)
}

// lub approximates the type of a conditional expression.
func lub(a, b typesys.Type) typesys.Type {
	switch {
	case typesys.Equal(a, b):
		return a
	case a == typesys.Null:
		return typesys.Box(b)
	case b == typesys.Null:
		return typesys.Box(a)
	case typesys.IsPrimitive(unbox(a)) && typesys.IsPrimitive(unbox(b)):
		return promote(unbox(a), unbox(b))
	}
	return objectType
}
