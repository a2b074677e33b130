//go:build cgo

package javasrc

import (
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"typeguess/internal/srctree"
	"typeguess/internal/typesys"
)

var objectType = typesys.ClassOf(typesys.Object)

// unit lowers one parsed file.
type unit struct {
	l    *Loader
	src  []byte
	root *sitter.Node
	file *srctree.File

	pending []pending
	snippet []*sitter.Node

	class   *srctree.Class
	top     string
	scopes  []map[string]*srctree.Var
	anon    int
	diamond map[*srctree.New]bool
}

// pending is a body whose lowering waits until every class is declared.
type pending struct {
	class  *srctree.Class
	node   *sitter.Node
	method *srctree.Method
	field  *srctree.Var
}

func newUnit(l *Loader, s Source, root *sitter.Node) *unit {
	return &unit{
		l:       l,
		src:     s.Data,
		root:    root,
		file:    &srctree.File{Path: s.Path, Source: s.Data},
		diamond: make(map[*srctree.New]bool),
	}
}

func (u *unit) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(u.src)
}

func (u *unit) span(x srctree.Node, n *sitter.Node) {
	srctree.SetSpan(x, int(n.StartByte()), int(n.EndByte()))
}

func named(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, n.ChildCount())
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); c != nil && c.IsNamed() && !isComment(c) {
			out = append(out, c)
		}
	}
	return out
}

func firstNamed(n *sitter.Node) *sitter.Node {
	if cs := named(n); len(cs) > 0 {
		return cs[0]
	}
	return nil
}

func childOfType(n *sitter.Node, typ string) *sitter.Node {
	for _, c := range named(n) {
		if c.Type() == typ {
			return c
		}
	}
	return nil
}

func isComment(n *sitter.Node) bool {
	switch n.Type() {
	case "comment", "line_comment", "block_comment":
		return true
	}
	return false
}

// Declarations

func (u *unit) declare() {
	srctree.SetSpan(u.file, 0, len(u.src))
	for _, n := range named(u.root) {
		switch n.Type() {
		case "package_declaration":
			if id := firstNamed(n); id != nil {
				u.file.Package = u.text(id)
			}
		case "import_declaration", "module_declaration":
		case "class_declaration", "interface_declaration", "enum_declaration", "record_declaration":
			u.declareClass(n)
		default:
			u.snippet = append(u.snippet, n)
		}
	}
}

func (u *unit) modifiers(n *sitter.Node) map[string]bool {
	mods := make(map[string]bool)
	if m := childOfType(n, "modifiers"); m != nil {
		for _, w := range strings.Fields(u.text(m)) {
			mods[w] = true
		}
	}
	return mods
}

func visibility(mods map[string]bool) string {
	switch {
	case mods["public"], mods["protected"]:
		return "public"
	case mods["private"]:
		return "private"
	}
	return "package"
}

func (u *unit) declareClass(n *sitter.Node) *srctree.Class {
	mods := u.modifiers(n)
	c := &srctree.Class{
		Name:       u.text(n.ChildByFieldName("name")),
		Abstract:   mods["abstract"],
		Visibility: visibility(mods),
	}
	u.span(c, n)

	switch n.Type() {
	case "interface_declaration":
		c.Interface, c.Abstract = true, true
		if ext := childOfType(n, "extends_interfaces"); ext != nil {
			c.Interfaces = u.typeNames(ext)
		}
	default:
		if sup := n.ChildByFieldName("superclass"); sup != nil {
			if names := u.typeNames(sup); len(names) > 0 {
				c.Super = names[0]
			}
		}
		if ifs := n.ChildByFieldName("interfaces"); ifs != nil {
			c.Interfaces = u.typeNames(ifs)
		}
	}
	if tps := n.ChildByFieldName("type_parameters"); tps != nil {
		for _, tp := range named(tps) {
			if id := firstNamed(tp); id != nil {
				c.TypeParams = append(c.TypeParams, u.text(id))
			}
		}
	}

	info := &typesys.ClassInfo{
		Name:       c.Name,
		Package:    u.file.Package,
		Super:      c.Super,
		Interfaces: c.Interfaces,
		TypeParams: c.TypeParams,
		Interface:  c.Interface,
		Abstract:   c.Abstract,
		Final:      mods["final"] || n.Type() == "record_declaration",
		Visibility: c.Visibility,
		Outer:      u.owner(),
	}
	if n.Type() == "record_declaration" {
		if ps := n.ChildByFieldName("parameters"); ps != nil {
			for _, v := range u.params(ps) {
				v.VarKind = srctree.FieldVar
				c.Fields = append(c.Fields, v)
			}
		}
	}
	u.file.Classes = append(u.file.Classes, c)
	if body := n.ChildByFieldName("body"); body != nil {
		saved := u.top
		u.top = info.TopLevel()
		u.declareMembers(c, body, info)
		u.top = saved
	}
	u.l.register(c, info)
	return c
}

// owner returns the top-level class enclosing the declaration being
// lowered, or "" at file level.
func (u *unit) owner() string {
	if u.top != "" {
		return u.top
	}
	if u.class == nil {
		return ""
	}
	if info := u.l.types.Lookup(u.class.Name); info != nil {
		return info.TopLevel()
	}
	return u.class.Name
}

// typeNames returns the class names in a supertype clause.
func (u *unit) typeNames(n *sitter.Node) []string {
	var out []string
	for _, c := range named(n) {
		switch c.Type() {
		case "type_list":
			out = append(out, u.typeNames(c)...)
		default:
			if t, ok := u.typeOf(c).(*typesys.Class); ok {
				out = append(out, t.Name)
			}
		}
	}
	return out
}

func (u *unit) declareMembers(c *srctree.Class, body *sitter.Node, info *typesys.ClassInfo) {
	for _, n := range named(body) {
		mods := u.modifiers(n)
		switch n.Type() {
		case "enum_body_declarations":
			u.declareMembers(c, n, info)
		case "enum_constant":
			v := &srctree.Var{Name: u.text(n.ChildByFieldName("name")), VarKind: srctree.FieldVar, Declared: typesys.ClassOf(c.Name), Static: true}
			u.span(v, n)
			c.Fields = append(c.Fields, v)
		case "field_declaration", "constant_declaration":
			t := u.typeOf(n.ChildByFieldName("type"))
			for _, d := range named(n) {
				if d.Type() != "variable_declarator" {
					continue
				}
				v := &srctree.Var{
					Name:     u.text(d.ChildByFieldName("name")),
					VarKind:  srctree.FieldVar,
					Declared: withDims(t, d.ChildByFieldName("dimensions"), u),
					Static:   mods["static"] || n.Type() == "constant_declaration",
				}
				u.span(v, d)
				c.Fields = append(c.Fields, v)
				if val := d.ChildByFieldName("value"); val != nil {
					u.pending = append(u.pending, pending{class: c, node: val, field: v})
				}
			}
		case "method_declaration":
			m := &srctree.Method{
				Name:   u.text(n.ChildByFieldName("name")),
				Result: u.typeOf(n.ChildByFieldName("type")),
				Params: u.params(n.ChildByFieldName("parameters")),
				Static: mods["static"],
			}
			if m.Result == nil {
				m.Result = objectType
			}
			u.span(m, n)
			c.Methods = append(c.Methods, m)
			info.Methods = append(info.Methods, typesys.MethodInfo{
				Name:    m.Name,
				Arity:   len(m.Params),
				Returns: u.text(n.ChildByFieldName("type")),
			})
			if b := n.ChildByFieldName("body"); b != nil {
				u.pending = append(u.pending, pending{class: c, node: b, method: m})
			}
		case "constructor_declaration", "compact_constructor_declaration":
			m := &srctree.Method{
				Name:        c.Name,
				Result:      typesys.Void,
				Params:      u.params(n.ChildByFieldName("parameters")),
				Constructor: true,
			}
			u.span(m, n)
			c.Methods = append(c.Methods, m)
			if b := n.ChildByFieldName("body"); b != nil {
				u.pending = append(u.pending, pending{class: c, node: b, method: m})
			}
		case "block":
			u.pending = append(u.pending, pending{class: c, node: n})
		case "static_initializer":
			if b := childOfType(n, "block"); b != nil {
				u.pending = append(u.pending, pending{class: c, node: b})
			}
		case "class_declaration", "interface_declaration", "enum_declaration", "record_declaration":
			u.declareClass(n)
		}
	}
}

func (u *unit) params(n *sitter.Node) []*srctree.Var {
	var out []*srctree.Var
	for _, p := range named(n) {
		var v *srctree.Var
		switch p.Type() {
		case "formal_parameter":
			v = &srctree.Var{
				Name:     u.text(p.ChildByFieldName("name")),
				Declared: withDims(u.typeOf(p.ChildByFieldName("type")), p.ChildByFieldName("dimensions"), u),
			}
		case "spread_parameter":
			var t typesys.Type = objectType
			var name string
			for _, c := range named(p) {
				switch c.Type() {
				case "variable_declarator":
					name = u.text(c.ChildByFieldName("name"))
				case "modifiers":
				default:
					if x := u.typeOf(c); x != nil {
						t = x
					}
				}
			}
			v = &srctree.Var{Name: name, Declared: &typesys.Array{Elem: t}}
		default:
			continue
		}
		v.VarKind = srctree.ParamVar
		if v.Declared == nil {
			v.Declared = objectType
		}
		u.span(v, p)
		out = append(out, v)
	}
	return out
}

// typeOf reads a type node. It returns nil for a missing node and for
// "var", whose type comes from the initializer.
func (u *unit) typeOf(n *sitter.Node) typesys.Type {
	if n == nil {
		return nil
	}
	s := strings.Join(strings.Fields(u.text(n)), " ")
	if s == "" || s == "var" {
		return nil
	}
	// Annotations on type uses carry no type information.
	for strings.HasPrefix(s, "@") {
		i := strings.IndexByte(s, ' ')
		if i < 0 {
			return nil
		}
		s = s[i+1:]
	}
	return typesys.Parse(s)
}

func withDims(t typesys.Type, dims *sitter.Node, u *unit) typesys.Type {
	if t == nil || dims == nil {
		return t
	}
	for i := strings.Count(u.text(dims), "["); i > 0; i-- {
		t = &typesys.Array{Elem: t}
	}
	return t
}

// Bodies

func (u *unit) define() {
	// Local classes met while lowering append to pending.
	for i := 0; i < len(u.pending); i++ {
		u.lowerPending(u.pending[i])
	}
	u.class = nil
	if len(u.snippet) > 0 {
		frag := &srctree.Block{}
		u.push()
		for _, n := range u.snippet {
			if s := u.stmt(n); s != nil {
				frag.Stmts = append(frag.Stmts, s)
			}
		}
		u.pop()
		srctree.SetSpan(frag, int(u.snippet[0].StartByte()), int(u.snippet[len(u.snippet)-1].EndByte()))
		u.file.Fragment = frag
	}
	srctree.Link(u.file)
}

func (u *unit) lowerPending(p pending) {
	saved := u.class
	u.class = p.class
	defer func() { u.class = saved }()

	switch {
	case p.method != nil:
		u.push()
		for _, v := range p.method.Params {
			u.bind(v)
		}
		p.method.Body = u.block(p.node)
		u.pop()
	case p.field != nil:
		p.field.Init = u.expr(p.node)
		u.inferDiamond(p.field.Init, p.field.Declared)
	default:
		p.class.Initializers = append(p.class.Initializers, u.block(p.node))
	}
}

func (u *unit) push() { u.scopes = append(u.scopes, make(map[string]*srctree.Var)) }
func (u *unit) pop()  { u.scopes = u.scopes[:len(u.scopes)-1] }

func (u *unit) bind(v *srctree.Var) {
	if len(u.scopes) == 0 {
		u.push()
	}
	u.scopes[len(u.scopes)-1][v.Name] = v
}

func (u *unit) lookup(name string) *srctree.Var {
	for i := len(u.scopes) - 1; i >= 0; i-- {
		if v, ok := u.scopes[i][name]; ok {
			return v
		}
	}
	if u.class != nil {
		return u.l.field(u.class.Name, name)
	}
	return nil
}

func (u *unit) thisType() typesys.Type {
	if u.class == nil {
		return objectType
	}
	return typesys.ClassOf(u.class.Name)
}

var statementTypes = map[string]bool{
	"block":                           true,
	"local_variable_declaration":      true,
	"expression_statement":            true,
	"if_statement":                    true,
	"while_statement":                 true,
	"do_statement":                    true,
	"for_statement":                   true,
	"enhanced_for_statement":          true,
	"return_statement":                true,
	"try_statement":                   true,
	"try_with_resources_statement":    true,
	"throw_statement":                 true,
	"break_statement":                 true,
	"continue_statement":              true,
	"labeled_statement":               true,
	"synchronized_statement":          true,
	"assert_statement":                true,
	"yield_statement":                 true,
	"switch_expression":               true,
	"explicit_constructor_invocation": true,
	"class_declaration":               true,
	"local_class_declaration":         true,
}

func (u *unit) block(n *sitter.Node) *srctree.Block {
	b := &srctree.Block{}
	u.span(b, n)
	u.push()
	defer u.pop()
	for _, c := range named(n) {
		if s := u.stmt(c); s != nil {
			b.Stmts = append(b.Stmts, s)
		}
	}
	return b
}

func (u *unit) stmt(n *sitter.Node) srctree.Stmt {
	switch n.Type() {
	case "block", "constructor_body":
		return u.block(n)
	case "local_variable_declaration":
		return u.localDecl(n)
	case "expression_statement":
		x := firstNamed(n)
		if x == nil {
			return nil
		}
		s := &srctree.ExprStmt{X: u.expr(x)}
		u.span(s, n)
		return s
	case "if_statement":
		s := &srctree.If{Cond: u.expr(n.ChildByFieldName("condition"))}
		s.Then = u.nested(n.ChildByFieldName("consequence"))
		if alt := n.ChildByFieldName("alternative"); alt != nil {
			s.Else = u.nested(alt)
		}
		u.span(s, n)
		return s
	case "while_statement", "do_statement":
		s := &srctree.Loop{Cond: u.expr(n.ChildByFieldName("condition"))}
		s.Body = u.nested(n.ChildByFieldName("body"))
		u.span(s, n)
		return s
	case "for_statement":
		return u.forLoop(n)
	case "enhanced_for_statement":
		return u.forEach(n)
	case "return_statement":
		s := &srctree.Return{}
		if x := firstNamed(n); x != nil {
			s.X = u.expr(x)
		}
		u.span(s, n)
		return s
	case "class_declaration", "local_class_declaration", "interface_declaration", "enum_declaration", "record_declaration":
		u.declareClass(n)
		return nil
	case ";":
		return nil
	}
	return u.other(n)
}

func (u *unit) nested(n *sitter.Node) srctree.Stmt {
	if n == nil {
		return nil
	}
	u.push()
	defer u.pop()
	return u.stmt(n)
}

func (u *unit) localDecl(n *sitter.Node) *srctree.DeclStmt {
	declared := u.typeOf(n.ChildByFieldName("type"))
	d := &srctree.DeclStmt{}
	u.span(d, n)
	for _, c := range named(n) {
		if c.Type() != "variable_declarator" {
			continue
		}
		v := &srctree.Var{
			Name:     u.text(c.ChildByFieldName("name")),
			VarKind:  srctree.LocalVar,
			Declared: withDims(declared, c.ChildByFieldName("dimensions"), u),
		}
		if val := c.ChildByFieldName("value"); val != nil {
			v.Init = u.expr(val)
			if v.Declared == nil {
				v.Declared = v.Init.Type()
			}
			u.inferDiamond(v.Init, v.Declared)
		}
		if v.Declared == nil || v.Declared == typesys.Null {
			v.Declared = objectType
		}
		u.span(v, c)
		u.bind(v)
		d.Vars = append(d.Vars, v)
	}
	return d
}

// forLoop lowers for (init; cond; update) body. The children between
// the parentheses are told apart by the semicolons separating them.
func (u *unit) forLoop(n *sitter.Node) srctree.Stmt {
	u.push()
	defer u.pop()
	l := &srctree.Loop{}
	u.span(l, n)
	body := n.ChildByFieldName("body")
	section := 0
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c == nil || isComment(c) {
			continue
		}
		if body != nil && c.StartByte() == body.StartByte() && c.Type() == body.Type() {
			break
		}
		switch {
		case c.Type() == ";":
			section++
		case c.Type() == "local_variable_declaration":
			l.Init = append(l.Init, u.localDecl(c))
			section++
		case !c.IsNamed():
		case section == 0:
			s := &srctree.ExprStmt{X: u.expr(c)}
			u.span(s, c)
			l.Init = append(l.Init, s)
		case section == 1:
			l.Cond = u.expr(c)
		default:
			l.Update = append(l.Update, u.expr(c))
		}
	}
	l.Body = u.nested(body)
	return l
}

func (u *unit) forEach(n *sitter.Node) srctree.Stmt {
	iter := u.expr(n.ChildByFieldName("value"))
	u.push()
	defer u.pop()
	v := &srctree.Var{
		Name:     u.text(n.ChildByFieldName("name")),
		VarKind:  srctree.LocalVar,
		Declared: u.typeOf(n.ChildByFieldName("type")),
	}
	if v.Declared == nil {
		v.Declared = elementOf(iter.Type())
	}
	u.span(v, n.ChildByFieldName("name"))
	u.bind(v)
	decl := &srctree.DeclStmt{Vars: []*srctree.Var{v}}
	u.span(decl, n.ChildByFieldName("name"))
	l := &srctree.Loop{Init: []srctree.Stmt{decl}, Iter: iter}
	u.span(l, n)
	l.Body = u.nested(n.ChildByFieldName("body"))
	return l
}

func elementOf(t typesys.Type) typesys.Type {
	switch x := t.(type) {
	case *typesys.Array:
		return x.Elem
	case *typesys.Class:
		if len(x.Args) == 1 {
			return x.Args[0]
		}
	}
	return objectType
}

// other keeps the expressions and nested statements of a statement with
// no dedicated node, declaring catch parameters and resources it binds.
func (u *unit) other(n *sitter.Node) srctree.Stmt {
	o := &srctree.OtherStmt{Label: n.Type()}
	u.span(o, n)
	switch n.Type() {
	case "break_statement", "continue_statement":
		return o
	}
	u.push()
	defer u.pop()
	u.collect(o, n)
	return o
}

func (u *unit) collect(o *srctree.OtherStmt, n *sitter.Node) {
	for _, c := range named(n) {
		switch {
		case c.Type() == "identifier" && n.Type() == "labeled_statement":
		case c.Type() == "catch_formal_parameter", c.Type() == "resource" && c.ChildByFieldName("name") != nil:
			o.Stmts = append(o.Stmts, u.boundDecl(c))
		case statementTypes[c.Type()] && c.Type() != "switch_expression":
			if s := u.stmt(c); s != nil {
				o.Stmts = append(o.Stmts, s)
			}
		case isExpression(c):
			o.Exprs = append(o.Exprs, u.expr(c))
		default:
			u.collect(o, c)
		}
	}
}

// boundDecl declares a catch parameter or try resource.
func (u *unit) boundDecl(n *sitter.Node) *srctree.DeclStmt {
	v := &srctree.Var{Name: u.text(n.ChildByFieldName("name")), VarKind: srctree.LocalVar}
	if t := n.ChildByFieldName("type"); t != nil {
		v.Declared = u.typeOf(t)
	} else if ct := childOfType(n, "catch_type"); ct != nil {
		// Multi-catch: the first alternative stands for the union.
		first, _, _ := strings.Cut(u.text(ct), "|")
		v.Declared = typesys.Parse(first)
	}
	if val := n.ChildByFieldName("value"); val != nil {
		v.Init = u.expr(val)
		if v.Declared == nil {
			v.Declared = v.Init.Type()
		}
	}
	if v.Declared == nil {
		v.Declared = objectType
	}
	u.span(v, n)
	u.bind(v)
	d := &srctree.DeclStmt{Vars: []*srctree.Var{v}}
	u.span(d, n)
	return d
}

// anonClass declares the class body of new T() { ... } and lowers its
// members in the current scope, so they see enclosing locals.
func (u *unit) anonClass(base typesys.Type, body *sitter.Node) *srctree.Class {
	u.anon++
	outer := strings.TrimSuffix(filepath.Base(u.file.Path), filepath.Ext(u.file.Path))
	if u.class != nil {
		outer = u.class.Name
	}
	c := &srctree.Class{
		Name:       fmt.Sprintf("%s$%d", outer, u.anon),
		Anonymous:  true,
		Visibility: "private",
	}
	u.span(c, body)
	if b, ok := base.(*typesys.Class); ok {
		if info := u.l.types.Lookup(b.Name); info != nil && info.Interface {
			c.Interfaces = []string{b.Name}
		} else {
			c.Super = b.Name
		}
	}
	info := &typesys.ClassInfo{
		Name:       c.Name,
		Package:    u.file.Package,
		Super:      c.Super,
		Interfaces: c.Interfaces,
		Anonymous:  true,
		Final:      true,
		Visibility: c.Visibility,
		Outer:      u.owner(),
	}

	saved := u.pending
	u.pending = nil
	u.declareMembers(c, body, info)
	u.l.register(c, info)
	u.file.Classes = append(u.file.Classes, c)
	for i := 0; i < len(u.pending); i++ {
		u.lowerPending(u.pending[i])
	}
	u.pending = saved
	return c
}

// inferDiamond gives new T<>() the type arguments of its target when the
// created class takes as many parameters as the target supplies.
func (u *unit) inferDiamond(init srctree.Expr, target typesys.Type) {
	n, ok := srctree.SkipParens(init).(*srctree.New)
	if !ok || !u.diamond[n] {
		return
	}
	tc, ok := target.(*typesys.Class)
	created, ok2 := n.Type().(*typesys.Class)
	if !ok || !ok2 || len(tc.Args) == 0 {
		return
	}
	if info := u.l.types.Lookup(created.Name); info != nil && len(info.TypeParams) == len(tc.Args) {
		srctree.SetType(n, typesys.ClassOf(created.Name, tc.Args...))
	}
}
