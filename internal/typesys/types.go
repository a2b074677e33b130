// Package typesys models the static types of the analyzed language and the
// class hierarchy queries the guesser needs: erasure, boxing, subtyping,
// accessibility and bounded inheritor search.
package typesys

import (
	"strings"
)

// Type is a static type. The concrete variants are Primitive, *Class,
// *Array, Null and *Intersection.
type Type interface {
	String() string
	isType()
}

// Primitive is a non-reference type such as int or boolean.
type Primitive string

const (
	Boolean Primitive = "boolean"
	Byte    Primitive = "byte"
	Char    Primitive = "char"
	Short   Primitive = "short"
	Int     Primitive = "int"
	Long    Primitive = "long"
	Float   Primitive = "float"
	Double  Primitive = "double"
	Void    Primitive = "void"
)

func (p Primitive) String() string { return string(p) }
func (Primitive) isType()          {}

// boxes maps each primitive to its wrapper class.
var boxes = map[Primitive]string{
	Boolean: "Boolean",
	Byte:    "Byte",
	Char:    "Character",
	Short:   "Short",
	Int:     "Integer",
	Long:    "Long",
	Float:   "Float",
	Double:  "Double",
}

// ParsePrimitive returns the primitive named s.
func ParsePrimitive(s string) (Primitive, bool) {
	p := Primitive(s)
	if p == Void {
		return p, true
	}
	_, ok := boxes[p]
	return p, ok
}

// Class is a reference to a named class or interface, optionally
// parameterized. A Class with no Args is raw (or non-generic).
type Class struct {
	Name string
	Args []Type
}

// ClassOf returns a class type with the given name and type arguments.
func ClassOf(name string, args ...Type) *Class {
	return &Class{Name: name, Args: args}
}

func (c *Class) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	return c.Name + "<" + strings.Join(parts, ", ") + ">"
}

func (*Class) isType() {}

// Array is an array of Elem.
type Array struct {
	Elem Type
}

func (a *Array) String() string { return a.Elem.String() + "[]" }
func (*Array) isType()          {}

// nullType is the type of the null literal.
type nullType struct{}

func (nullType) String() string { return "null" }
func (nullType) isType()        {}

// Null is the type of the null literal.
var Null Type = nullType{}

// Intersection is a conjunction of types (A & B).
type Intersection struct {
	Terms []Type
}

func (x *Intersection) String() string {
	parts := make([]string, len(x.Terms))
	for i, t := range x.Terms {
		parts[i] = t.String()
	}
	return strings.Join(parts, " & ")
}

func (*Intersection) isType() {}

// Object is the root of the class hierarchy.
const Object = "Object"

// IsPrimitive reports whether t is a primitive (void included).
func IsPrimitive(t Type) bool {
	_, ok := t.(Primitive)
	return ok
}

// IsReference reports whether t denotes a reference type.
func IsReference(t Type) bool {
	switch t.(type) {
	case *Class, *Array, *Intersection:
		return true
	}
	return false
}

// Equal reports whether two types are identical, type arguments included.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case Primitive:
		y, ok := b.(Primitive)
		return ok && x == y
	case *Class:
		y, ok := b.(*Class)
		if !ok || x.Name != y.Name || len(x.Args) != len(y.Args) {
			return false
		}
		for i := range x.Args {
			if !Equal(x.Args[i], y.Args[i]) {
				return false
			}
		}
		return true
	case *Array:
		y, ok := b.(*Array)
		return ok && Equal(x.Elem, y.Elem)
	case nullType:
		_, ok := b.(nullType)
		return ok
	case *Intersection:
		y, ok := b.(*Intersection)
		if !ok || len(x.Terms) != len(y.Terms) {
			return false
		}
		for i := range x.Terms {
			if !Equal(x.Terms[i], y.Terms[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Erase strips type arguments. Intersections erase to their first term.
func Erase(t Type) Type {
	switch x := t.(type) {
	case *Class:
		if len(x.Args) == 0 {
			return x
		}
		return &Class{Name: x.Name}
	case *Array:
		return &Array{Elem: Erase(x.Elem)}
	case *Intersection:
		if len(x.Terms) == 0 {
			return ClassOf(Object)
		}
		return Erase(x.Terms[0])
	}
	return t
}

// Box returns the wrapper class for a primitive, or t unchanged.
func Box(t Type) Type {
	if p, ok := t.(Primitive); ok {
		if name, ok := boxes[p]; ok {
			return ClassOf(name)
		}
	}
	return t
}

// Components decomposes an intersection into its terms. Any other type is
// its own single component.
func Components(t Type) []Type {
	if x, ok := t.(*Intersection); ok {
		out := make([]Type, 0, len(x.Terms))
		for _, term := range x.Terms {
			out = append(out, Components(term)...)
		}
		return out
	}
	if t == nil {
		return nil
	}
	return []Type{t}
}

// Parse reads a type written in source syntax, e.g. "List<String>", "int[]".
// Unknown primitive-looking names are treated as class names.
func Parse(s string) Type {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if strings.HasSuffix(s, "[]") {
		return &Array{Elem: Parse(strings.TrimSuffix(s, "[]"))}
	}
	if s == "null" {
		return Null
	}
	if strings.HasPrefix(s, "?") {
		if rest, ok := strings.CutPrefix(strings.TrimSpace(s[1:]), "extends "); ok {
			return Parse(rest)
		}
		return ClassOf(Object)
	}
	if p, ok := ParsePrimitive(s); ok {
		return p
	}
	open := strings.IndexByte(s, '<')
	if open < 0 || !strings.HasSuffix(s, ">") {
		return ClassOf(simpleName(s))
	}
	name := simpleName(s[:open])
	var args []Type
	for _, part := range splitTopLevel(s[open+1 : len(s)-1]) {
		if a := Parse(part); a != nil {
			args = append(args, a)
		}
	}
	return ClassOf(name, args...)
}

// simpleName drops a package qualifier: java.util.List -> List.
func simpleName(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		return s[i+1:]
	}
	return s
}

func splitTopLevel(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}
