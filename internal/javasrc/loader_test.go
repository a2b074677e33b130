//go:build cgo

package javasrc

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"typeguess/internal/guess"
	"typeguess/internal/srctree"
	"typeguess/internal/typesys"
)

func load(t *testing.T, h *typesys.Hierarchy, srcs ...Source) []*srctree.File {
	t.Helper()
	files, err := NewLoader(h, nil).Load(context.Background(), srcs...)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return files
}

// exprAt returns the innermost expression starting at the first
// occurrence of marker in the file's source.
func exprAt(t *testing.T, f *srctree.File, marker string) srctree.Expr {
	t.Helper()
	off := strings.Index(string(f.Source), marker)
	if off < 0 {
		t.Fatalf("marker %q not in source", marker)
	}
	e := srctree.ExprAt(f, off)
	if e == nil {
		t.Fatalf("no expression at %q", marker)
	}
	return e
}

func TestLoadDeclaresClasses(t *testing.T) {
	h := typesys.Standard()
	src := `package shapes;

public abstract class Shape {
    protected int sides;
    public abstract double area();
}

class Circle extends Shape implements Comparable<Circle> {
    double r;
    public double area() { return 3.14 * r * r; }
    public int compareTo(Circle o) { return 0; }
}
`
	f := load(t, h, Source{Path: "Shape.java", Data: []byte(src)})[0]

	if f.Package != "shapes" {
		t.Errorf("package = %q", f.Package)
	}
	if len(f.Classes) != 2 {
		t.Fatalf("got %d classes, want 2", len(f.Classes))
	}
	circle := h.Lookup("Circle")
	if circle == nil {
		t.Fatal("Circle not registered")
	}
	if circle.Super != "Shape" || !reflect.DeepEqual(circle.Interfaces, []string{"Comparable"}) {
		t.Errorf("Circle supertypes = %q %v", circle.Super, circle.Interfaces)
	}
	if circle.Visibility != "package" || h.Lookup("Shape").Visibility != "public" {
		t.Errorf("visibility: Circle %q, Shape %q", circle.Visibility, h.Lookup("Shape").Visibility)
	}
	if !h.IsSubtype(typesys.ClassOf("Circle"), typesys.ClassOf("Shape")) {
		t.Error("Circle should be a subtype of Shape")
	}
	if got := h.MethodReturn(typesys.ClassOf("Circle"), "area", 0); got == nil || got.String() != "double" {
		t.Errorf("Circle.area returns %v", got)
	}
}

func TestLoadResolvesNamesAndTypes(t *testing.T) {
	h := typesys.Standard()
	src := `class Box {
    String label;
    void run(java.util.List<String> names) {
        Object o = names.get(0);
        int n = names.size() + 1;
        String s = label + n;
        for (String name : names) {
            o = name;
        }
    }
}
`
	f := load(t, h, Source{Path: "Box.java", Data: []byte(src)})[0]

	tests := []struct {
		marker string
		kind   srctree.Kind
		typ    string
	}{
		{"names.get(0)", srctree.KindCall, "String"},
		{"names.size() + 1", srctree.KindBinary, "int"},
		{"label + n", srctree.KindBinary, "String"},
		{"name;", srctree.KindIdent, "String"},
	}
	for _, tt := range tests {
		t.Run(tt.marker, func(t *testing.T) {
			e := exprAt(t, f, tt.marker)
			for e.Kind() != tt.kind {
				p, ok := e.Parent().(srctree.Expr)
				if !ok {
					t.Fatalf("no %v around %q", tt.kind, tt.marker)
				}
				e = p
			}
			if e.Type() == nil || e.Type().String() != tt.typ {
				t.Errorf("type = %v, want %s", e.Type(), tt.typ)
			}
		})
	}

	label := exprAt(t, f, "label + n")
	if v := srctree.Binding(label); v == nil || v.VarKind != srctree.FieldVar {
		t.Errorf("label should bind to the field, got %v", v)
	}
}

func TestLoadSnippet(t *testing.T) {
	f := load(t, typesys.Standard(), Source{Path: "snippet", Data: []byte(`Object o = "x";
o.hashCode();
`)})[0]
	if f.Fragment == nil || len(f.Fragment.Stmts) != 2 {
		t.Fatalf("fragment = %+v", f.Fragment)
	}
	ref := exprAt(t, f, "o.hashCode")
	if _, err := guess.EnclosingBlock(ref); err != nil {
		t.Errorf("snippet expression has no scope: %v", err)
	}
}

func TestLoadAcrossFiles(t *testing.T) {
	h := typesys.Standard()
	files := load(t, h,
		Source{Path: "Use.java", Data: []byte(`class Use {
    void run() { Repo r = new Repo(); r.find(1); }
}
`)},
		Source{Path: "Repo.java", Data: []byte(`class Repo {
    String find(int id) { return null; }
}
`)},
	)
	call := exprAt(t, files[0], "r.find(1)")
	for call.Kind() != srctree.KindCall {
		call = call.Parent().(srctree.Expr)
	}
	c := call.(*srctree.Call)
	if c.Method == nil || c.Method.Name != "find" {
		t.Fatalf("call not resolved to Repo.find: %+v", c.Method)
	}
	if c.Type().String() != "String" {
		t.Errorf("call type = %v", c.Type())
	}
}

func TestGuessesOnParsedSource(t *testing.T) {
	h := typesys.Standard()
	src := `package demo;

import java.util.*;

class Demo {
    void fill() {
        Vector v = new Vector();
        v.add("x");
        v.isEmpty();
    }

    void read(List list) {
        Object o = list.get(0);
        String s = (String) o;
    }

    void check(Object p) {
        if (p instanceof Integer) {
            p.hashCode();
        }
    }
}
`
	f := load(t, h, Source{Path: "Demo.java", Data: []byte(src)})[0]
	g := guess.New(guess.Options{Types: h})
	ctx := context.Background()

	set, err := g.GuessContainerElementType(ctx, exprAt(t, f, "v.isEmpty"), srctree.Range{})
	if err != nil {
		t.Fatal(err)
	}
	if got := set.Strings(); !reflect.DeepEqual(got, []string{"String"}) {
		t.Errorf("vector element = %v, want [String]", got)
	}

	set, err = g.GuessContainerElementType(ctx, exprAt(t, f, "list.get"), srctree.Range{})
	if err != nil {
		t.Fatal(err)
	}
	if got := set.Strings(); !reflect.DeepEqual(got, []string{"String"}) {
		t.Errorf("list element = %v, want [String]", got)
	}

	ts, err := g.ControlFlowExpressionTypeConjuncts(ctx, exprAt(t, f, "p.hashCode"), true)
	if err != nil {
		t.Fatal(err)
	}
	if len(ts) != 1 || ts[0].String() != "Integer" {
		t.Errorf("conjuncts = %v, want [Integer]", ts)
	}
}

func TestAnonymousClassRegistered(t *testing.T) {
	h := typesys.Standard()
	src := `class Host {
    Runnable task = new Runnable() {
        public void run() {}
    };
}
`
	f := load(t, h, Source{Path: "Host.java", Data: []byte(src)})[0]
	anon := h.Lookup("Host$1")
	if anon == nil || !anon.Anonymous {
		t.Fatalf("anonymous class not registered: %+v", anon)
	}
	if len(f.Classes) != 2 {
		t.Errorf("got %d classes, want 2", len(f.Classes))
	}
	if anon.Outer != "Host" {
		t.Errorf("anonymous class outer = %q, want Host", anon.Outer)
	}
}

func TestNestedClassOuter(t *testing.T) {
	h := typesys.Standard()
	src := `class Tree {
    private static class Node {
        class Leaf {}
    }
    void grow() {
        class Bud {}
    }
}
`
	load(t, h, Source{Path: "Tree.java", Data: []byte(src)})
	tests := []struct {
		name, want string
	}{
		{"Tree", ""},
		{"Node", "Tree"},
		{"Leaf", "Tree"},
		{"Bud", "Tree"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := h.Lookup(tt.name)
			if c == nil {
				t.Fatalf("%s not registered", tt.name)
			}
			if c.Outer != tt.want {
				t.Errorf("outer = %q, want %q", c.Outer, tt.want)
			}
		})
	}
	if node := h.Lookup("Node"); !h.IsAccessible(node, "", "Tree") || h.IsAccessible(node, "", "Other") {
		t.Error("private nested class should be visible only inside Tree")
	}
}
