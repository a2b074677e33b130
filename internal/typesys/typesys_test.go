package typesys

import (
	"context"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"int", "int"},
		{"String", "String"},
		{"java.util.List<java.lang.String>", "List<String>"},
		{"Map<String, List<Integer>>", "Map<String, List<Integer>>"},
		{"int[]", "int[]"},
		{"List<? extends Number>", "List<Number>"},
		{"List<?>", "List<Object>"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Parse(tt.in)
			if got.String() != tt.want {
				t.Errorf("Parse(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestEraseAndBox(t *testing.T) {
	if got := Erase(Parse("List<String>")); got.String() != "List" {
		t.Errorf("Erase(List<String>) = %s", got)
	}
	if got := Erase(&Array{Elem: Parse("List<String>")}); got.String() != "List[]" {
		t.Errorf("Erase(List<String>[]) = %s", got)
	}
	if got := Box(Int); got.String() != "Integer" {
		t.Errorf("Box(int) = %s", got)
	}
	if got := Box(ClassOf("String")); got.String() != "String" {
		t.Errorf("Box(String) = %s", got)
	}
	if got := Box(Void); got != Void {
		t.Errorf("Box(void) = %s, want void", got)
	}
}

func TestIsSubtype(t *testing.T) {
	h := Standard()

	tests := []struct {
		sub, sup string
		want     bool
	}{
		{"String", "Object", true},
		{"String", "CharSequence", true},
		{"Vector", "List", true},
		{"Vector<String>", "Collection", true},
		{"Stack", "AbstractList", true},
		{"List", "Vector", false},
		{"Integer", "Number", true},
		{"Integer", "String", false},
		{"int", "int", true},
		{"int", "Object", false},
		{"String[]", "Object[]", true},
		{"int[]", "Object", true},
		{"int[]", "Object[]", false},
	}

	for _, tt := range tests {
		t.Run(tt.sub+"<:"+tt.sup, func(t *testing.T) {
			if got := h.IsSubtype(Parse(tt.sub), Parse(tt.sup)); got != tt.want {
				t.Errorf("IsSubtype(%s, %s) = %v, want %v", tt.sub, tt.sup, got, tt.want)
			}
		})
	}

	if !h.IsSubtype(Null, ClassOf("String")) {
		t.Error("null should be assignable to String")
	}
	if h.IsSubtype(Null, Int) {
		t.Error("null should not be assignable to int")
	}
	both := &Intersection{Terms: []Type{ClassOf("CharSequence"), ClassOf("Comparable")}}
	if !h.IsSubtype(ClassOf("String"), both) {
		t.Error("String should satisfy CharSequence & Comparable")
	}
}

func TestDirectSubclasses(t *testing.T) {
	h := Standard()
	h.Add(&ClassInfo{Name: "Shape", Package: "geo", Abstract: true})
	for _, n := range []string{"Circle", "Square"} {
		h.Add(&ClassInfo{Name: n, Package: "geo", Super: "Shape"})
	}
	h.Add(&ClassInfo{Name: "Shape$1", Package: "geo", Super: "Shape", Anonymous: true})

	got, overflow, err := h.DirectSubclasses(context.Background(), "Shape", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if overflow {
		t.Fatal("did not expect overflow")
	}
	var names []string
	for _, c := range got {
		names = append(names, c.Name)
	}
	if strings.Join(names, ",") != "Circle,Square" {
		t.Errorf("subclasses = %v", names)
	}

	for i := 0; i < 4; i++ {
		h.Add(&ClassInfo{Name: "Poly" + string(rune('A'+i)), Package: "geo", Super: "Shape"})
	}
	got, overflow, err = h.DirectSubclasses(context.Background(), "Shape", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !overflow || got != nil {
		t.Errorf("expected overflow with no classes, got overflow=%v classes=%d", overflow, len(got))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := h.DirectSubclasses(ctx, "Shape", 5); err == nil {
		t.Error("expected cancellation error")
	}
}

func TestRemoveUnlinksSubclass(t *testing.T) {
	h := NewHierarchy()
	h.Add(&ClassInfo{Name: "Base"})
	h.Add(&ClassInfo{Name: "Derived", Super: "Base"})
	h.Remove("Derived")

	got, _, _ := h.DirectSubclasses(context.Background(), "Base", 5)
	if len(got) != 0 {
		t.Errorf("expected no subclasses after Remove, got %d", len(got))
	}
	if h.IsSubtype(ClassOf("Derived"), ClassOf("Base")) {
		t.Error("removed class should no longer be a subtype")
	}
}

func TestMethodReturn(t *testing.T) {
	h := Standard()

	tests := []struct {
		recv  string
		name  string
		arity int
		want  string
	}{
		{"List<String>", "get", 1, "String"},
		{"ArrayList<Integer>", "get", 1, "Integer"},
		{"Vector", "elementAt", 1, "Object"},
		{"Vector<String>", "firstElement", 0, "String"},
		{"HashMap<String, Long>", "get", 1, "Long"},
		{"String", "getClass", 0, "Class"},
		{"Vector", "size", 0, "int"},
	}

	for _, tt := range tests {
		t.Run(tt.recv+"."+tt.name, func(t *testing.T) {
			got := h.MethodReturn(Parse(tt.recv), tt.name, tt.arity)
			if got == nil || got.String() != tt.want {
				t.Errorf("MethodReturn = %v, want %s", got, tt.want)
			}
		})
	}

	if got := h.MethodReturn(Parse("Vector"), "nosuch", 0); got != nil {
		t.Errorf("expected nil for unknown method, got %s", got)
	}
}

func TestLoadCatalog(t *testing.T) {
	h := NewHierarchy()
	doc := `
version = 1
[[class]]
name = "Widget"
package = "ui"
visibility = "package"
`
	if err := h.LoadCatalog(strings.NewReader(doc)); err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	w := h.Lookup("Widget")
	if w == nil {
		t.Fatal("Widget not loaded")
	}
	if h.IsAccessible(w, "other", "") {
		t.Error("package-private class should not be accessible from another package")
	}
	if !h.IsAccessible(w, "ui", "") {
		t.Error("package-private class should be accessible from its own package")
	}

	tests := []struct {
		name     string
		class    *ClassInfo
		pkg, top string
		want     bool
	}{
		{"private nested from own outer", &ClassInfo{Name: "Node", Package: "ui", Visibility: "private", Outer: "Tree"}, "ui", "Tree", true},
		{"private nested from sibling class", &ClassInfo{Name: "Node", Package: "ui", Visibility: "private", Outer: "Tree"}, "ui", "Panel", false},
		{"private nested from unknown site", &ClassInfo{Name: "Node", Package: "ui", Visibility: "private", Outer: "Tree"}, "ui", "", false},
		{"private top-level from itself", &ClassInfo{Name: "Tree", Package: "ui", Visibility: "private"}, "ui", "Tree", true},
		{"public from anywhere", &ClassInfo{Name: "Tree", Package: "ui"}, "other", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := h.IsAccessible(tt.class, tt.pkg, tt.top); got != tt.want {
				t.Errorf("IsAccessible = %v, want %v", got, tt.want)
			}
		})
	}

	if err := h.LoadCatalog(strings.NewReader("[[class]]\npackage = \"x\"\n")); err == nil {
		t.Error("expected error for nameless class")
	}
}
