package srctree

import (
	"testing"

	"typeguess/internal/typesys"
)

var vectorType = typesys.ClassOf("Vector")

func TestLinkAssignsParentsAndOrder(t *testing.T) {
	v := NewLocal("v", vectorType, NewObject(vectorType))
	add := CallOn(Ref(v), "add", typesys.Boolean, StringLit("x"))
	m := NewMethod("run", typesys.Void, nil, Declare(v), Eval(add))
	f := NewFile("A.java", "demo", NewClass("A", m))

	if add.Parent() == nil || add.Parent().Kind() != KindExprStmt {
		t.Fatalf("call parent = %v, want expression statement", add.Parent())
	}
	if FileOf(add) != f {
		t.Error("FileOf did not find the file")
	}
	if EnclosingMethod(add) != m {
		t.Error("EnclosingMethod did not find run")
	}
	if !(v.Pos() < add.Pos()) {
		t.Errorf("declaration at %d should precede call at %d", v.Pos(), add.Pos())
	}
	if !RangeOf(m).Contains(RangeOf(add)) {
		t.Error("method range should contain the call")
	}
	if got := ExprAt(f, add.Args[0].Pos()); got != add.Args[0] {
		t.Errorf("ExprAt = %v, want the string literal", got)
	}
}

func TestEquivalent(t *testing.T) {
	list := NewLocal("list", typesys.ClassOf("List"), nil)
	other := NewLocal("other", typesys.ClassOf("List"), nil)

	tests := []struct {
		name string
		a, b Expr
		want bool
	}{
		{"same ref", Ref(list), Ref(list), true},
		{"different var", Ref(list), Ref(other), false},
		{"same call", CallOn(Ref(list), "get", nil, IntLit(0)), CallOn(Ref(list), "get", nil, IntLit(0)), true},
		{"call args differ", CallOn(Ref(list), "get", nil, IntLit(0)), CallOn(Ref(list), "get", nil, IntLit(1)), false},
		{"call qualifier differs", CallOn(Ref(list), "get", nil, IntLit(0)), CallOn(Ref(other), "get", nil, IntLit(0)), false},
		{"cast types differ", CastTo(typesys.ClassOf("String"), Ref(list)), CastTo(typesys.ClassOf("Integer"), Ref(list)), false},
		{"parens", Parens(Ref(list)), Parens(Ref(list)), true},
		{"kind mismatch", Ref(list), Parens(Ref(list)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equivalent(tt.a, tt.b); got != tt.want {
				t.Errorf("Equivalent = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReferencesAndCallSites(t *testing.T) {
	p := NewParam("items", vectorType)
	callee := NewMethod("fill", typesys.Void, []*Var{p},
		Eval(CallOn(Ref(p), "add", typesys.Boolean, StringLit("a"))))
	v := NewLocal("v", vectorType, NewObject(vectorType))
	caller := NewMethod("main", typesys.Void, nil,
		Declare(v),
		Eval(CallMethod(nil, callee, Ref(v))),
		Eval(CallMethod(nil, callee, Ref(v))),
	)
	f := NewFile("B.java", "demo", NewClass("B", callee, caller))

	if got := len(f.References(v)); got != 2 {
		t.Errorf("References(v) = %d, want 2", got)
	}
	if got := len(f.References(p)); got != 1 {
		t.Errorf("References(items) = %d, want 1", got)
	}

	proj := NewProject()
	proj.Replace(f)
	sites := proj.CallSites(callee)
	if len(sites) != 2 {
		t.Fatalf("CallSites = %d, want 2", len(sites))
	}
	if sites[0].Pos() >= sites[1].Pos() {
		t.Error("call sites should be in source order")
	}
}

func TestProjectOnChange(t *testing.T) {
	proj := NewProject()
	var changed []string
	proj.OnChange(func(path string) { changed = append(changed, path) })

	proj.Replace(NewFragment("a.java"))
	proj.Replace(NewFragment("a.java"))
	proj.Remove("a.java")
	proj.Remove("missing.java")

	if len(changed) != 3 {
		t.Errorf("got %d notifications, want 3: %v", len(changed), changed)
	}
	if proj.File("a.java") != nil {
		t.Error("file should be gone after Remove")
	}
}

func TestSkipParensAndArgIndex(t *testing.T) {
	v := NewLocal("v", vectorType, nil)
	inner := Ref(v)
	wrapped := Parens(Parens(inner))
	if SkipParens(wrapped) != inner {
		t.Error("SkipParens should reach the identifier")
	}
	call := CallOn(nil, "add", typesys.Boolean, IntLit(0), wrapped)
	if got := ArgIndex(call, wrapped); got != 1 {
		t.Errorf("ArgIndex = %d, want 1", got)
	}
	if got := ArgIndex(call, inner); got != -1 {
		t.Errorf("ArgIndex(inner) = %d, want -1", got)
	}
}
