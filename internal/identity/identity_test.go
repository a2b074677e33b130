package identity

import (
	"testing"

	"typeguess/internal/srctree"
	"typeguess/internal/typesys"
)

func fixture() (list, other *srctree.Var) {
	list = srctree.NewLocal("list", typesys.ClassOf("List"), nil)
	other = srctree.NewLocal("other", typesys.ClassOf("List"), nil)
	return list, other
}

func TestDescriptorVariants(t *testing.T) {
	list, _ := fixture()

	tests := []struct {
		name string
		expr srctree.Expr
		want string
	}{
		{"ident", srctree.Ref(list), "ref:list"},
		{"call", srctree.CallOn(srctree.Ref(list), "get", nil, srctree.IntLit(0)), "call:get"},
		{"cast", srctree.CastTo(typesys.ClassOf("String"), srctree.Ref(list)), "kind:16"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Of(tt.expr).projection(); got != tt.want {
				t.Errorf("projection = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSameCallSite(t *testing.T) {
	list, _ := fixture()
	a := srctree.CallOn(srctree.Ref(list), "get", nil, srctree.IntLit(0))
	b := srctree.CallOn(srctree.Ref(list), "get", nil, srctree.IntLit(0))

	if Hash(a) != Hash(b) {
		t.Error("equal calls must hash equal")
	}
	if !Equal(a, b) {
		t.Error("textually equal calls should be the same analysis site")
	}
}

func TestDifferentQualifierSameMethod(t *testing.T) {
	list, other := fixture()
	a := srctree.CallOn(srctree.Ref(list), "get", nil, srctree.IntLit(0))
	b := srctree.CallOn(srctree.Ref(other), "get", nil, srctree.IntLit(0))
	c := srctree.CallOn(srctree.Ref(list), "get", nil, srctree.IntLit(1))

	if Hash(a) != Hash(b) || Hash(a) != Hash(c) {
		t.Error("calls to the same method share a hash bucket")
	}
	if Equal(a, b) {
		t.Error("calls on different qualifiers must not be the same site")
	}
	if Equal(a, c) {
		t.Error("calls with different arguments must not be the same site")
	}
}

func TestDifferentMethodDifferentHash(t *testing.T) {
	list, _ := fixture()
	get := srctree.CallOn(srctree.Ref(list), "get", nil, srctree.IntLit(0))
	size := srctree.CallOn(srctree.Ref(list), "size", typesys.Int)
	if Hash(get) == Hash(size) {
		t.Error("different method names should hash apart")
	}
	if Equal(get, size) {
		t.Error("different methods must not be the same site")
	}
}

func TestSameOnDescriptors(t *testing.T) {
	list, _ := fixture()
	a := Of(srctree.Ref(list))
	b := Of(srctree.Ref(list))
	if !a.Same(b) {
		t.Error("descriptors of equal references should be Same")
	}
	if a.Same("list") {
		t.Error("a non-descriptor is never Same")
	}
}

func TestCheckerConsistent(t *testing.T) {
	list, _ := fixture()
	var reports int
	c := &Checker{Report: func(Inconsistency) { reports++ }}

	a := srctree.CallOn(srctree.Ref(list), "get", nil, srctree.IntLit(0))
	b := srctree.CallOn(srctree.Ref(list), "get", nil, srctree.IntLit(0))
	if !c.Equal(a, b) {
		t.Error("Checker.Equal should agree with Equal")
	}
	if reports != 0 || c.Violations() != 0 {
		t.Errorf("unexpected inconsistency reports: %d", reports)
	}
}

func TestCheckerReportsInconsistency(t *testing.T) {
	list, _ := fixture()
	var got []Inconsistency
	next := uint64(0)
	c := &Checker{
		Report: func(i Inconsistency) { got = append(got, i) },
		hash: func(srctree.Expr) uint64 {
			next++
			return next
		},
	}

	a := srctree.Ref(list)
	b := srctree.Ref(list)
	if !c.Equal(a, b) {
		t.Error("inconsistency must not change the comparison result")
	}
	if len(got) != 1 || c.Violations() != 1 {
		t.Fatalf("expected one report, got %d", len(got))
	}
	if got[0].HashA == got[0].HashB {
		t.Error("report should carry the differing hashes")
	}
}
