package main

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	gerrors "typeguess/internal/errors"
	"typeguess/internal/guess"
	"typeguess/internal/patterns"
	"typeguess/internal/srctree"
	"typeguess/internal/typesys"
)

func patternsFor(name string, arity, slot int) patterns.Pattern {
	return patterns.Pattern{Name: name, Arity: arity, Slot: slot}
}

var (
	objectT = typesys.ClassOf("Object")
	stringT = typesys.ClassOf("String")
	listT   = typesys.ClassOf("List")
)

// List list; Object o = list.get(0); String s = (String) o;
func returnFlowFile(path string) *srctree.File {
	list := srctree.NewParam("list", listT)
	get := srctree.CallOn(srctree.Ref(list), "get", objectT, srctree.IntLit(0))
	o := srctree.NewLocal("o", objectT, get)
	s := srctree.NewLocal("s", stringT, srctree.CastTo(stringT, srctree.Ref(o)))
	m := srctree.NewMethod("run", typesys.Void, []*srctree.Var{list}, srctree.Declare(o), srctree.Declare(s))
	return srctree.NewFile(path, "demo", srctree.NewClass("Demo", m))
}

func TestScanFile(t *testing.T) {
	g := guess.New(guess.Options{})

	results, err := scanFile(context.Background(), g, patterns.Default(), returnFlowFile("Demo.java"))
	if err != nil {
		t.Fatalf("scanFile() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %+v, want one cast and one element site", results)
	}

	var element *ScanResultCLI
	for i := range results {
		if results[i].Op == "element" {
			element = &results[i]
		}
	}
	if element == nil {
		t.Fatalf("no element site in %+v", results)
	}
	if !reflect.DeepEqual(element.Types, []string{"String"}) {
		t.Errorf("element types = %v, want [String]", element.Types)
	}
}

func TestScanFiles_OrderAndCancel(t *testing.T) {
	g := guess.New(guess.Options{})
	files := []*srctree.File{returnFlowFile("B.java"), returnFlowFile("A.java")}

	results, err := scanFiles(context.Background(), g, patterns.Default(), files, 4)
	if err != nil {
		t.Fatalf("scanFiles() error = %v", err)
	}
	var got []string
	for _, r := range results {
		got = append(got, r.File+" "+r.Op)
	}
	want := []string{"A.java element", "A.java cast", "B.java element", "B.java cast"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := scanFiles(ctx, g, patterns.Default(), files, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("canceled scan error = %v, want context.Canceled", err)
	}
}

func TestPosition(t *testing.T) {
	src := []byte("class A {\n  int x;\n}\n")
	tests := []struct {
		off  int
		want string
	}{
		{0, "1:1"},
		{6, "1:7"},
		{10, "2:1"},
		{16, "2:7"},
		{100, "4:1"},
	}
	for _, tt := range tests {
		if got := position(src, tt.off); got != tt.want {
			t.Errorf("position(%d) = %s, want %s", tt.off, got, tt.want)
		}
	}
}

func TestMetricTotals(t *testing.T) {
	reg := prometheus.NewRegistry()
	queries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "typeguess", Name: "queries_total", Help: "q",
	}, []string{"op"})
	other := prometheus.NewCounter(prometheus.CounterOpts{Name: "other_total", Help: "o"})
	reg.MustRegister(queries, other)

	queries.WithLabelValues("cast").Add(3)
	other.Inc()

	got := metricTotals(reg)
	want := map[string]float64{"typeguess_queries_total{op=cast}": 3}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("metricTotals() = %v, want %v", got, want)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{gerrors.Newf(gerrors.InvalidConfig, "bad"), 2},
		{gerrors.Newf(gerrors.ExpressionNotFound, "none"), 2},
		{gerrors.Newf(gerrors.ParseFailed, "syntax"), 1},
		{errors.New("plain"), 1},
	}
	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
