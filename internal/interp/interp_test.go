package interp

import (
	"context"
	"errors"
	"testing"

	"typeguess/internal/dataflow"
	"typeguess/internal/identity"
	"typeguess/internal/srctree"
	"typeguess/internal/typesys"
)

var (
	objectType = typesys.ClassOf("Object")
	stringType = typesys.ClassOf("String")
)

// recorder captures the facts known about one expression node.
type recorder struct {
	target srctree.Expr
	seen   []dataflow.Constraint
	types  dataflow.Subtyping
}

func (r *recorder) Pushed(e srctree.Expr, v dataflow.Value, s dataflow.State) dataflow.Value {
	if e == r.target {
		r.seen = append(r.seen, s.Constraint(v))
	}
	return v
}

func (r *recorder) facts(t *testing.T) []string {
	t.Helper()
	if len(r.seen) == 0 {
		t.Fatal("target was never pushed")
	}
	c := r.seen[0]
	for _, x := range r.seen[1:] {
		c = c.Join(x, r.types)
	}
	var out []string
	for _, ty := range c.InstanceOfTypes() {
		out = append(out, ty.String())
	}
	return out
}

func method(body ...srctree.Stmt) *srctree.Method {
	m := srctree.NewMethod("run", typesys.Void, nil, body...)
	srctree.NewFile("T.java", "demo", srctree.NewClass("T", m))
	return m
}

func runOn(t *testing.T, m *srctree.Method, l dataflow.Listener, opts Options) dataflow.Result {
	t.Helper()
	in := New(typesys.Standard(), opts)
	res, err := in.Run(context.Background(), m.Body, l)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return res
}

func TestAssignmentCarriesFacts(t *testing.T) {
	o := srctree.NewLocal("o", objectType, srctree.StringLit("x"))
	target := srctree.Ref(o)
	m := method(srctree.Declare(o), srctree.Eval(target))

	rec := &recorder{target: target, types: typesys.Standard()}
	if res := runOn(t, m, rec, Options{}); res != dataflow.OK {
		t.Fatalf("result = %v", res)
	}
	if got := rec.facts(t); len(got) != 1 || got[0] != "String" {
		t.Errorf("facts = %v, want [String]", got)
	}
}

func TestInstanceOfNarrowsThenBranch(t *testing.T) {
	p := srctree.NewParam("o", objectType)
	inThen := srctree.Ref(p)
	after := srctree.Ref(p)
	m := srctree.NewMethod("run", typesys.Void, []*srctree.Var{p},
		srctree.IfThen(srctree.IsInstance(srctree.Ref(p), stringType), srctree.NewBlock(srctree.Eval(inThen)), nil),
		srctree.Eval(after),
	)
	srctree.NewFile("T.java", "demo", srctree.NewClass("T", m))

	rec := &recorder{target: inThen, types: typesys.Standard()}
	runOn(t, m, rec, Options{})
	if got := rec.facts(t); len(got) != 1 || got[0] != "String" {
		t.Errorf("then-branch facts = %v, want [String]", got)
	}

	rec = &recorder{target: after, types: typesys.Standard()}
	runOn(t, m, rec, Options{})
	if got := rec.facts(t); len(got) != 1 || got[0] != "Object" {
		t.Errorf("after-if facts = %v, want [Object]", got)
	}
}

func TestNegatedConditionNarrowsElse(t *testing.T) {
	p := srctree.NewParam("o", objectType)
	inElse := srctree.Ref(p)
	cond := srctree.Not(srctree.Parens(srctree.IsInstance(srctree.Ref(p), stringType)))
	m := srctree.NewMethod("run", typesys.Void, []*srctree.Var{p},
		srctree.IfThen(cond, srctree.NewBlock(), srctree.NewBlock(srctree.Eval(inElse))),
	)
	srctree.NewFile("T.java", "demo", srctree.NewClass("T", m))

	rec := &recorder{target: inElse, types: typesys.Standard()}
	runOn(t, m, rec, Options{})
	if got := rec.facts(t); len(got) != 1 || got[0] != "String" {
		t.Errorf("else-branch facts = %v, want [String]", got)
	}
}

func TestCastNarrowsOperand(t *testing.T) {
	p := srctree.NewParam("o", objectType)
	after := srctree.Ref(p)
	m := srctree.NewMethod("run", typesys.Void, []*srctree.Var{p},
		srctree.Eval(srctree.CastTo(stringType, srctree.Ref(p))),
		srctree.Eval(after),
	)
	srctree.NewFile("T.java", "demo", srctree.NewClass("T", m))

	rec := &recorder{target: after, types: typesys.Standard()}
	runOn(t, m, rec, Options{})
	if got := rec.facts(t); len(got) != 1 || got[0] != "String" {
		t.Errorf("facts after cast = %v, want [String]", got)
	}
}

func TestCallFlushesFields(t *testing.T) {
	field := srctree.NewField("value", objectType, nil)
	callee := srctree.NewMethod("reset", typesys.Void, nil)
	after := srctree.Ref(field)
	m := srctree.NewMethod("run", typesys.Void, nil,
		srctree.IfThen(srctree.IsInstance(srctree.Ref(field), stringType), srctree.NewBlock(
			srctree.Eval(srctree.CallMethod(nil, callee)),
			srctree.Eval(after),
		), nil),
	)
	srctree.NewFile("T.java", "demo", srctree.NewClass("T", field, callee, m))

	rec := &recorder{target: after, types: typesys.Standard()}
	runOn(t, m, rec, Options{})
	if got := rec.facts(t); len(got) != 1 || got[0] != "Object" {
		t.Errorf("field facts after call = %v, want [Object]", got)
	}
}

// substituting routes every occurrence equivalent to target through one
// synthetic variable.
type substituting struct {
	recorder
	vars *dataflow.Variables
}

func (s *substituting) Pushed(e srctree.Expr, v dataflow.Value, st dataflow.State) dataflow.Value {
	if identity.Equal(e, s.target) {
		d := identity.Of(e)
		v = s.vars.Synthetic(d, d.String(), e.Type())
	}
	return s.recorder.Pushed(e, v, st)
}

func TestSyntheticVariableTracksCalls(t *testing.T) {
	holder := srctree.NewParam("h", typesys.ClassOf("Holder"))
	first := srctree.CallOn(srctree.Ref(holder), "get", objectType)
	second := srctree.CallOn(srctree.Ref(holder), "get", objectType)
	m := srctree.NewMethod("run", typesys.Void, []*srctree.Var{holder},
		srctree.IfThen(srctree.IsInstance(first, stringType), srctree.NewBlock(srctree.Eval(second)), nil),
	)
	srctree.NewFile("T.java", "demo", srctree.NewClass("T", m))

	s := &substituting{recorder: recorder{target: second, types: typesys.Standard()}, vars: dataflow.NewVariables()}
	runOn(t, m, s, Options{})
	if got := s.facts(t); len(got) != 1 || got[0] != "String" {
		t.Errorf("facts = %v, want [String]", got)
	}
	if s.vars.Len() != 1 {
		t.Errorf("synthetic variables = %d, want 1", s.vars.Len())
	}
}

func TestLoopReachesFixpoint(t *testing.T) {
	o := srctree.NewLocal("o", objectType, srctree.StringLit("x"))
	inLoop := srctree.Ref(o)
	m := method(
		srctree.Declare(o),
		srctree.While(srctree.Name("cond", typesys.Boolean), srctree.NewBlock(
			srctree.Eval(inLoop),
			srctree.Eval(srctree.AssignTo(srctree.Ref(o), srctree.IntLit(1))),
		)),
	)

	rec := &recorder{target: inLoop, types: typesys.Standard()}
	if res := runOn(t, m, rec, Options{}); res != dataflow.OK {
		t.Fatalf("result = %v", res)
	}
	// String on the first iteration, int on later ones: nothing in common.
	if got := rec.facts(t); len(got) != 0 {
		t.Errorf("loop facts = %v, want none", got)
	}
}

func TestBudgetYieldsIncomplete(t *testing.T) {
	stmts := make([]srctree.Stmt, 0, 20)
	for i := 0; i < 20; i++ {
		stmts = append(stmts, srctree.Eval(srctree.IntLit(i)))
	}
	m := method(stmts...)
	if res := runOn(t, m, nil, Options{MaxSteps: 5}); res != dataflow.Incomplete {
		t.Errorf("result = %v, want incomplete", res)
	}
}

func TestCanceledContext(t *testing.T) {
	m := method(srctree.Eval(srctree.IntLit(1)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(typesys.Standard(), Options{}).Run(ctx, m.Body, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
