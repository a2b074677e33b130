// Package interp is a small forward abstract interpreter over srctree
// blocks. It tracks instance-of facts per variable through assignments,
// casts and instanceof conditions, and reports every pushed value to a
// dataflow.Listener.
package interp

import (
	"context"
	"errors"
	"log/slog"

	"typeguess/internal/dataflow"
	"typeguess/internal/srctree"
	"typeguess/internal/typesys"
)

// DefaultMaxSteps bounds the statements interpreted in one run.
const DefaultMaxSteps = 10000

var errBudget = errors.New("step budget exhausted")

// Options configures an Interpreter.
type Options struct {
	// MaxSteps is the statement budget per run; 0 means DefaultMaxSteps.
	MaxSteps int
	Logger   *slog.Logger
}

// Interpreter implements dataflow.Interpreter. It holds no per-run state
// and may be shared between goroutines.
type Interpreter struct {
	types    dataflow.Subtyping
	maxSteps int
	logger   *slog.Logger
}

// New creates an interpreter that decides subtyping with types.
func New(types dataflow.Subtyping, opts Options) *Interpreter {
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = DefaultMaxSteps
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Interpreter{types: types, maxSteps: opts.MaxSteps, logger: opts.Logger}
}

// Run interprets block from an empty state. Running out of steps yields
// Incomplete with a nil error; a done context yields its error.
func (in *Interpreter) Run(ctx context.Context, block *srctree.Block, listener dataflow.Listener) (dataflow.Result, error) {
	r := &run{
		in:       in,
		ctx:      ctx,
		listener: listener,
		vars:     make(map[*srctree.Var]*dataflow.Variable),
	}
	_, err := r.stmt(newState(in.types), block)
	switch {
	case errors.Is(err, errBudget):
		in.logger.Debug("Interpreter gave up", "steps", r.steps, "maxSteps", in.maxSteps)
		return dataflow.Incomplete, nil
	case err != nil:
		return dataflow.Incomplete, err
	}
	return dataflow.OK, nil
}

type run struct {
	in       *Interpreter
	ctx      context.Context
	listener dataflow.Listener
	vars     map[*srctree.Var]*dataflow.Variable
	nextID   int
	steps    int
}

func (r *run) variable(v *srctree.Var) *dataflow.Variable {
	if x, ok := r.vars[v]; ok {
		return x
	}
	r.nextID++
	x := &dataflow.Variable{
		ID:     -r.nextID,
		Name:   v.Name,
		Type:   v.Declared,
		Stable: v.VarKind != srctree.FieldVar,
		Decl:   v,
	}
	r.vars[v] = x
	return x
}

func (r *run) tick() error {
	if err := r.ctx.Err(); err != nil {
		return err
	}
	r.steps++
	if r.steps > r.in.maxSteps {
		return errBudget
	}
	return nil
}

// stmt interprets s starting from state in and returns the state after it.
func (r *run) stmt(in *memState, s srctree.Stmt) (*memState, error) {
	if in.unreachable || s == nil {
		return in, nil
	}
	if err := r.tick(); err != nil {
		return nil, err
	}
	switch x := s.(type) {
	case *srctree.Block:
		cur := in
		for _, st := range x.Stmts {
			next, err := r.stmt(cur, st)
			if err != nil {
				return nil, err
			}
			cur = next
		}
		return cur, nil

	case *srctree.DeclStmt:
		cur := in.clone()
		for _, v := range x.Vars {
			if v.Init == nil {
				continue
			}
			val := r.eval(cur, v.Init)
			r.store(cur, r.variable(v), val)
		}
		return cur, nil

	case *srctree.ExprStmt:
		cur := in.clone()
		r.eval(cur, x.X)
		return cur, nil

	case *srctree.If:
		t, f := r.branch(in.clone(), x.Cond)
		t, err := r.stmt(t, x.Then)
		if err != nil {
			return nil, err
		}
		f, err = r.stmt(f, x.Else)
		if err != nil {
			return nil, err
		}
		return join(t, f), nil

	case *srctree.Loop:
		return r.loop(in, x)

	case *srctree.Return:
		cur := in.clone()
		if x.X != nil {
			r.eval(cur, x.X)
		}
		return deadState(r.in.types), nil

	case *srctree.OtherStmt:
		cur := in.clone()
		for _, e := range x.Exprs {
			r.eval(cur, e)
		}
		entry := cur
		for _, st := range x.Stmts {
			next, err := r.stmt(cur, st)
			if err != nil {
				return nil, err
			}
			cur = next
		}
		// Nested statements of try, switch and the like may be skipped.
		return join(entry, cur), nil
	}
	return in, nil
}

// loop iterates the body until the state at the loop head stops changing.
func (r *run) loop(in *memState, l *srctree.Loop) (*memState, error) {
	cur := in
	for _, st := range l.Init {
		next, err := r.stmt(cur, st)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	if l.Iter != nil {
		cur = cur.clone()
		r.eval(cur, l.Iter)
	}

	head := cur
	for {
		if err := r.tick(); err != nil {
			return nil, err
		}
		entry := head.clone()
		if l.Iter != nil {
			r.resetLoopVars(entry, l)
		}
		var t, f *memState
		if l.Cond != nil {
			t, f = r.branch(entry, l.Cond)
		} else {
			t, f = entry, entry.clone()
		}
		body, err := r.stmt(t, l.Body)
		if err != nil {
			return nil, err
		}
		if !body.unreachable {
			body = body.clone()
			for _, u := range l.Update {
				r.eval(body, u)
			}
		}
		next := join(head, body)
		if next.equal(head) {
			return f, nil
		}
		head = next
	}
}

// resetLoopVars forgets what is known about for-each variables, which are
// assigned a fresh element on every iteration.
func (r *run) resetLoopVars(s *memState, l *srctree.Loop) {
	for _, st := range l.Init {
		if d, ok := st.(*srctree.DeclStmt); ok {
			for _, v := range d.Vars {
				delete(s.facts, r.variable(v))
			}
		}
	}
	s.flush(func(v *dataflow.Variable) bool { return v.Synthetic })
}

// store assigns val to v and invalidates synthetic variables, whose
// expressions may read v.
func (r *run) store(s *memState, v *dataflow.Variable, val dataflow.Value) {
	c := s.Constraint(val)
	s.flush(func(x *dataflow.Variable) bool { return x.Synthetic })
	s.set(v, c)
}

func (r *run) push(s *memState, e srctree.Expr, v dataflow.Value) dataflow.Value {
	if r.listener == nil || s.unreachable {
		return v
	}
	return r.listener.Pushed(e, v, s)
}

// eval interprets e in s, which it may update, and returns the pushed value.
func (r *run) eval(s *memState, e srctree.Expr) dataflow.Value {
	if e == nil {
		return dataflow.Temp{}
	}
	var v dataflow.Value = dataflow.Temp{Type: e.Type()}
	switch x := e.(type) {
	case *srctree.Ident:
		if x.Var != nil {
			v = r.variable(x.Var)
		}

	case *srctree.FieldAccess:
		if x.X != nil {
			r.eval(s, x.X)
		}
		if x.Var != nil {
			v = r.variable(x.Var)
		}

	case *srctree.Call:
		if x.Recv != nil {
			r.eval(s, x.Recv)
		}
		for _, a := range x.Args {
			r.eval(s, a)
		}
		r.flushUnstable(s)

	case *srctree.New:
		for _, a := range x.Args {
			r.eval(s, a)
		}
		r.flushUnstable(s)

	case *srctree.Cast:
		v = r.eval(s, x.X)
		if typesys.IsReference(x.To) {
			s.narrow(v, dataflow.InstanceOf(x.To))
		}

	case *srctree.InstanceOf:
		r.eval(s, x.X)

	case *srctree.Assign:
		v = r.assign(s, x)

	case *srctree.Binary:
		if x.Op == "&&" || x.Op == "||" {
			// branch has already reported x.
			t, f := r.branch(s.clone(), x)
			*s = *join(t, f)
			return v
		}
		r.eval(s, x.X)
		r.eval(s, x.Y)

	case *srctree.Unary:
		r.eval(s, x.X)
		if id, ok := srctree.SkipParens(x.X).(*srctree.Ident); ok && id.Var != nil && (x.Op == "++" || x.Op == "--") {
			r.store(s, r.variable(id.Var), dataflow.Temp{Type: id.Type()})
		}

	case *srctree.Conditional:
		t, f := r.branch(s.clone(), x.Cond)
		r.eval(t, x.Then)
		r.eval(f, x.Else)
		*s = *join(t, f)

	case *srctree.Paren:
		v = r.eval(s, x.X)

	case *srctree.Index:
		r.eval(s, x.X)
		r.eval(s, x.Index)

	case *srctree.Opaque:
		for _, p := range x.Parts {
			r.eval(s, p)
		}
	}
	return r.push(s, e, v)
}

func (r *run) assign(s *memState, a *srctree.Assign) dataflow.Value {
	var target *srctree.Var
	switch lhs := srctree.SkipParens(a.LHS).(type) {
	case *srctree.Ident:
		target = lhs.Var
	case *srctree.FieldAccess:
		if lhs.X != nil {
			r.eval(s, lhs.X)
		}
		target = lhs.Var
	case *srctree.Index:
		r.eval(s, lhs.X)
		r.eval(s, lhs.Index)
	}
	val := r.eval(s, a.RHS)
	if target == nil {
		s.flush(func(x *dataflow.Variable) bool { return x.Synthetic })
		return val
	}
	v := r.variable(target)
	if a.Op != "=" {
		val = dataflow.Temp{Type: target.Declared}
	}
	r.store(s, v, val)
	return v
}

// flushUnstable forgets facts about fields, which a call may reassign.
func (r *run) flushUnstable(s *memState) {
	s.flush(func(v *dataflow.Variable) bool { return !v.Stable && !v.Synthetic })
}

// branch evaluates cond in s and returns the states in which it is true
// and false. s is consumed.
func (r *run) branch(s *memState, cond srctree.Expr) (t, f *memState) {
	switch c := cond.(type) {
	case *srctree.Paren:
		t, f = r.branch(s, c.X)
		r.push(t, c, dataflow.Temp{Type: typesys.Boolean})
		return t, f

	case *srctree.Unary:
		if c.Op == "!" {
			t, f = r.branch(s, c.X)
			r.push(f, c, dataflow.Temp{Type: typesys.Boolean})
			return f, t
		}

	case *srctree.Binary:
		switch c.Op {
		case "&&":
			t1, f1 := r.branch(s, c.X)
			t2, f2 := r.branch(t1, c.Y)
			r.push(t2, c, dataflow.Temp{Type: typesys.Boolean})
			return t2, join(f1, f2)
		case "||":
			t1, f1 := r.branch(s, c.X)
			t2, f2 := r.branch(f1, c.Y)
			r.push(t1, c, dataflow.Temp{Type: typesys.Boolean})
			return join(t1, t2), f2
		}

	case *srctree.InstanceOf:
		v := r.eval(s, c.X)
		r.push(s, c, dataflow.Temp{Type: typesys.Boolean})
		t, f = s.clone(), s.clone()
		if typesys.IsReference(c.Of) {
			t.narrow(v, dataflow.InstanceOf(c.Of))
			f.narrow(v, dataflow.NotInstanceOf(c.Of))
		}
		return t, f

	case *srctree.Literal:
		switch c.Text {
		case "true":
			r.push(s, c, dataflow.Temp{Type: typesys.Boolean})
			return s, deadState(r.in.types)
		case "false":
			r.push(s, c, dataflow.Temp{Type: typesys.Boolean})
			return deadState(r.in.types), s
		}
	}
	r.eval(s, cond)
	return s, s.clone()
}
