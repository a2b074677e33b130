// Package dataflow is the contract between the type guesser and a forward
// abstract interpreter: the interpreter walks a block, tells a Listener
// about every value it pushes for an expression, and answers type
// constraint queries on its memory state.
package dataflow

import (
	"context"
	"fmt"

	"typeguess/internal/srctree"
	"typeguess/internal/typesys"
)

// Result is the outcome of an interpreter run.
type Result int

const (
	// OK means every reachable instruction was interpreted to a fixpoint.
	OK Result = iota
	// Incomplete means the interpreter gave up within its own limits.
	Incomplete
)

func (r Result) String() string {
	if r == OK {
		return "ok"
	}
	return "incomplete"
}

// Value is an abstract value on the interpreter's stack: a *Variable or a
// Temp.
type Value interface {
	fmt.Stringer
	isValue()
}

// Key identifies a synthetic variable. Keys with equal hashes are told apart
// with Same.
type Key interface {
	Hash() uint64
	Same(other any) bool
}

// Variable is a tracked storage location. Stable variables (locals and
// parameters) can only change by assignment; unstable ones (fields) may
// also change across calls. Synthetic variables stand in for arbitrary
// expressions and are identified by Key.
type Variable struct {
	ID        int
	Name      string
	Type      typesys.Type
	Stable    bool
	Synthetic bool
	Key       Key
	Decl      *srctree.Var
}

func (v *Variable) String() string {
	if v.Synthetic {
		return fmt.Sprintf("$%s#%d", v.Name, v.ID)
	}
	return v.Name
}

func (*Variable) isValue() {}

// Temp is an untracked intermediate value of the given static type.
type Temp struct {
	Type typesys.Type
}

func (t Temp) String() string {
	if t.Type == nil {
		return "<?>"
	}
	return "<" + t.Type.String() + ">"
}

func (Temp) isValue() {}

// State is a read-only view of the interpreter's memory at one point.
type State interface {
	Constraint(v Value) Constraint
}

// Listener observes a run. Pushed is called each time the interpreter has
// computed value for expr, before the value is used. The returned value is
// pushed in its place, which lets the listener substitute a synthetic
// variable for an expression.
type Listener interface {
	Pushed(expr srctree.Expr, value Value, state State) Value
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(expr srctree.Expr, value Value, state State) Value

func (f ListenerFunc) Pushed(expr srctree.Expr, value Value, state State) Value {
	return f(expr, value, state)
}

// VariableFactory creates synthetic variables. Two calls with keys that
// are Same return the same variable.
type VariableFactory interface {
	Synthetic(key Key, name string, t typesys.Type) *Variable
}

// Interpreter runs a block to completion. A non-nil error is returned only
// when ctx is done; running out of budget is reported as Incomplete.
type Interpreter interface {
	Run(ctx context.Context, block *srctree.Block, listener Listener) (Result, error)
}
