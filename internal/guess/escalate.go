package guess

import (
	"context"

	"typeguess/internal/dataflow"
	"typeguess/internal/identity"
	"typeguess/internal/srctree"
)

// typeListener watches an interpreter run for the place expression. Every
// occurrence equivalent to the place whose value is not a stable variable
// is replaced by one synthetic variable, so facts established on one
// occurrence (an instanceof on a call, say) carry over to the next. The
// facts at the place itself are joined over every visit.
type typeListener struct {
	place srctree.Expr
	same  func(a, b srctree.Expr) bool
	vars  dataflow.VariableFactory
	types dataflow.Subtyping

	// castTracking also substitutes stable variables at the place and as
	// the operand of a cast or instanceof. Assignments then no longer
	// reach the place; only the checks made on the expression do.
	castTracking bool

	result dataflow.Constraint
	seen   bool
}

func (l *typeListener) Pushed(e srctree.Expr, v dataflow.Value, s dataflow.State) dataflow.Value {
	if e != l.place && !l.same(e, l.place) {
		return v
	}
	if l.substitute(e, v) {
		d := identity.Of(srctree.SkipParens(e))
		v = l.vars.Synthetic(d, d.String(), e.Type())
	}
	if e == l.place {
		c := s.Constraint(v)
		if l.seen {
			l.result = l.result.Join(c, l.types)
		} else {
			l.result, l.seen = c, true
		}
	}
	return v
}

func (l *typeListener) substitute(e srctree.Expr, v dataflow.Value) bool {
	x, ok := v.(*dataflow.Variable)
	switch {
	case !ok:
		return true
	case x.Synthetic:
		return false
	case !x.Stable:
		return true
	}
	return l.castTracking && (e == l.place || isCheckedOperand(e))
}

// isCheckedOperand reports whether e is the operand of a cast or an
// instanceof test.
func isCheckedOperand(e srctree.Expr) bool {
	switch p := srctree.ParentSkippingParens(e).(type) {
	case *srctree.Cast:
		return srctree.SkipParens(p.X) == srctree.SkipParens(e)
	case *srctree.InstanceOf:
		return srctree.SkipParens(p.X) == srctree.SkipParens(e)
	}
	return false
}

// typeFromDataflow runs the interpreter over block and returns the facts
// holding at place, bounded by its static type. ok is false when the run
// was incomplete or the place was never reached.
func (g *Guesser) typeFromDataflow(ctx context.Context, block *srctree.Block, place srctree.Expr, honorAssignments bool) (dataflow.Constraint, bool, error) {
	l := &typeListener{
		place:        place,
		same:         g.same,
		vars:         dataflow.NewVariables(),
		types:        g.types,
		castTracking: !honorAssignments,
	}
	res, err := g.interp.Run(ctx, block, l)
	if err != nil {
		return dataflow.Top(), false, err
	}
	if res != dataflow.OK {
		recordDegradation(reasonIncomplete)
		g.logger.Debug("Dataflow analysis incomplete", "expr", describe(place))
		return dataflow.Top(), false, nil
	}
	if !l.seen {
		return dataflow.Top(), false, nil
	}
	c := l.result.Meet(dataflow.InstanceOf(place.Type()), g.types)
	if c.IsBottom() {
		return dataflow.Top(), false, nil
	}
	return c, true, nil
}
