// Package guess is the type-guessing engine. Given an expression it
// proposes the most specific runtime types the expression may have, first
// with a cheap pass over the enclosing block and, when that is not enough,
// by running a dataflow interpreter. It also guesses the element type of
// container-like variables by following their usages.
//
// Every failure degrades to fewer candidate types. The only error the
// public operations return is the context's, and then the result is empty.
package guess

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"typeguess/internal/dataflow"
	"typeguess/internal/identity"
	"typeguess/internal/interp"
	"typeguess/internal/patterns"
	"typeguess/internal/srctree"
	"typeguess/internal/typesys"
)

// Options configures a Guesser. Zero fields get defaults.
type Options struct {
	Types       *typesys.Hierarchy
	Patterns    *patterns.Table
	Interpreter dataflow.Interpreter
	// Project, when set, drives cache invalidation through its change
	// notifications.
	Project    *srctree.Project
	Logger     *slog.Logger
	MaxDepth   int
	MaxVisited int
}

// Guesser answers type-guessing queries. It is safe for concurrent use;
// queries share only read-only tables and the cache.
type Guesser struct {
	types      *typesys.Hierarchy
	patterns   *patterns.Table
	interp     dataflow.Interpreter
	logger     *slog.Logger
	checker    *identity.Checker
	same       func(a, b srctree.Expr) bool
	cache      *Cache
	maxDepth   int
	maxVisited int
}

// New creates a Guesser.
func New(opts Options) *Guesser {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Types == nil {
		opts.Types = typesys.Standard()
	}
	if opts.Patterns == nil {
		opts.Patterns = patterns.Default()
	}
	if opts.Interpreter == nil {
		opts.Interpreter = interp.New(opts.Types, interp.Options{Logger: opts.Logger})
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.MaxVisited <= 0 {
		opts.MaxVisited = DefaultMaxVisited
	}

	g := &Guesser{
		types:      opts.Types,
		patterns:   opts.Patterns,
		interp:     opts.Interpreter,
		logger:     opts.Logger,
		cache:      NewCache(),
		maxDepth:   opts.MaxDepth,
		maxVisited: opts.MaxVisited,
	}
	g.checker = &identity.Checker{Report: g.reportInconsistency}
	g.same = sameSite(g.checker)
	if opts.Project != nil {
		opts.Project.OnChange(g.cache.InvalidateFile)
	}
	return g
}

// Cache returns the guesser's cache.
func (g *Guesser) Cache() *Cache { return g.cache }

func (g *Guesser) reportInconsistency(i identity.Inconsistency) {
	identityInconsistenciesTotal.Inc()
	g.logger.Warn("Equivalent expressions hashed differently",
		"a", describe(i.A),
		"b", describe(i.B),
		"hashA", i.HashA,
		"hashB", i.HashB,
	)
}

// GuessContainerElementType guesses the element type of a container-like
// expression. A generic type with one type argument answers directly.
// Otherwise the usages of the variable the expression names are followed
// down into callees and up to callers, and the method pattern table is
// applied at each use. Casts of element results inside ignored are not
// counted.
func (g *Guesser) GuessContainerElementType(ctx context.Context, containerExpr srctree.Expr, ignored srctree.Range) (*CandidateSet, error) {
	qid := uuid.NewString()
	g.logger.Debug("Guessing container element type", "query", qid, "expr", describe(containerExpr))

	set, err := g.containerElementType(ctx, containerExpr, ignored)
	if err != nil {
		set = NewCandidateSet()
	}
	recordQuery("element", set.Len(), err)
	g.logger.Debug("Container element guess done", "query", qid, "types", set.Strings(), "error", err)
	return set, err
}

func (g *Guesser) containerElementType(ctx context.Context, expr srctree.Expr, ignored srctree.Range) (*CandidateSet, error) {
	if c, ok := expr.Type().(*typesys.Class); ok && len(c.Args) == 1 {
		return NewCandidateSet(c.Args[0]), nil
	}
	v := srctree.Binding(expr)
	if v == nil {
		return NewCandidateSet(), nil
	}
	file := srctree.FileOf(v)
	if file == nil {
		file = srctree.FileOf(expr)
	}

	found := NewCandidateSet()
	down := g.propagator(ctx, ignored, found)
	if err := down.walk(v, file, CheckUsage|CheckDown, 0); err != nil {
		return nil, err
	}
	up := g.propagator(ctx, ignored, found)
	if err := up.walk(v, file, CheckUp, 0); err != nil {
		return nil, err
	}
	if down.capped || up.capped {
		recordDegradation(reasonCapped)
		g.logger.Debug("Usage propagation capped", "var", v.Name, "maxDepth", g.maxDepth, "maxVisited", g.maxVisited)
	}
	if onlyErasureOf(found.Types(), expr.Type()) {
		return NewCandidateSet(), nil
	}
	return found, nil
}

func (g *Guesser) propagator(ctx context.Context, ignored srctree.Range, found *CandidateSet) *propagator {
	return &propagator{
		ctx:        ctx,
		patterns:   g.patterns,
		ignored:    ignored,
		maxDepth:   g.maxDepth,
		maxVisited: g.maxVisited,
		found:      found,
		visited:    make(map[*srctree.Var]bool),
	}
}

// GuessTypeToCast proposes types to cast expr to: the facts known at the
// expression first, then the container element type when expr reads an
// element out of a container, then the direct subclasses of its static
// type.
func (g *Guesser) GuessTypeToCast(ctx context.Context, expr srctree.Expr) (*CandidateSet, error) {
	qid := uuid.NewString()
	g.logger.Debug("Guessing type to cast", "query", qid, "expr", describe(expr))

	set, err := g.typeToCast(ctx, expr)
	if err != nil {
		set = NewCandidateSet()
	}
	recordQuery("cast", set.Len(), err)
	g.logger.Debug("Cast guess done", "query", qid, "types", set.Strings(), "error", err)
	return set, err
}

func (g *Guesser) typeToCast(ctx context.Context, expr srctree.Expr) (*CandidateSet, error) {
	conj, err := g.conjuncts(ctx, expr, true)
	if err != nil {
		return nil, err
	}
	set := NewCandidateSet(conj...)

	if elem, err := g.elementOfRead(ctx, expr); err != nil {
		return nil, err
	} else if elem != nil {
		set.Add(elem)
	}

	derived, err := g.derivedClasses(ctx, expr)
	if err != nil {
		return nil, err
	}
	for _, t := range derived {
		set.Add(t)
	}

	if onlyErasureOf(set.Types(), expr.Type()) {
		return NewCandidateSet(), nil
	}
	return set, nil
}

// elementOfRead returns the single guessed element type when expr calls a
// method whose return value is a container element.
func (g *Guesser) elementOfRead(ctx context.Context, expr srctree.Expr) (typesys.Type, error) {
	call, ok := srctree.SkipParens(expr).(*srctree.Call)
	if !ok || call.Recv == nil {
		return nil, nil
	}
	p, ok := g.patterns.Find(call.Name, len(call.Args))
	if !ok || !p.FromReturn() {
		return nil, nil
	}
	elems, err := g.containerElementType(ctx, call.Recv, srctree.Range{})
	if err != nil || elems.Len() != 1 {
		return nil, err
	}
	t := elems.Types()[0]
	if c := g.types.ResolveClass(t); c != nil && c.Anonymous {
		return nil, nil
	}
	return t, nil
}

// ControlFlowExpressionTypeConjuncts returns the facts known about expr's
// type at its position, as a conjunction. With honorAssignments false,
// only casts and instanceof checks on the expression count, not values
// assigned to it. Results are cached per enclosing block.
func (g *Guesser) ControlFlowExpressionTypeConjuncts(ctx context.Context, expr srctree.Expr, honorAssignments bool) ([]typesys.Type, error) {
	qid := uuid.NewString()
	g.logger.Debug("Computing type conjuncts", "query", qid, "expr", describe(expr), "honorAssignments", honorAssignments)

	ts, err := g.conjuncts(ctx, expr, honorAssignments)
	if err != nil {
		ts = nil
	}
	recordQuery("conjuncts", len(ts), err)
	g.logger.Debug("Type conjuncts done", "query", qid, "types", len(ts), "error", err)
	return ts, err
}

func (g *Guesser) conjuncts(ctx context.Context, expr srctree.Expr, honorAssignments bool) ([]typesys.Type, error) {
	if typesys.IsPrimitive(expr.Type()) {
		return nil, nil
	}
	place := srctree.SkipParens(expr)
	block, err := EnclosingBlock(place)
	if err != nil {
		recordDegradation(reasonNoScope)
		g.logger.Debug("No analyzable scope", "expr", describe(place))
		return nil, nil
	}
	ts, err := g.cache.conjuncts(ctx, block, place, honorAssignments, func() ([]typesys.Type, error) {
		return g.computeConjuncts(ctx, block, place, honorAssignments)
	})
	if err != nil {
		return nil, err
	}
	return append([]typesys.Type(nil), ts...), nil
}

func (g *Guesser) computeConjuncts(ctx context.Context, block *srctree.Block, place srctree.Expr, honorAssignments bool) ([]typesys.Type, error) {
	v, t := runHeuristic(g.cache.elements(block), place, honorAssignments, g.same)
	escalationsTotal.WithLabelValues(v.String()).Inc()

	var result []typesys.Type
	switch v {
	case resolved:
		result = []typesys.Type{t}
	case escalate:
		c, ok, err := g.typeFromDataflow(ctx, block, place, honorAssignments)
		if err != nil {
			return nil, err
		}
		if ok {
			result = c.InstanceOfTypes()
		}
	}

	result = g.accessible(result, place)
	if onlyErasureOf(result, place.Type()) {
		return nil, nil
	}
	return result, nil
}

// describe renders an expression for log lines.
func describe(e srctree.Expr) string {
	if e == nil {
		return "<nil>"
	}
	d := identity.Of(e).String()
	if f := srctree.FileOf(e); f != nil {
		return fmt.Sprintf("%s@%s:%d", d, f.Path, e.Pos())
	}
	return fmt.Sprintf("%s@%d", d, e.Pos())
}
