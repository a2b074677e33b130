package guess

import (
	"context"

	"typeguess/internal/srctree"
	"typeguess/internal/typesys"
)

// SearchBudget caps the direct subclasses collected when broadening a
// type. More than this many drops the whole contribution.
const SearchBudget = 5

// derivedClasses returns the accessible, non-anonymous direct subclasses
// of expr's static class type, or nothing if there are more than
// SearchBudget of them.
func (g *Guesser) derivedClasses(ctx context.Context, expr srctree.Expr) ([]typesys.Type, error) {
	cls := g.types.ResolveClass(expr.Type())
	if cls == nil {
		return nil, nil
	}
	subs, overflow, err := g.types.DirectSubclasses(ctx, cls.Name, SearchBudget)
	if err != nil {
		return nil, err
	}
	if overflow {
		recordDegradation(reasonOverflow)
		g.logger.Debug("Derived class search overflowed", "class", cls.Name, "budget", SearchBudget)
		return nil, nil
	}
	pkg, top := packageOf(expr), g.topLevelOf(expr)
	var out []typesys.Type
	for _, s := range subs {
		if g.types.IsAccessible(s, pkg, top) {
			out = append(out, s.Type())
		}
	}
	return out, nil
}

func packageOf(n srctree.Node) string {
	if f := srctree.FileOf(n); f != nil {
		return f.Package
	}
	return ""
}

// topLevelOf names the top-level class whose body contains n.
func (g *Guesser) topLevelOf(n srctree.Node) string {
	var name string
	for c := srctree.EnclosingClass(n); c != nil; c = srctree.EnclosingClass(c.Parent()) {
		name = c.Name
	}
	if info := g.types.Lookup(name); info != nil {
		return info.TopLevel()
	}
	return name
}

// accessible drops types naming a class that cannot be referenced from
// expr's location. Types the hierarchy does not know are kept.
func (g *Guesser) accessible(ts []typesys.Type, expr srctree.Expr) []typesys.Type {
	pkg, top := packageOf(expr), g.topLevelOf(expr)
	out := ts[:0:0]
	for _, t := range ts {
		if c := g.types.ResolveClass(t); c == nil || g.types.IsAccessible(c, pkg, top) {
			out = append(out, t)
		}
	}
	return out
}
